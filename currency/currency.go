// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package currency defines the balance primitives consumed by the staking engine.
package currency

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/types"
)

// LockID names an independent lock on an account's free balance.
type LockID [8]byte

// NewLockID builds a lock id from a short name.
func NewLockID(name string) LockID {
	var id LockID
	copy(id[:], name)
	return id
}

func (id LockID) String() string {
	n := len(id)
	for n > 0 && id[n-1] == 0 {
		n--
	}
	return string(id[:n])
}

var (
	// ErrInsufficientBalance is returned when the free balance can not cover an amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrLiquidityRestrictions is returned when locks forbid moving an amount out.
	ErrLiquidityRestrictions = errors.New("account liquidity restrictions prevent withdrawal")
	// ErrKeepAlive is returned when a transfer would leave the sender below the existential deposit.
	ErrKeepAlive = errors.New("transfer would kill account")
)

// Currency is the collaborator offering lock, reserve, transfer, mint and burn primitives.
//
// Locks overlap: the frozen part of the free balance is the largest lock, not their sum.
type Currency interface {
	FreeBalance(account types.Address) (*big.Int, error)
	ReservedBalance(account types.Address) (*big.Int, error)
	// Locked returns the amount of the given lock.
	Locked(id LockID, account types.Address) (*big.Int, error)
	// Lock sets the amount of the given lock, replacing the previous one.
	Lock(id LockID, account types.Address, amount *big.Int) error
	RemoveLock(id LockID, account types.Address) error
	Reserve(account types.Address, amount *big.Int) error
	Unreserve(account types.Address, amount *big.Int) error
	Transfer(from, to types.Address, amount *big.Int, keepAlive bool) error
	Mint(account types.Address, amount *big.Int) error
	Burn(account types.Address, amount *big.Int) error
	TotalIssuance() (*big.Int, error)
}
