// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"fmt"
	"math/big"

	"github.com/vechain/dappstaking/types"
)

// RewardDestination selects what happens with claimed staker rewards.
type RewardDestination uint8

const (
	// StakeBalance restakes rewards on the contract they were earned on.
	StakeBalance RewardDestination = iota
	// FreeBalance leaves rewards as free balance.
	FreeBalance
)

func (d RewardDestination) String() string {
	switch d {
	case StakeBalance:
		return "StakeBalance"
	case FreeBalance:
		return "FreeBalance"
	default:
		return fmt.Sprintf("RewardDestination(%d)", uint8(d))
	}
}

func (d RewardDestination) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *RewardDestination) UnmarshalText(text []byte) error {
	switch string(text) {
	case "StakeBalance", "stake":
		*d = StakeBalance
	case "FreeBalance", "free":
		*d = FreeBalance
	default:
		return fmt.Errorf("unknown reward destination %q", text)
	}
	return nil
}

// AccountLedger is the per account aggregate. Locked is the ceiling of what may be staked,
// Staked is the sum of the account's latest stakes over all contracts.
type AccountLedger struct {
	Locked            *big.Int
	Staked            *big.Int
	Unbonding         UnbondingInfo
	RewardDestination RewardDestination
}

func NewAccountLedger() *AccountLedger {
	return &AccountLedger{Locked: new(big.Int), Staked: new(big.Int)}
}

func (l *AccountLedger) IsEmpty() bool {
	return l.Locked.Sign() == 0 && l.Unbonding.IsEmpty()
}

// Unstaked returns the locked amount not backing any stake.
func (l *AccountLedger) Unstaked() *big.Int {
	return types.SaturatingSub(l.Locked, l.Staked)
}

// TotalLocked returns the amount held by the currency lock: locked plus unbonding.
func (l *AccountLedger) TotalLocked() *big.Int {
	return new(big.Int).Add(l.Locked, l.Unbonding.Sum())
}

func (l *AccountLedger) Clone() *AccountLedger {
	return &AccountLedger{
		Locked:            types.Copy(l.Locked),
		Staked:            types.Copy(l.Staked),
		Unbonding:         l.Unbonding.Clone(),
		RewardDestination: l.RewardDestination,
	}
}

func (l *AccountLedger) normalize() {
	if l.Locked == nil {
		l.Locked = new(big.Int)
	}
	if l.Staked == nil {
		l.Staked = new(big.Int)
	}
}
