// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package currency

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/log"
	"github.com/vechain/dappstaking/storage"
	"github.com/vechain/dappstaking/types"
)

var logger = log.WithContext("pkg", "currency")

var (
	slotAccounts = storage.Slot("accounts")
	slotIssuance = storage.Slot("total-issuance")
)

type lock struct {
	ID     LockID
	Amount *big.Int
}

type account struct {
	Free     *big.Int
	Reserved *big.Int
	Locks    []lock
}

func (a *account) normalize() {
	if a.Free == nil {
		a.Free = new(big.Int)
	}
	if a.Reserved == nil {
		a.Reserved = new(big.Int)
	}
}

func (a *account) frozen() *big.Int {
	max := new(big.Int)
	for _, l := range a.Locks {
		if l.Amount.Cmp(max) > 0 {
			max.Set(l.Amount)
		}
	}
	return max
}

func (a *account) usable() *big.Int {
	return types.SaturatingSub(a.Free, a.frozen())
}

// Balances is a storage backed Currency.
// Sharing the storage context with the engine makes balance changes part of the same transaction.
type Balances struct {
	accounts           *storage.Mapping[types.Address, account]
	issuance           *storage.Uint256
	existentialDeposit *big.Int
}

var _ Currency = (*Balances)(nil)

// NewBalances creates the balances service. Transfers with keepAlive keep at least
// existentialDeposit on the sender.
func NewBalances(sctx *storage.Context, existentialDeposit *big.Int) *Balances {
	if existentialDeposit == nil {
		existentialDeposit = new(big.Int)
	}
	return &Balances{
		accounts:           storage.NewMapping[types.Address, account](sctx, slotAccounts),
		issuance:           storage.NewUint256(sctx, slotIssuance),
		existentialDeposit: existentialDeposit,
	}
}

func (b *Balances) get(addr types.Address) (*account, error) {
	acc, err := b.accounts.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account")
	}
	acc.normalize()
	return &acc, nil
}

func (b *Balances) set(addr types.Address, acc *account) error {
	if acc.Free.Sign() == 0 && acc.Reserved.Sign() == 0 && len(acc.Locks) == 0 {
		b.accounts.Delete(addr)
		return nil
	}
	return errors.Wrap(b.accounts.Set(addr, *acc), "failed to set account")
}

func (b *Balances) FreeBalance(addr types.Address) (*big.Int, error) {
	acc, err := b.get(addr)
	if err != nil {
		return nil, err
	}
	return acc.Free, nil
}

func (b *Balances) ReservedBalance(addr types.Address) (*big.Int, error) {
	acc, err := b.get(addr)
	if err != nil {
		return nil, err
	}
	return acc.Reserved, nil
}

// UsableBalance returns the free balance not frozen by any lock.
func (b *Balances) UsableBalance(addr types.Address) (*big.Int, error) {
	acc, err := b.get(addr)
	if err != nil {
		return nil, err
	}
	return acc.usable(), nil
}

func (b *Balances) Locked(id LockID, addr types.Address) (*big.Int, error) {
	acc, err := b.get(addr)
	if err != nil {
		return nil, err
	}
	for _, l := range acc.Locks {
		if l.ID == id {
			return new(big.Int).Set(l.Amount), nil
		}
	}
	return new(big.Int), nil
}

func (b *Balances) Lock(id LockID, addr types.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return b.RemoveLock(id, addr)
	}
	acc, err := b.get(addr)
	if err != nil {
		return err
	}
	if amount.Cmp(acc.Free) > 0 {
		return ErrInsufficientBalance
	}
	amount = new(big.Int).Set(amount)
	replaced := false
	for i := range acc.Locks {
		if acc.Locks[i].ID == id {
			acc.Locks[i].Amount = amount
			replaced = true
		}
	}
	if !replaced {
		acc.Locks = append(acc.Locks, lock{ID: id, Amount: amount})
	}
	logger.Debug("set lock", "account", addr, "id", id, "amount", amount)
	return b.set(addr, acc)
}

func (b *Balances) RemoveLock(id LockID, addr types.Address) error {
	acc, err := b.get(addr)
	if err != nil {
		return err
	}
	locks := acc.Locks[:0]
	for _, l := range acc.Locks {
		if l.ID != id {
			locks = append(locks, l)
		}
	}
	acc.Locks = locks
	return b.set(addr, acc)
}

func (b *Balances) Reserve(addr types.Address, amount *big.Int) error {
	acc, err := b.get(addr)
	if err != nil {
		return err
	}
	if err := checkWithdraw(acc, amount); err != nil {
		return err
	}
	acc.Free = new(big.Int).Sub(acc.Free, amount)
	acc.Reserved = new(big.Int).Add(acc.Reserved, amount)
	return b.set(addr, acc)
}

// Unreserve moves up to amount of the reserved balance back to free.
func (b *Balances) Unreserve(addr types.Address, amount *big.Int) error {
	acc, err := b.get(addr)
	if err != nil {
		return err
	}
	amount = types.MinBalance(amount, acc.Reserved)
	acc.Reserved = new(big.Int).Sub(acc.Reserved, amount)
	acc.Free = new(big.Int).Add(acc.Free, amount)
	return b.set(addr, acc)
}

func (b *Balances) Transfer(from, to types.Address, amount *big.Int, keepAlive bool) error {
	if amount.Sign() == 0 || from == to {
		return nil
	}
	src, err := b.get(from)
	if err != nil {
		return err
	}
	if err := checkWithdraw(src, amount); err != nil {
		return err
	}
	remaining := new(big.Int).Sub(src.Free, amount)
	if keepAlive && remaining.Cmp(b.existentialDeposit) < 0 {
		return ErrKeepAlive
	}
	src.Free = remaining
	if err := b.set(from, src); err != nil {
		return err
	}

	dst, err := b.get(to)
	if err != nil {
		return err
	}
	dst.Free = new(big.Int).Add(dst.Free, amount)
	return b.set(to, dst)
}

func (b *Balances) Mint(addr types.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	acc, err := b.get(addr)
	if err != nil {
		return err
	}
	acc.Free = new(big.Int).Add(acc.Free, amount)
	if err := b.set(addr, acc); err != nil {
		return err
	}
	return b.issuance.Add(amount)
}

func (b *Balances) Burn(addr types.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	acc, err := b.get(addr)
	if err != nil {
		return err
	}
	if err := checkWithdraw(acc, amount); err != nil {
		return err
	}
	acc.Free = new(big.Int).Sub(acc.Free, amount)
	if err := b.set(addr, acc); err != nil {
		return err
	}
	return b.issuance.Sub(amount)
}

func (b *Balances) TotalIssuance() (*big.Int, error) {
	return b.issuance.Get()
}

func checkWithdraw(acc *account, amount *big.Int) error {
	if amount.Cmp(acc.Free) > 0 {
		return ErrInsufficientBalance
	}
	if amount.Cmp(acc.usable()) > 0 {
		return ErrLiquidityRestrictions
	}
	return nil
}
