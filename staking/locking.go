// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/vechain/dappstaking/staking/ledger"
	"github.com/vechain/dappstaking/staking/reverts"
	"github.com/vechain/dappstaking/types"
)

// Lock locks amount of the free balance of account, making it available for staking.
func (e *Engine) Lock(account types.Address, amount *big.Int) error {
	logger.Debug("lock", "account", account, "amount", amount)
	return e.exec("lock", true, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		l, err := e.ledgers.GetLedger(account)
		if err != nil {
			return err
		}
		free, err := e.currency.FreeBalance(account)
		if err != nil {
			return err
		}
		available := types.SaturatingSub(free, l.TotalLocked())
		if amount.Cmp(available) > 0 {
			return reverts.Newf(reverts.InsufficientBalance, "lock %s exceeds available %s", amount, available)
		}
		l.Locked = new(big.Int).Add(l.Locked, amount)
		if l.Locked.Cmp(e.cfg.MinimumLockedAmount) < 0 {
			return reverts.Newf(reverts.LockedAmountBelowThreshold, "locked %s below %s", l.Locked, e.cfg.MinimumLockedAmount)
		}
		if err := e.saveLedger(account, l); err != nil {
			return err
		}
		if err := e.stats.AddLocked(amount); err != nil {
			return err
		}
		e.events.emit(ps, EventLocked, account, types.Address{}, amount)
		return nil
	})
}

// Unlock starts unbonding amount of the locked funds not backing any stake.
// When what remains locked would fall below the minimum and nothing is staked, everything is unlocked.
func (e *Engine) Unlock(account types.Address, amount *big.Int) error {
	logger.Debug("unlock", "account", account, "amount", amount)
	return e.exec("unlock", true, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		l, err := e.ledgers.GetLedger(account)
		if err != nil {
			return err
		}
		unlockable := l.Unstaked()
		if unlockable.Sign() == 0 || amount.Cmp(unlockable) > 0 {
			return reverts.Newf(reverts.NotEnoughFundsToUnlock, "unlock %s exceeds unlockable %s", amount, unlockable)
		}
		unlocking := new(big.Int).Set(amount)
		remaining := new(big.Int).Sub(l.Locked, amount)
		if remaining.Cmp(e.cfg.MinimumLockedAmount) < 0 && l.Staked.Sign() == 0 {
			unlocking.Set(l.Locked)
		}

		l.Locked = new(big.Int).Sub(l.Locked, unlocking)
		l.Unbonding.Add(ledger.UnlockingChunk{
			Amount:    unlocking,
			UnlockEra: ps.Era + types.EraIndex(e.cfg.UnlockingPeriod),
		})
		if l.Unbonding.Len() > int(e.cfg.MaxUnlockingChunks) {
			return reverts.Newf(reverts.TooManyUnlockingChunks, "limit %d", e.cfg.MaxUnlockingChunks)
		}
		// the currency lock keeps covering unbonding funds
		if err := e.ledgers.SetLedger(account, l); err != nil {
			return err
		}
		if err := e.stats.RemoveLocked(unlocking); err != nil {
			return err
		}
		e.events.emit(ps, EventUnlocking, account, types.Address{}, unlocking)
		return nil
	})
}

// ClaimUnlocked releases every chunk whose unlock era was reached. It is a no-op when nothing is claimable.
func (e *Engine) ClaimUnlocked(account types.Address) error {
	logger.Debug("claim unlocked", "account", account)
	return e.exec("claim-unlocked", true, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		l, err := e.ledgers.GetLedger(account)
		if err != nil {
			return err
		}
		claimable, remaining := l.Unbonding.Partition(ps.Era)
		amount := claimable.Sum()
		if amount.Sign() == 0 {
			return nil
		}
		l.Unbonding = remaining
		if err := e.saveLedger(account, l); err != nil {
			return err
		}
		e.events.emit(ps, EventClaimedUnlocked, account, types.Address{}, amount)
		return nil
	})
}

// RelockUnlocking moves every unbonding chunk back into the locked funds.
func (e *Engine) RelockUnlocking(account types.Address) error {
	logger.Debug("relock unlocking", "account", account)
	return e.exec("relock", true, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		l, err := e.ledgers.GetLedger(account)
		if err != nil {
			return err
		}
		amount := l.Unbonding.Sum()
		if amount.Sign() == 0 {
			return reverts.New(reverts.NoUnlockingChunks, "nothing is unlocking")
		}
		l.Locked = new(big.Int).Add(l.Locked, amount)
		l.Unbonding = ledger.UnbondingInfo{}
		if l.Locked.Cmp(e.cfg.MinimumLockedAmount) < 0 {
			return reverts.Newf(reverts.LockedAmountBelowThreshold, "locked %s below %s", l.Locked, e.cfg.MinimumLockedAmount)
		}
		if err := e.ledgers.SetLedger(account, l); err != nil {
			return err
		}
		if err := e.stats.AddLocked(amount); err != nil {
			return err
		}
		e.events.emit(ps, EventRelock, account, types.Address{}, amount)
		return nil
	})
}

// SetRewardDestination selects whether staker rewards are restaked or left free.
func (e *Engine) SetRewardDestination(account types.Address, dest ledger.RewardDestination) error {
	logger.Debug("set reward destination", "account", account, "destination", dest)
	return e.exec("set-reward-destination", true, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		if dest != ledger.StakeBalance && dest != ledger.FreeBalance {
			return reverts.Newf(reverts.InvalidParameters, "unknown reward destination %d", dest)
		}
		l, err := e.ledgers.GetLedger(account)
		if err != nil {
			return err
		}
		if l.IsEmpty() {
			return reverts.Newf(reverts.NotStakedContract, "%s has nothing locked", account)
		}
		l.RewardDestination = dest
		if err := e.ledgers.SetLedger(account, l); err != nil {
			return err
		}
		e.events.emit(ps, EventRewardDestination, account, types.Address{}, nil).Detail = dest.String()
		return nil
	})
}

// saveLedger stores the ledger and sets the currency lock to what it holds.
func (e *Engine) saveLedger(account types.Address, l *ledger.AccountLedger) error {
	if err := e.ledgers.SetLedger(account, l); err != nil {
		return err
	}
	total := l.TotalLocked()
	if total.Sign() == 0 {
		return e.currency.RemoveLock(LockID, account)
	}
	return e.currency.Lock(LockID, account, total)
}
