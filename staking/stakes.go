// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/staking/ledger"
	"github.com/vechain/dappstaking/staking/protocol"
	"github.com/vechain/dappstaking/staking/reverts"
	"github.com/vechain/dappstaking/types"
)

// Stake stakes amount of the unstaked locked funds of staker on a registered contract.
// During the voting subperiod the stake also counts towards the bonus of the period.
func (e *Engine) Stake(staker, contract types.Address, amount *big.Int) error {
	logger.Debug("stake", "staker", staker, "contract", contract, "amount", amount)
	return e.exec("stake", true, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		if err := e.stake(ps, staker, contract, amount); err != nil {
			return err
		}
		e.events.emit(ps, EventStake, staker, contract, amount)
		return nil
	})
}

// Unstake removes up to amount of the stake of staker on a registered contract and returns
// it to the unstaked locked funds. A residual below the minimum stake is unstaked as well.
func (e *Engine) Unstake(staker, contract types.Address, amount *big.Int) error {
	logger.Debug("unstake", "staker", staker, "contract", contract, "amount", amount)
	return e.exec("unstake", true, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		unstaked, err := e.unstake(ps, staker, contract, amount)
		if err != nil {
			return err
		}
		e.events.emit(ps, EventUnstake, staker, contract, unstaked)
		return nil
	})
}

// MoveStake unstakes from one contract and stakes the same amount on another, without unlocking.
func (e *Engine) MoveStake(staker, from, to types.Address, amount *big.Int) error {
	logger.Debug("move stake", "staker", staker, "from", from, "to", to, "amount", amount)
	return e.exec("move-stake", true, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		if from == to {
			return reverts.New(reverts.SameContract, "source and destination are the same")
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		moved, err := e.unstake(ps, staker, from, amount)
		if err != nil {
			return err
		}
		if err := e.stake(ps, staker, to, moved); err != nil {
			return err
		}
		e.events.emit(ps, EventStakeMoved, staker, to, moved).Detail = from.String()
		return nil
	})
}

// UnstakeFromUnregistered returns the whole stake of staker on an unregistered contract
// once every era before the unregistration was claimed.
func (e *Engine) UnstakeFromUnregistered(staker, contract types.Address) error {
	logger.Debug("unstake from unregistered", "staker", staker, "contract", contract)
	return e.exec("unstake-from-unregistered", true, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		dapp, err := e.registry.Get(contract)
		if err != nil {
			return err
		}
		if dapp.IsEmpty() {
			return reverts.Newf(reverts.NotRegisteredContract, "%s", contract)
		}
		if dapp.IsRegistered() {
			return reverts.Newf(reverts.NotUnregisteredContract, "%s", contract)
		}
		info, err := e.ledgers.GetStakerInfo(staker, contract)
		if err != nil {
			return err
		}
		staked := info.LatestStakedValue()
		if staked.Sign() == 0 {
			return reverts.Newf(reverts.NotStakedContract, "%s has no stake on %s", staker, contract)
		}
		if oldest, _ := info.OldestEra(); oldest < dapp.UnregisteredEra {
			return reverts.Newf(reverts.UnclaimedRewardsRemaining, "era %d is unclaimed", oldest)
		}
		votingDecrease := new(big.Int)
		if info.Bonus.Pending() && !e.bonusExpired(ps, &info.Bonus) {
			if info.Bonus.Period < ps.Period.Number {
				return reverts.Newf(reverts.UnclaimedRewardsRemaining, "bonus of period %d is unclaimed", info.Bonus.Period)
			}
			votingDecrease = info.Bonus.Stake
		}

		l, err := e.ledgers.GetLedger(staker)
		if err != nil {
			return err
		}
		if l.Staked.Cmp(staked) < 0 {
			return errors.Wrapf(ledger.ErrInvariantViolation, "ledger of %s stakes %s below %s", staker, l.Staked, staked)
		}
		l.Staked = new(big.Int).Sub(l.Staked, staked)
		if err := e.ledgers.SetLedger(staker, l); err != nil {
			return err
		}
		if err := e.ledgers.SetStakerInfo(staker, contract, ledger.NewStakerInfo()); err != nil {
			return err
		}
		if err := e.stats.RemoveStaked(staked, votingDecrease); err != nil {
			return err
		}
		e.events.emit(ps, EventUnstakeFromUnregistered, staker, contract, staked)
		return nil
	})
}

func (e *Engine) stake(ps *protocol.ProtocolState, staker, contract types.Address, amount *big.Int) error {
	if _, err := e.registry.GetRegistered(contract); err != nil {
		return err
	}
	l, err := e.ledgers.GetLedger(staker)
	if err != nil {
		return err
	}
	if available := l.Unstaked(); amount.Cmp(available) > 0 {
		return reverts.Newf(reverts.UnavailableStakeFunds, "stake %s exceeds unstaked %s", amount, available)
	}

	info, err := e.ledgers.GetStakerInfo(staker, contract)
	if err != nil {
		return err
	}
	voting := ps.Period.Subperiod == protocol.Voting
	if voting && info.Bonus.Pending() && info.Bonus.Period != ps.Period.Number && !e.bonusExpired(ps, &info.Bonus) {
		return reverts.Newf(reverts.UnclaimedRewardsRemaining, "bonus of period %d is unclaimed", info.Bonus.Period)
	}
	latest := info.LatestStakedValue()
	if total := new(big.Int).Add(latest, amount); total.Cmp(e.cfg.MinimumStakeAmount) < 0 {
		return reverts.Newf(reverts.BelowMinimumStakeAmount, "stake %s below %s", total, e.cfg.MinimumStakeAmount)
	}

	listed, err := e.ledgers.IsStakedOn(staker, contract)
	if err != nil {
		return err
	}
	if !listed {
		count, err := e.ledgers.StakedContractsCount(staker)
		if err != nil {
			return err
		}
		if count >= uint64(e.cfg.MaxNumberOfStakedContracts) {
			return reverts.Newf(reverts.TooManyStakedContracts, "limit %d", e.cfg.MaxNumberOfStakedContracts)
		}
	}

	cs, err := e.rewards.ContractStake(contract, ps.Era)
	if err != nil {
		return err
	}
	newStaker := latest.Sign() == 0
	if newStaker && cs.NumberOfStakers >= e.cfg.MaxNumberOfStakersPerContract {
		return reverts.Newf(reverts.MaxNumberOfStakersExceeded, "limit %d", e.cfg.MaxNumberOfStakersPerContract)
	}

	if err := info.Stake(ps.Era, amount); err != nil {
		return err
	}
	if info.Len() > int(e.cfg.MaxEraStakeValues) {
		return reverts.Newf(reverts.TooManyEraStakeValues, "limit %d, claim rewards first", e.cfg.MaxEraStakeValues)
	}
	if voting {
		info.AddBonusStake(ps.Period.Number, amount)
	}

	cs.Total = new(big.Int).Add(cs.Total, amount)
	if newStaker {
		cs.NumberOfStakers++
	}
	l.Staked = new(big.Int).Add(l.Staked, amount)

	if err := e.ledgers.SetStakerInfo(staker, contract, info); err != nil {
		return err
	}
	if err := e.rewards.SetContractStake(contract, ps.Era, cs); err != nil {
		return err
	}
	if err := e.ledgers.SetLedger(staker, l); err != nil {
		return err
	}
	return e.stats.AddStaked(amount, voting)
}

func (e *Engine) unstake(ps *protocol.ProtocolState, staker, contract types.Address, amount *big.Int) (*big.Int, error) {
	if _, err := e.registry.GetRegistered(contract); err != nil {
		return nil, err
	}
	info, err := e.ledgers.GetStakerInfo(staker, contract)
	if err != nil {
		return nil, err
	}
	latest := info.LatestStakedValue()
	if latest.Sign() == 0 {
		return nil, reverts.Newf(reverts.NotStakedContract, "%s has no stake on %s", staker, contract)
	}

	unstaked := new(big.Int).Set(types.MinBalance(amount, latest))
	if residual := new(big.Int).Sub(latest, unstaked); residual.Sign() > 0 && residual.Cmp(e.cfg.MinimumStakeAmount) < 0 {
		unstaked = latest
	}

	if err := info.Unstake(ps.Era, unstaked); err != nil {
		return nil, err
	}
	if info.Len() > int(e.cfg.MaxEraStakeValues) {
		return nil, reverts.Newf(reverts.TooManyEraStakeValues, "limit %d, claim rewards first", e.cfg.MaxEraStakeValues)
	}
	votingDecrease := info.ReduceBonusStake(ps.Period.Number, ps.Period.Subperiod == protocol.Voting)

	cs, err := e.rewards.ContractStake(contract, ps.Era)
	if err != nil {
		return nil, err
	}
	if cs.Total.Cmp(unstaked) < 0 {
		return nil, errors.Wrapf(ledger.ErrInvariantViolation, "contract %s stake %s below unstake %s", contract, cs.Total, unstaked)
	}
	cs.Total = new(big.Int).Sub(cs.Total, unstaked)
	if info.LatestStakedValue().Sign() == 0 {
		if cs.NumberOfStakers == 0 {
			return nil, errors.Wrapf(ledger.ErrInvariantViolation, "contract %s has no stakers to remove", contract)
		}
		cs.NumberOfStakers--
	}

	l, err := e.ledgers.GetLedger(staker)
	if err != nil {
		return nil, err
	}
	if l.Staked.Cmp(unstaked) < 0 {
		return nil, errors.Wrapf(ledger.ErrInvariantViolation, "ledger of %s stakes %s below %s", staker, l.Staked, unstaked)
	}
	l.Staked = new(big.Int).Sub(l.Staked, unstaked)

	if err := e.ledgers.SetStakerInfo(staker, contract, info); err != nil {
		return nil, err
	}
	if err := e.rewards.SetContractStake(contract, ps.Era, cs); err != nil {
		return nil, err
	}
	if err := e.ledgers.SetLedger(staker, l); err != nil {
		return nil, err
	}
	if err := e.stats.RemoveStaked(unstaked, votingDecrease); err != nil {
		return nil, err
	}
	return unstaked, nil
}
