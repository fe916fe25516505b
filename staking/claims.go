// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/inflation"
	"github.com/vechain/dappstaking/perthing"
	"github.com/vechain/dappstaking/staking/ledger"
	"github.com/vechain/dappstaking/staking/protocol"
	"github.com/vechain/dappstaking/staking/registry"
	"github.com/vechain/dappstaking/staking/reverts"
	"github.com/vechain/dappstaking/staking/rewards"
	"github.com/vechain/dappstaking/types"
)

// StakerEraReward returns the reward of staked in an era where the contract gathered
// contractTotal: the contract's share of the staker pool, split by stake.
func StakerEraReward(staked, contractTotal *big.Int, era *rewards.EraInfo) *big.Int {
	if contractTotal.Sign() == 0 || era.TotalStaked.Sign() == 0 || era.StakerRewardPool == nil {
		return new(big.Int)
	}
	contractReward := perthing.PerbillFromRational(contractTotal, era.TotalStaked).Mul(era.StakerRewardPool)
	return perthing.PerbillFromRational(staked, contractTotal).Mul(contractReward)
}

// ClaimStakerRewards pays the rewards of the oldest unclaimed eras of staker, over all its
// contracts, up to the per call limit. Eras that left the retention window pay nothing.
// With the StakeBalance destination the reward is restaked on the contract it was earned on.
func (e *Engine) ClaimStakerRewards(staker types.Address) error {
	logger.Debug("claim staker rewards", "staker", staker)
	return e.exec("claim-staker-rewards", true, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		contracts, err := e.ledgers.StakedContracts(staker)
		if err != nil {
			return err
		}
		l, err := e.ledgers.GetLedger(staker)
		if err != nil {
			return err
		}

		claims := uint32(0)
		restaked := false
		for _, contract := range contracts {
			if claims >= e.cfg.MaxClaimsPerCall {
				break
			}
			n, didRestake, err := e.claimContract(ps, staker, contract, l, e.cfg.MaxClaimsPerCall-claims)
			if err != nil {
				return err
			}
			claims += n
			restaked = restaked || didRestake
		}
		if claims == 0 {
			return reverts.Newf(reverts.NoClaimableRewards, "%s has no unclaimed eras", staker)
		}
		if restaked {
			return e.saveLedger(staker, l)
		}
		return nil
	})
}

// claimContract claims at most limit eras of staker on contract, updating l on restake.
func (e *Engine) claimContract(
	ps *protocol.ProtocolState,
	staker, contract types.Address,
	l *ledger.AccountLedger,
	limit uint32,
) (uint32, bool, error) {
	dapp, err := e.registry.Get(contract)
	if err != nil {
		return 0, false, err
	}
	end := ps.Era
	if !dapp.IsRegistered() && dapp.UnregisteredEra < end {
		end = dapp.UnregisteredEra
	}
	info, err := e.ledgers.GetStakerInfo(staker, contract)
	if err != nil {
		return 0, false, err
	}

	retentionStart := ps.Era.SaturatingSub(e.cfg.RewardRetentionInEras)
	reward := new(big.Int)
	claims := uint32(0)
	var last types.EraIndex
	for claims < limit {
		oldest, ok := info.OldestEra()
		if !ok || oldest >= end {
			break
		}
		era, staked := info.Claim()
		claims++
		last = era
		if era < retentionStart {
			continue
		}
		eraInfo, err := e.rewards.EraInfo(era)
		if err != nil {
			return 0, false, err
		}
		if eraInfo == nil {
			return 0, false, errors.Wrapf(ledger.ErrInvariantViolation, "era %d within retention has no snapshot", era)
		}
		cs, err := e.rewards.ContractStake(contract, era)
		if err != nil {
			return 0, false, err
		}
		reward.Add(reward, StakerEraReward(staked, cs.Total, eraInfo))
	}
	if claims == 0 {
		return 0, false, nil
	}

	restaked := false
	if reward.Sign() > 0 {
		if err := e.payout(staker, reward); err != nil {
			return 0, false, err
		}
		metricRewardsPaid().AddWithLabel(wholeTokens(reward), map[string]string{"kind": "staker"})
		if l.RewardDestination == ledger.StakeBalance && dapp.IsRegistered() && info.LatestStakedValue().Sign() > 0 {
			if restaked, err = e.restake(ps, contract, info, l, reward); err != nil {
				return 0, false, err
			}
		}
	}
	if err := e.ledgers.SetStakerInfo(staker, contract, info); err != nil {
		return 0, false, err
	}

	ev := e.events.emit(ps, EventReward, staker, contract, reward)
	ev.Era = last
	if restaked {
		ev.Detail = ledger.StakeBalance.String()
	}
	return claims, restaked, nil
}

// restake stakes a freshly paid reward at the current era. The reward stays free when the
// stake history has no room for another checkpoint.
func (e *Engine) restake(
	ps *protocol.ProtocolState,
	contract types.Address,
	info *ledger.StakerInfo,
	l *ledger.AccountLedger,
	reward *big.Int,
) (bool, error) {
	tentative := info.Clone()
	if err := tentative.Stake(ps.Era, reward); err != nil {
		return false, err
	}
	if tentative.Len() > int(e.cfg.MaxEraStakeValues) {
		return false, nil
	}
	*info = *tentative

	cs, err := e.rewards.ContractStake(contract, ps.Era)
	if err != nil {
		return false, err
	}
	cs.Total = new(big.Int).Add(cs.Total, reward)
	if err := e.rewards.SetContractStake(contract, ps.Era, cs); err != nil {
		return false, err
	}
	l.Locked = new(big.Int).Add(l.Locked, reward)
	l.Staked = new(big.Int).Add(l.Staked, reward)
	if err := e.stats.AddLocked(reward); err != nil {
		return false, err
	}
	return true, e.stats.AddStaked(reward, false)
}

// ClaimDAppReward pays the tier reward of contract for a closed build&earn era to its beneficiary.
func (e *Engine) ClaimDAppReward(contract types.Address, era types.EraIndex) error {
	logger.Debug("claim dapp reward", "contract", contract, "era", era)
	return e.exec("claim-dapp-reward", true, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		if err := e.checkClaimEra(ps, era); err != nil {
			return err
		}
		dapp, cs, reward, err := e.dappReward(contract, era)
		if err != nil {
			return err
		}
		if err := e.currency.Transfer(RewardPot, dapp.RewardBeneficiary(), reward, false); err != nil {
			return errors.Wrap(err, "failed to pay dapp reward")
		}
		cs.RewardClaimed = true
		if err := e.rewards.SetContractStake(contract, era, cs); err != nil {
			return err
		}
		metricRewardsPaid().AddWithLabel(wholeTokens(reward), map[string]string{"kind": "dapp"})
		ev := e.events.emit(ps, EventDAppReward, dapp.RewardBeneficiary(), contract, reward)
		ev.Era = era
		return nil
	})
}

// BurnStaleReward burns the unclaimed tier reward of an era that left the retention window.
func (e *Engine) BurnStaleReward(contract types.Address, era types.EraIndex) error {
	logger.Debug("burn stale reward", "contract", contract, "era", era)
	return e.exec("burn-stale-reward", false, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		if era >= ps.Era.SaturatingSub(e.cfg.RewardRetentionInEras) {
			return reverts.Newf(reverts.RewardNotExpired, "era %d is still claimable", era)
		}
		if era < ps.Era.SaturatingSub(e.cfg.HistoryDepth) {
			return reverts.Newf(reverts.HistoryUnavailable, "era %d was pruned", era)
		}
		_, cs, reward, err := e.dappReward(contract, era)
		if err != nil {
			return err
		}
		if err := e.currency.Burn(RewardPot, reward); err != nil {
			return errors.Wrap(err, "failed to burn stale reward")
		}
		cs.RewardClaimed = true
		if err := e.rewards.SetContractStake(contract, era, cs); err != nil {
			return err
		}
		ev := e.events.emit(ps, EventStaleRewardBurned, types.Address{}, contract, reward)
		ev.Era = era
		return nil
	})
}

func (e *Engine) checkClaimEra(ps *protocol.ProtocolState, era types.EraIndex) error {
	if era >= ps.Era {
		return reverts.Newf(reverts.FutureEra, "era %d is not closed, current era %d", era, ps.Era)
	}
	if era < ps.Era.SaturatingSub(e.cfg.RewardRetentionInEras) {
		return reverts.Newf(reverts.HistoryUnavailable, "era %d left the retention window", era)
	}
	return nil
}

// dappReward returns the unclaimed tier reward of contract in era.
func (e *Engine) dappReward(contract types.Address, era types.EraIndex) (*registry.DAppInfo, *rewards.ContractStakeInfo, *big.Int, error) {
	dapp, err := e.registry.Get(contract)
	if err != nil {
		return nil, nil, nil, err
	}
	if !dapp.RegisteredAt(era) {
		return nil, nil, nil, reverts.Newf(reverts.NotRegisteredContract, "%s at era %d", contract, era)
	}
	cs, err := e.rewards.ContractStake(contract, era)
	if err != nil {
		return nil, nil, nil, err
	}
	if cs.RewardClaimed {
		return nil, nil, nil, reverts.Newf(reverts.AlreadyClaimed, "%s at era %d", contract, era)
	}
	tierRewards, err := e.rewards.TierRewards(era)
	if err != nil {
		return nil, nil, nil, err
	}
	if tierRewards == nil {
		return nil, nil, nil, reverts.Newf(reverts.NoClaimableRewards, "era %d paid no dapp rewards", era)
	}
	reward, ok := tierRewards.RewardOf(dapp.ID)
	if !ok || reward.Sign() == 0 {
		return nil, nil, nil, reverts.Newf(reverts.NoClaimableRewards, "%s reached no tier in era %d", contract, era)
	}
	return dapp, cs, reward, nil
}

// ClaimBonusReward pays the bonus of a finished period to a staker that staked during its
// voting subperiod and kept the stake through build&earn.
func (e *Engine) ClaimBonusReward(staker, contract types.Address) error {
	logger.Debug("claim bonus reward", "staker", staker, "contract", contract)
	return e.exec("claim-bonus-reward", true, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		info, err := e.ledgers.GetStakerInfo(staker, contract)
		if err != nil {
			return err
		}
		bonus := info.Bonus
		if bonus.Claimed {
			return reverts.Newf(reverts.AlreadyClaimed, "bonus of period %d", bonus.Period)
		}
		if !bonus.Pending() {
			return reverts.Newf(reverts.NoClaimableRewards, "%s has no bonus on %s", staker, contract)
		}
		if bonus.Period >= ps.Period.Number {
			return reverts.Newf(reverts.NoClaimableRewards, "period %d has not finished", bonus.Period)
		}
		end, err := e.protocol.PeriodEnd(bonus.Period)
		if err != nil {
			return err
		}
		if end == nil || e.bonusExpired(ps, &bonus) {
			// forfeited: clear it so it no longer holds the stake back
			info.Bonus = ledger.BonusStatus{Period: bonus.Period, Stake: new(big.Int)}
			if err := e.ledgers.SetStakerInfo(staker, contract, info); err != nil {
				return err
			}
			ev := e.events.emit(ps, EventBonusReward, staker, contract, new(big.Int))
			ev.Period = bonus.Period
			ev.Detail = "Expired"
			return nil
		}

		reward := perthing.PerbillFromRational(bonus.Stake, end.TotalVotingStake).Mul(end.BonusRewardPool)
		if reward.Sign() > 0 {
			if err := e.payout(staker, reward); err != nil {
				return err
			}
			metricRewardsPaid().AddWithLabel(wholeTokens(reward), map[string]string{"kind": "bonus"})
		}
		info.Bonus.Claimed = true
		if err := e.ledgers.SetStakerInfo(staker, contract, info); err != nil {
			return err
		}
		ev := e.events.emit(ps, EventBonusReward, staker, contract, reward)
		ev.Period = bonus.Period
		return nil
	})
}

// bonusExpired reports whether the period end backing b has been pruned.
func (e *Engine) bonusExpired(ps *protocol.ProtocolState, b *ledger.BonusStatus) bool {
	return uint64(b.Period)+uint64(e.cfg.RewardRetentionInPeriods) < uint64(ps.Period.Number)
}

// payout mints a reward, turning a broken issuance cap into a revert.
func (e *Engine) payout(account types.Address, amount *big.Int) error {
	if err := e.inflation.PayoutReward(account, amount); err != nil {
		if errors.Is(err, inflation.ErrPayoutCapExceeded) {
			return reverts.Newf(reverts.RewardPayoutFailed, "%v", err)
		}
		return errors.Wrap(err, "failed to pay reward")
	}
	return nil
}
