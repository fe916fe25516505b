// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"strconv"

	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/staking/globalstats"
	"github.com/vechain/dappstaking/staking/protocol"
	"github.com/vechain/dappstaking/staking/registry"
	"github.com/vechain/dappstaking/staking/reverts"
	"github.com/vechain/dappstaking/staking/rewards"
	"github.com/vechain/dappstaking/staking/tiers"
	"github.com/vechain/dappstaking/types"
)

// OnInitialize runs the per block housekeeping of block now: the inflation payout and,
// when the era ended or a transition was forced, the era change.
func (e *Engine) OnInitialize(now types.BlockNumber) error {
	return e.exec("on-initialize", false, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		if now <= ps.LastBlock {
			return reverts.Newf(reverts.HistoryUnavailable, "block %d already processed, last %d", now, ps.LastBlock)
		}
		if err := e.inflation.OnInitialize(); err != nil {
			return err
		}
		if !ps.Maintenance {
			force, err := e.protocol.TakeForce()
			if err != nil {
				return err
			}
			if ps.IsNewEra(now) || force != protocol.ForceNone {
				ps.LastBlock = now
				if err := e.eraChange(ps, now, force); err != nil {
					return err
				}
			}
		}
		ps.LastBlock = now
		return e.protocol.SetState(ps)
	})
}

// eraChange closes the current era and moves ps to the next one.
func (e *Engine) eraChange(ps *protocol.ProtocolState, now types.BlockNumber, force protocol.ForcingType) error {
	closing := ps.Era
	totals, err := e.stats.Totals()
	if err != nil {
		return err
	}

	info := &rewards.EraInfo{
		StakerRewardPool: new(big.Int),
		DAppRewardPool:   new(big.Int),
		TotalStaked:      totals.Staked,
		TotalLocked:      totals.Locked,
		Period:           ps.Period.Number,
		BuildAndEarn:     ps.Period.Subperiod == protocol.BuildAndEarn,
	}
	if info.BuildAndEarn {
		staker, dapp, err := e.inflation.StakerAndDAppRewardPools(totals.Staked)
		if err != nil {
			return err
		}
		info.StakerRewardPool, info.DAppRewardPool = staker, dapp
		if err := e.assignTiers(closing, ps.Period.Number, dapp); err != nil {
			return err
		}
	}
	if err := e.rewards.CloseEra(closing, info); err != nil {
		return err
	}

	t := ps.Advance(now, force, e.cfg.lengths())

	if err := e.registry.Iter(func(contract types.Address, _ *registry.DAppInfo) error {
		return e.rewards.RotateContractStake(contract, t.ClosedEra)
	}); err != nil {
		return err
	}
	if t.ClosedEra >= types.EraIndex(e.cfg.HistoryDepth) {
		contracts, err := e.registry.AllContracts()
		if err != nil {
			return err
		}
		e.rewards.Prune(t.ClosedEra-types.EraIndex(e.cfg.HistoryDepth), contracts)
	}

	if t.PeriodEnded {
		if err := e.endPeriod(t); err != nil {
			return err
		}
	}
	if _, err := e.inflation.OnNewEra(ps.Era); err != nil {
		return err
	}

	e.events.emit(ps, EventEraChanged, types.Address{}, types.Address{}, nil)
	if t.SubperiodChanged {
		e.events.emit(ps, EventPeriodChanged, types.Address{}, types.Address{}, nil).Detail = ps.Period.Subperiod.String()
	}
	logger.Info("era changed",
		"era", ps.Era,
		"period", ps.Period.Number,
		"subperiod", ps.Period.Subperiod,
		"nextEraStart", ps.NextEraStart,
		"staked", totals.Staked,
		"stakerPool", info.StakerRewardPool,
		"dappPool", info.DAppRewardPool,
	)
	e.updateGauges(ps, totals)
	return nil
}

// assignTiers ranks the registered dApps by their stake in the closing era and mints the
// assigned rewards into the reward pot.
func (e *Engine) assignTiers(era types.EraIndex, period types.PeriodNumber, pool *big.Int) error {
	var entries []tiers.Entry
	if err := e.registry.Iter(func(contract types.Address, dapp *registry.DAppInfo) error {
		cs, err := e.rewards.ContractStake(contract, era)
		if err != nil {
			return err
		}
		entries = append(entries, tiers.Entry{ID: dapp.ID, Contract: contract, Stake: cs.Total})
		return nil
	}); err != nil {
		return err
	}
	config, err := e.tiers.Configuration()
	if err != nil {
		return err
	}
	assigned := tiers.Assign(config, entries, pool, period)
	if err := e.rewards.SetTierRewards(era, assigned); err != nil {
		return err
	}
	if total := assigned.Total(); total.Sign() > 0 {
		if err := e.payout(RewardPot, total); err != nil {
			return errors.Wrap(err, "failed to fund reward pot")
		}
	}

	counts := make([]int, len(config.SlotsPerTier))
	for _, d := range assigned.DApps {
		if int(d.Tier) < len(counts) {
			counts[d.Tier]++
		}
	}
	for tier, n := range counts {
		metricTierDApps().SetWithLabel(int64(n), map[string]string{"tier": strconv.Itoa(tier + 1)})
	}
	return nil
}

// endPeriod stores what the bonus of the finished period is paid from, recalculates the
// tiers for the next period and prunes period ends past the retention.
func (e *Engine) endPeriod(t protocol.Transition) error {
	bonusPool, err := e.inflation.BonusRewardPool()
	if err != nil {
		return err
	}
	voting, err := e.stats.TakeVotingStake()
	if err != nil {
		return err
	}
	if err := e.protocol.SetPeriodEnd(t.ClosedPeriod, &protocol.PeriodEndInfo{
		BonusRewardPool:  bonusPool,
		TotalVotingStake: voting,
		FinalEra:         t.ClosedEra,
	}); err != nil {
		return err
	}

	price, err := e.price.NativePrice()
	if err != nil {
		return errors.Wrap(err, "failed to get native price")
	}
	config, err := e.tiers.Recalculate(price)
	if err != nil {
		return err
	}
	logger.Info("period ended",
		"period", t.ClosedPeriod,
		"bonusPool", bonusPool,
		"votingStake", voting,
		"price", price,
		"slots", config.NumberOfSlots,
	)

	retention := types.PeriodNumber(e.cfg.RewardRetentionInPeriods)
	if t.ClosedPeriod > retention {
		e.protocol.PrunePeriodEnd(t.ClosedPeriod - retention)
	}
	return nil
}

func (e *Engine) updateGauges(ps *protocol.ProtocolState, totals *globalstats.Totals) {
	metricEra().Set(int64(ps.Era))
	metricPeriod().Set(int64(ps.Period.Number))
	metricTotals().SetWithLabel(wholeTokens(totals.Locked), map[string]string{"total": "locked"})
	metricTotals().SetWithLabel(wholeTokens(totals.Staked), map[string]string{"total": "staked"})
}
