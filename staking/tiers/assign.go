// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tiers

import (
	"math/big"
	"slices"

	"github.com/vechain/dappstaking/types"
)

// Entry is the stake a dApp gathered in the era being ranked.
type Entry struct {
	ID       types.DAppID
	Contract types.Address
	Stake    *big.Int
}

// Assign ranks the entries by stake, highest first and lowest id on ties, and fills the
// tiers in order. A dApp enters a tier when it satisfies the tier threshold and a slot is
// left; dApps failing a threshold move on to the next tier. Each tier's reward portion of
// the pool is split evenly over its slots, rounding down, so unfilled slots and rounding
// are never paid out.
func Assign(config Configuration, entries []Entry, pool *big.Int, period types.PeriodNumber) *DAppTierRewards {
	ranked := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Stake != nil && e.Stake.Sign() > 0 {
			ranked = append(ranked, e)
		}
	}
	slices.SortStableFunc(ranked, func(a, b Entry) int {
		if c := b.Stake.Cmp(a.Stake); c != 0 {
			return c
		}
		return int(a.ID) - int(b.ID)
	})

	rewards := make([]*big.Int, len(config.SlotsPerTier))
	for tier, slots := range config.SlotsPerTier {
		rewards[tier] = slotReward(config, tier, slots, pool)
	}

	var dapps []DAppTier
	next := 0
	for tier, slots := range config.SlotsPerTier {
		if tier >= len(config.TierThresholds) {
			break
		}
		threshold := config.TierThresholds[tier]
		filled := 0
		for next < len(ranked) && filled < int(slots) && threshold.IsSatisfied(ranked[next].Stake) {
			dapps = append(dapps, DAppTier{ID: ranked[next].ID, Contract: ranked[next].Contract, Tier: types.TierID(tier)})
			next++
			filled++
		}
	}
	slices.SortFunc(dapps, func(a, b DAppTier) int {
		return int(a.ID) - int(b.ID)
	})

	return &DAppTierRewards{
		DApps:   dapps,
		Rewards: rewards,
		Period:  period,
	}
}

func slotReward(config Configuration, tier int, slots uint16, pool *big.Int) *big.Int {
	if slots == 0 || tier >= len(config.RewardPortion) || pool == nil {
		return new(big.Int)
	}
	portion := config.RewardPortion[tier].Parts()
	reward := new(big.Int).Mul(pool, new(big.Int).SetUint64(portion))
	return reward.Quo(reward, new(big.Int).SetUint64(1_000_000*uint64(slots)))
}
