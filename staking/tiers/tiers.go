// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tiers ranks dApps into reward tiers at the end of every build&earn era.
package tiers

import (
	"math"
	"math/big"

	"github.com/vechain/dappstaking/perthing"
	"github.com/vechain/dappstaking/types"
)

// TierThreshold is the minimum stake to enter a tier. Dynamic thresholds follow the number
// of slots but never drop below Minimum.
type TierThreshold struct {
	Dynamic bool     `yaml:"dynamic"`
	Amount  *big.Int `yaml:"amount"`
	Minimum *big.Int `yaml:"minimum,omitempty"`
}

func FixedThreshold(amount *big.Int) TierThreshold {
	return TierThreshold{Amount: amount, Minimum: new(big.Int)}
}

func DynamicThreshold(amount, minimum *big.Int) TierThreshold {
	return TierThreshold{Dynamic: true, Amount: amount, Minimum: minimum}
}

func (t TierThreshold) IsSatisfied(stake *big.Int) bool {
	return stake.Cmp(t.Amount) >= 0
}

func (t TierThreshold) clone() TierThreshold {
	return TierThreshold{Dynamic: t.Dynamic, Amount: types.Copy(t.Amount), Minimum: types.Copy(t.Minimum)}
}

// Parameters describe the tiers: first entry is the first tier.
type Parameters struct {
	RewardPortion    []perthing.Permill `yaml:"reward-portion"`
	SlotDistribution []perthing.Permill `yaml:"slot-distribution"`
	TierThresholds   []TierThreshold    `yaml:"tier-thresholds"`
}

func (p Parameters) NumberOfTiers() int {
	return len(p.RewardPortion)
}

// IsValid requires at least one tier, equal lengths and both distributions summing to at most one.
func (p Parameters) IsValid() bool {
	n := len(p.RewardPortion)
	if n == 0 || n != len(p.SlotDistribution) || n != len(p.TierThresholds) || n > 255 {
		return false
	}
	if !sumsToAtMostOne(p.RewardPortion) || !sumsToAtMostOne(p.SlotDistribution) {
		return false
	}
	for _, t := range p.TierThresholds {
		if t.Amount == nil || t.Amount.Sign() < 0 {
			return false
		}
	}
	return true
}

func sumsToAtMostOne(parts []perthing.Permill) bool {
	var sum perthing.Permill
	for _, p := range parts {
		var ok bool
		if sum, ok = sum.CheckedAdd(p); !ok {
			return false
		}
	}
	return true
}

// Configuration is the tier setup active for the current period.
type Configuration struct {
	NumberOfSlots  uint16             `yaml:"number-of-slots"`
	SlotsPerTier   []uint16           `yaml:"slots-per-tier"`
	RewardPortion  []perthing.Permill `yaml:"reward-portion"`
	TierThresholds []TierThreshold    `yaml:"tier-thresholds"`
}

// IsValid requires at least one tier and equal lengths.
func (c Configuration) IsValid() bool {
	n := len(c.SlotsPerTier)
	return n > 0 && n == len(c.RewardPortion) && n == len(c.TierThresholds)
}

// TotalSlots returns the sum of the slots of all tiers.
func (c Configuration) TotalSlots() uint32 {
	var total uint32
	for _, s := range c.SlotsPerTier {
		total += uint32(s)
	}
	return total
}

// NumberOfSlots returns floor(1000 * price + 50), saturating at the maximum uint16.
func NumberOfSlots(price perthing.FixedU64) uint16 {
	n := price.SaturatingMulInt(1000)
	if n > math.MaxUint16-50 {
		return math.MaxUint16
	}
	return uint16(n + 50)
}

// CalculateNew derives the configuration of the next period from the native token price.
// When the slot count grows, dynamic thresholds drop by (new - old) / new; when it shrinks
// they grow by (old - new) / new.
func (c Configuration) CalculateNew(price perthing.FixedU64, params Parameters) Configuration {
	slots := NumberOfSlots(price)

	slotsPerTier := make([]uint16, len(params.SlotDistribution))
	for i, share := range params.SlotDistribution {
		slotsPerTier[i] = uint16(share.MulUint(uint64(slots)))
	}

	thresholds := make([]TierThreshold, len(c.TierThresholds))
	for i, t := range c.TierThresholds {
		thresholds[i] = t.clone()
	}
	switch {
	case slots > c.NumberOfSlots:
		delta := perthing.FixedFromRational(uint64(slots-c.NumberOfSlots), uint64(slots))
		for i := range thresholds {
			t := &thresholds[i]
			if !t.Dynamic {
				continue
			}
			t.Amount = types.SaturatingSub(t.Amount, delta.SaturatingMulBalance(t.Amount))
			if t.Amount.Cmp(t.Minimum) < 0 {
				t.Amount = types.Copy(t.Minimum)
			}
		}
	case slots < c.NumberOfSlots:
		delta := perthing.FixedFromRational(uint64(c.NumberOfSlots-slots), uint64(slots))
		for i := range thresholds {
			t := &thresholds[i]
			if !t.Dynamic {
				continue
			}
			t.Amount = new(big.Int).Add(t.Amount, delta.SaturatingMulBalance(t.Amount))
		}
	}
	// fixed thresholds and tiers added by new parameters follow the parameters
	for i, t := range params.TierThresholds {
		if i >= len(thresholds) {
			thresholds = append(thresholds, t.clone())
			continue
		}
		if !t.Dynamic || !thresholds[i].Dynamic {
			thresholds[i] = t.clone()
		}
	}
	thresholds = thresholds[:len(params.TierThresholds)]

	return Configuration{
		NumberOfSlots:  slots,
		SlotsPerTier:   slotsPerTier,
		RewardPortion:  append([]perthing.Permill(nil), params.RewardPortion...),
		TierThresholds: thresholds,
	}
}

// DAppTier is the tier a dApp reached in an era.
type DAppTier struct {
	ID       types.DAppID
	Contract types.Address
	Tier     types.TierID
}

// DAppTierRewards is the immutable outcome of tier assignment for one era.
type DAppTierRewards struct {
	DApps   []DAppTier // ordered by id
	Rewards []*big.Int // reward per slot, per tier
	Period  types.PeriodNumber
}

// Find returns the tier of the dApp with the given id.
func (r *DAppTierRewards) Find(id types.DAppID) (types.TierID, bool) {
	lo, hi := 0, len(r.DApps)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case r.DApps[mid].ID == id:
			return r.DApps[mid].Tier, true
		case r.DApps[mid].ID < id:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0, false
}

// RewardOf returns the reward of the dApp with the given id, zero when it is in no tier.
func (r *DAppTierRewards) RewardOf(id types.DAppID) (*big.Int, bool) {
	tier, ok := r.Find(id)
	if !ok || int(tier) >= len(r.Rewards) {
		return new(big.Int), false
	}
	return new(big.Int).Set(r.Rewards[tier]), true
}

// Total returns the sum of the rewards of all ranked dApps.
func (r *DAppTierRewards) Total() *big.Int {
	total := new(big.Int)
	for _, d := range r.DApps {
		if int(d.Tier) < len(r.Rewards) {
			total.Add(total, r.Rewards[d.Tier])
		}
	}
	return total
}
