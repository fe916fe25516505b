// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/dappstaking/inflation"
	"github.com/vechain/dappstaking/perthing"
	"github.com/vechain/dappstaking/staking/globalstats"
	"github.com/vechain/dappstaking/staking/ledger"
	"github.com/vechain/dappstaking/staking/protocol"
	"github.com/vechain/dappstaking/staking/registry"
	"github.com/vechain/dappstaking/staking/rewards"
	"github.com/vechain/dappstaking/staking/tiers"
	"github.com/vechain/dappstaking/types"
)

func amount(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(new(big.Int).Set(v))
}

type Protocol struct {
	Era                   types.EraIndex        `json:"era"`
	NextEraStart          types.BlockNumber     `json:"nextEraStart"`
	Period                types.PeriodNumber    `json:"period"`
	Subperiod             string                `json:"subperiod"`
	NextSubperiodStartEra types.EraIndex        `json:"nextSubperiodStartEra"`
	LastBlock             types.BlockNumber     `json:"lastBlock"`
	Maintenance           bool                  `json:"maintenance"`
	TotalLocked           *math.HexOrDecimal256 `json:"totalLocked"`
	TotalStaked           *math.HexOrDecimal256 `json:"totalStaked"`
	VotingStake           *math.HexOrDecimal256 `json:"votingStake"`
}

func convertProtocol(ps *protocol.ProtocolState, totals *globalstats.Totals) *Protocol {
	return &Protocol{
		Era:                   ps.Era,
		NextEraStart:          ps.NextEraStart,
		Period:                ps.Period.Number,
		Subperiod:             ps.Period.Subperiod.String(),
		NextSubperiodStartEra: ps.Period.NextSubperiodStartEra,
		LastBlock:             ps.LastBlock,
		Maintenance:           ps.Maintenance,
		TotalLocked:           amount(totals.Locked),
		TotalStaked:           amount(totals.Staked),
		VotingStake:           amount(totals.VotingStake),
	}
}

type UnlockingChunk struct {
	Amount    *math.HexOrDecimal256 `json:"amount"`
	UnlockEra types.EraIndex        `json:"unlockEra"`
}

type Ledger struct {
	Locked            *math.HexOrDecimal256    `json:"locked"`
	Staked            *math.HexOrDecimal256    `json:"staked"`
	Unlocking         []UnlockingChunk         `json:"unlocking"`
	RewardDestination ledger.RewardDestination `json:"rewardDestination"`
	Contracts         []types.Address          `json:"contracts"`
}

func convertLedger(l *ledger.AccountLedger, contracts []types.Address) *Ledger {
	chunks := make([]UnlockingChunk, 0, l.Unbonding.Len())
	for _, c := range l.Unbonding.Chunks {
		chunks = append(chunks, UnlockingChunk{Amount: amount(c.Amount), UnlockEra: c.UnlockEra})
	}
	if contracts == nil {
		contracts = []types.Address{}
	}
	return &Ledger{
		Locked:            amount(l.Locked),
		Staked:            amount(l.Staked),
		Unlocking:         chunks,
		RewardDestination: l.RewardDestination,
		Contracts:         contracts,
	}
}

type EraStake struct {
	Era    types.EraIndex        `json:"era"`
	Staked *math.HexOrDecimal256 `json:"staked"`
}

type Bonus struct {
	Period   types.PeriodNumber    `json:"period"`
	Stake    *math.HexOrDecimal256 `json:"stake"`
	Eligible bool                  `json:"eligible"`
	Claimed  bool                  `json:"claimed"`
}

type StakerInfo struct {
	Stakes []EraStake `json:"stakes"`
	Bonus  Bonus      `json:"bonus"`
}

func convertStakerInfo(info *ledger.StakerInfo) *StakerInfo {
	stakes := make([]EraStake, 0, info.Len())
	for _, s := range info.Stakes {
		stakes = append(stakes, EraStake{Era: s.Era, Staked: amount(s.Staked)})
	}
	return &StakerInfo{
		Stakes: stakes,
		Bonus: Bonus{
			Period:   info.Bonus.Period,
			Stake:    amount(info.Bonus.Stake),
			Eligible: info.Bonus.Eligible,
			Claimed:  info.Bonus.Claimed,
		},
	}
}

type DApp struct {
	Contract        types.Address   `json:"contract"`
	ID              types.DAppID    `json:"id"`
	Developer       types.Address   `json:"developer"`
	Owner           types.Address   `json:"owner"`
	Beneficiary     types.Address   `json:"beneficiary"`
	Status          string          `json:"status"`
	UnregisteredEra *types.EraIndex `json:"unregisteredEra,omitempty"`
}

func convertDApp(contract types.Address, info *registry.DAppInfo) *DApp {
	d := &DApp{
		Contract:    contract,
		ID:          info.ID,
		Developer:   info.Developer,
		Owner:       info.Owner,
		Beneficiary: info.RewardBeneficiary(),
		Status:      info.Status.String(),
	}
	if !info.IsRegistered() {
		era := info.UnregisteredEra
		d.UnregisteredEra = &era
	}
	return d
}

type Era struct {
	Era              types.EraIndex        `json:"era"`
	Period           types.PeriodNumber    `json:"period"`
	BuildAndEarn     bool                  `json:"buildAndEarn"`
	StakerRewardPool *math.HexOrDecimal256 `json:"stakerRewardPool"`
	DAppRewardPool   *math.HexOrDecimal256 `json:"dappRewardPool"`
	TotalStaked      *math.HexOrDecimal256 `json:"totalStaked"`
	TotalLocked      *math.HexOrDecimal256 `json:"totalLocked"`
}

func convertEra(era types.EraIndex, info *rewards.EraInfo) *Era {
	return &Era{
		Era:              era,
		Period:           info.Period,
		BuildAndEarn:     info.BuildAndEarn,
		StakerRewardPool: amount(info.StakerRewardPool),
		DAppRewardPool:   amount(info.DAppRewardPool),
		TotalStaked:      amount(info.TotalStaked),
		TotalLocked:      amount(info.TotalLocked),
	}
}

type DAppTier struct {
	ID       types.DAppID          `json:"id"`
	Contract types.Address         `json:"contract"`
	Tier     types.TierID          `json:"tier"`
	Reward   *math.HexOrDecimal256 `json:"reward"`
}

type EraTiers struct {
	Era     types.EraIndex          `json:"era"`
	Period  types.PeriodNumber      `json:"period"`
	Rewards []*math.HexOrDecimal256 `json:"rewards"`
	DApps   []DAppTier              `json:"dapps"`
}

func convertTiers(era types.EraIndex, r *tiers.DAppTierRewards) *EraTiers {
	out := &EraTiers{
		Era:     era,
		Period:  r.Period,
		Rewards: make([]*math.HexOrDecimal256, 0, len(r.Rewards)),
		DApps:   make([]DAppTier, 0, len(r.DApps)),
	}
	for _, reward := range r.Rewards {
		out.Rewards = append(out.Rewards, amount(reward))
	}
	for _, d := range r.DApps {
		reward, _ := r.RewardOf(d.ID)
		out.DApps = append(out.DApps, DAppTier{ID: d.ID, Contract: d.Contract, Tier: d.Tier, Reward: amount(reward)})
	}
	return out
}

type Threshold struct {
	Dynamic bool                  `json:"dynamic"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
	Minimum *math.HexOrDecimal256 `json:"minimum,omitempty"`
}

type TierConfiguration struct {
	NumberOfSlots  uint16             `json:"numberOfSlots"`
	SlotsPerTier   []uint16           `json:"slotsPerTier"`
	RewardPortion  []perthing.Permill `json:"rewardPortion"`
	TierThresholds []Threshold        `json:"tierThresholds"`
}

func convertTierConfiguration(c tiers.Configuration) *TierConfiguration {
	out := &TierConfiguration{
		NumberOfSlots: c.NumberOfSlots,
		SlotsPerTier:  c.SlotsPerTier,
		RewardPortion: c.RewardPortion,
	}
	for _, t := range c.TierThresholds {
		th := Threshold{Dynamic: t.Dynamic, Amount: amount(t.Amount)}
		if t.Dynamic {
			th.Minimum = amount(t.Minimum)
		}
		out.TierThresholds = append(out.TierThresholds, th)
	}
	return out
}

type Inflation struct {
	RecalculationEra                 types.EraIndex        `json:"recalculationEra"`
	IssuanceSafetyCap                *math.HexOrDecimal256 `json:"issuanceSafetyCap"`
	CollatorRewardPerBlock           *math.HexOrDecimal256 `json:"collatorRewardPerBlock"`
	TreasuryRewardPerBlock           *math.HexOrDecimal256 `json:"treasuryRewardPerBlock"`
	DAppRewardPoolPerEra             *math.HexOrDecimal256 `json:"dappRewardPoolPerEra"`
	BaseStakerRewardPoolPerEra       *math.HexOrDecimal256 `json:"baseStakerRewardPoolPerEra"`
	AdjustableStakerRewardPoolPerEra *math.HexOrDecimal256 `json:"adjustableStakerRewardPoolPerEra"`
	BonusRewardPoolPerPeriod         *math.HexOrDecimal256 `json:"bonusRewardPoolPerPeriod"`
	IdealStakingRate                 perthing.Perquintill  `json:"idealStakingRate"`
	DecayRate                        perthing.Perquintill  `json:"decayRate"`
	DecayFactor                      perthing.Perquintill  `json:"decayFactor"`
	Parameters                       inflation.Parameters  `json:"parameters"`
}

func convertInflation(c *inflation.Configuration, params inflation.Parameters) *Inflation {
	return &Inflation{
		RecalculationEra:                 c.RecalculationEra,
		IssuanceSafetyCap:                amount(c.IssuanceSafetyCap),
		CollatorRewardPerBlock:           amount(c.CollatorRewardPerBlock),
		TreasuryRewardPerBlock:           amount(c.TreasuryRewardPerBlock),
		DAppRewardPoolPerEra:             amount(c.DAppRewardPoolPerEra),
		BaseStakerRewardPoolPerEra:       amount(c.BaseStakerRewardPoolPerEra),
		AdjustableStakerRewardPoolPerEra: amount(c.AdjustableStakerRewardPoolPerEra),
		BonusRewardPoolPerPeriod:         amount(c.BonusRewardPoolPerPeriod),
		IdealStakingRate:                 c.IdealStakingRate,
		DecayRate:                        c.DecayRate,
		DecayFactor:                      c.DecayFactor,
		Parameters:                       params,
	}
}
