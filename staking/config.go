// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/inflation"
	"github.com/vechain/dappstaking/perthing"
	"github.com/vechain/dappstaking/staking/protocol"
	"github.com/vechain/dappstaking/staking/tiers"
	"github.com/vechain/dappstaking/types"
)

// Config holds the protocol constants.
type Config struct {
	BlocksPerEra                 uint32 `yaml:"blocks-per-era"`
	ErasPerVotingSubperiod       uint32 `yaml:"eras-per-voting-subperiod"`
	ErasPerBuildAndEarnSubperiod uint32 `yaml:"eras-per-build-and-earn-subperiod"`
	PeriodsPerCycle              uint32 `yaml:"periods-per-cycle"`

	// UnlockingPeriod is the number of eras unlocked funds stay frozen.
	UnlockingPeriod     uint32   `yaml:"unlocking-period"`
	MaxUnlockingChunks  uint32   `yaml:"max-unlocking-chunks"`
	MinimumLockedAmount *big.Int `yaml:"minimum-locked-amount"`
	MinimumStakeAmount  *big.Int `yaml:"minimum-stake-amount"`

	MaxNumberOfContracts          uint32 `yaml:"max-number-of-contracts"`
	MaxNumberOfStakedContracts    uint32 `yaml:"max-number-of-staked-contracts"`
	MaxNumberOfStakersPerContract uint32 `yaml:"max-number-of-stakers-per-contract"`
	MaxEraStakeValues             uint32 `yaml:"max-era-stake-values"`
	MaxClaimsPerCall              uint32 `yaml:"max-claims-per-call"`

	RegisterDeposit *big.Int `yaml:"register-deposit"`

	// RewardRetentionInEras bounds how far back staker and dApp rewards may be claimed.
	RewardRetentionInEras uint32 `yaml:"reward-retention-in-eras"`
	// HistoryDepth bounds how long era history is stored, at least the reward retention.
	HistoryDepth uint32 `yaml:"history-depth"`
	// RewardRetentionInPeriods bounds how far back bonus rewards may be claimed.
	RewardRetentionInPeriods uint32 `yaml:"reward-retention-in-periods"`

	TierParameters    tiers.Parameters     `yaml:"tier-parameters"`
	InitialTierConfig tiers.Configuration  `yaml:"initial-tier-config"`
	Inflation         inflation.Parameters `yaml:"inflation"`
	NativePrice       perthing.FixedU64    `yaml:"native-price"`

	CollatorsAccount types.Address `yaml:"collators-account"`
	TreasuryAccount  types.Address `yaml:"treasury-account"`
}

// unit is the smallest amount of one token.
var unit = big.NewInt(1e18)

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), unit)
}

// DefaultConfig returns daily eras on 6 second blocks, periods of one voting era and 111
// build&earn eras, four tiers and a 0.05 native price.
func DefaultConfig() Config {
	thresholds := []tiers.TierThreshold{
		tiers.DynamicThreshold(tokens(100_000), tokens(50_000)),
		tiers.DynamicThreshold(tokens(50_000), tokens(20_000)),
		tiers.FixedThreshold(tokens(20_000)),
		tiers.FixedThreshold(tokens(5_000)),
	}
	portions := []perthing.Permill{
		perthing.PermillFromPercent(40),
		perthing.PermillFromPercent(30),
		perthing.PermillFromPercent(20),
		perthing.PermillFromPercent(10),
	}
	initialThresholds := make([]tiers.TierThreshold, len(thresholds))
	for i, t := range thresholds {
		initialThresholds[i] = tiers.TierThreshold{Dynamic: t.Dynamic, Amount: types.Copy(t.Amount), Minimum: types.Copy(t.Minimum)}
	}

	return Config{
		BlocksPerEra:                 14400,
		ErasPerVotingSubperiod:       11,
		ErasPerBuildAndEarnSubperiod: 111,
		PeriodsPerCycle:              3,

		UnlockingPeriod:     9,
		MaxUnlockingChunks:  8,
		MinimumLockedAmount: tokens(500),
		MinimumStakeAmount:  tokens(500),

		MaxNumberOfContracts:          500,
		MaxNumberOfStakedContracts:    16,
		MaxNumberOfStakersPerContract: 1024,
		MaxEraStakeValues:             5,
		MaxClaimsPerCall:              16,

		RegisterDeposit: tokens(1000),

		RewardRetentionInEras:    84,
		HistoryDepth:             120,
		RewardRetentionInPeriods: 4,

		TierParameters: tiers.Parameters{
			RewardPortion: portions,
			SlotDistribution: []perthing.Permill{
				perthing.PermillFromPercent(10),
				perthing.PermillFromPercent(20),
				perthing.PermillFromPercent(30),
				perthing.PermillFromPercent(40),
			},
			TierThresholds: thresholds,
		},
		InitialTierConfig: tiers.Configuration{
			NumberOfSlots:  100,
			SlotsPerTier:   []uint16{10, 20, 30, 40},
			RewardPortion:  append([]perthing.Permill(nil), portions...),
			TierThresholds: initialThresholds,
		},
		Inflation:   inflation.DefaultParameters(),
		NativePrice: perthing.FixedFromRational(5, 100),

		CollatorsAccount: types.NameToAddress("Collators"),
		TreasuryAccount:  types.NameToAddress("Treasury"),
	}
}

// Validate checks the constants are usable.
func (c *Config) Validate() error {
	switch {
	case c.BlocksPerEra == 0:
		return errors.New("blocks-per-era must be positive")
	case c.ErasPerVotingSubperiod == 0:
		return errors.New("eras-per-voting-subperiod must be positive")
	case c.ErasPerBuildAndEarnSubperiod == 0:
		return errors.New("eras-per-build-and-earn-subperiod must be positive")
	case c.PeriodsPerCycle == 0:
		return errors.New("periods-per-cycle must be positive")
	case c.MaxUnlockingChunks == 0:
		return errors.New("max-unlocking-chunks must be positive")
	case c.MaxEraStakeValues < 2:
		return errors.New("max-era-stake-values must be at least 2")
	case c.MaxClaimsPerCall == 0:
		return errors.New("max-claims-per-call must be positive")
	case c.MaxNumberOfStakedContracts == 0 || c.MaxNumberOfStakersPerContract == 0:
		return errors.New("staking limits must be positive")
	case c.HistoryDepth < c.RewardRetentionInEras:
		return errors.Errorf("history-depth %d is below reward-retention-in-eras %d", c.HistoryDepth, c.RewardRetentionInEras)
	}
	for name, v := range map[string]*big.Int{
		"minimum-locked-amount": c.MinimumLockedAmount,
		"minimum-stake-amount":  c.MinimumStakeAmount,
		"register-deposit":      c.RegisterDeposit,
	} {
		if v == nil || v.Sign() < 0 {
			return errors.Errorf("%s must be a non-negative amount", name)
		}
	}
	if !c.TierParameters.IsValid() {
		return errors.New("invalid tier-parameters")
	}
	if !c.InitialTierConfig.IsValid() || len(c.InitialTierConfig.SlotsPerTier) != c.TierParameters.NumberOfTiers() {
		return errors.New("initial-tier-config does not match tier-parameters")
	}
	if !c.Inflation.IsValid() {
		return errors.Wrap(inflation.ErrInvalidParameters, "inflation")
	}
	return nil
}

func (c *Config) lengths() protocol.Lengths {
	return protocol.Lengths{
		BlocksPerEra:                 c.BlocksPerEra,
		ErasPerVotingSubperiod:       c.ErasPerVotingSubperiod,
		ErasPerBuildAndEarnSubperiod: c.ErasPerBuildAndEarnSubperiod,
	}
}

func (c *Config) cycle() inflation.CycleConfig {
	return inflation.CycleConfig{
		PeriodsPerCycle:              c.PeriodsPerCycle,
		ErasPerVotingSubperiod:       c.ErasPerVotingSubperiod,
		ErasPerBuildAndEarnSubperiod: c.ErasPerBuildAndEarnSubperiod,
		BlocksPerEra:                 c.BlocksPerEra,
	}
}
