// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package inflation

import (
	"math"
	"math/big"

	"github.com/vechain/dappstaking/perthing"
	"github.com/vechain/dappstaking/types"
)

// Parameters splits the maximum yearly emission between beneficiaries.
type Parameters struct {
	// MaxInflationRate is applied to the total issuance to get the maximum emission of a cycle.
	MaxInflationRate      perthing.Perquintill `yaml:"max-inflation-rate"`
	TreasuryPart          perthing.Perquintill `yaml:"treasury-part"`
	CollatorsPart         perthing.Perquintill `yaml:"collators-part"`
	DAppsPart             perthing.Perquintill `yaml:"dapps-part"`
	BaseStakersPart       perthing.Perquintill `yaml:"base-stakers-part"`
	AdjustableStakersPart perthing.Perquintill `yaml:"adjustable-stakers-part"`
	BonusPart             perthing.Perquintill `yaml:"bonus-part"`
	// IdealStakingRate is the staked ratio at which the whole adjustable part is paid.
	IdealStakingRate perthing.Perquintill `yaml:"ideal-staking-rate"`
	// DecayRate compounds into the decay factor every block.
	DecayRate perthing.Perquintill `yaml:"decay-rate"`
}

// DefaultParameters returns 7% max inflation split 5/3/20/25/35/12, 50% ideal staking rate, no decay.
func DefaultParameters() Parameters {
	return Parameters{
		MaxInflationRate:      perthing.PerquintillFromPercent(7),
		TreasuryPart:          perthing.PerquintillFromPercent(5),
		CollatorsPart:         perthing.PerquintillFromPercent(3),
		DAppsPart:             perthing.PerquintillFromPercent(20),
		BaseStakersPart:       perthing.PerquintillFromPercent(25),
		AdjustableStakersPart: perthing.PerquintillFromPercent(35),
		BonusPart:             perthing.PerquintillFromPercent(12),
		IdealStakingRate:      perthing.PerquintillFromPercent(50),
		DecayRate:             perthing.PerquintillOne(),
	}
}

// IsValid reports whether the six parts sum to exactly one.
func (p Parameters) IsValid() bool {
	sum := perthing.Perquintill(0)
	for _, part := range []perthing.Perquintill{
		p.TreasuryPart,
		p.CollatorsPart,
		p.DAppsPart,
		p.BaseStakersPart,
		p.AdjustableStakersPart,
		p.BonusPart,
	} {
		var ok bool
		if sum, ok = sum.CheckedAdd(part); !ok {
			return false
		}
	}
	return sum.IsOne()
}

// CycleConfig describes the protocol cycle the emission is spread over.
type CycleConfig struct {
	PeriodsPerCycle              uint32 `yaml:"periods-per-cycle"`
	ErasPerVotingSubperiod       uint32 `yaml:"eras-per-voting-subperiod"`
	ErasPerBuildAndEarnSubperiod uint32 `yaml:"eras-per-build-and-earn-subperiod"`
	BlocksPerEra                 uint32 `yaml:"blocks-per-era"`
}

// ErasPerPeriod returns the standard eras of a period.
func (c CycleConfig) ErasPerPeriod() uint64 {
	return uint64(c.ErasPerVotingSubperiod) + uint64(c.ErasPerBuildAndEarnSubperiod)
}

// ErasPerCycle returns the standard eras of a cycle.
func (c CycleConfig) ErasPerCycle() uint64 {
	return uint64(c.PeriodsPerCycle) * c.ErasPerPeriod()
}

// BlocksPerCycle returns the blocks of a cycle.
func (c CycleConfig) BlocksPerCycle() uint64 {
	return c.ErasPerCycle() * uint64(c.BlocksPerEra)
}

// BuildAndEarnErasPerCycle returns the reward paying eras of a cycle.
func (c CycleConfig) BuildAndEarnErasPerCycle() uint64 {
	return uint64(c.PeriodsPerCycle) * uint64(c.ErasPerBuildAndEarnSubperiod)
}

// Configuration is the active emission, recalculated once per cycle.
type Configuration struct {
	RecalculationEra types.EraIndex `yaml:"recalculation-era"`
	// IssuanceSafetyCap bounds the issuance reachable through reward payouts.
	IssuanceSafetyCap                *big.Int             `yaml:"issuance-safety-cap"`
	CollatorRewardPerBlock           *big.Int             `yaml:"collator-reward-per-block"`
	TreasuryRewardPerBlock           *big.Int             `yaml:"treasury-reward-per-block"`
	DAppRewardPoolPerEra             *big.Int             `yaml:"dapp-reward-pool-per-era"`
	BaseStakerRewardPoolPerEra       *big.Int             `yaml:"base-staker-reward-pool-per-era"`
	AdjustableStakerRewardPoolPerEra *big.Int             `yaml:"adjustable-staker-reward-pool-per-era"`
	BonusRewardPoolPerPeriod         *big.Int             `yaml:"bonus-reward-pool-per-period"`
	IdealStakingRate                 perthing.Perquintill `yaml:"ideal-staking-rate"`
	DecayRate                        perthing.Perquintill `yaml:"decay-rate"`
	DecayFactor                      perthing.Perquintill `yaml:"decay-factor"`
}

func (c *Configuration) normalize() {
	for _, v := range []**big.Int{
		&c.IssuanceSafetyCap,
		&c.CollatorRewardPerBlock,
		&c.TreasuryRewardPerBlock,
		&c.DAppRewardPoolPerEra,
		&c.BaseStakerRewardPoolPerEra,
		&c.AdjustableStakerRewardPoolPerEra,
		&c.BonusRewardPoolPerPeriod,
	} {
		if *v == nil {
			*v = new(big.Int)
		}
	}
}

// divisor converts a per cycle count into a divisor, zero counts as the max value.
func divisor(n uint64) *big.Int {
	if n == 0 {
		return new(big.Int).SetUint64(math.MaxUint64)
	}
	return new(big.Int).SetUint64(n)
}

// Compute derives the configuration from the parameters and the current issuance.
func Compute(params Parameters, cycle CycleConfig, issuance *big.Int, era types.EraIndex) Configuration {
	maxEmission := params.MaxInflationRate.Mul(issuance)

	var (
		blocksPerCycle = divisor(cycle.BlocksPerCycle())
		erasPerCycle   = divisor(cycle.BuildAndEarnErasPerCycle())
		periods        = divisor(uint64(cycle.PeriodsPerCycle))
	)
	share := func(part perthing.Perquintill, d *big.Int) *big.Int {
		emission := part.Mul(maxEmission)
		return emission.Quo(emission, d)
	}

	recalculation := uint64(era) + cycle.ErasPerCycle()
	if recalculation > math.MaxUint32 {
		recalculation = math.MaxUint32
	}

	return Configuration{
		RecalculationEra:                 types.EraIndex(recalculation),
		IssuanceSafetyCap:                new(big.Int).Add(issuance, maxEmission),
		CollatorRewardPerBlock:           share(params.CollatorsPart, blocksPerCycle),
		TreasuryRewardPerBlock:           share(params.TreasuryPart, blocksPerCycle),
		DAppRewardPoolPerEra:             share(params.DAppsPart, erasPerCycle),
		BaseStakerRewardPoolPerEra:       share(params.BaseStakersPart, erasPerCycle),
		AdjustableStakerRewardPoolPerEra: share(params.AdjustableStakersPart, erasPerCycle),
		BonusRewardPoolPerPeriod:         share(params.BonusPart, periods),
		IdealStakingRate:                 params.IdealStakingRate,
		DecayRate:                        params.DecayRate,
		DecayFactor:                      perthing.PerquintillOne(),
	}
}
