// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package inflation

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/dappstaking/currency"
	"github.com/vechain/dappstaking/lvldb"
	"github.com/vechain/dappstaking/perthing"
	"github.com/vechain/dappstaking/state"
	"github.com/vechain/dappstaking/storage"
	"github.com/vechain/dappstaking/types"
)

var (
	testCycle = CycleConfig{
		PeriodsPerCycle:              2,
		ErasPerVotingSubperiod:       2,
		ErasPerBuildAndEarnSubperiod: 10,
		BlocksPerEra:                 10,
	}
	testBeneficiaries = Beneficiaries{
		Collators: types.NameToAddress("Collators"),
		Treasury:  types.NameToAddress("Treasury"),
	}
	holder = types.BytesToAddress([]byte("holder"))
)

func newTestService(t *testing.T, params Parameters) (*Service, *currency.Balances) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	balances := currency.NewBalances(storage.NewContext(types.NameToAddress("Balances"), st, nil), nil)
	require.NoError(t, balances.Mint(holder, big.NewInt(1_000_000)))

	svc := New(storage.NewContext(types.NameToAddress("Inflation"), st, nil), balances, testCycle, testBeneficiaries)
	require.NoError(t, svc.Initialize(params, 0))
	return svc, balances
}

func assertBig(t *testing.T, want int64, got *big.Int, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, big.NewInt(want).String(), got.String(), msgAndArgs...)
}

func TestParametersIsValid(t *testing.T) {
	assert.True(t, DefaultParameters().IsValid())

	params := DefaultParameters()
	params.BonusPart = perthing.PerquintillFromPercent(11)
	assert.False(t, params.IsValid(), "parts summing to 99% are invalid")

	params = Parameters{
		TreasuryPart: perthing.PerquintillFromPercent(40),
		DAppsPart:    perthing.PerquintillFromPercent(60),
		BonusPart:    0,
	}
	assert.True(t, params.IsValid(), "a zero part is allowed when the sum is exactly one")

	params.CollatorsPart = perthing.PerquintillOne()
	assert.False(t, params.IsValid(), "overflowing sum is invalid")
}

func TestCycleConfig(t *testing.T) {
	assert.Equal(t, uint64(12), testCycle.ErasPerPeriod())
	assert.Equal(t, uint64(24), testCycle.ErasPerCycle())
	assert.Equal(t, uint64(240), testCycle.BlocksPerCycle())
	assert.Equal(t, uint64(20), testCycle.BuildAndEarnErasPerCycle())
}

func TestCompute(t *testing.T) {
	config := Compute(DefaultParameters(), testCycle, big.NewInt(1_000_000), 3)

	assert.Equal(t, types.EraIndex(27), config.RecalculationEra)
	assertBig(t, 1_070_000, config.IssuanceSafetyCap)
	assertBig(t, 8, config.CollatorRewardPerBlock)
	assertBig(t, 14, config.TreasuryRewardPerBlock)
	assertBig(t, 700, config.DAppRewardPoolPerEra)
	assertBig(t, 875, config.BaseStakerRewardPoolPerEra)
	assertBig(t, 1225, config.AdjustableStakerRewardPoolPerEra)
	assertBig(t, 4200, config.BonusRewardPoolPerPeriod)
	assert.True(t, config.DecayFactor.IsOne())
}

func TestComputeZeroCycle(t *testing.T) {
	config := Compute(DefaultParameters(), CycleConfig{}, big.NewInt(1_000_000), 0)
	assertBig(t, 0, config.CollatorRewardPerBlock)
	assertBig(t, 0, config.DAppRewardPoolPerEra)
	assertBig(t, 0, config.BonusRewardPoolPerPeriod)
}

func TestStakerAndDAppRewardPools(t *testing.T) {
	svc, _ := newTestService(t, DefaultParameters())

	staker, dapp, err := svc.StakerAndDAppRewardPools(big.NewInt(250_000))
	require.NoError(t, err)
	assertBig(t, 875+612, staker, "half of the adjustable part at half the ideal rate")
	assertBig(t, 700, dapp)

	staker, _, err = svc.StakerAndDAppRewardPools(big.NewInt(600_000))
	require.NoError(t, err)
	assertBig(t, 875+1225, staker, "adjustment saturates above the ideal rate")

	staker, _, err = svc.StakerAndDAppRewardPools(new(big.Int))
	require.NoError(t, err)
	assertBig(t, 875, staker)
}

func TestZeroIdealStakingRate(t *testing.T) {
	params := DefaultParameters()
	params.IdealStakingRate = 0
	svc, _ := newTestService(t, params)

	staker, _, err := svc.StakerAndDAppRewardPools(big.NewInt(1))
	require.NoError(t, err)
	assertBig(t, 875+1225, staker, "zero ideal rate applies the full adjustable pool")
}

func TestDecay(t *testing.T) {
	params := DefaultParameters()
	params.DecayRate = perthing.PerquintillFromPercent(99)
	svc, balances := newTestService(t, params)

	require.NoError(t, svc.OnInitialize())
	collators, _ := balances.FreeBalance(testBeneficiaries.Collators)
	treasury, _ := balances.FreeBalance(testBeneficiaries.Treasury)
	assertBig(t, 8, collators)
	assertBig(t, 14, treasury)

	require.NoError(t, svc.OnInitialize())
	config, err := svc.Configuration()
	require.NoError(t, err)
	assert.Equal(t, perthing.PerquintillFromParts(980_100_000_000_000_000), config.DecayFactor)

	_, dapp, err := svc.StakerAndDAppRewardPools(new(big.Int))
	require.NoError(t, err)
	assertBig(t, 686, dapp)

	bonus, err := svc.BonusRewardPool()
	require.NoError(t, err)
	assertBig(t, 4116, bonus)

	// recalculation resets the decay factor
	_, err = svc.OnNewEra(23)
	require.NoError(t, err)
	config, _ = svc.Configuration()
	assert.False(t, config.DecayFactor.IsOne(), "not yet at the recalculation era")

	next, err := svc.OnNewEra(24)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.True(t, next.DecayFactor.IsOne())
	assert.Equal(t, types.EraIndex(48), next.RecalculationEra)
}

func TestNoDecay(t *testing.T) {
	svc, _ := newTestService(t, DefaultParameters())
	for range 5 {
		require.NoError(t, svc.OnInitialize())
	}
	config, _ := svc.Configuration()
	assert.True(t, config.DecayFactor.IsOne())
}

func TestPayoutReward(t *testing.T) {
	svc, balances := newTestService(t, DefaultParameters())
	staker := types.BytesToAddress([]byte("staker"))

	// relaxed cap is 1_080_700
	require.NoError(t, svc.PayoutReward(staker, big.NewInt(80_700)))
	got, _ := balances.FreeBalance(staker)
	assertBig(t, 80_700, got)

	assert.ErrorIs(t, svc.PayoutReward(staker, big.NewInt(1)), ErrPayoutCapExceeded)
}

func TestForceOperations(t *testing.T) {
	svc, _ := newTestService(t, DefaultParameters())

	invalid := DefaultParameters()
	invalid.DAppsPart = 0
	assert.ErrorIs(t, svc.ForceSetParameters(invalid), ErrInvalidParameters)

	config := Configuration{RecalculationEra: 5, DAppRewardPoolPerEra: big.NewInt(1), DecayFactor: perthing.PerquintillOne()}
	require.NoError(t, svc.ForceSetConfiguration(config))
	got, err := svc.Configuration()
	require.NoError(t, err)
	assert.Equal(t, types.EraIndex(5), got.RecalculationEra)
	assertBig(t, 0, got.BonusRewardPoolPerPeriod)

	recalculated, err := svc.ForceRecalculation(7)
	require.NoError(t, err)
	assert.Equal(t, types.EraIndex(31), recalculated.RecalculationEra)
}

func TestWholeTokens(t *testing.T) {
	e18 := big.NewInt(1e18)
	huge := new(big.Int).Mul(e18, new(big.Int).Lsh(big.NewInt(1), 70))

	assert.Equal(t, int64(0), wholeTokens(nil))
	assert.Equal(t, int64(0), wholeTokens(big.NewInt(-5)))
	assert.Equal(t, int64(0), wholeTokens(big.NewInt(999)))
	assert.Equal(t, int64(3), wholeTokens(new(big.Int).Mul(e18, big.NewInt(3))))
	assert.Equal(t, int64(math.MaxInt64), wholeTokens(huge))
}
