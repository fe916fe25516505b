// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package protocol

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/dappstaking/lvldb"
	"github.com/vechain/dappstaking/state"
	"github.com/vechain/dappstaking/storage"
	"github.com/vechain/dappstaking/types"
)

var testLengths = Lengths{
	BlocksPerEra:                 10,
	ErasPerVotingSubperiod:       2,
	ErasPerBuildAndEarnSubperiod: 3,
}

func TestGenesis(t *testing.T) {
	p := Genesis(5, testLengths)

	assert.Equal(t, types.EraIndex(0), p.Era)
	assert.Equal(t, types.PeriodNumber(1), p.Period.Number)
	assert.Equal(t, Voting, p.Period.Subperiod)
	assert.Equal(t, types.EraIndex(1), p.Period.NextSubperiodStartEra)
	assert.Equal(t, types.BlockNumber(25), p.NextEraStart)
	assert.False(t, p.IsNewEra(24))
	assert.True(t, p.IsNewEra(25))
}

func TestAdvance_FullPeriod(t *testing.T) {
	p := Genesis(0, testLengths)

	// voting -> build&earn
	tr := p.Advance(20, ForceNone, testLengths)
	assert.Equal(t, Transition{ClosedEra: 0, ClosedPeriod: 1, ClosedSubperiod: Voting, SubperiodChanged: true}, tr)
	assert.Equal(t, types.EraIndex(1), p.Era)
	assert.Equal(t, BuildAndEarn, p.Period.Subperiod)
	assert.Equal(t, types.EraIndex(4), p.Period.NextSubperiodStartEra)
	assert.Equal(t, types.BlockNumber(30), p.NextEraStart)

	// two regular build&earn eras
	for i, now := range []types.BlockNumber{30, 40} {
		tr = p.Advance(now, ForceNone, testLengths)
		assert.False(t, tr.SubperiodChanged, "era %d", i)
		assert.Equal(t, types.PeriodNumber(1), p.Period.Number)
	}
	assert.Equal(t, types.EraIndex(3), p.Era)
	assert.Equal(t, types.BlockNumber(50), p.NextEraStart)

	// the last build&earn era ends the period
	tr = p.Advance(50, ForceNone, testLengths)
	assert.True(t, tr.PeriodEnded)
	assert.Equal(t, types.PeriodNumber(1), tr.ClosedPeriod)
	assert.Equal(t, BuildAndEarn, tr.ClosedSubperiod)
	assert.Equal(t, types.EraIndex(4), p.Era)
	assert.Equal(t, types.PeriodNumber(2), p.Period.Number)
	assert.Equal(t, Voting, p.Period.Subperiod)
	assert.Equal(t, types.EraIndex(5), p.Period.NextSubperiodStartEra)
	assert.Equal(t, types.BlockNumber(70), p.NextEraStart)
}

func TestAdvance_PeriodIncrementsOnce(t *testing.T) {
	p := Genesis(0, testLengths)
	now := types.BlockNumber(0)
	ended := 0
	for i := 0; i < 12; i++ {
		now = p.NextEraStart
		if p.Advance(now, ForceNone, testLengths).PeriodEnded {
			ended++
		}
	}
	// one voting era and three build&earn eras per period
	assert.Equal(t, 3, ended)
	assert.Equal(t, types.PeriodNumber(4), p.Period.Number)
	assert.Equal(t, types.EraIndex(12), p.Era)
}

func TestAdvance_ForceSubperiod(t *testing.T) {
	p := Genesis(0, testLengths)
	p.Advance(20, ForceNone, testLengths)

	tr := p.Advance(25, ForceSubperiod, testLengths)
	assert.True(t, tr.PeriodEnded)
	assert.Equal(t, types.PeriodNumber(2), p.Period.Number)
	assert.Equal(t, Voting, p.Period.Subperiod)
	assert.Equal(t, types.EraIndex(3), p.Period.NextSubperiodStartEra)
	assert.Equal(t, types.BlockNumber(45), p.NextEraStart)

	// forcing during voting moves on to build&earn
	tr = p.Advance(30, ForceSubperiod, testLengths)
	assert.True(t, tr.SubperiodChanged)
	assert.False(t, tr.PeriodEnded)
	assert.Equal(t, BuildAndEarn, p.Period.Subperiod)
}

func TestAdvance_ForceEra(t *testing.T) {
	p := Genesis(0, testLengths)
	p.Advance(20, ForceNone, testLengths)

	tr := p.Advance(22, ForceEra, testLengths)
	assert.False(t, tr.SubperiodChanged)
	assert.Equal(t, types.EraIndex(2), p.Era)
	assert.Equal(t, types.BlockNumber(32), p.NextEraStart)
}

func TestSubperiodEndBlock(t *testing.T) {
	p := Genesis(0, testLengths)
	assert.Equal(t, types.BlockNumber(20), p.SubperiodEndBlock(testLengths.BlocksPerEra))

	p.Advance(20, ForceNone, testLengths)
	// eras 1, 2 and 3 remain
	assert.Equal(t, types.BlockNumber(50), p.SubperiodEndBlock(testLengths.BlocksPerEra))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "Voting", Voting.String())
	assert.Equal(t, "BuildAndEarn", BuildAndEarn.String())
	assert.Equal(t, "Subperiod(7)", Subperiod(7).String())
	assert.Equal(t, "Subperiod", ForceSubperiod.String())
	assert.Equal(t, "ForcingType(9)", ForcingType(9).String())
}

func newService(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(storage.NewContext(types.NameToAddress("DappStaking"), state.New(db), nil))
}

func TestService(t *testing.T) {
	svc := newService(t)

	ok, err := svc.Initialized()
	require.NoError(t, err)
	assert.False(t, ok)

	genesis := Genesis(3, testLengths)
	require.NoError(t, svc.SetState(&genesis))
	ok, err = svc.Initialized()
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := svc.State()
	require.NoError(t, err)
	assert.Equal(t, genesis, *got)

	// force is consumed once
	require.NoError(t, svc.Force(ForceEra))
	pending, err := svc.PendingForce()
	require.NoError(t, err)
	assert.Equal(t, ForceEra, pending)
	f, err := svc.TakeForce()
	require.NoError(t, err)
	assert.Equal(t, ForceEra, f)
	f, err = svc.TakeForce()
	require.NoError(t, err)
	assert.Equal(t, ForceNone, f)

	info, err := svc.PeriodEnd(1)
	require.NoError(t, err)
	assert.Nil(t, info)

	require.NoError(t, svc.SetPeriodEnd(1, &PeriodEndInfo{
		BonusRewardPool:  big.NewInt(500),
		TotalVotingStake: big.NewInt(0),
		FinalEra:         4,
	}))
	info, err = svc.PeriodEnd(1)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "500", info.BonusRewardPool.String())
	assert.Equal(t, "0", info.TotalVotingStake.String())
	assert.Equal(t, types.EraIndex(4), info.FinalEra)

	svc.PrunePeriodEnd(1)
	info, err = svc.PeriodEnd(1)
	require.NoError(t, err)
	assert.Nil(t, info)
}
