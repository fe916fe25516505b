// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"errors"
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/dappstaking/types"
)

func stakes(info *StakerInfo) [][2]int64 {
	out := make([][2]int64, 0, len(info.Stakes))
	for _, es := range info.Stakes {
		out = append(out, [2]int64{int64(es.Era), es.Staked.Int64()})
	}
	return out
}

func TestStakerInfo_StakeUnstakeClaim(t *testing.T) {
	info := NewStakerInfo()
	assert.True(t, info.IsEmpty())
	assert.Equal(t, "0", info.LatestStakedValue().String())

	require.NoError(t, info.Stake(0, big.NewInt(1000)))
	require.NoError(t, info.Unstake(1, big.NewInt(300)))
	assert.Equal(t, [][2]int64{{0, 1000}, {1, 700}}, stakes(info))
	assert.Equal(t, "700", info.LatestStakedValue().String())
	assert.Equal(t, "1000", info.StakedAt(0).String())
	assert.Equal(t, "700", info.StakedAt(5).String())

	era, amount := info.Claim()
	assert.Equal(t, types.EraIndex(0), era)
	assert.Equal(t, "1000", amount.String())
	assert.Equal(t, [][2]int64{{1, 700}}, stakes(info))

	era, amount = info.Claim()
	assert.Equal(t, types.EraIndex(1), era)
	assert.Equal(t, "700", amount.String())
	assert.Equal(t, [][2]int64{{2, 700}}, stakes(info))
}

func TestStakerInfo_ClaimCarriesOverGaps(t *testing.T) {
	info := NewStakerInfo()
	require.NoError(t, info.Stake(2, big.NewInt(50)))
	require.NoError(t, info.Stake(5, big.NewInt(50)))

	era, amount := info.Claim()
	assert.Equal(t, types.EraIndex(2), era)
	assert.Equal(t, "50", amount.String())
	assert.Equal(t, [][2]int64{{3, 50}, {5, 100}}, stakes(info))
}

func TestStakerInfo_SameEraMerges(t *testing.T) {
	info := NewStakerInfo()
	require.NoError(t, info.Stake(3, big.NewInt(10)))
	require.NoError(t, info.Stake(3, big.NewInt(15)))
	assert.Equal(t, [][2]int64{{3, 25}}, stakes(info))

	require.NoError(t, info.Stake(4, big.NewInt(5)))
	require.NoError(t, info.Unstake(4, big.NewInt(5)))
	assert.Equal(t, [][2]int64{{3, 25}}, stakes(info), "a checkpoint repeating its predecessor collapses")
}

func TestStakerInfo_RoundTrip(t *testing.T) {
	info := NewStakerInfo()
	require.NoError(t, info.Stake(7, big.NewInt(100)))
	require.NoError(t, info.Unstake(7, big.NewInt(100)))
	assert.True(t, info.IsEmpty())
	assert.Nil(t, info.Stakes)
}

func TestStakerInfo_Invariants(t *testing.T) {
	info := NewStakerInfo()
	require.NoError(t, info.Stake(5, big.NewInt(100)))

	err := info.Stake(4, big.NewInt(1))
	assert.True(t, errors.Is(err, ErrInvariantViolation))

	err = info.Unstake(6, big.NewInt(101))
	assert.True(t, errors.Is(err, ErrInvariantViolation))
	assert.Equal(t, [][2]int64{{5, 100}}, stakes(info), "failed change leaves the history untouched")

	broken := &StakerInfo{Stakes: []EraStake{{Era: 2, Staked: big.NewInt(1)}, {Era: 2, Staked: big.NewInt(2)}}}
	assert.True(t, errors.Is(broken.Validate(), ErrInvariantViolation))
	broken = &StakerInfo{Stakes: []EraStake{{Era: 1, Staked: big.NewInt(1)}, {Era: 2, Staked: big.NewInt(1)}}}
	assert.True(t, errors.Is(broken.Validate(), ErrInvariantViolation))
	broken = &StakerInfo{Stakes: []EraStake{{Era: 1, Staked: big.NewInt(0)}}}
	assert.True(t, errors.Is(broken.Validate(), ErrInvariantViolation))
}

func TestStakerInfo_Bonus(t *testing.T) {
	info := NewStakerInfo()
	require.NoError(t, info.Stake(0, big.NewInt(100)))
	info.AddBonusStake(1, big.NewInt(100))
	assert.True(t, info.Bonus.Pending())

	require.NoError(t, info.Unstake(1, big.NewInt(40)))
	removed := info.ReduceBonusStake(1, false)
	assert.Equal(t, "40", removed.String())
	assert.Equal(t, "60", info.Bonus.Stake.String())
	assert.True(t, info.Bonus.Eligible)

	require.NoError(t, info.Stake(2, big.NewInt(500)))
	assert.Equal(t, "60", info.Bonus.Stake.String(), "build&earn stake does not raise the bonus stake")

	require.NoError(t, info.Unstake(3, big.NewInt(560)))
	removed = info.ReduceBonusStake(1, false)
	assert.Equal(t, "60", removed.String())
	assert.False(t, info.Bonus.Eligible)
	assert.False(t, info.Bonus.Pending())

	info.AddBonusStake(2, big.NewInt(7))
	assert.True(t, info.Bonus.Eligible, "a new period resets the bonus")
	assert.Equal(t, "7", info.Bonus.Stake.String())
	assert.Equal(t, "0", info.ReduceBonusStake(1, false).String(), "other period is ignored")
}

func TestStakerInfo_Clone(t *testing.T) {
	info := NewStakerInfo()
	require.NoError(t, info.Stake(1, big.NewInt(10)))
	c := info.Clone()
	c.Stakes[0].Staked.SetInt64(99)
	assert.Equal(t, "10", info.Stakes[0].Staked.String())
}

type stakeOp struct {
	Unstake bool
	Claim   bool
	Gap     uint8
	Amount  uint16
}

// TestStakerInfo_Properties replays random sequences and checks minimality and that the
// latest value always equals the net staked amount.
func TestStakerInfo_Properties(t *testing.T) {
	f := fuzz.NewWithSeed(42).NilChance(0).NumElements(1, 64)

	for range 200 {
		var ops []stakeOp
		f.Fuzz(&ops)

		info := NewStakerInfo()
		net := new(big.Int)
		era := types.EraIndex(0)
		for _, op := range ops {
			era += types.EraIndex(op.Gap % 3)
			amount := big.NewInt(int64(op.Amount) + 1)
			switch {
			case op.Claim:
				if oldest, ok := info.OldestEra(); ok && oldest < era {
					info.Claim()
				}
			case op.Unstake:
				if net.Cmp(amount) < 0 {
					amount.Set(net)
				}
				if amount.Sign() == 0 {
					continue
				}
				require.NoError(t, info.Unstake(era, amount))
				net.Sub(net, amount)
			default:
				require.NoError(t, info.Stake(era, amount))
				net.Add(net, amount)
			}
			require.NoError(t, info.Validate())
			assert.Equal(t, net.String(), info.LatestStakedValue().String())
		}
	}
}
