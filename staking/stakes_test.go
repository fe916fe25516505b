// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/dappstaking/staking/reverts"
	"github.com/vechain/dappstaking/types"
)

func TestStake(t *testing.T) {
	test := newTest(t).withDApps()

	NewSequence(test).
		Lock(alice, tokens(10_000)).
		Stake(alice, dapp1, tokens(3000)).
		Run(t)

	AssertLedger(test.Engine, alice).Locked(tokens(10_000)).Staked(tokens(3000)).Assert(t)
	AssertContractStake(test.Engine, dapp1, 0).Total(tokens(3000)).Stakers(1).Assert(t)
	AssertTotals(test.Engine).Staked(tokens(3000)).Voting(tokens(3000)).Assert(t)

	info, err := test.StakerInfo(alice, dapp1)
	require.NoError(t, err)
	assert.True(t, info.Bonus.Eligible)
	assertAmount(t, tokens(3000), info.Bonus.Stake)
	assert.Equal(t, types.PeriodNumber(1), info.Bonus.Period)

	// build&earn stakes do not count for the bonus
	NewSequence(test).
		AdvanceEra(1).
		Stake(alice, dapp1, tokens(1000)).
		Run(t)

	AssertContractStake(test.Engine, dapp1, 1).Total(tokens(4000)).Stakers(1).Assert(t)
	AssertTotals(test.Engine).Staked(tokens(4000)).Voting(tokens(3000)).Assert(t)
	info, err = test.StakerInfo(alice, dapp1)
	require.NoError(t, err)
	assertAmount(t, tokens(3000), info.Bonus.Stake)
	assert.Equal(t, 2, info.Len())

	contracts, err := test.StakedContracts(alice)
	require.NoError(t, err)
	assert.Equal(t, []types.Address{dapp1}, contracts)
}

func TestStake_Validation(t *testing.T) {
	test := newTest(t).withDApps()
	require.NoError(t, test.Register(carol, dapp3))

	NewSequence(test).
		Lock(alice, tokens(10_000)).
		Lock(bob, tokens(10_000)).
		Lock(carol, tokens(10_000)).
		Run(t)

	assertRevert(t, test.Stake(alice, dapp1, big.NewInt(0)), reverts.ZeroAmount)
	assertRevert(t, test.Stake(alice, types.BytesToAddress([]byte("nobody")), tokens(1000)), reverts.NotRegisteredContract)
	assertRevert(t, test.Stake(alice, dapp1, tokens(10_001)), reverts.UnavailableStakeFunds)
	assertRevert(t, test.Stake(alice, dapp1, tokens(499)), reverts.BelowMinimumStakeAmount)

	NewSequence(test).
		Stake(alice, dapp1, tokens(1000)).
		// topping up below the minimum is fine once the total reaches it
		Stake(alice, dapp1, tokens(1)).
		Stake(alice, dapp2, tokens(1000)).
		Run(t)
	assertRevert(t, test.Stake(alice, dapp3, tokens(1000)), reverts.TooManyStakedContracts)

	require.NoError(t, test.Stake(bob, dapp1, tokens(1000)))
	assertRevert(t, test.Stake(carol, dapp1, tokens(1000)), reverts.MaxNumberOfStakersExceeded)
	// existing stakers may add more
	require.NoError(t, test.Stake(bob, dapp1, tokens(1000)))

	AssertContractStake(test.Engine, dapp1, 0).Total(tokens(3001)).Stakers(2).Assert(t)
	AssertTotals(test.Engine).Staked(tokens(4001)).Assert(t)
}

func TestStake_TooManyEraStakeValues(t *testing.T) {
	cfg := testConfig()
	cfg.MaxEraStakeValues = 3
	test := newTestWithConfig(t, cfg).withDApps()

	NewSequence(test).
		Lock(alice, tokens(10_000)).
		Stake(alice, dapp1, tokens(1000)).
		AdvanceEra(1).
		Stake(alice, dapp1, tokens(1000)).
		AdvanceEra(1).
		Stake(alice, dapp1, tokens(1000)).
		AdvanceEra(1).
		Run(t)

	assertRevert(t, test.Stake(alice, dapp1, tokens(1000)), reverts.TooManyEraStakeValues)

	// claiming consumes the old checkpoints
	require.NoError(t, test.ClaimStakerRewards(alice))
	require.NoError(t, test.Stake(alice, dapp1, tokens(1000)))
	info, err := test.StakerInfo(alice, dapp1)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Len())
}

func TestUnstake(t *testing.T) {
	test := newTest(t).withDApps()

	NewSequence(test).
		Lock(alice, tokens(10_000)).
		Stake(alice, dapp1, tokens(3000)).
		AdvanceEra(1).
		Unstake(alice, dapp1, tokens(1000)).
		Run(t)

	AssertLedger(test.Engine, alice).Locked(tokens(10_000)).Staked(tokens(2000)).Assert(t)
	AssertContractStake(test.Engine, dapp1, 1).Total(tokens(2000)).Stakers(1).Assert(t)
	// the stake made during voting shrinks with the unstake
	AssertTotals(test.Engine).Staked(tokens(2000)).Voting(tokens(2000)).Assert(t)

	// a residual below the minimum stake is unstaked too
	require.NoError(t, test.Unstake(alice, dapp1, tokens(1600)))
	AssertLedger(test.Engine, alice).Staked(big.NewInt(0)).Assert(t)
	AssertContractStake(test.Engine, dapp1, 1).Total(big.NewInt(0)).Stakers(0).Assert(t)
	AssertTotals(test.Engine).Staked(big.NewInt(0)).Voting(big.NewInt(0)).Assert(t)

	info, err := test.StakerInfo(alice, dapp1)
	require.NoError(t, err)
	assert.False(t, info.Bonus.Eligible, "a stake emptied during build&earn forfeits the bonus")
	// history is kept for the claims
	assert.False(t, info.IsEmpty())
	assertAmount(t, tokens(3000), info.StakedAt(0))

	assertRevert(t, test.Unstake(alice, dapp1, tokens(1000)), reverts.NotStakedContract)
	assertRevert(t, test.Unstake(alice, dapp2, tokens(1000)), reverts.NotStakedContract)
	assertRevert(t, test.Unstake(alice, dapp1, big.NewInt(0)), reverts.ZeroAmount)
}

func TestUnstake_ClampsToStake(t *testing.T) {
	test := newTest(t).withDApps()

	NewSequence(test).
		Lock(alice, tokens(10_000)).
		Stake(alice, dapp1, tokens(2000)).
		Unstake(alice, dapp1, tokens(5000)).
		Run(t)

	AssertLedger(test.Engine, alice).Staked(big.NewInt(0)).Assert(t)
	AssertTotals(test.Engine).Staked(big.NewInt(0)).Voting(big.NewInt(0)).Assert(t)

	// unstaking everything in the era it was staked leaves no history
	info, err := test.StakerInfo(alice, dapp1)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Len())
	assert.True(t, info.IsEmpty())
	contracts, err := test.StakedContracts(alice)
	require.NoError(t, err)
	assert.Empty(t, contracts)
}

func TestMoveStake(t *testing.T) {
	test := newTest(t).withDApps()

	NewSequence(test).
		Lock(alice, tokens(10_000)).
		Stake(alice, dapp1, tokens(3000)).
		Run(t)

	assertRevert(t, test.MoveStake(alice, dapp1, dapp1, tokens(1000)), reverts.SameContract)
	assertRevert(t, test.MoveStake(alice, dapp2, dapp1, tokens(1000)), reverts.NotStakedContract)

	require.NoError(t, test.MoveStake(alice, dapp1, dapp2, tokens(1000)))
	AssertLedger(test.Engine, alice).Staked(tokens(3000)).Assert(t)
	AssertContractStake(test.Engine, dapp1, 0).Total(tokens(2000)).Stakers(1).Assert(t)
	AssertContractStake(test.Engine, dapp2, 0).Total(tokens(1000)).Stakers(1).Assert(t)
	AssertTotals(test.Engine).Staked(tokens(3000)).Voting(tokens(3000)).Assert(t)

	// a failing destination leaves the source untouched
	assertRevert(t, test.MoveStake(alice, dapp1, dapp3, tokens(1000)), reverts.NotRegisteredContract)
	AssertContractStake(test.Engine, dapp1, 0).Total(tokens(2000)).Assert(t)
}

func TestUnstakeFromUnregistered(t *testing.T) {
	test := newTest(t).withDApps()

	NewSequence(test).
		Lock(alice, tokens(10_000)).
		Stake(alice, dapp1, tokens(3000)).
		AdvanceTo(2).
		Run(t)

	assertRevert(t, test.UnstakeFromUnregistered(alice, dapp3), reverts.NotRegisteredContract)
	assertRevert(t, test.UnstakeFromUnregistered(alice, dapp1), reverts.NotUnregisteredContract)

	require.NoError(t, test.Unregister(dapp1))
	assertRevert(t, test.Stake(alice, dapp1, tokens(1000)), reverts.NotRegisteredContract)
	assertRevert(t, test.Unstake(alice, dapp1, tokens(1000)), reverts.NotRegisteredContract)
	assertRevert(t, test.UnstakeFromUnregistered(bob, dapp1), reverts.NotStakedContract)
	assertRevert(t, test.UnstakeFromUnregistered(alice, dapp1), reverts.UnclaimedRewardsRemaining)

	require.NoError(t, test.ClaimStakerRewards(alice))
	// rewards of an unregistered contract are never restaked
	AssertLedger(test.Engine, alice).Locked(tokens(10_000)).Staked(tokens(3000)).Assert(t)

	require.NoError(t, test.UnstakeFromUnregistered(alice, dapp1))
	AssertLedger(test.Engine, alice).Locked(tokens(10_000)).Staked(big.NewInt(0)).Assert(t)
	AssertTotals(test.Engine).Staked(big.NewInt(0)).Voting(big.NewInt(0)).Assert(t)

	contracts, err := test.StakedContracts(alice)
	require.NoError(t, err)
	assert.Empty(t, contracts)
	// the contract stake keeps the closed history
	AssertContractStake(test.Engine, dapp1, 1).Total(tokens(3000)).Assert(t)

	assertRevert(t, test.UnstakeFromUnregistered(alice, dapp1), reverts.NotStakedContract)
	// the freed stake can be unlocked
	require.NoError(t, test.Unlock(alice, tokens(10_000)))
}

func TestUnstakeFromUnregistered_ExpiredBonus(t *testing.T) {
	test := newTest(t).withDApps()

	NewSequence(test).
		Lock(alice, tokens(10_000)).
		Stake(alice, dapp1, tokens(4000)).
		Run(t)
	test.advanceToPeriod(4)
	require.NoError(t, test.Unregister(dapp1))

	for {
		err := test.ClaimStakerRewards(alice)
		if err != nil {
			assertRevert(t, err, reverts.NoClaimableRewards)
			break
		}
	}

	// the bonus of period 1 can no longer be paid, so it does not hold the stake
	require.NoError(t, test.UnstakeFromUnregistered(alice, dapp1))
	AssertLedger(test.Engine, alice).Locked(tokens(10_000)).Staked(big.NewInt(0)).Assert(t)
	require.NoError(t, test.Unlock(alice, tokens(10_000)))
}
