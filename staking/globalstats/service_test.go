// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package globalstats

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/dappstaking/lvldb"
	"github.com/vechain/dappstaking/staking/ledger"
	"github.com/vechain/dappstaking/state"
	"github.com/vechain/dappstaking/storage"
	"github.com/vechain/dappstaking/types"
)

func poisonUintSlot(st *state.State, space types.Address, slot types.Bytes32) {
	st.SetRawStorage(space, slot, rlp.RawValue{0xFF})
}

func newSvc(t *testing.T) (*Service, types.Address, *state.State) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	addr := types.NameToAddress("gs")
	return New(storage.NewContext(addr, st, nil)), addr, st
}

func requireTotals(t *testing.T, svc *Service, locked, staked, voting int64) {
	totals, err := svc.Totals()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(locked).String(), totals.Locked.String(), "locked")
	assert.Equal(t, big.NewInt(staked).String(), totals.Staked.String(), "staked")
	assert.Equal(t, big.NewInt(voting).String(), totals.VotingStake.String(), "voting")
}

func TestService_Empty(t *testing.T) {
	svc, _, _ := newSvc(t)
	requireTotals(t, svc, 0, 0, 0)
}

func TestService_LockedAndStaked(t *testing.T) {
	svc, _, _ := newSvc(t)

	assert.NoError(t, svc.AddLocked(big.NewInt(1000)))
	assert.NoError(t, svc.AddStaked(big.NewInt(400), true))
	assert.NoError(t, svc.AddStaked(big.NewInt(100), false))
	requireTotals(t, svc, 1000, 500, 400)

	assert.NoError(t, svc.RemoveStaked(big.NewInt(150), big.NewInt(50)))
	assert.NoError(t, svc.RemoveLocked(big.NewInt(300)))
	requireTotals(t, svc, 700, 350, 350)

	voting, err := svc.TakeVotingStake()
	require.NoError(t, err)
	assert.Equal(t, "350", voting.String())
	requireTotals(t, svc, 700, 350, 0)
}

func TestService_NegativeIsInvariantViolation(t *testing.T) {
	svc, _, _ := newSvc(t)

	err := svc.RemoveLocked(big.NewInt(1))
	assert.True(t, errors.Is(err, ledger.ErrInvariantViolation))
	assert.ErrorContains(t, err, "total-locked cannot be negative")

	assert.NoError(t, svc.AddStaked(big.NewInt(5), false))
	err = svc.RemoveStaked(big.NewInt(5), big.NewInt(1))
	assert.ErrorContains(t, err, "voting-stake cannot be negative")
}

func TestService_Totals_PoisonedSlots(t *testing.T) {
	for _, slot := range []types.Bytes32{slotTotalLocked, slotTotalStaked, slotVotingStake} {
		svc, addr, st := newSvc(t)
		poisonUintSlot(st, addr, slot)
		_, err := svc.Totals()
		assert.Error(t, err)
	}

	svc, addr, st := newSvc(t)
	poisonUintSlot(st, addr, slotVotingStake)
	_, err := svc.TakeVotingStake()
	assert.Error(t, err)
}
