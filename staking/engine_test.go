// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/dappstaking/currency"
	"github.com/vechain/dappstaking/lvldb"
	"github.com/vechain/dappstaking/staking/reverts"
	"github.com/vechain/dappstaking/state"
	"github.com/vechain/dappstaking/storage"
	"github.com/vechain/dappstaking/types"
)

func TestNew_InvalidConfig(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	st := state.New(db)
	balances := currency.NewBalances(storage.NewContext(balancesAddr, st, nil), big.NewInt(1))

	for name, modify := range map[string]func(*Config){
		"zero era length":    func(c *Config) { c.BlocksPerEra = 0 },
		"short history":      func(c *Config) { c.HistoryDepth = c.RewardRetentionInEras - 1 },
		"nil minimum stake":  func(c *Config) { c.MinimumStakeAmount = nil },
		"single stake value": func(c *Config) { c.MaxEraStakeValues = 1 },
		"tier mismatch":      func(c *Config) { c.InitialTierConfig.SlotsPerTier = c.InitialTierConfig.SlotsPerTier[:1] },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			modify(&cfg)
			_, err := New(stakingAddr, st, balances, cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestInitialize(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	st := state.New(db)
	balances := currency.NewBalances(storage.NewContext(balancesAddr, st, nil), big.NewInt(1))
	require.NoError(t, balances.Mint(alice, initialFunds))
	require.NoError(t, st.Commit())

	engine, err := New(stakingAddr, st, balances, testConfig(), nil)
	require.NoError(t, err)
	defer engine.Close()

	ok, err := engine.Initialized()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Error(t, engine.Lock(alice, tokens(1000)), "operations fail before initialization")
	assert.Error(t, engine.OnInitialize(2))

	require.NoError(t, engine.Initialize(genesisBlock))
	ok, err = engine.Initialized()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Error(t, engine.Initialize(genesisBlock))

	require.NoError(t, engine.Lock(alice, tokens(1000)))
}

func TestRollback(t *testing.T) {
	test := newTest(t).withDApps()

	NewSequence(test).
		Lock(alice, tokens(10_000)).
		Stake(alice, dapp1, tokens(3000)).
		Run(t)

	before := test.dump()
	// the source is unstaked before the destination fails
	assertRevert(t, test.MoveStake(alice, dapp1, dapp3, tokens(1000)), reverts.NotRegisteredContract)
	assert.Equal(t, before, test.dump(), "a failed operation leaves the store untouched")

	assertRevert(t, test.Unlock(alice, tokens(9000)), reverts.NotEnoughFundsToUnlock)
	assert.Equal(t, before, test.dump())

	// cached reads do not survive the rollback either
	AssertContractStake(test.Engine, dapp1, 0).Total(tokens(3000)).Assert(t)
	AssertLedger(test.Engine, alice).Staked(tokens(3000)).Assert(t)
}

func TestEvents_PublishedAfterCommit(t *testing.T) {
	test := newTest(t).withDApps()

	ch := make(chan []*Event, 8)
	subscription := test.SubscribeEvents(ch)
	defer subscription.Unsubscribe()

	require.NoError(t, test.Lock(alice, tokens(2000)))
	batch := <-ch
	require.Len(t, batch, 1)
	assert.Equal(t, EventLocked, batch[0].Kind)
	assert.Equal(t, alice, batch[0].Account)
	assertAmount(t, tokens(2000), batch[0].Amount)

	require.NoError(t, test.Stake(alice, dapp1, tokens(1500)))
	require.NoError(t, test.MoveStake(alice, dapp1, dapp2, tokens(500)))
	<-ch
	batch = <-ch
	require.Len(t, batch, 1)
	assert.Equal(t, EventStakeMoved, batch[0].Kind)
	assert.Equal(t, dapp2, batch[0].Contract)
	assert.Equal(t, dapp1.String(), batch[0].Detail)

	// a failed operation publishes nothing
	assertRevert(t, test.MoveStake(alice, dapp1, dapp3, tokens(500)), reverts.NotRegisteredContract)
	select {
	case batch := <-ch:
		t.Fatalf("unexpected events %v", batch)
	default:
	}
}

func TestConcurrentOperations(t *testing.T) {
	test := newTest(t)

	var wg sync.WaitGroup
	for _, acc := range []types.Address{alice, bob, carol, dev1, dev2} {
		wg.Add(1)
		go func(acc types.Address) {
			defer wg.Done()
			for range 10 {
				assert.NoError(t, test.Lock(acc, tokens(1000)))
			}
		}(acc)
	}
	wg.Wait()

	AssertTotals(test.Engine).Locked(tokens(50_000)).Assert(t)
	for _, acc := range []types.Address{alice, bob, carol, dev1, dev2} {
		AssertLedger(test.Engine, acc).Locked(tokens(10_000)).Assert(t)
	}
}
