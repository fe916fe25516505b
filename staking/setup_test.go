// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"bytes"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/dappstaking/currency"
	"github.com/vechain/dappstaking/kv"
	"github.com/vechain/dappstaking/lvldb"
	"github.com/vechain/dappstaking/staking/protocol"
	"github.com/vechain/dappstaking/staking/reverts"
	"github.com/vechain/dappstaking/state"
	"github.com/vechain/dappstaking/storage"
	"github.com/vechain/dappstaking/types"
)

var (
	alice = types.BytesToAddress([]byte("alice"))
	bob   = types.BytesToAddress([]byte("bob"))
	carol = types.BytesToAddress([]byte("carol"))
	dev1  = types.BytesToAddress([]byte("dev1"))
	dev2  = types.BytesToAddress([]byte("dev2"))
	dapp1 = types.BytesToAddress([]byte("dapp1"))
	dapp2 = types.BytesToAddress([]byte("dapp2"))
	dapp3 = types.BytesToAddress([]byte("dapp3"))

	stakingAddr  = types.NameToAddress("DappStaking")
	balancesAddr = types.NameToAddress("Balances")

	genesisBlock = types.BlockNumber(1)
	initialFunds = tokens(1_000_000)
)

// testConfig keeps the default amounts with a short clock: a voting era of 20 blocks
// followed by three build&earn eras of 10 blocks.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BlocksPerEra = 10
	cfg.ErasPerVotingSubperiod = 2
	cfg.ErasPerBuildAndEarnSubperiod = 3
	cfg.PeriodsPerCycle = 2
	cfg.UnlockingPeriod = 2
	cfg.MaxUnlockingChunks = 3
	cfg.MaxNumberOfContracts = 3
	cfg.MaxNumberOfStakedContracts = 2
	cfg.MaxNumberOfStakersPerContract = 2
	cfg.MaxClaimsPerCall = 4
	cfg.RewardRetentionInEras = 6
	cfg.HistoryDepth = 8
	cfg.RewardRetentionInPeriods = 2
	return cfg
}

type EngineTest struct {
	*Engine
	t        *testing.T
	db       *lvldb.LevelDB
	st       *state.State
	balances *currency.Balances
}

func newTest(t *testing.T) *EngineTest {
	return newTestWithConfig(t, testConfig())
}

func newTestWithConfig(t *testing.T, cfg Config) *EngineTest {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	balances := currency.NewBalances(storage.NewContext(balancesAddr, st, nil), big.NewInt(1))
	for _, acc := range []types.Address{alice, bob, carol, dev1, dev2} {
		require.NoError(t, balances.Mint(acc, initialFunds))
	}
	require.NoError(t, st.Commit())

	engine, err := New(stakingAddr, st, balances, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, engine.Initialize(genesisBlock))
	t.Cleanup(engine.Close)

	return &EngineTest{Engine: engine, t: t, db: db, st: st, balances: balances}
}

// withDApps registers dapp1 for dev1 and dapp2 for dev2.
func (et *EngineTest) withDApps() *EngineTest {
	require.NoError(et.t, et.Register(dev1, dapp1))
	require.NoError(et.t, et.Register(dev2, dapp2))
	return et
}

func (et *EngineTest) clock() *protocol.ProtocolState {
	ps, err := et.ProtocolState()
	require.NoError(et.t, err)
	return ps
}

// advanceEra runs the housekeeping of the block starting the next era.
func (et *EngineTest) advanceEra() *EngineTest {
	ps := et.clock()
	require.NoError(et.t, et.OnInitialize(ps.NextEraStart))
	require.Equal(et.t, ps.Era+1, et.clock().Era, "era did not advance")
	return et
}

func (et *EngineTest) advanceTo(era types.EraIndex) *EngineTest {
	for et.clock().Era < era {
		et.advanceEra()
	}
	return et
}

func (et *EngineTest) advanceToPeriod(period types.PeriodNumber) *EngineTest {
	for et.clock().Period.Number < period {
		et.advanceEra()
	}
	return et
}

func (et *EngineTest) free(acc types.Address) *big.Int {
	free, err := et.balances.FreeBalance(acc)
	require.NoError(et.t, err)
	return free
}

// dump returns every key and value of the store.
func (et *EngineTest) dump() map[string][]byte {
	out := make(map[string][]byte)
	it := et.db.Iterate(kv.Range{})
	defer it.Release()
	for it.Next() {
		out[string(it.Key())] = bytes.Clone(it.Value())
	}
	require.NoError(et.t, it.Error())
	return out
}

func assertRevert(t *testing.T, err error, kind reverts.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, reverts.Is(err, kind), "want %s, got %v", kind, err)
}

func assertAmount(t *testing.T, want, got *big.Int, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, want.String(), got.String(), msgAndArgs...)
}

func sum(values ...*big.Int) *big.Int {
	total := new(big.Int)
	for _, v := range values {
		total.Add(total, v)
	}
	return total
}

func sub(a, b *big.Int) *big.Int {
	return new(big.Int).Sub(a, b)
}

type TestFunc func(t *testing.T)

type TestSequence struct {
	engine *EngineTest

	funcs []TestFunc
	mu    sync.Mutex
}

func NewSequence(engine *EngineTest) *TestSequence {
	return &TestSequence{funcs: make([]TestFunc, 0), engine: engine}
}

func (ts *TestSequence) AddFunc(f TestFunc) *TestSequence {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.funcs = append(ts.funcs, f)
	return ts
}

func (ts *TestSequence) Lock(acc types.Address, amount *big.Int) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		if err := ts.engine.Lock(acc, amount); err != nil {
			t.Fatalf("failed to lock %s for %s: %v", amount, acc, err)
		}
		t.Logf("locked %s for %s", amount, acc)
	})
}

func (ts *TestSequence) Unlock(acc types.Address, amount *big.Int) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		if err := ts.engine.Unlock(acc, amount); err != nil {
			t.Fatalf("failed to unlock %s for %s: %v", amount, acc, err)
		}
		t.Logf("unlocking %s for %s", amount, acc)
	})
}

func (ts *TestSequence) Stake(acc, contract types.Address, amount *big.Int) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		if err := ts.engine.Stake(acc, contract, amount); err != nil {
			t.Fatalf("failed to stake %s from %s on %s: %v", amount, acc, contract, err)
		}
		t.Logf("staked %s from %s on %s", amount, acc, contract)
	})
}

func (ts *TestSequence) Unstake(acc, contract types.Address, amount *big.Int) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		if err := ts.engine.Unstake(acc, contract, amount); err != nil {
			t.Fatalf("failed to unstake %s from %s on %s: %v", amount, acc, contract, err)
		}
		t.Logf("unstaked %s from %s on %s", amount, acc, contract)
	})
}

func (ts *TestSequence) ClaimStakerRewards(acc types.Address) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		if err := ts.engine.ClaimStakerRewards(acc); err != nil {
			t.Fatalf("failed to claim staker rewards of %s: %v", acc, err)
		}
		t.Logf("claimed staker rewards of %s", acc)
	})
}

func (ts *TestSequence) AdvanceEra(n int) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		for range n {
			ts.engine.advanceEra()
		}
		t.Logf("advanced to era %d", ts.engine.clock().Era)
	})
}

func (ts *TestSequence) AdvanceTo(era types.EraIndex) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		ts.engine.advanceTo(era)
		t.Logf("advanced to era %d", era)
	})
}

func (ts *TestSequence) Run(t *testing.T) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for _, f := range ts.funcs {
		f(t)
	}

	t.Logf("All test functions executed successfully")
}

type LedgerAssertions struct {
	engine *Engine
	acc    types.Address

	locked    *big.Int
	staked    *big.Int
	unbonding *big.Int
	chunks    *int
}

func AssertLedger(engine *Engine, acc types.Address) *LedgerAssertions {
	return &LedgerAssertions{engine: engine, acc: acc}
}

func (la *LedgerAssertions) Locked(expected *big.Int) *LedgerAssertions {
	la.locked = expected
	return la
}

func (la *LedgerAssertions) Staked(expected *big.Int) *LedgerAssertions {
	la.staked = expected
	return la
}

func (la *LedgerAssertions) Unbonding(expected *big.Int, chunks int) *LedgerAssertions {
	la.unbonding = expected
	la.chunks = &chunks
	return la
}

func (la *LedgerAssertions) Assert(t *testing.T) {
	t.Helper()
	l, err := la.engine.Ledger(la.acc)
	assert.NoError(t, err, "failed to get ledger of %s", la.acc)

	if la.locked != nil {
		assert.Equal(t, la.locked.String(), l.Locked.String(), "ledger %s locked mismatch", la.acc)
	}
	if la.staked != nil {
		assert.Equal(t, la.staked.String(), l.Staked.String(), "ledger %s staked mismatch", la.acc)
	}
	if la.unbonding != nil {
		assert.Equal(t, la.unbonding.String(), l.Unbonding.Sum().String(), "ledger %s unbonding mismatch", la.acc)
		assert.Equal(t, *la.chunks, l.Unbonding.Len(), "ledger %s chunk count mismatch", la.acc)
	}
}

type ContractStakeAssertions struct {
	engine   *Engine
	contract types.Address
	era      types.EraIndex

	total   *big.Int
	stakers *uint32
}

func AssertContractStake(engine *Engine, contract types.Address, era types.EraIndex) *ContractStakeAssertions {
	return &ContractStakeAssertions{engine: engine, contract: contract, era: era}
}

func (ca *ContractStakeAssertions) Total(expected *big.Int) *ContractStakeAssertions {
	ca.total = expected
	return ca
}

func (ca *ContractStakeAssertions) Stakers(expected uint32) *ContractStakeAssertions {
	ca.stakers = &expected
	return ca
}

func (ca *ContractStakeAssertions) Assert(t *testing.T) {
	t.Helper()
	cs, err := ca.engine.ContractStake(ca.contract, ca.era)
	assert.NoError(t, err, "failed to get contract stake of %s", ca.contract)

	if ca.total != nil {
		assert.Equal(t, ca.total.String(), cs.Total.String(), "contract %s total mismatch at era %d", ca.contract, ca.era)
	}
	if ca.stakers != nil {
		assert.Equal(t, *ca.stakers, cs.NumberOfStakers, "contract %s stakers mismatch at era %d", ca.contract, ca.era)
	}
}

type TotalsAssertions struct {
	engine *Engine

	locked *big.Int
	staked *big.Int
	voting *big.Int
}

func AssertTotals(engine *Engine) *TotalsAssertions {
	return &TotalsAssertions{engine: engine}
}

func (ta *TotalsAssertions) Locked(expected *big.Int) *TotalsAssertions {
	ta.locked = expected
	return ta
}

func (ta *TotalsAssertions) Staked(expected *big.Int) *TotalsAssertions {
	ta.staked = expected
	return ta
}

func (ta *TotalsAssertions) Voting(expected *big.Int) *TotalsAssertions {
	ta.voting = expected
	return ta
}

func (ta *TotalsAssertions) Assert(t *testing.T) {
	t.Helper()
	totals, err := ta.engine.Totals()
	assert.NoError(t, err, "failed to get totals")

	if ta.locked != nil {
		assert.Equal(t, ta.locked.String(), totals.Locked.String(), "total locked mismatch")
	}
	if ta.staked != nil {
		assert.Equal(t, ta.staked.String(), totals.Staked.String(), "total staked mismatch")
	}
	if ta.voting != nil {
		assert.Equal(t, ta.voting.String(), totals.VotingStake.String(), "voting stake mismatch")
	}
}
