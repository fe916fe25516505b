// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testengine builds an initialized in-memory staking engine with funded accounts.
package testengine

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/currency"
	"github.com/vechain/dappstaking/lvldb"
	"github.com/vechain/dappstaking/staking"
	"github.com/vechain/dappstaking/state"
	"github.com/vechain/dappstaking/storage"
	"github.com/vechain/dappstaking/types"
)

var (
	EngineAddress   = types.NameToAddress("DappStaking")
	BalancesAddress = types.NameToAddress("Balances")
)

// DevAccount is a funded account of the test engine.
type DevAccount struct {
	Name    string
	Address types.Address
}

// DevAccounts returns the accounts funded by New.
func DevAccounts() []DevAccount {
	names := []string{"alice", "bob", "carol", "dev1", "dev2"}
	accounts := make([]DevAccount, 0, len(names))
	for _, name := range names {
		accounts = append(accounts, DevAccount{Name: name, Address: types.BytesToAddress([]byte(name))})
	}
	return accounts
}

// Tokens returns n whole tokens.
func Tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

// Config returns the default constants with eras of 10 blocks, one voting era and
// three build&earn eras per period.
func Config() staking.Config {
	cfg := staking.DefaultConfig()
	cfg.BlocksPerEra = 10
	cfg.ErasPerVotingSubperiod = 1
	cfg.ErasPerBuildAndEarnSubperiod = 3
	cfg.PeriodsPerCycle = 2
	cfg.UnlockingPeriod = 2
	cfg.RewardRetentionInEras = 8
	cfg.HistoryDepth = 12
	return cfg
}

type Engine struct {
	*staking.Engine
	DB       *lvldb.LevelDB
	State    *state.State
	Balances *currency.Balances
}

// New creates the engine at genesis block 1, funding every dev account with one million tokens.
func New(cfg staking.Config) (*Engine, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	st := state.New(db)
	balances := currency.NewBalances(storage.NewContext(BalancesAddress, st, nil), big.NewInt(1))
	for _, acc := range DevAccounts() {
		if err := balances.Mint(acc.Address, Tokens(1_000_000)); err != nil {
			return nil, errors.Wrapf(err, "fund %s", acc.Name)
		}
	}
	if err := st.Commit(); err != nil {
		return nil, err
	}
	engine, err := staking.New(EngineAddress, st, balances, cfg, nil)
	if err != nil {
		return nil, err
	}
	if err := engine.Initialize(1); err != nil {
		return nil, err
	}
	return &Engine{Engine: engine, DB: db, State: st, Balances: balances}, nil
}

// AdvanceEra runs the housekeeping of the block starting the next era.
func (e *Engine) AdvanceEra() error {
	ps, err := e.ProtocolState()
	if err != nil {
		return err
	}
	return e.OnInitialize(ps.NextEraStart)
}

// AdvanceTo advances until era is the current era.
func (e *Engine) AdvanceTo(era types.EraIndex) error {
	for {
		ps, err := e.ProtocolState()
		if err != nil {
			return err
		}
		if ps.Era >= era {
			return nil
		}
		if err := e.OnInitialize(ps.NextEraStart); err != nil {
			return err
		}
	}
}

func (e *Engine) Close() {
	e.Engine.Close()
	e.DB.Close()
}
