// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math/big"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/currency"
	"github.com/vechain/dappstaking/eventlog"
	"github.com/vechain/dappstaking/log"
	"github.com/vechain/dappstaking/lvldb"
	"github.com/vechain/dappstaking/staking"
	"github.com/vechain/dappstaking/state"
	"github.com/vechain/dappstaking/storage"
	"github.com/vechain/dappstaking/types"
)

var (
	engineAddress   = types.NameToAddress("DappStaking")
	balancesAddress = types.NameToAddress("Balances")
)

// node bundles the stores and the engine opened by a command.
type node struct {
	db       *lvldb.LevelDB
	state    *state.State
	balances *currency.Balances
	engine   *staking.Engine
	eventLog *eventlog.EventLog
}

// openNode opens the databases under dataDir, or in memory when dataDir is empty, and
// initializes the engine on first use.
func openNode(dataDir string, cfg simConfig) (*node, error) {
	var (
		n      = &node{}
		opened bool
		err    error
	)
	defer func() {
		if !opened {
			n.close()
		}
	}()

	if dataDir == "" {
		if n.db, err = lvldb.NewMem(); err != nil {
			return nil, err
		}
		if n.eventLog, err = eventlog.NewMem(); err != nil {
			return nil, err
		}
	} else {
		if err := os.MkdirAll(dataDir, 0o700); err != nil {
			return nil, errors.Wrap(err, "create data dir")
		}
		if n.db, err = lvldb.New(filepath.Join(dataDir, "staking.db"), lvldb.Options{CacheSize: 128, OpenFilesCacheCapacity: 64}); err != nil {
			return nil, err
		}
		if n.eventLog, err = eventlog.New(filepath.Join(dataDir, "events.db")); err != nil {
			return nil, err
		}
	}

	n.state = state.New(n.db)
	n.balances = currency.NewBalances(storage.NewContext(balancesAddress, n.state, nil), big.NewInt(1))
	if n.engine, err = staking.New(engineAddress, n.state, n.balances, cfg.Config, nil); err != nil {
		return nil, err
	}
	ok, err := n.engine.Initialized()
	if err != nil {
		return nil, err
	}
	if !ok {
		if err := n.allocGenesis(cfg.Genesis); err != nil {
			return nil, err
		}
		if err := n.engine.Initialize(1); err != nil {
			return nil, err
		}
	}
	opened = true
	log.Debug("node opened", "dataDir", dataDir)
	return n, nil
}

// allocGenesis credits the genesis accounts in a stable order and commits them together.
func (n *node) allocGenesis(genesis map[string]string) error {
	accounts := make([]string, 0, len(genesis))
	for account := range genesis {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	for _, name := range accounts {
		account, err := parseAccount(name)
		if err != nil {
			return err
		}
		amount, err := parseAmount(genesis[name])
		if err != nil {
			return err
		}
		if err := n.balances.Mint(account, amount); err != nil {
			return errors.Wrapf(err, "genesis of %s", name)
		}
		log.Debug("genesis allocation", "account", account, "amount", amount)
	}
	return n.state.Commit()
}

// mint credits free balance outside of any engine operation.
func (n *node) mint(account types.Address, amount *big.Int) error {
	if err := n.balances.Mint(account, amount); err != nil {
		return err
	}
	return n.state.Commit()
}

// advance runs the housekeeping of the next count blocks, calling tick after each block.
func (n *node) advance(count uint64, tick func()) error {
	for range count {
		ps, err := n.engine.ProtocolState()
		if err != nil {
			return err
		}
		if err := n.engine.OnInitialize(ps.LastBlock + 1); err != nil {
			return err
		}
		if tick != nil {
			tick()
		}
	}
	return nil
}

func (n *node) close() {
	if n.engine != nil {
		n.engine.Close()
	}
	if n.eventLog != nil {
		if err := n.eventLog.Close(); err != nil {
			log.Warn("close event log", "err", err)
		}
	}
	if n.db != nil {
		if err := n.db.Close(); err != nil {
			log.Warn("close database", "err", err)
		}
	}
}
