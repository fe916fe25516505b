// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking implements the dApp staking engine: accounts lock funds, stake them on
// registered contracts and claim era rewards, while the era and period clock advances with
// the block number.
//
// Every operation runs in its own transaction over the shared state: it either commits all
// its changes or none of them, and its events are published only after the commit.
package staking

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/currency"
	"github.com/vechain/dappstaking/inflation"
	"github.com/vechain/dappstaking/log"
	"github.com/vechain/dappstaking/perthing"
	"github.com/vechain/dappstaking/staking/globalstats"
	"github.com/vechain/dappstaking/staking/ledger"
	"github.com/vechain/dappstaking/staking/protocol"
	"github.com/vechain/dappstaking/staking/registry"
	"github.com/vechain/dappstaking/staking/reverts"
	"github.com/vechain/dappstaking/staking/rewards"
	"github.com/vechain/dappstaking/staking/tiers"
	"github.com/vechain/dappstaking/state"
	"github.com/vechain/dappstaking/storage"
	"github.com/vechain/dappstaking/types"
)

var logger = log.WithContext("pkg", "staking")

func SetLogger(l log.Logger) {
	logger = l
}

var (
	// LockID is the currency lock holding locked and unbonding funds.
	LockID = currency.NewLockID("dappstak")
	// RewardPot holds the minted dApp rewards until they are claimed or burned.
	RewardPot = types.NameToAddress("DappStakingPot")
)

// PriceProvider returns the native token price used to size the tiers.
type PriceProvider interface {
	NativePrice() (perthing.FixedU64, error)
}

// StaticPrice is a constant price.
type StaticPrice perthing.FixedU64

func (p StaticPrice) NativePrice() (perthing.FixedU64, error) {
	return perthing.FixedU64(p), nil
}

// Engine is the dApp staking engine.
type Engine struct {
	cfg      Config
	state    *state.State
	currency currency.Currency
	price    PriceProvider

	ledgers   *ledger.Service
	registry  *registry.Service
	protocol  *protocol.Service
	rewards   *rewards.Service
	tiers     *tiers.Service
	stats     *globalstats.Service
	inflation *inflation.Service

	events events
	mu     sync.Mutex
}

// New creates the engine storing under addr. The currency should share st so that balance
// changes commit and revert together with the engine.
func New(addr types.Address, st *state.State, cur currency.Currency, cfg Config, price PriceProvider) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid staking config")
	}
	if price == nil {
		price = StaticPrice(cfg.NativePrice)
	}
	sctx := storage.NewContext(addr, st, nil)
	return &Engine{
		cfg:       cfg,
		state:     st,
		currency:  cur,
		price:     price,
		ledgers:   ledger.New(sctx),
		registry:  registry.New(sctx),
		protocol:  protocol.New(sctx),
		rewards:   rewards.New(sctx),
		tiers:     tiers.New(sctx),
		stats:     globalstats.New(sctx),
		inflation: inflation.New(sctx, cur, cfg.cycle(), inflation.Beneficiaries{Collators: cfg.CollatorsAccount, Treasury: cfg.TreasuryAccount}),
	}, nil
}

// Initialize stores the genesis state at block now.
func (e *Engine) Initialize(now types.BlockNumber) error {
	return e.exec("initialize", false, func() error {
		ok, err := e.protocol.Initialized()
		if err != nil {
			return err
		}
		if ok {
			return errors.New("staking already initialized")
		}
		genesis := protocol.Genesis(now, e.cfg.lengths())
		if err := e.protocol.SetState(&genesis); err != nil {
			return err
		}
		if err := e.tiers.SetParameters(e.cfg.TierParameters); err != nil {
			return err
		}
		if err := e.tiers.SetConfiguration(e.cfg.InitialTierConfig); err != nil {
			return err
		}
		if err := e.inflation.Initialize(e.cfg.Inflation, genesis.Era); err != nil {
			return err
		}
		logger.Info("staking initialized", "block", now, "nextEra", genesis.NextEraStart)
		return nil
	})
}

// Close ends all event subscriptions.
func (e *Engine) Close() {
	e.events.scope.Close()
}

func (e *Engine) Config() Config {
	return e.cfg
}

//
// Getters - no state change
//

// Initialized reports whether the genesis state was stored.
func (e *Engine) Initialized() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.protocol.Initialized()
}

func (e *Engine) ProtocolState() (*protocol.ProtocolState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.protocol.State()
}

// Ledger returns the ledger of account, an empty one if it has none.
func (e *Engine) Ledger(account types.Address) (*ledger.AccountLedger, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledgers.GetLedger(account)
}

func (e *Engine) StakerInfo(staker, contract types.Address) (*ledger.StakerInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledgers.GetStakerInfo(staker, contract)
}

// StakedContracts returns the contracts staker holds stake history on.
func (e *Engine) StakedContracts(staker types.Address) ([]types.Address, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledgers.StakedContracts(staker)
}

func (e *Engine) DApp(contract types.Address) (*registry.DAppInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Get(contract)
}

// RegisteredDApps returns the registered contracts in registration order.
func (e *Engine) RegisteredDApps() ([]types.Address, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Registered()
}

// EraInfo returns the snapshot of a closed era, or nil.
func (e *Engine) EraInfo(era types.EraIndex) (*rewards.EraInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rewards.EraInfo(era)
}

func (e *Engine) ContractStake(contract types.Address, era types.EraIndex) (*rewards.ContractStakeInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rewards.ContractStake(contract, era)
}

// TierRewards returns the tier assignment of a closed build&earn era, or nil.
func (e *Engine) TierRewards(era types.EraIndex) (*tiers.DAppTierRewards, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rewards.TierRewards(era)
}

func (e *Engine) TierConfiguration() (tiers.Configuration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tiers.Configuration()
}

// PeriodEnd returns the end info of a finished period, or nil.
func (e *Engine) PeriodEnd(period types.PeriodNumber) (*protocol.PeriodEndInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.protocol.PeriodEnd(period)
}

// Totals returns the running totals of the current era.
func (e *Engine) Totals() (*globalstats.Totals, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.Totals()
}

func (e *Engine) InflationConfiguration() (*inflation.Configuration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inflation.Configuration()
}

func (e *Engine) InflationParameters() (inflation.Parameters, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inflation.Parameters()
}

//
// Transactions
//

// exec runs fn in a transaction. User operations are refused in maintenance mode.
func (e *Engine) exec(op string, user bool, fn func() error) error {
	batch, err := e.run(op, user, fn)
	if len(batch) > 0 {
		e.events.feed.Send(batch)
	}
	return err
}

func (e *Engine) run(op string, user bool, fn func() error) ([]*Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	checkpoint := e.state.NewCheckpoint()
	err := func() error {
		if user {
			if err := e.ensureEnabled(); err != nil {
				return err
			}
		}
		if err := fn(); err != nil {
			return err
		}
		return e.state.Commit()
	}()
	if err != nil {
		e.state.RevertTo(checkpoint)
		e.rewards.PurgeCache()
		e.events.discard()
		e.logFailure(op, err)
		metricCalls().AddWithLabel(1, map[string]string{"op": op, "result": resultLabel(err)})
		return nil, err
	}
	metricCalls().AddWithLabel(1, map[string]string{"op": op, "result": "ok"})
	return e.events.take(), nil
}

func (e *Engine) logFailure(op string, err error) {
	switch {
	case reverts.IsRevertErr(err):
		logger.Info("operation rejected", "op", op, "err", err)
	case errors.Is(err, ledger.ErrInvariantViolation):
		logger.Error("invariant violation, operation aborted", "op", op, "err", err)
	default:
		logger.Warn("operation failed", "op", op, "err", err)
	}
}

func resultLabel(err error) string {
	switch {
	case reverts.IsRevertErr(err):
		return reverts.KindOf(err).String()
	case errors.Is(err, ledger.ErrInvariantViolation):
		return "invariant"
	default:
		return "error"
	}
}

func (e *Engine) ensureEnabled() error {
	ps, err := e.protocol.State()
	if err != nil {
		return err
	}
	if ps.Maintenance {
		return reverts.New(reverts.Disabled, "maintenance mode")
	}
	return nil
}

// current returns the protocol state, failing before initialization.
func (e *Engine) current() (*protocol.ProtocolState, error) {
	ok, err := e.protocol.Initialized()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("staking not initialized")
	}
	return e.protocol.State()
}

func requirePositive(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New(reverts.ZeroAmount, "amount must be positive")
	}
	return nil
}
