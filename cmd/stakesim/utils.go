// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/dappstaking/log"
	"github.com/vechain/dappstaking/staking"
	"github.com/vechain/dappstaking/types"
)

func initLogger(verbosity int) {
	useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(verbosity), useColor)
	log.SetDefault(log.NewLogger(handler))
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

// simConfig is the engine constants plus the genesis allocation.
type simConfig struct {
	staking.Config `yaml:",inline"`
	// Genesis maps an account (hex or name) to a decimal token amount credited before the
	// engine is initialized, so the first inflation configuration sees a non-zero issuance.
	Genesis map[string]string `yaml:"genesis"`
}

// defaultGenesis funds the treasury when the config names no genesis accounts.
var defaultGenesis = map[string]string{"Treasury": "100_000_000"}

// loadConfig returns the default constants overridden by the yaml file at path, if any.
func loadConfig(path string) (simConfig, error) {
	cfg := simConfig{Config: staking.DefaultConfig()}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "decode config %s", path)
		}
		if err := cfg.Validate(); err != nil {
			return cfg, errors.Wrapf(err, "config %s", path)
		}
	}
	if len(cfg.Genesis) == 0 {
		cfg.Genesis = defaultGenesis
	}
	for account, amount := range cfg.Genesis {
		if _, err := parseAccount(account); err != nil {
			return cfg, errors.WithMessage(err, "genesis")
		}
		if _, err := parseAmount(amount); err != nil {
			return cfg, errors.WithMessagef(err, "genesis of %s", account)
		}
	}
	return cfg, nil
}

// parseAccount accepts a hex address or a name mapped to a deterministic address.
func parseAccount(s string) (types.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.Address{}, errors.New("empty account")
	}
	if addr, err := types.ParseAddress(s); err == nil {
		return *addr, nil
	}
	if strings.HasPrefix(s, "0x") {
		return types.Address{}, errors.Errorf("invalid address %q", s)
	}
	return types.NameToAddress(s), nil
}

var unit = big.NewRat(1e18, 1)

// parseAmount parses a decimal token amount such as "1500" or "0.25" into base units.
func parseAmount(s string) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	if !ok || r.Sign() < 0 {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	r.Mul(r, unit)
	if !r.IsInt() {
		return nil, errors.Errorf("amount %q is finer than the base unit", s)
	}
	return new(big.Int).Set(r.Num()), nil
}
