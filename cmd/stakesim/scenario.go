// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/cheggaaa/pb.v1"
	"gopkg.in/yaml.v3"

	"github.com/vechain/dappstaking/staking"
	"github.com/vechain/dappstaking/staking/ledger"
	"github.com/vechain/dappstaking/staking/protocol"
	"github.com/vechain/dappstaking/staking/reverts"
	"github.com/vechain/dappstaking/types"
)

// Scenario is an ordered list of steps run against one engine.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one operation. Fields not used by the op are ignored.
type Step struct {
	Op       string `yaml:"op"`
	Account  string `yaml:"account"`
	Contract string `yaml:"contract"`
	To       string `yaml:"to"`
	Amount   string `yaml:"amount"`
	Blocks   uint64 `yaml:"blocks"`
	Eras     uint32 `yaml:"eras"`
	Era      uint32 `yaml:"era"`
	Value    string `yaml:"value"`
	// ExpectError names the revert kind the step must fail with.
	ExpectError string `yaml:"expect-error"`
}

func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}
	return parseScenario(data)
}

func parseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "decode scenario")
	}
	if len(s.Steps) == 0 {
		return nil, errors.New("scenario has no steps")
	}
	return &s, nil
}

// runner executes scenario steps against a node.
type runner struct {
	node     *node
	out      io.Writer
	progress bool
}

func (r *runner) run(s *Scenario) error {
	if s.Name != "" {
		fmt.Fprintf(r.out, ">> %s <<\n", s.Name)
	}
	for i := range s.Steps {
		step := &s.Steps[i]
		if err := r.runStep(step); err != nil {
			return errors.WithMessagef(err, "step %d (%s)", i+1, step.Op)
		}
	}
	return nil
}

func (r *runner) runStep(step *Step) error {
	err := r.exec(step)
	if step.ExpectError == "" {
		return err
	}
	kind, ok := reverts.ParseKind(step.ExpectError)
	if !ok {
		return errors.Errorf("unknown revert kind %q", step.ExpectError)
	}
	if err == nil {
		return errors.Errorf("expected %s, got success", kind)
	}
	if !reverts.Is(err, kind) {
		return errors.Errorf("expected %s, got %v", kind, err)
	}
	fmt.Fprintf(r.out, "   %s rejected as expected: %v\n", step.Op, err)
	return nil
}

func (r *runner) exec(step *Step) error {
	engine := r.node.engine
	switch step.Op {
	case "mint":
		account, amount, err := r.accountAndAmount(step)
		if err != nil {
			return err
		}
		return r.node.mint(account, amount)
	case "lock":
		account, amount, err := r.accountAndAmount(step)
		if err != nil {
			return err
		}
		return engine.Lock(account, amount)
	case "unlock":
		account, amount, err := r.accountAndAmount(step)
		if err != nil {
			return err
		}
		return engine.Unlock(account, amount)
	case "claim-unlocked":
		account, err := parseAccount(step.Account)
		if err != nil {
			return err
		}
		return engine.ClaimUnlocked(account)
	case "relock":
		account, err := parseAccount(step.Account)
		if err != nil {
			return err
		}
		return engine.RelockUnlocking(account)
	case "set-reward-destination":
		account, err := parseAccount(step.Account)
		if err != nil {
			return err
		}
		var dest ledger.RewardDestination
		if err := dest.UnmarshalText([]byte(step.Value)); err != nil {
			return err
		}
		return engine.SetRewardDestination(account, dest)
	case "stake", "unstake":
		account, amount, err := r.accountAndAmount(step)
		if err != nil {
			return err
		}
		contract, err := parseAccount(step.Contract)
		if err != nil {
			return err
		}
		if step.Op == "stake" {
			return engine.Stake(account, contract, amount)
		}
		return engine.Unstake(account, contract, amount)
	case "move":
		account, amount, err := r.accountAndAmount(step)
		if err != nil {
			return err
		}
		from, err := parseAccount(step.Contract)
		if err != nil {
			return err
		}
		to, err := parseAccount(step.To)
		if err != nil {
			return err
		}
		return engine.MoveStake(account, from, to, amount)
	case "unstake-unregistered", "claim-bonus":
		account, err := parseAccount(step.Account)
		if err != nil {
			return err
		}
		contract, err := parseAccount(step.Contract)
		if err != nil {
			return err
		}
		if step.Op == "claim-bonus" {
			return engine.ClaimBonusReward(account, contract)
		}
		return engine.UnstakeFromUnregistered(account, contract)
	case "claim-staker":
		account, err := parseAccount(step.Account)
		if err != nil {
			return err
		}
		return engine.ClaimStakerRewards(account)
	case "claim-dapp", "burn-stale":
		contract, err := parseAccount(step.Contract)
		if err != nil {
			return err
		}
		if step.Op == "burn-stale" {
			return engine.BurnStaleReward(contract, types.EraIndex(step.Era))
		}
		return engine.ClaimDAppReward(contract, types.EraIndex(step.Era))
	case "register":
		developer, err := parseAccount(step.Account)
		if err != nil {
			return err
		}
		contract, err := parseAccount(step.Contract)
		if err != nil {
			return err
		}
		return engine.Register(developer, contract)
	case "unregister":
		contract, err := parseAccount(step.Contract)
		if err != nil {
			return err
		}
		return engine.Unregister(contract)
	case "force":
		switch step.Value {
		case "era":
			return engine.Force(protocol.ForceEra)
		case "subperiod":
			return engine.Force(protocol.ForceSubperiod)
		default:
			return errors.Errorf("unknown forcing type %q, want era or subperiod", step.Value)
		}
	case "maintenance":
		return engine.SetMaintenanceMode(step.Value == "on" || step.Value == "true")
	case "advance-blocks":
		return r.advance(step.Blocks)
	case "advance-eras":
		return r.advanceEras(step.Eras)
	default:
		return errors.Errorf("unknown op %q", step.Op)
	}
}

func (r *runner) accountAndAmount(step *Step) (types.Address, *big.Int, error) {
	account, err := parseAccount(step.Account)
	if err != nil {
		return types.Address{}, nil, err
	}
	amount, err := parseAmount(step.Amount)
	if err != nil {
		return types.Address{}, nil, err
	}
	return account, amount, nil
}

func (r *runner) advance(blocks uint64) error {
	if !r.progress {
		return r.node.advance(blocks, nil)
	}
	bar := pb.New64(int64(blocks)).
		SetMaxWidth(90).
		Start()
	defer func() { bar.NotPrint = true }()

	if err := r.node.advance(blocks, func() { bar.Add64(1) }); err != nil {
		return err
	}
	bar.Finish()
	return nil
}

func (r *runner) advanceEras(eras uint32) error {
	for range eras {
		ps, err := r.node.engine.ProtocolState()
		if err != nil {
			return err
		}
		if ps.NextEraStart <= ps.LastBlock {
			return errors.Errorf("era %d does not advance, maintenance %v", ps.Era, ps.Maintenance)
		}
		if err := r.advance(uint64(ps.NextEraStart - ps.LastBlock)); err != nil {
			return err
		}
	}
	return nil
}

// printEvents writes every published batch to w until the engine closes the subscription.
func printEvents(w io.Writer, ch <-chan []*staking.Event, errCh <-chan error, store func([]*staking.Event) error) error {
	handle := func(batch []*staking.Event) error {
		for _, ev := range batch {
			fmt.Fprintf(w, "   %s\n", ev)
		}
		return store(batch)
	}
	for {
		select {
		case batch := <-ch:
			if err := handle(batch); err != nil {
				return err
			}
		case err := <-errCh:
			for {
				select {
				case batch := <-ch:
					if err := handle(batch); err != nil {
						return err
					}
				default:
					return err
				}
			}
		}
	}
}
