// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/currency"
	"github.com/vechain/dappstaking/staking/reverts"
	"github.com/vechain/dappstaking/types"
)

// Register registers contract on behalf of developer, reserving the registration deposit.
func (e *Engine) Register(developer, contract types.Address) error {
	logger.Debug("register", "developer", developer, "contract", contract)
	return e.exec("register", true, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		info, err := e.registry.Register(developer, contract, e.cfg.MaxNumberOfContracts)
		if err != nil {
			return err
		}
		if e.cfg.RegisterDeposit.Sign() > 0 {
			if err := e.currency.Reserve(developer, e.cfg.RegisterDeposit); err != nil {
				if errors.Is(err, currency.ErrInsufficientBalance) || errors.Is(err, currency.ErrLiquidityRestrictions) {
					return reverts.Newf(reverts.InsufficientBalance, "deposit %s: %v", e.cfg.RegisterDeposit, err)
				}
				return errors.Wrap(err, "failed to reserve deposit")
			}
		}
		logger.Info("dapp registered", "contract", contract, "id", info.ID, "developer", developer)
		e.events.emit(ps, EventDAppRegistered, developer, contract, e.cfg.RegisterDeposit)
		return nil
	})
}

// Unregister removes contract from the active set at the current era and returns the deposit.
// Stakers keep their stake until they call UnstakeFromUnregistered.
func (e *Engine) Unregister(contract types.Address) error {
	logger.Debug("unregister", "contract", contract)
	return e.exec("unregister", false, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		info, err := e.registry.Unregister(contract, ps.Era)
		if err != nil {
			return err
		}
		if err := e.currency.Unreserve(info.Developer, e.cfg.RegisterDeposit); err != nil {
			return errors.Wrap(err, "failed to return deposit")
		}
		logger.Info("dapp unregistered", "contract", contract, "id", info.ID, "era", ps.Era)
		e.events.emit(ps, EventDAppUnregistered, info.Developer, contract, e.cfg.RegisterDeposit)
		return nil
	})
}

// SetDAppOwner transfers the ownership of contract. Only the owner may call it.
func (e *Engine) SetDAppOwner(caller, contract, owner types.Address) error {
	return e.exec("set-dapp-owner", true, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		if _, err := e.registry.SetOwner(caller, contract, owner); err != nil {
			return err
		}
		e.events.emit(ps, EventDAppOwnerChanged, owner, contract, nil)
		return nil
	})
}

// SetDAppRewardDestination sets the account receiving the dApp rewards of contract.
// A zero beneficiary sends them to the owner.
func (e *Engine) SetDAppRewardDestination(caller, contract, beneficiary types.Address) error {
	return e.exec("set-dapp-reward-destination", true, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		info, err := e.registry.SetBeneficiary(caller, contract, beneficiary)
		if err != nil {
			return err
		}
		e.events.emit(ps, EventDAppRewardDestinationUpdated, info.RewardBeneficiary(), contract, nil)
		return nil
	})
}
