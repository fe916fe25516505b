// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/storage"
	"github.com/vechain/dappstaking/types"
)

var (
	slotLedgers     = storage.Slot("ledgers")
	slotStakerInfos = storage.Slot("staker-infos")
)

const stakedContractsList = "staked-contracts"

// Service persists account ledgers, staker infos and the contracts each staker has a staker info on.
type Service struct {
	sctx        *storage.Context
	ledgers     *storage.Mapping[types.Address, AccountLedger]
	stakerInfos *storage.Mapping[storage.CompositeKey, StakerInfo]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		sctx:        sctx,
		ledgers:     storage.NewMapping[types.Address, AccountLedger](sctx, slotLedgers),
		stakerInfos: storage.NewMapping[storage.CompositeKey, StakerInfo](sctx, slotStakerInfos),
	}
}

func (s *Service) contracts(staker types.Address) *storage.LinkedList {
	return storage.NewLinkedList(s.sctx, stakedContractsList, staker)
}

// GetLedger returns the ledger of account, an empty one if absent.
func (s *Service) GetLedger(account types.Address) (*AccountLedger, error) {
	l, err := s.ledgers.Get(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ledger")
	}
	l.normalize()
	return &l, nil
}

// SetLedger stores the ledger, removing it once empty.
func (s *Service) SetLedger(account types.Address, l *AccountLedger) error {
	if l.Staked.Cmp(l.Locked) > 0 {
		return errors.Wrapf(ErrInvariantViolation, "ledger of %s stakes %s above locked %s", account, l.Staked, l.Locked)
	}
	if l.IsEmpty() {
		if l.Staked.Sign() != 0 {
			return errors.Wrapf(ErrInvariantViolation, "empty ledger of %s still stakes %s", account, l.Staked)
		}
		s.ledgers.Delete(account)
		return nil
	}
	return errors.Wrap(s.ledgers.Set(account, *l), "failed to set ledger")
}

// GetStakerInfo returns the staker info of staker on contract, an empty one if absent.
func (s *Service) GetStakerInfo(staker, contract types.Address) (*StakerInfo, error) {
	info, found, err := s.stakerInfos.Lookup(storage.CompositeKey{staker, contract})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get staker info")
	}
	if !found {
		return NewStakerInfo(), nil
	}
	if info.Bonus.Stake == nil {
		info.Bonus.Stake = new(big.Int)
	}
	return &info, nil
}

// SetStakerInfo stores the staker info and keeps the staker's contract list in sync.
// An empty staker info is removed.
func (s *Service) SetStakerInfo(staker, contract types.Address, info *StakerInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}
	list := s.contracts(staker)
	listed, err := list.Contains(contract)
	if err != nil {
		return errors.Wrap(err, "failed to read staked contracts")
	}

	key := storage.CompositeKey{staker, contract}
	if info.IsEmpty() {
		s.stakerInfos.Delete(key)
		if listed {
			return errors.Wrap(list.Remove(contract), "failed to unlist staked contract")
		}
		return nil
	}
	if err := s.stakerInfos.Set(key, *info); err != nil {
		return errors.Wrap(err, "failed to set staker info")
	}
	if !listed {
		return errors.Wrap(list.Add(contract), "failed to list staked contract")
	}
	return nil
}

// StakedContracts returns the contracts staker holds a staker info on, in first stake order.
func (s *Service) StakedContracts(staker types.Address) ([]types.Address, error) {
	return s.contracts(staker).Values()
}

// StakedContractsCount returns the number of contracts staker holds a staker info on.
func (s *Service) StakedContractsCount(staker types.Address) (uint64, error) {
	return s.contracts(staker).Len()
}

// IsStakedOn reports whether staker holds a staker info on contract.
func (s *Service) IsStakedOn(staker, contract types.Address) (bool, error) {
	return s.contracts(staker).Contains(contract)
}
