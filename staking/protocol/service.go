// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package protocol

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/storage"
	"github.com/vechain/dappstaking/types"
)

var (
	slotState      = storage.Slot("protocol-state")
	slotForce      = storage.Slot("protocol-force")
	slotPeriodEnds = storage.Slot("period-ends")
)

// Service persists the clock, the pending force flag and the period end infos.
type Service struct {
	state      *storage.Value[ProtocolState]
	force      *storage.Value[ForcingType]
	periodEnds *storage.Mapping[types.PeriodNumber, PeriodEndInfo]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		state:      storage.NewValue[ProtocolState](sctx, slotState),
		force:      storage.NewValue[ForcingType](sctx, slotForce),
		periodEnds: storage.NewMapping[types.PeriodNumber, PeriodEndInfo](sctx, slotPeriodEnds),
	}
}

// Initialized reports whether the genesis state was stored.
func (s *Service) Initialized() (bool, error) {
	return s.state.Exists()
}

func (s *Service) State() (*ProtocolState, error) {
	st, err := s.state.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get protocol state")
	}
	return &st, nil
}

func (s *Service) SetState(st *ProtocolState) error {
	return errors.Wrap(s.state.Set(*st), "failed to set protocol state")
}

// Force records a one-shot forcing request.
func (s *Service) Force(f ForcingType) error {
	return errors.Wrap(s.force.Set(f), "failed to set force")
}

// TakeForce returns the pending forcing request and clears it.
func (s *Service) TakeForce() (ForcingType, error) {
	f, err := s.force.Get()
	if err != nil {
		return ForceNone, errors.Wrap(err, "failed to get force")
	}
	if f != ForceNone {
		s.force.Delete()
	}
	return f, nil
}

// PendingForce returns the pending forcing request without clearing it.
func (s *Service) PendingForce() (ForcingType, error) {
	f, err := s.force.Get()
	return f, errors.Wrap(err, "failed to get force")
}

// PeriodEnd returns the end info of a finished period, or nil.
func (s *Service) PeriodEnd(period types.PeriodNumber) (*PeriodEndInfo, error) {
	info, found, err := s.periodEnds.Lookup(period)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get period end")
	}
	if !found {
		return nil, nil
	}
	if info.BonusRewardPool == nil {
		info.BonusRewardPool = new(big.Int)
	}
	if info.TotalVotingStake == nil {
		info.TotalVotingStake = new(big.Int)
	}
	return &info, nil
}

func (s *Service) SetPeriodEnd(period types.PeriodNumber, info *PeriodEndInfo) error {
	return errors.Wrap(s.periodEnds.Set(period, *info), "failed to set period end")
}

func (s *Service) PrunePeriodEnd(period types.PeriodNumber) {
	s.periodEnds.Delete(period)
}
