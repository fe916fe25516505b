// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package globalstats

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/staking/ledger"
	"github.com/vechain/dappstaking/storage"
)

var (
	slotTotalLocked = storage.Slot("total-locked")
	slotTotalStaked = storage.Slot("total-staked")
	slotVotingStake = storage.Slot("voting-stake")
)

// Totals are the running totals of the current era.
type Totals struct {
	Locked      *big.Int
	Staked      *big.Int
	VotingStake *big.Int
}

// Service manages protocol-wide running totals.
// Locked and staked carry over from era to era, the voting stake is reset every period.
type Service struct {
	locked      *storage.Uint256
	staked      *storage.Uint256
	votingStake *storage.Uint256
}

func New(sctx *storage.Context) *Service {
	return &Service{
		locked:      storage.NewUint256(sctx, slotTotalLocked),
		staked:      storage.NewUint256(sctx, slotTotalStaked),
		votingStake: storage.NewUint256(sctx, slotVotingStake),
	}
}

func (s *Service) Totals() (*Totals, error) {
	locked, err := s.locked.Get()
	if err != nil {
		return nil, err
	}
	staked, err := s.staked.Get()
	if err != nil {
		return nil, err
	}
	voting, err := s.votingStake.Get()
	if err != nil {
		return nil, err
	}
	return &Totals{Locked: locked, Staked: staked, VotingStake: voting}, nil
}

func (s *Service) AddLocked(amount *big.Int) error {
	return s.locked.Add(amount)
}

func (s *Service) RemoveLocked(amount *big.Int) error {
	return checkedSub(s.locked, amount, "total-locked")
}

// AddStaked increases the staked total, and the voting stake when the stake counts for the bonus.
func (s *Service) AddStaked(amount *big.Int, voting bool) error {
	if err := s.staked.Add(amount); err != nil {
		return err
	}
	if voting {
		return s.votingStake.Add(amount)
	}
	return nil
}

// RemoveStaked decreases the staked total and the voting stake by votingDecrease.
func (s *Service) RemoveStaked(amount, votingDecrease *big.Int) error {
	if err := checkedSub(s.staked, amount, "total-staked"); err != nil {
		return err
	}
	if votingDecrease != nil && votingDecrease.Sign() > 0 {
		return checkedSub(s.votingStake, votingDecrease, "voting-stake")
	}
	return nil
}

// TakeVotingStake returns the voting stake of the closing period and resets it.
func (s *Service) TakeVotingStake() (*big.Int, error) {
	voting, err := s.votingStake.Get()
	if err != nil {
		return nil, err
	}
	s.votingStake.Set(new(big.Int))
	return voting, nil
}

func checkedSub(slot *storage.Uint256, amount *big.Int, name string) error {
	current, err := slot.Get()
	if err != nil {
		return err
	}
	if current.Cmp(amount) < 0 {
		return errors.Wrapf(ledger.ErrInvariantViolation, "%s cannot be negative", name)
	}
	slot.Set(current.Sub(current, amount))
	return nil
}
