// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/types"
)

// ErrInvariantViolation marks a ledger state that validation should have made impossible.
var ErrInvariantViolation = errors.New("ledger invariant violation")

// EraStake is a checkpoint: from Era on, the staked amount is Staked until the next checkpoint.
type EraStake struct {
	Era    types.EraIndex
	Staked *big.Int
}

// BonusStatus tracks the part of a stake made during the voting subperiod of Period.
type BonusStatus struct {
	Period   types.PeriodNumber
	Stake    *big.Int
	Eligible bool
	Claimed  bool
}

// Pending reports whether a bonus reward may still be claimed.
func (b *BonusStatus) Pending() bool {
	return b.Eligible && !b.Claimed && b.Stake != nil && b.Stake.Sign() > 0
}

// StakerInfo is the stake history of one staker on one contract, ordered by era and kept minimal:
// no two consecutive checkpoints hold the same amount and the first checkpoint is never zero.
type StakerInfo struct {
	Stakes []EraStake
	Bonus  BonusStatus
}

func NewStakerInfo() *StakerInfo {
	return &StakerInfo{Bonus: BonusStatus{Stake: new(big.Int)}}
}

func (s *StakerInfo) Len() int {
	return len(s.Stakes)
}

// IsEmpty reports whether nothing is left to claim or to unstake.
func (s *StakerInfo) IsEmpty() bool {
	return len(s.Stakes) == 0 && !s.Bonus.Pending()
}

// LatestStakedValue returns the amount of the last checkpoint, or zero.
func (s *StakerInfo) LatestStakedValue() *big.Int {
	if len(s.Stakes) == 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(s.Stakes[len(s.Stakes)-1].Staked)
}

// StakedAt returns the amount staked in era.
func (s *StakerInfo) StakedAt(era types.EraIndex) *big.Int {
	staked := new(big.Int)
	for _, es := range s.Stakes {
		if es.Era > era {
			break
		}
		staked.Set(es.Staked)
	}
	return staked
}

// OldestEra returns the era of the first checkpoint.
func (s *StakerInfo) OldestEra() (types.EraIndex, bool) {
	if len(s.Stakes) == 0 {
		return 0, false
	}
	return s.Stakes[0].Era, true
}

// Stake adds amount from era on.
func (s *StakerInfo) Stake(era types.EraIndex, amount *big.Int) error {
	return s.update(era, func(latest *big.Int) (*big.Int, error) {
		return new(big.Int).Add(latest, amount), nil
	})
}

// Unstake removes amount from era on. Unstaking more than the latest value is an invariant violation.
func (s *StakerInfo) Unstake(era types.EraIndex, amount *big.Int) error {
	return s.update(era, func(latest *big.Int) (*big.Int, error) {
		if latest.Cmp(amount) < 0 {
			return nil, errors.Wrapf(ErrInvariantViolation, "unstake %s exceeds staked %s", amount, latest)
		}
		return new(big.Int).Sub(latest, amount), nil
	})
}

func (s *StakerInfo) update(era types.EraIndex, fn func(latest *big.Int) (*big.Int, error)) error {
	latest := s.LatestStakedValue()
	value, err := fn(latest)
	if err != nil {
		return err
	}

	n := len(s.Stakes)
	switch {
	case n == 0 || s.Stakes[n-1].Era < era:
		s.Stakes = append(s.Stakes, EraStake{Era: era, Staked: value})
	case s.Stakes[n-1].Era == era:
		s.Stakes[n-1].Staked = value
	default:
		return errors.Wrapf(ErrInvariantViolation, "stake change at era %d before checkpoint era %d", era, s.Stakes[n-1].Era)
	}
	s.normalize()
	return nil
}

// Claim pops the oldest checkpoint era and its amount. The amount carries over to the
// following era unless a checkpoint already starts there.
func (s *StakerInfo) Claim() (types.EraIndex, *big.Int) {
	if len(s.Stakes) == 0 {
		return 0, new(big.Int)
	}
	first := s.Stakes[0]
	if len(s.Stakes) == 1 || s.Stakes[1].Era > first.Era+1 {
		s.Stakes[0] = EraStake{Era: first.Era + 1, Staked: first.Staked}
	} else {
		s.Stakes = s.Stakes[1:]
	}
	s.normalize()
	return first.Era, new(big.Int).Set(first.Staked)
}

// normalize drops leading zero checkpoints and checkpoints repeating their predecessor.
func (s *StakerInfo) normalize() {
	for len(s.Stakes) > 0 && s.Stakes[0].Staked.Sign() == 0 {
		s.Stakes = s.Stakes[1:]
	}
	out := s.Stakes[:0]
	for i, es := range s.Stakes {
		if i > 0 && out[len(out)-1].Staked.Cmp(es.Staked) == 0 {
			continue
		}
		out = append(out, es)
	}
	s.Stakes = out
	if len(s.Stakes) == 0 {
		s.Stakes = nil
	}
}

// Validate checks ordering and minimality.
func (s *StakerInfo) Validate() error {
	for i, es := range s.Stakes {
		if es.Staked == nil || es.Staked.Sign() < 0 {
			return errors.Wrapf(ErrInvariantViolation, "checkpoint %d has no valid stake", i)
		}
		if i == 0 {
			if es.Staked.Sign() == 0 {
				return errors.Wrap(ErrInvariantViolation, "leading zero checkpoint")
			}
			continue
		}
		prev := s.Stakes[i-1]
		if prev.Era >= es.Era {
			return errors.Wrapf(ErrInvariantViolation, "checkpoint eras not increasing: %d then %d", prev.Era, es.Era)
		}
		if prev.Staked.Cmp(es.Staked) == 0 {
			return errors.Wrapf(ErrInvariantViolation, "checkpoints %d and %d repeat %s", i-1, i, es.Staked)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (s *StakerInfo) Clone() *StakerInfo {
	c := &StakerInfo{
		Bonus: BonusStatus{
			Period:   s.Bonus.Period,
			Stake:    types.Copy(s.Bonus.Stake),
			Eligible: s.Bonus.Eligible,
			Claimed:  s.Bonus.Claimed,
		},
	}
	if len(s.Stakes) > 0 {
		c.Stakes = make([]EraStake, len(s.Stakes))
		for i, es := range s.Stakes {
			c.Stakes[i] = EraStake{Era: es.Era, Staked: types.Copy(es.Staked)}
		}
	}
	return c
}

// AddBonusStake accounts a voting subperiod stake towards the bonus of period.
func (s *StakerInfo) AddBonusStake(period types.PeriodNumber, amount *big.Int) {
	if s.Bonus.Period != period || s.Bonus.Stake == nil {
		s.Bonus = BonusStatus{Period: period, Stake: new(big.Int), Eligible: true}
	}
	s.Bonus.Stake = new(big.Int).Add(s.Bonus.Stake, amount)
}

// ReduceBonusStake applies an unstake of period to the bonus. A stake reduced to zero during
// build&earn loses eligibility. It returns the amount removed from the bonus stake.
func (s *StakerInfo) ReduceBonusStake(period types.PeriodNumber, voting bool) *big.Int {
	if s.Bonus.Period != period || !s.Bonus.Eligible || s.Bonus.Stake == nil {
		return new(big.Int)
	}
	latest := s.LatestStakedValue()
	if !voting && latest.Sign() == 0 {
		removed := s.Bonus.Stake
		s.Bonus.Stake = new(big.Int)
		s.Bonus.Eligible = false
		return removed
	}
	if latest.Cmp(s.Bonus.Stake) >= 0 {
		return new(big.Int)
	}
	removed := new(big.Int).Sub(s.Bonus.Stake, latest)
	s.Bonus.Stake = latest
	return removed
}
