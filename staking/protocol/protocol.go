// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package protocol implements the era and period clock.
//
// A period is one voting era, spanning the length of several regular eras, followed by a
// fixed number of build&earn eras. Eras advance by exactly one at a time.
package protocol

import (
	"fmt"
	"math/big"

	"github.com/vechain/dappstaking/types"
)

type Subperiod uint8

const (
	Voting Subperiod = iota
	BuildAndEarn
)

func (s Subperiod) String() string {
	switch s {
	case Voting:
		return "Voting"
	case BuildAndEarn:
		return "BuildAndEarn"
	default:
		return fmt.Sprintf("Subperiod(%d)", uint8(s))
	}
}

// ForcingType selects what a forced transition ends.
type ForcingType uint8

const (
	ForceNone ForcingType = iota
	// ForceEra ends the current era.
	ForceEra
	// ForceSubperiod ends the current subperiod.
	ForceSubperiod
)

func (f ForcingType) String() string {
	switch f {
	case ForceNone:
		return "None"
	case ForceEra:
		return "Era"
	case ForceSubperiod:
		return "Subperiod"
	default:
		return fmt.Sprintf("ForcingType(%d)", uint8(f))
	}
}

// PeriodInfo locates the current subperiod.
type PeriodInfo struct {
	Number                types.PeriodNumber
	Subperiod             Subperiod
	NextSubperiodStartEra types.EraIndex
}

// ProtocolState is the clock of the protocol.
type ProtocolState struct {
	Era          types.EraIndex
	NextEraStart types.BlockNumber
	Period       PeriodInfo
	LastBlock    types.BlockNumber
	Maintenance  bool
}

// Lengths configures the clock.
type Lengths struct {
	BlocksPerEra                 uint32
	ErasPerVotingSubperiod       uint32
	ErasPerBuildAndEarnSubperiod uint32
}

func (l Lengths) votingBlocks() types.BlockNumber {
	return types.BlockNumber(l.ErasPerVotingSubperiod * l.BlocksPerEra)
}

// Genesis returns the clock state at the given block: era 0 of period 1, voting.
func Genesis(block types.BlockNumber, l Lengths) ProtocolState {
	return ProtocolState{
		Era:          0,
		NextEraStart: block + l.votingBlocks(),
		Period: PeriodInfo{
			Number:                1,
			Subperiod:             Voting,
			NextSubperiodStartEra: 1,
		},
		LastBlock: block,
	}
}

// IsNewEra reports whether the current era has ended at block now.
func (p *ProtocolState) IsNewEra(now types.BlockNumber) bool {
	return now >= p.NextEraStart
}

// SubperiodEndBlock estimates the block at which the current subperiod ends.
func (p *ProtocolState) SubperiodEndBlock(blocksPerEra uint32) types.BlockNumber {
	if p.Period.NextSubperiodStartEra <= p.Era+1 {
		return p.NextEraStart
	}
	remaining := uint32(p.Period.NextSubperiodStartEra - p.Era - 1)
	return p.NextEraStart + types.BlockNumber(remaining*blocksPerEra)
}

// Transition describes one era change.
type Transition struct {
	ClosedEra       types.EraIndex
	ClosedPeriod    types.PeriodNumber
	ClosedSubperiod Subperiod
	// SubperiodChanged is set when the closing era was the last of its subperiod.
	SubperiodChanged bool
	// PeriodEnded is set when build&earn ended and a new period started.
	PeriodEnded bool
}

// Advance moves the clock to the next era at block now.
func (p *ProtocolState) Advance(now types.BlockNumber, force ForcingType, l Lengths) Transition {
	t := Transition{
		ClosedEra:       p.Era,
		ClosedPeriod:    p.Period.Number,
		ClosedSubperiod: p.Period.Subperiod,
	}
	next := p.Era + 1

	switch p.Period.Subperiod {
	case Voting:
		// the voting subperiod is a single era
		p.Period.Subperiod = BuildAndEarn
		p.Period.NextSubperiodStartEra = next + types.EraIndex(l.ErasPerBuildAndEarnSubperiod)
		p.NextEraStart = now + types.BlockNumber(l.BlocksPerEra)
		t.SubperiodChanged = true
	case BuildAndEarn:
		if next >= p.Period.NextSubperiodStartEra || force == ForceSubperiod {
			p.Period.Number++
			p.Period.Subperiod = Voting
			p.Period.NextSubperiodStartEra = next + 1
			p.NextEraStart = now + l.votingBlocks()
			t.SubperiodChanged = true
			t.PeriodEnded = true
		} else {
			p.NextEraStart = now + types.BlockNumber(l.BlocksPerEra)
		}
	}
	p.Era = next
	return t
}

// PeriodEndInfo is what the bonus rewards of a finished period are computed from.
type PeriodEndInfo struct {
	BonusRewardPool  *big.Int
	TotalVotingStake *big.Int
	FinalEra         types.EraIndex
}
