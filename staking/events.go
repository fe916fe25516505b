// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/event"

	"github.com/vechain/dappstaking/staking/protocol"
	"github.com/vechain/dappstaking/types"
)

type EventKind uint8

const (
	EventLocked EventKind = iota + 1
	EventUnlocking
	EventClaimedUnlocked
	EventRelock
	EventStake
	EventUnstake
	EventUnstakeFromUnregistered
	EventStakeMoved
	EventReward
	EventDAppReward
	EventBonusReward
	EventStaleRewardBurned
	EventDAppRegistered
	EventDAppUnregistered
	EventDAppOwnerChanged
	EventDAppRewardDestinationUpdated
	EventRewardDestination
	EventEraChanged
	EventPeriodChanged
	EventMaintenanceMode
	EventForce
)

var eventNames = map[EventKind]string{
	EventLocked:                       "Locked",
	EventUnlocking:                    "Unlocking",
	EventClaimedUnlocked:              "ClaimedUnlocked",
	EventRelock:                       "Relock",
	EventStake:                        "Stake",
	EventUnstake:                      "Unstake",
	EventUnstakeFromUnregistered:      "UnstakeFromUnregistered",
	EventStakeMoved:                   "StakeMoved",
	EventReward:                       "Reward",
	EventDAppReward:                   "DAppReward",
	EventBonusReward:                  "BonusReward",
	EventStaleRewardBurned:            "StaleRewardBurned",
	EventDAppRegistered:               "DAppRegistered",
	EventDAppUnregistered:             "DAppUnregistered",
	EventDAppOwnerChanged:             "DAppOwnerChanged",
	EventDAppRewardDestinationUpdated: "DAppRewardDestinationUpdated",
	EventRewardDestination:            "RewardDestination",
	EventEraChanged:                   "EraChanged",
	EventPeriodChanged:                "PeriodChanged",
	EventMaintenanceMode:              "MaintenanceMode",
	EventForce:                        "Force",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// ParseEventKind returns the kind with the given name.
func ParseEventKind(name string) (EventKind, bool) {
	for k, n := range eventNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(text []byte) error {
	kind, ok := ParseEventKind(string(text))
	if !ok {
		return fmt.Errorf("unknown event kind %q", text)
	}
	*k = kind
	return nil
}

// Event is a notification of a committed state change.
// Fields not relevant to the kind are left zero. Amount is never nil.
type Event struct {
	Kind     EventKind          `json:"kind"`
	Block    types.BlockNumber  `json:"block"`
	Era      types.EraIndex     `json:"era"`
	Period   types.PeriodNumber `json:"period"`
	Account  types.Address      `json:"account"`
	Contract types.Address      `json:"contract"`
	Amount   *big.Int           `json:"amount"`
	// Detail carries the kind specific value: the subperiod, the forcing type, the reward
	// destination or the maintenance flag.
	Detail string `json:"detail,omitempty"`
}

func (e *Event) String() string {
	return fmt.Sprintf("%s(block=%d era=%d account=%s contract=%s amount=%s %s)",
		e.Kind, e.Block, e.Era, e.Account, e.Contract, e.Amount, e.Detail)
}

// events collects the events of one transaction.
type events struct {
	feed  event.Feed
	scope event.SubscriptionScope

	pending []*Event
}

func (ev *events) emit(ps *protocol.ProtocolState, kind EventKind, account, contract types.Address, amount *big.Int) *Event {
	if amount == nil {
		amount = new(big.Int)
	}
	e := &Event{
		Kind:     kind,
		Block:    ps.LastBlock,
		Era:      ps.Era,
		Period:   ps.Period.Number,
		Account:  account,
		Contract: contract,
		Amount:   new(big.Int).Set(amount),
	}
	ev.pending = append(ev.pending, e)
	return e
}

func (ev *events) take() []*Event {
	taken := ev.pending
	ev.pending = nil
	return taken
}

func (ev *events) discard() {
	ev.pending = nil
}

// SubscribeEvents delivers the events of every committed transaction to ch, one batch per transaction.
func (e *Engine) SubscribeEvents(ch chan<- []*Event) event.Subscription {
	return e.events.scope.Track(e.events.feed.Subscribe(ch))
}
