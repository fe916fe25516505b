// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/url"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/api/utils"
	"github.com/vechain/dappstaking/staking"
	"github.com/vechain/dappstaking/types"
)

// EventMessage is one committed event pushed to subscribers.
type EventMessage struct {
	Kind     string                `json:"kind"`
	Block    types.BlockNumber     `json:"block"`
	Era      types.EraIndex        `json:"era"`
	Period   types.PeriodNumber    `json:"period"`
	Account  *types.Address        `json:"account,omitempty"`
	Contract *types.Address        `json:"contract,omitempty"`
	Amount   *math.HexOrDecimal256 `json:"amount"`
	Detail   string                `json:"detail,omitempty"`
}

func convertEvent(ev *staking.Event) *EventMessage {
	msg := &EventMessage{
		Kind:   ev.Kind.String(),
		Block:  ev.Block,
		Era:    ev.Era,
		Period: ev.Period,
		Amount: (*math.HexOrDecimal256)(types.Copy(ev.Amount)),
		Detail: ev.Detail,
	}
	if !ev.Account.IsZero() {
		account := ev.Account
		msg.Account = &account
	}
	if !ev.Contract.IsZero() {
		contract := ev.Contract
		msg.Contract = &contract
	}
	return msg
}

// eventFilter selects the events a subscriber receives. Nil fields match everything.
type eventFilter struct {
	kind     *staking.EventKind
	account  *types.Address
	contract *types.Address
}

func parseEventFilter(query url.Values) (*eventFilter, error) {
	f := &eventFilter{}
	if v := query.Get("kind"); v != "" {
		kind, ok := staking.ParseEventKind(v)
		if !ok {
			return nil, utils.BadRequest(errors.Errorf("kind: unknown event kind %q", v))
		}
		f.kind = &kind
	}
	if v := query.Get("account"); v != "" {
		account, err := utils.ParseAddress("account", v)
		if err != nil {
			return nil, err
		}
		f.account = &account
	}
	if v := query.Get("contract"); v != "" {
		contract, err := utils.ParseAddress("contract", v)
		if err != nil {
			return nil, err
		}
		f.contract = &contract
	}
	return f, nil
}

func (f *eventFilter) match(ev *staking.Event) bool {
	if f.kind != nil && *f.kind != ev.Kind {
		return false
	}
	if f.account != nil && *f.account != ev.Account {
		return false
	}
	if f.contract != nil && *f.contract != ev.Contract {
		return false
	}
	return true
}
