// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"math"
	"net/http"
	"net/url"

	ethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/api/utils"
	"github.com/vechain/dappstaking/eventlog"
	"github.com/vechain/dappstaking/staking"
	"github.com/vechain/dappstaking/types"
)

type Events struct {
	db    *eventlog.EventLog
	limit uint64
}

func New(db *eventlog.EventLog, limit uint64) *Events {
	return &Events{db, limit}
}

// FilteredEvent is a stored event as served over http.
type FilteredEvent struct {
	Seq      uint64                   `json:"seq"`
	Kind     string                   `json:"kind"`
	Block    types.BlockNumber        `json:"block"`
	Era      types.EraIndex           `json:"era"`
	Period   types.PeriodNumber       `json:"period"`
	Account  *types.Address           `json:"account,omitempty"`
	Contract *types.Address           `json:"contract,omitempty"`
	Amount   *ethmath.HexOrDecimal256 `json:"amount"`
	Detail   string                   `json:"detail,omitempty"`
}

func convertRecord(r *eventlog.Record) *FilteredEvent {
	fe := &FilteredEvent{
		Seq:    r.Seq,
		Kind:   r.Kind.String(),
		Block:  r.Block,
		Era:    r.Era,
		Period: r.Period,
		Amount: (*ethmath.HexOrDecimal256)(r.Amount),
		Detail: r.Detail,
	}
	if !r.Account.IsZero() {
		account := r.Account
		fe.Account = &account
	}
	if !r.Contract.IsZero() {
		contract := r.Contract
		fe.Contract = &contract
	}
	return fe
}

func parseFilter(query url.Values) (*eventlog.Filter, error) {
	filter := &eventlog.Filter{}
	if v := query.Get("kind"); v != "" {
		kind, ok := staking.ParseEventKind(v)
		if !ok {
			return nil, utils.BadRequest(errors.Errorf("kind: unknown event kind %q", v))
		}
		filter.Kind = &kind
	}
	if v := query.Get("account"); v != "" {
		account, err := utils.ParseAddress("account", v)
		if err != nil {
			return nil, err
		}
		filter.Account = &account
	}
	if v := query.Get("contract"); v != "" {
		contract, err := utils.ParseAddress("contract", v)
		if err != nil {
			return nil, err
		}
		filter.Contract = &contract
	}
	if v := query.Get("fromEra"); v != "" {
		era, err := utils.ParseUint32("fromEra", v)
		if err != nil {
			return nil, err
		}
		from := types.EraIndex(era)
		filter.FromEra = &from
	}
	if v := query.Get("toEra"); v != "" {
		era, err := utils.ParseUint32("toEra", v)
		if err != nil {
			return nil, err
		}
		to := types.EraIndex(era)
		filter.ToEra = &to
	}
	if filter.FromEra != nil && filter.ToEra != nil && *filter.FromEra > *filter.ToEra {
		return nil, utils.BadRequest(errors.New("toEra must be greater than or equal to fromEra"))
	}
	switch query.Get("order") {
	case "", "asc":
		filter.Order = eventlog.ASC
	case "desc":
		filter.Order = eventlog.DESC
	default:
		return nil, utils.BadRequest(errors.New("order: must be asc or desc"))
	}
	if v := query.Get("offset"); v != "" {
		offset, err := utils.ParseUint64("offset", v)
		if err != nil {
			return nil, err
		}
		if offset > math.MaxInt64 {
			return nil, utils.BadRequest(fmt.Errorf("offset exceeds the maximum allowed value of %d", int64(math.MaxInt64)))
		}
		filter.Offset = offset
	}
	if v := query.Get("limit"); v != "" {
		limit, err := utils.ParseUint64("limit", v)
		if err != nil {
			return nil, err
		}
		filter.Limit = limit
	}
	return filter, nil
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	filter, err := parseFilter(req.URL.Query())
	if err != nil {
		return err
	}
	if filter.Limit > e.limit {
		return utils.Forbidden(fmt.Errorf("limit exceeds the maximum allowed value of %d", e.limit))
	}
	unpaged := filter.Limit == 0
	if unpaged {
		// one more than the cap detects an oversized result
		filter.Limit = e.limit + 1
	}

	records, err := e.db.Filter(req.Context(), filter)
	if err != nil {
		return err
	}
	if unpaged && len(records) > int(e.limit) {
		return utils.Forbidden(fmt.Errorf("the number of filtered events exceeds the maximum allowed value of %d, please use pagination", e.limit))
	}

	fes := make([]*FilteredEvent, 0, len(records))
	for _, r := range records {
		fes = append(fes, convertRecord(r))
	}
	return utils.WriteJSON(w, fes)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("events_get_filter").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
