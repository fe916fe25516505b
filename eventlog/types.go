// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventlog

import (
	"github.com/vechain/dappstaking/staking"
	"github.com/vechain/dappstaking/types"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Filter selects stored events. Nil fields match everything.
type Filter struct {
	Kind     *staking.EventKind
	Account  *types.Address
	Contract *types.Address
	FromEra  *types.EraIndex
	ToEra    *types.EraIndex
	Order    Order
	Offset   uint64
	Limit    uint64 // zero means no limit
}

// Record is a stored event with its position in the log.
type Record struct {
	Seq uint64 `json:"seq"`
	*staking.Event
}
