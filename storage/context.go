// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package storage provides typed slots over a state space: single values, mappings and linked lists.
package storage

import (
	"github.com/vechain/dappstaking/state"
	"github.com/vechain/dappstaking/types"
)

// AccessFunc is notified of every slot access with the count of 32 bytes words touched.
type AccessFunc func(write bool, words uint64)

// Context binds storage primitives to a space of the state.
type Context struct {
	address types.Address
	state   *state.State
	access  AccessFunc
}

func NewContext(address types.Address, state *state.State, access AccessFunc) *Context {
	return &Context{
		address: address,
		state:   state,
		access:  access,
	}
}

func (c *Context) State() *state.State {
	return c.state
}

func (c *Context) Address() types.Address {
	return c.address
}

func (c *Context) touch(write bool, length int) {
	if c.access != nil {
		c.access(write, toWordSize(length))
	}
}

// toWordSize converts bytes length to 32 bytes words, at least one.
func toWordSize(length int) uint64 {
	if length <= 32 {
		return 1
	}
	return (uint64(length) + 31) / 32
}

// Slot derives a slot position from a name.
func Slot(name string) types.Bytes32 {
	return types.BytesToBytes32([]byte(name))
}
