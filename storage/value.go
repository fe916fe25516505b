// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/dappstaking/types"
)

// Value is a single rlp encoded slot.
type Value[V any] struct {
	context *Context
	pos     types.Bytes32
}

func NewValue[V any](context *Context, pos types.Bytes32) *Value[V] {
	return &Value[V]{context: context, pos: pos}
}

// Get returns the stored value, or the zero value if the slot is empty.
func (v *Value[V]) Get() (value V, err error) {
	value, _, err = decodeSlot[V](v.context, v.pos)
	return
}

// Exists reports whether the slot holds a value.
func (v *Value[V]) Exists() (bool, error) {
	raw, err := v.context.state.GetRawStorage(v.context.address, v.pos)
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

func (v *Value[V]) Set(value V) error {
	return encodeSlot(v.context, v.pos, value)
}

func (v *Value[V]) Delete() {
	v.context.state.SetRawStorage(v.context.address, v.pos, nil)
}

func decodeSlot[V any](ctx *Context, pos types.Bytes32) (value V, found bool, err error) {
	err = ctx.state.DecodeStorage(ctx.address, pos, func(raw []byte) error {
		ctx.touch(false, len(raw))
		if len(raw) == 0 {
			return nil
		}
		found = true
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

func encodeSlot[V any](ctx *Context, pos types.Bytes32, value V) error {
	return ctx.state.EncodeStorage(ctx.address, pos, func() ([]byte, error) {
		val, err := rlp.EncodeToBytes(value)
		if err != nil {
			return nil, err
		}
		ctx.touch(true, len(val))
		return val, nil
	})
}

// Uint256 is a wrapper for storage and retrieval of an unsigned integer up to 256 bits.
// Larger values are truncated to fit into types.Bytes32.
type Uint256 struct {
	context *Context
	pos     types.Bytes32
}

func NewUint256(context *Context, pos types.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: pos}
}

func (u *Uint256) Get() (*big.Int, error) {
	u.context.touch(false, 32)
	storage, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(storage.Bytes()), nil
}

func (u *Uint256) Set(value *big.Int) {
	u.context.touch(true, 32)
	u.context.state.SetStorage(u.context.address, u.pos, types.BytesToBytes32(value.Bytes()))
}

func (u *Uint256) Add(value *big.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	u.Set(storage.Add(storage, value))
	return nil
}

// Sub subtracts value, saturating at zero.
func (u *Uint256) Sub(value *big.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	u.Set(types.SaturatingSub(storage, value))
	return nil
}

// Address is a wrapper for storage and retrieval of an address.
type Address struct {
	context *Context
	pos     types.Bytes32
}

func NewAddress(context *Context, pos types.Bytes32) *Address {
	return &Address{context: context, pos: pos}
}

func (a *Address) Get() (types.Address, error) {
	a.context.touch(false, 32)
	storage, err := a.context.state.GetStorage(a.context.address, a.pos)
	if err != nil {
		return types.Address{}, err
	}
	return types.BytesToAddress(storage.Bytes()), nil
}

// Set stores addr, a nil addr clears the slot.
func (a *Address) Set(addr *types.Address) {
	var storage types.Bytes32
	if addr != nil {
		storage = types.BytesToBytes32(addr.Bytes())
	}
	a.context.touch(true, 32)
	a.context.state.SetStorage(a.context.address, a.pos, storage)
}
