// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/vechain/dappstaking/types"
)

type Key interface {
	Bytes() []byte
}

// Mapping is a key/value storage abstraction, each entry lives at blake2b(key, basePos).
type Mapping[K Key, V any] struct {
	context *Context
	basePos types.Bytes32
}

func NewMapping[K Key, V any](context *Context, pos types.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) types.Bytes32 {
	return types.Blake2b(key.Bytes(), m.basePos.Bytes())
}

// Get returns the value of key, or the zero value if absent.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	value, _, err = decodeSlot[V](m.context, m.position(key))
	return
}

// Lookup returns the value of key and whether it is present.
func (m *Mapping[K, V]) Lookup(key K) (V, bool, error) {
	return decodeSlot[V](m.context, m.position(key))
}

func (m *Mapping[K, V]) Set(key K, value V) error {
	return encodeSlot(m.context, m.position(key), value)
}

func (m *Mapping[K, V]) Delete(key K) {
	m.context.touch(true, 0)
	m.context.state.SetRawStorage(m.context.address, m.position(key), nil)
}

// CompositeKey joins several keys into one mapping key.
type CompositeKey []Key

func (c CompositeKey) Bytes() []byte {
	var out []byte
	for _, k := range c {
		out = append(out, k.Bytes()...)
	}
	return out
}
