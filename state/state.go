// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/dappstaking/cache"
	"github.com/vechain/dappstaking/kv"
	"github.com/vechain/dappstaking/stackedmap"
	"github.com/vechain/dappstaking/types"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying failure.
func (e *Error) Unwrap() error { return e.cause }

type storageKey struct {
	space types.Address
	key   types.Bytes32
}

func (k storageKey) dbKey() []byte {
	b := make([]byte, 0, len(k.space)+len(k.key))
	return append(append(b, k.space[:]...), k.key[:]...)
}

// State manages slots on top of a kv store.
// Changes are kept in memory until Commit.
type State struct {
	store kv.Store
	cache *cache.LRU[storageKey, rlp.RawValue] // committed values
	sm    *stackedmap.StackedMap[storageKey, rlp.RawValue]
}

// slotCacheSize bounds the committed slots kept in memory.
var slotCacheSize = 1 << 16

// New create state object.
func New(store kv.Store) *State {
	slots, err := cache.NewLRU[storageKey, rlp.RawValue](slotCacheSize)
	if err != nil {
		panic(err)
	}
	s := &State{
		store: store,
		cache: slots,
	}
	s.reset()
	return s
}

func (s *State) reset() {
	s.sm = stackedmap.New(s.cacheGetter)
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key storageKey) (rlp.RawValue, bool, error) {
	if v, ok := s.cache.Get(key); ok {
		return v, true, nil
	}
	v, err := kv.GetOptional(s.store, key.dbKey())
	if err != nil {
		return nil, false, err
	}
	metricSlotCounter().AddWithLabel(1, map[string]string{"type": "load"})
	s.cache.Add(key, v)
	return v, true, nil
}

// GetRawStorage returns storage value in rlp raw for given space and key.
func (s *State) GetRawStorage(space types.Address, key types.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{space, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw. Empty raw deletes the slot.
func (s *State) SetRawStorage(space types.Address, key types.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{space, key}, raw)
}

// GetStorage returns storage value for the given space and key.
func (s *State) GetStorage(space types.Address, key types.Bytes32) (types.Bytes32, error) {
	raw, err := s.GetRawStorage(space, key)
	if err != nil {
		return types.Bytes32{}, err
	}
	if len(raw) == 0 {
		return types.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return types.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// customized storage value, return hash of raw data
		return types.Blake2b(raw), nil
	}
	return types.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given space and key.
func (s *State) SetStorage(space types.Address, key, value types.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(space, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(space, key, v)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeStorage(space types.Address, key types.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(space, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(space types.Address, key types.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(space, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Stage collects the latest value of every slot changed since the last commit.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey]rlp.RawValue)
	s.sm.Journal(func(k storageKey, v rlp.RawValue) bool {
		changes[k] = v
		return true
	})
	return &Stage{state: s, changes: changes}
}

// Commit writes all pending changes to the store in one bulk.
func (s *State) Commit() error {
	return s.Stage().Commit()
}
