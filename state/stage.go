// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"io"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/dappstaking/types"
)

// Stage abstracts pending changes of a state.
type Stage struct {
	state   *State
	changes map[storageKey]rlp.RawValue
}

// Len returns the count of changed slots.
func (s *Stage) Len() int {
	return len(s.changes)
}

func (s *Stage) sortedKeys() []storageKey {
	keys := make([]storageKey, 0, len(s.changes))
	for k := range s.changes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i].dbKey(), keys[j].dbKey()) < 0
	})
	return keys
}

// Hash computes the digest of the change set.
func (s *Stage) Hash() types.Bytes32 {
	return types.Blake2bFn(func(w io.Writer) {
		for _, k := range s.sortedKeys() {
			w.Write(k.dbKey())
			w.Write(s.changes[k])
		}
	})
}

// Commit writes the changes and resets the journal of the state.
func (s *Stage) Commit() error {
	if len(s.changes) > 0 {
		bulk := s.state.store.Bulk()
		for k, v := range s.changes {
			var err error
			if len(v) == 0 {
				err = bulk.Delete(k.dbKey())
			} else {
				err = bulk.Put(k.dbKey(), v)
			}
			if err != nil {
				return &Error{err}
			}
		}
		if err := bulk.Write(); err != nil {
			return &Error{err}
		}
		for k, v := range s.changes {
			if len(v) == 0 {
				s.state.cache.Remove(k)
			} else {
				s.state.cache.Add(k, v)
			}
		}
		metricSlotCounter().AddWithLabel(int64(len(s.changes)), map[string]string{"type": "commit"})
	}
	s.state.reset()
	return nil
}
