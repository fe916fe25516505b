// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/types"
)

// LinkedList is a persisted doubly linked list of addresses in insertion order.
type LinkedList struct {
	head  *Address
	tail  *Address
	count *Uint256
	next  *Mapping[types.Address, types.Address]
	prev  *Mapping[types.Address, types.Address]
}

// NewLinkedList creates a list whose slots derive from the given name and owner.
// A zero owner gives a global list.
func NewLinkedList(ctx *Context, name string, owner types.Address) *LinkedList {
	pos := func(field string) types.Bytes32 {
		return types.Blake2b([]byte(name), []byte(field), owner.Bytes())
	}
	return &LinkedList{
		head:  NewAddress(ctx, pos("head")),
		tail:  NewAddress(ctx, pos("tail")),
		count: NewUint256(ctx, pos("count")),
		next:  NewMapping[types.Address, types.Address](ctx, pos("next")),
		prev:  NewMapping[types.Address, types.Address](ctx, pos("prev")),
	}
}

// Add appends an address to the end of the list.
func (l *LinkedList) Add(address types.Address) error {
	if address.IsZero() {
		return errors.New("zero address can not be listed")
	}
	oldTail, err := l.tail.Get()
	if err != nil {
		return err
	}

	if oldTail.IsZero() {
		// the list is currently empty, set this entry to head & tail
		l.head.Set(&address)
		l.tail.Set(&address)
		return l.count.Add(big.NewInt(1))
	}

	if err := l.next.Set(oldTail, address); err != nil {
		return err
	}
	if err := l.prev.Set(address, oldTail); err != nil {
		return err
	}
	l.tail.Set(&address)

	return l.count.Add(big.NewInt(1))
}

// Contains reports whether address is in the list.
func (l *LinkedList) Contains(address types.Address) (bool, error) {
	if address.IsZero() {
		return false, nil
	}
	prev, err := l.prev.Get(address)
	if err != nil {
		return false, err
	}
	if !prev.IsZero() {
		return true, nil
	}
	head, err := l.head.Get()
	if err != nil {
		return false, err
	}
	return head == address, nil
}

// Remove unlinks an address from anywhere in the list, a missing address is ignored.
func (l *LinkedList) Remove(address types.Address) error {
	listed, err := l.Contains(address)
	if err != nil || !listed {
		return err
	}

	prev, err := l.prev.Get(address)
	if err != nil {
		return err
	}
	next, err := l.next.Get(address)
	if err != nil {
		return err
	}

	if !prev.IsZero() {
		if err := l.next.Set(prev, next); err != nil {
			return err
		}
	} else {
		l.head.Set(&next)
	}

	if !next.IsZero() {
		if err := l.prev.Set(next, prev); err != nil {
			return err
		}
	} else {
		l.tail.Set(&prev)
	}

	l.next.Delete(address)
	l.prev.Delete(address)

	return l.count.Sub(big.NewInt(1))
}

// Head returns the oldest address, zero if the list is empty.
func (l *LinkedList) Head() (types.Address, error) {
	return l.head.Get()
}

// Next returns the successor address in the list, or zero address if at the end.
func (l *LinkedList) Next(address types.Address) (types.Address, error) {
	return l.next.Get(address)
}

// Len returns the number of listed addresses.
func (l *LinkedList) Len() (uint64, error) {
	n, err := l.count.Get()
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Iter traverses the list in insertion order until completion or error.
// The callback may remove the visited address.
func (l *LinkedList) Iter(callback func(types.Address) error) error {
	ptr, err := l.head.Get()
	if err != nil {
		return err
	}

	for !ptr.IsZero() {
		next, err := l.next.Get(ptr)
		if err != nil {
			return err
		}
		if err := callback(ptr); err != nil {
			return err
		}
		ptr = next
	}
	return nil
}

// Values returns all listed addresses.
func (l *LinkedList) Values() ([]types.Address, error) {
	var out []types.Address
	err := l.Iter(func(a types.Address) error {
		out = append(out, a)
		return nil
	})
	return out, err
}
