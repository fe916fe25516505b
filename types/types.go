// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package types

import (
	"encoding/binary"
	"math/big"
)

// EraIndex identifies a reward epoch.
type EraIndex uint32

// PeriodNumber identifies a staking period, made of one voting era and a number of build&earn eras.
type PeriodNumber uint32

// BlockNumber is the host block height.
type BlockNumber uint32

// DAppID is the compact identifier assigned to a contract at registration.
type DAppID uint16

// TierID is the index of a reward tier, 0 being the highest.
type TierID uint8

// Bytes returns the big endian encoding of the era, used for storage keys.
func (e EraIndex) Bytes() []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(e))
	return b[:]
}

// Bytes returns the big endian encoding of the period, used for storage keys.
func (p PeriodNumber) Bytes() []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(p))
	return b[:]
}

// Bytes returns the big endian encoding of the id, used for storage keys.
func (id DAppID) Bytes() []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(id))
	return b[:]
}

// SaturatingSub returns e - n, or zero when n exceeds e.
func (e EraIndex) SaturatingSub(n uint32) EraIndex {
	if uint32(e) < n {
		return 0
	}
	return e - EraIndex(n)
}

// MinBalance returns the smaller of a and b.
func MinBalance(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// SaturatingSub returns a - b, or zero when b exceeds a. The result is a new value.
func SaturatingSub(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int)
	}
	return new(big.Int).Sub(a, b)
}

// Copy returns a copy of v, treating nil as zero.
func Copy(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
