// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"sort"

	"github.com/vechain/dappstaking/types"
)

// UnlockingChunk is an amount that can be claimed back once UnlockEra is reached.
type UnlockingChunk struct {
	Amount    *big.Int
	UnlockEra types.EraIndex
}

// UnbondingInfo is a list of chunks ordered by unlock era, at most one chunk per era.
type UnbondingInfo struct {
	Chunks []UnlockingChunk
}

func (u *UnbondingInfo) Len() int {
	return len(u.Chunks)
}

func (u *UnbondingInfo) IsEmpty() bool {
	return len(u.Chunks) == 0
}

// Sum returns the total amount of all chunks.
func (u *UnbondingInfo) Sum() *big.Int {
	sum := new(big.Int)
	for _, c := range u.Chunks {
		sum.Add(sum, c.Amount)
	}
	return sum
}

// Add merges the chunk into the chunk of the same era, or inserts it in order.
func (u *UnbondingInfo) Add(chunk UnlockingChunk) {
	i := sort.Search(len(u.Chunks), func(i int) bool {
		return u.Chunks[i].UnlockEra >= chunk.UnlockEra
	})
	if i < len(u.Chunks) && u.Chunks[i].UnlockEra == chunk.UnlockEra {
		u.Chunks[i].Amount = new(big.Int).Add(u.Chunks[i].Amount, chunk.Amount)
		return
	}
	amount := new(big.Int).Set(chunk.Amount)
	u.Chunks = append(u.Chunks, UnlockingChunk{})
	copy(u.Chunks[i+1:], u.Chunks[i:])
	u.Chunks[i] = UnlockingChunk{Amount: amount, UnlockEra: chunk.UnlockEra}
}

// Partition splits the chunks into those unlocked at era and those still locked.
func (u *UnbondingInfo) Partition(era types.EraIndex) (claimable, remaining UnbondingInfo) {
	for _, c := range u.Chunks {
		if c.UnlockEra <= era {
			claimable.Chunks = append(claimable.Chunks, c)
		} else {
			remaining.Chunks = append(remaining.Chunks, c)
		}
	}
	return claimable, remaining
}

func (u *UnbondingInfo) Clone() UnbondingInfo {
	var c UnbondingInfo
	for _, chunk := range u.Chunks {
		c.Chunks = append(c.Chunks, UnlockingChunk{Amount: types.Copy(chunk.Amount), UnlockEra: chunk.UnlockEra})
	}
	return c
}
