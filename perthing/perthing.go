// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package perthing implements fixed-point fractions of one (parts per million, billion and
// quintillion) and an unsigned fixed-point price. Products with balances are computed on
// 256-bit integers.
package perthing

import (
	"math/big"

	"github.com/holiman/uint256"
)

const (
	permillAccuracy     = 1_000_000
	perbillAccuracy     = 1_000_000_000
	perquintillAccuracy = 1_000_000_000_000_000_000
)

// fromRational returns floor(p * acc / q), saturating at acc when p >= q or q is zero.
func fromRational(p, q *big.Int, acc uint64) uint64 {
	if q.Sign() <= 0 || p.Cmp(q) >= 0 {
		return acc
	}
	if p.Sign() <= 0 {
		return 0
	}
	x, overflowP := uint256.FromBig(p)
	d, overflowQ := uint256.FromBig(q)
	if overflowP || overflowQ {
		n := new(big.Int).Mul(p, new(big.Int).SetUint64(acc))
		return n.Quo(n, q).Uint64()
	}
	z, _ := new(uint256.Int).MulDivOverflow(x, uint256.NewInt(acc), d)
	return z.Uint64()
}

// mulRound returns x * parts / acc rounded to the nearest integer, ties rounded down.
func mulRound(x *uint256.Int, parts, acc uint64) *uint256.Int {
	p := uint256.NewInt(parts)
	d := uint256.NewInt(acc)
	z, _ := new(uint256.Int).MulDivOverflow(x, p, d)
	rem := new(uint256.Int).MulMod(x, p, d)
	if new(uint256.Int).Lsh(rem, 1).Gt(d) {
		z.AddUint64(z, 1)
	}
	return z
}

// mulBalance applies parts/acc to a balance.
func mulBalance(v *big.Int, parts, acc uint64) *big.Int {
	if v == nil || v.Sign() <= 0 || parts == 0 {
		return new(big.Int)
	}
	if parts >= acc {
		return new(big.Int).Set(v)
	}
	x, overflow := uint256.FromBig(v)
	if overflow {
		n := new(big.Int).Mul(v, new(big.Int).SetUint64(parts))
		dv := new(big.Int).SetUint64(acc)
		q, r := new(big.Int).QuoRem(n, dv, new(big.Int))
		if r.Lsh(r, 1).Cmp(dv) > 0 {
			q.Add(q, big.NewInt(1))
		}
		return q
	}
	return mulRound(x, parts, acc).ToBig()
}

// mulParts multiplies two fractions of the same accuracy.
func mulParts(a, b, acc uint64) uint64 {
	return mulRound(uint256.NewInt(a), b, acc).Uint64()
}

func fromPercent(percent, acc uint64) uint64 {
	if percent >= 100 {
		return acc
	}
	return percent * (acc / 100)
}

func checkedAdd(a, b, acc uint64) (uint64, bool) {
	if a > acc || b > acc-a {
		return 0, false
	}
	return a + b, true
}
