// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package perthing

import (
	"math/big"
)

// Perbill is a fraction of one expressed in parts per 10^9.
type Perbill uint32

// PerbillFromPercent creates a fraction from a whole percentage, saturating at 100.
func PerbillFromPercent(percent uint64) Perbill {
	return Perbill(fromPercent(percent, perbillAccuracy))
}

// PerbillFromRational returns p/q rounded down, or one when p >= q or q is zero.
func PerbillFromRational(p, q *big.Int) Perbill {
	return Perbill(fromRational(p, q, perbillAccuracy))
}

func PerbillOne() Perbill { return perbillAccuracy }

func (p Perbill) Parts() uint64  { return uint64(p) }
func (p Perbill) IsZero() bool   { return p == 0 }
func (p Perbill) String() string { return formatPercent(uint64(p), perbillAccuracy) }

// Mul applies the fraction to a balance, rounding to nearest with ties down.
func (p Perbill) Mul(v *big.Int) *big.Int {
	return mulBalance(v, uint64(p), perbillAccuracy)
}
