// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package perthing

import (
	"math/big"
)

// Perquintill is a fraction of one expressed in parts per 10^18.
type Perquintill uint64

// PerquintillFromPercent creates a fraction from a whole percentage, saturating at 100.
func PerquintillFromPercent(percent uint64) Perquintill {
	return Perquintill(fromPercent(percent, perquintillAccuracy))
}

// PerquintillFromParts creates a fraction from raw parts, saturating at one.
func PerquintillFromParts(parts uint64) Perquintill {
	return Perquintill(min(parts, perquintillAccuracy))
}

// PerquintillFromRational returns p/q rounded down, or one when p >= q or q is zero.
func PerquintillFromRational(p, q *big.Int) Perquintill {
	return Perquintill(fromRational(p, q, perquintillAccuracy))
}

func PerquintillOne() Perquintill { return perquintillAccuracy }

func (p Perquintill) Parts() uint64  { return uint64(p) }
func (p Perquintill) IsZero() bool   { return p == 0 }
func (p Perquintill) IsOne() bool    { return p == perquintillAccuracy }
func (p Perquintill) String() string { return formatPercent(uint64(p), perquintillAccuracy) }

// Mul applies the fraction to a balance, rounding to nearest with ties down.
func (p Perquintill) Mul(v *big.Int) *big.Int {
	return mulBalance(v, uint64(p), perquintillAccuracy)
}

// MulFrac multiplies two fractions.
func (p Perquintill) MulFrac(o Perquintill) Perquintill {
	return Perquintill(mulParts(uint64(p), uint64(o), perquintillAccuracy))
}

// Div returns p/o saturating at one. Division by zero yields one.
func (p Perquintill) Div(o Perquintill) Perquintill {
	return Perquintill(fromRational(new(big.Int).SetUint64(uint64(p)), new(big.Int).SetUint64(uint64(o)), perquintillAccuracy))
}

// CheckedAdd adds two fractions, failing when the sum exceeds one.
func (p Perquintill) CheckedAdd(o Perquintill) (Perquintill, bool) {
	sum, ok := checkedAdd(uint64(p), uint64(o), perquintillAccuracy)
	return Perquintill(sum), ok
}

func (p Perquintill) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Perquintill) UnmarshalText(text []byte) error {
	parts, err := parseFraction(string(text), perquintillAccuracy)
	if err != nil {
		return err
	}
	*p = Perquintill(parts)
	return nil
}
