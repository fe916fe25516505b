// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package perthing

import (
	"math/big"
)

// Permill is a fraction of one expressed in parts per 10^6.
type Permill uint32

// PermillFromPercent creates a fraction from a whole percentage, saturating at 100.
func PermillFromPercent(percent uint64) Permill {
	return Permill(fromPercent(percent, permillAccuracy))
}

// PermillFromParts creates a fraction from raw parts, saturating at one.
func PermillFromParts(parts uint32) Permill {
	return Permill(min(parts, permillAccuracy))
}

func PermillOne() Permill { return permillAccuracy }

func (p Permill) Parts() uint64  { return uint64(p) }
func (p Permill) IsZero() bool   { return p == 0 }
func (p Permill) String() string { return formatPercent(uint64(p), permillAccuracy) }

// Mul applies the fraction to a balance, rounding to nearest with ties down.
func (p Permill) Mul(v *big.Int) *big.Int {
	return mulBalance(v, uint64(p), permillAccuracy)
}

// MulUint applies the fraction to an integer count, rounding to nearest with ties down.
func (p Permill) MulUint(n uint64) uint64 {
	return p.Mul(new(big.Int).SetUint64(n)).Uint64()
}

// CheckedAdd adds two fractions, failing when the sum exceeds one.
func (p Permill) CheckedAdd(o Permill) (Permill, bool) {
	sum, ok := checkedAdd(uint64(p), uint64(o), permillAccuracy)
	return Permill(sum), ok
}

func (p Permill) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Permill) UnmarshalText(text []byte) error {
	parts, err := parseFraction(string(text), permillAccuracy)
	if err != nil {
		return err
	}
	*p = Permill(parts)
	return nil
}
