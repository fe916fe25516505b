// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package perthing

import (
	"math"
	"math/big"

	"github.com/holiman/uint256"
)

const fixedAccuracy = 1_000_000_000

// FixedU64 is an unsigned fixed-point number with 9 decimals, used for token prices.
type FixedU64 uint64

// FixedFromRational returns n/d. Returns zero when d is zero.
func FixedFromRational(n, d uint64) FixedU64 {
	if d == 0 {
		return 0
	}
	z, overflow := new(uint256.Int).MulDivOverflow(uint256.NewInt(n), uint256.NewInt(fixedAccuracy), uint256.NewInt(d))
	if overflow || !z.IsUint64() {
		return math.MaxUint64
	}
	return FixedU64(z.Uint64())
}

// FixedFromUint returns n as a fixed-point value, saturating when out of range.
func FixedFromUint(n uint64) FixedU64 {
	return FixedFromRational(n, 1)
}

// SaturatingMulInt returns floor(f * n), saturating at the maximum uint64.
func (f FixedU64) SaturatingMulInt(n uint64) uint64 {
	z, overflow := new(uint256.Int).MulDivOverflow(uint256.NewInt(uint64(f)), uint256.NewInt(n), uint256.NewInt(fixedAccuracy))
	if overflow || !z.IsUint64() {
		return math.MaxUint64
	}
	return z.Uint64()
}

// SaturatingMulBalance returns floor(f * v).
func (f FixedU64) SaturatingMulBalance(v *big.Int) *big.Int {
	n := new(big.Int).Mul(v, new(big.Int).SetUint64(uint64(f)))
	return n.Quo(n, new(big.Int).SetUint64(fixedAccuracy))
}

func (f FixedU64) String() string {
	return trimDecimal(new(big.Rat).SetFrac(new(big.Int).SetUint64(uint64(f)), new(big.Int).SetUint64(fixedAccuracy)).FloatString(9))
}

func (f FixedU64) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *FixedU64) UnmarshalText(text []byte) error {
	r, ok := new(big.Rat).SetString(string(text))
	if !ok || r.Sign() < 0 {
		return errInvalidFraction(string(text))
	}
	n := new(big.Int).Mul(r.Num(), new(big.Int).SetUint64(fixedAccuracy))
	n.Quo(n, r.Denom())
	if !n.IsUint64() {
		return errInvalidFraction(string(text))
	}
	*f = FixedU64(n.Uint64())
	return nil
}
