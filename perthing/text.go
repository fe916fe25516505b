// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package perthing

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

func errInvalidFraction(s string) error {
	return errors.Errorf("invalid fraction %q", s)
}

// formatPercent renders parts/acc as an exact percentage, trailing zeros trimmed.
func formatPercent(parts, acc uint64) string {
	return trimDecimal(new(big.Rat).SetFrac(
		new(big.Int).Mul(new(big.Int).SetUint64(parts), big.NewInt(100)),
		new(big.Int).SetUint64(acc),
	).FloatString(18)) + "%"
}

func trimDecimal(s string) string {
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

// parseFraction accepts "12.5%" percentages or raw integer parts.
func parseFraction(s string, acc uint64) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		r, ok := new(big.Rat).SetString(strings.TrimSpace(strings.TrimSuffix(s, "%")))
		if !ok || r.Sign() < 0 {
			return 0, errInvalidFraction(s)
		}
		n := new(big.Int).Mul(r.Num(), new(big.Int).SetUint64(acc))
		n.Quo(n, new(big.Int).Mul(r.Denom(), big.NewInt(100)))
		if !n.IsUint64() || n.Uint64() > acc {
			return 0, errInvalidFraction(s)
		}
		return n.Uint64(), nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 || !n.IsUint64() || n.Uint64() > acc {
		return 0, errInvalidFraction(s)
	}
	return n.Uint64(), nil
}
