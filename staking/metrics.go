// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/vechain/dappstaking/metrics"
)

var (
	metricCalls       = metrics.LazyLoadCounterVec("staking_calls_total", []string{"op", "result"})
	metricEra         = metrics.LazyLoadGauge("staking_current_era")
	metricPeriod      = metrics.LazyLoadGauge("staking_current_period")
	metricTotals      = metrics.LazyLoadGaugeVec("staking_totals_tokens", []string{"total"})
	metricTierDApps   = metrics.LazyLoadGaugeVec("staking_tier_dapps", []string{"tier"})
	metricRewardsPaid = metrics.LazyLoadCounterVec("staking_rewards_paid_tokens", []string{"kind"})
)

// wholeTokens converts an amount to whole tokens for the gauges.
func wholeTokens(amount *big.Int) int64 {
	if amount == nil {
		return 0
	}
	return new(big.Int).Quo(amount, unit).Int64()
}
