// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventlog

import (
	"strings"

	"github.com/vechain/dappstaking/metrics"
)

var (
	metricInserted        = metrics.LazyLoadCounter("eventlog_inserted_total")
	metricQueryParameters = metrics.LazyLoadCounterVec("eventlog_query_parameters", []string{"parameters"})
	metricLimitBucket     = metrics.LazyLoadHistogram("eventlog_query_limit_bucket", []int64{0, 5, 10, 25, 50, 100, 250, 500, 1000})
)

func metricsHandleFilter(filter *Filter) {
	if metrics.NoOp() {
		return
	}
	used := make([]string, 0, 4)
	if filter.Kind != nil {
		used = append(used, "kind")
	}
	if filter.Account != nil {
		used = append(used, "account")
	}
	if filter.Contract != nil {
		used = append(used, "contract")
	}
	if filter.FromEra != nil || filter.ToEra != nil {
		used = append(used, "era")
	}
	metricQueryParameters().AddWithLabel(1, map[string]string{"parameters": strings.Join(used, ",")})

	limit := filter.Limit
	if limit > 1000 {
		limit = 1001
	}
	metricLimitBucket().Observe(int64(limit))
}
