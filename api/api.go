// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api serves the staking state, the event log and live event subscriptions over http.
package api

import (
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/dappstaking/api/events"
	"github.com/vechain/dappstaking/api/staking"
	"github.com/vechain/dappstaking/api/subscriptions"
	"github.com/vechain/dappstaking/eventlog"
	"github.com/vechain/dappstaking/log"
	"github.com/vechain/dappstaking/metrics"
	dappstaking "github.com/vechain/dappstaking/staking"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	PprofOn         bool
	EnableReqLogger bool
	EnableMetrics   bool
	LogsLimit       uint64
}

// New returns the api handler and a function closing the open subscriptions.
// A nil eventLog leaves the /events route out.
func New(engine *dappstaking.Engine, eventLog *eventlog.EventLog, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	staking.New(engine).
		Mount(router, "/staking")
	if eventLog != nil {
		events.New(eventLog, opts.LogsLimit).
			Mount(router, "/events")
	}
	subs := subscriptions.New(engine, origins)
	subs.Mount(router, "/subscriptions")

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}

	return handler.ServeHTTP, subs.Close // subscriptions hold hijacked conns, which need to be closed
}
