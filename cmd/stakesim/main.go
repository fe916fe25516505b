// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// stakesim runs dApp staking scenarios and serves the staking state over http.
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/dappstaking/api"
	"github.com/vechain/dappstaking/log"
	"github.com/vechain/dappstaking/metrics"
	"github.com/vechain/dappstaking/staking"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func main() {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
	app.Name = "stakesim"
	app.Usage = "dApp staking simulator"
	app.Flags = []cli.Flag{verbosityFlag}
	app.Before = func(ctx *cli.Context) error {
		initLogger(ctx.GlobalInt(verbosityFlag.Name))
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "run a yaml scenario",
			Flags:  []cli.Flag{scenarioFlag, configFlag, dataDirFlag, noProgressFlag},
			Action: runAction,
		},
		{
			Name:  "serve",
			Usage: "serve the staking API",
			Flags: []cli.Flag{
				configFlag,
				dataDirFlag,
				apiAddrFlag,
				apiCorsFlag,
				apiLogsLimitFlag,
				enableAPILogsFlag,
				pprofFlag,
				enableMetricsFlag,
				metricsAddrFlag,
				blockIntervalFlag,
			},
			Action: serveAction,
		},
		{
			Name:   "inspect",
			Usage:  "dump the state of an account",
			Flags:  []cli.Flag{accountFlag, configFlag, dataDirFlag},
			Action: inspectAction,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Fatal:", err)
		os.Exit(1)
	}
}

func runAction(ctx *cli.Context) error {
	path := ctx.String(scenarioFlag.Name)
	if path == "" {
		return errors.New("--scenario is required")
	}
	scenario, err := loadScenario(path)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	n, err := openNode(ctx.String(dataDirFlag.Name), cfg)
	if err != nil {
		return err
	}
	defer n.close()

	return runScenario(n, scenario, os.Stdout, !ctx.Bool(noProgressFlag.Name))
}

// runScenario runs scenario on n, printing and indexing its events.
func runScenario(n *node, scenario *Scenario, out io.Writer, progress bool) error {
	ch := make(chan []*staking.Event, 64)
	sub := n.engine.SubscribeEvents(ch)

	printed := make(chan error, 1)
	go func() {
		printed <- printEvents(out, ch, sub.Err(), n.eventLog.Insert)
	}()

	runErr := (&runner{node: n, out: out, progress: progress}).run(scenario)
	// closing the engine ends the subscription once the delivered batches are printed
	n.engine.Close()
	if err := <-printed; err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return runErr
	}

	ps, err := n.engine.ProtocolState()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, ">> done at block %d, era %d, period %d (%s) <<\n", ps.LastBlock, ps.Era, ps.Period.Number, ps.Period.Subperiod)
	return nil
}

func serveAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()

	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	n, err := openNode(ctx.String(dataDirFlag.Name), cfg)
	if err != nil {
		return err
	}
	defer n.close()

	enableMetrics := ctx.Bool(enableMetricsFlag.Name)
	if enableMetrics {
		metrics.InitializePrometheusMetrics()
	}

	handler, closeSubs := api.New(n.engine, n.eventLog, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   enableMetrics,
		LogsLimit:       ctx.Uint64(apiLogsLimitFlag.Name),
	})
	defer closeSubs()

	group, gctx := errgroup.WithContext(exitSignal)

	apiListener, err := net.Listen("tcp", ctx.String(apiAddrFlag.Name))
	if err != nil {
		return errors.Wrapf(err, "listen API addr [%v]", ctx.String(apiAddrFlag.Name))
	}
	log.Info("API server started", "url", "http://"+apiListener.Addr().String())
	group.Go(func() error {
		return serveHTTP(gctx, apiListener, handler)
	})

	if enableMetrics {
		metricsListener, err := net.Listen("tcp", ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return errors.Wrapf(err, "listen metrics API addr [%v]", ctx.String(metricsAddrFlag.Name))
		}
		router := mux.NewRouter()
		router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
		log.Info("metrics server started", "url", "http://"+metricsListener.Addr().String()+"/metrics")
		group.Go(func() error {
			return serveHTTP(gctx, metricsListener, handlers.CompressHandler(router))
		})
	}

	group.Go(func() error {
		return n.eventLog.Index(gctx, n.engine)
	})

	if interval := ctx.Duration(blockIntervalFlag.Name); interval > 0 {
		group.Go(func() error {
			return produceBlocks(gctx, n, interval)
		})
	}

	err = group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func serveHTTP(ctx context.Context, listener net.Listener, handler http.Handler) error {
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// produceBlocks runs the housekeeping of one block per interval.
func produceBlocks(ctx context.Context, n *node, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := n.advance(1, nil); err != nil {
				return errors.Wrap(err, "produce block")
			}
		}
	}
}

func inspectAction(ctx *cli.Context) error {
	account, err := parseAccount(ctx.String(accountFlag.Name))
	if err != nil {
		return errors.WithMessage(err, "--account")
	}
	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	n, err := openNode(ctx.String(dataDirFlag.Name), cfg)
	if err != nil {
		return err
	}
	defer n.close()

	return inspect(n, account, os.Stdout)
}
