// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package node runs a predictmarket node: the order API in front of the
// matching engine, with settlement on chain.
package node

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"code.funtury.io/predictmarket/api/rest"
	"code.funtury.io/predictmarket/broker"
	"code.funtury.io/predictmarket/client/eth"
	"code.funtury.io/predictmarket/config"
	"code.funtury.io/predictmarket/core/market"
	"code.funtury.io/predictmarket/core/matching"
	"code.funtury.io/predictmarket/core/orders"
	"code.funtury.io/predictmarket/core/settlement"
	"code.funtury.io/predictmarket/logging"
	"code.funtury.io/predictmarket/metrics"
	"code.funtury.io/predictmarket/store"

	"golang.org/x/sync/errgroup"
)

// NodeCommand use to implement 'node' command.
type NodeCommand struct {
	ctx    context.Context
	cancel context.CancelFunc

	Log         *logging.Logger
	Version     string
	VersionHash string
	StateDir    string

	conf          config.Config
	configWatcher *config.Watcher

	metricsServer *metrics.Server
	ethClient     *eth.Client
	store         store.Store
	broker        *broker.Broker
	oracle        *market.Oracle
	settlement    *settlement.Engine
	matching      *matching.Engine
	orders        *orders.Service
	server        *rest.Server
}

func (l *NodeCommand) Run(cfgwatchr *config.Watcher, args []string) error {
	l.configWatcher = cfgwatchr
	l.conf = cfgwatchr.Get()

	stages := []func([]string) error{
		l.persistentPre,
		l.preRun,
		l.runNode,
		l.postRun,
	}
	for _, fn := range stages {
		if err := fn(args); err != nil {
			return err
		}
	}

	return nil
}

func (l *NodeCommand) runNode([]string) error {
	defer l.cancel()

	ctx, cancel := context.WithCancel(l.ctx)
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error { return l.server.Start(ctx) })

	eg.Go(func() error {
		return l.broker.Receive(ctx)
	})

	// waitSig will wait for a sigterm or sigint interrupt.
	eg.Go(func() error {
		gracefulStop := make(chan os.Signal, 1)
		signal.Notify(gracefulStop, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(gracefulStop)

		select {
		case sig := <-gracefulStop:
			l.Log.Info("Caught signal", logging.String("name", fmt.Sprintf("%+v", sig)))
			cancel()
		case <-ctx.Done():
			return ctx.Err()
		}

		return nil
	})

	l.Log.Info("predictmarket node startup complete",
		logging.String("version", l.Version),
		logging.String("version-hash", l.VersionHash))

	err := eg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
