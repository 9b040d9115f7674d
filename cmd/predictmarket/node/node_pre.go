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

package node

import (
	"context"
	"errors"
	"fmt"

	"code.funtury.io/predictmarket/api/rest"
	"code.funtury.io/predictmarket/broker"
	"code.funtury.io/predictmarket/client/eth"
	"code.funtury.io/predictmarket/config"
	"code.funtury.io/predictmarket/core/clock"
	"code.funtury.io/predictmarket/core/market"
	"code.funtury.io/predictmarket/core/matching"
	"code.funtury.io/predictmarket/core/orders"
	"code.funtury.io/predictmarket/core/settlement"
	"code.funtury.io/predictmarket/logging"
	"code.funtury.io/predictmarket/metrics"
	"code.funtury.io/predictmarket/store/memstore"
	"code.funtury.io/predictmarket/store/sqlstore"
)

var ErrNoSettlementKey = errors.New("no settlement key configured, set " + settlement.SettlementKeyEnv)

func (l *NodeCommand) persistentPre([]string) (err error) {
	// this shouldn't happen...
	if l.cancel != nil {
		l.cancel()
	}
	l.ctx, l.cancel = context.WithCancel(context.Background())
	// ensure we cancel the context on error
	defer func() {
		if err != nil {
			l.cancel()
		}
	}()

	conf := l.configWatcher.Get()

	// reload logger with the setup from configuration
	if l.Log, err = logging.NewLoggerFromConfig(conf.Logging); err != nil {
		return fmt.Errorf("couldn't set up the logger: %w", err)
	}

	l.Log.Info("Starting predictmarket node",
		logging.String("config-file", l.configWatcher.ConfigFilePath()),
		logging.String("state-dir", l.StateDir))

	if l.metricsServer, err = metrics.Start(l.Log, conf.Metrics); err != nil {
		return err
	}

	switch conf.Storage.Backend {
	case config.StorageBackendPostgres:
		if l.store, err = sqlstore.InitialiseStorage(l.Log, conf.Storage.SQLStore, l.StateDir); err != nil {
			return fmt.Errorf("couldn't initialise the sql store: %w", err)
		}
	default:
		l.store = memstore.New(l.Log)
	}

	dialCtx, cancel := context.WithTimeout(l.ctx, conf.Ethereum.DialTimeout.Get())
	defer cancel()
	if l.ethClient, err = eth.Dial(dialCtx, conf.Ethereum.RPCEndpoint); err != nil {
		return fmt.Errorf("couldn't connect to the ethereum node at %s: %w", conf.Ethereum.RPCEndpoint, err)
	}

	return nil
}

func (l *NodeCommand) preRun([]string) (err error) {
	defer func() {
		if err != nil {
			l.cancel()
		}
	}()

	key := l.conf.Settlement.SettlementKey()
	if len(key) == 0 {
		return ErrNoSettlementKey
	}
	signer, err := eth.NewPrivKeySigner(key)
	if err != nil {
		return fmt.Errorf("couldn't load the settlement key: %w", err)
	}
	l.Log.Info("settlement operator loaded", logging.String("address", signer.Address().Hex()))

	l.oracle = market.NewOracle(l.Log, l.conf.Market, l.ethClient)
	if l.conf.Ethereum.VerifyContracts {
		l.oracle.WithVerifier(l.ethClient)
	}
	l.settlement = settlement.New(l.Log, l.conf.Settlement, l.ethClient, signer)
	l.matching = matching.New(l.Log, l.conf.Matching, l.settlement, clock.NewService())
	l.broker = broker.New(l.Log, l.conf.Broker, broker.NewSinks(l.Log, l.conf.Broker)...)
	l.orders = orders.NewService(l.Log, l.conf.Orders, l.store, l.oracle, l.matching, l.broker, clock.NewService())
	l.server = rest.NewServer(l.Log, l.conf.API, l.orders)

	l.configWatcher.OnConfigUpdate(
		func(cfg config.Config) { l.server.ReloadConf(cfg.API) },
		func(cfg config.Config) { l.oracle.ReloadConf(cfg.Market) },
		func(cfg config.Config) { l.settlement.ReloadConf(cfg.Settlement) },
		func(cfg config.Config) { l.matching.ReloadConf(cfg.Matching) },
		func(cfg config.Config) { l.orders.ReloadConf(cfg.Orders) },
		func(cfg config.Config) { l.broker.ReloadConf(cfg.Broker) },
	)

	return nil
}

func (l *NodeCommand) postRun([]string) error {
	var werr error
	if l.store != nil {
		if err := l.store.Close(); err != nil {
			l.Log.Error("error closing the store", logging.Error(err))
			werr = err
		}
	}
	if err := l.metricsServer.Stop(); err != nil {
		l.Log.Error("error stopping the metrics server", logging.Error(err))
	}
	if l.ethClient != nil {
		l.ethClient.Close()
	}
	l.Log.Info("predictmarket node stopped")
	return werr
}
