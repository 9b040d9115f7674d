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

//lint:file-ignore SA5008 duplicated struct tags are ok for config

package config

import (
	"fmt"

	"code.funtury.io/predictmarket/api/rest"
	"code.funtury.io/predictmarket/broker"
	"code.funtury.io/predictmarket/client/eth"
	"code.funtury.io/predictmarket/core/market"
	"code.funtury.io/predictmarket/core/matching"
	"code.funtury.io/predictmarket/core/orders"
	"code.funtury.io/predictmarket/core/settlement"
	"code.funtury.io/predictmarket/logging"
	"code.funtury.io/predictmarket/metrics"
	"code.funtury.io/predictmarket/store/sqlstore"
)

const (
	StorageBackendMemory   = "memory"
	StorageBackendPostgres = "postgres"
)

// StorageConfig selects where orders and transactions are kept.
type StorageConfig struct {
	Backend  string          `choice:"memory" choice:"postgres" description:"storage backend" long:"backend"`
	SQLStore sqlstore.Config `group:"SQLStore"                  namespace:"sqlstore"`
}

// Config ties together all other application configuration types.
type Config struct {
	Logging    logging.Config    `group:"Logging"    namespace:"logging"`
	API        rest.Config       `group:"API"        namespace:"api"`
	Storage    StorageConfig     `group:"Storage"    namespace:"storage"`
	Ethereum   eth.Config        `group:"Ethereum"   namespace:"ethereum"`
	Market     market.Config     `group:"Market"     namespace:"market"`
	Settlement settlement.Config `group:"Settlement" namespace:"settlement"`
	Matching   matching.Config   `group:"Matching"   namespace:"matching"`
	Orders     orders.Config     `group:"Orders"     namespace:"orders"`
	Broker     broker.Config     `group:"Broker"     namespace:"broker"`
	Metrics    metrics.Config    `group:"Metrics"    namespace:"metrics"`
}

// NewDefaultConfig returns a set of default configs for all packages, as
// specified at the per package config level.
func NewDefaultConfig() Config {
	return Config{
		Logging: logging.NewDefaultConfig(),
		API:     rest.NewDefaultConfig(),
		Storage: StorageConfig{
			Backend:  StorageBackendMemory,
			SQLStore: sqlstore.NewDefaultConfig(),
		},
		Ethereum:   eth.NewDefaultConfig(),
		Market:     market.NewDefaultConfig(),
		Settlement: settlement.NewDefaultConfig(),
		Matching:   matching.NewDefaultConfig(),
		Orders:     orders.NewDefaultConfig(),
		Broker:     broker.NewDefaultConfig(),
		Metrics:    metrics.NewDefaultConfig(),
	}
}

// Validate reports settings the node cannot start with.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case StorageBackendMemory, StorageBackendPostgres:
	default:
		return fmt.Errorf("unsupported storage backend %q, expected %s or %s",
			c.Storage.Backend, StorageBackendMemory, StorageBackendPostgres)
	}
	if c.API.Port <= 0 {
		return fmt.Errorf("invalid api port %d", c.API.Port)
	}
	if len(c.Ethereum.RPCEndpoint) == 0 {
		return fmt.Errorf("an ethereum rpc endpoint is required")
	}
	if c.Broker.Kafka.Enabled && len(c.Broker.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka is enabled but no brokers are configured")
	}
	return nil
}
