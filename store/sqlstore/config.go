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

package sqlstore

import (
	"fmt"
	"time"

	"code.funtury.io/predictmarket/libs/config/encoding"
	"code.funtury.io/predictmarket/logging"

	"github.com/jackc/pgx/v4/pgxpool"
)

type Config struct {
	ConnectionConfig ConnectionConfig  `group:"ConnectionConfig" namespace:"ConnectionConfig"`
	UseEmbedded      encoding.Bool     `description:"start an embedded postgres server"         long:"use-embedded"`
	WipeOnStartup    encoding.Bool     `description:"drop the schema before migrating"          long:"wipe-on-startup"`
	Level            encoding.LogLevel `description:" "                                         long:"log-level"`
	StartTimeout     encoding.Duration `description:"how long to wait for the embedded server"  long:"start-timeout"`
}

type ConnectionConfig struct {
	Host            string            `long:"host"`
	Port            int               `long:"port"`
	Username        string            `long:"username"`
	Password        string            `long:"password"`
	Database        string            `long:"database"`
	MaxConnLifetime encoding.Duration `long:"max-conn-lifetime"`
	MaxConnPoolSize int               `long:"max-conn-pool-size"`
	MinConnPoolSize int32             `long:"min-conn-pool-size"`
}

func NewDefaultConfig() Config {
	return Config{
		ConnectionConfig: ConnectionConfig{
			Host:            "localhost",
			Port:            5432,
			Username:        "predictmarket",
			Password:        "predictmarket",
			Database:        "predictmarket",
			MaxConnLifetime: encoding.Duration{Duration: 30 * time.Minute},
			MaxConnPoolSize: 20,
			MinConnPoolSize: 2,
		},
		UseEmbedded:   false,
		WipeOnStartup: false,
		Level:         encoding.LogLevel{Level: logging.InfoLevel},
		StartTimeout:  encoding.Duration{Duration: 60 * time.Second},
	}
}

func (conf ConnectionConfig) GetConnectionString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s",
		conf.Username,
		conf.Password,
		conf.Host,
		conf.Port,
		conf.Database)
}

func (conf ConnectionConfig) GetPoolConfig() (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(conf.GetConnectionString())
	if err != nil {
		return nil, err
	}
	cfg.ConnConfig.RuntimeParams["application_name"] = "predictmarket"
	cfg.MaxConnLifetime = conf.MaxConnLifetime.Duration
	cfg.MaxConns = int32(conf.MaxConnPoolSize)
	cfg.MinConns = conf.MinConnPoolSize
	return cfg, nil
}
