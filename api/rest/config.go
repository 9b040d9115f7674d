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

package rest

import (
	"time"

	"code.funtury.io/predictmarket/libs/config/encoding"
	"code.funtury.io/predictmarket/logging"
)

const (
	namedLogger = "api.rest"
	// maxBodyBytes caps order request bodies.
	maxBodyBytes = 1 << 20
)

// CORSConfig represents the configuration for CORS.
type CORSConfig struct {
	AllowedOrigins []string `description:"Allowed origins for CORS"                long:"allowed-origins"`
	MaxAge         int      `description:"Max age (in seconds) for preflight cache" long:"max-age"`
}

// Config represents the configuration of the rest api.
type Config struct {
	Level             encoding.LogLevel `long:"log-level"`
	IP                string            `description:"listen address"                 long:"ip"`
	Port              int               `description:"listen port"                    long:"port"`
	ReadHeaderTimeout encoding.Duration `description:"time allowed to read headers"   long:"read-header-timeout"`
	ShutdownTimeout   encoding.Duration `description:"time allowed for a clean stop"  long:"shutdown-timeout"`
	CORS              CORSConfig        `group:"CORS" namespace:"cors"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:             encoding.LogLevel{Level: logging.InfoLevel},
		IP:                "0.0.0.0",
		Port:              8000,
		ReadHeaderTimeout: encoding.Duration{Duration: 5 * time.Second},
		ShutdownTimeout:   encoding.Duration{Duration: 10 * time.Second},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			MaxAge:         7200,
		},
	}
}
