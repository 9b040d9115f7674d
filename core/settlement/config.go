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

package settlement

import (
	"os"
	"strings"
	"time"

	"code.funtury.io/predictmarket/libs/config/encoding"
	"code.funtury.io/predictmarket/logging"
)

const (
	namedLogger = "settlement"

	// SettlementKeyEnv overrides the private key found in the configuration.
	SettlementKeyEnv = "PREDICTMARKET_SETTLEMENT_KEY"
)

// Config is the configuration of the settlement engine.
type Config struct {
	Level                encoding.LogLevel `long:"log-level"`
	Timeout              encoding.Duration `description:"bound on submitting a transfer and waiting for its receipt" long:"timeout"`
	GasLimit             uint64            `description:"gas limit of transferShares transactions"                  long:"gas-limit"`
	GasPriceGwei         uint64            `description:"gas price in gwei, 0 lets the node suggest one"            long:"gas-price-gwei"`
	MaxRetries           uint64            `description:"retries of a submission that was not broadcast"            long:"max-retries"`
	RetryInitialInterval encoding.Duration `description:"first wait between submission retries"                     long:"retry-initial-interval"`
	PrivateKey           string            `description:"hex encoded key signing transfers"                         long:"private-key"`
}

func NewDefaultConfig() Config {
	return Config{
		Level:                encoding.LogLevel{Level: logging.InfoLevel},
		Timeout:              encoding.Duration{Duration: 2 * time.Minute},
		GasLimit:             300000,
		GasPriceGwei:         20,
		MaxRetries:           0,
		RetryInitialInterval: encoding.Duration{Duration: 500 * time.Millisecond},
	}
}

// SettlementKey returns the signing key, preferring the environment.
func (c Config) SettlementKey() string {
	if k := strings.TrimSpace(os.Getenv(SettlementKeyEnv)); k != "" {
		return k
	}
	return c.PrivateKey
}
