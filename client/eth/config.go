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

package eth

import (
	"time"

	"code.funtury.io/predictmarket/libs/config/encoding"
)

type Config struct {
	RPCEndpoint     string            `description:"ethereum JSON-RPC endpoint"                long:"rpc-endpoint"`
	DialTimeout     encoding.Duration `description:"timeout for the initial connection"        long:"dial-timeout"`
	VerifyContracts bool              `description:"check market addresses hold contract code" long:"verify-contracts"`
}

func NewDefaultConfig() Config {
	return Config{
		RPCEndpoint: "http://127.0.0.1:8545",
		DialTimeout: encoding.Duration{Duration: 10 * time.Second},
	}
}
