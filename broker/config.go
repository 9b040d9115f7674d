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

package broker

import (
	"time"

	"code.funtury.io/predictmarket/libs/config/encoding"
	"code.funtury.io/predictmarket/logging"
)

const namedLogger = "broker"

// Config represents the configuration of the broker.
type Config struct {
	Level      encoding.LogLevel `long:"log-level"`
	BufferSize int               `description:"events queued before new ones are dropped" long:"buffer-size"`

	Kafka KafkaConfig `group:"Kafka" namespace:"kafka"`
}

type KafkaConfig struct {
	Enabled      encoding.Bool     `description:"publish events to kafka"   long:"enabled"`
	Brokers      []string          `description:"kafka bootstrap addresses" long:"brokers"`
	Topic        string            `description:"topic events go to"        long:"topic"`
	BatchTimeout encoding.Duration `description:" "                         long:"batch-timeout"`
	WriteTimeout encoding.Duration `description:" "                         long:"write-timeout"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level:      encoding.LogLevel{Level: logging.InfoLevel},
		BufferSize: 1000,
		Kafka: KafkaConfig{
			Enabled:      false,
			Brokers:      []string{"127.0.0.1:9092"},
			Topic:        "predictmarket.events",
			BatchTimeout: encoding.Duration{Duration: 10 * time.Millisecond},
			WriteTimeout: encoding.Duration{Duration: 10 * time.Second},
		},
	}
}
