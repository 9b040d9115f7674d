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
	"context"
	"fmt"

	"code.funtury.io/predictmarket/core/events"
	"code.funtury.io/predictmarket/logging"

	"github.com/segmentio/kafka-go"
)

// KafkaSink writes every event to a kafka topic, keyed by market address so
// the events of one market stay ordered within a partition.
type KafkaSink struct {
	log    *logging.Logger
	writer *kafka.Writer
}

func NewKafkaSink(log *logging.Logger, cfg KafkaConfig) *KafkaSink {
	return &KafkaSink{
		log: log.Named("kafka"),
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: cfg.BatchTimeout.Get(),
			WriteTimeout: cfg.WriteTimeout.Get(),
		},
	}
}

func (k *KafkaSink) Push(ctx context.Context, evts ...events.Event) error {
	msgs, err := toMessages(evts)
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("could not write to kafka topic %s: %w", k.writer.Topic, err)
	}
	k.log.Debug("events published", logging.Int("count", len(msgs)))
	return nil
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}

func toMessages(evts []events.Event) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(evts))
	for _, e := range evts {
		value, err := e.Encode()
		if err != nil {
			return nil, fmt.Errorf("could not encode %s event: %w", e.Type(), err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.MarketAddress()),
			Value: value,
			Headers: []kafka.Header{
				{Key: "type", Value: []byte(e.Type())},
			},
		})
	}
	return msgs, nil
}

// NewSinks builds the sinks enabled in cfg.
func NewSinks(log *logging.Logger, cfg Config) []Sink {
	sinks := []Sink{}
	if cfg.Kafka.Enabled {
		sinks = append(sinks, NewKafkaSink(log, cfg.Kafka))
	}
	return sinks
}
