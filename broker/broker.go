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

// Package broker fans committed events out to the configured sinks.
package broker

import (
	"context"
	"sync"

	"code.funtury.io/predictmarket/core/events"
	"code.funtury.io/predictmarket/logging"
)

// Sink receives batches of events. A failing sink never affects the
// request that produced the events.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/sink_mock.go -package mocks code.funtury.io/predictmarket/broker Sink
type Sink interface {
	Push(ctx context.Context, evts ...events.Event) error
	Close() error
}

// Broker queues events and hands them to its sinks from a single routine,
// so sinks see batches in the order they were sent.
type Broker struct {
	log   *logging.Logger
	sinks []Sink
	ch    chan []events.Event

	mu     sync.Mutex
	closed bool
}

func New(log *logging.Logger, cfg Config, sinks ...Sink) *Broker {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}
	return &Broker{
		log:   log,
		sinks: sinks,
		ch:    make(chan []events.Event, size),
	}
}

// ReloadConf updates the internal configuration.
func (b *Broker) ReloadConf(cfg Config) {
	b.log.Info("reloading configuration")
	if b.log.GetLevel() != cfg.Level.Get() {
		b.log.Info("updating log level",
			logging.String("old", b.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		b.log.SetLevel(cfg.Level.Get())
	}
}

// Send queues evts without blocking. When the queue is full the batch is
// dropped and logged.
func (b *Broker) Send(evts ...events.Event) {
	if len(evts) == 0 || len(b.sinks) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.ch <- evts:
	default:
		b.log.Warn("event queue full, dropping events", logging.Int("count", len(evts)))
	}
}

// Receive delivers queued events until ctx is done, then drains what is
// left and closes the sinks.
func (b *Broker) Receive(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			b.closed = true
			close(b.ch)
			b.mu.Unlock()
			for evts := range b.ch {
				b.push(context.Background(), evts)
			}
			b.closeSinks()
			return nil
		case evts := <-b.ch:
			b.push(ctx, evts)
		}
	}
}

func (b *Broker) push(ctx context.Context, evts []events.Event) {
	for _, s := range b.sinks {
		if err := s.Push(ctx, evts...); err != nil {
			b.log.Error("could not publish events",
				logging.Int("count", len(evts)),
				logging.Error(err))
		}
	}
}

func (b *Broker) closeSinks() {
	for _, s := range b.sinks {
		if err := s.Close(); err != nil {
			b.log.Warn("could not close sink", logging.Error(err))
		}
	}
}
