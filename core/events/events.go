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

// Package events holds what the node publishes once a unit of work has
// been committed.
package events

import (
	"encoding/json"
	"time"

	"code.funtury.io/predictmarket/core/types"
)

type Type string

const (
	FillEventType  Type = "fill"
	OrderEventType Type = "order"
)

type OrderAction string

const (
	OrderCreated   OrderAction = "created"
	OrderCancelled OrderAction = "cancelled"
	// OrderWithdrawn is a remainder taken off the book after a settlement
	// failure.
	OrderWithdrawn OrderAction = "withdrawn"
)

type Event interface {
	Type() Type
	MarketAddress() string
	Encode() ([]byte, error)
}

// Fill is emitted once per settled allocation.
type Fill struct {
	TakerSerial string    `json:"taker_order_serial"`
	MakerSerial string    `json:"maker_order_serial"`
	Market      string    `json:"market_address"`
	Outcome     string    `json:"outcome"`
	Buyer       string    `json:"buyer"`
	Seller      string    `json:"seller"`
	Amount      uint64    `json:"amount"`
	Price       string    `json:"price"`
	TxHash      string    `json:"tx_hash"`
	At          time.Time `json:"timestamp"`
}

func NewFillEvent(f *types.Fill) *Fill {
	return &Fill{
		TakerSerial: f.TakerSerial,
		MakerSerial: f.MakerSerial,
		Market:      f.Market,
		Outcome:     string(f.Outcome),
		Buyer:       f.Buyer,
		Seller:      f.Seller,
		Amount:      f.Amount,
		Price:       f.Price.String(),
		TxHash:      f.TxHash,
		At:          f.At.UTC(),
	}
}

func (f *Fill) Type() Type { return FillEventType }

func (f *Fill) MarketAddress() string { return f.Market }

func (f *Fill) Encode() ([]byte, error) {
	return json.Marshal(envelope{Type: FillEventType, Payload: f})
}

// Order is emitted when an order enters or leaves the book outside of
// matching.
type Order struct {
	Action          OrderAction `json:"action"`
	ID              uint64      `json:"id"`
	Serial          string      `json:"order_serial"`
	User            string      `json:"user_address"`
	Market          string      `json:"market_address"`
	Outcome         string      `json:"outcome"`
	Side            string      `json:"side"`
	Price           string      `json:"price"`
	Amount          uint64      `json:"amount"`
	Status          string      `json:"status"`
	DealAmount      uint64      `json:"deal_amount"`
	RemainingAmount uint64      `json:"remaining_amount"`
}

func NewOrderEvent(action OrderAction, o *types.Order, t *types.Transaction) *Order {
	return &Order{
		Action:          action,
		ID:              o.ID,
		Serial:          o.Serial,
		User:            o.User,
		Market:          o.Market,
		Outcome:         string(o.Outcome),
		Side:            string(o.Side),
		Price:           o.Price.String(),
		Amount:          o.Amount,
		Status:          string(t.Status),
		DealAmount:      t.DealAmount,
		RemainingAmount: t.RemainingAmount,
	}
}

func (o *Order) Type() Type { return OrderEventType }

func (o *Order) MarketAddress() string { return o.Market }

func (o *Order) Encode() ([]byte, error) {
	return json.Marshal(envelope{Type: OrderEventType, Payload: o})
}

type envelope struct {
	Type    Type        `json:"type"`
	Payload interface{} `json:"payload"`
}
