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

// Package store defines the unit of work used to read and mutate orders and
// their transactions.
package store

import (
	"context"
	"sort"

	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/libs/num"
)

// Store is the durable home of the order book and of the transaction history.
type Store interface {
	// Begin opens a top-level unit of work. Top-level units of work are
	// isolated from each other so concurrent takers never allocate the
	// same resting quantity twice.
	Begin(ctx context.Context) (Tx, error)
	// ListOrderBook returns the resting orders of one market outcome.
	ListOrderBook(ctx context.Context, market string, outcome types.Outcome) ([]*types.Order, error)
	// ListTransactionsByUser returns the full history of a user.
	ListTransactionsByUser(ctx context.Context, user string) ([]*types.Transaction, error)
	Close() error
}

// Tx is a unit of work. Nothing it does is visible outside of it until
// Commit. A nested unit of work obtained with Begin is a checkpoint: rolling
// it back discards only its own mutations, committing it folds them into its
// parent. Rollback after Commit is a no-op so it can always be deferred.
type Tx interface {
	// FindEligibleOrders returns the resting orders on side that a taker with
	// limit bound can trade with, best price first: sells priced at or
	// under bound ascending, buys priced at or above bound descending. Equal
	// prices are ordered by creation time then id.
	FindEligibleOrders(ctx context.Context, market string, outcome types.Outcome, side types.Side, bound num.Decimal) ([]*types.Order, error)
	GetOrder(ctx context.Context, id uint64) (*types.Order, error)
	GetTransactionBySerial(ctx context.Context, serial string) (*types.Transaction, error)
	// InsertOrder stores o and sets its ID.
	InsertOrder(ctx context.Context, o *types.Order) error
	// InsertTransaction stores t and sets its ID.
	InsertTransaction(ctx context.Context, t *types.Transaction) error
	UpdateOrder(ctx context.Context, o *types.Order) error
	UpdateTransaction(ctx context.Context, t *types.Transaction) error
	DeleteOrder(ctx context.Context, id uint64) error

	Begin(ctx context.Context) (Tx, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Less orders two resting orders on side by matching priority.
func Less(side types.Side, a, b *types.Order) bool {
	if !a.Price.Equal(b.Price) {
		if side == types.SideSell {
			return a.Price.LessThan(b.Price)
		}
		return a.Price.GreaterThan(b.Price)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// SortByPriority sorts resting orders on side by matching priority.
func SortByPriority(side types.Side, orders []*types.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return Less(side, orders[i], orders[j])
	})
}

// Eligible reports whether a resting order can be offered to a taker.
func Eligible(o *types.Order, market string, outcome types.Outcome, side types.Side, bound num.Decimal) bool {
	return o.Market == market &&
		o.Outcome == outcome &&
		o.Side == side &&
		o.Amount > 0 &&
		o.MarketState.IsActive() &&
		types.PriceAcceptable(side.Opposite(), bound, o.Price)
}
