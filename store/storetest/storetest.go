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

// Package storetest holds behaviour every store.Store implementation must
// exhibit. Implementations run it from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/libs/crypto"
	"code.funtury.io/predictmarket/libs/num"
	"code.funtury.io/predictmarket/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	Market      = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
	OtherMarket = "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"
	Alice       = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	Bob         = "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb"
)

var epoch = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// NewStoreFunc returns an empty store, cleaned up by the test.
type NewStoreFunc func(t *testing.T) store.Store

// Order builds a resting order for tests.
func Order(user string, side types.Side, outcome types.Outcome, price string, amount uint64, created time.Duration) *types.Order {
	return &types.Order{
		Serial:      crypto.NewSerial(),
		User:        user,
		Market:      Market,
		Outcome:     outcome,
		Price:       num.MustDecimalFromString(price),
		Amount:      amount,
		Side:        side,
		MarketState: types.MarketStateActive,
		CreatedAt:   epoch.Add(created),
	}
}

// Seed commits the orders and their transactions in one unit of work.
func Seed(t *testing.T, s store.Store, orders ...*types.Order) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	for _, o := range orders {
		require.NoError(t, tx.InsertOrder(ctx, o))
		require.NoError(t, tx.InsertTransaction(ctx, types.NewTransaction(o)))
	}
	require.NoError(t, tx.Commit(ctx))
}

func serials(orders []*types.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.Serial)
	}
	return out
}

// Run runs the conformance suite against the stores newStore returns.
func Run(t *testing.T, newStore NewStoreFunc) {
	t.Run("insert assigns ids and reads back", func(t *testing.T) { testInsertAndGet(t, newStore(t)) })
	t.Run("zero amount orders are never stored", func(t *testing.T) { testZeroAmountRejected(t, newStore(t)) })
	t.Run("eligible sells are cheapest first", func(t *testing.T) { testEligibleSells(t, newStore(t)) })
	t.Run("eligible buys are highest first", func(t *testing.T) { testEligibleBuys(t, newStore(t)) })
	t.Run("equal prices are ordered by time then id", func(t *testing.T) { testTimePriority(t, newStore(t)) })
	t.Run("eligibility filters market outcome and state", func(t *testing.T) { testEligibilityFilters(t, newStore(t)) })
	t.Run("transactions are found by serial", func(t *testing.T) { testTransactionBySerial(t, newStore(t)) })
	t.Run("updates and deletes", func(t *testing.T) { testUpdateAndDelete(t, newStore(t)) })
	t.Run("rollback discards everything", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("nested rollback keeps earlier work", func(t *testing.T) { testNestedRollback(t, newStore(t)) })
	t.Run("nested commit folds into the parent", func(t *testing.T) { testNestedCommit(t, newStore(t)) })
	t.Run("uncommitted work is invisible to queries", func(t *testing.T) { testIsolationFromQueries(t, newStore(t)) })
	t.Run("user history includes every status", func(t *testing.T) { testUserHistory(t, newStore(t)) })
	t.Run("concurrent units of work never share a candidate", func(t *testing.T) { testConcurrentAllocation(t, newStore(t)) })
	t.Run("rollback after commit is a no-op", func(t *testing.T) { testRollbackAfterCommit(t, newStore(t)) })
}

func testInsertAndGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	o := Order(Alice, types.SideBuy, types.OutcomeYes, "0.6", 10, 0)
	Seed(t, s, o)
	require.NotZero(t, o.ID)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	got, err := tx.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Serial, got.Serial)
	assert.Equal(t, o.User, got.User)
	assert.Equal(t, uint64(10), got.Amount)
	assert.True(t, o.Price.Equal(got.Price))
	assert.True(t, o.CreatedAt.Equal(got.CreatedAt))

	_, err = tx.GetOrder(ctx, o.ID+1000)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func testZeroAmountRejected(t *testing.T, s store.Store) {
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	o := Order(Alice, types.SideBuy, types.OutcomeYes, "0.6", 0, 0)
	assert.ErrorIs(t, tx.InsertOrder(ctx, o), types.ErrStore)

	o.Amount = 3
	require.NoError(t, tx.InsertOrder(ctx, o))
	o.Amount = 0
	assert.ErrorIs(t, tx.UpdateOrder(ctx, o), types.ErrStore)
}

func testEligibleSells(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := Order(Alice, types.SideSell, types.OutcomeYes, "0.58", 1, 0)
	b := Order(Alice, types.SideSell, types.OutcomeYes, "0.52", 1, time.Second)
	c := Order(Alice, types.SideSell, types.OutcomeYes, "0.61", 1, 2*time.Second)
	d := Order(Alice, types.SideSell, types.OutcomeYes, "0.60", 1, 3*time.Second)
	Seed(t, s, a, b, c, d)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	got, err := tx.FindEligibleOrders(ctx, Market, types.OutcomeYes, types.SideSell, num.MustDecimalFromString("0.60"))
	require.NoError(t, err)
	assert.Equal(t, []string{b.Serial, a.Serial, d.Serial}, serials(got))
}

func testEligibleBuys(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := Order(Bob, types.SideBuy, types.OutcomeNo, "0.40", 1, 0)
	b := Order(Bob, types.SideBuy, types.OutcomeNo, "0.47", 1, time.Second)
	c := Order(Bob, types.SideBuy, types.OutcomeNo, "0.39", 1, 2*time.Second)
	d := Order(Bob, types.SideBuy, types.OutcomeNo, "0.45", 1, 3*time.Second)
	Seed(t, s, a, b, c, d)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	got, err := tx.FindEligibleOrders(ctx, Market, types.OutcomeNo, types.SideBuy, num.MustDecimalFromString("0.40"))
	require.NoError(t, err)
	assert.Equal(t, []string{b.Serial, d.Serial, a.Serial}, serials(got))
}

func testTimePriority(t *testing.T, s store.Store) {
	ctx := context.Background()
	late := Order(Alice, types.SideSell, types.OutcomeYes, "0.5", 1, 2*time.Second)
	early := Order(Alice, types.SideSell, types.OutcomeYes, "0.5", 1, time.Second)
	sameTimeFirst := Order(Alice, types.SideSell, types.OutcomeYes, "0.5", 1, 3*time.Second)
	sameTimeSecond := Order(Alice, types.SideSell, types.OutcomeYes, "0.5", 1, 3*time.Second)
	Seed(t, s, late, early, sameTimeFirst, sameTimeSecond)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	got, err := tx.FindEligibleOrders(ctx, Market, types.OutcomeYes, types.SideSell, num.MustDecimalFromString("0.5"))
	require.NoError(t, err)
	assert.Equal(t, []string{early.Serial, late.Serial, sameTimeFirst.Serial, sameTimeSecond.Serial}, serials(got))
}

func testEligibilityFilters(t *testing.T, s store.Store) {
	ctx := context.Background()
	match := Order(Alice, types.SideSell, types.OutcomeYes, "0.5", 1, 0)
	otherOutcome := Order(Alice, types.SideSell, types.OutcomeNo, "0.5", 1, 0)
	otherSide := Order(Alice, types.SideBuy, types.OutcomeYes, "0.5", 1, 0)
	otherMarket := Order(Alice, types.SideSell, types.OutcomeYes, "0.5", 1, 0)
	otherMarket.Market = OtherMarket
	notActive := Order(Alice, types.SideSell, types.OutcomeYes, "0.5", 1, 0)
	notActive.MarketState = types.MarketStateResolved
	Seed(t, s, match, otherOutcome, otherSide, otherMarket, notActive)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	got, err := tx.FindEligibleOrders(ctx, Market, types.OutcomeYes, types.SideSell, num.MustDecimalFromString("0.9"))
	require.NoError(t, err)
	assert.Equal(t, []string{match.Serial}, serials(got))

	book, err := s.ListOrderBook(ctx, Market, types.OutcomeYes)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{match.Serial, otherSide.Serial}, serials(book))
}

func testTransactionBySerial(t *testing.T, s store.Store) {
	ctx := context.Background()
	o := Order(Alice, types.SideBuy, types.OutcomeYes, "0.6", 10, 0)
	Seed(t, s, o)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	tr, err := tx.GetTransactionBySerial(ctx, o.Serial)
	require.NoError(t, err)
	assert.NotZero(t, tr.ID)
	assert.Equal(t, types.TransactionStatusOpen, tr.Status)
	assert.Equal(t, uint64(10), tr.RemainingAmount)
	assert.Nil(t, tr.DealtAt)

	_, err = tx.GetTransactionBySerial(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func testUpdateAndDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	o := Order(Alice, types.SideSell, types.OutcomeYes, "0.55", 10, 0)
	Seed(t, s, o)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	tr, err := tx.GetTransactionBySerial(ctx, o.Serial)
	require.NoError(t, err)
	require.NoError(t, tr.ApplyFill(10, o.Price, epoch.Add(time.Minute)))
	require.NoError(t, tx.UpdateTransaction(ctx, tr))
	require.NoError(t, tx.DeleteOrder(ctx, o.ID))
	assert.ErrorIs(t, tx.DeleteOrder(ctx, o.ID), types.ErrNotFound)
	require.NoError(t, tx.Commit(ctx))

	book, err := s.ListOrderBook(ctx, Market, types.OutcomeYes)
	require.NoError(t, err)
	assert.Empty(t, book)

	history, err := s.ListTransactionsByUser(ctx, Alice)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, types.TransactionStatusDealt, history[0].Status)
	assert.Equal(t, uint64(10), history[0].DealAmount)
	require.NotNil(t, history[0].DealtAt)
	assert.True(t, epoch.Add(time.Minute).Equal(*history[0].DealtAt))
}

func testRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	o := Order(Alice, types.SideBuy, types.OutcomeYes, "0.6", 10, 0)
	require.NoError(t, tx.InsertOrder(ctx, o))
	require.NoError(t, tx.InsertTransaction(ctx, types.NewTransaction(o)))
	require.NoError(t, tx.Rollback(ctx))

	book, err := s.ListOrderBook(ctx, Market, types.OutcomeYes)
	require.NoError(t, err)
	assert.Empty(t, book)
	history, err := s.ListTransactionsByUser(ctx, Alice)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func testNestedRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	resting := Order(Bob, types.SideSell, types.OutcomeYes, "0.5", 10, 0)
	Seed(t, s, resting)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	taker := Order(Alice, types.SideBuy, types.OutcomeYes, "0.6", 4, time.Minute)
	require.NoError(t, tx.InsertOrder(ctx, taker))
	require.NoError(t, tx.InsertTransaction(ctx, types.NewTransaction(taker)))

	inner, err := tx.Begin(ctx)
	require.NoError(t, err)
	resting.Amount = 6
	require.NoError(t, inner.UpdateOrder(ctx, resting))
	require.NoError(t, inner.DeleteOrder(ctx, taker.ID))
	require.NoError(t, inner.Rollback(ctx))

	got, err := tx.GetOrder(ctx, resting.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), got.Amount)
	_, err = tx.GetOrder(ctx, taker.ID)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	book, err := s.ListOrderBook(ctx, Market, types.OutcomeYes)
	require.NoError(t, err)
	assert.Len(t, book, 2)
}

func testNestedCommit(t *testing.T, s store.Store) {
	ctx := context.Background()
	resting := Order(Bob, types.SideSell, types.OutcomeYes, "0.5", 10, 0)
	Seed(t, s, resting)

	t.Run("folded work commits with the parent", func(t *testing.T) {
		tx, err := s.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		inner, err := tx.Begin(ctx)
		require.NoError(t, err)
		resting.Amount = 7
		require.NoError(t, inner.UpdateOrder(ctx, resting))
		require.NoError(t, inner.Commit(ctx))

		got, err := tx.GetOrder(ctx, resting.ID)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), got.Amount)
		require.NoError(t, tx.Commit(ctx))
	})

	t.Run("folded work rolls back with the parent", func(t *testing.T) {
		tx, err := s.Begin(ctx)
		require.NoError(t, err)

		inner, err := tx.Begin(ctx)
		require.NoError(t, err)
		resting.Amount = 2
		require.NoError(t, inner.UpdateOrder(ctx, resting))
		require.NoError(t, inner.Commit(ctx))
		require.NoError(t, tx.Rollback(ctx))
	})

	book, err := s.ListOrderBook(ctx, Market, types.OutcomeYes)
	require.NoError(t, err)
	require.Len(t, book, 1)
	assert.Equal(t, uint64(7), book[0].Amount)
}

func testIsolationFromQueries(t *testing.T, s store.Store) {
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	o := Order(Alice, types.SideBuy, types.OutcomeYes, "0.6", 10, 0)
	require.NoError(t, tx.InsertOrder(ctx, o))

	book, err := s.ListOrderBook(ctx, Market, types.OutcomeYes)
	require.NoError(t, err)
	assert.Empty(t, book)

	require.NoError(t, tx.Commit(ctx))
	book, err = s.ListOrderBook(ctx, Market, types.OutcomeYes)
	require.NoError(t, err)
	assert.Len(t, book, 1)
}

func testUserHistory(t *testing.T, s store.Store) {
	ctx := context.Background()
	open := Order(Alice, types.SideBuy, types.OutcomeYes, "0.6", 10, 0)
	cancelled := Order(Alice, types.SideBuy, types.OutcomeNo, "0.3", 5, time.Second)
	other := Order(Bob, types.SideSell, types.OutcomeYes, "0.7", 5, 2*time.Second)
	Seed(t, s, open, cancelled, other)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	tr, err := tx.GetTransactionBySerial(ctx, cancelled.Serial)
	require.NoError(t, err)
	require.NoError(t, tr.Cancel())
	require.NoError(t, tx.UpdateTransaction(ctx, tr))
	require.NoError(t, tx.DeleteOrder(ctx, cancelled.ID))
	require.NoError(t, tx.Commit(ctx))

	history, err := s.ListTransactionsByUser(ctx, Alice)
	require.NoError(t, err)
	require.Len(t, history, 2)
	statuses := map[string]types.TransactionStatus{}
	for _, h := range history {
		statuses[h.Serial] = h.Status
	}
	assert.Equal(t, types.TransactionStatusOpen, statuses[open.Serial])
	assert.Equal(t, types.TransactionStatusCancelled, statuses[cancelled.Serial])
}

func testConcurrentAllocation(t *testing.T, s store.Store) {
	ctx := context.Background()
	resting := Order(Bob, types.SideSell, types.OutcomeYes, "0.5", 10, 0)
	Seed(t, s, resting)
	bound := num.MustDecimalFromString("0.6")

	first, err := s.Begin(ctx)
	require.NoError(t, err)
	defer first.Rollback(ctx)
	candidates, err := first.FindEligibleOrders(ctx, Market, types.OutcomeYes, types.SideSell, bound)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	seen := make(chan int, 1)
	go func() {
		second, err := s.Begin(ctx)
		if err != nil {
			seen <- -1
			return
		}
		defer second.Rollback(ctx)
		got, err := second.FindEligibleOrders(ctx, Market, types.OutcomeYes, types.SideSell, bound)
		if err != nil {
			seen <- -1
			return
		}
		seen <- len(got)
	}()

	// the second unit of work must wait for the first to finish
	select {
	case <-seen:
		t.Fatal("second unit of work read the candidate while it was being allocated")
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, first.DeleteOrder(ctx, resting.ID))
	require.NoError(t, first.Commit(ctx))

	select {
	case n := <-seen:
		assert.Equal(t, 0, n)
	case <-time.After(10 * time.Second):
		t.Fatal("second unit of work never completed")
	}
}

func testRollbackAfterCommit(t *testing.T, s store.Store) {
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, tx.Rollback(ctx))
	assert.Error(t, tx.Commit(ctx))

	// the store is usable again
	next, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, next.Rollback(ctx))
}
