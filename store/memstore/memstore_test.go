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

package memstore_test

import (
	"context"
	"testing"
	"time"

	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/logging"
	"code.funtury.io/predictmarket/store"
	"code.funtury.io/predictmarket/store/memstore"
	"code.funtury.io/predictmarket/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) store.Store {
	t.Helper()
	s := memstore.New(logging.NewTestLogger())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMemStore(t *testing.T) {
	storetest.Run(t, newStore)
}

func TestBeginHonoursContext(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = s.Begin(waitCtx)
	assert.ErrorIs(t, err, types.ErrStore)
}

func TestParentIsLockedWhileNestedIsOpen(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	inner, err := tx.Begin(ctx)
	require.NoError(t, err)

	o := storetest.Order(storetest.Alice, types.SideBuy, types.OutcomeYes, "0.5", 1, 0)
	assert.ErrorIs(t, tx.InsertOrder(ctx, o), types.ErrStore)
	assert.ErrorIs(t, tx.Commit(ctx), types.ErrStore)

	require.NoError(t, inner.Rollback(ctx))
	require.NoError(t, tx.InsertOrder(ctx, o))
	require.NoError(t, tx.Commit(ctx))
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	o := storetest.Order(storetest.Alice, types.SideBuy, types.OutcomeYes, "0.5", 4, 0)
	storetest.Seed(t, s, o)

	// mutating the caller's copy must not leak into the store
	o.Amount = 1

	book, err := s.ListOrderBook(ctx, storetest.Market, types.OutcomeYes)
	require.NoError(t, err)
	require.Len(t, book, 1)
	assert.Equal(t, uint64(4), book[0].Amount)

	book[0].Amount = 2
	again, err := s.ListOrderBook(ctx, storetest.Market, types.OutcomeYes)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), again[0].Amount)
}
