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

package sqlstore_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/logging"
	"code.funtury.io/predictmarket/store"
	"code.funtury.io/predictmarket/store/sqlstore"
	"code.funtury.io/predictmarket/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testStore    *sqlstore.SQLStore
	testStoreErr error
)

func TestMain(m *testing.M) {
	config := sqlstore.NewDefaultConfig()
	config.ConnectionConfig.Port = 38233
	config.UseEmbedded = true
	testStore, testStoreErr = sqlstore.InitialiseTestStorage(logging.NewTestLogger(), config)
	if testStoreErr != nil {
		fmt.Fprintf(os.Stderr, "embedded postgres unavailable, sql store tests will be skipped: %v\n", testStoreErr)
	}

	code := m.Run()
	if testStore != nil {
		_ = testStore.Close()
	}
	os.Exit(code)
}

func newStore(t *testing.T) store.Store {
	t.Helper()
	if testStoreErr != nil {
		t.Skipf("embedded postgres unavailable: %v", testStoreErr)
	}
	require.NoError(t, testStore.DeleteEverything(context.Background()))
	return testStore
}

func TestSQLStore(t *testing.T) {
	storetest.Run(t, newStore)
}

func TestFailedStatementOnlyAbortsTheSavepoint(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	o := storetest.Order(storetest.Alice, types.SideSell, types.OutcomeYes, "0.5", 10, 0)
	storetest.Seed(t, s, o)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	inner, err := tx.Begin(ctx)
	require.NoError(t, err)
	// a duplicate serial violates the unique constraint
	dup := storetest.Order(storetest.Alice, types.SideSell, types.OutcomeYes, "0.5", 10, 0)
	dup.Serial = o.Serial
	assert.ErrorIs(t, inner.InsertOrder(ctx, dup), types.ErrStore)
	require.NoError(t, inner.Rollback(ctx))

	got, err := tx.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Serial, got.Serial)
	require.NoError(t, tx.Commit(ctx))
}

func TestUserHistoryIgnoresAddressCase(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	o := storetest.Order(storetest.Alice, types.SideBuy, types.OutcomeYes, "0.25", 4, 0)
	storetest.Seed(t, s, o)

	history, err := s.ListTransactionsByUser(ctx, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, o.Serial, history[0].Serial)
	assert.True(t, history[0].Price.Equal(o.Price))
}
