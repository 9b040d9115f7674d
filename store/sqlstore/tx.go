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

package sqlstore

import (
	"context"
	"errors"

	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/libs/num"
	"code.funtury.io/predictmarket/logging"
	"code.funtury.io/predictmarket/store"

	"github.com/jackc/pgx/v4"
)

// sqlTx runs every statement inside a pgx transaction. Begin on a pgx
// transaction opens a savepoint, which is what nested units of work map to.
type sqlTx struct {
	tx  pgx.Tx
	log *logging.Logger
}

func (t *sqlTx) FindEligibleOrders(ctx context.Context, market string, outcome types.Outcome, side types.Side, bound num.Decimal) ([]*types.Order, error) {
	return findEligibleOrders(ctx, t.tx, market, outcome, side, bound)
}

func (t *sqlTx) GetOrder(ctx context.Context, id uint64) (*types.Order, error) {
	return getOrder(ctx, t.tx, id)
}

func (t *sqlTx) GetTransactionBySerial(ctx context.Context, serial string) (*types.Transaction, error) {
	return getTransactionBySerial(ctx, t.tx, serial)
}

func (t *sqlTx) InsertOrder(ctx context.Context, o *types.Order) error {
	return insertOrder(ctx, t.tx, o)
}

func (t *sqlTx) InsertTransaction(ctx context.Context, tr *types.Transaction) error {
	return insertTransaction(ctx, t.tx, tr)
}

func (t *sqlTx) UpdateOrder(ctx context.Context, o *types.Order) error {
	return updateOrder(ctx, t.tx, o)
}

func (t *sqlTx) UpdateTransaction(ctx context.Context, tr *types.Transaction) error {
	return updateTransaction(ctx, t.tx, tr)
}

func (t *sqlTx) DeleteOrder(ctx context.Context, id uint64) error {
	return deleteOrder(ctx, t.tx, id)
}

func (t *sqlTx) Begin(ctx context.Context) (store.Tx, error) {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return nil, wrapE("savepoint", err)
	}
	return &sqlTx{tx: sp, log: t.log}, nil
}

func (t *sqlTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return wrapE("commit", err)
	}
	return nil
}

func (t *sqlTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err == nil || errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	t.log.Warn("rollback failed", logging.Error(err))
	return wrapE("rollback", err)
}
