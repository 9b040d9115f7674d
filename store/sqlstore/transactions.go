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
	"fmt"
	"time"

	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/libs/num"
	"code.funtury.io/predictmarket/metrics"

	"github.com/georgysavva/scany/pgxscan"
	"github.com/jackc/pgx/v4"
)

const transactionColumns = `id, order_serial, user_address, market_address, outcome, side,
deal_amount, remaining_amount, price, status, created_at, dealt_at`

type transactionRow struct {
	ID              int64       `db:"id"`
	OrderSerial     string      `db:"order_serial"`
	UserAddress     string      `db:"user_address"`
	MarketAddress   string      `db:"market_address"`
	Outcome         string      `db:"outcome"`
	Side            string      `db:"side"`
	DealAmount      int64       `db:"deal_amount"`
	RemainingAmount int64       `db:"remaining_amount"`
	Price           num.Decimal `db:"price"`
	Status          string      `db:"status"`
	CreatedAt       time.Time   `db:"created_at"`
	DealtAt         *time.Time  `db:"dealt_at"`
}

func (r transactionRow) toTransaction() *types.Transaction {
	return &types.Transaction{
		ID:              uint64(r.ID),
		Serial:          r.OrderSerial,
		User:            r.UserAddress,
		Market:          r.MarketAddress,
		Outcome:         types.Outcome(r.Outcome),
		Side:            types.Side(r.Side),
		DealAmount:      uint64(r.DealAmount),
		RemainingAmount: uint64(r.RemainingAmount),
		Price:           r.Price,
		Status:          types.TransactionStatus(r.Status),
		CreatedAt:       r.CreatedAt,
		DealtAt:         r.DealtAt,
	}
}

func getTransactionBySerial(ctx context.Context, conn Connection, serial string) (*types.Transaction, error) {
	defer metrics.StartSQLQuery("Transactions", "GetBySerial")()

	row := transactionRow{}
	err := pgxscan.Get(ctx, conn, &row, `SELECT `+transactionColumns+` FROM transactions
WHERE order_serial = $1 ORDER BY id LIMIT 1 FOR UPDATE`, serial)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: serial %s", types.ErrTransactionNotFound, serial)
	}
	if err != nil {
		return nil, wrapE("querying transaction", err)
	}
	return row.toTransaction(), nil
}

func insertTransaction(ctx context.Context, conn Connection, t *types.Transaction) error {
	defer metrics.StartSQLQuery("Transactions", "Insert")()

	var id int64
	err := conn.QueryRow(ctx, `INSERT INTO transactions (
		order_serial, user_address, market_address, outcome, side,
		deal_amount, remaining_amount, price, status, created_at, dealt_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id`,
		t.Serial,
		t.User,
		t.Market,
		string(t.Outcome),
		string(t.Side),
		int64(t.DealAmount),
		int64(t.RemainingAmount),
		t.Price,
		string(t.Status),
		t.CreatedAt,
		t.DealtAt,
	).Scan(&id)
	if err != nil {
		return wrapE("inserting transaction", err)
	}
	t.ID = uint64(id)
	return nil
}

func updateTransaction(ctx context.Context, conn Connection, t *types.Transaction) error {
	defer metrics.StartSQLQuery("Transactions", "Update")()

	tag, err := conn.Exec(ctx, `UPDATE transactions
SET deal_amount = $2, remaining_amount = $3, price = $4, status = $5, dealt_at = $6
WHERE id = $1`,
		int64(t.ID),
		int64(t.DealAmount),
		int64(t.RemainingAmount),
		t.Price,
		string(t.Status),
		t.DealtAt,
	)
	if err != nil {
		return wrapE("updating transaction", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", types.ErrTransactionNotFound, t.ID)
	}
	return nil
}

func listTransactionsByUser(ctx context.Context, conn Connection, user string) ([]*types.Transaction, error) {
	defer metrics.StartSQLQuery("Transactions", "ListByUser")()

	rows := []transactionRow{}
	err := pgxscan.Select(ctx, conn, &rows, `SELECT `+transactionColumns+` FROM transactions
WHERE lower(user_address) = lower($1) ORDER BY id`, user)
	if err != nil {
		return nil, wrapE("querying user transactions", err)
	}
	out := make([]*types.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toTransaction())
	}
	return out, nil
}
