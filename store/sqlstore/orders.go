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

const orderColumns = `id, order_serial, user_address, market_address, outcome, price, amount, side, market_state, created_at`

type orderRow struct {
	ID            int64       `db:"id"`
	OrderSerial   string      `db:"order_serial"`
	UserAddress   string      `db:"user_address"`
	MarketAddress string      `db:"market_address"`
	Outcome       string      `db:"outcome"`
	Price         num.Decimal `db:"price"`
	Amount        int64       `db:"amount"`
	Side          string      `db:"side"`
	MarketState   string      `db:"market_state"`
	CreatedAt     time.Time   `db:"created_at"`
}

func (r orderRow) toOrder() *types.Order {
	return &types.Order{
		ID:          uint64(r.ID),
		Serial:      r.OrderSerial,
		User:        r.UserAddress,
		Market:      r.MarketAddress,
		Outcome:     types.Outcome(r.Outcome),
		Price:       r.Price,
		Amount:      uint64(r.Amount),
		Side:        types.Side(r.Side),
		MarketState: types.MarketState(r.MarketState),
		CreatedAt:   r.CreatedAt,
	}
}

func toOrders(rows []orderRow) []*types.Order {
	out := make([]*types.Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toOrder())
	}
	return out
}

func checkOrderAmount(o *types.Order) error {
	if o.Amount == 0 {
		return fmt.Errorf("%w: cannot store order %s with zero amount", types.ErrStore, o.Serial)
	}
	return nil
}

// findEligibleOrders locks the candidates it returns until the unit of work
// ends, so no other taker can allocate them meanwhile.
func findEligibleOrders(ctx context.Context, conn Connection, market string, outcome types.Outcome, side types.Side, bound num.Decimal) ([]*types.Order, error) {
	defer metrics.StartSQLQuery("Orders", "FindEligible")()

	query := `SELECT ` + orderColumns + ` FROM orders
WHERE market_address = $1 AND outcome = $2 AND side = $3
AND amount > 0 AND market_state = $4 AND `
	if side == types.SideSell {
		query += `price <= $5 ORDER BY price ASC, created_at ASC, id ASC FOR UPDATE`
	} else {
		query += `price >= $5 ORDER BY price DESC, created_at ASC, id ASC FOR UPDATE`
	}

	rows := []orderRow{}
	if err := pgxscan.Select(ctx, conn, &rows, query,
		market, string(outcome), string(side), string(types.MarketStateActive), bound); err != nil {
		return nil, wrapE("querying eligible orders", err)
	}
	return toOrders(rows), nil
}

func getOrder(ctx context.Context, conn Connection, id uint64) (*types.Order, error) {
	defer metrics.StartSQLQuery("Orders", "GetByID")()
	row := orderRow{}
	err := pgxscan.Get(ctx, conn, &row,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, int64(id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", types.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, wrapE("querying order", err)
	}
	return row.toOrder(), nil
}

func insertOrder(ctx context.Context, conn Connection, o *types.Order) error {
	if err := checkOrderAmount(o); err != nil {
		return err
	}
	defer metrics.StartSQLQuery("Orders", "Insert")()

	var id int64
	err := conn.QueryRow(ctx, `INSERT INTO orders (
		order_serial, user_address, market_address, outcome, price, amount, side, market_state, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id`,
		o.Serial,
		o.User,
		o.Market,
		string(o.Outcome),
		o.Price,
		int64(o.Amount),
		string(o.Side),
		string(o.MarketState),
		o.CreatedAt,
	).Scan(&id)
	if err != nil {
		return wrapE("inserting order", err)
	}
	o.ID = uint64(id)
	return nil
}

func updateOrder(ctx context.Context, conn Connection, o *types.Order) error {
	if err := checkOrderAmount(o); err != nil {
		return err
	}
	defer metrics.StartSQLQuery("Orders", "Update")()

	tag, err := conn.Exec(ctx, `UPDATE orders SET amount = $2, market_state = $3 WHERE id = $1`,
		int64(o.ID), int64(o.Amount), string(o.MarketState))
	if err != nil {
		return wrapE("updating order", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", types.ErrOrderNotFound, o.ID)
	}
	return nil
}

func deleteOrder(ctx context.Context, conn Connection, id uint64) error {
	defer metrics.StartSQLQuery("Orders", "Delete")()

	tag, err := conn.Exec(ctx, `DELETE FROM orders WHERE id = $1`, int64(id))
	if err != nil {
		return wrapE("deleting order", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", types.ErrOrderNotFound, id)
	}
	return nil
}

func listOrderBook(ctx context.Context, conn Connection, market string, outcome types.Outcome) ([]*types.Order, error) {
	defer metrics.StartSQLQuery("Orders", "ListOrderBook")()

	rows := []orderRow{}
	err := pgxscan.Select(ctx, conn, &rows, `SELECT `+orderColumns+` FROM orders
WHERE market_address = $1 AND outcome = $2 AND amount > 0 AND market_state = $3
ORDER BY id`,
		market, string(outcome), string(types.MarketStateActive))
	if err != nil {
		return nil, wrapE("querying order book", err)
	}
	return toOrders(rows), nil
}
