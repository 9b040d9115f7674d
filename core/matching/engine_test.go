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

package matching_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"code.funtury.io/predictmarket/core/matching"
	"code.funtury.io/predictmarket/core/matching/mocks"
	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/libs/num"
	"code.funtury.io/predictmarket/logging"
	"code.funtury.io/predictmarket/store"
	"code.funtury.io/predictmarket/store/memstore"
	"code.funtury.io/predictmarket/store/storetest"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type testEngine struct {
	*matching.Engine
	ctrl       *gomock.Controller
	settlement *mocks.MockSettlement
	store      *memstore.Store
}

func getTestEngine(t *testing.T) *testEngine {
	t.Helper()
	ctrl := gomock.NewController(t)
	settlement := mocks.NewMockSettlement(ctrl)
	ts := mocks.NewMockTimeService(ctrl)
	ts.EXPECT().GetTimeNow().Return(now).AnyTimes()

	log := logging.NewTestLogger()
	return &testEngine{
		Engine:     matching.New(log, matching.NewDefaultConfig(), settlement, ts),
		ctrl:       ctrl,
		settlement: settlement,
		store:      memstore.New(log),
	}
}

// transferEq matches a transfer comparing prices by value.
type transferEq struct {
	seller, buyer string
	isYes         bool
	price         string
	amount        uint64
}

func (m transferEq) Matches(x interface{}) bool {
	t, ok := x.(types.Transfer)
	if !ok {
		return false
	}
	return t.Market == storetest.Market &&
		t.Seller == m.seller &&
		t.Buyer == m.buyer &&
		t.IsYes == m.isYes &&
		t.Price.Equal(num.MustDecimalFromString(m.price)) &&
		t.Amount == m.amount
}

func (m transferEq) String() string {
	return fmt.Sprintf("transfer of %d at %s from %s to %s", m.amount, m.price, m.seller, m.buyer)
}

func committed(hash string) *types.Receipt {
	return &types.Receipt{TxHash: hash, Status: types.ReceiptStatusCommitted, BlockNumber: 1}
}

// begin opens a unit of work holding taker and its transaction.
func (e *testEngine) begin(t *testing.T, taker *types.Order) (store.Tx, *types.Transaction) {
	t.Helper()
	ctx := context.Background()
	tx, err := e.store.Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(ctx) })

	takerTx := types.NewTransaction(taker)
	require.NoError(t, tx.InsertOrder(ctx, taker))
	require.NoError(t, tx.InsertTransaction(ctx, takerTx))
	return tx, takerTx
}

func TestMatchScenarios(t *testing.T) {
	t.Run("empty book leaves the order resting", testEmptyBook)
	t.Run("partial fill at the maker price", testPartialFillAtMakerPrice)
	t.Run("full fill removes both orders", testFullFill)
	t.Run("reverted settlement changes nothing", testRevertedSettlement)
}

func testEmptyBook(t *testing.T) {
	e := getTestEngine(t)
	ctx := context.Background()
	taker := storetest.Order(storetest.Alice, types.SideBuy, types.OutcomeYes, "0.60", 10, time.Minute)
	tx, takerTx := e.begin(t, taker)

	res, err := e.Match(ctx, tx, taker, takerTx)
	require.NoError(t, err)
	assert.Empty(t, res.Fills)
	assert.Equal(t, uint64(10), res.Order.Amount)
	assert.Equal(t, types.TransactionStatusOpen, res.Transaction.Status)
	require.NoError(t, tx.Commit(ctx))

	book, err := e.store.ListOrderBook(ctx, storetest.Market, types.OutcomeYes)
	require.NoError(t, err)
	require.Len(t, book, 1)
	assert.Equal(t, uint64(10), book[0].Amount)
}

func testPartialFillAtMakerPrice(t *testing.T) {
	e := getTestEngine(t)
	ctx := context.Background()
	maker := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.55", 5, 0)
	storetest.Seed(t, e.store, maker)

	taker := storetest.Order(storetest.Alice, types.SideBuy, types.OutcomeYes, "0.60", 10, time.Minute)
	tx, takerTx := e.begin(t, taker)

	e.settlement.EXPECT().TransferShares(gomock.Any(), transferEq{
		seller: storetest.Bob, buyer: storetest.Alice, isYes: true, price: "0.55", amount: 5,
	}).Return(committed("0x01"), nil)

	res, err := e.Match(ctx, tx, taker, takerTx)
	require.NoError(t, err)
	require.Len(t, res.Fills, 1)
	assert.True(t, res.Fills[0].Price.Equal(num.MustDecimalFromString("0.55")))
	assert.Equal(t, "0x01", res.Fills[0].TxHash)
	assert.Equal(t, uint64(5), res.Order.Amount)
	assert.Equal(t, uint64(5), res.Transaction.DealAmount)
	assert.Equal(t, uint64(5), res.Transaction.RemainingAmount)
	assert.Equal(t, types.TransactionStatusPartiallyDealt, res.Transaction.Status)
	assert.Equal(t, []string{maker.Serial}, res.Deleted)
	// the caller's objects are untouched
	assert.Equal(t, uint64(10), taker.Amount)
	assert.Equal(t, uint64(0), takerTx.DealAmount)
	require.NoError(t, tx.Commit(ctx))

	book, err := e.store.ListOrderBook(ctx, storetest.Market, types.OutcomeYes)
	require.NoError(t, err)
	require.Len(t, book, 1)
	assert.Equal(t, taker.Serial, book[0].Serial)
	assert.Equal(t, uint64(5), book[0].Amount)

	bob, err := e.store.ListTransactionsByUser(ctx, storetest.Bob)
	require.NoError(t, err)
	require.Len(t, bob, 1)
	assert.Equal(t, uint64(5), bob[0].DealAmount)
	assert.Equal(t, types.TransactionStatusDealt, bob[0].Status)

	alice, err := e.store.ListTransactionsByUser(ctx, storetest.Alice)
	require.NoError(t, err)
	require.Len(t, alice, 1)
	assert.Equal(t, uint64(5), alice[0].DealAmount)
	assert.True(t, alice[0].Price.Equal(num.MustDecimalFromString("0.55")))
}

func testFullFill(t *testing.T) {
	e := getTestEngine(t)
	ctx := context.Background()
	maker := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.60", 10, 0)
	storetest.Seed(t, e.store, maker)

	taker := storetest.Order(storetest.Alice, types.SideBuy, types.OutcomeYes, "0.60", 10, time.Minute)
	tx, takerTx := e.begin(t, taker)

	e.settlement.EXPECT().TransferShares(gomock.Any(), transferEq{
		seller: storetest.Bob, buyer: storetest.Alice, isYes: true, price: "0.60", amount: 10,
	}).Return(committed("0x02"), nil)

	res, err := e.Match(ctx, tx, taker, takerTx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.Order.Amount)
	assert.Equal(t, types.TransactionStatusDealt, res.Transaction.Status)
	assert.ElementsMatch(t, []string{maker.Serial, taker.Serial}, res.Deleted)
	require.NoError(t, tx.Commit(ctx))

	book, err := e.store.ListOrderBook(ctx, storetest.Market, types.OutcomeYes)
	require.NoError(t, err)
	assert.Empty(t, book)

	for _, user := range []string{storetest.Alice, storetest.Bob} {
		history, err := e.store.ListTransactionsByUser(ctx, user)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, types.TransactionStatusDealt, history[0].Status)
		assert.Equal(t, uint64(10), history[0].DealAmount)
		assert.Equal(t, uint64(0), history[0].RemainingAmount)
		require.NotNil(t, history[0].DealtAt)
		assert.True(t, now.Equal(*history[0].DealtAt))
	}
}

func testRevertedSettlement(t *testing.T) {
	e := getTestEngine(t)
	ctx := context.Background()
	maker := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.55", 5, 0)
	storetest.Seed(t, e.store, maker)

	taker := storetest.Order(storetest.Alice, types.SideBuy, types.OutcomeYes, "0.60", 10, time.Minute)
	tx, takerTx := e.begin(t, taker)

	e.settlement.EXPECT().TransferShares(gomock.Any(), gomock.Any()).
		Return(&types.Receipt{TxHash: "0xdead", Status: types.ReceiptStatusReverted}, fmt.Errorf("%w: tx(0xdead)", types.ErrSettlementReverted))

	res, err := e.Match(ctx, tx, taker, takerTx)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrSettlement)

	var serr *types.SettlementError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, maker.Serial, serr.MakerSerial)
	assert.Equal(t, "0xdead", serr.TxHash)
	assert.True(t, serr.Reverted)
	assert.Equal(t, uint64(5), serr.Transfer.Amount)

	assert.Empty(t, res.Fills)
	assert.Equal(t, uint64(0), res.Transaction.DealAmount)

	got, err := tx.GetOrder(ctx, maker.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got.Amount)
	makerTx, err := tx.GetTransactionBySerial(ctx, maker.Serial)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), makerTx.DealAmount)
	current, err := tx.GetTransactionBySerial(ctx, taker.Serial)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), current.DealAmount)
}

func TestPriority(t *testing.T) {
	t.Run("buy takes the cheapest sells first", testBuyPriority)
	t.Run("sell takes the highest buys first", testSellPriority)
	t.Run("equal prices fill oldest first", testTimePriority)
}

func testBuyPriority(t *testing.T) {
	e := getTestEngine(t)
	ctx := context.Background()
	a := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.58", 3, 0)
	b := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.52", 3, time.Second)
	c := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.61", 3, 2*time.Second)
	d := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.60", 3, 3*time.Second)
	storetest.Seed(t, e.store, a, b, c, d)

	taker := storetest.Order(storetest.Alice, types.SideBuy, types.OutcomeYes, "0.60", 10, time.Minute)
	tx, takerTx := e.begin(t, taker)

	gomock.InOrder(
		e.settlement.EXPECT().TransferShares(gomock.Any(), transferEq{storetest.Bob, storetest.Alice, true, "0.52", 3}).Return(committed("0x1"), nil),
		e.settlement.EXPECT().TransferShares(gomock.Any(), transferEq{storetest.Bob, storetest.Alice, true, "0.58", 3}).Return(committed("0x2"), nil),
		e.settlement.EXPECT().TransferShares(gomock.Any(), transferEq{storetest.Bob, storetest.Alice, true, "0.60", 3}).Return(committed("0x3"), nil),
	)

	res, err := e.Match(ctx, tx, taker, takerTx)
	require.NoError(t, err)
	assert.Len(t, res.Fills, 3)
	assert.Equal(t, uint64(9), res.Filled())
	assert.Equal(t, uint64(1), res.Order.Amount)
	assert.Equal(t, []string{b.Serial, a.Serial, d.Serial}, res.Deleted)
	assert.True(t, res.Transaction.Price.Equal(num.MustDecimalFromString("0.60")))

	rest, err := tx.GetOrder(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), rest.Amount)
}

func testSellPriority(t *testing.T) {
	e := getTestEngine(t)
	ctx := context.Background()
	low := storetest.Order(storetest.Bob, types.SideBuy, types.OutcomeNo, "0.39", 4, 0)
	high := storetest.Order(storetest.Bob, types.SideBuy, types.OutcomeNo, "0.47", 4, time.Second)
	mid := storetest.Order(storetest.Bob, types.SideBuy, types.OutcomeNo, "0.45", 4, 2*time.Second)
	storetest.Seed(t, e.store, low, high, mid)

	taker := storetest.Order(storetest.Alice, types.SideSell, types.OutcomeNo, "0.40", 6, time.Minute)
	tx, takerTx := e.begin(t, taker)

	gomock.InOrder(
		e.settlement.EXPECT().TransferShares(gomock.Any(), transferEq{storetest.Alice, storetest.Bob, false, "0.47", 4}).Return(committed("0x1"), nil),
		e.settlement.EXPECT().TransferShares(gomock.Any(), transferEq{storetest.Alice, storetest.Bob, false, "0.45", 2}).Return(committed("0x2"), nil),
	)

	res, err := e.Match(ctx, tx, taker, takerTx)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), res.Filled())
	assert.Equal(t, []string{high.Serial, taker.Serial}, res.Deleted)

	rest, err := tx.GetOrder(ctx, mid.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rest.Amount)
	midTx, err := tx.GetTransactionBySerial(ctx, mid.Serial)
	require.NoError(t, err)
	assert.Equal(t, types.TransactionStatusPartiallyDealt, midTx.Status)
}

func testTimePriority(t *testing.T) {
	e := getTestEngine(t)
	ctx := context.Background()
	late := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.5", 2, 2*time.Second)
	early := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.5", 2, time.Second)
	storetest.Seed(t, e.store, late, early)

	taker := storetest.Order(storetest.Alice, types.SideBuy, types.OutcomeYes, "0.5", 2, time.Minute)
	tx, takerTx := e.begin(t, taker)

	e.settlement.EXPECT().TransferShares(gomock.Any(), gomock.Any()).Return(committed("0x1"), nil)

	res, err := e.Match(ctx, tx, taker, takerTx)
	require.NoError(t, err)
	require.Len(t, res.Fills, 1)
	assert.Equal(t, early.Serial, res.Fills[0].MakerSerial)
}

func TestFailureMidway(t *testing.T) {
	e := getTestEngine(t)
	ctx := context.Background()
	first := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.50", 4, 0)
	second := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.55", 4, time.Second)
	storetest.Seed(t, e.store, first, second)

	taker := storetest.Order(storetest.Alice, types.SideBuy, types.OutcomeYes, "0.60", 10, time.Minute)
	tx, takerTx := e.begin(t, taker)

	gomock.InOrder(
		e.settlement.EXPECT().TransferShares(gomock.Any(), gomock.Any()).Return(committed("0x1"), nil),
		e.settlement.EXPECT().TransferShares(gomock.Any(), gomock.Any()).
			Return(&types.Receipt{TxHash: "0x2"}, fmt.Errorf("%w: tx(0x2)", types.ErrSettlementTimeout)),
	)

	res, err := e.Match(ctx, tx, taker, takerTx)
	var serr *types.SettlementError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, second.Serial, serr.MakerSerial)
	assert.False(t, serr.Reverted)
	assert.Equal(t, "0x2", serr.TxHash)
	assert.ErrorIs(t, err, types.ErrSettlementTimeout)

	// the first allocation stands
	require.Len(t, res.Fills, 1)
	assert.Equal(t, uint64(6), res.Order.Amount)
	assert.Equal(t, uint64(4), res.Transaction.DealAmount)
	_, err = tx.GetOrder(ctx, first.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	// the second is untouched
	got, err := tx.GetOrder(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), got.Amount)
	current, err := tx.GetOrder(ctx, taker.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), current.Amount)
}

// crossedTx hands out a candidate regardless of the taker's limit.
type crossedTx struct {
	store.Tx
	candidate *types.Order
}

func (c crossedTx) FindEligibleOrders(context.Context, string, types.Outcome, types.Side, num.Decimal) ([]*types.Order, error) {
	return []*types.Order{c.candidate}, nil
}

func TestNeverSettlesOutsideTheLimit(t *testing.T) {
	e := getTestEngine(t)
	ctx := context.Background()
	expensive := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.70", 5, 0)
	storetest.Seed(t, e.store, expensive)

	taker := storetest.Order(storetest.Alice, types.SideBuy, types.OutcomeYes, "0.60", 5, time.Minute)
	tx, takerTx := e.begin(t, taker)

	res, err := e.Match(ctx, crossedTx{Tx: tx, candidate: expensive}, taker, takerTx)
	assert.ErrorIs(t, err, types.ErrCandidateOutsideLimit)
	assert.Empty(t, res.Fills)
}

func TestMissingMakerTransaction(t *testing.T) {
	e := getTestEngine(t)
	ctx := context.Background()

	seed, err := e.store.Begin(ctx)
	require.NoError(t, err)
	orphan := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.50", 5, 0)
	require.NoError(t, seed.InsertOrder(ctx, orphan))
	require.NoError(t, seed.Commit(ctx))

	taker := storetest.Order(storetest.Alice, types.SideBuy, types.OutcomeYes, "0.60", 5, time.Minute)
	tx, takerTx := e.begin(t, taker)

	_, err = e.Match(ctx, tx, taker, takerTx)
	assert.ErrorIs(t, err, types.ErrStore)
}
