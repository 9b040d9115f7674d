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

package orders_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"code.funtury.io/predictmarket/core/events"
	"code.funtury.io/predictmarket/core/matching"
	mmocks "code.funtury.io/predictmarket/core/matching/mocks"
	"code.funtury.io/predictmarket/core/orders"
	"code.funtury.io/predictmarket/core/orders/mocks"
	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/libs/num"
	"code.funtury.io/predictmarket/logging"
	"code.funtury.io/predictmarket/store/memstore"
	"code.funtury.io/predictmarket/store/storetest"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type testService struct {
	*orders.Service
	ctrl       *gomock.Controller
	oracle     *mocks.MockMarketOracle
	settlement *mmocks.MockSettlement
	store      *memstore.Store
	sent       []events.Event
}

func getTestService(t *testing.T) *testService {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := logging.NewTestLogger()

	oracle := mocks.NewMockMarketOracle(ctrl)
	broker := mocks.NewMockBroker(ctrl)
	ts := mocks.NewMockTimeService(ctrl)
	ts.EXPECT().GetTimeNow().Return(now).AnyTimes()
	settlement := mmocks.NewMockSettlement(ctrl)
	mts := mmocks.NewMockTimeService(ctrl)
	mts.EXPECT().GetTimeNow().Return(now).AnyTimes()

	st := memstore.New(log)
	engine := matching.New(log, matching.NewDefaultConfig(), settlement, mts)

	svc := &testService{
		ctrl:       ctrl,
		oracle:     oracle,
		settlement: settlement,
		store:      st,
	}
	broker.EXPECT().Send(gomock.Any()).Do(func(evts ...events.Event) {
		svc.sent = append(svc.sent, evts...)
	}).AnyTimes()
	svc.Service = orders.NewService(log, orders.NewDefaultConfig(), st, oracle, engine, broker, ts)
	return svc
}

func (s *testService) marketActive() {
	s.oracle.EXPECT().EnsureActive(gomock.Any(), storetest.Market).Return(nil).AnyTimes()
}

func submission(user, side, outcome, price string, amount int64) types.OrderSubmission {
	return types.OrderSubmission{
		User:    user,
		Market:  storetest.Market,
		Outcome: outcome,
		Price:   num.MustDecimalFromString(price),
		Amount:  amount,
		Side:    side,
	}
}

func committed(hash string) *types.Receipt {
	return &types.Receipt{TxHash: hash, Status: types.ReceiptStatusCommitted, BlockNumber: 1}
}

func reverted(hash string) (*types.Receipt, error) {
	return &types.Receipt{TxHash: hash, Status: types.ReceiptStatusReverted},
		fmt.Errorf("%w: tx(%s)", types.ErrSettlementReverted, hash)
}

func TestCreate(t *testing.T) {
	t.Run("order rests on an empty book", testCreateRests)
	t.Run("partial fill rests the remainder", testCreatePartialFill)
	t.Run("full fill leaves only history", testCreateFullFill)
	t.Run("failed settlement stores nothing", testCreateSettlementFailure)
	t.Run("failure after a fill withdraws the remainder", testCreateWithdrawsRemainder)
	t.Run("store failure after a fill keeps the settled fill", testCreateStoreFailureKeepsFills)
	t.Run("inactive market is rejected before the store", testCreateMarketNotActive)
	t.Run("invalid submissions never reach the oracle", testCreateInvalid)
	t.Run("addresses are stored in checksum form", testCreateNormalisesAddresses)
}

func testCreateRests(t *testing.T) {
	s := getTestService(t)
	s.marketActive()
	ctx := context.Background()

	res, err := s.Create(ctx, submission(storetest.Alice, "buy", "yes", "0.60", 10))
	require.NoError(t, err)
	assert.Equal(t, types.FillStateUnfilled, res.FillState)
	assert.Equal(t, uint64(10), res.Order.Amount)
	assert.NotZero(t, res.Order.ID)
	assert.NotEmpty(t, res.Order.Serial)
	assert.Equal(t, types.TransactionStatusOpen, res.Transaction.Status)
	assert.True(t, now.Equal(res.Order.CreatedAt))

	book, err := s.ListOrderBook(ctx, storetest.Market, "yes")
	require.NoError(t, err)
	require.Len(t, book, 1)
	assert.Equal(t, res.Order.Serial, book[0].Serial)

	require.Len(t, s.sent, 1)
	assert.Equal(t, events.OrderEventType, s.sent[0].Type())
}

func testCreatePartialFill(t *testing.T) {
	s := getTestService(t)
	s.marketActive()
	ctx := context.Background()
	maker := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.55", 5, 0)
	storetest.Seed(t, s.store, maker)

	s.settlement.EXPECT().TransferShares(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, tr types.Transfer) (*types.Receipt, error) {
		assert.Equal(t, storetest.Bob, tr.Seller)
		assert.Equal(t, storetest.Alice, tr.Buyer)
		assert.True(t, tr.Price.Equal(num.MustDecimalFromString("0.55")))
		assert.Equal(t, uint64(5), tr.Amount)
		return committed("0x01"), nil
	})

	res, err := s.Create(ctx, submission(storetest.Alice, "buy", "yes", "0.60", 10))
	require.NoError(t, err)
	assert.Equal(t, types.FillStatePartiallyFilled, res.FillState)
	assert.Equal(t, uint64(5), res.Order.Amount)
	assert.Equal(t, uint64(5), res.Transaction.DealAmount)
	require.Len(t, res.Fills, 1)

	book, err := s.ListOrderBook(ctx, storetest.Market, "yes")
	require.NoError(t, err)
	require.Len(t, book, 1)
	assert.Equal(t, res.Order.Serial, book[0].Serial)
	assert.Equal(t, uint64(5), book[0].Amount)

	history, err := s.ListUserTransactions(ctx, storetest.Bob)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, uint64(5), history[0].DealAmount)

	// order event then one fill
	require.Len(t, s.sent, 2)
	assert.Equal(t, events.FillEventType, s.sent[1].Type())
}

func testCreateFullFill(t *testing.T) {
	s := getTestService(t)
	s.marketActive()
	ctx := context.Background()
	maker := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.60", 10, 0)
	storetest.Seed(t, s.store, maker)

	s.settlement.EXPECT().TransferShares(gomock.Any(), gomock.Any()).Return(committed("0x02"), nil)

	res, err := s.Create(ctx, submission(storetest.Alice, "buy", "yes", "0.60", 10))
	require.NoError(t, err)
	assert.Equal(t, types.FillStateFilled, res.FillState)
	assert.Equal(t, types.TransactionStatusDealt, res.Transaction.Status)
	require.NotNil(t, res.Transaction.DealtAt)

	book, err := s.ListOrderBook(ctx, storetest.Market, "yes")
	require.NoError(t, err)
	assert.Empty(t, book)

	for _, user := range []string{storetest.Alice, storetest.Bob} {
		history, err := s.ListUserTransactions(ctx, user)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, types.TransactionStatusDealt, history[0].Status)
		require.NotNil(t, history[0].DealtAt)
	}
}

func testCreateSettlementFailure(t *testing.T) {
	s := getTestService(t)
	s.marketActive()
	ctx := context.Background()
	maker := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.55", 5, 0)
	storetest.Seed(t, s.store, maker)

	s.settlement.EXPECT().TransferShares(gomock.Any(), gomock.Any()).Return(reverted("0xbad"))

	res, err := s.Create(ctx, submission(storetest.Alice, "buy", "yes", "0.60", 10))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, types.ErrSettlement)
	var serr *types.SettlementError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, maker.Serial, serr.MakerSerial)

	history, err := s.ListUserTransactions(ctx, storetest.Alice)
	require.NoError(t, err)
	assert.Empty(t, history)

	book, err := s.ListOrderBook(ctx, storetest.Market, "yes")
	require.NoError(t, err)
	require.Len(t, book, 1)
	assert.Equal(t, maker.Serial, book[0].Serial)
	assert.Equal(t, uint64(5), book[0].Amount)

	bob, err := s.ListUserTransactions(ctx, storetest.Bob)
	require.NoError(t, err)
	require.Len(t, bob, 1)
	assert.Equal(t, uint64(0), bob[0].DealAmount)

	assert.Empty(t, s.sent)
}

func testCreateWithdrawsRemainder(t *testing.T) {
	s := getTestService(t)
	s.marketActive()
	ctx := context.Background()
	first := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.50", 4, 0)
	second := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.55", 4, time.Second)
	storetest.Seed(t, s.store, first, second)

	gomock.InOrder(
		s.settlement.EXPECT().TransferShares(gomock.Any(), gomock.Any()).Return(committed("0x1"), nil),
		s.settlement.EXPECT().TransferShares(gomock.Any(), gomock.Any()).Return(reverted("0x2")),
	)

	res, err := s.Create(ctx, submission(storetest.Alice, "buy", "yes", "0.60", 10))
	assert.ErrorIs(t, err, types.ErrSettlementReverted)
	require.NotNil(t, res)
	assert.True(t, res.Withdrawn)
	assert.Equal(t, types.FillStatePartiallyFilled, res.FillState)
	assert.Equal(t, types.TransactionStatusCancelled, res.Transaction.Status)
	assert.Equal(t, uint64(4), res.Transaction.DealAmount)
	assert.Equal(t, uint64(6), res.Transaction.RemainingAmount)

	book, err := s.ListOrderBook(ctx, storetest.Market, "yes")
	require.NoError(t, err)
	require.Len(t, book, 1)
	assert.Equal(t, second.Serial, book[0].Serial)

	alice, err := s.ListUserTransactions(ctx, storetest.Alice)
	require.NoError(t, err)
	require.Len(t, alice, 1)
	assert.Equal(t, types.TransactionStatusCancelled, alice[0].Status)
	assert.Equal(t, uint64(10), alice[0].OriginalAmount())

	require.Len(t, s.sent, 2)
	assert.Equal(t, events.OrderWithdrawn, s.sent[0].(*events.Order).Action)
}

func testCreateStoreFailureKeepsFills(t *testing.T) {
	s := getTestService(t)
	s.marketActive()
	ctx := context.Background()
	first := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.50", 4, 0)
	storetest.Seed(t, s.store, first)

	// a resting order without its transaction record
	orphan := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.55", 4, time.Second)
	tx, err := s.store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertOrder(ctx, orphan))
	require.NoError(t, tx.Commit(ctx))

	s.settlement.EXPECT().TransferShares(gomock.Any(), gomock.Any()).Return(committed("0x1"), nil).Times(1)

	res, err := s.Create(ctx, submission(storetest.Alice, "buy", "yes", "0.60", 10))
	assert.ErrorIs(t, err, types.ErrStore)
	require.NotNil(t, res)
	assert.True(t, res.Withdrawn)
	require.Len(t, res.Fills, 1)
	assert.Equal(t, "0x1", res.Fills[0].TxHash)
	assert.Equal(t, types.FillStatePartiallyFilled, res.FillState)
	assert.Equal(t, uint64(4), res.Transaction.DealAmount)
	assert.Equal(t, uint64(6), res.Transaction.RemainingAmount)

	// the settled maker is consumed, it cannot be allocated again
	book, err := s.ListOrderBook(ctx, storetest.Market, "yes")
	require.NoError(t, err)
	require.Len(t, book, 1)
	assert.Equal(t, orphan.Serial, book[0].Serial)

	bob, err := s.ListUserTransactions(ctx, storetest.Bob)
	require.NoError(t, err)
	require.Len(t, bob, 1)
	assert.Equal(t, types.TransactionStatusDealt, bob[0].Status)
	assert.Equal(t, uint64(4), bob[0].DealAmount)

	alice, err := s.ListUserTransactions(ctx, storetest.Alice)
	require.NoError(t, err)
	require.Len(t, alice, 1)
	assert.Equal(t, types.TransactionStatusCancelled, alice[0].Status)
	assert.Equal(t, uint64(4), alice[0].DealAmount)
}

func testCreateMarketNotActive(t *testing.T) {
	s := getTestService(t)
	ctx := context.Background()
	s.oracle.EXPECT().EnsureActive(gomock.Any(), storetest.Market).
		Return(fmt.Errorf("%w: market %s is Resolved", types.ErrMarketNotActive, storetest.Market))

	res, err := s.Create(ctx, submission(storetest.Alice, "buy", "yes", "0.60", 10))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, types.ErrPrecondition)

	history, err := s.ListUserTransactions(ctx, storetest.Alice)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func testCreateInvalid(t *testing.T) {
	s := getTestService(t)
	ctx := context.Background()

	for name, sub := range map[string]types.OrderSubmission{
		"side":    submission(storetest.Alice, "hold", "yes", "0.6", 1),
		"outcome": submission(storetest.Alice, "buy", "maybe", "0.6", 1),
		"user":    submission("alice", "buy", "yes", "0.6", 1),
		"price":   submission(storetest.Alice, "buy", "yes", "0", 1),
		"amount":  submission(storetest.Alice, "buy", "yes", "0.6", 0),
	} {
		_, err := s.Create(ctx, sub)
		assert.ErrorIs(t, err, types.ErrValidation, name)
	}
}

func testCreateNormalisesAddresses(t *testing.T) {
	s := getTestService(t)
	s.marketActive()
	ctx := context.Background()

	sub := submission(strings.ToLower(storetest.Alice), "BUY", "Yes", "0.3", 2)
	sub.Market = strings.ToLower(storetest.Market)
	res, err := s.Create(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, storetest.Alice, res.Order.User)
	assert.Equal(t, storetest.Market, res.Order.Market)
}

func TestCancel(t *testing.T) {
	t.Run("open order is cancelled", testCancelOpen)
	t.Run("partially dealt order is cancelled", testCancelPartiallyDealt)
	t.Run("missing order is not found", testCancelMissing)
	t.Run("filled order is gone", testCancelFilled)
	t.Run("dealt transaction cannot be cancelled", testCancelDealtTransaction)
	t.Run("inactive market freezes cancellation", testCancelMarketNotActive)
}

func testCancelOpen(t *testing.T) {
	s := getTestService(t)
	s.marketActive()
	ctx := context.Background()

	res, err := s.Create(ctx, submission(storetest.Alice, "buy", "yes", "0.60", 10))
	require.NoError(t, err)

	o, tr, err := s.Cancel(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Order.Serial, o.Serial)
	assert.Equal(t, types.TransactionStatusCancelled, tr.Status)
	assert.Equal(t, uint64(10), tr.RemainingAmount)

	book, err := s.ListOrderBook(ctx, storetest.Market, "yes")
	require.NoError(t, err)
	assert.Empty(t, book)

	history, err := s.ListUserTransactions(ctx, storetest.Alice)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, types.TransactionStatusCancelled, history[0].Status)

	last := s.sent[len(s.sent)-1].(*events.Order)
	assert.Equal(t, events.OrderCancelled, last.Action)
}

func testCancelPartiallyDealt(t *testing.T) {
	s := getTestService(t)
	s.marketActive()
	ctx := context.Background()
	storetest.Seed(t, s.store, storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.5", 3, 0))
	s.settlement.EXPECT().TransferShares(gomock.Any(), gomock.Any()).Return(committed("0x1"), nil)

	res, err := s.Create(ctx, submission(storetest.Alice, "buy", "yes", "0.60", 10))
	require.NoError(t, err)

	_, tr, err := s.Cancel(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TransactionStatusCancelled, tr.Status)
	assert.Equal(t, uint64(3), tr.DealAmount)
	assert.Equal(t, uint64(7), tr.RemainingAmount)
}

func testCancelMissing(t *testing.T) {
	s := getTestService(t)
	_, _, err := s.Cancel(context.Background(), 42)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func testCancelFilled(t *testing.T) {
	s := getTestService(t)
	s.marketActive()
	ctx := context.Background()
	maker := storetest.Order(storetest.Bob, types.SideSell, types.OutcomeYes, "0.60", 10, 0)
	storetest.Seed(t, s.store, maker)
	s.settlement.EXPECT().TransferShares(gomock.Any(), gomock.Any()).Return(committed("0x1"), nil)

	res, err := s.Create(ctx, submission(storetest.Alice, "buy", "yes", "0.60", 10))
	require.NoError(t, err)
	require.Equal(t, types.FillStateFilled, res.FillState)

	_, _, err = s.Cancel(ctx, res.Order.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	history, err := s.ListUserTransactions(ctx, storetest.Alice)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, types.TransactionStatusDealt, history[0].Status)
}

func testCancelDealtTransaction(t *testing.T) {
	s := getTestService(t)
	ctx := context.Background()
	o := storetest.Order(storetest.Alice, types.SideBuy, types.OutcomeYes, "0.6", 10, 0)
	storetest.Seed(t, s.store, o)

	// an order row whose transaction is already dealt
	tx, err := s.store.Begin(ctx)
	require.NoError(t, err)
	tr, err := tx.GetTransactionBySerial(ctx, o.Serial)
	require.NoError(t, err)
	require.NoError(t, tr.ApplyFill(10, o.Price, now))
	require.NoError(t, tx.UpdateTransaction(ctx, tr))
	require.NoError(t, tx.Commit(ctx))

	_, _, err = s.Cancel(ctx, o.ID)
	assert.ErrorIs(t, err, types.ErrInvalidState)

	history, err := s.ListUserTransactions(ctx, storetest.Alice)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, types.TransactionStatusDealt, history[0].Status)
}

func testCancelMarketNotActive(t *testing.T) {
	s := getTestService(t)
	ctx := context.Background()
	o := storetest.Order(storetest.Alice, types.SideBuy, types.OutcomeYes, "0.6", 10, 0)
	storetest.Seed(t, s.store, o)
	s.oracle.EXPECT().EnsureActive(gomock.Any(), storetest.Market).Return(types.ErrMarketNotActive)

	_, _, err := s.Cancel(ctx, o.ID)
	assert.ErrorIs(t, err, types.ErrPrecondition)

	book, err := s.ListOrderBook(ctx, storetest.Market, "yes")
	require.NoError(t, err)
	assert.Len(t, book, 1)
}

func TestQueries(t *testing.T) {
	s := getTestService(t)
	ctx := context.Background()

	_, err := s.ListOrderBook(ctx, storetest.Market, "maybe")
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = s.ListOrderBook(ctx, "market", "yes")
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = s.ListUserTransactions(ctx, "0x123")
	assert.ErrorIs(t, err, types.ErrValidation)

	book, err := s.ListOrderBook(ctx, strings.ToLower(storetest.Market), "NO")
	require.NoError(t, err)
	assert.Empty(t, book)
}
