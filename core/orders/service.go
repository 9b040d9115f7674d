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

// Package orders drives the lifecycle of orders: placement, cancellation
// and the queries over the book and the transaction history.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"code.funtury.io/predictmarket/core/events"
	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/libs/crypto"
	"code.funtury.io/predictmarket/logging"
	"code.funtury.io/predictmarket/metrics"
	"code.funtury.io/predictmarket/store"
)

// MarketOracle tells whether a market accepts orders.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.funtury.io/predictmarket/core/orders MarketOracle,Broker,TimeService
type MarketOracle interface {
	EnsureActive(ctx context.Context, market string) error
}

// Matcher allocates a stored taker order against the book.
type Matcher interface {
	Match(ctx context.Context, tx store.Tx, taker *types.Order, takerTx *types.Transaction) (*types.MatchResult, error)
}

// Broker receives the events of committed work.
type Broker interface {
	Send(evts ...events.Event)
}

type TimeService interface {
	GetTimeNow() time.Time
}

type Service struct {
	log         *logging.Logger
	store       store.Store
	oracle      MarketOracle
	matcher     Matcher
	broker      Broker
	timeService TimeService
}

func NewService(
	log *logging.Logger,
	cfg Config,
	st store.Store,
	oracle MarketOracle,
	matcher Matcher,
	broker Broker,
	timeService TimeService,
) *Service {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	return &Service{
		log:         log,
		store:       st,
		oracle:      oracle,
		matcher:     matcher,
		broker:      broker,
		timeService: timeService,
	}
}

// ReloadConf updates the internal configuration.
func (s *Service) ReloadConf(cfg Config) {
	s.log.Info("reloading configuration")
	if s.log.GetLevel() != cfg.Level.Get() {
		s.log.Info("updating log level",
			logging.String("old", s.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		s.log.SetLevel(cfg.Level.Get())
	}
}

// Create validates sub, checks its market is active and matches it against
// the book. Whatever does not fill rests in the book.
//
// When matching fails before anything filled, nothing is stored and the
// error is returned. When it fails after earlier allocations settled, those
// allocations are kept, the unfilled remainder is withdrawn from the book,
// and the partial result is returned with the error.
func (s *Service) Create(ctx context.Context, sub types.OrderSubmission) (*types.SubmissionResult, error) {
	valid, err := sub.Validate()
	if err != nil {
		metrics.OrderCounterInc("create", "invalid")
		return nil, err
	}
	if err := s.oracle.EnsureActive(ctx, valid.Market); err != nil {
		metrics.OrderCounterInc("create", "rejected")
		return nil, err
	}

	order := valid.NewOrder(crypto.NewSerial(), s.timeService.GetTimeNow())
	orderTx := types.NewTransaction(order)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		metrics.OrderCounterInc("create", "error")
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := tx.InsertOrder(ctx, order); err != nil {
		metrics.OrderCounterInc("create", "error")
		return nil, err
	}
	if err := tx.InsertTransaction(ctx, orderTx); err != nil {
		metrics.OrderCounterInc("create", "error")
		return nil, err
	}

	res, matchErr := s.matcher.Match(ctx, tx, order, orderTx)
	if matchErr != nil {
		return s.handleMatchError(ctx, tx, order, res, matchErr)
	}

	if err := tx.Commit(ctx); err != nil {
		s.logLostFills(res, err)
		metrics.OrderCounterInc("create", "error")
		return nil, err
	}

	result := newSubmissionResult(order, res, false)
	s.publish(res, events.OrderCreated)
	metrics.OrderCounterInc("create", string(result.FillState))
	s.log.Info("order placed",
		logging.Order(result.Order),
		logging.String("fill-state", string(result.FillState)))
	return result, nil
}

func (s *Service) handleMatchError(ctx context.Context, tx store.Tx, order *types.Order, res *types.MatchResult, matchErr error) (*types.SubmissionResult, error) {
	outcome := "error"
	var serr *types.SettlementError
	if errors.As(matchErr, &serr) {
		outcome = "settlement_failed"
	}

	if res == nil || len(res.Fills) == 0 {
		metrics.OrderCounterInc("create", outcome)
		s.log.Info("order rejected, nothing settled",
			logging.OrderSerial(order.Serial),
			logging.Error(matchErr))
		return nil, matchErr
	}

	// earlier allocations are final on-chain whatever stopped the matching,
	// only the remainder goes
	if err := s.withdraw(ctx, tx, res); err != nil {
		s.logLostFills(res, err)
		metrics.OrderCounterInc("create", "error")
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		s.logLostFills(res, err)
		metrics.OrderCounterInc("create", "error")
		return nil, err
	}

	result := newSubmissionResult(order, res, true)
	s.publish(res, events.OrderWithdrawn)
	metrics.OrderCounterInc("create", outcome)
	s.log.Warn("order partially filled then withdrawn",
		logging.OrderSerial(order.Serial),
		logging.Uint64("filled", res.Filled()),
		logging.Uint64("withdrawn", res.Order.Amount),
		logging.Transaction(result.Transaction),
		logging.Error(matchErr))
	return result, matchErr
}

func (s *Service) withdraw(ctx context.Context, tx store.Tx, res *types.MatchResult) error {
	t := res.Transaction.Clone()
	if err := t.Cancel(); err != nil {
		return err
	}
	if err := tx.UpdateTransaction(ctx, t); err != nil {
		return err
	}
	if err := tx.DeleteOrder(ctx, res.Order.ID); err != nil {
		return err
	}
	res.Transaction = t
	res.Deleted = append(res.Deleted, res.Order.Serial)
	return nil
}

// logLostFills reports settled allocations that will not be recorded
// because the unit of work is abandoned.
func (s *Service) logLostFills(res *types.MatchResult, err error) {
	if res == nil {
		return
	}
	for _, f := range res.Fills {
		s.log.Error("settled allocation lost, reconciliation needed",
			logging.TxHash(f.TxHash),
			logging.Fill(f),
			logging.Error(err))
	}
}

func newSubmissionResult(order *types.Order, res *types.MatchResult, withdrawn bool) *types.SubmissionResult {
	return &types.SubmissionResult{
		Order:       res.Order,
		Transaction: res.Transaction,
		Fills:       res.Fills,
		FillState:   types.FillStateFor(res.Filled(), order.Amount),
		Withdrawn:   withdrawn,
	}
}

func (s *Service) publish(res *types.MatchResult, action events.OrderAction) {
	evts := make([]events.Event, 0, len(res.Fills)+1)
	evts = append(evts, events.NewOrderEvent(action, res.Order, res.Transaction))
	for _, f := range res.Fills {
		evts = append(evts, events.NewFillEvent(f))
	}
	s.broker.Send(evts...)
}

// Cancel takes an open or partially dealt order off the book. Its
// transaction is kept as cancelled with its remaining amount.
func (s *Service) Cancel(ctx context.Context, id uint64) (*types.Order, *types.Transaction, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	order, err := tx.GetOrder(ctx, id)
	if err != nil {
		metrics.OrderCounterInc("cancel", "not_found")
		return nil, nil, err
	}
	t, err := tx.GetTransactionBySerial(ctx, order.Serial)
	if err != nil {
		metrics.OrderCounterInc("cancel", "not_found")
		return nil, nil, err
	}
	if !t.IsCancellable() {
		metrics.OrderCounterInc("cancel", "invalid")
		return nil, nil, fmt.Errorf("%w: transaction %s is %s", types.ErrOrderCannotBeCancelled, t.Serial, t.Status)
	}
	if err := s.oracle.EnsureActive(ctx, order.Market); err != nil {
		metrics.OrderCounterInc("cancel", "rejected")
		return nil, nil, err
	}

	if err := t.Cancel(); err != nil {
		return nil, nil, err
	}
	if err := tx.UpdateTransaction(ctx, t); err != nil {
		return nil, nil, err
	}
	if err := tx.DeleteOrder(ctx, order.ID); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	s.broker.Send(events.NewOrderEvent(events.OrderCancelled, order, t))
	metrics.OrderCounterInc("cancel", "ok")
	s.log.Info("order cancelled",
		logging.OrderID(order.ID),
		logging.OrderSerial(order.Serial),
		logging.Transaction(t))
	return order, t, nil
}

// ListOrderBook returns the resting orders of one market outcome.
func (s *Service) ListOrderBook(ctx context.Context, market, outcome string) ([]*types.Order, error) {
	addr, err := crypto.NormaliseEthereumAddress(market)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidMarketAddress, market)
	}
	oc, err := types.ParseOutcome(outcome)
	if err != nil {
		return nil, err
	}
	book, err := s.store.ListOrderBook(ctx, addr, oc)
	if err != nil {
		return nil, err
	}
	metrics.BookGaugeSet(len(book), string(oc))
	return book, nil
}

// ListUserTransactions returns every transaction of user, whatever its
// status.
func (s *Service) ListUserTransactions(ctx context.Context, user string) ([]*types.Transaction, error) {
	addr, err := crypto.NormaliseEthereumAddress(user)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidUserAddress, user)
	}
	return s.store.ListTransactionsByUser(ctx, addr)
}
