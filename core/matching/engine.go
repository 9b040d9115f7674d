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

// Package matching allocates an incoming order against the resting orders
// of the opposite side and settles every allocation before recording it.
package matching

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/libs/num"
	"code.funtury.io/predictmarket/logging"
	"code.funtury.io/predictmarket/metrics"
	"code.funtury.io/predictmarket/store"
)

// Settlement transfers shares on-chain and reports the mined receipt.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.funtury.io/predictmarket/core/matching Settlement,TimeService
type Settlement interface {
	TransferShares(ctx context.Context, t types.Transfer) (*types.Receipt, error)
}

// TimeService gives the time fills are stamped with.
type TimeService interface {
	GetTimeNow() time.Time
}

type Engine struct {
	log         *logging.Logger
	settlement  Settlement
	timeService TimeService

	mu  sync.RWMutex
	cfg Config
}

func New(log *logging.Logger, cfg Config, settlement Settlement, timeService TimeService) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	return &Engine{
		log:         log,
		cfg:         cfg,
		settlement:  settlement,
		timeService: timeService,
	}
}

// ReloadConf updates the internal configuration.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}

	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
}

func (e *Engine) logMatchedOrders() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg.LogMatchedOrdersDebug
}

// Candidates returns the resting orders o can trade with, in the order they
// are to be matched.
func (e *Engine) Candidates(ctx context.Context, tx store.Tx, o *types.Order) ([]*types.Order, error) {
	return tx.FindEligibleOrders(ctx, o.Market, o.Outcome, o.Side.Opposite(), o.Price)
}

// Match allocates taker against the book inside tx. The taker order and its
// transaction must already be stored in tx.
//
// Every allocation runs in its own checkpoint: it is settled first and only
// recorded once the settlement is confirmed. When a settlement fails the
// checkpoint is discarded, matching stops and the result accumulated so far
// is returned together with a *types.SettlementError. The returned result
// never reflects an allocation that was not settled.
func (e *Engine) Match(ctx context.Context, tx store.Tx, taker *types.Order, takerTx *types.Transaction) (*types.MatchResult, error) {
	res := &types.MatchResult{
		Order:       taker.Clone(),
		Transaction: takerTx.Clone(),
	}

	candidates, err := e.Candidates(ctx, tx, taker)
	if err != nil {
		return res, err
	}

	e.log.Debug("matching order",
		logging.Order(taker),
		logging.Int("candidates", len(candidates)))

	for _, maker := range candidates {
		if res.Order.Amount == 0 {
			break
		}
		if err := e.allocate(ctx, tx, res, maker); err != nil {
			return res, err
		}
	}

	if filled := res.Filled(); filled > 0 {
		metrics.FillCounterAdd(len(res.Fills), string(taker.Outcome))
		e.log.Info("order matched",
			logging.OrderSerial(taker.Serial),
			logging.Uint64("filled", filled),
			logging.Uint64("remaining", res.Order.Amount),
			logging.Int("fills", len(res.Fills)))
	}
	return res, nil
}

// allocate settles and records one allocation between the taker in res and
// maker, advancing res only once the checkpoint has committed.
func (e *Engine) allocate(ctx context.Context, tx store.Tx, res *types.MatchResult, maker *types.Order) error {
	taker := res.Order
	if !types.PriceAcceptable(taker.Side, taker.Price, maker.Price) {
		return fmt.Errorf("%w: maker %s at %s, taker limit %s",
			types.ErrCandidateOutsideLimit, maker.Serial, maker.Price.String(), taker.Price.String())
	}
	amount := num.MinV(taker.Amount, maker.Amount)

	cp, err := tx.Begin(ctx)
	if err != nil {
		return err
	}
	defer cp.Rollback(ctx)

	makerTx, err := cp.GetTransactionBySerial(ctx, maker.Serial)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("%w: resting order %s has no transaction record", types.ErrStore, maker.Serial)
		}
		return err
	}

	transfer := types.NewTransfer(taker, maker, amount)
	if e.logMatchedOrders() {
		e.log.Debug("settling allocation",
			logging.OrderSerial(maker.Serial),
			logging.Transfer(transfer))
	}

	receipt, err := e.settlement.TransferShares(ctx, transfer)
	if err != nil {
		serr := &types.SettlementError{
			Transfer:    transfer,
			MakerSerial: maker.Serial,
			Reverted:    errors.Is(err, types.ErrSettlementReverted),
			Cause:       err,
		}
		if receipt != nil {
			serr.TxHash = receipt.TxHash
		}
		e.log.Warn("allocation not settled, matching stopped",
			logging.OrderSerial(taker.Serial),
			logging.Error(serr))
		return serr
	}

	now := e.timeService.GetTimeNow()
	fill := &types.Fill{
		TakerSerial: taker.Serial,
		MakerSerial: maker.Serial,
		Market:      taker.Market,
		Outcome:     taker.Outcome,
		Buyer:       transfer.Buyer,
		Seller:      transfer.Seller,
		Amount:      amount,
		Price:       transfer.Price,
		TxHash:      receipt.TxHash,
		At:          now,
	}

	nextTaker, nextTakerTx, deleted, err := e.record(ctx, cp, res, maker, makerTx, fill)
	if err == nil {
		err = cp.Commit(ctx)
	}
	if err != nil {
		// the shares moved on-chain but the book does not show it
		e.log.Error("settled allocation could not be recorded",
			logging.TxHash(receipt.TxHash),
			logging.Fill(fill),
			logging.Error(err))
		return err
	}

	res.Order = nextTaker
	res.Transaction = nextTakerTx
	res.Fills = append(res.Fills, fill)
	res.Deleted = append(res.Deleted, deleted...)

	e.log.Debug("allocation recorded", logging.Fill(fill))
	return nil
}

func (e *Engine) record(ctx context.Context, cp store.Tx, res *types.MatchResult, maker *types.Order, makerTx *types.Transaction, fill *types.Fill) (*types.Order, *types.Transaction, []string, error) {
	takerTx := res.Transaction.Clone()
	if err := takerTx.ApplyFill(fill.Amount, fill.Price, fill.At); err != nil {
		return nil, nil, nil, err
	}
	if err := makerTx.ApplyFill(fill.Amount, fill.Price, fill.At); err != nil {
		return nil, nil, nil, err
	}
	if err := cp.UpdateTransaction(ctx, takerTx); err != nil {
		return nil, nil, nil, err
	}
	if err := cp.UpdateTransaction(ctx, makerTx); err != nil {
		return nil, nil, nil, err
	}

	taker := res.Order.Clone()
	taker.Amount -= fill.Amount
	next := maker.Clone()
	next.Amount -= fill.Amount

	var deleted []string
	for _, o := range []*types.Order{taker, next} {
		if o.Amount == 0 {
			if err := cp.DeleteOrder(ctx, o.ID); err != nil {
				return nil, nil, nil, err
			}
			deleted = append(deleted, o.Serial)
			continue
		}
		if err := cp.UpdateOrder(ctx, o); err != nil {
			return nil, nil, nil, err
		}
	}
	return taker, takerTx, deleted, nil
}
