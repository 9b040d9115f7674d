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

// Package memstore keeps the order book and transaction history in memory.
// A unit of work mutates copy-on-write clones of the committed indexes and
// swaps them in on commit.
package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/libs/num"
	"code.funtury.io/predictmarket/logging"
	"code.funtury.io/predictmarket/store"

	"github.com/google/btree"
)

const (
	namedLogger = "memstore"
	btreeDegree = 32
)

type state struct {
	orders   *btree.BTreeG[*types.Order]
	txs      *btree.BTreeG[*types.Transaction]
	bySerial *btree.BTreeG[*types.Transaction]
}

func orderLess(a, b *types.Order) bool { return a.ID < b.ID }

func txLess(a, b *types.Transaction) bool { return a.ID < b.ID }

func serialLess(a, b *types.Transaction) bool {
	if a.Serial != b.Serial {
		return a.Serial < b.Serial
	}
	return a.ID < b.ID
}

func newState() *state {
	return &state{
		orders:   btree.NewG(btreeDegree, orderLess),
		txs:      btree.NewG(btreeDegree, txLess),
		bySerial: btree.NewG(btreeDegree, serialLess),
	}
}

func (s *state) clone() *state {
	return &state{
		orders:   s.orders.Clone(),
		txs:      s.txs.Clone(),
		bySerial: s.bySerial.Clone(),
	}
}

// Store is an in-memory store.Store. Top-level units of work are
// serialised, which gives them serialisable isolation.
type Store struct {
	log *logging.Logger

	// one token, held by the open top-level unit of work
	writer chan struct{}

	// cloning a tree touches it, so it is guarded like a write
	mu        sync.RWMutex
	committed *state

	nextOrderID atomic.Uint64
	nextTxID    atomic.Uint64
}

func New(log *logging.Logger) *Store {
	s := &Store{
		log:    log.Named(namedLogger),
		writer: make(chan struct{}, 1),
	}
	s.committed = newState()
	return s
}

func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: waiting for unit of work: %v", types.ErrStore, ctx.Err())
	}
	s.mu.Lock()
	st := s.committed.clone()
	s.mu.Unlock()

	return &tx{
		store: s,
		state: st,
	}, nil
}

func (s *Store) ListOrderBook(_ context.Context, market string, outcome types.Outcome) ([]*types.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*types.Order{}
	s.committed.orders.Ascend(func(o *types.Order) bool {
		if o.Market == market && o.Outcome == outcome && o.Amount > 0 && o.MarketState.IsActive() {
			out = append(out, o.Clone())
		}
		return true
	})
	return out, nil
}

func (s *Store) ListTransactionsByUser(_ context.Context, user string) ([]*types.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*types.Transaction{}
	s.committed.txs.Ascend(func(t *types.Transaction) bool {
		if strings.EqualFold(t.User, user) {
			out = append(out, t.Clone())
		}
		return true
	})
	return out, nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) release() {
	<-s.writer
}

type tx struct {
	store  *Store
	parent *tx
	state  *state

	child *tx
	done  bool
}

func (t *tx) usable() error {
	if t.done {
		return types.ErrStoreTransactionClosed
	}
	if t.child != nil {
		return fmt.Errorf("%w: nested unit of work still open", types.ErrStore)
	}
	return nil
}

func (t *tx) FindEligibleOrders(_ context.Context, market string, outcome types.Outcome, side types.Side, bound num.Decimal) ([]*types.Order, error) {
	if err := t.usable(); err != nil {
		return nil, err
	}
	out := []*types.Order{}
	t.state.orders.Ascend(func(o *types.Order) bool {
		if store.Eligible(o, market, outcome, side, bound) {
			out = append(out, o.Clone())
		}
		return true
	})
	store.SortByPriority(side, out)
	return out, nil
}

func (t *tx) GetOrder(_ context.Context, id uint64) (*types.Order, error) {
	if err := t.usable(); err != nil {
		return nil, err
	}
	o, ok := t.state.orders.Get(&types.Order{ID: id})
	if !ok {
		return nil, fmt.Errorf("%w: id %d", types.ErrOrderNotFound, id)
	}
	return o.Clone(), nil
}

func (t *tx) GetTransactionBySerial(_ context.Context, serial string) (*types.Transaction, error) {
	if err := t.usable(); err != nil {
		return nil, err
	}
	var found *types.Transaction
	t.state.bySerial.AscendGreaterOrEqual(&types.Transaction{Serial: serial}, func(tr *types.Transaction) bool {
		if tr.Serial == serial {
			found = tr
		}
		return false
	})
	if found == nil {
		return nil, fmt.Errorf("%w: serial %s", types.ErrTransactionNotFound, serial)
	}
	return found.Clone(), nil
}

func (t *tx) InsertOrder(_ context.Context, o *types.Order) error {
	if err := t.usable(); err != nil {
		return err
	}
	if o.Amount == 0 {
		return fmt.Errorf("%w: cannot store order %s with zero amount", types.ErrStore, o.Serial)
	}
	o.ID = t.store.nextOrderID.Add(1)
	t.state.orders.ReplaceOrInsert(o.Clone())
	return nil
}

func (t *tx) InsertTransaction(_ context.Context, tr *types.Transaction) error {
	if err := t.usable(); err != nil {
		return err
	}
	tr.ID = t.store.nextTxID.Add(1)
	cpy := tr.Clone()
	t.state.txs.ReplaceOrInsert(cpy)
	t.state.bySerial.ReplaceOrInsert(cpy)
	return nil
}

func (t *tx) UpdateOrder(_ context.Context, o *types.Order) error {
	if err := t.usable(); err != nil {
		return err
	}
	if o.Amount == 0 {
		return fmt.Errorf("%w: cannot store order %s with zero amount", types.ErrStore, o.Serial)
	}
	if !t.state.orders.Has(o) {
		return fmt.Errorf("%w: id %d", types.ErrOrderNotFound, o.ID)
	}
	t.state.orders.ReplaceOrInsert(o.Clone())
	return nil
}

func (t *tx) UpdateTransaction(_ context.Context, tr *types.Transaction) error {
	if err := t.usable(); err != nil {
		return err
	}
	if !t.state.txs.Has(tr) {
		return fmt.Errorf("%w: id %d", types.ErrTransactionNotFound, tr.ID)
	}
	cpy := tr.Clone()
	t.state.txs.ReplaceOrInsert(cpy)
	t.state.bySerial.ReplaceOrInsert(cpy)
	return nil
}

func (t *tx) DeleteOrder(_ context.Context, id uint64) error {
	if err := t.usable(); err != nil {
		return err
	}
	if _, ok := t.state.orders.Delete(&types.Order{ID: id}); !ok {
		return fmt.Errorf("%w: id %d", types.ErrOrderNotFound, id)
	}
	return nil
}

func (t *tx) Begin(_ context.Context) (store.Tx, error) {
	if err := t.usable(); err != nil {
		return nil, err
	}
	t.child = &tx{
		store:  t.store,
		parent: t,
		state:  t.state.clone(),
	}
	return t.child, nil
}

func (t *tx) Commit(_ context.Context) error {
	if err := t.usable(); err != nil {
		return err
	}
	t.done = true
	if t.parent != nil {
		t.parent.state = t.state
		t.parent.child = nil
		return nil
	}
	t.store.mu.Lock()
	t.store.committed = t.state
	t.store.mu.Unlock()
	t.store.release()
	t.store.log.Debug("unit of work committed",
		logging.Int("orders", t.state.orders.Len()),
		logging.Int("transactions", t.state.txs.Len()))
	return nil
}

func (t *tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if t.child != nil {
		_ = t.child.Rollback(context.Background())
	}
	if t.parent != nil {
		t.parent.child = nil
		return nil
	}
	t.store.release()
	return nil
}
