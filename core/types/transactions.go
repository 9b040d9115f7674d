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

package types

import (
	"fmt"
	"time"

	"code.funtury.io/predictmarket/libs/num"
)

// Transaction is the audit record of an order's fill progress. It is never
// deleted and outlives the order it tracks.
type Transaction struct {
	ID              uint64
	Serial          string
	User            string
	Market          string
	Outcome         Outcome
	Side            Side
	DealAmount      uint64
	RemainingAmount uint64
	Price           num.Decimal
	Status          TransactionStatus
	CreatedAt       time.Time
	DealtAt         *time.Time
}

// NewTransaction creates the open transaction tracking o.
func NewTransaction(o *Order) *Transaction {
	return &Transaction{
		Serial:          o.Serial,
		User:            o.User,
		Market:          o.Market,
		Outcome:         o.Outcome,
		Side:            o.Side,
		DealAmount:      0,
		RemainingAmount: o.Amount,
		Price:           o.Price,
		Status:          TransactionStatusOpen,
		CreatedAt:       o.CreatedAt,
	}
}

func (t *Transaction) Clone() *Transaction {
	cpy := *t
	if t.DealtAt != nil {
		at := *t.DealtAt
		cpy.DealtAt = &at
	}
	return &cpy
}

func (t *Transaction) OriginalAmount() uint64 {
	return t.DealAmount + t.RemainingAmount
}

func (t *Transaction) IsCancellable() bool {
	return t.Status == TransactionStatusOpen || t.Status == TransactionStatusPartiallyDealt
}

// ApplyFill records a fill of amount at price.
func (t *Transaction) ApplyFill(amount uint64, price num.Decimal, now time.Time) error {
	if t.Status.IsTerminal() {
		return fmt.Errorf("%w: transaction %s is %s", ErrInvalidState, t.Serial, t.Status)
	}
	if amount == 0 || amount > t.RemainingAmount {
		return fmt.Errorf("%w: fill %d, remaining %d on %s", ErrFillExceedsRemaining, amount, t.RemainingAmount, t.Serial)
	}
	original := t.OriginalAmount()
	t.DealAmount += amount
	t.RemainingAmount -= amount
	t.Price = price
	t.Status = StatusFor(t.RemainingAmount, original)
	if t.Status == TransactionStatusDealt && t.DealtAt == nil {
		at := now
		t.DealtAt = &at
	}
	return nil
}

// Cancel moves an open or partially dealt transaction to cancelled. The
// remaining amount is kept so the record still balances.
func (t *Transaction) Cancel() error {
	if !t.IsCancellable() {
		return fmt.Errorf("%w: transaction %s is %s", ErrOrderCannotBeCancelled, t.Serial, t.Status)
	}
	t.Status = TransactionStatusCancelled
	return nil
}

func (t Transaction) String() string {
	return fmt.Sprintf(
		"serial(%s) user(%s) side(%s) deal(%d) remaining(%d) price(%s) status(%s)",
		t.Serial,
		t.User,
		t.Side,
		t.DealAmount,
		t.RemainingAmount,
		t.Price.String(),
		t.Status,
	)
}
