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
	"time"

	"code.funtury.io/predictmarket/libs/num"
)

// Fill is one settled allocation between a taker and a maker.
type Fill struct {
	TakerSerial string
	MakerSerial string
	Market      string
	Outcome     Outcome
	Buyer       string
	Seller      string
	Amount      uint64
	Price       num.Decimal
	TxHash      string
	At          time.Time
}

// NewTransfer builds the transfer settling amount between taker and
// maker at the maker's price.
func NewTransfer(taker, maker *Order, amount uint64) Transfer {
	seller, buyer := maker.User, taker.User
	if taker.Side == SideSell {
		seller, buyer = taker.User, maker.User
	}
	return Transfer{
		Market: taker.Market,
		Seller: seller,
		Buyer:  buyer,
		IsYes:  taker.Outcome.IsYes(),
		Price:  maker.Price,
		Amount: amount,
	}
}

// MatchResult is the accumulated state of a matching pass. Order and
// Transaction always reflect only settled fills.
type MatchResult struct {
	Order       *Order
	Transaction *Transaction
	Fills       []*Fill
	// Deleted holds the serials of orders removed from the book, the taker
	// included when it was fully filled.
	Deleted []string
}

func (m *MatchResult) Filled() uint64 {
	var total uint64
	for _, f := range m.Fills {
		total += f.Amount
	}
	return total
}

// SubmissionResult is what a client gets back after placing an order.
type SubmissionResult struct {
	Order       *Order
	Transaction *Transaction
	Fills       []*Fill
	FillState   FillState
	// Withdrawn is set when the unfilled remainder was taken off the book
	// after a settlement failure.
	Withdrawn bool
}
