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

	"code.funtury.io/predictmarket/libs/crypto"
	"code.funtury.io/predictmarket/libs/num"
)

// Order is a resting or incoming limit order. Amount is the quantity not yet
// filled; an order is removed from the book as soon as it reaches zero.
type Order struct {
	ID          uint64
	Serial      string
	User        string
	Market      string
	Outcome     Outcome
	Price       num.Decimal
	Amount      uint64
	Side        Side
	MarketState MarketState
	CreatedAt   time.Time
}

func (o *Order) Clone() *Order {
	cpy := *o
	return &cpy
}

func (o Order) String() string {
	return fmt.Sprintf(
		"id(%d) serial(%s) user(%s) market(%s) outcome(%s) side(%s) price(%s) amount(%d)",
		o.ID,
		o.Serial,
		o.User,
		o.Market,
		o.Outcome,
		o.Side,
		o.Price.String(),
		o.Amount,
	)
}

// OrderSubmission is the raw request to place an order as received from a
// client, before validation.
type OrderSubmission struct {
	User    string
	Market  string
	Outcome string
	Price   num.Decimal
	Amount  int64
	Side    string
}

// ValidOrderSubmission holds parsed and normalised submission fields.
type ValidOrderSubmission struct {
	User    string
	Market  string
	Outcome Outcome
	Price   num.Decimal
	Amount  uint64
	Side    Side
}

// Validate parses the submission. Addresses are returned in checksum form.
func (s OrderSubmission) Validate() (*ValidOrderSubmission, error) {
	side, err := ParseSide(s.Side)
	if err != nil {
		return nil, err
	}
	outcome, err := ParseOutcome(s.Outcome)
	if err != nil {
		return nil, err
	}
	user, err := crypto.NormaliseEthereumAddress(s.User)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUserAddress, s.User)
	}
	market, err := crypto.NormaliseEthereumAddress(s.Market)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMarketAddress, s.Market)
	}
	if !s.Price.IsPositive() {
		return nil, ErrPriceMustBePositive
	}
	if _, err := num.ToFixedPoint(s.Price, num.SettlementDecimals); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPriceTooPrecise, s.Price.String())
	}
	if s.Amount <= 0 {
		return nil, ErrAmountMustBePositive
	}
	return &ValidOrderSubmission{
		User:    user,
		Market:  market,
		Outcome: outcome,
		Price:   s.Price,
		Amount:  uint64(s.Amount),
		Side:    side,
	}, nil
}

// NewOrder builds the book entry for a validated submission.
func (v ValidOrderSubmission) NewOrder(serial string, now time.Time) *Order {
	return &Order{
		Serial:      serial,
		User:        v.User,
		Market:      v.Market,
		Outcome:     v.Outcome,
		Price:       v.Price,
		Amount:      v.Amount,
		Side:        v.Side,
		MarketState: MarketStateActive,
		CreatedAt:   now,
	}
}

// PriceAcceptable reports whether a taker on side at limit accepts
// trading at price.
func PriceAcceptable(side Side, limit, price num.Decimal) bool {
	if side == SideBuy {
		return price.LessThanOrEqual(limit)
	}
	return price.GreaterThanOrEqual(limit)
}
