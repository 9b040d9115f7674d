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

package rest

import (
	"encoding/json"
	"time"

	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/libs/num"
)

// OrderRequest is the body of an order submission.
type OrderRequest struct {
	UserAddress   string      `json:"user_address"`
	MarketAddress string      `json:"market_address"`
	Outcome       string      `json:"outcome"`
	Price         num.Decimal `json:"price"`
	Amount        int64       `json:"amount"`
	Side          string      `json:"side"`
}

func (r OrderRequest) IntoSubmission() types.OrderSubmission {
	return types.OrderSubmission{
		User:    r.UserAddress,
		Market:  r.MarketAddress,
		Outcome: r.Outcome,
		Price:   r.Price,
		Amount:  r.Amount,
		Side:    r.Side,
	}
}

type OrderResponse struct {
	ID            uint64      `json:"id"`
	OrderSerial   string      `json:"order_serial"`
	UserAddress   string      `json:"user_address"`
	MarketAddress string      `json:"market_address"`
	Outcome       string      `json:"outcome"`
	Price         json.Number `json:"price"`
	Amount        uint64      `json:"amount"`
	Side          string      `json:"side"`
	MarketState   string      `json:"market_state"`
	CreatedAt     string      `json:"created_at"`
}

type TransactionResponse struct {
	ID              uint64      `json:"id"`
	OrderSerial     string      `json:"order_serial"`
	UserAddress     string      `json:"user_address"`
	MarketAddress   string      `json:"market_address"`
	Outcome         string      `json:"outcome"`
	Side            string      `json:"side"`
	DealAmount      uint64      `json:"deal_amount"`
	RemainingAmount uint64      `json:"remaining_amount"`
	Price           json.Number `json:"price"`
	Status          string      `json:"status"`
	CreatedAt       string      `json:"created_at"`
	DealtAt         *string     `json:"dealt_at"`
}

type FillResponse struct {
	MakerSerial string      `json:"maker_serial"`
	Buyer       string      `json:"buyer"`
	Seller      string      `json:"seller"`
	Amount      uint64      `json:"amount"`
	Price       json.Number `json:"price"`
	TxHash      string      `json:"tx_hash"`
	At          string      `json:"at"`
}

// SubmissionResponse is the order as it stands after matching, with the
// progress of its transaction.
type SubmissionResponse struct {
	OrderResponse
	Status     string          `json:"status"`
	DealAmount uint64          `json:"deal_amount"`
	FillState  string          `json:"fill_state"`
	Withdrawn  bool            `json:"withdrawn"`
	Fills      []*FillResponse `json:"fills"`
}

// HTTPError is the body of every failed request. Result is only set when a
// failure left earlier fills in place.
type HTTPError struct {
	ErrorStr string              `json:"error"`
	Details  []string            `json:"details,omitempty"`
	Result   *SubmissionResponse `json:"result,omitempty"`
}

func (e HTTPError) Error() string {
	return e.ErrorStr
}

func newError(e string) HTTPError {
	return HTTPError{
		ErrorStr: e,
	}
}

func newErrorWithDetails(e string, details []string) HTTPError {
	return HTTPError{
		ErrorStr: e,
		Details:  details,
	}
}

var ErrInvalidRequest = newError("invalid request")

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decimalNumber(d num.Decimal) json.Number {
	return json.Number(d.String())
}

func NewOrderResponse(o *types.Order) *OrderResponse {
	return &OrderResponse{
		ID:            o.ID,
		OrderSerial:   o.Serial,
		UserAddress:   o.User,
		MarketAddress: o.Market,
		Outcome:       string(o.Outcome),
		Price:         decimalNumber(o.Price),
		Amount:        o.Amount,
		Side:          string(o.Side),
		MarketState:   string(o.MarketState),
		CreatedAt:     formatTime(o.CreatedAt),
	}
}

func NewTransactionResponse(t *types.Transaction) *TransactionResponse {
	resp := &TransactionResponse{
		ID:              t.ID,
		OrderSerial:     t.Serial,
		UserAddress:     t.User,
		MarketAddress:   t.Market,
		Outcome:         string(t.Outcome),
		Side:            string(t.Side),
		DealAmount:      t.DealAmount,
		RemainingAmount: t.RemainingAmount,
		Price:           decimalNumber(t.Price),
		Status:          string(t.Status),
		CreatedAt:       formatTime(t.CreatedAt),
	}
	if t.DealtAt != nil {
		at := formatTime(*t.DealtAt)
		resp.DealtAt = &at
	}
	return resp
}

func NewFillResponse(f *types.Fill) *FillResponse {
	return &FillResponse{
		MakerSerial: f.MakerSerial,
		Buyer:       f.Buyer,
		Seller:      f.Seller,
		Amount:      f.Amount,
		Price:       decimalNumber(f.Price),
		TxHash:      f.TxHash,
		At:          formatTime(f.At),
	}
}

func NewSubmissionResponse(res *types.SubmissionResult) *SubmissionResponse {
	fills := make([]*FillResponse, 0, len(res.Fills))
	for _, f := range res.Fills {
		fills = append(fills, NewFillResponse(f))
	}
	return &SubmissionResponse{
		OrderResponse: *NewOrderResponse(res.Order),
		Status:        string(res.Transaction.Status),
		DealAmount:    res.Transaction.DealAmount,
		FillState:     string(res.FillState),
		Withdrawn:     res.Withdrawn,
		Fills:         fills,
	}
}
