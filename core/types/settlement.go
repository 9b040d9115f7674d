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

	"code.funtury.io/predictmarket/libs/num"
)

// Transfer is a share movement from Seller to Buyer on one market outcome.
type Transfer struct {
	Market string
	Seller string
	Buyer  string
	IsYes  bool
	Price  num.Decimal
	Amount uint64
}

func (t Transfer) String() string {
	return fmt.Sprintf(
		"market(%s) seller(%s) buyer(%s) yes(%v) price(%s) amount(%d)",
		t.Market, t.Seller, t.Buyer, t.IsYes, t.Price.String(), t.Amount,
	)
}

type ReceiptStatus uint64

const (
	ReceiptStatusReverted  ReceiptStatus = 0
	ReceiptStatusCommitted ReceiptStatus = 1
)

// Receipt is the outcome of a mined settlement transaction.
type Receipt struct {
	TxHash      string
	Status      ReceiptStatus
	BlockNumber uint64
}

func (r *Receipt) Committed() bool {
	return r != nil && r.Status == ReceiptStatusCommitted
}
