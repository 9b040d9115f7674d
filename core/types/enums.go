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
	"strings"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	default:
		return "", fmt.Errorf("%w: invalid side %q, expected buy or sell", ErrValidation, s)
	}
}

// Opposite returns the side a resting order must have to trade with s.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

type Outcome string

const (
	OutcomeYes Outcome = "yes"
	OutcomeNo  Outcome = "no"
)

func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(strings.ToLower(strings.TrimSpace(s))) {
	case OutcomeYes:
		return OutcomeYes, nil
	case OutcomeNo:
		return OutcomeNo, nil
	default:
		return "", fmt.Errorf("%w: invalid outcome %q, expected yes or no", ErrValidation, s)
	}
}

func (o Outcome) IsYes() bool {
	return o == OutcomeYes
}

// MarketState is the lifecycle phase reported by the market contract.
type MarketState string

const (
	MarketStatePreorder  MarketState = "Preorder"
	MarketStateActive    MarketState = "Active"
	MarketStateResolved  MarketState = "Resolved"
	MarketStateCancelled MarketState = "Cancelled"
)

// ParseMarketState accepts the exact names the contract returns.
func ParseMarketState(s string) (MarketState, error) {
	switch st := MarketState(s); st {
	case MarketStatePreorder, MarketStateActive, MarketStateResolved, MarketStateCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown market state %q", ErrMarketUnavailable, s)
	}
}

func (m MarketState) IsActive() bool {
	return m == MarketStateActive
}

type TransactionStatus string

const (
	TransactionStatusOpen           TransactionStatus = "open"
	TransactionStatusPartiallyDealt TransactionStatus = "partially_dealt"
	TransactionStatusDealt          TransactionStatus = "dealt"
	TransactionStatusCancelled      TransactionStatus = "cancelled"
)

func ParseTransactionStatus(s string) (TransactionStatus, error) {
	switch st := TransactionStatus(s); st {
	case TransactionStatusOpen, TransactionStatusPartiallyDealt, TransactionStatusDealt, TransactionStatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown transaction status %q", ErrValidation, s)
	}
}

// IsTerminal is true for dealt and cancelled.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusDealt || s == TransactionStatusCancelled
}

// StatusFor maps fill progress to a status. Cancellation is applied on top
// of this mapping and is never produced by it.
func StatusFor(remaining, original uint64) TransactionStatus {
	switch {
	case remaining == 0:
		return TransactionStatusDealt
	case remaining < original:
		return TransactionStatusPartiallyDealt
	default:
		return TransactionStatusOpen
	}
}

// FillState summarises what happened to a submission.
type FillState string

const (
	FillStateFilled          FillState = "filled"
	FillStatePartiallyFilled FillState = "partially_filled"
	FillStateUnfilled        FillState = "unfilled"
)

func FillStateFor(filled, original uint64) FillState {
	switch {
	case filled == 0:
		return FillStateUnfilled
	case filled < original:
		return FillStatePartiallyFilled
	default:
		return FillStateFilled
	}
}
