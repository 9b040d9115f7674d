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
	"errors"
	"fmt"
)

// Error categories. Every error returned by the core wraps exactly one of
// them so the transport can classify it with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrPrecondition      = errors.New("precondition failed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrSettlement        = errors.New("settlement failed")
	ErrStore             = errors.New("store error")
	ErrMarketUnavailable = errors.New("market state unavailable")
)

var (
	ErrMarketNotActive        = fmt.Errorf("%w: market is not active", ErrPrecondition)
	ErrOrderNotFound          = fmt.Errorf("%w: order not found", ErrNotFound)
	ErrTransactionNotFound    = fmt.Errorf("%w: transaction not found", ErrNotFound)
	ErrOrderCannotBeCancelled = fmt.Errorf("%w: order cannot be cancelled", ErrInvalidState)
	ErrFillExceedsRemaining   = fmt.Errorf("%w: fill exceeds remaining amount", ErrInvalidState)
	ErrPriceMustBePositive    = fmt.Errorf("%w: price must be positive", ErrValidation)
	ErrPriceTooPrecise        = fmt.Errorf("%w: price has more decimals than can be settled", ErrValidation)
	ErrAmountMustBePositive   = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrInvalidUserAddress     = fmt.Errorf("%w: invalid user address", ErrValidation)
	ErrInvalidMarketAddress   = fmt.Errorf("%w: invalid market address", ErrValidation)
	ErrSettlementReverted     = fmt.Errorf("%w: transaction reverted", ErrSettlement)
	ErrSettlementTimeout      = fmt.Errorf("%w: timed out waiting for receipt", ErrSettlement)
	ErrSettlementPriceInvalid = fmt.Errorf("%w: price cannot be represented on-chain", ErrSettlement)
	ErrCandidateOutsideLimit  = fmt.Errorf("%w: candidate price outside the taker limit", ErrInvalidState)
	ErrStoreTransactionClosed = fmt.Errorf("%w: unit of work already closed", ErrStore)
)

// SettlementError describes the allocation that could not be settled. It
// reports itself as ErrSettlement and unwraps to the underlying cause.
type SettlementError struct {
	Transfer    Transfer
	MakerSerial string
	TxHash      string
	Reverted    bool
	Cause       error
}

func (e *SettlementError) Error() string {
	msg := fmt.Sprintf("transfer shares failed for maker order %s (amount %d at %s)",
		e.MakerSerial, e.Transfer.Amount, e.Transfer.Price.String())
	if e.TxHash != "" {
		msg += fmt.Sprintf(" tx(%s)", e.TxHash)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *SettlementError) Is(target error) bool {
	return target == ErrSettlement
}

func (e *SettlementError) Unwrap() error {
	return e.Cause
}
