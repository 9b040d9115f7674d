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

package num

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// SettlementDecimals is the number of decimals used by the on-chain
// representation of a share price.
const SettlementDecimals int32 = 18

var (
	ErrNegativeFixedPoint  = errors.New("fixed point value cannot be negative")
	ErrFixedPointOverflow  = errors.New("fixed point value overflows 256 bits")
	ErrFixedPointPrecision = errors.New("fixed point value has more decimals than supported")
)

// ToFixedPoint scales d by 10^decimals, so 0.55 with 18 decimals becomes
// 550000000000000000. Values that cannot be represented exactly are
// rejected.
func ToFixedPoint(d Decimal, decimals int32) (*Uint, error) {
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrNegativeFixedPoint, d.String())
	}
	u, overflow := UintFromDecimal(d.Shift(decimals))
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrFixedPointOverflow, d.String())
	}
	if !FromFixedPoint(u, decimals).Equal(d) {
		return nil, fmt.Errorf("%w: %s with %d decimals", ErrFixedPointPrecision, d.String(), decimals)
	}
	return u, nil
}

// FromFixedPoint is the inverse of ToFixedPoint.
func FromFixedPoint(u *Uint, decimals int32) Decimal {
	return decimal.NewFromBigInt(u.BigInt(), -decimals)
}
