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

package num_test

import (
	"math/big"
	"testing"

	"code.funtury.io/predictmarket/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFixedPoint(t *testing.T) {
	t.Run("scales a price to 18 decimals", testToFixedPointScales)
	t.Run("rejects digits beyond the precision", testToFixedPointRejectsExtraDigits)
	t.Run("accepts trailing zeros beyond the precision", testToFixedPointTrailingZeros)
	t.Run("rejects negative values", testToFixedPointRejectsNegative)
	t.Run("rejects values overflowing 256 bits", testToFixedPointRejectsOverflow)
	t.Run("round trips through FromFixedPoint", testFixedPointRoundTrip)
}

func testToFixedPointScales(t *testing.T) {
	u, err := num.ToFixedPoint(num.MustDecimalFromString("0.55"), num.SettlementDecimals)
	require.NoError(t, err)
	assert.Equal(t, "550000000000000000", u.String())

	u, err = num.ToFixedPoint(num.MustDecimalFromString("1"), num.SettlementDecimals)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", u.String())
}

func testToFixedPointRejectsExtraDigits(t *testing.T) {
	_, err := num.ToFixedPoint(num.MustDecimalFromString("0.5500000000000000009"), num.SettlementDecimals)
	assert.ErrorIs(t, err, num.ErrFixedPointPrecision)

	_, err = num.ToFixedPoint(num.MustDecimalFromString("0.0000000000000000001"), num.SettlementDecimals)
	assert.ErrorIs(t, err, num.ErrFixedPointPrecision)
}

func testToFixedPointTrailingZeros(t *testing.T) {
	u, err := num.ToFixedPoint(num.MustDecimalFromString("0.500000000000000000000"), num.SettlementDecimals)
	require.NoError(t, err)
	assert.Equal(t, "500000000000000000", u.String())
}

func testToFixedPointRejectsNegative(t *testing.T) {
	_, err := num.ToFixedPoint(num.MustDecimalFromString("-0.5"), num.SettlementDecimals)
	assert.ErrorIs(t, err, num.ErrNegativeFixedPoint)
}

func testToFixedPointRejectsOverflow(t *testing.T) {
	huge := num.MustDecimalFromString("1e70")
	_, err := num.ToFixedPoint(huge, num.SettlementDecimals)
	assert.ErrorIs(t, err, num.ErrFixedPointOverflow)
}

func testFixedPointRoundTrip(t *testing.T) {
	price := num.MustDecimalFromString("0.42")
	u, err := num.ToFixedPoint(price, num.SettlementDecimals)
	require.NoError(t, err)
	assert.True(t, price.Equal(num.FromFixedPoint(u, num.SettlementDecimals)))
}

func TestUintFromBig(t *testing.T) {
	n, overflow := num.UintFromBig(big.NewInt(42))
	assert.False(t, overflow)
	assert.Equal(t, uint64(42), n.Uint64())

	_, overflow = num.UintFromBig(big.NewInt(-1))
	assert.True(t, overflow)
}
