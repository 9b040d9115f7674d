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

package types_test

import (
	"errors"
	"testing"

	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() types.OrderSubmission {
	return types.OrderSubmission{
		User:    "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		Market:  "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359",
		Outcome: "YES",
		Price:   num.MustDecimalFromString("0.6"),
		Amount:  10,
		Side:    "Buy",
	}
}

func TestOrderSubmissionValidate(t *testing.T) {
	t.Run("valid submission is normalised", func(t *testing.T) {
		v, err := validSubmission().Validate()
		require.NoError(t, err)
		assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", v.User)
		assert.Equal(t, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359", v.Market)
		assert.Equal(t, types.OutcomeYes, v.Outcome)
		assert.Equal(t, types.SideBuy, v.Side)
		assert.Equal(t, uint64(10), v.Amount)
	})

	cases := []struct {
		name   string
		mutate func(*types.OrderSubmission)
		err    error
	}{
		{"bad side", func(s *types.OrderSubmission) { s.Side = "hold" }, types.ErrValidation},
		{"bad outcome", func(s *types.OrderSubmission) { s.Outcome = "maybe" }, types.ErrValidation},
		{"bad user", func(s *types.OrderSubmission) { s.User = "alice" }, types.ErrInvalidUserAddress},
		{"bad market", func(s *types.OrderSubmission) { s.Market = "0x12" }, types.ErrInvalidMarketAddress},
		{"zero price", func(s *types.OrderSubmission) { s.Price = num.MustDecimalFromString("0") }, types.ErrPriceMustBePositive},
		{"price beyond settlement precision", func(s *types.OrderSubmission) {
			s.Price = num.MustDecimalFromString("0.5500000000000000009")
		}, types.ErrPriceTooPrecise},
		{"price below the smallest settlement unit", func(s *types.OrderSubmission) {
			s.Price = num.MustDecimalFromString("0.0000000000000000001")
		}, types.ErrPriceTooPrecise},
		{"negative amount", func(s *types.OrderSubmission) { s.Amount = -1 }, types.ErrAmountMustBePositive},
		{"zero amount", func(s *types.OrderSubmission) { s.Amount = 0 }, types.ErrAmountMustBePositive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := validSubmission()
			tc.mutate(&sub)
			_, err := sub.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.err))
			assert.True(t, errors.Is(err, types.ErrValidation))
		})
	}
}

func TestPriceAcceptable(t *testing.T) {
	limit := num.MustDecimalFromString("0.6")
	assert.True(t, types.PriceAcceptable(types.SideBuy, limit, num.MustDecimalFromString("0.55")))
	assert.True(t, types.PriceAcceptable(types.SideBuy, limit, limit))
	assert.False(t, types.PriceAcceptable(types.SideBuy, limit, num.MustDecimalFromString("0.61")))
	assert.True(t, types.PriceAcceptable(types.SideSell, limit, num.MustDecimalFromString("0.65")))
	assert.False(t, types.PriceAcceptable(types.SideSell, limit, num.MustDecimalFromString("0.59")))
}

func TestNewTransferUsesMakerPrice(t *testing.T) {
	taker := &types.Order{User: "taker", Market: "m", Outcome: types.OutcomeNo, Side: types.SideSell, Price: num.MustDecimalFromString("0.4")}
	maker := &types.Order{User: "maker", Market: "m", Outcome: types.OutcomeNo, Side: types.SideBuy, Price: num.MustDecimalFromString("0.45")}

	tr := types.NewTransfer(taker, maker, 3)
	assert.Equal(t, "taker", tr.Seller)
	assert.Equal(t, "maker", tr.Buyer)
	assert.False(t, tr.IsYes)
	assert.True(t, tr.Price.Equal(maker.Price))
	assert.Equal(t, uint64(3), tr.Amount)
}

func TestEnums(t *testing.T) {
	side, err := types.ParseSide(" SELL ")
	require.NoError(t, err)
	assert.Equal(t, types.SideSell, side)
	assert.Equal(t, types.SideBuy, side.Opposite())

	_, err = types.ParseMarketState("active")
	assert.ErrorIs(t, err, types.ErrMarketUnavailable)
	st, err := types.ParseMarketState("Resolved")
	require.NoError(t, err)
	assert.False(t, st.IsActive())

	assert.Equal(t, types.FillStateUnfilled, types.FillStateFor(0, 10))
	assert.Equal(t, types.FillStatePartiallyFilled, types.FillStateFor(5, 10))
	assert.Equal(t, types.FillStateFilled, types.FillStateFor(10, 10))
}

func TestSettlementError(t *testing.T) {
	cause := errors.New("boom")
	err := error(&types.SettlementError{
		Transfer:    types.Transfer{Amount: 5, Price: num.MustDecimalFromString("0.55")},
		MakerSerial: "maker-1",
		TxHash:      "0xabc",
		Cause:       cause,
	})
	assert.ErrorIs(t, err, types.ErrSettlement)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "maker-1")
	assert.Contains(t, err.Error(), "0xabc")

	var se *types.SettlementError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, uint64(5), se.Transfer.Amount)
}
