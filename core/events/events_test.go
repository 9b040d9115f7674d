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

package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"code.funtury.io/predictmarket/core/events"
	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const market = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"

func TestFillEventEncoding(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	evt := events.NewFillEvent(&types.Fill{
		TakerSerial: "taker",
		MakerSerial: "maker",
		Market:      market,
		Outcome:     types.OutcomeYes,
		Buyer:       "buyer",
		Seller:      "seller",
		Amount:      5,
		Price:       num.MustDecimalFromString("0.55"),
		TxHash:      "0x01",
		At:          at,
	})
	assert.Equal(t, events.FillEventType, evt.Type())
	assert.Equal(t, market, evt.MarketAddress())

	raw, err := evt.Encode()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "fill", decoded["type"])
	payload := decoded["payload"].(map[string]interface{})
	assert.Equal(t, "0.55", payload["price"])
	assert.Equal(t, "maker", payload["maker_order_serial"])
	assert.Equal(t, "2024-06-01T11:00:00Z", payload["timestamp"])
}

func TestOrderEventCarriesTransactionProgress(t *testing.T) {
	o := &types.Order{
		ID:      7,
		Serial:  "serial",
		User:    "user",
		Market:  market,
		Outcome: types.OutcomeNo,
		Side:    types.SideSell,
		Price:   num.MustDecimalFromString("0.3"),
		Amount:  4,
	}
	tr := types.NewTransaction(o)
	require.NoError(t, tr.Cancel())

	evt := events.NewOrderEvent(events.OrderCancelled, o, tr)
	assert.Equal(t, events.OrderEventType, evt.Type())
	assert.Equal(t, "cancelled", evt.Status)
	assert.Equal(t, uint64(4), evt.RemainingAmount)

	raw, err := evt.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"action":"cancelled"`)
}
