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

package broker

import (
	"encoding/json"
	"testing"

	"code.funtury.io/predictmarket/core/events"
	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaMessagesAreKeyedByMarket(t *testing.T) {
	o := &types.Order{
		Serial:  "s1",
		Market:  "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		Outcome: types.OutcomeYes,
		Side:    types.SideBuy,
		Price:   num.MustDecimalFromString("0.6"),
		Amount:  10,
	}
	evt := events.NewOrderEvent(events.OrderCreated, o, types.NewTransaction(o))

	msgs, err := toMessages([]events.Event{evt})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, o.Market, string(msgs[0].Key))
	require.Len(t, msgs[0].Headers, 1)
	assert.Equal(t, "order", string(msgs[0].Headers[0].Value))

	var decoded struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msgs[0].Value, &decoded))
	assert.Equal(t, "order", decoded.Type)
	assert.Contains(t, string(decoded.Payload), `"order_serial":"s1"`)
}
