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

package logging

import (
	"time"

	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/libs/num"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func String(key, value string) zap.Field {
	return zap.String(key, value)
}

func Error(err error) zap.Field {
	return zap.Error(err)
}

func Int(key string, value int) zap.Field {
	return zap.Int(key, value)
}

func Uint64(key string, value uint64) zap.Field {
	return zap.Uint64(key, value)
}

func Bool(key string, value bool) zap.Field {
	return zap.Bool(key, value)
}

func Duration(key string, value time.Duration) zap.Field {
	return zap.Duration(key, value)
}

func Decimal(key string, value num.Decimal) zap.Field {
	return zap.String(key, value.String())
}

func OrderID(id uint64) zap.Field {
	return zap.Uint64("order-id", id)
}

func OrderSerial(serial string) zap.Field {
	return zap.String("order-serial", serial)
}

func MarketAddress(market string) zap.Field {
	return zap.String("market", market)
}

func TxHash(hash string) zap.Field {
	return zap.String("tx-hash", hash)
}

func Order(o *types.Order) zap.Field {
	return zap.Stringer("order", o)
}

func Transaction(t *types.Transaction) zap.Field {
	return zap.Stringer("transaction", t)
}

func Transfer(t types.Transfer) zap.Field {
	return zap.Stringer("transfer", t)
}

func Fill(f *types.Fill) zap.Field {
	return zap.Object("fill", fillMarshaler{f})
}

type fillMarshaler struct {
	f *types.Fill
}

func (m fillMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("taker", m.f.TakerSerial)
	enc.AddString("maker", m.f.MakerSerial)
	enc.AddString("buyer", m.f.Buyer)
	enc.AddString("seller", m.f.Seller)
	enc.AddUint64("amount", m.f.Amount)
	enc.AddString("price", m.f.Price.String())
	enc.AddString("tx-hash", m.f.TxHash)
	return nil
}
