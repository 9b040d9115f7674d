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

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetTimeNow(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 123456789, time.FixedZone("CET", 3600))
	s := &Svc{now: func() time.Time { return at }}
	assert.Equal(t, time.Date(2024, 6, 1, 11, 0, 0, 123456000, time.UTC), s.GetTimeNow())
}

func TestServiceUsesTheWallClock(t *testing.T) {
	now := NewService().GetTimeNow()
	assert.Equal(t, time.UTC, now.Location())
	assert.WithinDuration(t, time.Now(), now, time.Second)
}
