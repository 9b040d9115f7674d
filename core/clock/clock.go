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

// Package clock provides the wall clock stamping orders and fills.
package clock

import (
	"time"
)

// Precision is the resolution of every timestamp handed out. Postgres keeps
// microseconds, so both stores see the same values.
const Precision = time.Microsecond

type Svc struct {
	now func() time.Time
}

func NewService() *Svc {
	return &Svc{now: time.Now}
}

// GetTimeNow returns the current UTC time truncated to Precision.
func (s *Svc) GetTimeNow() time.Time {
	return s.now().UTC().Truncate(Precision)
}
