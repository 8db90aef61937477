// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package preview

import (
	"github.com/mlnoga/rawpreview/internal/stats"
)

// State of the incremental development pass
type state int

const (
	stateIdle             state = iota // No pass in progress
	stateRunning                       // Pass in progress, cursor is valid
	stateRestartRequested              // Next step discards the cursor and starts from row 0
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRunning:
		return "running"
	case stateRestartRequested:
		return "restart requested"
	}
	return "unknown"
}

// Resumable position of an incremental development pass
type cursor struct {
	y      int // Next row to develop
	y0     int // First row not yet invalidated
	width  int
	height int
	live   *stats.Histogram // Live histogram accumulated so far
	sums   stats.Sums       // Running sums of developed values
}

// Resets the cursor to row 0 for a frame of the given size
func (c *cursor) reset(width, height int) {
	c.y, c.y0 = 0, 0
	c.width, c.height = width, height
	if c.live == nil {
		c.live = stats.NewHistogram(stats.LiveBins)
	} else {
		c.live.Reset()
	}
	c.sums = stats.Sums{}
}

// Reports whether all rows have been developed
func (c *cursor) done() bool { return c.y >= c.height }
