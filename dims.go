/*
Copyright © 2019 the gfas authors.
This file is part of gfas.

gfas is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

gfas is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with gfas.  If not, see <http://www.gnu.org/licenses/>.
*/

package gfas

import (
	"fmt"
	"time"
)

// Coordinates holds the coordinate variables of the output grid.
type Coordinates struct {
	// Time is in hours since the output epoch.
	Time []int32

	// Lat is ordered north to south and Lon west to east.
	Lat, Lon []float32

	// Steps holds the number of time steps contributed by each source.
	Steps []int
}

// BuildCoordinates creates the output coordinates from one or more
// sources. Times are shifted to the output epoch and concatenated
// in the order the sources are given; they are not sorted. Latitudes
// are reversed and longitudes are copied from the first source. All
// sources must share the same latitudes and longitudes.
func BuildCoordinates(cfg GridConfig, srcs ...Source) (*Coordinates, error) {
	if len(srcs) == 0 {
		return nil, fmt.Errorf("gfas: no sources")
	}
	c := new(Coordinates)
	var lat0, lon0 []float64
	for i, s := range srcs {
		lat, err := s.Latitudes()
		if err != nil {
			return nil, err
		}
		lon, err := s.Longitudes()
		if err != nil {
			return nil, err
		}
		if len(lat) != cfg.NLat || len(lon) != cfg.NLon {
			return nil, fmt.Errorf("%w: %s has a %dx%d grid; want %dx%d", ErrShapeMismatch,
				s.Name(), len(lat), len(lon), cfg.NLat, cfg.NLon)
		}
		if i == 0 {
			lat0, lon0 = lat, lon
		} else if !equalFloats(lat, lat0) || !equalFloats(lon, lon0) {
			return nil, fmt.Errorf("%w: %s and %s", ErrExtentMismatch, srcs[0].Name(), s.Name())
		}

		t, err := s.Times()
		if err != nil {
			return nil, err
		}
		for _, v := range t {
			c.Time = append(c.Time, int32(v-cfg.EpochOffsetHours))
		}
		c.Steps = append(c.Steps, len(t))
	}

	c.Lat = make([]float32, len(lat0))
	for i, v := range lat0 {
		c.Lat[len(lat0)-1-i] = float32(v)
	}
	c.Lon = make([]float32, len(lon0))
	for i, v := range lon0 {
		c.Lon[i] = float32(v)
	}
	return c, nil
}

// titleTimeIndex is the time step used to date the output grid. It is
// a few steps in so that a series starting late on the last day of the
// previous month is still labelled with the right month.
const titleTimeIndex = 5

// Title returns the title of the output grid, which includes the year
// and month of the data.
func (c *Coordinates) Title() string {
	if len(c.Time) == 0 {
		return "CAMS GFAS Inventory"
	}
	i := titleTimeIndex
	if i >= len(c.Time) {
		i = len(c.Time) - 1
	}
	t := time.Unix(int64(c.Time[i])*3600, 0).UTC()
	return fmt.Sprintf("CAMS GFAS Inventory - %d/%d", t.Year(), int(t.Month()))
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
