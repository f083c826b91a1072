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

// Package report summarizes processed GFAS files for quality checks.
package report

import (
	"fmt"
	"math"
	"time"

	"github.com/spatialmodel/gfas"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the fire cells of one variable.
type Summary struct {
	Variable gfas.Variable

	// FireCells holds, for each time step, the number of cells whose
	// value is neither zero nor the fill value.
	FireCells []int

	// Min, Max and Mean are taken over the fire cells of all time
	// steps. They are NaN if there are none.
	Min, Max, Mean float64
}

// Total returns the number of fire cells over all time steps.
func (s Summary) Total() int {
	var n int
	for _, c := range s.FireCells {
		n += c
	}
	return n
}

// Summarize computes a Summary for each variable in vars that is
// present in src. fill is the fill value of the height variables.
func Summarize(src gfas.Source, vars []gfas.Variable, fill float32) ([]Summary, error) {
	var sums []Summary
	for _, v := range vars {
		if !src.Has(v.Code) {
			continue
		}
		data, err := src.Variable(v.Code)
		if err != nil {
			return nil, err
		}
		if len(data.Shape) != 3 {
			return nil, fmt.Errorf("report: %s has %d dimensions; want 3", v.Code, len(data.Shape))
		}
		s := Summary{Variable: v, FireCells: make([]int, data.Shape[0])}
		n := data.Shape[1] * data.Shape[2]
		var valid []float64
		for i, x := range data.Elements {
			if x == 0 || x == float64(fill) || math.IsNaN(x) {
				continue
			}
			s.FireCells[i/n]++
			valid = append(valid, x)
		}
		if len(valid) == 0 {
			s.Min, s.Max, s.Mean = math.NaN(), math.NaN(), math.NaN()
		} else {
			s.Min, s.Max = floats.Min(valid), floats.Max(valid)
			s.Mean = stat.Mean(valid, nil)
		}
		sums = append(sums, s)
	}
	return sums, nil
}

// StepTimes returns the time of each step of a processed file, whose
// times are in hours since 1970-01-01.
func StepTimes(src gfas.Source) ([]time.Time, error) {
	hours, err := src.Times()
	if err != nil {
		return nil, err
	}
	t := make([]time.Time, len(hours))
	for i, h := range hours {
		t[i] = time.Unix(h*3600, 0).UTC()
	}
	return t, nil
}
