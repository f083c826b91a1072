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
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/stat"
)

// DominantValue returns the value that occurs most often in a, along
// with the fraction of elements that hold it.
//
// Raw GFAS grids have no explicit missing-data marker: cells with no
// fire hold a constant padding value, and that value is assumed to be
// the most common one. The assumption fails if real data are more
// common than padding, which callers can detect from a low fraction.
// When two values are equally common, which one is returned is not
// defined.
func DominantValue(a *sparse.DenseArray) (value, fraction float64) {
	if len(a.Elements) == 0 {
		return 0, 0
	}
	value, count := stat.Mode(a.Elements, nil)
	return value, count / float64(len(a.Elements))
}

// minDominance is the fraction of cells below which the dominant value
// is unlikely to be padding.
const minDominance = 0.5

// ReplaceValue sets every element of a that equals old to replacement,
// returning the number of elements changed.
func ReplaceValue(a *sparse.DenseArray, old, replacement float64) int {
	var n int
	for i, v := range a.Elements {
		if v == old {
			a.Elements[i] = replacement
			n++
		}
	}
	return n
}
