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
	"strings"

	"github.com/ctessum/sparse"
)

// HeightPolicy selects which injection heights are considered to be
// too small to be real when a fire is present.
type HeightPolicy int

const (
	// SymmetricThreshold treats heights with -1 < h < 1 as zero
	// wherever the fire flux is non-zero.
	SymmetricThreshold HeightPolicy = iota

	// OneSidedThreshold treats heights with h < 1 as zero wherever
	// the fire flux is non-zero and greater than -1.
	OneSidedThreshold
)

func (p HeightPolicy) String() string {
	switch p {
	case SymmetricThreshold:
		return "symmetric"
	case OneSidedThreshold:
		return "onesided"
	default:
		return fmt.Sprintf("HeightPolicy(%d)", int(p))
	}
}

// ParseHeightPolicy returns the policy with the given name.
func ParseHeightPolicy(s string) (HeightPolicy, error) {
	switch strings.ToLower(s) {
	case "symmetric", "":
		return SymmetricThreshold, nil
	case "onesided", "one-sided":
		return OneSidedThreshold, nil
	default:
		return 0, fmt.Errorf("gfas: invalid height policy %q; valid options are 'symmetric' and 'onesided'", s)
	}
}

// minHeight is the smallest injection height, in meters, that is
// considered physically meaningful.
const minHeight = 1.0

func (p HeightPolicy) tooSmall(h, flux float64) bool {
	switch p {
	case OneSidedThreshold:
		return flux > -minHeight && h < minHeight
	default:
		return h > -minHeight && h < minHeight
	}
}

// CorrectHeights corrects the injection height array h using the
// co-located fire flux. Where the flux is exactly zero there is no fire
// and the height is set to fill. Otherwise, heights that are not
// already fill but are below one meter, as judged by p, are set to zero.
// It returns the number of cells set to fill and to zero. Applying it
// a second time changes nothing.
func CorrectHeights(h, flux *sparse.DenseArray, fill float64, p HeightPolicy) (nFill, nZero int, err error) {
	if len(h.Elements) != len(flux.Elements) || !sameShape(h.Shape, flux.Shape) {
		return 0, 0, fmt.Errorf("%w: heights are %v but flux is %v", ErrShapeMismatch, h.Shape, flux.Shape)
	}
	for i, f := range flux.Elements {
		if f == 0 && h.Elements[i] != fill {
			h.Elements[i] = fill
			nFill++
		}
	}
	for i, f := range flux.Elements {
		v := h.Elements[i]
		if v != fill && f != 0 && v != 0 && p.tooSmall(v, f) {
			h.Elements[i] = 0
			nZero++
		}
	}
	return nFill, nZero, nil
}

func sameShape(a, b []int) bool {
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
