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
	"context"
	"fmt"

	"github.com/ctessum/sparse"
)

// ConcatTime returns the concatenation of a and b along their first
// (time) axis. Both must have the same latitude and longitude extents.
func ConcatTime(a, b *sparse.DenseArray) (*sparse.DenseArray, error) {
	if len(a.Shape) != 3 || len(b.Shape) != 3 {
		return nil, fmt.Errorf("gfas: concatenating arrays: want 3 dimensions, have %d and %d",
			len(a.Shape), len(b.Shape))
	}
	if a.Shape[1] != b.Shape[1] || a.Shape[2] != b.Shape[2] {
		return nil, fmt.Errorf("%w: %dx%d and %dx%d", ErrExtentMismatch,
			a.Shape[1], a.Shape[2], b.Shape[1], b.Shape[2])
	}
	o := sparse.ZerosDense(a.Shape[0]+b.Shape[0], a.Shape[1], a.Shape[2])
	copy(o.Elements, a.Elements)
	copy(o.Elements[len(a.Elements):], b.Elements)
	return o, nil
}

// Combine processes two half-month files into a single monthly output
// grid. The first file must precede the second in time. The time
// dimension of the output is unlimited so that it can be extended.
func (r *Runner) Combine(ctx context.Context, first, second, output string) error {
	return r.run(ctx, output, true, first, second)
}
