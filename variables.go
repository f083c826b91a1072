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

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
)

// FlipLatitude reverses the latitude axis of the (time, lat, lon)
// array a in place and returns a.
func FlipLatitude(a *sparse.DenseArray) *sparse.DenseArray {
	nt, ny, nx := a.Shape[0], a.Shape[1], a.Shape[2]
	tmp := make([]float64, nx)
	for t := 0; t < nt; t++ {
		for j := 0; j < ny/2; j++ {
			north := a.Elements[(t*ny+j)*nx : (t*ny+j+1)*nx]
			south := a.Elements[(t*ny+ny-1-j)*nx : (t*ny+ny-j)*nx]
			copy(tmp, north)
			copy(north, south)
			copy(south, tmp)
		}
	}
	return a
}

// TransformVariable reads variable v from each source, reorients it to
// north-to-south latitude, and replaces its dominant value with
// either the fill value (for injection heights) or zero. Each source
// is corrected using its own dominant value, and the results are
// concatenated along the time axis.
//
// Every source must contain v. The array read from each source must be
// (time steps in that source, cfg.NLat, cfg.NLon) in size.
func TransformVariable(cfg GridConfig, v Variable, log logrus.FieldLogger, srcs ...Source) (*sparse.DenseArray, error) {
	replacement := 0.0
	if cfg.IsHeight(v.Code) {
		replacement = float64(cfg.FillValue)
	}
	var out *sparse.DenseArray
	for _, s := range srcs {
		raw, err := s.Variable(v.Code)
		if err != nil {
			return nil, err
		}
		t, err := s.Times()
		if err != nil {
			return nil, err
		}
		if len(raw.Shape) != 3 || raw.Shape[0] != len(t) || raw.Shape[1] != cfg.NLat || raw.Shape[2] != cfg.NLon {
			return nil, fmt.Errorf("%w: %s variable %s is %v; want [%d %d %d]", ErrShapeMismatch,
				s.Name(), v.Code, raw.Shape, len(t), cfg.NLat, cfg.NLon)
		}
		a := FlipLatitude(raw)

		mode, frac := DominantValue(a)
		l := log.WithFields(logrus.Fields{"variable": v.Code, "file": s.Name()})
		if frac < minDominance {
			l.Warnf("dominant value %g only covers %.1f%% of cells; it may not be padding", mode, frac*100)
		}
		n := ReplaceValue(a, mode, replacement)
		l.Debugf("replaced %d cells holding %g with %g", n, mode, replacement)

		if out == nil {
			out = a
			continue
		}
		if out, err = ConcatTime(out, a); err != nil {
			return nil, err
		}
	}
	return out, nil
}
