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
	"errors"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestFlipLatitude(t *testing.T) {
	a := sparse.ZerosDense(2, 3, 2)
	copy(a.Elements, []float64{
		1, 2,
		3, 4,
		5, 6,

		7, 8,
		9, 10,
		11, 12,
	})
	want := []float64{
		5, 6,
		3, 4,
		1, 2,

		11, 12,
		9, 10,
		7, 8,
	}
	o := FlipLatitude(a)
	if o != a {
		t.Error("array was not flipped in place")
	}
	if i := different(a.Elements, want, 0); i >= 0 {
		t.Errorf("element %d: have %g, want %g", i, a.Elements[i], want[i])
	}
	// An even number of rows has no middle row.
	b := sparse.ZerosDense(1, 2, 2)
	copy(b.Elements, []float64{1, 2, 3, 4})
	FlipLatitude(b)
	if i := different(b.Elements, []float64{3, 4, 1, 2}, 0); i >= 0 {
		t.Errorf("even rows: element %d: have %g", i, b.Elements[i])
	}
}

func TestTransformVariable(t *testing.T) {
	cfg := testConfig()
	log, _ := test.NewNullLogger()

	s := newMemSource("a.nc", rawHours(2, 1))
	// A flux that is mostly padding.
	s.fill("cofire", 3.5e-12, map[[3]int]float64{
		{0, 0, 0}: 2.5,
		{1, 2, 4}: 0,
	})
	if v := s.vars["cofire"].Get(1, 2, 4); v != 0 {
		t.Fatalf("raw zero: fixture holds %g", v)
	}
	// An injection height with the same padding value.
	s.fill("injh", 3.5e-12, map[[3]int]float64{
		{0, 0, 0}: 800,
	})

	t.Run("flux", func(t *testing.T) {
		o, err := TransformVariable(cfg, Variable{Code: "cofire"}, log, s)
		if err != nil {
			t.Fatal(err)
		}
		if !sameShape(o.Shape, []int{2, testNLat, testNLon}) {
			t.Fatalf("shape: have %v", o.Shape)
		}
		for i, v := range o.Elements {
			if v == 3.5e-12 {
				t.Fatalf("element %d still holds the dominant value", i)
			}
		}
		// Raw row 0 is the southernmost, which is the last output row.
		if v := o.Get(0, testNLat-1, 0); v != 2.5 {
			t.Errorf("flipped value: have %g, want 2.5", v)
		}
		if v := o.Get(0, 0, 0); v != 0 {
			t.Errorf("padding: have %g, want 0", v)
		}
		if v := o.Get(1, testNLat-3, 4); v != 0 {
			t.Errorf("raw zero: have %g, want 0", v)
		}
	})

	t.Run("height", func(t *testing.T) {
		o, err := TransformVariable(cfg, Variable{Code: "injh"}, log, s)
		if err != nil {
			t.Fatal(err)
		}
		fill := float64(cfg.FillValue)
		for i, v := range o.Elements {
			if v == 3.5e-12 {
				t.Fatalf("element %d still holds the dominant value", i)
			}
		}
		if v := o.Get(0, testNLat-1, 0); v != 800 {
			t.Errorf("height: have %g, want 800", v)
		}
		if v := o.Get(1, 3, 3); v != fill {
			t.Errorf("padding: have %g, want fill %g", v, fill)
		}
	})
}

// If the dominant value is already zero, the output keeps it.
func TestTransformVariableZeroMode(t *testing.T) {
	cfg := testConfig()
	log, _ := test.NewNullLogger()
	s := newMemSource("a.nc", rawHours(1, 1))
	s.fill("co2fire", 0, map[[3]int]float64{{0, 1, 1}: 4})
	o, err := TransformVariable(cfg, Variable{Code: "co2fire"}, log, s)
	if err != nil {
		t.Fatal(err)
	}
	if o.Sum() != 4 {
		t.Errorf("sum: have %g, want 4", o.Sum())
	}
}

// Each source is corrected with its own dominant value and the results
// are concatenated in order.
func TestTransformVariableTwoSources(t *testing.T) {
	cfg := testConfig()
	log, _ := test.NewNullLogger()
	a := newMemSource("a.nc", rawHours(2, 1))
	a.fill("bcfire", 1, map[[3]int]float64{{1, 0, 0}: 2})
	b := newMemSource("b.nc", rawHours(3, 16))
	// 2 dominates b, so it is padding there but data in a.
	b.fill("bcfire", 2, map[[3]int]float64{{0, 0, 0}: 1})

	o, err := TransformVariable(cfg, Variable{Code: "bcfire"}, log, a, b)
	if err != nil {
		t.Fatal(err)
	}
	if !sameShape(o.Shape, []int{5, testNLat, testNLon}) {
		t.Fatalf("shape: have %v, want [5 %d %d]", o.Shape, testNLat, testNLon)
	}
	south := testNLat - 1
	for _, c := range []struct {
		t    int
		want float64
	}{
		{0, 0}, // padding in a
		{1, 2}, // data in a
		{2, 1}, // data in b
		{3, 0}, // padding in b
		{4, 0},
	} {
		if v := o.Get(c.t, south, 0); v != c.want {
			t.Errorf("time %d: have %g, want %g", c.t, v, c.want)
		}
	}
}

func TestTransformVariableShapeMismatch(t *testing.T) {
	cfg := testConfig()
	log, _ := test.NewNullLogger()
	s := newMemSource("a.nc", rawHours(2, 1))
	s.vars["cofire"] = sparse.ZerosDense(2, testNLat, testNLon-1)
	_, err := TransformVariable(cfg, Variable{Code: "cofire"}, log, s)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("have error %v, want %v", err, ErrShapeMismatch)
	}
}

// Data that are more common than the padding are flagged.
func TestTransformVariableLowDominance(t *testing.T) {
	cfg := testConfig()
	log, hook := test.NewNullLogger()
	s := newMemSource("a.nc", rawHours(1, 1))
	a := s.fill("frpfire", 0, nil)
	for i := range a.Elements {
		a.Elements[i] = float64(i % 4)
	}
	if _, err := TransformVariable(cfg, Variable{Code: "frpfire"}, log, s); err != nil {
		t.Fatal(err)
	}
	var warnings int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	if warnings != 1 {
		t.Errorf("have %d warnings, want 1", warnings)
	}
}
