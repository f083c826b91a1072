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

package report

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/gfas"
	"github.com/tealeg/xlsx"
)

const testFill = float32(-1e-31)

var (
	cofire = gfas.Variable{Code: "cofire", Name: "Wildfire flux of carbon monoxide", Unit: "kg m**-2 s**-1"}
	injh   = gfas.Variable{Code: "injh", Name: "Injection height", Unit: "m"}
	absent = gfas.Variable{Code: "c2h6fire", Name: "Wildfire flux of ethane", Unit: "kg m**-2 s**-1"}
)

// testSource is a processed file with two daily steps on a 3x4 grid,
// north to south.
type testSource struct {
	vars map[string]*sparse.DenseArray
}

func newTestSource() *testSource {
	co := sparse.ZerosDense(2, 3, 4)
	co.Elements[co.Index1d(0, 0, 0)] = 2
	co.Elements[co.Index1d(0, 1, 2)] = 4
	co.Elements[co.Index1d(1, 2, 3)] = 6
	h := sparse.ZerosDense(2, 3, 4)
	for i := range h.Elements {
		h.Elements[i] = float64(testFill)
	}
	h.Elements[h.Index1d(0, 0, 0)] = 800
	h.Elements[h.Index1d(0, 1, 2)] = 0 // fire below a meter
	h.Elements[h.Index1d(1, 2, 3)] = 1200
	return &testSource{vars: map[string]*sparse.DenseArray{"cofire": co, "injh": h}}
}

func (s *testSource) Name() string { return "GFAS_2019_1.nc" }
func (s *testSource) Has(code string) bool {
	_, ok := s.vars[code]
	return ok
}
func (s *testSource) Variables() []string            { return []string{"cofire", "injh"} }
func (s *testSource) Times() ([]int64, error)        { return []int64{429528, 429552}, nil }
func (s *testSource) Latitudes() ([]float64, error)  { return []float64{40, 0, -40}, nil }
func (s *testSource) Longitudes() ([]float64, error) { return []float64{-135, -45, 45, 135}, nil }
func (s *testSource) Close() error                   { return nil }
func (s *testSource) Variable(code string) (*sparse.DenseArray, error) {
	a, ok := s.vars[code]
	if !ok {
		return nil, fmt.Errorf("no variable %s", code)
	}
	return a.Copy(), nil
}

func TestSummarize(t *testing.T) {
	src := newTestSource()
	if v := src.vars["injh"].Get(0, 1, 2); v != 0 {
		t.Fatalf("height below a meter: fixture holds %g, want 0", v)
	}
	sums, err := Summarize(src, []gfas.Variable{cofire, absent, injh}, testFill)
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 2 {
		t.Fatalf("have %d summaries, want 2", len(sums))
	}
	co, h := sums[0], sums[1]
	if co.Variable.Code != "cofire" || h.Variable.Code != "injh" {
		t.Fatalf("order: have %s, %s", co.Variable.Code, h.Variable.Code)
	}
	if co.FireCells[0] != 2 || co.FireCells[1] != 1 || co.Total() != 3 {
		t.Errorf("cofire fire cells: have %v", co.FireCells)
	}
	if co.Min != 2 || co.Max != 6 || co.Mean != 4 {
		t.Errorf("cofire stats: have %g, %g, %g", co.Min, co.Max, co.Mean)
	}
	if h.FireCells[0] != 1 || h.FireCells[1] != 1 {
		t.Errorf("injh fire cells: have %v", h.FireCells)
	}
	if h.Min != 800 || h.Max != 1200 || h.Mean != 1000 {
		t.Errorf("injh stats: have %g, %g, %g", h.Min, h.Max, h.Mean)
	}
}

func TestSummarizeNoFires(t *testing.T) {
	s := newTestSource()
	s.vars["cofire"] = sparse.ZerosDense(2, 3, 4)
	sums, err := Summarize(s, []gfas.Variable{cofire}, testFill)
	if err != nil {
		t.Fatal(err)
	}
	if sums[0].Total() != 0 || !math.IsNaN(sums[0].Mean) {
		t.Errorf("have %+v", sums[0])
	}
}

func TestStepTimes(t *testing.T) {
	times, err := StepTimes(newTestSource())
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC)
	if len(times) != 2 || !times[1].Equal(want) {
		t.Errorf("have %v, want second step at %v", times, want)
	}
}

func TestWriteXLSX(t *testing.T) {
	src := newTestSource()
	sums, err := Summarize(src, []gfas.Variable{cofire, injh}, testFill)
	if err != nil {
		t.Fatal(err)
	}
	times, err := StepTimes(src)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	if err := WriteXLSX(path, times, sums); err != nil {
		t.Fatal(err)
	}
	f, err := xlsx.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	summary, daily := f.Sheet["summary"], f.Sheet["daily"]
	if summary == nil || daily == nil {
		t.Fatalf("missing sheets: have %v", f.Sheet)
	}
	if v := summary.Cell(1, 0).Value; v != "cofire" {
		t.Errorf("summary code: have %q", v)
	}
	if v := summary.Cell(2, 2).Value; v != "m" {
		t.Errorf("summary unit: have %q", v)
	}
	if n, err := strconv.Atoi(summary.Cell(1, 3).Value); err != nil || n != 3 {
		t.Errorf("summary fire cells: have %q", summary.Cell(1, 3).Value)
	}
	if v := daily.Cell(2, 0).Value; v != "2019-01-02 00:00" {
		t.Errorf("daily time: have %q", v)
	}
	if n, err := strconv.Atoi(daily.Cell(1, 1).Value); err != nil || n != 2 {
		t.Errorf("daily cofire: have %q", daily.Cell(1, 1).Value)
	}
}

func TestHeatMap(t *testing.T) {
	dir := t.TempDir()
	for ext, magic := range map[string][]byte{
		"png": []byte("\x89PNG"),
		"svg": []byte("<?xml"),
	} {
		path := filepath.Join(dir, "injh."+ext)
		if err := HeatMap(newTestSource(), injh, 1, testFill, path); err != nil {
			t.Fatal(err)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(b, magic) {
			t.Errorf("%s: file starts with %q", ext, b[:8])
		}
	}
}

func TestHeatMapErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.png")
	if err := HeatMap(newTestSource(), absent, 0, testFill, path); err == nil {
		t.Error("want an error for an absent variable")
	}
	if err := HeatMap(newTestSource(), injh, 2, testFill, path); err == nil {
		t.Error("want an error for a step out of range")
	}
	if err := HeatMap(newTestSource(), injh, 0, testFill, filepath.Join(t.TempDir(), "x.bmp")); err == nil {
		t.Error("want an error for an unsupported format")
	}
}

func TestGridOrientation(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6} // 3 rows, 2 columns, north to south
	g := newGrid(data, []float64{40, 0, -40}, []float64{-90, 90}, testFill)
	if c, r := g.Dims(); c != 2 || r != 3 {
		t.Fatalf("dims: have %d, %d", c, r)
	}
	if g.Y(0) != -40 || g.Y(2) != 40 {
		t.Errorf("rows are not south to north: %g, %g", g.Y(0), g.Y(2))
	}
	if g.Z(1, 0) != 6 || g.Z(0, 2) != 1 {
		t.Errorf("values: have %g, %g", g.Z(1, 0), g.Z(0, 2))
	}
}
