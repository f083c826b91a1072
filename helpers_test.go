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
	"os"
	"sort"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

const (
	testNLat = 8
	testNLon = 10
)

// testConfig returns a configuration for a small test grid.
func testConfig() GridConfig {
	cfg := DefaultGridConfig()
	cfg.NLat = testNLat
	cfg.NLon = testNLon
	return cfg
}

// testCoords returns raw latitudes (south to north) and longitudes.
func testCoords() (lat, lon []float64) {
	lat = make([]float64, testNLat)
	for i := range lat {
		lat[i] = -70 + 20*float64(i)
	}
	lon = make([]float64, testNLon)
	for i := range lon {
		lon[i] = -180 + 36*float64(i)
	}
	return
}

// rawHours returns nt daily raw times, in hours since 1900, starting on
// the given day of January 2019.
func rawHours(nt, firstDay int) []int64 {
	const jan2019 = 613608 + 429528 // hours since 1900 at 2019-01-01
	t := make([]int64, nt)
	for i := range t {
		t[i] = jan2019 + int64(24*(firstDay-1+i))
	}
	return t
}

// memSource is an in-memory Source.
type memSource struct {
	name     string
	times    []int64
	lat, lon []float64
	vars     map[string]*sparse.DenseArray
}

func newMemSource(name string, times []int64) *memSource {
	lat, lon := testCoords()
	return &memSource{name: name, times: times, lat: lat, lon: lon, vars: make(map[string]*sparse.DenseArray)}
}

// fill adds a variable whose cells all hold background, apart
// from the given overrides, which are indexed [t, j, i] in raw
// (south to north) orientation.
func (s *memSource) fill(code string, background float64, overrides map[[3]int]float64) *sparse.DenseArray {
	a := sparse.ZerosDense(len(s.times), len(s.lat), len(s.lon))
	for i := range a.Elements {
		a.Elements[i] = background
	}
	// Set ignores zeros in a dense array.
	for idx, v := range overrides {
		a.Elements[a.Index1d(idx[0], idx[1], idx[2])] = v
	}
	s.vars[code] = a
	return a
}

func (s *memSource) Name() string { return s.name }
func (s *memSource) Has(code string) bool {
	_, ok := s.vars[code]
	return ok
}
func (s *memSource) Times() ([]int64, error) { return s.times, nil }
func (s *memSource) Latitudes() ([]float64, error) { return s.lat, nil }
func (s *memSource) Longitudes() ([]float64, error) { return s.lon, nil }
func (s *memSource) Close() error { return nil }

func (s *memSource) Variables() []string {
	var v []string
	for k := range s.vars {
		v = append(v, k)
	}
	sort.Strings(v)
	return v
}

func (s *memSource) Variable(code string) (*sparse.DenseArray, error) {
	a, ok := s.vars[code]
	if !ok {
		return nil, fmt.Errorf("no variable %s", code)
	}
	return a.Copy(), nil
}

// writeRaw writes s to a classic netCDF file in the layout of a raw
// GFAS download.
func writeRaw(t *testing.T, path string, s *memSource) {
	t.Helper()
	h := cdf.NewHeader([]string{"time", "latitude", "longitude"},
		[]int{len(s.times), len(s.lat), len(s.lon)})
	h.AddVariable("time", []string{"time"}, []int32{0})
	h.AddAttribute("time", "units", "hours since 1900-01-01 00:00:00.0")
	h.AddVariable("latitude", []string{"latitude"}, []float32{0})
	h.AddVariable("longitude", []string{"longitude"}, []float32{0})
	names := s.Variables()
	for _, name := range names {
		h.AddVariable(name, []string{"time", "latitude", "longitude"}, []float32{0})
	}
	h.Define()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	ff, err := cdf.Create(f, h)
	if err != nil {
		t.Fatal(err)
	}
	write := func(v string, data interface{}) {
		end := ff.Header.Lengths(v)
		w := ff.Writer(v, make([]int, len(end)), end)
		if _, err := w.Write(data); err != nil {
			t.Fatalf("writing %s: %v", v, err)
		}
	}
	times := make([]int32, len(s.times))
	for i, v := range s.times {
		times[i] = int32(v)
	}
	write("time", times)
	write("latitude", toFloat32(s.lat))
	write("longitude", toFloat32(s.lon))
	for _, name := range names {
		write(name, toFloat32(s.vars[name].Elements))
	}
	if err := cdf.UpdateNumRecs(f); err != nil {
		t.Fatal(err)
	}
}

func toFloat32(x []float64) []float32 {
	o := make([]float32, len(x))
	for i, v := range x {
		o[i] = float32(v)
	}
	return o
}

// different reports the first index at which a and b differ by more than
// tolerance, or -1.
func different(a, b []float64, tolerance float64) int {
	if len(a) != len(b) {
		return 0
	}
	for i := range a {
		d := a[i] - b[i]
		if d > tolerance || d < -tolerance {
			return i
		}
	}
	return -1
}
