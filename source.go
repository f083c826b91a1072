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
	"math"
	"path/filepath"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/ctessum/sparse"
)

// Source is a raw gridded input file. Variables are returned exactly as
// stored, apart from unpacking of scaled integers: no masking
// of missing values is performed.
type Source interface {
	// Name returns the name of the underlying file.
	Name() string

	// Has returns whether the source contains the given variable.
	Has(code string) bool

	// Variables lists the variables in the source.
	Variables() []string

	// Times returns the raw time coordinate.
	Times() ([]int64, error)

	// Latitudes and Longitudes return the raw spatial coordinates.
	Latitudes() ([]float64, error)
	Longitudes() ([]float64, error)

	// Variable returns the full (time, latitude, longitude) array of
	// the given variable.
	Variable(code string) (*sparse.DenseArray, error)

	Close() error
}

// ncSource is a Source backed by a netCDF3 or netCDF4 file.
type ncSource struct {
	path string
	cfg  GridConfig
	nc   api.Group
	vars map[string]bool

	nt, nlat, nlon int
}

// OpenSource opens the netCDF file at path, which may be in either
// classic or HDF5-based format.
func OpenSource(path string, cfg GridConfig) (Source, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gfas: opening %s: %v", path, err)
	}
	s := &ncSource{path: path, cfg: cfg, nc: nc, vars: make(map[string]bool)}
	for _, v := range nc.ListVariables() {
		s.vars[v] = true
	}
	for _, c := range []string{cfg.SourceTime, cfg.SourceLat, cfg.SourceLon} {
		if !s.vars[c] {
			nc.Close()
			return nil, fmt.Errorf("gfas: %s is missing coordinate variable %s", path, c)
		}
	}
	t, err := s.Times()
	if err != nil {
		nc.Close()
		return nil, err
	}
	lat, err := s.Latitudes()
	if err != nil {
		nc.Close()
		return nil, err
	}
	lon, err := s.Longitudes()
	if err != nil {
		nc.Close()
		return nil, err
	}
	s.nt, s.nlat, s.nlon = len(t), len(lat), len(lon)
	return s, nil
}

func (s *ncSource) Name() string { return filepath.Base(s.path) }

func (s *ncSource) Has(code string) bool { return s.vars[code] }

func (s *ncSource) Variables() []string { return s.nc.ListVariables() }

func (s *ncSource) Close() error {
	s.nc.Close()
	return nil
}

func (s *ncSource) Times() ([]int64, error) {
	v, err := s.values(s.cfg.SourceTime)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case []int32:
		return convert1(t, func(x int32) int64 { return int64(x) }), nil
	case []int64:
		return t, nil
	case []float32:
		return convert1(t, func(x float32) int64 { return int64(math.Round(float64(x))) }), nil
	case []float64:
		return convert1(t, func(x float64) int64 { return int64(math.Round(x)) }), nil
	default:
		return nil, fmt.Errorf("gfas: %s: unsupported type %T for %s", s.path, v, s.cfg.SourceTime)
	}
}

func (s *ncSource) Latitudes() ([]float64, error) { return s.floats(s.cfg.SourceLat) }

func (s *ncSource) Longitudes() ([]float64, error) { return s.floats(s.cfg.SourceLon) }

func (s *ncSource) values(name string) (interface{}, error) {
	vg, err := s.nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("gfas: %s: reading %s: %v", s.path, name, err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("gfas: %s: reading %s: %v", s.path, name, err)
	}
	return v, nil
}

func (s *ncSource) floats(name string) ([]float64, error) {
	v, err := s.values(name)
	if err != nil {
		return nil, err
	}
	switch c := v.(type) {
	case []float32:
		return convert1(c, func(x float32) float64 { return float64(x) }), nil
	case []float64:
		return c, nil
	default:
		return nil, fmt.Errorf("gfas: %s: unsupported type %T for %s", s.path, v, name)
	}
}

// Variable reads the variable one time step at a time into a
// (time, latitude, longitude) array, unpacking it if it has
// scale_factor or add_offset attributes.
func (s *ncSource) Variable(code string) (*sparse.DenseArray, error) {
	vg, err := s.nc.GetVarGetter(code)
	if err != nil {
		return nil, fmt.Errorf("gfas: %s: reading %s: %v", s.path, code, err)
	}
	dims := vg.Dimensions()
	if len(dims) != 3 || dims[0] != s.cfg.SourceTime || dims[1] != s.cfg.SourceLat || dims[2] != s.cfg.SourceLon {
		return nil, fmt.Errorf("%w: %s variable %s has dimensions %v; want [%s %s %s]", ErrShapeMismatch,
			s.path, code, dims, s.cfg.SourceTime, s.cfg.SourceLat, s.cfg.SourceLon)
	}
	if int(vg.Len()) != s.nt {
		return nil, fmt.Errorf("%w: %s variable %s has %d time steps; want %d", ErrShapeMismatch,
			s.path, code, vg.Len(), s.nt)
	}
	scale, offset := unpacking(vg.Attributes())

	out := sparse.ZerosDense(s.nt, s.nlat, s.nlon)
	n := s.nlat * s.nlon
	for t := 0; t < s.nt; t++ {
		v, err := vg.GetSlice(int64(t), int64(t+1))
		if err != nil {
			return nil, fmt.Errorf("gfas: %s: reading %s time step %d: %v", s.path, code, t, err)
		}
		dst := out.Elements[t*n : (t+1)*n]
		switch slab := v.(type) {
		case [][][]int8:
			err = copySlab(slab, dst, s.nlat, s.nlon, scale, offset)
		case [][][]int16:
			err = copySlab(slab, dst, s.nlat, s.nlon, scale, offset)
		case [][][]int32:
			err = copySlab(slab, dst, s.nlat, s.nlon, scale, offset)
		case [][][]int64:
			err = copySlab(slab, dst, s.nlat, s.nlon, scale, offset)
		case [][][]float32:
			err = copySlab(slab, dst, s.nlat, s.nlon, scale, offset)
		case [][][]float64:
			err = copySlab(slab, dst, s.nlat, s.nlon, scale, offset)
		default:
			err = fmt.Errorf("unsupported type %T", v)
		}
		if err != nil {
			return nil, fmt.Errorf("gfas: %s: variable %s: %w", s.path, code, err)
		}
	}
	return out, nil
}

type number interface {
	int8 | int16 | int32 | int64 | float32 | float64
}

// copySlab copies a single time step into dst, checking that it is
// not ragged.
func copySlab[T number](slab [][][]T, dst []float64, nlat, nlon int, scale, offset float64) error {
	if len(slab) != 1 {
		return fmt.Errorf("%w: got %d time steps in slab; want 1", ErrShapeMismatch, len(slab))
	}
	if len(slab[0]) != nlat {
		return fmt.Errorf("%w: time slab has %d rows; want %d", ErrShapeMismatch, len(slab[0]), nlat)
	}
	i := 0
	for j, row := range slab[0] {
		if len(row) != nlon {
			return fmt.Errorf("%w: row %d has %d columns; want %d", ErrShapeMismatch, j, len(row), nlon)
		}
		for _, x := range row {
			dst[i] = float64(x)*scale + offset
			i++
		}
	}
	return nil
}

// unpacking returns the scale factor and offset of a packed variable,
// or 1 and 0 if it is not packed.
func unpacking(attrs api.AttributeMap) (scale, offset float64) {
	scale, offset = 1, 0
	if attrs == nil {
		return
	}
	if v, ok := attrs.Get("scale_factor"); ok {
		if f, ok := attrFloat(v); ok {
			scale = f
		}
	}
	if v, ok := attrs.Get("add_offset"); ok {
		if f, ok := attrFloat(v); ok {
			offset = f
		}
	}
	return
}

func attrFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case []float64:
		if len(x) > 0 {
			return x[0], true
		}
	case []float32:
		if len(x) > 0 {
			return float64(x[0]), true
		}
	}
	return 0, false
}

func convert1[T, U any](in []T, f func(T) U) []U {
	out := make([]U, len(in))
	for i, x := range in {
		out[i] = f(x)
	}
	return out
}
