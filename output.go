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
	"path/filepath"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// historyTimeFormat is the format of the creation time in the
// "history" attribute.
const historyTimeFormat = "2006-01-02 15:04:05.000000"

// Output is a netCDF output grid being written. Data are written to a
// temporary file in the same directory as the destination, which only
// appears at the destination once Commit succeeds.
type Output struct {
	path, tmp string
	f         *os.File
	nc        *cdf.File

	ntime, nlat, nlon int
	unlimited         bool
	vars              map[string]bool
}

// CreateOutput creates a new output grid at path with the given
// coordinates and data variables. If unlimited is true, time is
// the record dimension of the file.
func CreateOutput(path string, cfg GridConfig, c *Coordinates, vars []Variable, unlimited bool, created time.Time) (*Output, error) {
	o := &Output{
		path:      path,
		ntime:     len(c.Time),
		nlat:      len(c.Lat),
		nlon:      len(c.Lon),
		unlimited: unlimited,
		vars:      make(map[string]bool),
	}

	tlen := o.ntime
	if unlimited {
		tlen = 0
	}
	h := cdf.NewHeader([]string{TimeDim, LatDim, LonDim}, []int{tlen, o.nlat, o.nlon})

	h.AddAttribute("", "title", c.Title())
	h.AddAttribute("", "conventions", cfg.Conventions)
	h.AddAttribute("", "history", fmt.Sprintf("Created at %s by %s",
		created.UTC().Format(historyTimeFormat), cfg.Institution))

	h.AddVariable(TimeDim, []string{TimeDim}, []int32{0})
	h.AddAttribute(TimeDim, "units", cfg.TimeUnits)
	h.AddAttribute(TimeDim, "long_name", "time")
	h.AddAttribute(TimeDim, "calendar", cfg.Calendar)

	h.AddVariable(LatDim, []string{LatDim}, []float32{0})
	h.AddAttribute(LatDim, "units", "degrees_north")
	h.AddAttribute(LatDim, "long_name", "latitude")

	h.AddVariable(LonDim, []string{LonDim}, []float32{0})
	h.AddAttribute(LonDim, "units", "degrees_east")
	h.AddAttribute(LonDim, "long_name", "longitude")

	for _, v := range vars {
		h.AddVariable(v.Code, []string{TimeDim, LatDim, LonDim}, []float32{0})
		h.AddAttribute(v.Code, "units", v.Unit)
		h.AddAttribute(v.Code, "long_name", v.Name)
		h.AddAttribute(v.Code, "_FillValue", []float32{cfg.FillValue})
		h.AddAttribute(v.Code, "missing_value", []float32{cfg.FillValue})
		o.vars[v.Code] = true
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return nil, fmt.Errorf("gfas: invalid output header: %v", errs[0])
	}

	var err error
	o.f, err = os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.partial")
	if err != nil {
		return nil, fmt.Errorf("gfas: creating output file: %v", err)
	}
	o.tmp = o.f.Name()
	o.nc, err = cdf.Create(o.f, h) // writes the header to f
	if err != nil {
		o.Abort()
		return nil, fmt.Errorf("gfas: writing output header: %v", err)
	}
	return o, nil
}

// WriteCoordinates writes the time, latitude and longitude variables.
func (o *Output) WriteCoordinates(c *Coordinates) error {
	if len(c.Time) != o.ntime || len(c.Lat) != o.nlat || len(c.Lon) != o.nlon {
		return fmt.Errorf("%w: coordinates do not match output header", ErrShapeMismatch)
	}
	if o.unlimited {
		for t, v := range c.Time {
			w := o.nc.Writer(TimeDim, []int{t}, []int{t + 1})
			if _, err := w.Write([]int32{v}); err != nil {
				return fmt.Errorf("gfas: writing time step %d: %v", t, err)
			}
		}
	} else if _, err := o.writer(TimeDim).Write(c.Time); err != nil {
		return fmt.Errorf("gfas: writing time: %v", err)
	}
	if _, err := o.writer(LatDim).Write(c.Lat); err != nil {
		return fmt.Errorf("gfas: writing latitude: %v", err)
	}
	if _, err := o.writer(LonDim).Write(c.Lon); err != nil {
		return fmt.Errorf("gfas: writing longitude: %v", err)
	}
	return nil
}

// writer returns a writer for the whole of a fixed-size variable.
// The end index is one past the last element so that filling the
// variable does not report io.EOF.
func (o *Output) writer(v string) cdf.Writer {
	end := o.nc.Header.Lengths(v)
	start := make([]int, len(end))
	return o.nc.Writer(v, start, end)
}

func (o *Output) checkVariable(code string, data *sparse.DenseArray) error {
	if !o.vars[code] {
		return fmt.Errorf("gfas: variable %s is not in the output header", code)
	}
	if data == nil {
		return nil
	}
	if !sameShape(data.Shape, []int{o.ntime, o.nlat, o.nlon}) {
		return fmt.Errorf("%w: variable %s is %v; output grid is [%d %d %d]", ErrShapeMismatch,
			code, data.Shape, o.ntime, o.nlat, o.nlon)
	}
	return nil
}

// WriteVariable writes the (time, lat, lon) array data to the
// variable code, one time step at a time if time is unlimited.
func (o *Output) WriteVariable(code string, data *sparse.DenseArray) error {
	if err := o.checkVariable(code, data); err != nil {
		return err
	}
	data32 := make([]float32, len(data.Elements))
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	if !o.unlimited {
		if _, err := o.writer(code).Write(data32); err != nil {
			return fmt.Errorf("gfas: writing variable %s: %v", code, err)
		}
		return nil
	}
	n := o.nlat * o.nlon
	for t := 0; t < o.ntime; t++ {
		w := o.nc.Writer(code, []int{t, 0, 0}, []int{t + 1, 0, 0})
		if _, err := w.Write(data32[t*n : (t+1)*n]); err != nil {
			return fmt.Errorf("gfas: writing variable %s time step %d: %v", code, t, err)
		}
	}
	return nil
}

// ReadVariable reads back a variable that has already been written.
func (o *Output) ReadVariable(code string) (*sparse.DenseArray, error) {
	if err := o.checkVariable(code, nil); err != nil {
		return nil, err
	}
	data := sparse.ZerosDense(o.ntime, o.nlat, o.nlon)
	n := o.nlat * o.nlon
	buf := make([]float32, len(data.Elements))
	if !o.unlimited {
		if _, err := o.nc.Reader(code, nil, nil).Read(buf); err != nil {
			return nil, fmt.Errorf("gfas: reading variable %s: %v", code, err)
		}
	} else {
		for t := 0; t < o.ntime; t++ {
			r := o.nc.Reader(code, []int{t, 0, 0}, []int{t + 1, 0, 0})
			if _, err := r.Read(buf[t*n : (t+1)*n]); err != nil {
				return nil, fmt.Errorf("gfas: reading variable %s time step %d: %v", code, t, err)
			}
		}
	}
	for i, v := range buf {
		data.Elements[i] = float64(v)
	}
	return data, nil
}

// Commit finalizes the output and moves it to its destination.
func (o *Output) Commit() error {
	if err := cdf.UpdateNumRecs(o.f); err != nil {
		o.Abort()
		return fmt.Errorf("gfas: updating record count: %v", err)
	}
	// Temporary files are created private.
	if err := o.f.Chmod(0644); err != nil {
		o.Abort()
		return fmt.Errorf("gfas: setting output permissions: %v", err)
	}
	if err := o.f.Sync(); err != nil {
		o.Abort()
		return fmt.Errorf("gfas: flushing output: %v", err)
	}
	if err := o.f.Close(); err != nil {
		os.Remove(o.tmp)
		return fmt.Errorf("gfas: closing output: %v", err)
	}
	if err := os.Rename(o.tmp, o.path); err != nil {
		os.Remove(o.tmp)
		return fmt.Errorf("gfas: moving output into place: %v", err)
	}
	return nil
}

// Abort discards the output. It is safe to call after Commit.
func (o *Output) Abort() {
	if o.f != nil {
		o.f.Close()
	}
	if o.tmp != "" {
		os.Remove(o.tmp)
	}
}

// OpenOutput opens a processed output file for reading.
func OpenOutput(path string, cfg GridConfig) (Source, error) {
	cfg.SourceTime, cfg.SourceLat, cfg.SourceLon = TimeDim, LatDim, LonDim
	return OpenSource(path, cfg)
}
