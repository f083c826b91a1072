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
	"fmt"
	"math"

	"github.com/spatialmodel/gfas"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgimg" // png and jpeg output
	_ "gonum.org/v1/plot/vg/vgsvg" // svg output
)

// grid presents one time step of a variable as a plotter.GridXYZ.
// Rows run south to north whatever the order of the file, and cells
// holding zero or the fill value are NaN so they are left blank.
type grid struct {
	data     []float64
	lat, lon []float64
	flip     bool
	min, max float64
}

func newGrid(data, lat, lon []float64, fill float32) *grid {
	g := &grid{data: data, lat: lat, lon: lon, flip: lat[0] > lat[len(lat)-1]}
	g.min, g.max = math.Inf(1), math.Inf(-1)
	for i, v := range data {
		if v == 0 || v == float64(fill) {
			g.data[i] = math.NaN()
			continue
		}
		g.min, g.max = math.Min(g.min, v), math.Max(g.max, v)
	}
	switch {
	case g.min > g.max: // no fires
		g.min, g.max = 0, 1
	case g.min == g.max:
		g.max = g.min + 1
	}
	return g
}

func (g *grid) row(r int) int {
	if g.flip {
		return len(g.lat) - 1 - r
	}
	return r
}

func (g *grid) Dims() (c, r int)   { return len(g.lon), len(g.lat) }
func (g *grid) Z(c, r int) float64 { return g.data[g.row(r)*len(g.lon)+c] }
func (g *grid) X(c int) float64    { return g.lon[c] }
func (g *grid) Y(r int) float64    { return g.lat[g.row(r)] }
func (g *grid) Min() float64       { return g.min }
func (g *grid) Max() float64       { return g.max }

// HeatMap draws the given time step of a variable and saves it to
// path, whose extension (png, jpg or svg) selects the format.
func HeatMap(src gfas.Source, v gfas.Variable, step int, fill float32, path string) error {
	if !src.Has(v.Code) {
		return fmt.Errorf("report: %s does not contain %s", src.Name(), v.Code)
	}
	data, err := src.Variable(v.Code)
	if err != nil {
		return err
	}
	if step < 0 || step >= data.Shape[0] {
		return fmt.Errorf("report: time step %d out of range [0, %d)", step, data.Shape[0])
	}
	lat, err := src.Latitudes()
	if err != nil {
		return err
	}
	lon, err := src.Longitudes()
	if err != nil {
		return err
	}
	if len(lat) < 2 || len(lon) < 2 {
		return fmt.Errorf("report: grid of %dx%d cells is too small to draw", len(lat), len(lon))
	}
	times, err := StepTimes(src)
	if err != nil {
		return err
	}
	n := len(lat) * len(lon)
	layer := make([]float64, n)
	copy(layer, data.Elements[step*n:(step+1)*n])

	h := plotter.NewHeatMap(newGrid(layer, lat, lon, fill), palette.Heat(64, 1))
	h.Rasterized = true
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%s) %s", v.Name, v.Unit, times[step].Format("2006-01-02"))
	p.X.Label.Text = "longitude"
	p.Y.Label.Text = "latitude"
	p.Add(h)
	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("report: saving %s: %v", path, err)
	}
	return nil
}
