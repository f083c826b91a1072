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
	"time"

	"github.com/tealeg/xlsx"
)

// WriteXLSX saves sums to a spreadsheet with two sheets: "summary",
// with one row per variable, and "daily", with the number of fire
// cells of each variable at each time step.
func WriteXLSX(path string, times []time.Time, sums []Summary) error {
	f := xlsx.NewFile()
	summary, err := f.AddSheet("summary")
	if err != nil {
		return fmt.Errorf("report: %v", err)
	}
	addStrings(summary.AddRow(), "code", "name", "unit", "fire cells", "min", "max", "mean")
	for _, s := range sums {
		row := summary.AddRow()
		addStrings(row, s.Variable.Code, s.Variable.Name, s.Variable.Unit)
		row.AddCell().SetInt(s.Total())
		for _, v := range []float64{s.Min, s.Max, s.Mean} {
			if math.IsNaN(v) {
				row.AddCell()
				continue
			}
			row.AddCell().SetFloat(v)
		}
	}

	daily, err := f.AddSheet("daily")
	if err != nil {
		return fmt.Errorf("report: %v", err)
	}
	header := daily.AddRow()
	header.AddCell().SetString("time")
	for _, s := range sums {
		header.AddCell().SetString(s.Variable.Code)
	}
	for i, t := range times {
		row := daily.AddRow()
		row.AddCell().SetString(t.Format("2006-01-02 15:04"))
		for _, s := range sums {
			if i < len(s.FireCells) {
				row.AddCell().SetInt(s.FireCells[i])
			} else {
				row.AddCell()
			}
		}
	}
	if err := f.Save(path); err != nil {
		return fmt.Errorf("report: saving %s: %v", path, err)
	}
	return nil
}

func addStrings(row *xlsx.Row, s ...string) {
	for _, v := range s {
		row.AddCell().SetString(v)
	}
}
