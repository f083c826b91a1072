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

package cds

import (
	"testing"
	"time"
)

func TestMonthRequest(t *testing.T) {
	for _, test := range []struct {
		year  int
		month time.Month
		want  string
	}{
		{2019, time.January, "2019-01-01/2019-01-31"},
		{2020, time.February, "2020-02-01/2020-02-29"},
		{2021, time.February, "2021-02-01/2021-02-28"},
		{2019, time.December, "2019-12-01/2019-12-31"},
	} {
		r := MonthRequest(test.year, test.month, []string{"injection_height"})
		if r.Date != test.want {
			t.Errorf("%d-%d: have %s, want %s", test.year, test.month, r.Date, test.want)
		}
		if len(r.Variables) != 1 || r.DataFormat != "netcdf" {
			t.Errorf("%d-%d: have %+v", test.year, test.month, r)
		}
	}
}

func TestHalfMonthRequests(t *testing.T) {
	r := HalfMonthRequests(2020, time.February, nil)
	if r[0].Date != "2020-02-01/2020-02-15" {
		t.Errorf("first half: have %s", r[0].Date)
	}
	if r[1].Date != "2020-02-16/2020-02-29" {
		t.Errorf("second half: have %s", r[1].Date)
	}
	if len(r[0].Variables) != len(Variables) {
		t.Errorf("have %d variables, want the %d defaults", len(r[0].Variables), len(Variables))
	}
}

func TestFileName(t *testing.T) {
	if n := FileName(2019, time.March, ""); n != "GFAS_RAW_2019_3.nc" {
		t.Errorf("have %s", n)
	}
	if n := FileName(2019, time.November, "b"); n != "GFAS_RAW_2019_11_b.nc" {
		t.Errorf("have %s", n)
	}
}

func TestParseMonth(t *testing.T) {
	y, m, err := ParseMonth("2019-07")
	if err != nil {
		t.Fatal(err)
	}
	if y != 2019 || m != time.July {
		t.Errorf("have %d-%d", y, m)
	}
	for _, s := range []string{"2019-13", "2019/07", "July 2019", ""} {
		if _, _, err := ParseMonth(s); err == nil {
			t.Errorf("%q: want an error", s)
		}
	}
}
