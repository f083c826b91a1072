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
	"fmt"
	"time"
)

// Dataset is the data store name of the GFAS dataset.
const Dataset = "cams-global-fire-emissions-gfas"

// Variables are the data store names of the GFAS fields that are
// retrieved by default.
var Variables = []string{
	"altitude_of_plume_bottom",
	"altitude_of_plume_top",
	"injection_height",
	"mean_altitude_of_maximum_injection",
	"wildfire_combustion_rate",
	"wildfire_flux_of_acetaldehyde",
	"wildfire_flux_of_acetone",
	"wildfire_flux_of_ammonia",
	"wildfire_flux_of_benzene",
	"wildfire_flux_of_black_carbon",
	"wildfire_flux_of_butanes",
	"wildfire_flux_of_butenes",
	"wildfire_flux_of_carbon_dioxide",
	"wildfire_flux_of_carbon_monoxide",
	"wildfire_flux_of_dimethyl_sulfide",
	"wildfire_flux_of_ethane",
	"wildfire_flux_of_ethanol",
	"wildfire_flux_of_ethene",
	"wildfire_flux_of_formaldehyde",
	"wildfire_flux_of_heptane",
	"wildfire_flux_of_hexanes",
	"wildfire_flux_of_hexene",
	"wildfire_flux_of_higher_alkanes",
	"wildfire_flux_of_higher_alkenes",
	"wildfire_flux_of_hydrogen",
	"wildfire_flux_of_isoprene",
	"wildfire_flux_of_methane",
	"wildfire_flux_of_methanol",
	"wildfire_flux_of_nitrogen_oxides",
	"wildfire_flux_of_nitrous_oxide",
	"wildfire_flux_of_non_methane_hydrocarbons",
	"wildfire_flux_of_octene",
	"wildfire_flux_of_organic_carbon",
	"wildfire_flux_of_particulate_matter_d_2_5_µm",
	"wildfire_flux_of_pentanes",
	"wildfire_flux_of_pentenes",
	"wildfire_flux_of_propane",
	"wildfire_flux_of_propene",
	"wildfire_flux_of_sulphur_dioxide",
	"wildfire_flux_of_terpenes",
	"wildfire_flux_of_toluene",
	"wildfire_flux_of_toluene_lump",
	"wildfire_flux_of_total_carbon_in_aerosols",
	"wildfire_flux_of_total_particulate_matter",
	"wildfire_flux_of_xylene",
	"wildfire_fraction_of_area_observed",
	"wildfire_overall_flux_of_burnt_carbon",
	"wildfire_radiative_power",
}

// Request is the set of inputs of a GFAS retrieval.
type Request struct {
	Variables  []string `json:"variable"`
	Date       string   `json:"date"`
	DataFormat string   `json:"data_format"`
}

const dateFormat = "2006-01-02"

func newRequest(first, last time.Time, vars []string) Request {
	if len(vars) == 0 {
		vars = Variables
	}
	return Request{
		Variables:  vars,
		Date:       first.Format(dateFormat) + "/" + last.Format(dateFormat),
		DataFormat: "netcdf",
	}
}

// MonthRequest returns a request for every day of the given month.
// If vars is empty, Variables is used.
func MonthRequest(year int, month time.Month, vars []string) Request {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return newRequest(first, first.AddDate(0, 1, -1), vars)
}

// halfMonthDay is the first day of the second half of a month.
const halfMonthDay = 16

// HalfMonthRequests returns requests for days 1 to 15 and for day 16 to
// the end of the given month, for processing with gfas combine.
func HalfMonthRequests(year int, month time.Month, vars []string) [2]Request {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	mid := time.Date(year, month, halfMonthDay, 0, 0, 0, 0, time.UTC)
	return [2]Request{
		newRequest(first, mid.AddDate(0, 0, -1), vars),
		newRequest(mid, first.AddDate(0, 1, -1), vars),
	}
}

// FileName returns the name of the raw file holding the given month.
// part is "" for a whole month, or "a" or "b" for its first and
// second halves. Months are not zero-padded.
func FileName(year int, month time.Month, part string) string {
	if part == "" {
		return fmt.Sprintf("GFAS_RAW_%d_%d.nc", year, int(month))
	}
	return fmt.Sprintf("GFAS_RAW_%d_%d_%s.nc", year, int(month), part)
}

// ParseMonth parses a month in YYYY-MM format.
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("cds: the month %q is not valid; the expected format is YYYY-MM", s)
	}
	return t.Year(), t.Month(), nil
}
