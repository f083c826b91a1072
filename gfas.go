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

// Package gfas converts raw CAMS Global Fire Assimilation System (GFAS)
// gridded emissions into a standardized monthly netCDF grid.
//
// Raw grids are read with latitude ascending and with no explicit
// missing-data marker. The output grid has latitude descending, time in
// hours since 1970, a single declared fill value for every data variable,
// and injection-height variables that are only defined where a fire is
// present.
package gfas

import (
	"errors"
	"fmt"
)

// Version gives the version number.
const Version = "1.0.0"

var (
	// ErrShapeMismatch is returned when a raw array does not have the
	// dimensions the output grid declares for it.
	ErrShapeMismatch = errors.New("gfas: array shape does not match output grid")

	// ErrExtentMismatch is returned when two grids that are to be combined
	// do not share the same latitude and longitude extents.
	ErrExtentMismatch = errors.New("gfas: grids have different spatial extents")
)

// GridConfig holds the grid constants that describe the raw GFAS data and the
// conventions of the output grid.
type GridConfig struct {
	// NLat and NLon are the number of latitude and longitude cells.
	NLat, NLon int

	// EpochOffsetHours is subtracted from every raw time value to convert
	// from the raw epoch to the output epoch. For GFAS it is the number of
	// hours between 1900-01-01 and 1970-01-01.
	EpochOffsetHours int64

	// FillValue is the sentinel marking cells with no meaningful data.
	FillValue float32

	// SourceTime, SourceLat and SourceLon are the names of the raw
	// coordinate variables.
	SourceTime, SourceLat, SourceLon string

	// TimeUnits and Calendar describe the output time coordinate.
	TimeUnits, Calendar string

	// HeightCodes are the codes of the injection height variables.
	HeightCodes []string

	// FluxIndicator is the code of the flux variable used to detect
	// whether a fire is present in a grid cell.
	FluxIndicator string

	// HeightPolicy selects the near-zero threshold used when correcting
	// injection heights.
	HeightPolicy HeightPolicy

	// Conventions is written to the global "conventions" attribute.
	Conventions string

	// Institution is recorded in the global "history" attribute.
	Institution string
}

// Output coordinate names.
const (
	TimeDim = "time"
	LatDim  = "lat"
	LonDim  = "lon"
)

// DefaultGridConfig returns the configuration for the 0.1° global GFAS grid.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		NLat:             1800,
		NLon:             3600,
		EpochOffsetHours: 613608,
		FillValue:        float32(-1e-31),
		SourceTime:       "time",
		SourceLat:        "latitude",
		SourceLon:        "longitude",
		TimeUnits:        "hours since 1970-01-01 00:00:0.0",
		Calendar:         "gregorian",
		HeightCodes:      []string{"mami", "injh", "apb", "apt"},
		FluxIndicator:    "cofire",
		HeightPolicy:     SymmetricThreshold,
		Conventions:      "COARDS",
		Institution:      "WACL, University of York",
	}
}

// Validate checks that the configuration is usable.
func (c GridConfig) Validate() error {
	if c.NLat <= 0 || c.NLon <= 0 {
		return fmt.Errorf("gfas: invalid grid size %dx%d", c.NLat, c.NLon)
	}
	if c.SourceTime == "" || c.SourceLat == "" || c.SourceLon == "" {
		return fmt.Errorf("gfas: source coordinate names must not be empty")
	}
	if c.FluxIndicator == "" {
		return fmt.Errorf("gfas: flux indicator variable must be specified")
	}
	switch c.HeightPolicy {
	case SymmetricThreshold, OneSidedThreshold:
	default:
		return fmt.Errorf("gfas: invalid height policy %d", c.HeightPolicy)
	}
	return nil
}

// IsHeight returns whether code is one of the injection height variables.
func (c GridConfig) IsHeight(code string) bool {
	for _, h := range c.HeightCodes {
		if h == code {
			return true
		}
	}
	return false
}
