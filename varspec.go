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
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/unit"
)

// Variable describes one output variable: the code it has in the raw
// data, its long name, and its physical units.
type Variable struct {
	Code string `json:"code" toml:"code"`
	Name string `json:"name" toml:"name"`
	Unit string `json:"unit" toml:"unit"`
}

// VariableSpec is the list of variables to be processed, in output order.
type VariableSpec struct {
	Variables []Variable `json:"variables" toml:"variables"`
}

// ReadVariableSpec reads a variable specification from a JSON file,
// or from a TOML file if the file name ends in ".toml".
func ReadVariableSpec(path string) (*VariableSpec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gfas: reading variable specification: %v", err)
	}
	spec := new(VariableSpec)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(b), spec); err != nil {
			return nil, fmt.Errorf("gfas: parsing variable specification %s: %v", path, err)
		}
		return spec, nil
	}
	if err := json.Unmarshal(b, spec); err != nil {
		return nil, fmt.Errorf("gfas: parsing variable specification %s: %v", path, err)
	}
	return spec, nil
}

// Validate checks that the specification has at least one variable,
// that codes are unique and named, and that the units of the
// injection height variables are lengths. It returns the codes
// of any variables whose units could not be interpreted; those are
// not treated as an error.
func (s *VariableSpec) Validate(cfg GridConfig) (unparsed []string, err error) {
	if len(s.Variables) == 0 {
		return nil, fmt.Errorf("gfas: variable specification is empty")
	}
	seen := make(map[string]bool)
	for i, v := range s.Variables {
		if v.Code == "" {
			return nil, fmt.Errorf("gfas: variable specification entry %d has no code", i)
		}
		if seen[v.Code] {
			return nil, fmt.Errorf("gfas: variable %s is specified more than once", v.Code)
		}
		seen[v.Code] = true
		if v.Name == "" {
			return nil, fmt.Errorf("gfas: variable %s has no name", v.Code)
		}
		u, err := ParseUnit(v.Unit)
		if err != nil {
			unparsed = append(unparsed, v.Code)
			continue
		}
		if cfg.IsHeight(v.Code) {
			if err := u.Check(unit.Meter); err != nil {
				return nil, fmt.Errorf("gfas: height variable %s: %v", v.Code, err)
			}
		}
	}
	return unparsed, nil
}

// Codes returns the variable codes in specification order.
func (s *VariableSpec) Codes() []string {
	codes := make([]string, len(s.Variables))
	for i, v := range s.Variables {
		codes[i] = v.Code
	}
	return codes
}

type unitAtom struct {
	factor float64
	dims   unit.Dimensions
}

var unitAtoms = map[string]unitAtom{
	"m":  {1, unit.Meter},
	"km": {1000, unit.Meter},
	"kg": {1, unit.Kilogram},
	"g":  {1e-3, unit.Kilogram},
	"s":  {1, unit.Second},
	"h":  {3600, unit.Second},
	"W":  {1, unit.Watt},
	"J":  {1, unit.Joule},
	"K":  {1, unit.Kelvin},
	"Pa": {1, unit.Pascal},
}

var dimensionless = map[string]float64{
	"":              1,
	"1":             1,
	"~":             1,
	"fraction":      1,
	"dimensionless": 1,
	"%":             0.01,
}

// ParseUnit parses a unit string in the "kg m**-2 s**-1" form used by
// the GFAS data, returning the SI conversion factor and dimensions.
// Exponents may also be written as "m^-2" or "m-2".
func ParseUnit(s string) (*unit.Unit, error) {
	if f, ok := dimensionless[strings.ToLower(strings.TrimSpace(s))]; ok {
		return unit.New(f, unit.Dimless), nil
	}
	value := 1.0
	dims := make(unit.Dimensions)
	for _, tok := range strings.Fields(s) {
		sym, exp, err := splitExponent(tok)
		if err != nil {
			return nil, fmt.Errorf("gfas: parsing unit %q: %v", s, err)
		}
		a, ok := unitAtoms[sym]
		if !ok {
			return nil, fmt.Errorf("gfas: parsing unit %q: unknown symbol %q", s, sym)
		}
		value *= math.Pow(a.factor, float64(exp))
		for d, p := range a.dims {
			dims[d] += p * exp
			if dims[d] == 0 {
				delete(dims, d)
			}
		}
	}
	return unit.New(value, dims), nil
}

// splitExponent splits a unit token such as "m**-2" into its symbol
// and integer exponent.
func splitExponent(tok string) (string, int, error) {
	for _, sep := range []string{"**", "^"} {
		if i := strings.Index(tok, sep); i >= 0 {
			e, err := strconv.Atoi(tok[i+len(sep):])
			return tok[:i], e, err
		}
	}
	i := strings.IndexAny(tok, "-0123456789")
	if i <= 0 {
		return tok, 1, nil
	}
	e, err := strconv.Atoi(tok[i:])
	return tok[:i], e, err
}
