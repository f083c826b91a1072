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
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Runner converts raw GFAS files into output grids.
type Runner struct {
	Config GridConfig
	Spec   *VariableSpec

	// Log receives progress and warning messages. If nil, the
	// standard logrus logger is used.
	Log logrus.FieldLogger

	// Now returns the creation time recorded in the output. If nil,
	// time.Now is used.
	Now func() time.Time
}

// Preprocess converts a single raw file covering a whole month into an
// output grid with a fixed-length time dimension.
func (r *Runner) Preprocess(ctx context.Context, input, output string) error {
	return r.run(ctx, output, false, input)
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

// run processes the inputs, in order, into a single output grid.
// Sources and the output file are closed on every return path, and
// nothing is left at output unless the whole run succeeds.
func (r *Runner) run(ctx context.Context, output string, unlimited bool, inputs ...string) error {
	if err := r.Config.Validate(); err != nil {
		return err
	}
	if r.Spec == nil {
		return fmt.Errorf("gfas: no variable specification")
	}
	log := r.logger()

	srcs := make([]Source, 0, len(inputs))
	defer func() {
		for _, s := range srcs {
			s.Close()
		}
	}()
	for _, in := range inputs {
		s, err := OpenSource(in, r.Config)
		if err != nil {
			return err
		}
		srcs = append(srcs, s)
	}

	c, err := BuildCoordinates(r.Config, srcs...)
	if err != nil {
		return err
	}
	vars := presentVariables(r.Spec, log, srcs)

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	out, err := CreateOutput(output, r.Config, c, vars, unlimited, now())
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			out.Abort()
		}
	}()

	if err := out.WriteCoordinates(c); err != nil {
		return err
	}
	for _, v := range vars {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.WithField("variable", v.Code).Infof("processing %s", v.Name)
		data, err := TransformVariable(r.Config, v, log, srcs...)
		if err != nil {
			return err
		}
		if err := out.WriteVariable(v.Code, data); err != nil {
			return err
		}
	}
	if err := correctOutputHeights(r.Config, out, vars, log); err != nil {
		return err
	}
	if err := out.Commit(); err != nil {
		return err
	}
	committed = true
	log.WithField("file", output).Infof("wrote %d variables over %d time steps", len(vars), len(c.Time))
	return nil
}

// presentVariables returns the specified variables that are present in
// every source, warning once about each variable that is not.
func presentVariables(spec *VariableSpec, log logrus.FieldLogger, srcs []Source) []Variable {
	var vars []Variable
	for _, v := range spec.Variables {
		ok := true
		for _, s := range srcs {
			if !s.Has(v.Code) {
				log.WithFields(logrus.Fields{"variable": v.Code, "file": s.Name()}).
					Warnf("variable %s not in %s; skipping", v.Code, s.Name())
				ok = false
				break
			}
		}
		if ok {
			vars = append(vars, v)
		}
	}
	return vars
}

// correctOutputHeights applies CorrectHeights to each injection height
// variable that has been written to out.
func correctOutputHeights(cfg GridConfig, out *Output, vars []Variable, log logrus.FieldLogger) error {
	var heights []string
	hasFlux := false
	for _, v := range vars {
		if cfg.IsHeight(v.Code) {
			heights = append(heights, v.Code)
		}
		if v.Code == cfg.FluxIndicator {
			hasFlux = true
		}
	}
	if len(heights) == 0 {
		return nil
	}
	if !hasFlux {
		log.WithField("variable", cfg.FluxIndicator).
			Warnf("fire flux variable %s not present; injection heights are not corrected", cfg.FluxIndicator)
		return nil
	}
	flux, err := out.ReadVariable(cfg.FluxIndicator)
	if err != nil {
		return err
	}
	for _, code := range heights {
		h, err := out.ReadVariable(code)
		if err != nil {
			return err
		}
		nFill, nZero, err := CorrectHeights(h, flux, float64(cfg.FillValue), cfg.HeightPolicy)
		if err != nil {
			return fmt.Errorf("gfas: correcting %s: %w", code, err)
		}
		if err := out.WriteVariable(code, h); err != nil {
			return err
		}
		log.WithField("variable", code).Infof("corrected heights using %s (%s policy): %d cells set to fill, %d set to zero",
			cfg.FluxIndicator, cfg.HeightPolicy, nFill, nZero)
	}
	return nil
}
