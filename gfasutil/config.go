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

package gfasutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gfas"
	"github.com/spatialmodel/gfas/cds"
	"github.com/spf13/cast"
)

func expandEnv(s string) string { return os.ExpandEnv(s) }

// setLogger directs log messages to w and sets the minimum severity.
func setLogger(log *logrus.Logger, w io.Writer, level string) error {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("gfas: invalid log-level: %v", err)
	}
	log.Out = w
	log.Level = l
	log.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	}
	return nil
}

// gridConfig reads the grid constants from cfg.
func gridConfig(cfg *viper.Viper) (gfas.GridConfig, error) {
	c := gfas.DefaultGridConfig()
	var err error
	if c.NLat, err = cast.ToIntE(cfg.Get("Grid.NLat")); err != nil {
		return c, fmt.Errorf("gfas: invalid Grid.NLat: %v", err)
	}
	if c.NLon, err = cast.ToIntE(cfg.Get("Grid.NLon")); err != nil {
		return c, fmt.Errorf("gfas: invalid Grid.NLon: %v", err)
	}
	if c.EpochOffsetHours, err = cast.ToInt64E(cfg.Get("Grid.EpochOffsetHours")); err != nil {
		return c, fmt.Errorf("gfas: invalid Grid.EpochOffsetHours: %v", err)
	}
	if c.FillValue, err = cast.ToFloat32E(cfg.Get("Grid.FillValue")); err != nil {
		return c, fmt.Errorf("gfas: invalid Grid.FillValue: %v", err)
	}
	if c.HeightPolicy, err = gfas.ParseHeightPolicy(cfg.GetString("Grid.HeightPolicy")); err != nil {
		return c, err
	}
	c.FluxIndicator = cfg.GetString("Grid.FluxIndicator")
	c.Institution = cfg.GetString("Grid.Institution")
	return c, c.Validate()
}

// variableSpec reads and checks the variable specification file named
// in cfg.
func variableSpec(cfg *viper.Viper, grid gfas.GridConfig, log logrus.FieldLogger) (*gfas.VariableSpec, error) {
	path, err := checkInputFile(cfg.GetString("variable-spec"))
	if err != nil {
		return nil, err
	}
	spec, err := gfas.ReadVariableSpec(path)
	if err != nil {
		return nil, err
	}
	unparsed, err := spec.Validate(grid)
	if err != nil {
		return nil, err
	}
	for _, u := range unparsed {
		log.WithField("variable", u).Warn("unrecognized unit in variable specification")
	}
	return spec, nil
}

// runner sets up a gfas.Runner from the current configuration.
func runner() (*gfas.Runner, error) {
	grid, err := gridConfig(Cfg)
	if err != nil {
		return nil, err
	}
	spec, err := variableSpec(Cfg, grid, Log)
	if err != nil {
		return nil, err
	}
	return &gfas.Runner{Config: grid, Spec: spec, Log: Log}, nil
}

// cdsClient sets up a data store client from the current configuration.
// The endpoint and key come from the credentials file unless both are
// given directly.
func cdsClient() (*cds.Client, error) {
	url, key := Cfg.GetString("Download.URL"), Cfg.GetString("Download.Key")
	if url == "" || key == "" {
		var err error
		url, key, err = cds.ReadRC(expandEnv(Cfg.GetString("Download.RCFile")))
		if err != nil {
			return nil, err
		}
	}
	timeout, err := cast.ToDurationE(Cfg.Get("Download.Timeout"))
	if err != nil {
		return nil, fmt.Errorf("gfas: invalid Download.Timeout: %v", err)
	}
	return &cds.Client{URL: url, Key: key, Log: Log, PollTimeout: timeout}, nil
}

// transferConfig reads the publishing settings from the current
// configuration.
func transferConfig() TransferConfig {
	return TransferConfig{
		Destination: expandEnv(Cfg.GetString("Transfer.Destination")),
		URLPrefix:   Cfg.GetString("Transfer.URLPrefix"),
		SMTPServer:  Cfg.GetString("Transfer.SMTPServer"),
		From:        Cfg.GetString("Transfer.From"),
		Recipients:  Cfg.GetStringSlice("Transfer.Recipients"),
	}
}

// checkInputFile makes sure that the input file is specified and is a
// readable regular file, and expands any environment variables.
func checkInputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf("gfas: you need to specify an input file")
	}
	f = expandEnv(f)
	fi, err := os.Stat(f)
	if err != nil {
		return f, fmt.Errorf("gfas: could not open input file: %v", err)
	}
	if !fi.Mode().IsRegular() {
		return f, fmt.Errorf("gfas: input %s is not a regular file", f)
	}
	r, err := os.Open(f)
	if err != nil {
		return f, fmt.Errorf("gfas: input file is not readable: %v", err)
	}
	r.Close()
	return f, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists and is writable, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf("gfas: you need to specify an output file")
	}
	f = expandEnv(f)
	if _, err := checkOutputDir(filepath.Dir(f)); err != nil {
		return f, err
	}
	return f, nil
}

// checkOutputDir makes sure that dir exists and that files can be
// created in it.
func checkOutputDir(dir string) (string, error) {
	dir = expandEnv(dir)
	fi, err := os.Stat(dir)
	if err != nil {
		return dir, fmt.Errorf("gfas: the output directory doesn't exist: %v", err)
	}
	if !fi.IsDir() {
		return dir, fmt.Errorf("gfas: %s is not a directory", dir)
	}
	probe, err := os.CreateTemp(dir, ".gfas-probe-*")
	if err != nil {
		return dir, fmt.Errorf("gfas: the output directory is not writable: %v", err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return dir, nil
}
