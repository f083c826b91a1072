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
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spatialmodel/gfas"
	"github.com/spatialmodel/gfas/cds"
	"github.com/spatialmodel/gfas/report"
	"github.com/spatialmodel/gfas/transfer"
)

// Download retrieves the given month of raw data into dir and returns
// the paths of the files it created. If split is true, the month is
// retrieved as two half-month files.
func Download(ctx context.Context, c *cds.Client, dataset string, year int, month time.Month, vars []string, dir string, split bool) ([]string, error) {
	type part struct {
		name string
		req  cds.Request
	}
	var parts []part
	if split {
		halves := cds.HalfMonthRequests(year, month, vars)
		parts = []part{{"a", halves[0]}, {"b", halves[1]}}
	} else {
		parts = []part{{"", cds.MonthRequest(year, month, vars)}}
	}
	var files []string
	for _, p := range parts {
		f := filepath.Join(dir, cds.FileName(year, month, p.name))
		Log.WithField("file", f).Info("requesting data")
		if err := c.Retrieve(ctx, dataset, p.req, f); err != nil {
			return files, err
		}
		files = append(files, f)
	}
	return files, nil
}

// TransferConfig holds the settings for publishing a processed file.
type TransferConfig struct {
	// Destination is the upload directory.
	Destination string

	// URLPrefix is the public address of Destination. If empty, the
	// upload location is announced instead.
	URLPrefix string

	// SMTPServer is the host:port of the mail server.
	SMTPServer string

	From       string
	Recipients []string
}

// Transfer uploads file and, if there are any recipients, e-mails them
// its download address. It returns that address.
func Transfer(ctx context.Context, u *transfer.Uploader, file string, c TransferConfig) (string, error) {
	remote, err := u.Upload(ctx, file, c.Destination)
	if err != nil {
		return "", err
	}
	url := remote
	if c.URLPrefix != "" {
		url = transfer.PublicURL(c.URLPrefix, file)
	}
	if len(c.Recipients) == 0 {
		Log.WithField("url", url).Info("no recipients configured; not sending notification")
		return url, nil
	}
	m, err := transfer.ReadyMessage(c.From, c.Recipients, url)
	if err != nil {
		return url, err
	}
	if err := transfer.Notify(c.SMTPServer, m); err != nil {
		return url, err
	}
	Log.WithField("recipients", len(c.Recipients)).Info("sent notification")
	return url, nil
}

// Summary writes a spreadsheet summarizing the processed file in to out.
func Summary(r *gfas.Runner, in, out string) error {
	src, err := gfas.OpenOutput(in, r.Config)
	if err != nil {
		return err
	}
	defer src.Close()
	sums, err := report.Summarize(src, r.Spec.Variables, r.Config.FillValue)
	if err != nil {
		return err
	}
	times, err := report.StepTimes(src)
	if err != nil {
		return err
	}
	for _, s := range sums {
		Log.WithField("variable", s.Variable.Code).WithField("fire cells", s.Total()).Debug("summarized")
	}
	if err := report.WriteXLSX(out, times, sums); err != nil {
		return err
	}
	Log.WithField("file", out).Infof("summarized %d variables", len(sums))
	return nil
}

// Quicklook draws the variable with the given code from the processed
// file in at one time step and saves the image to out.
func Quicklook(r *gfas.Runner, in, code string, step int, out string) error {
	var v *gfas.Variable
	for i := range r.Spec.Variables {
		if r.Spec.Variables[i].Code == code {
			v = &r.Spec.Variables[i]
		}
	}
	if v == nil {
		return fmt.Errorf("gfas: variable %s is not in the variable specification", code)
	}
	src, err := gfas.OpenOutput(in, r.Config)
	if err != nil {
		return err
	}
	defer src.Close()
	return report.HeatMap(src, *v, step, r.Config.FillValue, out)
}
