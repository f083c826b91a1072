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

// Package cds retrieves raw GFAS data from a Copernicus data store
// through its asynchronous retrieve API.
package cds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
)

// DefaultURL is the API endpoint of the Atmosphere Data Store, which
// hosts the CAMS datasets.
const DefaultURL = "https://ads.atmosphere.copernicus.eu/api"

// ErrJobFailed is returned when the data store reports that a request
// could not be completed.
var ErrJobFailed = errors.New("cds: retrieval job failed")

// Client retrieves data from a Copernicus data store.
type Client struct {
	// URL is the API endpoint, for example DefaultURL.
	URL string

	// Key is the personal access token of the data store account.
	Key string

	// HTTPClient is used for all requests. If nil,
	// http.DefaultClient is used.
	HTTPClient *http.Client

	// Log receives progress messages. If nil, the standard logrus
	// logger is used.
	Log logrus.FieldLogger

	// PollTimeout is how long to wait for a job to complete. Zero
	// means 24 hours.
	PollTimeout time.Duration

	// NewBackOff returns the schedule used to poll the status of a
	// job. If nil, an exponential schedule bounded by PollTimeout is
	// used.
	NewBackOff func() backoff.BackOff
}

type job struct {
	ID     string `json:"jobID"`
	Status string `json:"status"`
}

type jobResults struct {
	Asset struct {
		Value struct {
			Href string `json:"href"`
			Size int64  `json:"file:size"`
		} `json:"value"`
	} `json:"asset"`
}

// httpError is an unexpected HTTP response.
type httpError struct {
	url    string
	code   int
	detail string
}

func (e *httpError) Error() string {
	if e.detail != "" {
		return fmt.Sprintf("cds: %s: %d %s: %s", e.url, e.code, http.StatusText(e.code), e.detail)
	}
	return fmt.Sprintf("cds: %s: %d %s", e.url, e.code, http.StatusText(e.code))
}

// permanent reports whether retrying the request cannot help.
func (e *httpError) permanent() bool {
	return e.code >= 400 && e.code < 500 && e.code != http.StatusTooManyRequests
}

// Retrieve submits req for dataset, waits for the job to complete and
// downloads the result to dst. Nothing is left at dst unless the
// download succeeds.
func (c *Client) Retrieve(ctx context.Context, dataset string, req Request, dst string) error {
	log := c.logger().WithField("dataset", dataset)
	id, err := c.submit(ctx, dataset, req)
	if err != nil {
		return err
	}
	log = log.WithField("job", id)
	log.Infof("submitted request for %s", req.Date)

	if err := c.wait(ctx, id, log); err != nil {
		return err
	}
	var res jobResults
	if err := c.getJSON(ctx, c.endpoint("jobs", id, "results"), &res); err != nil {
		return err
	}
	href := res.Asset.Value.Href
	if href == "" {
		return fmt.Errorf("cds: job %s completed with no result", id)
	}
	log.Infof("downloading %s to %s", href, dst)

	op := func() error {
		err := c.download(ctx, href, res.Asset.Value.Size, dst)
		if he, ok := err.(*httpError); ok && he.permanent() {
			return backoff.Permanent(err)
		}
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.RetryNotify(op, b, func(err error, d time.Duration) {
		log.Warnf("%v: retrying in %v", err, d)
	})
}

func (c *Client) logger() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

func (c *Client) client() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *Client) endpoint(parts ...string) string {
	return strings.TrimSuffix(c.URL, "/") + "/retrieve/v1/" + strings.Join(parts, "/")
}

func (c *Client) backOff() backoff.BackOff {
	if c.NewBackOff != nil {
		return c.NewBackOff()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 2 * time.Minute
	b.MaxElapsedTime = c.PollTimeout
	if b.MaxElapsedTime == 0 {
		b.MaxElapsedTime = 24 * time.Hour
	}
	return b
}

func (c *Client) submit(ctx context.Context, dataset string, req Request) (string, error) {
	body, err := json.Marshal(struct {
		Inputs Request `json:"inputs"`
	}{req})
	if err != nil {
		return "", fmt.Errorf("cds: encoding request: %v", err)
	}
	url := c.endpoint("processes", dataset, "execution")
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("cds: %v", err)
	}
	r.Header.Set("Content-Type", "application/json")
	var j job
	if err := c.do(r, &j); err != nil {
		return "", err
	}
	if j.ID == "" {
		return "", fmt.Errorf("cds: %s: no job ID in response", url)
	}
	return j.ID, nil
}

// wait polls the job until it succeeds, fails, or the back-off
// schedule is exhausted.
func (c *Client) wait(ctx context.Context, id string, log logrus.FieldLogger) error {
	url := c.endpoint("jobs", id)
	op := func() error {
		var j job
		if err := c.getJSON(ctx, url, &j); err != nil {
			if he, ok := err.(*httpError); ok && he.permanent() {
				return backoff.Permanent(err)
			}
			return err
		}
		switch j.Status {
		case "successful":
			return nil
		case "failed", "rejected", "dismissed", "deleted":
			return backoff.Permanent(fmt.Errorf("%w: job %s is %s", ErrJobFailed, id, j.Status))
		default:
			return fmt.Errorf("job %s is %s", id, j.Status)
		}
	}
	err := backoff.RetryNotify(op, backoff.WithContext(c.backOff(), ctx), func(err error, d time.Duration) {
		log.Debugf("%v; checking again in %v", err, d)
	})
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *Client) getJSON(ctx context.Context, url string, v interface{}) error {
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("cds: %v", err)
	}
	return c.do(r, v)
}

// do sends an authenticated request and decodes the JSON response
// into v.
func (c *Client) do(r *http.Request, v interface{}) error {
	r.Header.Set("PRIVATE-TOKEN", c.Key)
	r.Header.Set("Accept", "application/json")
	resp, err := c.client().Do(r)
	if err != nil {
		return fmt.Errorf("cds: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newHTTPError(r.URL.String(), resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("cds: %s: decoding response: %v", r.URL, err)
	}
	return nil
}

func newHTTPError(url string, resp *http.Response) *httpError {
	e := &httpError{url: url, code: resp.StatusCode}
	var body struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body) == nil {
		e.detail = strings.TrimSpace(body.Title + " " + body.Detail)
	}
	return e
}

// download streams href into a temporary file next to dst and renames
// it into place once the whole file has arrived. If size is positive
// the length of the download is checked against it.
func (c *Client) download(ctx context.Context, href string, size int64, dst string) error {
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return fmt.Errorf("cds: %v", err)
	}
	resp, err := c.client().Do(r)
	if err != nil {
		return fmt.Errorf("cds: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return newHTTPError(href, resp)
	}

	f, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.partial")
	if err != nil {
		return fmt.Errorf("cds: creating download file: %v", err)
	}
	n, err := io.Copy(f, resp.Body)
	if err == nil && size > 0 && n != size {
		err = fmt.Errorf("received %d bytes; want %d", n, size)
	}
	if err == nil {
		err = f.Chmod(0644)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(f.Name(), dst)
	}
	if err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("cds: downloading %s: %v", href, err)
	}
	return nil
}
