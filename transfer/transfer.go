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

// Package transfer publishes processed GFAS files and announces them
// by e-mail.
package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Uploader copies local files to a remote destination.
type Uploader struct {
	// SFTP holds the credentials for sftp:// destinations.
	SFTP SFTPOptions

	// Log receives progress messages. If nil, the standard logrus
	// logger is used.
	Log logrus.FieldLogger
}

// Upload copies the local file into the directory or bucket prefix
// given by dest, keeping its base name, and returns the location of
// the copy. dest may be an sftp://, file://, gs:// or s3:// URL.
func (u *Uploader) Upload(ctx context.Context, local, dest string) (string, error) {
	fi, err := os.Stat(local)
	if err != nil {
		return "", fmt.Errorf("transfer: could not open input file: %v", err)
	}
	if !fi.Mode().IsRegular() {
		return "", fmt.Errorf("transfer: %s is not a regular file", local)
	}
	log := u.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	switch {
	case strings.HasPrefix(dest, "sftp://"):
		return uploadSFTP(ctx, local, dest, u.SFTP, log)
	case IsBlob(dest):
		remote, err := uploadBlob(ctx, local, dest)
		if err == nil {
			log.Infof("uploaded %s to %s", local, remote)
		}
		return remote, err
	default:
		return "", fmt.Errorf("transfer: unsupported destination %q", dest)
	}
}

// PublicURL returns the address at which a file uploaded from local
// can be downloaded, given the URL prefix of the upload directory.
func PublicURL(prefix, local string) string {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + filepath.Base(local)
}
