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

package transfer

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/gcsblob"
	"gocloud.dev/blob/s3blob"
	"gocloud.dev/gcp"
)

// IsBlob returns whether dest refers to blob storage, i.e. whether it
// starts with `gs://`, `s3://` or `file://`.
func IsBlob(dest string) bool {
	return strings.HasPrefix(dest, "gs://") || strings.HasPrefix(dest, "s3://") || strings.HasPrefix(dest, "file://")
}

// OpenBucket returns the blob storage bucket that dest refers to,
// along with the key prefix within the bucket. dest must be in the
// format 'provider://name/prefix', where provider is "gs" for Google
// Cloud Storage or "s3" for AWS S3. For the local filesystem
// ("file:///some/dir") the whole path is the bucket and the prefix
// is empty.
func OpenBucket(ctx context.Context, dest string) (*blob.Bucket, string, error) {
	u, err := url.Parse(dest)
	if err != nil {
		return nil, "", fmt.Errorf("transfer: %v", err)
	}
	prefix := strings.Trim(u.Path, "/")
	var b *blob.Bucket
	switch u.Scheme {
	case "file":
		dir := u.Path
		if u.Host != "" {
			dir = filepath.Join(u.Host, u.Path)
		}
		b, err = fileblob.OpenBucket(dir, nil)
		prefix = ""
	case "gs":
		b, err = gsBucket(ctx, u.Hostname())
	case "s3":
		b, err = s3Bucket(ctx, u.Hostname())
	default:
		return nil, "", fmt.Errorf("transfer: invalid storage provider %q", u.Scheme)
	}
	if err != nil {
		return nil, "", fmt.Errorf("transfer: opening bucket %s: %v", dest, err)
	}
	return b, prefix, nil
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, c, name, nil)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "eu-west-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s, err := session.NewSession(c)
	if err != nil {
		return nil, err
	}
	return s3blob.OpenBucket(ctx, s, name, nil)
}

// uploadBlob copies the local file into blob storage at dest and
// returns the location of the copy.
func uploadBlob(ctx context.Context, local, dest string) (string, error) {
	bucket, prefix, err := OpenBucket(ctx, dest)
	if err != nil {
		return "", err
	}
	defer bucket.Close()

	r, err := os.Open(local)
	if err != nil {
		return "", fmt.Errorf("transfer: opening file '%s' for upload: %v", local, err)
	}
	defer r.Close()

	key := path.Join(prefix, filepath.Base(local))
	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: "application/x-netcdf"})
	if err != nil {
		return "", fmt.Errorf("transfer: opening writer to upload file '%s': %v", local, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("transfer: uploading file '%s' to '%s': %v", local, dest, err)
	}
	// The object is only created when the writer is closed.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("transfer: uploading file '%s' to '%s': %v", local, dest, err)
	}
	return strings.TrimSuffix(dest, "/") + "/" + filepath.Base(local), nil
}
