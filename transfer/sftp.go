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
	"net"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/pkg/sftp"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SFTPOptions holds the credentials used for sftp:// destinations.
type SFTPOptions struct {
	// User is the remote account name.
	User string

	// KeyFile is the path to an unencrypted private key.
	KeyFile string

	// KnownHosts is the path to an OpenSSH known_hosts file used to
	// verify the server. If empty, the server is not verified.
	KnownHosts string

	// Timeout bounds the time taken to connect. Zero means 30 seconds.
	Timeout time.Duration
}

const defaultSSHPort = "22"

func (o SFTPOptions) clientConfig(log logrus.FieldLogger) (*ssh.ClientConfig, error) {
	pem, err := os.ReadFile(o.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("transfer: could not open key file: %v", err)
	}
	signer, err := ssh.ParsePrivateKey(pem)
	if err != nil {
		return nil, fmt.Errorf("transfer: parsing key file %s: %v", o.KeyFile, err)
	}
	hostKey := ssh.InsecureIgnoreHostKey()
	if o.KnownHosts != "" {
		if hostKey, err = knownhosts.New(o.KnownHosts); err != nil {
			return nil, fmt.Errorf("transfer: reading known hosts: %v", err)
		}
	} else {
		log.Warn("no known_hosts file configured; the server's host key will not be verified")
	}
	timeout := o.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ssh.ClientConfig{
		User:            o.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKey,
		Timeout:         timeout,
	}, nil
}

// uploadSFTP copies the local file into the directory named by an
// sftp://host[:port]/dir destination.
func uploadSFTP(ctx context.Context, local, dest string, opts SFTPOptions, log logrus.FieldLogger) (string, error) {
	u, err := url.Parse(dest)
	if err != nil {
		return "", fmt.Errorf("transfer: %v", err)
	}
	if u.User != nil && u.User.Username() != "" {
		opts.User = u.User.Username()
	}
	port := u.Port()
	if port == "" {
		port = defaultSSHPort
	}
	addr := net.JoinHostPort(u.Hostname(), port)

	cfg, err := opts.clientConfig(log)
	if err != nil {
		return "", err
	}
	d := net.Dialer{Timeout: cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("transfer: unable to connect to %s: %v", addr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return "", fmt.Errorf("transfer: unable to establish ssh connection to %s: %v", addr, err)
	}
	client := ssh.NewClient(c, chans, reqs)
	defer client.Close()

	sc, err := sftp.NewClient(client)
	if err != nil {
		return "", fmt.Errorf("transfer: starting sftp session: %v", err)
	}
	defer sc.Close()

	remote, err := putFile(sc, local, u.Path)
	if err != nil {
		return "", err
	}
	log.WithField("host", addr).Infof("uploaded %s to %s", local, remote)
	return remote, nil
}

// putFile copies local into remoteDir. The file is written under a
// temporary name and renamed once it is complete.
func putFile(sc *sftp.Client, local, remoteDir string) (string, error) {
	r, err := os.Open(local)
	if err != nil {
		return "", fmt.Errorf("transfer: opening file '%s' for upload: %v", local, err)
	}
	defer r.Close()

	remote := path.Join(remoteDir, filepath.Base(local))
	tmp := remote + ".partial"
	w, err := sc.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("transfer: creating %s: %v", tmp, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		sc.Remove(tmp)
		return "", fmt.Errorf("transfer: uploading %s: %v", local, err)
	}
	if err := w.Close(); err != nil {
		sc.Remove(tmp)
		return "", fmt.Errorf("transfer: uploading %s: %v", local, err)
	}
	if _, err := sc.Stat(remote); err == nil {
		if err := sc.Remove(remote); err != nil {
			sc.Remove(tmp)
			return "", fmt.Errorf("transfer: replacing %s: %v", remote, err)
		}
	}
	if err := sc.Rename(tmp, remote); err != nil {
		sc.Remove(tmp)
		return "", fmt.Errorf("transfer: renaming %s: %v", tmp, err)
	}
	return remote, nil
}
