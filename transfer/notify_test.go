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
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"
)

var testDate = time.Date(2019, 2, 1, 9, 0, 0, 0, time.UTC)

// fakeSMTP accepts a single message and sends what it receives on the
// returned channel.
func fakeSMTP(t *testing.T) (addr string, received <-chan []string) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	ch := make(chan []string, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tc := textproto.NewConn(conn)
		var lines []string
		tc.PrintfLine("220 localhost ESMTP")
		for {
			line, err := tc.ReadLine()
			if err != nil {
				ch <- lines
				return
			}
			lines = append(lines, line)
			switch cmd := strings.ToUpper(strings.Fields(line + " x")[0]); cmd {
			case "EHLO", "HELO":
				tc.PrintfLine("250 localhost")
			case "DATA":
				tc.PrintfLine("354 go ahead")
				body, err := tc.ReadDotLines()
				if err != nil {
					ch <- lines
					return
				}
				lines = append(lines, body...)
				tc.PrintfLine("250 ok")
			case "QUIT":
				tc.PrintfLine("221 bye")
				ch <- lines
				return
			default:
				tc.PrintfLine("250 ok")
			}
		}
	}()
	return l.Addr().String(), ch
}

func TestNotify(t *testing.T) {
	addr, received := fakeSMTP(t)
	to := []string{"support@example.com", "team@example.com"}
	url := "https://example.com/GFAS/GFAS_2019_1.nc"
	m, err := ReadyMessage("gfas@example.com", to, url)
	if err != nil {
		t.Fatal(err)
	}
	if err := Notify(addr, m); err != nil {
		t.Fatal(err)
	}
	lines := <-received
	all := strings.Join(lines, "\n")
	for _, want := range []string{
		"MAIL FROM:<gfas@example.com>",
		"RCPT TO:<support@example.com>",
		"RCPT TO:<team@example.com>",
		"Subject: " + DefaultSubject,
		"To: support@example.com, team@example.com",
		url,
	} {
		if !strings.Contains(all, want) {
			t.Errorf("message does not contain %q:\n%s", want, all)
		}
	}
}

func TestNotifyNoRecipients(t *testing.T) {
	m, err := ReadyMessage("gfas@example.com", nil, "https://example.com/x.nc")
	if err != nil {
		t.Fatal(err)
	}
	if err := Notify("127.0.0.1:1", m); err == nil {
		t.Error("want an error for a message with no recipients")
	}
}

func TestReadyMessage(t *testing.T) {
	m, err := ReadyMessage("a@example.com", []string{"b@example.com"}, "https://example.com/f.nc")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(m.Body, "\nhttps://example.com/f.nc\n") {
		t.Errorf("body does not contain the URL on its own line:\n%s", m.Body)
	}
	if !strings.Contains(m.Body, "a@example.com") {
		t.Error("body does not name the sender")
	}
	b := string(m.bytes(testDate))
	if !strings.Contains(b, "\r\n\r\nHello,\r\n") {
		t.Errorf("headers are not separated from the body:\n%q", b)
	}
}
