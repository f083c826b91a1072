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
	"bytes"
	"fmt"
	"net/smtp"
	"strings"
	"text/template"
	"time"
)

// DefaultSubject is the subject of the notification e-mail.
const DefaultSubject = "[GFAS - new data available]"

// Message is a plain-text e-mail.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

var readyBody = template.Must(template.New("ready").Parse(`Hello,

This is an automated message to let you know that last month's GFAS data is ready to be downloaded.

You can find the data at:

{{.URL}}

If there are any problems with this data, please reply to {{.From}}.
`))

// ReadyMessage returns the message announcing that the file at url is
// available for download.
func ReadyMessage(from string, to []string, url string) (Message, error) {
	var b bytes.Buffer
	if err := readyBody.Execute(&b, struct{ URL, From string }{url, from}); err != nil {
		return Message{}, fmt.Errorf("transfer: %v", err)
	}
	return Message{From: from, To: to, Subject: DefaultSubject, Body: b.String()}, nil
}

func (m Message) bytes(date time.Time) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(m.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(strings.Replace(m.Body, "\n", "\r\n", -1))
	return b.Bytes()
}

// Notify sends m through the SMTP server at addr without
// authentication.
func Notify(addr string, m Message) error {
	if len(m.To) == 0 {
		return fmt.Errorf("transfer: notification has no recipients")
	}
	if err := smtp.SendMail(addr, nil, m.From, m.To, m.bytes(time.Now())); err != nil {
		return fmt.Errorf("transfer: sending notification: %v", err)
	}
	return nil
}
