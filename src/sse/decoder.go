// Package sse decodes the subset of Server-Sent Events used by the protocol gateway.
//
// Only data fields matter. Consecutive data lines are joined with "\n" and a
// blank line dispatches the event. event, id and retry fields and comment lines
// are ignored. A data buffer still pending at end of stream is dispatched.
package sse

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Decoder reads event payloads from an SSE byte stream.
// A Decoder is not safe for concurrent use.
type Decoder struct {
	r   *bufio.Reader
	err error
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the payload of the next event. It returns io.EOF once the
// stream is exhausted. Any other read error is returned and repeated on every
// later call.
func (d *Decoder) Next() (string, error) {
	if d.err != nil {
		return "", d.err
	}

	var data []string
	for {
		line, err := d.r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			d.err = err
			return "", err
		}
		eof := err != nil

		if line != "" || !eof {
			line = strings.TrimRight(line, " \t\r\n")
			if line == "" {
				if len(data) > 0 {
					return strings.Join(data, "\n"), nil
				}
			} else if value, ok := strings.CutPrefix(line, "data:"); ok {
				data = append(data, strings.TrimLeft(value, " \t"))
			}
		}

		if eof {
			d.err = io.EOF
			if len(data) > 0 {
				return strings.Join(data, "\n"), nil
			}
			return "", io.EOF
		}
	}
}
