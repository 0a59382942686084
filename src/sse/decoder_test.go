package sse

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, input string) []string {
	t.Helper()
	dec := NewDecoder(strings.NewReader(input))
	var out []string
	for {
		payload, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, payload)
	}
}

func TestDecoder(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "single event with event field",
			input: "event: log\ndata: {\"line\":\"hello\"}\n\n",
			want:  []string{`{"line":"hello"}`},
		},
		{
			name:  "multi-line data joins with newline",
			input: "data: a\ndata: b\n\n",
			want:  []string{"a\nb"},
		},
		{
			name:  "two events",
			input: "data: 1\n\ndata: 2\n\n",
			want:  []string{"1", "2"},
		},
		{
			name:  "empty stream",
			input: "",
			want:  nil,
		},
		{
			name:  "missing trailing blank line flushes at eof",
			input: "data: tail\n",
			want:  []string{"tail"},
		},
		{
			name:  "missing final newline",
			input: "data: tail",
			want:  []string{"tail"},
		},
		{
			name:  "comments and other fields ignored",
			input: ": keepalive\nid: 7\nretry: 1000\ndata: x\n\n",
			want:  []string{"x"},
		},
		{
			name:  "blank lines without data dispatch nothing",
			input: "\n\n: ping\n\n",
			want:  nil,
		},
		{
			name:  "crlf line endings",
			input: "data: a\r\ndata: b\r\n\r\n",
			want:  []string{"a\nb"},
		},
		{
			name:  "data without space",
			input: "data:compact\n\n",
			want:  []string{"compact"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collect(t, tt.input))
		})
	}
}

type failingReader struct {
	data string
	err  error
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	return 0, r.err
}

func TestDecoder_ReadErrorIsTerminal(t *testing.T) {
	boom := errors.New("connection reset")
	dec := NewDecoder(&failingReader{data: "data: first\n\ndata: partial\n", err: boom})

	payload, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "first", payload)

	_, err = dec.Next()
	assert.ErrorIs(t, err, boom)

	_, err = dec.Next()
	assert.ErrorIs(t, err, boom, "read errors must be sticky")
}

func TestDecoder_EOFIsSticky(t *testing.T) {
	dec := NewDecoder(strings.NewReader("data: only\n\n"))

	_, err := dec.Next()
	require.NoError(t, err)

	_, err = dec.Next()
	assert.ErrorIs(t, err, io.EOF)
	_, err = dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}
