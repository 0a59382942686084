package sse

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Value float64 `json:"value"`
}

type trackingBody struct {
	io.Reader
	closed int
}

func (b *trackingBody) Close() error {
	b.closed++
	return nil
}

func TestStream_Next(t *testing.T) {
	body := &trackingBody{Reader: strings.NewReader("data: {\"value\":12.5}\n\ndata: {\"value\":20}\n\n")}
	stream := NewStream(body, JSON[frame])

	first, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, 12.5, first.Value)

	second, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, 20.0, second.Value)

	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())
	assert.Equal(t, 1, body.closed)
}

func TestStream_DecodeErrorDoesNotEndStream(t *testing.T) {
	body := &trackingBody{Reader: strings.NewReader("data: not json\n\ndata: {\"value\":1}\n\n")}
	stream := NewStream(body, JSON[frame])

	_, err := stream.Next()
	require.Error(t, err)

	v, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Value)
}

func TestStream_All(t *testing.T) {
	body := &trackingBody{Reader: strings.NewReader("data: {\"value\":1}\n\ndata: {\"value\":2}\n\ndata: {\"value\":3}\n\n")}
	stream := NewStream(body, JSON[frame])
	defer stream.Close()

	var got []float64
	for v, err := range stream.All() {
		require.NoError(t, err)
		got = append(got, v.Value)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []float64{1, 2}, got)
}

func TestStream_AllStopsAfterError(t *testing.T) {
	boom := errors.New("decode failed")
	decode := func(payload []byte) (string, error) {
		if string(payload) == "bad" {
			return "", boom
		}
		return string(payload), nil
	}
	body := &trackingBody{Reader: strings.NewReader("data: ok\n\ndata: bad\n\ndata: never\n\n")}
	stream := NewStream(body, decode)

	var values []string
	var errs []error
	for v, err := range stream.All() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		values = append(values, v)
	}

	assert.Equal(t, []string{"ok"}, values)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
}
