package protocolclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyong4725/dora-tui/src/protocol"
	"github.com/heyong4725/dora-tui/src/provider"
)

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "host only", raw: "http://127.0.0.1:7267", want: "http://127.0.0.1:7267/"},
		{name: "already normalized", raw: "http://127.0.0.1:7267/", want: "http://127.0.0.1:7267/"},
		{name: "path without slash", raw: "https://gateway.local/dora", want: "https://gateway.local/dora/"},
		{name: "surrounding spaces", raw: "  http://localhost:7267  ", want: "http://localhost:7267/"},
		{name: "empty", raw: "", wantErr: true},
		{name: "no scheme", raw: "localhost:7267", wantErr: true},
		{name: "unsupported scheme", raw: "ftp://gateway.local", wantErr: true},
		{name: "missing host", raw: "http://", wantErr: true},
		{name: "unparseable", raw: "http://[::1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeBaseURL(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestTransport_Endpoint(t *testing.T) {
	transport, err := NewTransport("http://gateway.local/dora", Options{})
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "leading slash stays under base", path: "/v1/dataflows", want: "http://gateway.local/dora/v1/dataflows"},
		{name: "relative path", path: "v1/preferences/ui", want: "http://gateway.local/dora/v1/preferences/ui"},
		{name: "dot segments inside base", path: "v1/x/../dataflows", want: "http://gateway.local/dora/v1/dataflows"},
		{name: "parent escape", path: "../admin", wantErr: true},
		{name: "nested parent escape", path: "v1/../../admin", wantErr: true},
		{name: "absolute url", path: "http://evil.example/v1", wantErr: true},
		{name: "scheme-relative url", path: "//evil.example/v1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := transport.Endpoint(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestTransport_NeverUsesProxy(t *testing.T) {
	transport, err := NewTransport("http://127.0.0.1:7267", Options{})
	require.NoError(t, err)

	for _, client := range []*http.Client{transport.unary, transport.streaming} {
		rt, ok := client.Transport.(*http.Transport)
		require.True(t, ok)
		assert.Nil(t, rt.Proxy)
	}
	assert.Zero(t, transport.streaming.Timeout, "streams must not have an overall deadline")
	assert.Equal(t, DefaultRequestTimeout, transport.unary.Timeout)
}

func TestTransport_GetDecodesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/base/v1/thing", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value":42}`))
	}))
	defer server.Close()

	transport, err := NewTransport(server.URL+"/base", Options{})
	require.NoError(t, err)

	var out struct {
		Value int `json:"value"`
	}
	require.NoError(t, transport.Get(context.Background(), "/v1/thing", &out))
	assert.Equal(t, 42, out.Value)
}

func TestTransport_GetMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":`))
	}))
	defer server.Close()

	transport, err := NewTransport(server.URL, Options{})
	require.NoError(t, err)

	var out map[string]any
	err = transport.Get(context.Background(), "/v1/thing", &out)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestTransport_HTTPErrorWithEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"RESOURCE_NOT_FOUND","message":"no such dataflow"}}`))
	}))
	defer server.Close()

	transport, err := NewTransport(server.URL, Options{})
	require.NoError(t, err)

	err = transport.Get(context.Background(), "/v1/dataflows/x", &struct{}{})

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	require.NotNil(t, httpErr.Envelope)
	assert.Equal(t, protocol.CodeResourceNotFound, httpErr.Code())
	assert.Equal(t, "no such dataflow", httpErr.Envelope.Error.Message)
	assert.True(t, IsCode(err, protocol.CodeResourceNotFound))
	assert.Contains(t, err.Error(), "404")
}

func TestTransport_HTTPErrorPlainBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	transport, err := NewTransport(server.URL, Options{})
	require.NoError(t, err)

	err = transport.Put(context.Background(), "/v1/preferences/ui", map[string]string{"theme": "dark"})

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Nil(t, httpErr.Envelope)
	assert.Equal(t, "gateway exploded", httpErr.Body)
	assert.Equal(t, protocol.ErrorCode(""), httpErr.Code())
}

func TestTransport_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	transport, err := NewTransport(url, Options{})
	require.NoError(t, err)

	err = transport.Get(context.Background(), "/v1/dataflows", &struct{}{})
	assert.ErrorIs(t, err, provider.ErrBackendUnavailable)
}

func TestTransport_GetStreamRejectsNonEventStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	transport, err := NewTransport(server.URL, Options{})
	require.NoError(t, err)

	_, err = transport.GetStream(context.Background(), "/v1/telemetry/system/stream")
	assert.ErrorIs(t, err, ErrProtocol)
}
