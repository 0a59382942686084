// Package protocolclient is the remote backend: an HTTP client for the dora
// protocol gateway and the capability implementations built on it.
package protocolclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/heyong4725/dora-tui/src/provider"
)

const (
	// DefaultRequestTimeout bounds a unary gateway call.
	DefaultRequestTimeout = 10 * time.Second
	// DefaultDialTimeout bounds connection setup and response headers for streams.
	DefaultDialTimeout = 5 * time.Second

	// maxErrorBody caps how much of a failed response is kept for the error.
	maxErrorBody = 64 << 10
)

// Options configures a Transport. Zero values select the defaults.
type Options struct {
	RequestTimeout time.Duration
	DialTimeout    time.Duration
	UserAgent      string
}

// Transport performs requests against the gateway base URL.
// It never consults proxy environment variables.
type Transport struct {
	base      *url.URL
	unary     *http.Client
	streaming *http.Client
	userAgent string
}

// NewTransport validates and normalizes baseURL.
func NewTransport(baseURL string, opts Options) (*Transport, error) {
	base, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "dora-tui"
	}

	rt := newRoundTripper(opts.DialTimeout)
	return &Transport{
		base:      base,
		unary:     &http.Client{Transport: rt, Timeout: opts.RequestTimeout},
		streaming: &http.Client{Transport: rt},
		userAgent: opts.UserAgent,
	}, nil
}

func newRoundTripper(dialTimeout time.Duration) *http.Transport {
	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}
	return &http.Transport{
		// Gateways are local or on a trusted network; HTTP(S)_PROXY must not reroute them.
		Proxy:                 nil,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: dialTimeout,
	}
}

// NormalizeBaseURL parses raw and makes sure its path ends in "/".
func NormalizeBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty base url", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q in %q", ErrInvalidURL, u.Scheme, raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidURL, raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
		if u.RawPath != "" {
			u.RawPath += "/"
		}
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// BaseURL returns the normalized base URL.
func (t *Transport) BaseURL() string {
	return t.base.String()
}

// Endpoint resolves path against the base URL. One leading "/" is ignored so
// "/v1/dataflows" stays under a base like "http://host/gateway/".
func (t *Transport) Endpoint(path string) (*url.URL, error) {
	rel, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if rel.IsAbs() || rel.Host != "" || strings.HasPrefix(rel.Path, "/") {
		return nil, fmt.Errorf("%w: %q is not a relative path", ErrInvalidURL, path)
	}

	resolved := t.base.ResolveReference(rel)
	if resolved.Host != t.base.Host || !strings.HasPrefix(resolved.Path, t.base.Path) {
		return nil, fmt.Errorf("%w: %q escapes base %s", ErrInvalidURL, path, t.base)
	}
	return resolved, nil
}

// Get fetches path and decodes the JSON body into out.
func (t *Transport) Get(ctx context.Context, path string, out any) error {
	resp, err := t.do(ctx, t.unary, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrDecode, path, err)
	}
	return nil
}

// Put sends body as JSON. The response body is discarded.
func (t *Transport) Put(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	resp, err := t.do(ctx, t.unary, http.MethodPut, path, payload)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// GetStream opens an event stream. The caller owns the returned body and
// must close it; nothing is buffered beyond what the reader consumes.
func (t *Transport) GetStream(ctx context.Context, path string) (io.ReadCloser, error) {
	resp, err := t.do(ctx, t.streaming, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, _ := mime.ParseMediaType(ct)
		if mediaType != "text/event-stream" {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: GET %s returned content type %q", ErrProtocol, path, ct)
		}
	}
	return resp.Body, nil
}

func (t *Transport) do(ctx context.Context, client *http.Client, method, path string, payload []byte) (*http.Response, error) {
	endpoint, err := t.Endpoint(path)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if client == t.streaming {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, ctxErr)
		}
		return nil, fmt.Errorf("%s %s: %w: %w", method, path, provider.ErrBackendUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, newHTTPError(method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	return resp, nil
}
