// Package api implements the AuthClient and OrderClient ports against the
// work-order backend's JSON-over-HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ericfisherdev/fieldorders/internal/domain/model"
	"github.com/ericfisherdev/fieldorders/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.AuthClient  = (*Client)(nil)
	_ driven.OrderClient = (*Client)(nil)
)

const (
	userAgent = "fieldorders"

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 8 << 20
)

// Client talks to the backend rooted at a single base URL.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient makes the Client send requests through hc. hc itself is not
// modified; its transport is wrapped in a copy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		clone := *hc
		clone.Transport = newUserAgentTransport(hc.Transport)
		c.httpClient = &clone
	}
}

// WithTimeout sets an overall per-request timeout. Zero keeps the transport
// default, which is no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a Client for the backend at baseURL
// (e.g. "http://erpcloud.syncsolutions.es:3030").
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parsing base URL: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parsing base URL: missing host in %q", baseURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}

	c := &Client{
		httpClient: &http.Client{Transport: newUserAgentTransport(nil)},
		baseURL:    u,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		c.httpClient.Timeout = c.timeout
	}
	return c, nil
}

// BaseURL returns the backend root the client was created with.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.baseURL.String(), "/")
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// messageOr returns the backend's {"message": ...} text, or fallback when the
// body has none.
func (r *response) messageOr(fallback string) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.body, &body); err != nil || body.Message == "" {
		return fallback
	}
	return body.Message
}

// send performs one request. A non-nil error means the exchange itself failed
// (transport, context, unreadable body); HTTP error statuses are returned as
// a response for the caller to classify.
func (c *Client) send(ctx context.Context, method, token string, in any, segments ...string) (*response, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	endpoint := c.baseURL.JoinPath(segments...)
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", "method", method, "path", endpoint.Path, "error", err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	c.logger.Debug("api request",
		"method", method,
		"path", endpoint.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return &response{status: resp.StatusCode, body: data}, nil
}

func connectivityError(message string, err error) error {
	return &model.Error{Kind: model.ErrConnectivity, Message: message, Err: err}
}

func malformedError(message string, status int, err error) error {
	return &model.Error{Kind: model.ErrMalformedResponse, Status: status, Message: message, Err: err}
}

func serverError(resp *response, fallback string) error {
	return &model.Error{Kind: model.ErrServer, Status: resp.status, Message: resp.messageOr(fallback)}
}

// userAgentTransport stamps every outgoing request with the client's
// User-Agent.
type userAgentTransport struct {
	base http.RoundTripper
}

func newUserAgentTransport(base http.RoundTripper) *userAgentTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &userAgentTransport{base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", userAgent)
	return t.base.RoundTrip(req)
}
