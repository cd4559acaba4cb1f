package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/payauth-go/internal/telemetry/logger"
	"github.com/yndnr/payauth-go/internal/telemetry/metric"
)

// TokenSource yields the currently persisted bearer token, or "" when
// the user is not logged in.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// HTTPClient provides HTTP communication with the backend.
//
// Every request carries Content-Type: application/json and, when a token
// is persisted, Authorization: Bearer <token>. There are no retries and no
// client-side timeout; callers bound requests through ctx.
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	tokens    TokenSource
	userAgent string
	metrics   *metric.Registry
	logger    logger.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTokenSource sets where the bearer token is read from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *HTTPClient) {
		c.tokens = ts
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.client = hc
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) {
		c.userAgent = ua
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *metric.Registry) Option {
	return func(c *HTTPClient) {
		c.metrics = m
	}
}

// WithLogger sets the logger used instead of the one carried by the
// request context.
func WithLogger(l logger.Logger) Option {
	return func(c *HTTPClient) {
		c.logger = l
	}
}

// NewHTTPClient creates a new HTTP client for the given server.
func NewHTTPClient(server string, opts ...Option) *HTTPClient {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	c := &HTTPClient{
		baseURL:   baseURL,
		client:    &http.Client{},
		userAgent: "payauth-cli/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestOption adjusts a single request.
type RequestOption func(http.Header)

// WithHeader sets a request header, overriding the defaults
// (including Content-Type and Authorization).
func WithHeader(key, value string) RequestOption {
	return func(h http.Header) {
		h.Set(key, value)
	}
}

// WithBearer overrides the persisted token for one request.
func WithBearer(token string) RequestOption {
	return WithHeader("Authorization", "Bearer "+token)
}

// Get performs a GET request and decodes the response into out.
func (c *HTTPClient) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

// Patch performs a PATCH request with a JSON body.
func (c *HTTPClient) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPatch, path, body, out, opts...)
}

// Delete performs a DELETE request.
func (c *HTTPClient) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}

// Do performs one request. It returns *APIError for non-2xx responses and
// *TransportError when no response was received. out may be nil.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	requestID := ulid.Make().String()
	if err := c.addHeaders(ctx, req, requestID); err != nil {
		return err
	}
	for _, opt := range opts {
		opt(req.Header)
	}

	logCtx := logger.WithRequestID(ctx, requestID)
	if c.logger != nil {
		logCtx = logger.WithLogger(logCtx, c.logger)
	}
	log := logger.L(logCtx)
	start := time.Now()

	resp, err := c.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.observe(method, "transport", elapsed)
		log.Debug("request failed", "method", method, "path", path, "error", err, "elapsed", elapsed)
		return &TransportError{Method: method, URL: url, Err: err}
	}

	c.observe(method, strconv.Itoa(resp.StatusCode), elapsed)
	log.Debug("request completed", "method", method, "path", path, "status", resp.StatusCode, "elapsed", elapsed)

	if err := parseResponse(resp, out, log); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return &TransportError{Method: method, URL: url, Err: err}
	}
	return nil
}

// addHeaders sets the default headers. Request options applied afterwards
// may override any of them.
func (c *HTTPClient) addHeaders(ctx context.Context, req *http.Request, requestID string) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	if c.tokens == nil {
		return nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

func (c *HTTPClient) observe(method, code string, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.ClientRequests.WithLabelValues(method, code).Inc()
	c.metrics.ClientDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// ParseResponse consumes and closes the response body.
//
// Non-2xx responses become *APIError. For 2xx responses the JSON body is
// decoded into target; an empty or unparseable body leaves target at its
// zero value and is not an error. A body read failure is returned as is.
func ParseResponse(resp *http.Response, target any) error {
	return parseResponse(resp, target, nil)
}

// parseResponse is ParseResponse with a debug line when the body does not
// decode into target.
func parseResponse(resp *http.Response, target any, log logger.Logger) error {
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, data)
	}
	if readErr != nil {
		return fmt.Errorf("read response: %w", readErr)
	}

	if target == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		if log != nil {
			log.Debug("response body discarded", "status", resp.StatusCode,
				"target", fmt.Sprintf("%T", target), "error", err)
		}
		resetTarget(target)
	}
	return nil
}

// resetTarget zeroes a partially decoded target.
func resetTarget(target any) {
	v := reflect.ValueOf(target)
	if v.Kind() == reflect.Ptr && !v.IsNil() {
		v.Elem().Set(reflect.Zero(v.Elem().Type()))
	}
}
