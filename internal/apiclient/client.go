package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	requestsTotal  = expvar.NewInt("client_requests_total")
	requestsErrors = expvar.NewInt("client_requests_errors_total")
)

const maxResponseBytes = 4 << 20

// TokenSource supplies the bearer token of the current session.
type TokenSource interface {
	Token() string
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	// Transport replaces http.DefaultTransport underneath the tracing
	// and logging layers.
	Transport http.RoundTripper
	Tokens    TokenSource
	Logger    *slog.Logger
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *slog.Logger
}

func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(&loggingTransport{next: base, logger: logger}),
		},
		tokens: opts.Tokens,
		logger: logger,
	}
}

// WithTokens returns a copy of c that authenticates with tokens.
func (c *Client) WithTokens(tokens TokenSource) *Client {
	clone := *c
	clone.tokens = tokens
	return &clone
}

func (c *Client) currentToken() (string, error) {
	if c.tokens == nil {
		return "", ErrNoSession
	}
	token := strings.TrimSpace(c.tokens.Token())
	if token == "" {
		return "", ErrNoSession
	}
	return token, nil
}

// authed performs a request with the session token attached.
func (c *Client) authed(ctx context.Context, method, path string, in, out any, fallback string) error {
	token, err := c.currentToken()
	if err != nil {
		return err
	}
	return c.do(ctx, method, path, token, in, out, fallback)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any, fallback string) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUnreachable, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %w", ErrUnreachable, method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, raw, fallback)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

type loggingTransport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start)
	requestsTotal.Add(1)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if err != nil || status >= http.StatusBadRequest {
		requestsErrors.Add(1)
	}
	attrs := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"status", status,
		"duration_ms", duration.Milliseconds(),
		"request_id", req.Header.Get("X-Request-ID"),
	}
	if err != nil {
		t.logger.Warn("request failed", append(attrs, "error", err)...)
	} else {
		t.logger.Debug("request", attrs...)
	}
	return resp, err
}
