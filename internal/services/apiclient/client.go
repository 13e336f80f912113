package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"reelforge/internal/fileutil"
	"reelforge/internal/services"
)

const (
	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 5
)

// Client is the retrying, rate-limited HTTP transport shared by provider
// adapters.
type Client struct {
	name       string
	httpClient *http.Client
	limiter    *rate.Limiter

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count (defaults to 5).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less disables it.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			c.limiter = nil
		}
	}
}

// New constructs a client labelled name (used in error messages).
func New(name string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	c := &Client{
		name:             name,
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request is one HTTP call. Body is resent on every attempt.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response carries a fully read response body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// HTTPStatusError reports a non-2xx response.
type HTTPStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, summarize(e.Body))
}

// RetryableError marks response-level failures (such as an empty completion)
// that are worth another attempt.
type RetryableError interface {
	error
	Retryable() bool
}

// Do sends req, retrying timeouts, 408, 429, and 5xx responses with
// exponential backoff (or the server's Retry-After).
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	var resp Response
	err := c.Retry(ctx, req.Method+" "+redact(req.URL), func(context.Context) error {
		var err error
		resp, err = c.Send(ctx, req)
		return err
	})
	return resp, err
}

// DoJSON sends in as a JSON body (when non-nil) and decodes the response
// into out (when non-nil).
func (c *Client) DoJSON(ctx context.Context, method, endpoint string, header http.Header, in, out any) error {
	req := Request{Method: method, URL: endpoint, Header: header.Clone()}
	if req.Header == nil {
		req.Header = http.Header{}
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", c.name, err)
		}
		req.Body = body
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w (body: %s)", c.name, err, summarize(string(resp.Body)))
	}
	return nil
}

// Download fetches url into dest atomically.
func (c *Client) Download(ctx context.Context, source, dest string) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, URL: source})
	if err != nil {
		return err
	}
	if len(resp.Body) == 0 {
		return fmt.Errorf("%s: download %s: empty body", c.name, redact(source))
	}
	if err := fileutil.WriteFileAtomic(dest, resp.Body, 0o644); err != nil {
		return fmt.Errorf("%s: save download: %w", c.name, err)
	}
	return nil
}

// Retry runs fn until it succeeds, returns a non-retryable error, or the
// attempts run out.
func (c *Client) Retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := c.retryAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			if attempt == 1 {
				return fmt.Errorf("%s: %s: %w", c.name, op, err)
			}
			return fmt.Errorf("%s: %s: failed after %d attempts: %w", c.name, op, attempt, err)
		}
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return fmt.Errorf("%s: %s: failed after %d attempts: %w", c.name, op, attempts, lastErr)
}

// Send performs a single attempt without retrying.
func (c *Client) Send(ctx context.Context, r Request) (Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Response{}, err
		}
	}
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return Response{}, fmt.Errorf("new request: %w", err)
	}
	for key, values := range r.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read body (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := ParseRetryAfter(resp.Header.Get("Retry-After"))
		return Response{}, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
			RetryAfter: retryAfter,
		}
	}
	return Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) retryAttempts() int {
	if c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var retryable RetryableError
	if errors.As(err, &retryable) && retryable.Retryable() {
		return c.backoffDelay(attempt), true
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	return 0, false
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := defaultRetryBaseDelay
	maxDelay := defaultRetryMaxDelay
	if c.retryBaseDelay >= 0 {
		base = c.retryBaseDelay
	}
	if c.retryMaxDelay > 0 {
		maxDelay = c.retryMaxDelay
	}
	if base <= 0 {
		return 0
	}
	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := base
	for i := 1; i < max(attempt, 1); i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	maxDelay := defaultRetryMaxDelay
	if c.retryMaxDelay > 0 {
		maxDelay = c.retryMaxDelay
	}
	return min(delay, maxDelay)
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Marker classifies a transport error for services.Wrap: rejected
// credentials are configuration problems, throttling and server errors are
// transient, and everything else is an external failure.
func Marker(err error) error {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusUnauthorized, statusErr.StatusCode == http.StatusForbidden:
			return services.ErrConfiguration
		case statusErr.StatusCode == http.StatusTooManyRequests, statusErr.StatusCode >= http.StatusInternalServerError:
			return services.ErrTransient
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.ErrTimeout
	}
	return services.ErrExternalTool
}

// ParseRetryAfter reads a Retry-After header in seconds or HTTP-date form.
func ParseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

// redact drops the query string, which some APIs use for identifiers.
func redact(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	parsed.RawQuery = ""
	return parsed.String()
}

func summarize(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
