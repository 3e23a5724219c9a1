package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/logger"
)

var ErrNotFound = errors.New("resource not found")

// HTTPError is returned for every non-2xx answer from a collaborator.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Temporary reports whether retrying the same call may succeed.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

type requestIDKey struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	log        *slog.Logger
	breaker    *gobreaker.Settings
}

type Option func(*options)

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithBreakerSettings(s gobreaker.Settings) Option {
	return func(o *options) { o.breaker = &s }
}

type baseClient struct {
	name    string
	baseURL string
	http    *http.Client
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     *slog.Logger
}

func newBaseClient(name, baseURL string, opts ...Option) *baseClient {
	o := options{timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	log := logger.OrDefault(o.log).With("collaborator", name)

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	if o.breaker != nil {
		settings = *o.breaker
		settings.Name = name
	}
	// client errors say nothing about the collaborator's health
	settings.IsSuccessful = func(err error) bool {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			return !httpErr.Temporary()
		}
		return err == nil
	}
	settings.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn("circuit breaker state changed", "from", from.String(), "to", to.String())
	}

	return &baseClient{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    o.httpClient,
		timeout: o.timeout,
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		log:     log,
	}
}

type callOption func(*http.Request)

func withHeader(key, value string) callOption {
	return func(r *http.Request) {
		if value != "" {
			r.Header.Set(key, value)
		}
	}
}

// do sends in as JSON and decodes the answer into out. Either may be nil.
func (c *baseClient) do(ctx context.Context, method, path string, query url.Values, in, out any, callOpts ...callOption) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", c.name, err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	respBody, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if id := RequestIDFrom(ctx); id != "" {
			req.Header.Set("X-Request-ID", id)
		}
		for _, opt := range callOpts {
			opt(req)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &HTTPError{
				Method:     method,
				Path:       path,
				StatusCode: resp.StatusCode,
				Body:       strings.TrimSpace(string(data)),
			}
		}
		return data, nil
	})
	if err != nil {
		var httpErr *HTTPError
		if !errors.As(err, &httpErr) || httpErr.Temporary() {
			c.log.WarnContext(ctx, "collaborator call failed", "method", method, "path", path, "error", err)
		}
		return fmt.Errorf("%s: %w", c.name, err)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.name, err)
	}
	return nil
}
