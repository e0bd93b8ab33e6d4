// Package external holds thin wrappers over the market data providers. Each
// call issues one outbound request and hands back the provider payload.
package external

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/kjannette/quantdata/internal/httputil"
	"github.com/kjannette/quantdata/internal/logging"
)

const DefaultTimeout = 30 * time.Second

var (
	ErrInvalidTicker   = errors.New("invalid ticker")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Option configures a provider client.
type Option func(*base)

// WithBaseURL overrides the provider root URL.
func WithBaseURL(baseURL string) Option {
	return func(b *base) {
		b.baseURL = baseURL
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(b *base) {
		b.logger = logger
	}
}

// WithRateLimit allows n requests per minute with a burst of one.
func WithRateLimit(perMinute int) Option {
	return func(b *base) {
		if perMinute <= 0 {
			b.limiter = nil
			return
		}
		b.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(b *base) {
		b.httpClient.Timeout = timeout
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(b *base) {
		b.httpClient = client
	}
}

// WithAttempts enables retries with backoff for transport errors and 5xx.
func WithAttempts(n int) Option {
	return func(b *base) {
		b.attempts = n
	}
}

// WithClock replaces time.Now for output size decisions.
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		b.now = now
	}
}

type base struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	limiter    *rate.Limiter
	attempts   int
	header     http.Header
	now        func() time.Time
}

func newBase(defaultURL string, opts []Option) base {
	b := base{
		baseURL:    defaultURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logging.NewSilent(),
		attempts:   1,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// get performs a rate-limited GET and returns the raw body.
func (b *base) get(ctx context.Context, url string) ([]byte, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	retry := httputil.NoRetry
	if b.attempts > 1 {
		retry = httputil.WithAttempts(b.attempts, b.logger)
	}
	return httputil.GetBody(ctx, b.httpClient, retry, url, b.header)
}
