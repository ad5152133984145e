package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
	"github.com/rickykhulal/bolt-earth/internal/weather"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
	Limiter *rate.Limiter
}

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
	errNoCoordinates = errors.New("latitude and longitude are required")
	errNotConfigured = errors.New("api key is not configured")
	errNoData        = errors.New("no data available for this location")
)

var (
	latRange = fusion.Range{Min: -90, Max: 90}
	lngRange = fusion.Range{Min: -180, Max: 180}
)

var defaultBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// Option customizes a provider.
type Option func(*base)

// WithBaseURL points the provider at a different endpoint, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(b *base) { b.baseURL = u }
}

// WithRateLimit caps outbound requests per second for the provider.
func WithRateLimit(rps float64, burst int) Option {
	return func(b *base) {
		if rps > 0 {
			if burst < 1 {
				burst = 1
			}
			b.httpCfg.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithBackoff overrides the retry policy.
func WithBackoff(cfg BackoffConfig) Option {
	return func(b *base) { b.httpCfg.Backoff = cfg }
}

// WithClock replaces time.Now, for providers that query by date.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// base carries what every provider shares: name, endpoint, HTTP settings and
// its own circuit breaker.
type base struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func newBase(name, baseURL string, client *http.Client, opts []Option) base {
	b := base{
		name:    name,
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&b)
	}
	b.circuit = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
	return b
}

func (b *base) Name() string {
	return b.name
}

// getJSON performs a resilient GET and decodes the JSON body into out.
func (b *base) getJSON(ctx context.Context, u string, headers map[string]string, out any) error {
	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	}
	return b.doJSON(ctx, build, out)
}

// postJSON performs a resilient POST of body as JSON and decodes the reply.
func (b *base) postJSON(ctx context.Context, u string, headers map[string]string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	}
	return b.doJSON(ctx, build, out)
}

func (b *base) doJSON(ctx context.Context, build func(context.Context) (*http.Request, error), out any) error {
	resp, err := doRequestWithResilience(ctx, b.httpCfg, b.circuit, build)
	if err != nil {
		return fmt.Errorf("%s: %w", b.name, err)
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", b.name, err)
	}
	return nil
}

// doRequestWithResilience executes the HTTP request with rate limiting, retries
// with exponential backoff, and a circuit breaker. Client errors other than 429
// and an open circuit are not retried.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(context.Context) (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.Backoff.InitialInterval
	if cfg.Backoff.MaxInterval > 0 {
		bo.MaxInterval = cfg.Backoff.MaxInterval
	}
	bo.MaxElapsedTime = 0

	var resp *http.Response
	operation := func() error {
		if cfg.Limiter != nil {
			if err := cfg.Limiter.Wait(ctx); err != nil {
				return backoff.Permanent(fmt.Errorf("rate limit wait canceled: %w", err))
			}
		}

		req, err := buildRequest(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}

		result, err := cb.Execute(func() (interface{}, error) {
			r, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			// Handle rate limiting and server errors explicitly.
			switch {
			case r.StatusCode == http.StatusTooManyRequests:
				drain(r)
				return nil, errRateLimited
			case r.StatusCode >= 500:
				drain(r)
				return nil, fmt.Errorf("%w: %d", errServerError, r.StatusCode)
			case r.StatusCode < 200 || r.StatusCode >= 300:
				drain(r)
				return nil, backoff.Permanent(fmt.Errorf("%w: %d", errUnexpected, r.StatusCode))
			}
			return r, nil
		})
		if err != nil {
			// If circuit is open, propagate immediately.
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(fmt.Errorf("%w: %v", errCircuitOpen, err))
			}
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}

		r, ok := result.(*http.Response)
		if !ok {
			return backoff.Permanent(fmt.Errorf("unexpected result type from circuit breaker"))
		}
		resp = r
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(cfg.Backoff.MaxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return resp, nil
}

func drain(r *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, 64<<10))
	r.Body.Close()
}

// field sanitizes a raw payload value against q's range.
func field(q fusion.Quantity, raw any) *float64 {
	return fusion.Sanitize(raw, q.Range())
}

// complete stamps the reading with the provider name and marks it available
// when it carries at least one value.
func (b *base) complete(r fusion.SourceReading) (fusion.SourceReading, error) {
	r.Source = b.name
	r.Available = r.HasData()
	if r.ObservedAt.IsZero() {
		r.ObservedAt = b.now().UTC()
	}
	if !r.Available {
		return r, fmt.Errorf("%s: %w", b.name, errNoData)
	}
	return r, nil
}

func coordinates(loc weather.Location) (float64, float64, error) {
	if !loc.HasCoordinates() {
		return 0, 0, errNoCoordinates
	}
	return *loc.Lat, *loc.Lng, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

var (
	_ weather.Provider = (*NASAPowerProvider)(nil)
	_ weather.Provider = (*MeteostatProvider)(nil)
	_ weather.Provider = (*WeatherAPIProvider)(nil)
	_ weather.Provider = (*OpenWeatherProvider)(nil)
	_ weather.Provider = (*OpenMeteoProvider)(nil)
	_ weather.Provider = (*OpenAQProvider)(nil)
	_ weather.Provider = (*EdgeFunctionProvider)(nil)
)
