package nominatim

import (
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org/search"

// Defaults chosen to stay inside the Nominatim usage policy: one request in
// flight, at least one second between requests, identifying contact.
const (
	defaultInterval   = time.Second
	defaultMaxRetries = 5
	defaultTimeout    = 10 * time.Second

	rateLimitBackoffBase = time.Second
	rateLimitBackoffCap  = 30 * time.Second
	rateLimitJitterMax   = 500 * time.Millisecond

	serverBackoffBase = 500 * time.Millisecond
	serverBackoffCap  = 20 * time.Second
	serverJitterMax   = 300 * time.Millisecond
)

// Client issues paced, retried searches against a Nominatim endpoint. The
// pacing state lives in the limiter owned by the Client value, shared by
// every strategy and row of a run.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	email      string
	maxRetries int
	timeout    time.Duration

	// Injection points for tests.
	sleep  func(time.Duration)
	jitter func(max time.Duration) time.Duration
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the search endpoint (self-hosted instances, tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithInterval sets the minimum spacing between outbound requests.
// A zero or negative interval disables pacing (tests only).
func WithInterval(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithMaxRetries sets how many times a failed request is retried before the
// call is demoted to a no-result.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithTimeout bounds each individual HTTP call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a Client identifying itself with the given contact
// address, as the provider's policy requires.
func NewClient(contact string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout + time.Second},
		limiter:    rate.NewLimiter(rate.Every(defaultInterval), 1),
		userAgent:  "sepomex-enrich/1.0 (" + contact + ")",
		email:      contact,
		maxRetries: defaultMaxRetries,
		timeout:    defaultTimeout,
		sleep:      time.Sleep,
		jitter: func(max time.Duration) time.Duration {
			return time.Duration(rand.Int64N(int64(max)))
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs one query. It returns (candidates, true) on a decoded
// response and (nil, false) once the retry cap is exhausted or the context
// ends; transport failure is never fatal to the caller.
func (c *Client) Search(ctx context.Context, q Query) ([]Candidate, bool) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, false
		}

		cands, err := c.doSearch(ctx, q)
		if err == nil {
			return cands, true
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, false
		}
		if attempt == c.maxRetries {
			break
		}

		delay := c.retryDelay(attempt, err)
		zap.L().Warn("nominatim: request failed, backing off",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		c.sleep(delay)
	}

	zap.L().Warn("nominatim: retries exhausted, treating as no result", zap.Error(lastErr))
	return nil, false
}

// retryDelay picks the sleep before the next attempt. A Retry-After from
// the provider is honored exactly; throttling statuses back off harder and
// longer than ordinary server errors.
func (c *Client) retryDelay(attempt int, err error) time.Duration {
	var herr *statusError
	if eris.As(err, &herr) && herr.Throttled() {
		if herr.retryAfter > 0 {
			return herr.retryAfter
		}
		return backoff(attempt, rateLimitBackoffBase, rateLimitBackoffCap) + c.jitter(rateLimitJitterMax)
	}
	return backoff(attempt, serverBackoffBase, serverBackoffCap) + c.jitter(serverJitterMax)
}

// backoff computes base * 2^attempt capped at max.
func backoff(attempt int, base, max time.Duration) time.Duration {
	d := base << uint(attempt)
	if d > max || d <= 0 {
		d = max
	}
	return d
}

// statusError is a non-2xx response, with any Retry-After the server sent.
type statusError struct {
	status     int
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return http.StatusText(e.status)
}

// Throttled reports whether the status signals usage-policy throttling.
func (e *statusError) Throttled() bool {
	return e.status == http.StatusTooManyRequests || e.status == http.StatusForbidden
}

// doSearch issues a single HTTP attempt.
func (c *Client) doSearch(ctx context.Context, q Query) ([]Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := q.params()
	if c.email != "" {
		params.Set("email", c.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, eris.Wrap(&statusError{
			status:     resp.StatusCode,
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}, "nominatim: search")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: read body")
	}

	var cands []Candidate
	if err := json.Unmarshal(body, &cands); err != nil {
		return nil, eris.Wrap(err, "nominatim: parse response")
	}
	return cands, nil
}

// parseRetryAfter handles both delta-seconds and HTTP-date forms. Returns 0
// when the header is absent or unparseable.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := time.ParseDuration(v + "s"); err == nil && secs >= 0 {
		return secs
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
