package anbima

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultAuthURL       = "https://api.anbima.com.br/oauth/access-token"
	defaultDebenturesURL = "https://api.anbima.com.br/feed/precos-indices/v1/debentures"
	defaultFundsURL      = "https://api.anbima.com.br/feed/fundos/v1"

	defaultTimeout = 30 * time.Second
)

// Record is a single API record. The client does not interpret its fields.
type Record map[string]any

// Client is the ANBIMA API client. It owns a Session and exposes one
// service per resource family. A Client is not safe for concurrent use;
// give each goroutine its own Client.
type Client struct {
	transport     Transport
	authURL       string
	debenturesURL string
	fundsURL      string
	timeout       time.Duration
	rateLimitRPM  int
	retryPolicy   *RetryPolicy
	logger        zerolog.Logger
	metrics       MetricsCollector
	now           func() time.Time

	session *Session

	// Services used for communicating with the ANBIMA API endpoints.
	Debentures *DebenturesService
	Funds      *FundsService
}

// NewClient creates a new ANBIMA API client for the given credentials.
func NewClient(clientID, clientSecret string, opts ...Option) *Client {
	c := &Client{
		authURL:       defaultAuthURL,
		debenturesURL: defaultDebenturesURL,
		fundsURL:      defaultFundsURL,
		timeout:       defaultTimeout,
		retryPolicy:   DefaultRetryPolicy(),
		logger:        zerolog.Nop(),
		metrics:       noopMetrics{},
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		c.transport = newRestyTransport(c.timeout)
	}

	req := &requester{
		transport: c.transport,
		limiter:   newRateLimiter(c.rateLimitRPM),
		policy:    c.retryPolicy,
		logger:    c.logger,
		metrics:   c.metrics,
	}

	c.session = newSession(Credentials{ClientID: clientID, ClientSecret: clientSecret}, c.authURL, req, c.now)
	c.Debentures = &DebenturesService{session: c.session, req: req, baseURL: c.debenturesURL}
	c.Funds = &FundsService{session: c.session, req: req, baseURL: c.fundsURL}

	return c
}

// Session returns the session manager shared by the client's services.
func (c *Client) Session() *Session {
	return c.session
}

// Connect authenticates eagerly. Resource calls authenticate lazily, so
// calling Connect is optional.
func (c *Client) Connect(ctx context.Context) error {
	return c.session.Connect(ctx)
}

// requester executes requests through the Transport with local rate
// limiting, metrics and logging, and runs logical operations under the
// retry policy.
type requester struct {
	transport Transport
	limiter   *rateLimiter
	policy    *RetryPolicy
	logger    zerolog.Logger
	metrics   MetricsCollector
}

// retry runs fn under the retry policy. Every logical operation gets its
// own op_id; the tagged logger travels in ctx.
func (r *requester) retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	logger := r.logger.With().Str("op", op).Str("op_id", uuid.NewString()).Logger()
	ctx = logger.WithContext(ctx)

	p := *r.policy
	userHook := r.policy.OnRetry
	p.OnRetry = func(err error, attempt int, delay time.Duration) {
		reason := retryReason(err)
		logger.Warn().Err(err).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Str("reason", reason).
			Msg("retrying request")
		r.metrics.RecordRetry(reason)
		if userHook != nil {
			userHook(err, attempt, delay)
		}
	}

	err := p.Do(ctx, fn)
	if err != nil && errors.Is(err, ErrRetryBudgetExceeded) {
		logger.Error().Err(err).Msg("retry budget exhausted")
	}
	return err
}

// do sends a single request. Non-2xx responses are returned as-is; only
// transport failures produce an error.
func (r *requester) do(ctx context.Context, endpoint string, req *Request) (*Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("local rate limit wait interrupted: %w", err)
	}

	start := time.Now()
	resp, err := r.transport.Do(ctx, req)
	if err != nil {
		r.metrics.RecordRequest(endpoint, 0, time.Since(start))
		zerolog.Ctx(ctx).Debug().Err(err).Str("url", req.URL).Msg("request failed")
		return nil, err
	}

	r.metrics.RecordRequest(endpoint, resp.StatusCode, time.Since(start))
	zerolog.Ctx(ctx).Debug().
		Str("method", req.Method).
		Str("url", req.URL).
		Int("status", resp.StatusCode).
		Msg("request completed")

	return resp, nil
}

// get issues an authorized GET against a resource endpoint and decodes the
// JSON body into v. It is one attempt; callers wrap it in retry.
func (r *requester) get(ctx context.Context, s *Session, endpoint, url string, query map[string]string, v any) error {
	if err := s.EnsureConnected(ctx); err != nil {
		return err
	}

	resp, err := r.do(ctx, endpoint, &Request{
		Method: "GET",
		URL:    url,
		Header: s.authHeaders(),
		Query:  query,
	})
	if err != nil {
		return err
	}

	if !resp.IsSuccess() {
		err := mapResourceError(resp)
		var rl *RateLimitError
		if errors.As(err, &rl) {
			zerolog.Ctx(ctx).Warn().Str("url", url).Msg("being rate-limited")
		}
		return err
	}

	return decodeJSON(resp.Body, v)
}

// decodeJSON keeps numbers as json.Number so record values round-trip
// without float formatting artifacts.
func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func retryReason(err error) string {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return "rate_limited"
	}
	return "transient"
}
