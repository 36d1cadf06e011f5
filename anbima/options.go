package anbima

import (
	"time"

	"github.com/rs/zerolog"
)

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport. This is primarily useful for
// testing or for routing requests through custom infrastructure.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithHTTPTimeout sets the per-request timeout of the default transport.
// By default, this is 30 seconds. It has no effect with WithTransport.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithAuthURL overrides the OAuth token endpoint.
func WithAuthURL(url string) Option {
	return func(c *Client) {
		c.authURL = url
	}
}

// WithDebenturesURL overrides the base URL of the debentures price feed.
func WithDebenturesURL(url string) Option {
	return func(c *Client) {
		c.debenturesURL = url
	}
}

// WithFundsURL overrides the base URL of the funds feed.
func WithFundsURL(url string) Option {
	return func(c *Client) {
		c.fundsURL = url
	}
}

// WithBaseURL points every endpoint at a single host, keeping the ANBIMA
// path layout. Useful for proxies and mock servers.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.authURL = base + "/oauth/access-token"
		c.debenturesURL = base + "/feed/precos-indices/v1/debentures"
		c.fundsURL = base + "/feed/fundos/v1"
	}
}

// WithRetryPolicy replaces the retry policy. The policy is copied.
func WithRetryPolicy(p *RetryPolicy) Option {
	return func(c *Client) {
		if p == nil {
			return
		}
		cp := *p
		c.retryPolicy = &cp
	}
}

// WithMaxRetryTime bounds the total time spent retrying one logical
// operation. By default, this is 300 seconds.
func WithMaxRetryTime(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.retryPolicy.MaxElapsed = d
		}
	}
}

// WithBackoff sets the exponential backoff base and cap. A zero max leaves
// the delay uncapped. By default, the base is 1 second.
func WithBackoff(base, max time.Duration) Option {
	return func(c *Client) {
		c.retryPolicy.Backoff = ExponentialBackoff(base, max)
	}
}

// WithRateLimit enables a local token bucket allowing perMinute requests
// per minute. Disabled by default.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		c.rateLimitRPM = perMinute
	}
}

// WithLogger sets the structured logger. By default, nothing is logged.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m MetricsCollector) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithClock overrides the time source used for session freshness.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}
