package anbima

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
)

// Request describes a single HTTP exchange issued through a Transport.
type Request struct {
	Method string
	URL    string
	Header map[string]string
	Query  map[string]string
	Body   any
}

// Response is the fully-read result of a Request.
type Response struct {
	StatusCode int
	Body       []byte
	URL        string
}

// IsSuccess reports whether the response carries a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport performs HTTP requests for the client. Implementations must
// return a *TransientError for network-level failures that are worth
// retrying, and must not treat non-2xx statuses as errors.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// restyTransport is the default Transport. Retries are handled by
// RetryPolicy, so resty's own retry machinery stays disabled.
type restyTransport struct {
	client *resty.Client
}

func newRestyTransport(timeout time.Duration) *restyTransport {
	c := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	return &restyTransport{client: c}
}

// Do executes req and reads the whole body.
func (t *restyTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	r := t.client.R().
		SetContext(ctx).
		SetQueryParams(req.Query)
	// ANBIMA expects the lowercase client_id and access_token names as sent.
	for k, v := range req.Header {
		r.SetHeaderVerbatim(k, v)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return nil, classifyTransportError(ctx, req, err)
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		URL:        req.URL,
	}, nil
}

// classifyTransportError decides whether a failed round trip is transient.
// Cancellation of the caller's context and unknown hosts are permanent;
// everything else at the network level is retried.
func classifyTransportError(ctx context.Context, req *Request, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s %s aborted: %w", req.Method, req.URL, ctx.Err())
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}

	return &TransientError{Method: req.Method, URL: req.URL, Err: err}
}
