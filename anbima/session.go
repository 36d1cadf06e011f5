package anbima

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// SessionTTL is how long an access token is considered usable after the
// handshake that issued it.
const SessionTTL = time.Hour

// Credentials identify the API client. They never change for the lifetime
// of a Session.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// basicAuth returns the Authorization header value for the handshake.
func (c Credentials) basicAuth() string {
	raw := c.ClientID + ":" + c.ClientSecret
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

type authRequest struct {
	GrantType string `json:"grant_type"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
}

// Session owns the client credentials and the current access token.
// Only Connect mutates it. A Session is not safe for concurrent use.
type Session struct {
	creds   Credentials
	authURL string
	req     *requester
	now     func() time.Time

	accessToken  string
	authorizedAt time.Time
}

func newSession(creds Credentials, authURL string, req *requester, now func() time.Time) *Session {
	return &Session{
		creds:   creds,
		authURL: authURL,
		req:     req,
		now:     now,
	}
}

// ClientID returns the client identifier sent with every resource request.
func (s *Session) ClientID() string {
	return s.creds.ClientID
}

// AccessToken returns the current token, or "" before the first Connect.
func (s *Session) AccessToken() string {
	return s.accessToken
}

// AuthorizedAt returns when the current token was issued.
func (s *Session) AuthorizedAt() time.Time {
	return s.authorizedAt
}

// IsFresh reports whether a token exists and is younger than SessionTTL.
func (s *Session) IsFresh() bool {
	if s.accessToken == "" || s.authorizedAt.IsZero() {
		return false
	}
	return s.now().Sub(s.authorizedAt) < SessionTTL
}

// EnsureConnected re-authenticates when the session is not fresh and does
// nothing otherwise.
func (s *Session) EnsureConnected(ctx context.Context) error {
	if s.IsFresh() {
		return nil
	}
	if s.accessToken != "" {
		zerolog.Ctx(ctx).Info().Msg("access token expired, reconnecting")
	}
	return s.Connect(ctx)
}

// Connect performs the client-credentials handshake and replaces any
// previous token. 429 responses and network failures are retried with
// backoff; any other failure is returned as an *AuthError.
func (s *Session) Connect(ctx context.Context) error {
	var token string

	err := s.req.retry(ctx, "connect", func(ctx context.Context) error {
		zerolog.Ctx(ctx).Info().Str("client_id", s.creds.ClientID).Msg("connecting to ANBIMA")

		resp, err := s.req.do(ctx, "auth", &Request{
			Method: http.MethodPost,
			URL:    s.authURL,
			Header: map[string]string{
				"Authorization": s.creds.basicAuth(),
				"Content-Type":  "application/json",
			},
			Body: authRequest{GrantType: "client_credentials"},
		})
		if err != nil {
			return err
		}

		if !resp.IsSuccess() {
			return mapAuthError(resp)
		}

		var payload authResponse
		if err := decodeJSON(resp.Body, &payload); err != nil {
			return &AuthError{StatusCode: resp.StatusCode, Message: "malformed token response", Err: err}
		}
		if payload.AccessToken == "" {
			return &AuthError{StatusCode: resp.StatusCode, Message: "response did not contain an access_token"}
		}

		token = payload.AccessToken
		return nil
	})
	if err != nil {
		s.req.metrics.RecordAuthentication(false)
		return fmt.Errorf("anbima connect: %w", err)
	}

	s.accessToken = token
	s.authorizedAt = s.now()
	s.req.metrics.RecordAuthentication(true)
	s.req.logger.Info().Str("client_id", s.creds.ClientID).Msg("connection successful")

	return nil
}

// authHeaders returns the headers ANBIMA expects on resource requests. The
// token travels in a literal access_token header, not a bearer scheme.
func (s *Session) authHeaders() map[string]string {
	return map[string]string{
		"client_id":    s.creds.ClientID,
		"access_token": s.accessToken,
		"Content-Type": "application/json",
	}
}
