// Package anbima provides a Go client for the ANBIMA financial-data feeds.
//
// The client performs the OAuth2 client-credentials handshake, tracks the
// one-hour lifetime of the issued access token, retries rate-limited (429)
// and transient network failures with exponential backoff bounded by five
// minutes per operation, and aggregates paginated fund listings.
//
// # Quick Start
//
//	client := anbima.NewClient(clientID, clientSecret,
//	    anbima.WithLogger(zerolog.New(os.Stderr)),
//	)
//
//	quotes, err := client.Debentures.Secondary(ctx, map[string]string{"date": "2024-01-15"})
//
// # Pagination
//
// Listing methods take a getAll flag. Without it a single page is returned;
// with it every page announced by the first page's metadata is fetched in
// order and concatenated:
//
//	funds, err := client.Funds.ICVM(ctx, true)
//
// # Errors
//
// Non-retryable failures surface as *AuthError or *RequestError. When the
// retry budget runs out the last error is returned wrapped in a
// *RetryBudgetError, so errors.As(err, &rateLimitErr) still holds.
// Unsupported listings return ErrUnimplemented.
//
// # Concurrency
//
// A Client and its Session are not safe for concurrent use. Give each
// goroutine its own Client.
package anbima
