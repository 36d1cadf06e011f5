package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/arvarik/anbima-go/anbima"
	"github.com/arvarik/anbima-go/internal/config"
	"github.com/arvarik/anbima-go/internal/logger"
)

// This command runs the client-credentials handshake once and prints the
// resulting access token, which is handy for poking the API with curl.
//
//	ANBIMA_CLIENT_ID=... ANBIMA_CLIENT_SECRET=... auth
//	auth -json > token.json
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "auth: %v\n", err)
		os.Exit(1)
	}
}

// tokenData is the printed form of a session.
type tokenData struct {
	ClientID     string    `json:"client_id"`
	AccessToken  string    `json:"access_token"`
	AuthorizedAt time.Time `json:"authorized_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg := config.Load()

	fs := flag.NewFlagSet("auth", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.ClientID, "client-id", cfg.ClientID, "ANBIMA client_id (env ANBIMA_CLIENT_ID)")
	fs.StringVar(&cfg.ClientSecret, "client-secret", cfg.ClientSecret, "ANBIMA client_secret (env ANBIMA_CLIENT_SECRET)")
	asJSON := fs.Bool("json", false, "print the token as JSON without the banner")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.Setup(stderr, cfg.LogLevel)
	client := anbima.NewClient(cfg.ClientID, cfg.ClientSecret,
		append(cfg.ClientOptions(), anbima.WithLogger(log))...)

	if err := client.Connect(ctx); err != nil {
		return err
	}

	s := client.Session()
	tok := tokenData{
		ClientID:     s.ClientID(),
		AccessToken:  s.AccessToken(),
		AuthorizedAt: s.AuthorizedAt(),
		ExpiresAt:    s.AuthorizedAt().Add(anbima.SessionTTL),
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tok)
	}

	fmt.Fprintln(stdout, figure.NewFigure("anbima", "cybermedium", true).String())
	printToken(stdout, tok)
	return nil
}

func printToken(w io.Writer, tok tokenData) {
	fmt.Fprintf(w, "client_id:     %s\n", tok.ClientID)
	fmt.Fprintf(w, "access_token:  %s\n", tok.AccessToken)
	fmt.Fprintf(w, "authorized_at: %s\n", tok.AuthorizedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "expires_at:    %s\n", tok.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "curl -H 'client_id: %s' -H 'access_token: %s' ...\n", tok.ClientID, tok.AccessToken)
}
