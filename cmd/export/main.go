package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/arvarik/anbima-go/anbima"
	"github.com/arvarik/anbima-go/internal/config"
	"github.com/arvarik/anbima-go/internal/export"
	"github.com/arvarik/anbima-go/internal/logger"
)

// This command exports ANBIMA feed data to CSV. Debenture quotes are
// fetched for one date, or with -recursive for every day from that date up
// to yesterday; fund listings are fetched page by page.
//
//	export -date 2024-01-15 -recursive -out quotes.csv
//	export -resource fundos -all -out funds.csv
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr, time.Now); err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(1)
	}
}

const resourceDebentures = "debentures"

type options struct {
	clientID     string
	clientSecret string
	resource     string
	date         string
	recursive    bool
	all          bool
	out          string
	metricsAddr  string
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.clientID, "client-id", cfg.ClientID, "ANBIMA client_id (env ANBIMA_CLIENT_ID)")
	fs.StringVar(&o.clientSecret, "client-secret", cfg.ClientSecret, "ANBIMA client_secret (env ANBIMA_CLIENT_SECRET)")
	fs.StringVar(&o.resource, "resource", resourceDebentures, "debentures, fundos, fundos-estruturados or fundos-offshore")
	fs.StringVar(&o.date, "date", "", "reference date YYYY-MM-DD (debentures)")
	fs.BoolVar(&o.recursive, "recursive", false, "walk every day from -date up to yesterday (debentures)")
	fs.BoolVar(&o.all, "all", false, "fetch every page (funds)")
	fs.StringVar(&o.out, "out", "output.csv", "CSV output path")
	fs.StringVar(&o.metricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address while running")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Positional credentials, kept for compatibility with older scripts.
	if rest := fs.Args(); len(rest) == 2 {
		o.clientID, o.clientSecret = rest[0], rest[1]
	} else if len(rest) != 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", rest)
	}

	return o, nil
}

func run(ctx context.Context, args []string, stderr io.Writer, now func() time.Time) error {
	cfg := config.Load()
	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		return err
	}

	cfg.ClientID, cfg.ClientSecret, cfg.MetricsAddr = opts.clientID, opts.clientSecret, opts.metricsAddr
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.Setup(stderr, cfg.LogLevel)
	log.Info().
		Str("client_id", cfg.ClientID).
		Str("resource", opts.resource).
		Str("date", opts.date).
		Bool("recursive", opts.recursive).
		Bool("all", opts.all).
		Msg("starting fetch")

	reg := prometheus.NewRegistry()
	if cfg.MetricsAddr != "" {
		shutdown := serveMetrics(cfg.MetricsAddr, reg, log)
		defer shutdown()
	}

	clientOpts := append(cfg.ClientOptions(),
		anbima.WithLogger(log),
		anbima.WithMetrics(anbima.NewPrometheusCollector(reg)),
	)
	client := anbima.NewClient(cfg.ClientID, cfg.ClientSecret, clientOpts...)

	var (
		records []anbima.Record
		keys    []string
	)
	switch opts.resource {
	case resourceDebentures:
		if opts.date == "" {
			return errors.New("-date is required for debentures")
		}
		start, err := time.Parse(anbima.DateLayout, opts.date)
		if err != nil {
			return fmt.Errorf("invalid -date: %w", err)
		}
		records, err = fetchDebentures(ctx, client, start, today(now), opts.recursive)
		if err != nil {
			return err
		}
		keys = export.DebentureKeys
	case string(anbima.FundICVM), string(anbima.FundStructured), string(anbima.FundOffshore), string(anbima.FundInvestors):
		records, err = client.Funds.List(ctx, anbima.FundType(opts.resource), opts.all, 0)
		if err != nil {
			return err
		}
		keys = export.Keys(records)
	default:
		return fmt.Errorf("unknown resource %q", opts.resource)
	}

	log.Info().Int("records", len(records)).Str("out", opts.out).Msg("finished fetching data, generating output file")
	return writeOutput(opts.out, keys, records)
}

// fetchDebentures fetches quotes for start alone or, when recursive, for
// every day from start up to but excluding end. A recursive walk starting
// at or after end fetches nothing.
func fetchDebentures(ctx context.Context, client *anbima.Client, start, end time.Time, recursive bool) ([]anbima.Record, error) {
	if !recursive {
		end = start.AddDate(0, 0, 1)
	}

	var all []anbima.Record
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		records, err := client.Debentures.SecondaryByDate(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", day.Format(anbima.DateLayout), err)
		}
		all = append(all, records...)
	}
	return all, nil
}

func today(now func() time.Time) time.Time {
	y, m, d := now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func writeOutput(path string, keys []string, records []anbima.Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return export.WriteCSV(f, keys, records)
}

// serveMetrics exposes reg on addr/metrics until the returned func is called.
func serveMetrics(addr string, reg *prometheus.Registry, log zerolog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
