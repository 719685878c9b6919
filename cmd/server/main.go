package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"metafilter/internal/catalog"
	"metafilter/internal/config"
	"metafilter/internal/crawler"
	"metafilter/internal/parser"
	"metafilter/internal/server"
	"metafilter/pkg/logger"
)

// CLI defines the server flags for Kong.
type CLI struct {
	Config string `short:"f" type:"path" help:"YAML config file" env:"METAFILTER_CONFIG"`
	Addr   string `help:"Listen address (overrides config)"`
}

func main() {
	// Load .env file if present (ignore errors)
	_ = godotenv.Load()

	var cli CLI
	kong.Parse(&cli,
		kong.Name("metafilter-server"),
		kong.Description("HTTP API for extracting and searching HTML head metadata"),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cli, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cli CLI, logOut io.Writer) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.Addr != "" {
		cfg.Addr = cli.Addr
	}
	l := logger.New(logOut, cfg.LogLevel)

	client := crawler.NewHTTPClient(cfg.Fetch.Timeout, cfg.Fetch.DialTimeout, cfg.Fetch.SizeCap,
		crawler.WithUserAgent(cfg.Fetch.UserAgent),
		crawler.WithRateLimit(cfg.Fetch.RateLimit),
	)
	par := parser.New()
	batch := &crawler.Batch{
		Fetcher:     client,
		Extractor:   par,
		Concurrency: cfg.Fetch.Concurrency,
		Timeout:     cfg.Fetch.RequestTimeout,
		Logger:      l,
	}
	api := server.New(batch, par, catalog.New(), l)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		l.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	l.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("shutdown failed", slog.Any("error", err))
		return err
	}
	l.Info("bye")
	return nil
}
