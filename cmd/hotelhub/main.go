package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aegeanview/hotelhub/internal/config"
	"github.com/aegeanview/hotelhub/internal/routing"
	"github.com/aegeanview/hotelhub/internal/server"
	"github.com/aegeanview/hotelhub/internal/sse"
	"github.com/aegeanview/hotelhub/internal/store"
	"github.com/aegeanview/hotelhub/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := newLogger(cfg)

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer func() { _ = db.Close() }()

	routes := routing.NewTable()
	cache := upstream.NewCache()
	registry := sse.NewRegistry(log)
	manager := upstream.NewManager(cfg.Upstream.URL, cfg.Upstream.Token, cache, routes, registry, log)

	srv := server.New(cfg, db, routes, cache, manager, registry, log)

	// Warm the upstream connection so the first browser gets a populated
	// snapshot. Failure is fine; the first request retries.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := manager.EnsureConnected(ctx); err != nil {
			log.Warn().Err(err).Msg("initial upstream connection failed")
		}
	}()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("shutting down...")
		os.Exit(0)
	}()

	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.Log.Format == "json" {
		log = zerolog.New(os.Stderr)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return log.Level(level).With().Timestamp().Logger()
}
