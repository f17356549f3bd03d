package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/IlyasAtabaev731/atm-server/internal/api"
	"github.com/IlyasAtabaev731/atm-server/internal/config"
	"github.com/IlyasAtabaev731/atm-server/internal/events"
	"github.com/IlyasAtabaev731/atm-server/internal/ledger"
	"github.com/IlyasAtabaev731/atm-server/internal/operations"
	"github.com/IlyasAtabaev731/atm-server/internal/session"
	"github.com/IlyasAtabaev731/atm-server/internal/storage/memory"
	"github.com/IlyasAtabaev731/atm-server/internal/storage/postgres"
	"github.com/IlyasAtabaev731/atm-server/internal/users"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting application",
		slog.String("env", cfg.Env),
		slog.String("host", cfg.ApiHost),
		slog.Int("port", cfg.ApiPort),
	)

	store, err := memory.NewSeeded(cfg.PINCost)
	if err != nil {
		log.Error("Failed to seed store", "error", err)
		os.Exit(1)
	}

	var sinks []ledger.Sink

	if cfg.Postgres.Enabled {
		journal, err := postgres.New(cfg.Postgres.URL())
		if err != nil {
			log.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := journal.Stop(); err != nil {
				log.Error("Failed to close database", "error", err)
			}
		}()
		sinks = append(sinks, journal)
		log.Info("Transaction journal enabled", slog.String("host", cfg.Postgres.Host))
	}

	if cfg.NATS.URL != "" {
		publisher, err := events.New(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			log.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error("Failed to close NATS connection", "error", err)
			}
		}()
		sinks = append(sinks, publisher)
		log.Info("Transaction events enabled", slog.String("subject", cfg.NATS.Subject))
	}

	txLedger := ledger.New(store, log, cfg.SinkTimeout, sinks...)

	apiServer := api.New(cfg, log,
		session.New(store, cfg.Auth.JWTSecret, !cfg.Auth.RequireToken),
		users.New(store, log, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		operations.New(store, txLedger, log),
		txLedger,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		apiServer.MustStart()
	}()

	<-sigChan
	log.Info("Got signal to shutdown server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := apiServer.Stop(ctx); err != nil {
		log.Error("Stopping server error", "error", err)
	}

	// sinks are closed by the deferred calls above, after the queue drains
	txLedger.Close()
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	return log
}
