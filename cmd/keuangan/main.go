package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"keuangan/internal/backend"
	"keuangan/internal/cli"
	apphttp "keuangan/internal/http"
	"keuangan/internal/log"
	"keuangan/internal/session"
	"keuangan/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)

	logger.Info("Starting keuangan")

	cfg := cli.LoadAndValidateConfig(logger)

	result, err := backend.NewFactory(logger).Create(cfg)
	if err != nil {
		logger.Error("Failed to create data backend", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}

	sessions := session.NewController(result.Gateway)
	cats := store.NewCategories(result.Gateway, sessions)
	txs := store.NewTransactions(result.Gateway, sessions)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:         ":" + cfg.Port,
		SecureCookie: os.Getenv("SECURE_COOKIE") == "true",
		SessionTTL:   cfg.SessionTTL,
	}, sessions, cats, txs)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", log.FieldError, err.Error())
		}

		cats.Close()
		txs.Close()

		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err.Error())
			}
		}
	})

	logger.Info("Server listening",
		"addr", srv.Addr,
		"backend", cfg.DataBackend,
		"sync_enabled", cfg.SyncEnabled(),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
