// Command accountd runs the account service over HTTP. All
// configuration comes from the environment:
//
//	ACCOUNTD_ADDR           listen address (default :3000)
//	ACCOUNTD_SECRET         JWT signing secret (required)
//	ACCOUNTD_STORE          memory | sqlite | mongo (default memory)
//	ACCOUNTD_DB_PATH        sqlite database file (default accountd.db)
//	ACCOUNTD_MONGO_URI      mongo connection string
//	ACCOUNTD_MONGO_DB       mongo database name (default accountd)
//	ACCOUNTD_SESSION_WINDOW session freshness window, e.g. 30m
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avictor/accountd"
	"github.com/avictor/accountd/httpapi"
	"github.com/avictor/accountd/password"
	"github.com/avictor/accountd/store"
	"github.com/avictor/accountd/store/memory"
	mongostore "github.com/avictor/accountd/store/mongo"
	"github.com/avictor/accountd/store/sqlite"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secret := os.Getenv("ACCOUNTD_SECRET")
	if secret == "" {
		return errors.New("ACCOUNTD_SECRET must be set")
	}

	hasher := password.NewBcryptHasher(password.DefaultCost)

	s, err := openStore(ctx, hasher)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating store: %w", err)
	}

	opts := []accountd.Option{
		accountd.WithSecret(secret),
		accountd.WithHasher(hasher),
	}
	if raw := os.Getenv("ACCOUNTD_SESSION_WINDOW"); raw != "" {
		window, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("parsing ACCOUNTD_SESSION_WINDOW: %w", err)
		}
		opts = append(opts, accountd.WithSessionWindow(window))
	}

	svc, err := accountd.New(s, opts...)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}

	addr := envOr("ACCOUNTD_ADDR", ":3000")
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.New(svc, log).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr, "store", envOr("ACCOUNTD_STORE", "memory"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, hasher password.Hasher) (store.Store, error) {
	switch kind := envOr("ACCOUNTD_STORE", "memory"); kind {
	case "memory":
		return memory.New(hasher), nil
	case "sqlite":
		return sqlite.New(envOr("ACCOUNTD_DB_PATH", "accountd.db"), hasher)
	case "mongo":
		uri := os.Getenv("ACCOUNTD_MONGO_URI")
		if uri == "" {
			return nil, errors.New("ACCOUNTD_MONGO_URI must be set for the mongo store")
		}
		return mongostore.New(&mongostore.Config{
			URI:      uri,
			Database: envOr("ACCOUNTD_MONGO_DB", "accountd"),
			Hasher:   hasher,
		})
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
