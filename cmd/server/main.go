package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sheikh-saqib/mock-banking-ledger/internal/api"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/auth"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/config"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/events/kafka"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/events/logging"
	interfaces "github.com/sheikh-saqib/mock-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/ledger"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/logger"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/repository"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/storage/postgres"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	err = run(cfg, zl)
	if err != nil {
		zl.Error("server exited", zap.Error(err))
	}
	zl.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() {
			if err := db.Close(); err != nil {
				zl.Error("db close failed", zap.Error(err))
				return
			}
			zl.Info("db closed")
		}()
	}

	var publisher interfaces.EventPublisher = logging.NewPublisher(zl)
	if len(cfg.Kafka.Brokers) > 0 {
		kp := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kp.Close()
		publisher = kp
	}

	accounts := repository.NewAccountRepository(store)
	transactions := repository.NewTransactionRepository(store)

	l := ledger.NewLedger(accounts, transactions,
		ledger.WithTransactor(repository.NewTransactor(store)),
		ledger.WithPublisher(publisher),
		ledger.WithLogger(zl.Named("ledger")),
	)
	authService := auth.NewService(
		repository.NewUserRepository(store),
		repository.NewSessionRepository(store),
		accounts,
		cfg.Auth.Secret,
		cfg.Auth.SessionTTL,
		auth.WithLogger(zl.Named("auth")),
	)

	h := api.NewHandler(authService, l, accounts, transactions, api.CookieConfig{
		Name:   cfg.Auth.CookieName,
		Secure: cfg.Auth.CookieSecure,
		MaxAge: cfg.Auth.SessionTTL,
	}, zl.Named("api"))

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      api.NewRouter(h, zl.Named("http")),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("HTTP server listening", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	zl.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}

	zl.Info("server stopped")
	return nil
}

// openStore returns the configured document store. db is nil for the
// in-memory driver.
func openStore(ctx context.Context, cfg config.Config) (interfaces.TransactionalStore, *sql.DB, error) {
	if cfg.Storage.Driver != config.DriverPostgres {
		return memory.NewMemoryDocumentStore(), nil, nil
	}

	db, err := postgres.Open(ctx, cfg.Storage.DSN)
	if err != nil {
		return nil, nil, err
	}
	store := postgres.NewPostgresDocumentStore(db)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}
