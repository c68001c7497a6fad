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

	"github.com/BennettSmith/insurance-intake-api/internal/adapters/gormstore"
	"github.com/BennettSmith/insurance-intake-api/internal/adapters/httpapi"
	memapplicationrepo "github.com/BennettSmith/insurance-intake-api/internal/adapters/memory/applicationrepo"
	memidempotency "github.com/BennettSmith/insurance-intake-api/internal/adapters/memory/idempotency"
	postgres "github.com/BennettSmith/insurance-intake-api/internal/adapters/postgres"
	pgapplicationrepo "github.com/BennettSmith/insurance-intake-api/internal/adapters/postgres/applicationrepo"
	pgidempotency "github.com/BennettSmith/insurance-intake-api/internal/adapters/postgres/idempotency"
	"github.com/BennettSmith/insurance-intake-api/internal/adapters/quoter"
	"github.com/BennettSmith/insurance-intake-api/internal/app/applications"
	platformclock "github.com/BennettSmith/insurance-intake-api/internal/platform/clock"
	"github.com/BennettSmith/insurance-intake-api/internal/platform/config"
	"github.com/BennettSmith/insurance-intake-api/internal/platform/logging"
	"github.com/BennettSmith/insurance-intake-api/internal/platform/metrics"
	applicationrepoport "github.com/BennettSmith/insurance-intake-api/internal/ports/out/applicationrepo"
	idempotencyport "github.com/BennettSmith/insurance-intake-api/internal/ports/out/idempotency"
)

func main() {
	cfg, err := config.LoadServerConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}
	if err := run(cfg, logger); err != nil {
		logger.Error("api exited", slog.Any("err", err))
		os.Exit(1)
	}
}

type storage struct {
	repo    applicationrepoport.Repository
	idem    idempotencyport.Store
	cleanup func()
}

func openStorage(ctx context.Context, cfg config.ServerConfig) (storage, error) {
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			return storage{}, fmt.Errorf("invalid postgres config: %w", err)
		}
		return storage{
			repo:    pgapplicationrepo.NewRepo(pool),
			idem:    pgidempotency.NewStore(pool, cfg.IdempotencyTTL),
			cleanup: pool.Close,
		}, nil
	case config.StorageGorm:
		db, err := gormstore.Open(cfg.DatabaseURL)
		if err != nil {
			return storage{}, fmt.Errorf("invalid gorm config: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return storage{}, err
		}
		// Idempotency records stay on pgx; gorm serves the application aggregate.
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{MaxConns: 4})
		if err != nil {
			_ = sqlDB.Close()
			return storage{}, fmt.Errorf("invalid postgres config: %w", err)
		}
		return storage{
			repo: gormstore.NewRepo(db),
			idem: pgidempotency.NewStore(pool, cfg.IdempotencyTTL),
			cleanup: func() {
				pool.Close()
				_ = sqlDB.Close()
			},
		}, nil
	default:
		return storage{
			repo: memapplicationrepo.NewRepo(),
			idem: memidempotency.NewStore(cfg.IdempotencyTTL),
		}, nil
	}
}

func run(cfg config.ServerConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	if st.cleanup != nil {
		defer st.cleanup()
	}

	m := metrics.New()
	svc := applications.NewService(st.repo, quoter.NewRandom(), platformclock.NewSystemClock())
	svc.ResumeRouteTemplate = cfg.ResumeRouteTemplate
	svc.Recorder = m

	api := httpapi.NewServer(svc, st.idem, logger)
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{
		Logger:             logger,
		Metrics:            m,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", slog.String("addr", srv.Addr), slog.String("storage", cfg.StorageBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
