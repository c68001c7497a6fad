// Package testutil provides a migrated Postgres database for adapter tests.
//
// DATABASE_URL points the tests at an existing database. With ITEST_POSTGRES=1
// and no DATABASE_URL a throwaway container is started instead. Otherwise the
// calling test is skipped.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	postgres "github.com/BennettSmith/insurance-intake-api/internal/adapters/postgres"
)

var (
	once   sync.Once
	dsn    string
	setErr error
)

// DSN returns the URL of a migrated database, or skips t when none is configured.
func DSN(t *testing.T) string {
	t.Helper()
	once.Do(func() {
		dsn, setErr = provision(context.Background())
		if setErr == nil && dsn != "" {
			setErr = postgres.MigrateUp(dsn)
		}
	})
	if setErr != nil {
		t.Fatalf("postgres test database: %v", setErr)
	}
	if dsn == "" {
		t.Skip("postgres tests disabled (set DATABASE_URL or ITEST_POSTGRES=1)")
	}
	return dsn
}

func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := DSN(t)
	pool, err := postgres.NewPool(context.Background(), url, postgres.PoolOptions{MaxConns: 4})
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func provision(ctx context.Context) (string, error) {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		return v, nil
	}
	if os.Getenv("ITEST_POSTGRES") != "1" {
		return "", nil
	}

	// The container lives for the whole test binary; the testcontainers reaper removes it.
	c, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("intake_test"),
		tcpostgres.WithUsername("intake"),
		tcpostgres.WithPassword("intake"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return "", fmt.Errorf("start postgres container: %w", err)
	}
	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		return "", fmt.Errorf("container host: %w", err)
	}
	port, err := c.MappedPort(ctx, "5432")
	if err != nil {
		_ = c.Terminate(ctx)
		return "", fmt.Errorf("container port: %w", err)
	}
	return fmt.Sprintf("postgres://intake:intake@%s:%s/intake_test?sslmode=disable", host, port.Port()), nil
}
