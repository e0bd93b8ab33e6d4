package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kjannette/quantdata/internal/db"
)

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

// SetupPool returns a migrated pool for integration tests. TEST_DATABASE_URL
// wins; otherwise a Postgres container is started when QUANTDATA_TEST_DOCKER
// is true. With neither the test is skipped.
func SetupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	_ = godotenv.Load("../../.env")

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		if EnvOr("QUANTDATA_TEST_DOCKER", "") != "true" {
			t.Skip("set TEST_DATABASE_URL or QUANTDATA_TEST_DOCKER=true to run database tests")
		}
		dsn = startPostgres(t)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

// startPostgres starts one container per test process.
func startPostgres(t *testing.T) string {
	t.Helper()

	pgOnce.Do(func() {
		ctx := context.Background()

		req := testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "stocks_test",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(60 * time.Second),
		}

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			pgErr = fmt.Errorf("start postgres container: %w", err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			container.Terminate(ctx)
			pgErr = fmt.Errorf("get postgres host: %w", err)
			return
		}
		port, err := container.MappedPort(ctx, "5432/tcp")
		if err != nil {
			container.Terminate(ctx)
			pgErr = fmt.Errorf("get postgres port: %w", err)
			return
		}

		pgDSN = fmt.Sprintf("postgres://postgres:postgres@%s:%s/stocks_test?sslmode=disable", host, port.Port())
	})

	if pgErr != nil {
		t.Fatalf("postgres container failed: %v", pgErr)
	}
	return pgDSN
}

func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
