// Package testdeps starts the containers integration tests run against.
// Tests are skipped when no container runtime is reachable.
package testdeps

import (
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcValKey "github.com/testcontainers/testcontainers-go/modules/valkey"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	ValkeyImage   = "docker.io/valkey/valkey:8-alpine"
	PostgresImage = "docker.io/postgres:17-alpine"

	postgresUser     = "msgcacheperf"
	postgresPassword = "secret"
	postgresDatabase = "l10n"

	startupTimeout = 90 * time.Second
)

// Valkey starts a Valkey server and returns its redis:// connection string.
func Valkey(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := t.Context()
	container, err := tcValKey.Run(ctx, ValkeyImage)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("start valkey: %v", err)
	}

	dsn, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("valkey connection string: %v", err)
	}
	return dsn
}

// Postgres starts a PostgreSQL server and returns its connection string.
func Postgres(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := t.Context()
	container, err := tcPostgres.Run(ctx, PostgresImage,
		tcPostgres.WithDatabase(postgresDatabase),
		tcPostgres.WithUsername(postgresUser),
		tcPostgres.WithPassword(postgresPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(startupTimeout)),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}
	return dsn
}
