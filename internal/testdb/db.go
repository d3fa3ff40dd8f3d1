package testdb

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/policyhub-api/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 5 * time.Second

// urlEnvVars are checked in order for the test database URL.
var urlEnvVars = []string{"POLICYHUB_TEST_DB_URL", "DATABASE_URL"}

// GetTestDatabaseURL returns the first non-empty test database URL, or "".
func GetTestDatabaseURL() string {
	for _, name := range urlEnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// IsIntegrationTestEnvironment reports whether a test database is configured.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}

// GetTestDBWithT opens the test database and migrates it to the latest
// schema. The test is skipped when no database is configured. The
// connection is closed when the test finishes.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skip("POLICYHUB_TEST_DB_URL or DATABASE_URL not set - skipping integration test")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "Failed to open database connection")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close database connection: %v", err)
		}
	})

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "Database ping failed")

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, postgres.Migrate(db, "up", quiet), "Failed to run migrations")

	return db
}

// WithTx executes fn within a transaction that is always rolled back, so
// tests never see each other's rows.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "Failed to begin transaction")

	defer func() {
		err := tx.Rollback()
		// sql.ErrTxDone is expected if fn already ended the transaction
		if err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("Warning: failed to rollback transaction: %v", err)
		}
	}()

	fn(t, tx)
}
