package database

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDatabaseURLEnv names the variable that enables integration tests.
const TestDatabaseURLEnv = "TEST_DATABASE_URL"

var (
	sharedPool     *pgxpool.Pool
	sharedPoolOnce sync.Once
	sharedPoolErr  error
)

func testDatabaseURL(t *testing.T) string {
	t.Helper()

	dbURL := os.Getenv(TestDatabaseURLEnv)
	if dbURL == "" {
		t.Skip(TestDatabaseURLEnv + " not set, skipping integration test")
	}
	return dbURL
}

// TestDB opens a dedicated, unmigrated pool closed when the test ends.
func TestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := Connect(t.Context(), testDatabaseURL(t))
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}

// TestPool returns the migrated pool shared by every test in the binary.
func TestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := testDatabaseURL(t)
	sharedPoolOnce.Do(func() {
		ctx := context.Background()
		sharedPool, sharedPoolErr = Connect(ctx, dbURL)
		if sharedPoolErr != nil {
			return
		}
		sharedPoolErr = RunMigrations(ctx, sharedPool)
	})

	if sharedPoolErr != nil {
		t.Fatalf("failed to set up test database: %v", sharedPoolErr)
	}
	return sharedPool
}

// TestTx begins a transaction on the shared pool and rolls it back when the
// test ends, so user rows never leak between tests.
func TestTx(t *testing.T) PGXDB {
	t.Helper()

	tx, err := TestPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return tx
}
