//-------------------------------------------------------------------------
//
// pgEdge Ledger Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package testutil provides helpers for tests that need a real database.
package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-ledgergen/internal/store"
)

const (
	// EnvTestConn overrides DefaultTestConnString.
	EnvTestConn = "PGEDGE_TEST_CONN"

	// DefaultTestConnString is the server used when PGEDGE_TEST_CONN is unset.
	DefaultTestConnString = "postgres://postgres@localhost:5432/postgres"

	// EnvTestClickHouse holds the DSN of a ClickHouse server for integration
	// tests. ClickHouse tests are skipped when it is unset.
	EnvTestClickHouse = "PGEDGE_TEST_CLICKHOUSE"

	// TestDBPrefix is the prefix for test databases.
	TestDBPrefix = "ledgergen_test_"
)

// PostgresAvailable returns the test server's connection string, or an
// empty string when it cannot be reached.
func PostgresAvailable() string {
	connStr := os.Getenv(EnvTestConn)
	if connStr == "" {
		connStr = DefaultTestConnString
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return ""
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return ""
	}

	return connStr
}

// SkipIfNoPostgres skips the test if PostgreSQL is not available.
func SkipIfNoPostgres(t *testing.T) string {
	t.Helper()
	connStr := PostgresAvailable()
	if connStr == "" {
		t.Skip("PostgreSQL not available, skipping integration test")
	}
	return connStr
}

// CreateTestDB creates a uniquely named database on the server behind
// baseConnStr and returns its name and connection string.
func CreateTestDB(t *testing.T, baseConnStr, label string) (string, string) {
	t.Helper()

	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		t.Fatalf("Failed to generate random database name: %v", err)
	}
	dbName := TestDBPrefix + label + "_" + hex.EncodeToString(suffix)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, baseConnStr)
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", dbName)); err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	// ConnString() does not reflect changes to ConnConfig.Database, so the
	// URL is rebuilt by hand.
	config, err := pgxpool.ParseConfig(baseConnStr)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}
	cc := config.ConnConfig
	userInfo := cc.User
	if cc.Password != "" {
		userInfo += ":" + cc.Password
	}
	return dbName, fmt.Sprintf("postgres://%s@%s:%d/%s", userInfo, cc.Host, cc.Port, dbName)
}

// DropTestDB terminates connections to dbName and drops it.
func DropTestDB(t *testing.T, baseConnStr, dbName string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, baseConnStr)
	if err != nil {
		t.Logf("Warning: Failed to connect to drop test database: %v", err)
		return
	}
	defer pool.Close()

	_, _ = pool.Exec(ctx, `
        SELECT pg_terminate_backend(pid)
        FROM pg_stat_activity
        WHERE datname = $1 AND pid <> pg_backend_pid()
    `, dbName)

	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName)); err != nil {
		t.Logf("Warning: Failed to drop test database: %v", err)
	}
}

// PostgresStore creates a throwaway database and returns a store connected
// to it. The database is dropped when the test ends, unless the test failed,
// in which case it is kept for diagnostics.
func PostgresStore(t *testing.T, label string) store.Store {
	t.Helper()

	baseConnStr := SkipIfNoPostgres(t)
	dbName, connStr := CreateTestDB(t, baseConnStr, label)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := store.OpenPostgres(ctx, connStr, "")
	if err != nil {
		DropTestDB(t, baseConnStr, dbName)
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
		if t.Failed() {
			t.Logf("Test failed - keeping database %s for diagnostics", dbName)
			return
		}
		DropTestDB(t, baseConnStr, dbName)
	})
	return s
}

// ClickHouseStore creates a throwaway database on the server named by
// PGEDGE_TEST_CLICKHOUSE and returns a store connected to it. The database
// is dropped when the test ends unless the test failed.
func ClickHouseStore(t *testing.T, label string) store.Store {
	t.Helper()

	baseDSN := os.Getenv(EnvTestClickHouse)
	if baseDSN == "" {
		t.Skip("PGEDGE_TEST_CLICKHOUSE not set, skipping ClickHouse integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := store.OpenClickHouse(ctx, baseDSN, "")
	if err != nil {
		t.Skipf("ClickHouse not available, skipping integration test: %v", err)
	}
	defer admin.Close()

	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		t.Fatalf("Failed to generate random database name: %v", err)
	}
	dbName := TestDBPrefix + label + "_" + hex.EncodeToString(suffix)
	if err := admin.Exec(ctx, "CREATE DATABASE "+dbName); err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	u, err := url.Parse(baseDSN)
	if err != nil {
		t.Fatalf("Failed to parse %s: %v", EnvTestClickHouse, err)
	}
	u.Path = "/" + dbName

	s, err := store.OpenClickHouse(ctx, u.String(), "")
	if err != nil {
		dropClickHouseDB(t, baseDSN, dbName)
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
		if t.Failed() {
			t.Logf("Test failed - keeping database %s for diagnostics", dbName)
			return
		}
		dropClickHouseDB(t, baseDSN, dbName)
	})
	return s
}

func dropClickHouseDB(t *testing.T, baseDSN, dbName string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := store.OpenClickHouse(ctx, baseDSN, "")
	if err != nil {
		t.Logf("Warning: Failed to connect to drop test database: %v", err)
		return
	}
	defer admin.Close()

	if err := admin.Exec(ctx, "DROP DATABASE IF EXISTS "+dbName); err != nil {
		t.Logf("Warning: Failed to drop test database: %v", err)
	}
}
