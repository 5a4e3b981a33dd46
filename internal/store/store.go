// Package store provides the database sinks the generator writes to.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgEdge/pgedge-ledgergen/internal/schema"
)

// Rows is a forward-only result set.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Store is a database the generator can create tables in, bulk load and
// read back from.
type Store interface {
	// Exec runs a statement that returns no rows, typically DDL.
	Exec(ctx context.Context, stmt string) error

	// InsertRows bulk inserts rows into table. Each row holds one value per
	// column, in column order. Nil and nil pointers are stored as NULL.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Query runs a query. Placeholders follow the store's dialect, see
	// Placeholder.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// Dialect reports the SQL dialect used to render DDL.
	Dialect() schema.Dialect

	Close() error
}

// Options selects and configures a store.
type Options struct {
	Driver     string
	Connection string

	// Password, if set, overrides the password in Connection.
	Password string
}

// Open connects to the store selected by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	dialect, err := schema.ParseDialect(opts.Driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.Connection) == "" {
		return nil, fmt.Errorf("%s: connection string is required", dialect)
	}

	switch dialect {
	case schema.Postgres:
		return OpenPostgres(ctx, opts.Connection, opts.Password)
	case schema.ClickHouse:
		return OpenClickHouse(ctx, opts.Connection, opts.Password)
	default:
		return OpenSQLite(ctx, opts.Connection)
	}
}

// Placeholder returns the bind parameter for the n-th (1-based) argument.
func Placeholder(d schema.Dialect, n int) string {
	if d == schema.Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// CreateTables drops (when drop is set) and creates tables in order.
func CreateTables(ctx context.Context, s Store, tables []schema.Table, drop bool) error {
	d := s.Dialect()
	if drop {
		for i := len(tables) - 1; i >= 0; i-- {
			if err := s.Exec(ctx, schema.DropTableSQL(d, tables[i].Name)); err != nil {
				return fmt.Errorf("failed to drop %s: %w", tables[i].Name, err)
			}
		}
	}
	for _, t := range tables {
		if err := s.Exec(ctx, schema.CreateTableSQL(d, t)); err != nil {
			return fmt.Errorf("failed to create %s: %w", t.Name, err)
		}
	}
	return nil
}

// CountRows returns the number of rows in table.
func CountRows(ctx context.Context, s Store, table string) (int64, error) {
	d := s.Dialect()
	countExpr := "count(*)"
	if d == schema.ClickHouse {
		countExpr = "toInt64(count())"
	}
	return scanInt64(ctx, s, fmt.Sprintf("SELECT %s FROM %s", countExpr, schema.QuoteIdent(d, table)))
}

// TableExists reports whether table exists in the current database.
func TableExists(ctx context.Context, s Store, table string) (bool, error) {
	d := s.Dialect()
	var query string
	switch d {
	case schema.Postgres:
		query = "SELECT count(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1"
	case schema.ClickHouse:
		query = "SELECT toInt64(count()) FROM system.tables WHERE database = currentDatabase() AND name = ?"
	default:
		query = "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	}
	n, err := scanInt64(ctx, s, query, table)
	return n > 0, err
}

func scanInt64(ctx context.Context, s Store, query string, args ...any) (int64, error) {
	rows, err := s.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	return n, rows.Err()
}
