package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/pgEdge/pgedge-ledgergen/internal/logging"
	"github.com/pgEdge/pgedge-ledgergen/internal/schema"
)

// ClickHouse is a ClickHouse store using the native protocol.
type ClickHouse struct {
	conn driver.Conn
}

// OpenClickHouse connects to ClickHouse. dsn uses the clickhouse:// form,
// e.g. clickhouse://default@localhost:9000/default.
func OpenClickHouse(ctx context.Context, dsn, password string) (*ClickHouse, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if password != "" {
		opts.Auth.Password = password
	}

	logging.Debug().
		Strs("addr", opts.Addr).
		Str("database", opts.Auth.Database).
		Msg("Connecting to database")

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.Info().
		Str("driver", string(schema.ClickHouse)).
		Strs("addr", opts.Addr).
		Str("database", opts.Auth.Database).
		Msg("Connected to database")

	return &ClickHouse{conn: conn}, nil
}

// Exec implements Store.
func (c *ClickHouse) Exec(ctx context.Context, stmt string) error {
	return c.conn.Exec(ctx, stmt)
}

// InsertRows sends rows as a single native batch.
func (c *ClickHouse) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = schema.QuoteIdent(schema.ClickHouse, col)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s)",
		schema.QuoteIdent(schema.ClickHouse, table), strings.Join(quoted, ", "))

	batch, err := c.conn.PrepareBatch(ctx, query)
	if err != nil {
		return 0, err
	}
	for i, row := range rows {
		if err := batch.Append(row...); err != nil {
			_ = batch.Abort()
			return 0, fmt.Errorf("row %d: %w", i, err)
		}
	}
	if err := batch.Send(); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// Query implements Store.
func (c *ClickHouse) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return c.conn.Query(ctx, sql, args...)
}

// Dialect implements Store.
func (c *ClickHouse) Dialect() schema.Dialect {
	return schema.ClickHouse
}

// Close implements Store.
func (c *ClickHouse) Close() error {
	return c.conn.Close()
}
