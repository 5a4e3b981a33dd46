package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pgEdge/pgedge-ledgergen/internal/logging"
	"github.com/pgEdge/pgedge-ledgergen/internal/schema"
)

// DateLayout is how SQLite stores Date columns.
const DateLayout = "2006-01-02"

// SQLite is a SQLite store. Every batch is written in its own transaction.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite database. Pass ":memory:" for an
// in-memory database.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	logging.Info().
		Str("driver", string(schema.SQLite)).
		Str("database", dsn).
		Msg("Connected to database")

	return &SQLite{db: db}, nil
}

// Exec implements Store.
func (s *SQLite) Exec(ctx context.Context, stmt string) error {
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

// InsertRows inserts rows in one transaction.
func (s *SQLite) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = schema.QuoteIdent(schema.SQLite, col)
		marks[i] = "?"
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		schema.QuoteIdent(schema.SQLite, table), strings.Join(quoted, ", "), strings.Join(marks, ", "))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	for i, row := range rows {
		for j, v := range row {
			nv, err := sqliteValue(v)
			if err != nil {
				return 0, fmt.Errorf("row %d column %s: %w", i, columns[j], err)
			}
			args[j] = nv
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// Query implements Store. Text values that hold dates can be scanned into
// *time.Time, and integers into any sized integer.
func (s *SQLite) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &sqliteRows{rows: rows}, nil
}

// Dialect implements Store.
func (s *SQLite) Dialect() schema.Dialect {
	return schema.SQLite
}

// Close implements Store.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// sqliteValue converts a generator value into something SQLite stores
// natively: dates become YYYY-MM-DD text, booleans 0/1, string slices JSON.
func sqliteValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		v = rv.Elem().Interface()
	}

	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(DateLayout), nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case []string:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case int64, float64, string, []byte:
		return x, nil
	case float32:
		return float64(x), nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

type sqliteRows struct {
	rows *sql.Rows
}

func (r *sqliteRows) Next() bool   { return r.rows.Next() }
func (r *sqliteRows) Err() error   { return r.rows.Err() }
func (r *sqliteRows) Close() error { return r.rows.Close() }

func (r *sqliteRows) Scan(dest ...any) error {
	raw := make([]any, len(dest))
	ptrs := make([]any, len(dest))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return err
	}
	for i, d := range dest {
		if err := assignSQLite(d, raw[i]); err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
	}
	return nil
}

func assignSQLite(dest, src any) error {
	if b, ok := src.([]byte); ok {
		src = string(b)
	}

	switch d := dest.(type) {
	case *any:
		*d = src
		return nil
	case *string:
		switch s := src.(type) {
		case string:
			*d = s
		case nil:
			*d = ""
		default:
			*d = fmt.Sprint(s)
		}
		return nil
	case *time.Time:
		switch s := src.(type) {
		case time.Time:
			*d = s
			return nil
		case string:
			t, err := time.Parse(DateLayout, s[:min(len(s), len(DateLayout))])
			if err != nil {
				return err
			}
			*d = t
			return nil
		}
	case *float64:
		switch s := src.(type) {
		case float64:
			*d = s
			return nil
		case int64:
			*d = float64(s)
			return nil
		case string:
			f, err := strconv.ParseFloat(s, 64)
			*d = f
			return err
		}
	case *bool:
		if s, ok := src.(int64); ok {
			*d = s != 0
			return nil
		}
	case *int64, *int32, *int16, *int8, *int:
		n, ok := src.(int64)
		if !ok {
			break
		}
		rv := reflect.ValueOf(d).Elem()
		if rv.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %s", n, rv.Type())
		}
		rv.SetInt(n)
		return nil
	}
	return fmt.Errorf("cannot scan %T into %T", src, dest)
}
