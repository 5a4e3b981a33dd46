package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pgEdge/pgedge-ledgergen/internal/datagen"
	"github.com/pgEdge/pgedge-ledgergen/internal/logging"
	"github.com/pgEdge/pgedge-ledgergen/internal/schema"
	"github.com/pgEdge/pgedge-ledgergen/internal/store"
)

// Source yields the cleaned rows of an input file.
type Source interface {
	Columns() []Column

	// Next returns the next row, or io.EOF when the input is exhausted.
	Next() ([]any, error)

	// Skipped returns the number of rows dropped for an empty key.
	Skipped() int
}

// Format is an input file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("cannot tell the format of %s (want .csv or .json)", path)
}

// NewSource creates a source of the given format over r.
func NewSource(format Format, r io.Reader, opts Options) (Source, error) {
	switch format {
	case FormatCSV:
		return NewCSVSource(r, opts)
	case FormatJSON:
		return NewJSONSource(r, opts)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// TableName derives a table name from a file path when none is given.
func TableName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := strings.ToLower(SanitizeName(strings.ReplaceAll(base, "-", "_")))
	if name == "" {
		return "imported"
	}
	return name
}

// Result summarizes a load.
type Result struct {
	Table    schema.Table
	Inserted int64
	Skipped  int
}

// LoadFile loads the CSV or JSON file at path into a new table.
func LoadFile(ctx context.Context, s store.Store, path string, opts Options, batch datagen.BatchInsertConfig, drop bool) (Result, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return Result{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	if opts.Table == "" {
		opts.Table = TableName(path)
	}

	src, err := NewSource(format, bufio.NewReader(f), opts)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}
	return Load(ctx, s, src, opts.Table, batch, drop)
}

// Load creates table from the source's columns and inserts its rows.
func Load(ctx context.Context, s store.Store, src Source, table string, batch datagen.BatchInsertConfig, drop bool) (Result, error) {
	columns := src.Columns()
	if len(columns) == 0 {
		return Result{}, errors.New("input has no columns")
	}
	t := buildTable(table, columns)

	for _, c := range columns {
		logging.Debug().
			Str("table", table).
			Str("column", c.Name).
			Str("type", c.Type.String()).
			Msg("Detected column type")
	}

	if err := store.CreateTables(ctx, s, []schema.Table{t}, drop); err != nil {
		return Result{}, err
	}

	b := datagen.NewBatcher(s, t.Name, t.ColumnNames(), batch, 0)
	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("read row: %w", err)
		}
		if err := b.Add(ctx, row); err != nil {
			return Result{}, err
		}
	}
	if err := b.Close(ctx); err != nil {
		return Result{}, err
	}

	res := Result{Table: t, Inserted: b.Inserted(), Skipped: src.Skipped()}
	logging.Info().
		Str("table", table).
		Int64("rows", res.Inserted).
		Int("skipped", res.Skipped).
		Msg("Import complete")
	return res, nil
}
