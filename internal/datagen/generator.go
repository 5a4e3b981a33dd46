// Package datagen provides data generation utilities for pgedge-ledgergen.
package datagen

import (
	"context"
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-ledgergen/internal/logging"
)

// Inserter is the part of a store the batcher needs.
type Inserter interface {
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
}

// FlushObserver is notified after every successful batch insert.
type FlushObserver func(table string, rows int, elapsed time.Duration)

// BatchInsertConfig configures batch insert behavior.
type BatchInsertConfig struct {
	// BatchSize is the number of rows per batch insert.
	BatchSize int

	// ProgressInterval is how often to log progress (in rows).
	ProgressInterval int64

	// Observer, if set, is called after each flushed batch.
	Observer FlushObserver
}

// DefaultBatchConfig returns default batch insert configuration.
func DefaultBatchConfig() BatchInsertConfig {
	return BatchInsertConfig{
		BatchSize:        10000,
		ProgressInterval: 10000,
	}
}

// ProgressReporter tracks and reports data generation progress.
type ProgressReporter struct {
	tableName        string
	totalRows        int64
	currentRow       int64
	progressInterval int64
}

// NewProgressReporter creates a new progress reporter. A totalRows of zero
// means the total is not known up front.
func NewProgressReporter(tableName string, totalRows int64, interval int64) *ProgressReporter {
	return &ProgressReporter{
		tableName:        tableName,
		totalRows:        totalRows,
		progressInterval: max(1, interval),
	}
}

// Update updates the progress and logs if necessary.
func (p *ProgressReporter) Update(rowsInserted int64) {
	oldRow := p.currentRow
	p.currentRow += rowsInserted

	if p.currentRow/p.progressInterval > oldRow/p.progressInterval {
		event := logging.Info().
			Str("table", p.tableName).
			Int64("rows", p.currentRow)
		if p.totalRows > 0 {
			event = event.
				Int64("total", p.totalRows).
				Float64("percent", float64(p.currentRow)/float64(p.totalRows)*100)
		}
		event.Msg("Inserted rows")
	}
}

// Rows returns the number of rows reported so far.
func (p *ProgressReporter) Rows() int64 {
	return p.currentRow
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	logging.Info().
		Str("table", p.tableName).
		Int64("rows", p.currentRow).
		Msg("Table complete")
}

// Batcher accumulates rows for one table and inserts them in chunks of
// BatchSize.
type Batcher struct {
	ins      Inserter
	table    string
	columns  []string
	cfg      BatchInsertConfig
	rows     [][]any
	progress *ProgressReporter
}

// NewBatcher creates a batcher for table. expected is only used for progress
// percentages and may be zero.
func NewBatcher(ins Inserter, table string, columns []string, cfg BatchInsertConfig, expected int64) *Batcher {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultBatchConfig().BatchSize
	}
	return &Batcher{
		ins:      ins,
		table:    table,
		columns:  columns,
		cfg:      cfg,
		rows:     make([][]any, 0, cfg.BatchSize),
		progress: NewProgressReporter(table, expected, cfg.ProgressInterval),
	}
}

// Add appends a row and flushes when the batch is full.
func (b *Batcher) Add(ctx context.Context, row []any) error {
	if len(row) != len(b.columns) {
		return fmt.Errorf("%s: row has %d values, want %d", b.table, len(row), len(b.columns))
	}
	b.rows = append(b.rows, row)
	if len(b.rows) >= b.cfg.BatchSize {
		return b.Flush(ctx)
	}
	return nil
}

// Flush inserts any pending rows.
func (b *Batcher) Flush(ctx context.Context) error {
	if len(b.rows) == 0 {
		return nil
	}
	start := time.Now()
	n, err := b.ins.InsertRows(ctx, b.table, b.columns, b.rows)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", b.table, err)
	}
	if b.cfg.Observer != nil {
		b.cfg.Observer(b.table, int(n), time.Since(start))
	}
	b.progress.Update(n)
	b.rows = b.rows[:0]
	return nil
}

// Close flushes the remaining rows and logs completion.
func (b *Batcher) Close(ctx context.Context) error {
	if err := b.Flush(ctx); err != nil {
		return err
	}
	b.progress.Done()
	return nil
}

// Inserted returns the number of rows written so far.
func (b *Batcher) Inserted() int64 {
	return b.progress.Rows()
}
