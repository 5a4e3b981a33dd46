package datagen

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordingInserter struct {
	batches [][][]any
	err     error
}

func (r *recordingInserter) InsertRows(_ context.Context, _ string, _ []string, rows [][]any) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	batch := make([][]any, len(rows))
	copy(batch, rows)
	r.batches = append(r.batches, batch)
	return int64(len(rows)), nil
}

func TestBatcherFlushesAtBatchSize(t *testing.T) {
	ins := &recordingInserter{}
	var observed int
	cfg := BatchInsertConfig{
		BatchSize:        3,
		ProgressInterval: 2,
		Observer: func(table string, rows int, _ time.Duration) {
			if table != "dim_region" {
				t.Errorf("Expected table dim_region, got %s", table)
			}
			observed += rows
		},
	}
	b := NewBatcher(ins, "dim_region", []string{"region_id", "region_name"}, cfg, 7)

	ctx := context.Background()
	for i := 0; i < 7; i++ {
		if err := b.Add(ctx, []any{int32(i), "x"}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	if len(ins.batches) != 2 {
		t.Errorf("Expected 2 full batches before Close, got %d", len(ins.batches))
	}
	if err := b.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(ins.batches) != 3 {
		t.Fatalf("Expected 3 batches after Close, got %d", len(ins.batches))
	}
	if len(ins.batches[2]) != 1 {
		t.Errorf("Expected final batch of 1 row, got %d", len(ins.batches[2]))
	}
	if b.Inserted() != 7 {
		t.Errorf("Expected 7 rows inserted, got %d", b.Inserted())
	}
	if observed != 7 {
		t.Errorf("Expected observer to see 7 rows, got %d", observed)
	}
}

func TestBatcherRejectsWrongWidth(t *testing.T) {
	b := NewBatcher(&recordingInserter{}, "t", []string{"a", "b"}, DefaultBatchConfig(), 0)
	if err := b.Add(context.Background(), []any{1}); err == nil {
		t.Error("Expected error for row with wrong number of values")
	}
}

func TestBatcherPropagatesInsertError(t *testing.T) {
	boom := errors.New("boom")
	b := NewBatcher(&recordingInserter{err: boom}, "t", []string{"a"},
		BatchInsertConfig{BatchSize: 1, ProgressInterval: 1}, 0)
	err := b.Add(context.Background(), []any{1})
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped insert error, got %v", err)
	}
}

func TestBatcherDefaultsBatchSize(t *testing.T) {
	b := NewBatcher(&recordingInserter{}, "t", []string{"a"}, BatchInsertConfig{}, 0)
	if b.cfg.BatchSize != DefaultBatchConfig().BatchSize {
		t.Errorf("Expected default batch size, got %d", b.cfg.BatchSize)
	}
}

func TestProgressReporterUnknownTotal(t *testing.T) {
	p := NewProgressReporter("fact_loan_repayment", 0, 0)
	p.Update(5)
	p.Update(5)
	if p.Rows() != 10 {
		t.Errorf("Expected 10 rows, got %d", p.Rows())
	}
	p.Done()
}
