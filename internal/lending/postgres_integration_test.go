//go:build integration

package lending

import (
	"context"
	"testing"

	"github.com/pgEdge/pgedge-ledgergen/internal/schema"
	"github.com/pgEdge/pgedge-ledgergen/internal/store"
	"github.com/pgEdge/pgedge-ledgergen/internal/testutil"
)

func TestGeneratorPostgres(t *testing.T) {
	s := testutil.PostgresStore(t, "lending")
	ctx := context.Background()

	g := NewGenerator(s, testConfig(42))
	if err := g.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for table, want := range g.Counts() {
		got, err := store.CountRows(ctx, s, table)
		if err != nil {
			t.Fatalf("CountRows(%s) failed: %v", table, err)
		}
		if got != want {
			t.Errorf("%s: expected %d rows, got %d", table, want, got)
		}
	}

	if n := count(t, s, "SELECT count(*) FROM fact_loan_repayment WHERE due_date > '2024-01-01'"); n != 0 {
		t.Errorf("Expected no installments after the as-of date, got %d", n)
	}

	// A second run with the same seed replaces the data
	again := NewGenerator(s, testConfig(42))
	if err := again.Run(ctx); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	got, err := store.CountRows(ctx, s, schema.TableRepayment)
	if err != nil {
		t.Fatalf("CountRows failed: %v", err)
	}
	if got != g.Counts()[schema.TableRepayment] {
		t.Errorf("Expected a reseed to reproduce %d repayments, got %d",
			g.Counts()[schema.TableRepayment], got)
	}
}
