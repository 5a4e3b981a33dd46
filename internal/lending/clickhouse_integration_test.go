//go:build integration

package lending

import (
	"context"
	"testing"

	"github.com/pgEdge/pgedge-ledgergen/internal/schema"
	"github.com/pgEdge/pgedge-ledgergen/internal/store"
	"github.com/pgEdge/pgedge-ledgergen/internal/testutil"
)

func TestGeneratorClickHouse(t *testing.T) {
	s := testutil.ClickHouseStore(t, "lending")
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
	if g.Counts()[schema.TableRepayment] == 0 {
		t.Error("Expected repayments to be generated")
	}

	// count() is UInt64 in ClickHouse
	late := count(t, s, "SELECT toInt64(count()) FROM fact_loan_repayment WHERE due_date > '2024-01-01'")
	if late != 0 {
		t.Errorf("Expected no installments after the as-of date, got %d", late)
	}
}
