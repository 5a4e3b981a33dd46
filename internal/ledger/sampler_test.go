package ledger

import (
	"errors"
	"math"
	"testing"

	"github.com/pgEdge/pgedge-ledgergen/internal/datagen"
)

func TestDefaultWeightsCoverAllTiers(t *testing.T) {
	w := DefaultWeights()
	for _, status := range []LoanStatus{LoanActive, LoanDelinquent, LoanDefaulted} {
		for _, tier := range RiskTiers() {
			row, ok := w.Lookup(status, tier)
			if !ok || len(row) == 0 {
				t.Errorf("No weights for %s/%s", status, tier)
			}
		}
	}
	if _, ok := w.Lookup(LoanClosed, RiskLow); ok {
		t.Error("Closed loans should have no weights")
	}
}

func TestSamplerActiveHighDistribution(t *testing.T) {
	s := NewSampler(DefaultWeights(), datagen.NewFakerWithSeed(42))

	const draws = 10000
	counts := make(map[PaymentStatus]int)
	for i := 0; i < draws; i++ {
		st, err := s.Draw(LoanActive, RiskHigh)
		if err != nil {
			t.Fatalf("Draw returned error: %v", err)
		}
		counts[st]++
	}

	paid := float64(counts[PaymentPaid]) / draws
	if math.Abs(paid-0.70) > 0.02 {
		t.Errorf("Expected Paid fraction 0.70 +/- 0.02, got %v (%v)", paid, counts)
	}
	for st := range counts {
		if st != PaymentPaid && st != PaymentBounced && st != PaymentPartial {
			t.Errorf("Unexpected status for active loan: %s", st)
		}
	}
}

func TestSamplerDefaultedAlwaysDefaulted(t *testing.T) {
	s := NewSampler(DefaultWeights(), datagen.NewFakerWithSeed(1))
	for i := 0; i < 100; i++ {
		st, err := s.Draw(LoanDefaulted, RiskLow)
		if err != nil {
			t.Fatalf("Draw returned error: %v", err)
		}
		if st != PaymentDefaulted {
			t.Fatalf("Expected Defaulted, got %s", st)
		}
	}
}

func TestSamplerErrors(t *testing.T) {
	s := NewSampler(DefaultWeights(), datagen.NewFakerWithSeed(1))

	if _, err := s.Draw(LoanClosed, RiskLow); !errors.Is(err, ErrNoWeights) {
		t.Errorf("Expected ErrNoWeights, got %v", err)
	}
	if _, err := s.Draw(LoanActive, RiskTier("Extreme")); !errors.Is(err, ErrUnknownTier) {
		t.Errorf("Expected ErrUnknownTier, got %v", err)
	}
}

func TestParseWeightKey(t *testing.T) {
	tests := []struct {
		input   string
		want    WeightKey
		wantErr bool
	}{
		{"active/high", WeightKey{LoanActive, RiskHigh}, false},
		{"Delinquent", WeightKey{Status: LoanDelinquent}, false},
		{"defaulted/low", WeightKey{LoanDefaulted, RiskLow}, false},
		{"active/extreme", WeightKey{}, true},
		{"frozen", WeightKey{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWeightKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWeightKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	if s := (WeightKey{LoanActive, RiskMedium}).String(); s != "active/medium" {
		t.Errorf("Expected active/medium, got %s", s)
	}
}

func TestParseWeightOverrides(t *testing.T) {
	table, err := ParseWeightOverrides(map[string]map[string]int{
		"active/high": {"partial": 10, "paid": 60, "bounced": 30},
	})
	if err != nil {
		t.Fatalf("ParseWeightOverrides returned error: %v", err)
	}

	row := table[WeightKey{LoanActive, RiskHigh}]
	want := []Weight{{PaymentPaid, 60}, {PaymentBounced, 30}, {PaymentPartial, 10}}
	if len(row) != len(want) {
		t.Fatalf("Expected %d weights, got %d", len(want), len(row))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("Weight %d: expected %v, got %v", i, want[i], row[i])
		}
	}

	merged := DefaultWeights().With(table)
	if got, _ := merged.Lookup(LoanActive, RiskHigh); got[0].Weight != 60 {
		t.Errorf("Expected override to replace default row, got %v", got)
	}
	if got, _ := merged.Lookup(LoanActive, RiskLow); got[0].Weight != 90 {
		t.Errorf("Expected untouched row to keep default, got %v", got)
	}
	if got, _ := DefaultWeights().Lookup(LoanActive, RiskHigh); got[0].Weight != 70 {
		t.Error("With must not modify the receiver")
	}
}

func TestParseWeightOverridesErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]map[string]int
	}{
		{"bad key", map[string]map[string]int{"bogus": {"paid": 1}}},
		{"closed", map[string]map[string]int{"closed": {"paid": 1}}},
		{"bad status", map[string]map[string]int{"active": {"refunded": 1}}},
		{"negative", map[string]map[string]int{"active": {"paid": -1, "bounced": 5}}},
		{"zero sum", map[string]map[string]int{"active": {"paid": 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseWeightOverrides(tt.raw); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
