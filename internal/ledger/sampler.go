package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pgEdge/pgedge-ledgergen/internal/datagen"
)

// Weight is the relative likelihood of one payment status.
type Weight struct {
	Status PaymentStatus
	Weight int
}

// WeightKey selects a row of the weight table. An empty Tier matches every
// tier of the loan status.
type WeightKey struct {
	Status LoanStatus
	Tier   RiskTier
}

// String formats the key the way configuration files spell it.
func (k WeightKey) String() string {
	if k.Tier == "" {
		return strings.ToLower(string(k.Status))
	}
	return strings.ToLower(string(k.Status)) + "/" + strings.ToLower(string(k.Tier))
}

// ParseWeightKey parses "active/high" or "delinquent".
func ParseWeightKey(s string) (WeightKey, error) {
	statusPart, tierPart, hasTier := strings.Cut(s, "/")
	status, err := ParseLoanStatus(statusPart)
	if err != nil {
		return WeightKey{}, err
	}
	key := WeightKey{Status: status}
	if hasTier {
		tier, err := ParseRiskTier(tierPart)
		if err != nil {
			return WeightKey{}, err
		}
		key.Tier = tier
	}
	return key, nil
}

// WeightTable maps loan status and risk tier to payment status weights.
type WeightTable map[WeightKey][]Weight

// DefaultWeights returns the built-in repayment weights.
func DefaultWeights() WeightTable {
	return WeightTable{
		{LoanActive, RiskHigh}: {
			{PaymentPaid, 70}, {PaymentBounced, 20}, {PaymentPartial, 10},
		},
		{LoanActive, RiskMedium}: {
			{PaymentPaid, 80}, {PaymentBounced, 15}, {PaymentPartial, 5},
		},
		{LoanActive, RiskLow}: {
			{PaymentPaid, 90}, {PaymentBounced, 8}, {PaymentPartial, 2},
		},
		{Status: LoanDelinquent}: {
			{PaymentOverdue, 70}, {PaymentPartial, 30},
		},
		{Status: LoanDefaulted}: {
			{PaymentDefaulted, 100},
		},
	}
}

// With returns a copy of the table with the given rows replaced.
func (t WeightTable) With(overrides WeightTable) WeightTable {
	out := make(WeightTable, len(t)+len(overrides))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Lookup returns the weights for status and tier, falling back to the row
// that applies to every tier.
func (t WeightTable) Lookup(status LoanStatus, tier RiskTier) ([]Weight, bool) {
	if w, ok := t[WeightKey{status, tier}]; ok {
		return w, true
	}
	w, ok := t[WeightKey{Status: status}]
	return w, ok
}

// ParseWeightOverrides converts the configuration form
// {"active/high": {"paid": 60, "bounced": 30}} into table rows.
func ParseWeightOverrides(raw map[string]map[string]int) (WeightTable, error) {
	out := make(WeightTable, len(raw))
	for rawKey, rawWeights := range raw {
		key, err := ParseWeightKey(rawKey)
		if err != nil {
			return nil, fmt.Errorf("repayment weights %q: %w", rawKey, err)
		}
		if key.Status == LoanClosed {
			return nil, fmt.Errorf("repayment weights %q: closed loans have no repayments", rawKey)
		}

		total := 0
		row := make([]Weight, 0, len(rawWeights))
		for name, w := range rawWeights {
			status, err := ParsePaymentStatus(name)
			if err != nil {
				return nil, fmt.Errorf("repayment weights %q: %w", rawKey, err)
			}
			if w < 0 {
				return nil, fmt.Errorf("repayment weights %q: negative weight for %s", rawKey, status)
			}
			total += w
			row = append(row, Weight{status, w})
		}
		if total == 0 {
			return nil, fmt.Errorf("repayment weights %q: weights sum to zero", rawKey)
		}
		sort.Slice(row, func(i, j int) bool {
			return statusOrder(row[i].Status) < statusOrder(row[j].Status)
		})
		out[key] = row
	}
	return out, nil
}

func statusOrder(p PaymentStatus) int {
	for i, s := range PaymentStatuses() {
		if s == p {
			return i
		}
	}
	return len(PaymentStatuses())
}

// Sampler draws payment statuses from a weight table.
type Sampler struct {
	weights WeightTable
	faker   *datagen.Faker
}

// NewSampler creates a sampler over weights using faker as the random source.
func NewSampler(weights WeightTable, faker *datagen.Faker) *Sampler {
	return &Sampler{weights: weights, faker: faker}
}

// Draw returns one payment status for a loan in the given status and tier.
func (s *Sampler) Draw(status LoanStatus, tier RiskTier) (PaymentStatus, error) {
	if _, err := ParseRiskTier(string(tier)); err != nil {
		return "", err
	}
	row, ok := s.weights.Lookup(status, tier)
	if !ok || len(row) == 0 {
		return "", fmt.Errorf("%w: %s/%s", ErrNoWeights, status, tier)
	}

	statuses := make([]PaymentStatus, len(row))
	weights := make([]int, len(row))
	for i, w := range row {
		statuses[i] = w.Status
		weights[i] = w.Weight
	}
	return datagen.ChooseWeighted(s.faker, statuses, weights), nil
}
