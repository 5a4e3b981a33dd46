package ledger

import (
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-ledgergen/internal/datagen"
)

// Outcome describes how an installment with a given payment status is
// recorded.
type Outcome struct {
	// Paid reports whether a payment date is recorded. The date is the due
	// date shifted by U[PayOffsetMin, PayOffsetMax] days.
	Paid         bool
	PayOffsetMin int
	PayOffsetMax int

	// PenaltyRate is the penalty as a fraction of the EMI.
	PenaltyRate float64

	// The collected fraction of principal and interest is drawn from
	// U[CollectedMin, CollectedMax]; the remainder is pending.
	CollectedMin float64
	CollectedMax float64

	PaymentMode  bool
	BounceReason bool

	// Overdue installments carry days overdue in U[OverdueMin, OverdueMax]
	// and a collection agent in U[1, AgentMax] with probability AgentChance.
	Overdue     bool
	OverdueMin  int
	OverdueMax  int
	AgentChance float64
	AgentMax    int
}

// OutcomePolicy maps each payment status to its outcome.
type OutcomePolicy map[PaymentStatus]Outcome

// DefaultOutcomes returns the built-in outcome policy.
func DefaultOutcomes() OutcomePolicy {
	overdue := Outcome{
		PenaltyRate: 0.05,
		Overdue:     true,
		OverdueMin:  30,
		OverdueMax:  180,
		AgentChance: 0.7,
		AgentMax:    50,
	}
	return OutcomePolicy{
		PaymentPaid: {
			Paid: true, PayOffsetMin: -5, PayOffsetMax: 2,
			CollectedMin: 1, CollectedMax: 1,
			PaymentMode: true,
		},
		PaymentBounced: {
			Paid: true, PayOffsetMin: 1, PayOffsetMax: 5,
			PenaltyRate:  0.02,
			BounceReason: true,
		},
		PaymentPartial: {
			Paid: true, PayOffsetMin: 1, PayOffsetMax: 10,
			PenaltyRate:  0.01,
			CollectedMin: 0.4, CollectedMax: 0.8,
			PaymentMode: true,
		},
		PaymentOverdue:   overdue,
		PaymentDefaulted: overdue,
	}
}

// PaymentModes are the channels a collected installment is paid through.
var PaymentModes = []string{"UPI", "NEFT", "Auto-Debit", "Cash", "Cheque"}

// BounceReasons are the reasons recorded against bounced installments.
var BounceReasons = []string{"Insufficient Funds", "Account Closed", "Payment Stopped", "Technical Error"}

// Simulator produces repayment histories for loans.
type Simulator struct {
	sampler  *Sampler
	outcomes OutcomePolicy
	faker    *datagen.Faker
}

// NewSimulator creates a simulator. Nil weights or outcomes select the
// defaults.
func NewSimulator(faker *datagen.Faker, weights WeightTable, outcomes OutcomePolicy) *Simulator {
	if weights == nil {
		weights = DefaultWeights()
	}
	if outcomes == nil {
		outcomes = DefaultOutcomes()
	}
	return &Simulator{
		sampler:  NewSampler(weights, faker),
		outcomes: outcomes,
		faker:    faker,
	}
}

// Simulate returns the installments of loan falling due on or before asOf.
// Closed loans have no repayment history.
func (s *Simulator) Simulate(loan Loan, asOf time.Time) ([]Repayment, error) {
	if loan.Status == LoanClosed {
		return nil, nil
	}
	emi, err := EMI(loan.Principal, loan.AnnualRate, loan.TermMonths)
	if err != nil {
		return nil, fmt.Errorf("loan %d: %w", loan.ID, err)
	}
	m := MonthlyRate(loan.AnnualRate)
	asOf = datagen.TruncateDay(asOf)

	var out []Repayment
	outstanding := loan.Principal
	for i := int32(1); i <= loan.TermMonths; i++ {
		due := DueDate(loan.StartDate, i)
		if due.After(asOf) {
			break
		}

		interest, principal := Split(emi, outstanding, m)
		status, err := s.sampler.Draw(loan.Status, loan.Tier)
		if err != nil {
			return nil, fmt.Errorf("loan %d: %w", loan.ID, err)
		}
		r, err := s.apply(status, due, emi, principal, interest)
		if err != nil {
			return nil, fmt.Errorf("loan %d: %w", loan.ID, err)
		}
		r.LoanID = loan.ID
		r.CustomerID = loan.CustomerID
		r.Number = i
		out = append(out, r)

		if status.Collects() {
			outstanding -= principal - r.PendingPrincipal
		}
	}
	return out, nil
}

func (s *Simulator) apply(status PaymentStatus, due time.Time, emi, principal, interest float64) (Repayment, error) {
	o, ok := s.outcomes[status]
	if !ok {
		return Repayment{}, fmt.Errorf("%w: no outcome for payment status %s", ErrUnknownStatus, status)
	}

	r := Repayment{
		DueDate:   due,
		EMI:       emi,
		Principal: principal,
		Interest:  interest,
		Penalty:   Round2(emi * o.PenaltyRate),
		Status:    status,
	}

	if o.Paid {
		r.PaymentDate = datagen.Ptr(due.AddDate(0, 0, s.faker.Int(o.PayOffsetMin, o.PayOffsetMax)))
	}

	collected := s.faker.Float64(o.CollectedMin, o.CollectedMax)
	r.PendingPrincipal = Round2(principal * (1 - collected))
	r.PendingInterest = Round2(interest * (1 - collected))

	if o.PaymentMode {
		r.PaymentMode = datagen.Ptr(datagen.Choose(s.faker, PaymentModes))
	}
	if o.BounceReason {
		r.BounceReason = datagen.Ptr(datagen.Choose(s.faker, BounceReasons))
	}
	if o.Overdue {
		r.DaysOverdue = int32(s.faker.Int(o.OverdueMin, o.OverdueMax))
		if s.faker.Chance(o.AgentChance) {
			r.CollectionAgentID = datagen.Ptr(int32(s.faker.Int(1, o.AgentMax)))
		}
	}
	return r, nil
}
