package lending

import (
	"context"
	"time"

	"github.com/pgEdge/pgedge-ledgergen/internal/ledger"
	"github.com/pgEdge/pgedge-ledgergen/internal/logging"
	"github.com/pgEdge/pgedge-ledgergen/internal/schema"
)

// GenerateRepayments simulates the installment history of every loan that is
// not closed and writes it to fact_loan_repayment.
func (g *Generator) GenerateRepayments(ctx context.Context) error {
	loans, err := loadRepayableLoans(ctx, g.store)
	if err != nil {
		return err
	}

	logging.Info().
		Int("loans", len(loans)).
		Str("as_of", g.cfg.AsOf.Format(time.DateOnly)).
		Msg("Generating loan repayments")

	b := g.newBatcher(schema.FactLoanRepayment, 0)
	repaymentID := int32(0)
	for _, loan := range loans {
		if err := ctx.Err(); err != nil {
			return err
		}
		reps, err := g.simulator.Simulate(loan, g.cfg.AsOf)
		if err != nil {
			return err
		}
		for _, r := range reps {
			repaymentID++
			if err := b.Add(ctx, repaymentRow(repaymentID, r)); err != nil {
				return err
			}
		}
	}
	return g.closeBatcher(ctx, b, schema.TableRepayment)
}

func repaymentRow(id int32, r ledger.Repayment) []any {
	return []any{
		id,
		r.LoanID,
		r.CustomerID,
		r.Number,
		r.DueDate,
		r.PaymentDate,
		r.EMI,
		r.Principal,
		r.Interest,
		r.Penalty,
		string(r.Status),
		r.PaymentMode,
		r.PendingPrincipal,
		r.PendingInterest,
		r.DaysOverdue,
		r.BounceReason,
		r.CollectionAgentID,
	}
}
