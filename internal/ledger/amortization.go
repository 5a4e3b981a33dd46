package ledger

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds v to cents, half away from zero.
func Round2(v float64) float64 {
	return RoundTo(v, 2)
}

// RoundTo rounds v to places decimal places, half away from zero.
func RoundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// MonthlyRate converts an annual percentage rate into a monthly fraction.
func MonthlyRate(annualPct float64) float64 {
	return annualPct / 1200
}

func validate(principal, annualPct float64, term int32) error {
	switch {
	case principal <= 0 || math.IsNaN(principal):
		return ErrInvalidPrincipal
	case annualPct <= 0 || math.IsNaN(annualPct):
		return ErrInvalidRate
	case term <= 0:
		return ErrInvalidTerm
	}
	return nil
}

// EMI returns the level monthly installment for principal at annualPct over
// term months, rounded to cents.
func EMI(principal, annualPct float64, term int32) (float64, error) {
	if err := validate(principal, annualPct, term); err != nil {
		return 0, err
	}
	m := MonthlyRate(annualPct)
	f := math.Pow(1+m, float64(term))
	emi := Round2(principal * m * f / (f - 1))
	if emi <= 0 {
		return 0, fmt.Errorf("%w: installment of %v over %d months rounds to zero",
			ErrInvalidPrincipal, principal, term)
	}
	return emi, nil
}

// Split returns the interest and principal components of one installment
// given the outstanding principal before it.
func Split(emi, outstanding, monthlyRate float64) (interest, principal float64) {
	interest = Round2(outstanding * monthlyRate)
	principal = Round2(math.Min(emi-interest, outstanding))
	return interest, principal
}

// Schedule returns the full-payment schedule. Every figure is rounded at the
// step it is computed. The last installment absorbs the rounding residual so
// the outstanding principal ends at exactly zero.
func Schedule(principal, annualPct float64, term int32) ([]Installment, error) {
	emi, err := EMI(principal, annualPct, term)
	if err != nil {
		return nil, err
	}
	m := MonthlyRate(annualPct)

	out := make([]Installment, 0, term)
	outstanding := principal
	for i := int32(1); i <= term; i++ {
		interest, prin := Split(emi, outstanding, m)
		payment := emi
		if i == term {
			prin = Round2(outstanding)
			payment = Round2(prin + interest)
		}
		outstanding = math.Max(0, Round2(outstanding-prin))
		out = append(out, Installment{
			Number:      i,
			EMI:         payment,
			Principal:   prin,
			Interest:    interest,
			Outstanding: outstanding,
		})
	}
	return out, nil
}
