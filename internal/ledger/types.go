//-------------------------------------------------------------------------
//
// pgEdge Ledger Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package ledger implements loan amortization and the simulation of
// repayment events. It has no database dependency.
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors returned by the ledger package.
var (
	ErrInvalidRate      = errors.New("interest rate must be greater than zero")
	ErrInvalidTerm      = errors.New("term must be at least one month")
	ErrInvalidPrincipal = errors.New("principal must be greater than zero")
	ErrNoWeights        = errors.New("no repayment weights for loan")
	ErrUnknownTier      = errors.New("unknown risk tier")
	ErrUnknownStatus    = errors.New("unknown status")
)

// LoanStatus is the lifecycle state of a loan account.
type LoanStatus string

// Loan statuses.
const (
	LoanActive     LoanStatus = "Active"
	LoanDelinquent LoanStatus = "Delinquent"
	LoanDefaulted  LoanStatus = "Defaulted"
	LoanClosed     LoanStatus = "Closed"
)

// LoanStatuses lists all loan statuses.
func LoanStatuses() []LoanStatus {
	return []LoanStatus{LoanActive, LoanClosed, LoanDefaulted, LoanDelinquent}
}

// ParseLoanStatus parses a loan status case-insensitively.
func ParseLoanStatus(s string) (LoanStatus, error) {
	for _, st := range LoanStatuses() {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: loan status %q", ErrUnknownStatus, s)
}

// RiskTier is a customer's credit risk classification.
type RiskTier string

// Risk tiers.
const (
	RiskLow    RiskTier = "Low"
	RiskMedium RiskTier = "Medium"
	RiskHigh   RiskTier = "High"
)

// RiskTiers lists all tiers.
func RiskTiers() []RiskTier {
	return []RiskTier{RiskLow, RiskMedium, RiskHigh}
}

// ParseRiskTier parses a risk tier case-insensitively.
func ParseRiskTier(s string) (RiskTier, error) {
	for _, t := range RiskTiers() {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

// PaymentStatus is the outcome of one installment.
type PaymentStatus string

// Payment statuses.
const (
	PaymentPaid      PaymentStatus = "Paid"
	PaymentBounced   PaymentStatus = "Bounced"
	PaymentPartial   PaymentStatus = "Partial"
	PaymentOverdue   PaymentStatus = "Overdue"
	PaymentDefaulted PaymentStatus = "Defaulted"
)

// PaymentStatuses lists all payment statuses.
func PaymentStatuses() []PaymentStatus {
	return []PaymentStatus{PaymentPaid, PaymentBounced, PaymentPartial, PaymentOverdue, PaymentDefaulted}
}

// ParsePaymentStatus parses a payment status case-insensitively.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	for _, p := range PaymentStatuses() {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: payment status %q", ErrUnknownStatus, s)
}

// Collects reports whether principal is collected for the status.
func (p PaymentStatus) Collects() bool {
	return p == PaymentPaid || p == PaymentPartial
}

// Loan is the input to repayment simulation.
type Loan struct {
	ID         int32
	CustomerID int32
	Principal  float64
	// AnnualRate is a percentage, e.g. 7.5.
	AnnualRate float64
	TermMonths int32
	StartDate  time.Time
	Status     LoanStatus
	Tier       RiskTier
}

// Repayment is one simulated installment.
type Repayment struct {
	LoanID            int32
	CustomerID        int32
	Number            int32
	DueDate           time.Time
	PaymentDate       *time.Time
	EMI               float64
	Principal         float64
	Interest          float64
	Penalty           float64
	Status            PaymentStatus
	PaymentMode       *string
	PendingPrincipal  float64
	PendingInterest   float64
	DaysOverdue       int32
	BounceReason      *string
	CollectionAgentID *int32
}

// Installment is one period of a full-payment amortization schedule.
type Installment struct {
	Number      int32
	EMI         float64
	Principal   float64
	Interest    float64
	Outstanding float64
}

// DaysPerPeriod is the spacing between installment due dates.
const DaysPerPeriod = 30

// DueDate returns the due date of installment i of a loan started on start.
func DueDate(start time.Time, i int32) time.Time {
	return start.AddDate(0, 0, DaysPerPeriod*int(i))
}
