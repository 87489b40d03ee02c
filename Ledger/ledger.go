package Ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"Kopa/Models"
)

// Policy carries the configurable business knobs the ledger needs.
type Policy struct {
	// LoanDurationDays is the standard repayment window used when a loan
	// does not specify its own.
	LoanDurationDays int

	// DailyPenaltyRate is the percentage applied once per day to the
	// shortfall of every overdue schedule row.
	DailyPenaltyRate decimal.Decimal

	// DefaultThresholdDays is how many missed schedule days a loan can
	// accumulate before it is marked defaulted.
	DefaultThresholdDays int
}

// Ledger owns every mutation of loan, payment, deposit and customer
// balances. No other code path touches amount_paid, balance,
// total_borrowed or total_paid.
type Ledger struct {
	DB     *gorm.DB
	Policy Policy

	locks *entityLocks
}

func NewLedger(db *gorm.DB, policy Policy) *Ledger {
	if policy.LoanDurationDays <= 0 {
		policy.LoanDurationDays = 90
	}
	if policy.DefaultThresholdDays <= 0 {
		policy.DefaultThresholdDays = 14
	}
	if !policy.DailyPenaltyRate.GreaterThan(decimal.Zero) {
		policy.DailyPenaltyRate = decimal.NewFromInt(1)
	}
	return &Ledger{
		DB:     db,
		Policy: policy,
		locks:  newEntityLocks(),
	}
}

// dateOnly truncates a timestamp to its calendar day.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Models.ErrNotFound
	}
	return err
}
