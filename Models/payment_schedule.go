package Models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SchedulePending = "pending"
	SchedulePartial = "partial"
	SchedulePaid    = "paid"
	ScheduleOverdue = "overdue"
)

// PaymentSchedule is one expected-payment day of a loan, generated once at
// disbursement and restated daily by the penalty job.
type PaymentSchedule struct {
	gorm.Model
	LoanID         uint            `json:"loan_id" gorm:"not null;index"`
	DayNumber      int             `json:"day_number" gorm:"not null"`
	DueDate        time.Time       `json:"due_date" gorm:"not null;index"`
	ExpectedAmount decimal.Decimal `json:"expected_amount" gorm:"type:decimal(12,2);not null"`
	PaidAmount     decimal.Decimal `json:"paid_amount" gorm:"type:decimal(12,2);default:0"`
	PenaltyAmount  decimal.Decimal `json:"penalty_amount" gorm:"type:decimal(12,2);default:0"`
	Status         string          `json:"status" gorm:"size:20;default:pending;index"`

	// Guard against penalizing the same row twice in one day.
	PenaltyApplied     bool       `json:"penalty_applied" gorm:"default:false"`
	PenaltyAppliedDate *time.Time `json:"penalty_applied_date"`
}

// Shortfall is what is still owed on this schedule day.
func (s *PaymentSchedule) Shortfall() decimal.Decimal {
	return s.ExpectedAmount.Sub(s.PaidAmount)
}

// Restate recomputes the row status from paid_amount and the reference day.
func (s *PaymentSchedule) Restate(today time.Time) {
	switch {
	case s.PaidAmount.GreaterThanOrEqual(s.ExpectedAmount):
		s.Status = SchedulePaid
	case s.PaidAmount.GreaterThan(decimal.Zero):
		s.Status = SchedulePartial
	case s.DueDate.Before(today):
		s.Status = ScheduleOverdue
	default:
		s.Status = SchedulePending
	}
}
