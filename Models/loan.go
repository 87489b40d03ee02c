package Models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Loan statuses. A loan moves forward through the awaiting gates into
// pending, then approved/active/completed; rejected, cancelled and
// defaulted are terminal.
const (
	LoanAwaitingRegistrationFee = "awaiting_registration_fee"
	LoanAwaitingDeposit         = "awaiting_deposit"
	LoanPending                 = "pending"
	LoanApproved                = "approved"
	LoanActive                  = "active"
	LoanCompleted               = "completed"
	LoanRejected                = "rejected"
	LoanCancelled               = "cancelled"
	LoanDefaulted               = "defaulted"
)

// loanTransitions is the single source of truth for legal status changes.
var loanTransitions = map[string][]string{
	LoanAwaitingRegistrationFee: {LoanAwaitingDeposit, LoanPending, LoanCancelled},
	LoanAwaitingDeposit:         {LoanPending, LoanCancelled},
	LoanPending:                 {LoanApproved, LoanRejected, LoanCancelled},
	LoanApproved:                {LoanActive, LoanCompleted, LoanDefaulted},
	LoanActive:                  {LoanCompleted, LoanDefaulted},
	LoanCompleted:               {LoanActive}, // payment reversal only
}

type Loan struct {
	gorm.Model
	CustomerID uint   `json:"customer_id" gorm:"not null;index"`
	LoanNumber string `json:"loan_number" gorm:"size:20;not null;uniqueIndex"`

	PrincipalAmount    decimal.Decimal `json:"principal_amount" gorm:"type:decimal(12,2);not null"`
	InterestRate       decimal.Decimal `json:"interest_rate" gorm:"type:decimal(5,2);not null"`
	TotalAmount        decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	AmountPaid         decimal.Decimal `json:"amount_paid" gorm:"type:decimal(12,2);default:0"`
	Balance            decimal.Decimal `json:"balance" gorm:"type:decimal(12,2);not null"`
	TotalPenaltyAmount decimal.Decimal `json:"total_penalty_amount" gorm:"type:decimal(12,2);default:0"`

	DepositRequired       bool            `json:"deposit_required" gorm:"default:false"`
	DepositAmount         decimal.Decimal `json:"deposit_amount" gorm:"type:decimal(12,2);default:0"`
	DepositPaid           decimal.Decimal `json:"deposit_paid" gorm:"type:decimal(12,2);default:0"`
	DepositRejectionCount int             `json:"deposit_rejection_count" gorm:"default:0"`

	Status string `json:"status" gorm:"size:30;default:pending;index"`
	Notes  string `json:"notes" gorm:"type:text"`

	DailyPaymentAmount   decimal.Decimal `json:"daily_payment_amount" gorm:"type:decimal(12,2);default:0"`
	DurationDays         int             `json:"duration_days" gorm:"default:0"`
	AdjustedDurationDays int             `json:"adjusted_duration_days" gorm:"default:0"`
	DisbursementDate     *time.Time      `json:"disbursement_date"`
	DueDate              *time.Time      `json:"due_date"`

	ApprovedBy *uint      `json:"approved_by"`
	ApprovedAt *time.Time `json:"approved_at"`

	Customer Customer          `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Items    []LoanItem        `json:"items,omitempty" gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE"`
	Schedule []PaymentSchedule `json:"schedule,omitempty" gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE"`
}

// LoanItem snapshots the product price at loan time; later Product price
// changes never touch existing loans.
type LoanItem struct {
	gorm.Model
	LoanID    uint            `json:"loan_id" gorm:"not null;index"`
	ProductID uint            `json:"product_id" gorm:"not null;index"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	Subtotal  decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
}

// CanTransitionTo checks the transition table.
func (l *Loan) CanTransitionTo(target string) bool {
	for _, next := range loanTransitions[l.Status] {
		if next == target {
			return true
		}
	}
	return false
}

// TransitionTo moves the loan to target or fails with a typed error.
func (l *Loan) TransitionTo(target string) error {
	if !l.CanTransitionTo(target) {
		return &InvalidTransitionError{Entity: "loan", From: l.Status, To: target}
	}
	l.Status = target
	return nil
}

// IsTerminal reports whether the loan can never change status again
// (completed loans can still fall back to active on reversal).
func (l *Loan) IsTerminal() bool {
	switch l.Status {
	case LoanRejected, LoanCancelled, LoanDefaulted:
		return true
	}
	return false
}

// AcceptsPayments reports whether payments may be submitted against the loan.
func (l *Loan) AcceptsPayments() bool {
	switch l.Status {
	case LoanPending, LoanApproved, LoanActive:
		return true
	}
	return false
}

// RemainingDeposit is the unpaid part of the required deposit.
func (l *Loan) RemainingDeposit() decimal.Decimal {
	return l.DepositAmount.Sub(l.DepositPaid)
}

// DepositLocked reports whether the 3-strikes rejection lockout is in effect.
func (l *Loan) DepositLocked() bool {
	return l.DepositRejectionCount >= DepositRejectionLimit
}
