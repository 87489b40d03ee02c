package Models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentReversed  = "reversed"

	MethodCash  = "cash"
	MethodMpesa = "mpesa"
)

type Payment struct {
	gorm.Model
	LoanID     uint            `json:"loan_id" gorm:"not null;index"`
	CustomerID uint            `json:"customer_id" gorm:"not null;index"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Method     string          `json:"method" gorm:"size:20;not null"`
	Status     string          `json:"status" gorm:"size:20;default:pending;index"`

	TransactionID      string `json:"transaction_id" gorm:"size:64;not null;uniqueIndex"`
	MpesaReceiptNumber string `json:"mpesa_receipt_number" gorm:"size:50"`
	FailureReason      string `json:"failure_reason" gorm:"size:500"`

	Loan Loan `json:"loan,omitempty" gorm:"foreignKey:LoanID"`
}
