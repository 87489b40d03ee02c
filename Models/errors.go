package Models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Business-rule errors are typed so controllers can map them to HTTP
// statuses and so callers get amounts/limits/counts without re-querying.

var (
	ErrNotFound             = errors.New("record not found")
	ErrUnauthorized         = errors.New("not authorized for this operation")
	ErrCustomerBlacklisted  = errors.New("customer is blacklisted")
	ErrCustomerInactive     = errors.New("customer is not active")
	ErrPaymentNotPending    = errors.New("payment is not pending")
	ErrDepositNotPending    = errors.New("deposit is not pending")
	ErrPaymentNotCompleted  = errors.New("payment is not completed")
	ErrRejectionLimit       = errors.New("deposit rejection limit reached")
	ErrRejectionReasonEmpty = errors.New("rejection reason is required")
)

// ValidationError reports a bad input shape, detected before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// CreditLimitError carries the numbers an operator needs to act on a
// rejected loan application.
type CreditLimitError struct {
	CreditLimit decimal.Decimal
	Outstanding decimal.Decimal
	Requested   decimal.Decimal
}

func (e *CreditLimitError) Error() string {
	available := e.CreditLimit.Sub(e.Outstanding)
	return fmt.Sprintf("credit limit exceeded: requested %s but only %s available (limit %s, outstanding %s)",
		e.Requested.StringFixed(2), available.StringFixed(2),
		e.CreditLimit.StringFixed(2), e.Outstanding.StringFixed(2))
}

// ShortItem identifies one product that could not cover its requested
// quantity during loan approval.
type ShortItem struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// InsufficientStockError lists every short item, not just the first one.
type InsufficientStockError struct {
	Items []ShortItem
}

func (e *InsufficientStockError) Error() string {
	msg := "insufficient stock:"
	for _, item := range e.Items {
		msg += fmt.Sprintf(" %s (requested %d, available %d);", item.ProductName, item.Requested, item.Available)
	}
	return msg
}

// InvalidTransitionError reports an illegal status change attempt.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition from %s to %s", e.Entity, e.From, e.To)
}

// AmountExceedsBalanceError reports a payment larger than the loan balance.
type AmountExceedsBalanceError struct {
	Amount  decimal.Decimal
	Balance decimal.Decimal
}

func (e *AmountExceedsBalanceError) Error() string {
	return fmt.Sprintf("payment amount %s exceeds loan balance %s",
		e.Amount.StringFixed(2), e.Balance.StringFixed(2))
}

// AmountExceedsDepositError reports a deposit larger than what remains of
// the required deposit.
type AmountExceedsDepositError struct {
	Amount    decimal.Decimal
	Remaining decimal.Decimal
}

func (e *AmountExceedsDepositError) Error() string {
	return fmt.Sprintf("deposit amount %s exceeds remaining deposit %s",
		e.Amount.StringFixed(2), e.Remaining.StringFixed(2))
}
