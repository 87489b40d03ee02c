package Ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"Kopa/Models"
	"Kopa/Money"
)

type SubmitPaymentInput struct {
	LoanID uint    `json:"loan_id" validate:"required"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required,oneof=cash mpesa"`

	// AdminOriginated payments are collected in person and settle
	// immediately, with no approval gate.
	AdminOriginated bool `json:"-"`
}

// SubmitPayment files a payment against a loan. Customer-originated
// payments start pending and settle on approval or gateway callback;
// admin-originated payments settle in the same operation.
func (l *Ledger) SubmitPayment(input SubmitPaymentInput) (*Models.Payment, error) {
	unlockLoan := l.locks.lockLoan(input.LoanID)
	defer unlockLoan()

	var loan Models.Loan
	if err := l.DB.First(&loan, input.LoanID).Error; err != nil {
		return nil, notFoundOr(err)
	}
	if !loan.AcceptsPayments() {
		return nil, &Models.InvalidTransitionError{Entity: "loan", From: loan.Status, To: "accept_payment"}
	}

	amount := Money.FromFloat(input.Amount)
	if !amount.GreaterThan(decimal.Zero) {
		return nil, &Models.ValidationError{Field: "amount", Message: "must be positive"}
	}
	if amount.GreaterThan(loan.Balance) {
		return nil, &Models.AmountExceedsBalanceError{Amount: amount, Balance: loan.Balance}
	}

	payment := &Models.Payment{
		LoanID:        loan.ID,
		CustomerID:    loan.CustomerID,
		Amount:        amount,
		Method:        input.Method,
		Status:        Models.PaymentPending,
		TransactionID: uuid.NewString(),
	}

	if !input.AdminOriginated {
		if err := l.DB.Create(payment).Error; err != nil {
			return nil, err
		}
		return payment, nil
	}

	unlockCustomer := l.locks.lockCustomer(loan.CustomerID)
	defer unlockCustomer()
	err := l.DB.Transaction(func(tx *gorm.DB) error {
		payment.Status = Models.PaymentCompleted
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		return applyPayment(tx, &loan, amount)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// ApprovePayment settles a pending payment: the payment, its loan and the
// owning customer are updated in one transaction.
func (l *Ledger) ApprovePayment(paymentID uint) (*Models.Payment, error) {
	var payment Models.Payment
	if err := l.DB.First(&payment, paymentID).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return l.settlePayment(&payment, "")
}

func (l *Ledger) settlePayment(payment *Models.Payment, receipt string) (*Models.Payment, error) {
	unlockLoan := l.locks.lockLoan(payment.LoanID)
	defer unlockLoan()
	unlockCustomer := l.locks.lockCustomer(payment.CustomerID)
	defer unlockCustomer()

	err := l.DB.Transaction(func(tx *gorm.DB) error {
		// Re-read inside the lock so concurrent settles cannot double-apply.
		if err := tx.First(payment, payment.ID).Error; err != nil {
			return notFoundOr(err)
		}
		if payment.Status != Models.PaymentPending {
			return Models.ErrPaymentNotPending
		}
		var loan Models.Loan
		if err := tx.First(&loan, payment.LoanID).Error; err != nil {
			return notFoundOr(err)
		}
		// The submit-time cap is not enough: another pending payment may
		// have settled since, so the balance is re-checked here.
		if payment.Amount.GreaterThan(loan.Balance) {
			return &Models.AmountExceedsBalanceError{Amount: payment.Amount, Balance: loan.Balance}
		}
		payment.Status = Models.PaymentCompleted
		if receipt != "" {
			payment.MpesaReceiptNumber = receipt
		}
		if err := tx.Save(payment).Error; err != nil {
			return err
		}
		return applyPayment(tx, &loan, payment.Amount)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// RejectPayment fails a pending payment with a reason. No balance effect.
func (l *Ledger) RejectPayment(paymentID uint, reason string) (*Models.Payment, error) {
	var payment Models.Payment
	if err := l.DB.First(&payment, paymentID).Error; err != nil {
		return nil, notFoundOr(err)
	}

	unlock := l.locks.lockLoan(payment.LoanID)
	defer unlock()

	err := l.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, payment.ID).Error; err != nil {
			return notFoundOr(err)
		}
		if payment.Status != Models.PaymentPending {
			return Models.ErrPaymentNotPending
		}
		payment.Status = Models.PaymentFailed
		payment.FailureReason = reason
		return tx.Save(&payment).Error
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ReversePayment exactly undoes a completed payment. A payment can only
// be reversed once.
func (l *Ledger) ReversePayment(paymentID uint) (*Models.Payment, error) {
	var payment Models.Payment
	if err := l.DB.First(&payment, paymentID).Error; err != nil {
		return nil, notFoundOr(err)
	}

	unlockLoan := l.locks.lockLoan(payment.LoanID)
	defer unlockLoan()
	unlockCustomer := l.locks.lockCustomer(payment.CustomerID)
	defer unlockCustomer()

	err := l.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, payment.ID).Error; err != nil {
			return notFoundOr(err)
		}
		if payment.Status != Models.PaymentCompleted {
			return Models.ErrPaymentNotCompleted
		}
		var loan Models.Loan
		if err := tx.First(&loan, payment.LoanID).Error; err != nil {
			return notFoundOr(err)
		}
		payment.Status = Models.PaymentReversed
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}
		return reversePayment(tx, &loan, payment.Amount)
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// HandleGatewayResult is the asynchronous gateway callback path. A
// duplicate callback for an already-settled transaction is a no-op.
func (l *Ledger) HandleGatewayResult(transactionID string, success bool, receipt, failureReason string) error {
	// Gateways do not always send a reason; rejection paths require one.
	if !success && failureReason == "" {
		failureReason = "gateway failure"
	}

	var payment Models.Payment
	err := l.DB.Where("transaction_id = ?", transactionID).First(&payment).Error
	if err == nil {
		switch payment.Status {
		case Models.PaymentCompleted, Models.PaymentFailed, Models.PaymentReversed:
			return nil
		}
		if success {
			_, err = l.settlePayment(&payment, receipt)
		} else {
			_, err = l.RejectPayment(payment.ID, failureReason)
		}
		if errors.Is(err, Models.ErrPaymentNotPending) {
			// Lost a race against a concurrent duplicate callback.
			return nil
		}
		return err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	// Deposits share the gateway; try the deposit sub-ledger.
	var deposit Models.Deposit
	if err := l.DB.Where("transaction_id = ?", transactionID).First(&deposit).Error; err != nil {
		return notFoundOr(err)
	}
	switch deposit.Status {
	case Models.DepositVerified, Models.DepositRejected:
		return nil
	}
	if success {
		_, err = l.VerifyDeposit(deposit.ID, receipt)
	} else {
		_, err = l.RejectDeposit(deposit.ID, failureReason)
	}
	if errors.Is(err, Models.ErrDepositNotPending) {
		return nil
	}
	return err
}

// applyPayment is the single mutation path for a settled amount: it keeps
// balance == total_amount - amount_paid, drives the loan status, allocates
// the money onto the schedule and rolls the customer's paid counter.
func applyPayment(tx *gorm.DB, loan *Models.Loan, amount decimal.Decimal) error {
	loan.AmountPaid = loan.AmountPaid.Add(amount)
	loan.Balance = loan.TotalAmount.Sub(loan.AmountPaid)

	switch {
	case !loan.Balance.GreaterThan(decimal.Zero) && loan.CanTransitionTo(Models.LoanCompleted):
		if err := loan.TransitionTo(Models.LoanCompleted); err != nil {
			return err
		}
	case loan.Status == Models.LoanApproved:
		if err := loan.TransitionTo(Models.LoanActive); err != nil {
			return err
		}
	}

	if err := allocateToSchedule(tx, loan.ID, amount); err != nil {
		return err
	}
	if err := tx.Save(loan).Error; err != nil {
		return err
	}
	return creditCustomerPaid(tx, loan.CustomerID, amount)
}

// reversePayment exactly inverts applyPayment.
func reversePayment(tx *gorm.DB, loan *Models.Loan, amount decimal.Decimal) error {
	loan.AmountPaid = loan.AmountPaid.Sub(amount)
	loan.Balance = loan.TotalAmount.Sub(loan.AmountPaid)

	if loan.Status == Models.LoanCompleted && loan.Balance.GreaterThan(decimal.Zero) {
		if err := loan.TransitionTo(Models.LoanActive); err != nil {
			return err
		}
	}

	if err := deallocateFromSchedule(tx, loan.ID, amount); err != nil {
		return err
	}
	if err := tx.Save(loan).Error; err != nil {
		return err
	}
	return creditCustomerPaid(tx, loan.CustomerID, amount.Neg())
}

func creditCustomerPaid(tx *gorm.DB, customerID uint, amount decimal.Decimal) error {
	var customer Models.Customer
	if err := tx.First(&customer, customerID).Error; err != nil {
		return notFoundOr(err)
	}
	customer.TotalPaid = customer.TotalPaid.Add(amount)
	return tx.Save(&customer).Error
}

// allocateToSchedule fills schedule rows oldest-first with the settled
// amount and restates their statuses.
func allocateToSchedule(tx *gorm.DB, loanID uint, amount decimal.Decimal) error {
	var rows []Models.PaymentSchedule
	if err := tx.Where("loan_id = ?", loanID).Order("day_number asc").Find(&rows).Error; err != nil {
		return err
	}
	today := dateOnly(time.Now())
	remaining := amount
	for i := range rows {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		gap := rows[i].Shortfall()
		if !gap.GreaterThan(decimal.Zero) {
			continue
		}
		applied := decimal.Min(gap, remaining)
		rows[i].PaidAmount = rows[i].PaidAmount.Add(applied)
		remaining = remaining.Sub(applied)
		rows[i].Restate(today)
		if err := tx.Save(&rows[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// deallocateFromSchedule backs a reversed amount out of the schedule,
// newest-first, mirroring allocateToSchedule.
func deallocateFromSchedule(tx *gorm.DB, loanID uint, amount decimal.Decimal) error {
	var rows []Models.PaymentSchedule
	if err := tx.Where("loan_id = ?", loanID).Order("day_number desc").Find(&rows).Error; err != nil {
		return err
	}
	today := dateOnly(time.Now())
	remaining := amount
	for i := range rows {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		if !rows[i].PaidAmount.GreaterThan(decimal.Zero) {
			continue
		}
		removed := decimal.Min(rows[i].PaidAmount, remaining)
		rows[i].PaidAmount = rows[i].PaidAmount.Sub(removed)
		remaining = remaining.Sub(removed)
		rows[i].Restate(today)
		if err := tx.Save(&rows[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
