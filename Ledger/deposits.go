package Ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"Kopa/Models"
	"Kopa/Money"
)

type SubmitDepositInput struct {
	LoanID uint    `json:"loan_id" validate:"required"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required,oneof=cash mpesa"`
}

// SubmitDeposit files a deposit against the loan's deposit requirement.
// A single deposit may never exceed what remains of the required amount,
// and the loan locks out further attempts after three rejections.
func (l *Ledger) SubmitDeposit(input SubmitDepositInput) (*Models.Deposit, error) {
	unlock := l.locks.lockLoan(input.LoanID)
	defer unlock()

	var loan Models.Loan
	if err := l.DB.First(&loan, input.LoanID).Error; err != nil {
		return nil, notFoundOr(err)
	}
	if !loan.DepositRequired {
		return nil, &Models.ValidationError{Field: "loan_id", Message: "loan does not require a deposit"}
	}
	if loan.IsTerminal() || loan.Status == Models.LoanCompleted {
		return nil, &Models.InvalidTransitionError{Entity: "loan", From: loan.Status, To: "accept_deposit"}
	}
	if loan.DepositLocked() {
		return nil, Models.ErrRejectionLimit
	}

	amount := Money.FromFloat(input.Amount)
	if !amount.GreaterThan(decimal.Zero) {
		return nil, &Models.ValidationError{Field: "amount", Message: "must be positive"}
	}
	if remaining := loan.RemainingDeposit(); amount.GreaterThan(remaining) {
		return nil, &Models.AmountExceedsDepositError{Amount: amount, Remaining: remaining}
	}

	deposit := &Models.Deposit{
		LoanID:        loan.ID,
		CustomerID:    loan.CustomerID,
		Amount:        amount,
		Method:        input.Method,
		Status:        Models.DepositPending,
		TransactionID: uuid.NewString(),
	}
	if err := l.DB.Create(deposit).Error; err != nil {
		return nil, err
	}
	return deposit, nil
}

// VerifyDeposit settles a pending deposit. The amount counts into the
// deposit sub-ledger and into amount_paid/balance as one booking, so the
// same money is never applied twice. A fully paid deposit moves a gated
// loan forward to pending.
func (l *Ledger) VerifyDeposit(depositID uint, receipt string) (*Models.Deposit, error) {
	var deposit Models.Deposit
	if err := l.DB.First(&deposit, depositID).Error; err != nil {
		return nil, notFoundOr(err)
	}

	unlockLoan := l.locks.lockLoan(deposit.LoanID)
	defer unlockLoan()
	unlockCustomer := l.locks.lockCustomer(deposit.CustomerID)
	defer unlockCustomer()

	err := l.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deposit, deposit.ID).Error; err != nil {
			return notFoundOr(err)
		}
		if deposit.Status != Models.DepositPending {
			return Models.ErrDepositNotPending
		}
		var loan Models.Loan
		if err := tx.First(&loan, deposit.LoanID).Error; err != nil {
			return notFoundOr(err)
		}
		// Another pending deposit may have been verified since this one
		// was submitted, so the cap is re-checked at settle time.
		if remaining := loan.RemainingDeposit(); deposit.Amount.GreaterThan(remaining) {
			return &Models.AmountExceedsDepositError{Amount: deposit.Amount, Remaining: remaining}
		}

		deposit.Status = Models.DepositVerified
		if receipt != "" {
			deposit.MpesaReceiptNumber = receipt
		}
		if err := tx.Save(&deposit).Error; err != nil {
			return err
		}

		loan.DepositPaid = loan.DepositPaid.Add(deposit.Amount)
		if err := applyPayment(tx, &loan, deposit.Amount); err != nil {
			return err
		}
		if loan.Status == Models.LoanAwaitingDeposit && !loan.RemainingDeposit().GreaterThan(decimal.Zero) {
			if err := loan.TransitionTo(Models.LoanPending); err != nil {
				return err
			}
			if err := tx.Save(&loan).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

// RejectDeposit fails a pending deposit and counts a strike toward the
// loan's rejection lockout.
func (l *Ledger) RejectDeposit(depositID uint, reason string) (*Models.Deposit, error) {
	if reason == "" {
		return nil, Models.ErrRejectionReasonEmpty
	}
	var deposit Models.Deposit
	if err := l.DB.First(&deposit, depositID).Error; err != nil {
		return nil, notFoundOr(err)
	}

	unlock := l.locks.lockLoan(deposit.LoanID)
	defer unlock()

	err := l.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deposit, deposit.ID).Error; err != nil {
			return notFoundOr(err)
		}
		if deposit.Status != Models.DepositPending {
			return Models.ErrDepositNotPending
		}
		var loan Models.Loan
		if err := tx.First(&loan, deposit.LoanID).Error; err != nil {
			return notFoundOr(err)
		}

		deposit.Status = Models.DepositRejected
		deposit.RejectionReason = reason
		if err := tx.Save(&deposit).Error; err != nil {
			return err
		}

		loan.DepositRejectionCount++
		return tx.Save(&loan).Error
	})
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}
