package Ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"Kopa/Models"
	"Kopa/Money"
)

type LoanItemInput struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gt=0"`
}

type CreateLoanInput struct {
	CustomerID uint `json:"customer_id" validate:"required"`

	// PrincipalAmount is only used for loans without items (cash loans);
	// when items are present the principal is the sum of their subtotals.
	PrincipalAmount float64         `json:"principal_amount"`
	InterestRate    float64         `json:"interest_rate" validate:"gte=0"`
	Items           []LoanItemInput `json:"items"`

	// DurationDays overrides the configured term for this loan; zero
	// means use the policy default.
	DurationDays int `json:"duration_days" validate:"gte=0"`

	RegistrationFeeRequired bool    `json:"registration_fee_required"`
	DepositRequired         bool    `json:"deposit_required"`
	DepositAmount           float64 `json:"deposit_amount"`

	// Document store references; persisted verbatim for reuse.
	PhotoPath      string `json:"photo_path"`
	NationalIDPath string `json:"national_id_path"`
}

// CreateLoan validates the customer's standing and credit headroom,
// snapshots item prices, and files the application. Stock is only checked
// and deducted at approval time.
func (l *Ledger) CreateLoan(input CreateLoanInput) (*Models.Loan, error) {
	var customer Models.Customer
	if err := l.DB.First(&customer, input.CustomerID).Error; err != nil {
		return nil, notFoundOr(err)
	}
	if err := customer.CanBorrow(); err != nil {
		return nil, err
	}

	rate := Money.FromFloat(input.InterestRate)
	if rate.LessThan(decimal.Zero) {
		return nil, &Models.ValidationError{Field: "interest_rate", Message: "must not be negative"}
	}

	principal := Money.FromFloat(input.PrincipalAmount)
	items := make([]Models.LoanItem, 0, len(input.Items))
	if len(input.Items) > 0 {
		principal = decimal.Zero
		for _, in := range input.Items {
			if in.Quantity <= 0 {
				return nil, &Models.ValidationError{Field: "quantity", Message: "must be positive"}
			}
			var product Models.Product
			if err := l.DB.First(&product, in.ProductID).Error; err != nil {
				return nil, notFoundOr(err)
			}
			subtotal := Money.Round(product.Price.Mul(decimal.NewFromInt(int64(in.Quantity))))
			items = append(items, Models.LoanItem{
				ProductID: product.ID,
				Quantity:  in.Quantity,
				UnitPrice: product.Price,
				Subtotal:  subtotal,
			})
			principal = principal.Add(subtotal)
		}
	}
	if !principal.GreaterThan(decimal.Zero) {
		return nil, &Models.ValidationError{Field: "principal_amount", Message: "must be positive"}
	}

	total := Money.ApplyRate(principal, rate)
	if err := checkCreditLimit(&customer, total); err != nil {
		return nil, err
	}

	deposit := Money.FromFloat(input.DepositAmount)
	if input.DepositRequired && !deposit.GreaterThan(decimal.Zero) {
		return nil, &Models.ValidationError{Field: "deposit_amount", Message: "must be positive when a deposit is required"}
	}

	if input.DurationDays < 0 {
		return nil, &Models.ValidationError{Field: "duration_days", Message: "must not be negative"}
	}

	status := Models.LoanPending
	if input.DepositRequired {
		status = Models.LoanAwaitingDeposit
	}
	if input.RegistrationFeeRequired {
		status = Models.LoanAwaitingRegistrationFee
	}

	loan := &Models.Loan{
		CustomerID:      customer.ID,
		PrincipalAmount: principal,
		InterestRate:    rate,
		TotalAmount:     total,
		AmountPaid:      decimal.Zero,
		Balance:         total,
		DepositRequired: input.DepositRequired,
		DepositAmount:   deposit,
		DepositPaid:     decimal.Zero,
		Status:          status,
		DurationDays:    input.DurationDays,
		Items:           items,
	}

	err := l.DB.Transaction(func(tx *gorm.DB) error {
		number, err := generateLoanNumber(tx, time.Now())
		if err != nil {
			return err
		}
		loan.LoanNumber = number
		if err := tx.Create(loan).Error; err != nil {
			return err
		}

		customer.LoanCount++
		if input.PhotoPath != "" {
			customer.PhotoPath = input.PhotoPath
		}
		if input.NationalIDPath != "" {
			customer.NationalIDPath = input.NationalIDPath
		}
		return tx.Save(&customer).Error
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// checkCreditLimit enforces available credit only when a limit is set; a
// zero limit means the account is still awaiting admin review.
func checkCreditLimit(customer *Models.Customer, total decimal.Decimal) error {
	available, enforced := customer.AvailableCredit()
	if enforced && total.GreaterThan(available) {
		return &Models.CreditLimitError{
			CreditLimit: customer.CreditLimit,
			Outstanding: customer.Outstanding(),
			Requested:   total,
		}
	}
	return nil
}

// generateLoanNumber issues LN{YYYYMMDD}{seq4}, unique across all loans
// ever created the same day (soft-deleted included).
func generateLoanNumber(tx *gorm.DB, now time.Time) (string, error) {
	loanNumberMu.Lock()
	defer loanNumberMu.Unlock()

	prefix := "LN" + now.Format("20060102")
	var count int64
	if err := tx.Unscoped().Model(&Models.Loan{}).
		Where("loan_number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// ConfirmRegistrationFee advances a gated loan once the external fee
// collaborator confirms payment.
func (l *Ledger) ConfirmRegistrationFee(loanID uint) (*Models.Loan, error) {
	unlock := l.locks.lockLoan(loanID)
	defer unlock()

	var loan Models.Loan
	if err := l.DB.First(&loan, loanID).Error; err != nil {
		return nil, notFoundOr(err)
	}
	next := Models.LoanPending
	if loan.DepositRequired && loan.RemainingDeposit().GreaterThan(decimal.Zero) {
		next = Models.LoanAwaitingDeposit
	}
	if loan.Status != Models.LoanAwaitingRegistrationFee {
		return nil, &Models.InvalidTransitionError{Entity: "loan", From: loan.Status, To: next}
	}
	if err := loan.TransitionTo(next); err != nil {
		return nil, err
	}
	if err := l.DB.Save(&loan).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

// ApproveLoan re-validates customer standing and credit, deducts stock for
// every item atomically, stamps the approval, generates the payment
// schedule and rolls the total into the customer's borrowed counter. A
// failure at any step leaves no partial state behind.
func (l *Ledger) ApproveLoan(loanID uint, actor *Models.User) (*Models.Loan, error) {
	unlockLoan := l.locks.lockLoan(loanID)
	defer unlockLoan()

	var loan Models.Loan
	if err := l.DB.Preload("Items").First(&loan, loanID).Error; err != nil {
		return nil, notFoundOr(err)
	}
	if !loan.CanTransitionTo(Models.LoanApproved) {
		return nil, &Models.InvalidTransitionError{Entity: "loan", From: loan.Status, To: Models.LoanApproved}
	}
	if actor == nil || !actor.CanApproveLoan(loan.TotalAmount) {
		return nil, Models.ErrUnauthorized
	}

	productIDs := make([]uint, 0, len(loan.Items))
	for _, item := range loan.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	unlockProducts := l.locks.lockProducts(productIDs)
	defer unlockProducts()
	unlockCustomer := l.locks.lockCustomer(loan.CustomerID)
	defer unlockCustomer()

	err := l.DB.Transaction(func(tx *gorm.DB) error {
		var customer Models.Customer
		if err := tx.First(&customer, loan.CustomerID).Error; err != nil {
			return notFoundOr(err)
		}
		if err := customer.CanBorrow(); err != nil {
			return err
		}
		if err := checkCreditLimit(&customer, loan.TotalAmount); err != nil {
			return err
		}

		// Aggregate quantities per product first: a loan may list the
		// same product on several lines, and each product row must be
		// checked and deducted exactly once. Report every short product
		// rather than the first one found.
		need := make(map[uint]int, len(loan.Items))
		order := make([]uint, 0, len(loan.Items))
		for _, item := range loan.Items {
			if _, seen := need[item.ProductID]; !seen {
				order = append(order, item.ProductID)
			}
			need[item.ProductID] += item.Quantity
		}

		products := make([]Models.Product, 0, len(order))
		short := []Models.ShortItem{}
		for _, id := range order {
			var product Models.Product
			if err := tx.First(&product, id).Error; err != nil {
				return notFoundOr(err)
			}
			if !product.IsAvailable || product.StockQuantity < need[id] {
				short = append(short, Models.ShortItem{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   need[id],
					Available:   product.StockQuantity,
				})
			}
			products = append(products, product)
		}
		if len(short) > 0 {
			return &Models.InsufficientStockError{Items: short}
		}
		for i := range products {
			if !products[i].Deduct(need[products[i].ID]) {
				return &Models.InsufficientStockError{Items: []Models.ShortItem{{
					ProductID:   products[i].ID,
					ProductName: products[i].Name,
					Requested:   need[products[i].ID],
					Available:   products[i].StockQuantity,
				}}}
			}
			if err := tx.Save(&products[i]).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		today := dateOnly(now)
		if err := loan.TransitionTo(Models.LoanApproved); err != nil {
			return err
		}
		loan.ApprovedBy = &actor.ID
		loan.ApprovedAt = &now
		loan.DisbursementDate = &today

		base := loan.DurationDays
		if base <= 0 {
			base = l.Policy.LoanDurationDays
		}
		days := adjustedDuration(loan.TotalAmount, loan.DepositPaid, base)
		outstanding := loan.TotalAmount.Sub(loan.AmountPaid)
		rows := GenerateSchedule(loan.ID, outstanding, days, today)
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		loan.AdjustedDurationDays = days
		loan.DailyPaymentAmount = rows[0].ExpectedAmount
		due := today.AddDate(0, 0, days)
		loan.DueDate = &due

		if err := tx.Save(&loan).Error; err != nil {
			return err
		}

		customer.TotalBorrowed = customer.TotalBorrowed.Add(loan.TotalAmount)
		return tx.Save(&customer).Error
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// RejectLoan refuses a pending application. The reason is required and is
// appended to the loan notes; there are no stock or balance side effects.
func (l *Ledger) RejectLoan(loanID uint, reason string) (*Models.Loan, error) {
	if reason == "" {
		return nil, Models.ErrRejectionReasonEmpty
	}
	unlock := l.locks.lockLoan(loanID)
	defer unlock()

	var loan Models.Loan
	if err := l.DB.First(&loan, loanID).Error; err != nil {
		return nil, notFoundOr(err)
	}
	if err := loan.TransitionTo(Models.LoanRejected); err != nil {
		return nil, err
	}
	loan.Notes = appendNote(loan.Notes, "Rejected: "+reason)
	if err := l.DB.Save(&loan).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

// CancelLoan withdraws an application that has not been approved yet.
func (l *Ledger) CancelLoan(loanID uint, reason string) (*Models.Loan, error) {
	unlock := l.locks.lockLoan(loanID)
	defer unlock()

	var loan Models.Loan
	if err := l.DB.First(&loan, loanID).Error; err != nil {
		return nil, notFoundOr(err)
	}
	if err := loan.TransitionTo(Models.LoanCancelled); err != nil {
		return nil, err
	}
	if reason != "" {
		loan.Notes = appendNote(loan.Notes, "Cancelled: "+reason)
	}
	if err := l.DB.Save(&loan).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

// markAsDefaulted flags a disbursed loan as defaulted. Irreversible.
func markAsDefaulted(tx *gorm.DB, loan *Models.Loan, reason string) error {
	if err := loan.TransitionTo(Models.LoanDefaulted); err != nil {
		return err
	}
	loan.Notes = appendNote(loan.Notes, "Defaulted: "+reason)
	return tx.Save(loan).Error
}

// MarkAsDefaulted is the manual entry point for flagging a default.
func (l *Ledger) MarkAsDefaulted(loanID uint, reason string) (*Models.Loan, error) {
	unlock := l.locks.lockLoan(loanID)
	defer unlock()

	var loan Models.Loan
	if err := l.DB.First(&loan, loanID).Error; err != nil {
		return nil, notFoundOr(err)
	}
	if err := markAsDefaulted(l.DB, &loan, reason); err != nil {
		return nil, err
	}
	return &loan, nil
}

func appendNote(notes, line string) string {
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}
