package Ledger

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Kopa/Models"
)

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := Models.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return NewLedger(db, Policy{
		LoanDurationDays:     30,
		DailyPenaltyRate:     decimal.NewFromInt(1),
		DefaultThresholdDays: 3,
	})
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func createCustomer(t *testing.T, l *Ledger, limit, borrowed, paid string) *Models.Customer {
	t.Helper()
	customer := &Models.Customer{
		Name:          "Test Customer",
		Phone:         "07" + t.Name(),
		CreditLimit:   dec(limit),
		TotalBorrowed: dec(borrowed),
		TotalPaid:     dec(paid),
		Status:        Models.CustomerActive,
	}
	if err := l.DB.Create(customer).Error; err != nil {
		t.Fatalf("failed to create customer: %v", err)
	}
	return customer
}

func createProduct(t *testing.T, l *Ledger, name, price string, stock int) *Models.Product {
	t.Helper()
	product := &Models.Product{
		Name:          name + " " + t.Name(),
		Price:         dec(price),
		StockQuantity: stock,
		IsAvailable:   stock > 0,
	}
	if err := l.DB.Create(product).Error; err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	return product
}

func adminUser() *Models.User {
	return &Models.User{Permission: Models.PermissionAdmin}
}

// createCashLoan files a plain loan with no items, no gates.
func createCashLoan(t *testing.T, l *Ledger, customerID uint, principal, rate float64) *Models.Loan {
	t.Helper()
	loan, err := l.CreateLoan(CreateLoanInput{
		CustomerID:      customerID,
		PrincipalAmount: principal,
		InterestRate:    rate,
	})
	if err != nil {
		t.Fatalf("failed to create loan: %v", err)
	}
	return loan
}

func reloadLoan(t *testing.T, l *Ledger, id uint) *Models.Loan {
	t.Helper()
	var loan Models.Loan
	if err := l.DB.First(&loan, id).Error; err != nil {
		t.Fatalf("failed to reload loan: %v", err)
	}
	return &loan
}

func reloadCustomer(t *testing.T, l *Ledger, id uint) *Models.Customer {
	t.Helper()
	var customer Models.Customer
	if err := l.DB.First(&customer, id).Error; err != nil {
		t.Fatalf("failed to reload customer: %v", err)
	}
	return &customer
}

// checkBalanceInvariant asserts balance == total_amount - amount_paid.
func checkBalanceInvariant(t *testing.T, loan *Models.Loan) {
	t.Helper()
	want := loan.TotalAmount.Sub(loan.AmountPaid)
	if !loan.Balance.Equal(want) {
		t.Errorf("balance invariant broken: balance=%s, total-paid=%s", loan.Balance, want)
	}
}
