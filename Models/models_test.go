package Models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoanTransitionTable(t *testing.T) {
	cases := []struct {
		from string
		to   string
		ok   bool
	}{
		{LoanPending, LoanApproved, true},
		{LoanPending, LoanRejected, true},
		{LoanPending, LoanCancelled, true},
		{LoanPending, LoanActive, false},
		{LoanApproved, LoanActive, true},
		{LoanApproved, LoanDefaulted, true},
		{LoanActive, LoanCompleted, true},
		{LoanActive, LoanDefaulted, true},
		{LoanCompleted, LoanActive, true}, // reversal fallback
		{LoanCompleted, LoanDefaulted, false},
		{LoanRejected, LoanPending, false},
		{LoanDefaulted, LoanActive, false},
		{LoanAwaitingRegistrationFee, LoanAwaitingDeposit, true},
		{LoanAwaitingDeposit, LoanPending, true},
		{LoanAwaitingDeposit, LoanApproved, false},
	}
	for _, c := range cases {
		loan := &Loan{Status: c.from}
		err := loan.TransitionTo(c.to)
		if c.ok && err != nil {
			t.Errorf("%s -> %s should be legal: %v", c.from, c.to, err)
		}
		if !c.ok && err == nil {
			t.Errorf("%s -> %s should be illegal", c.from, c.to)
		}
	}
}

func TestProductDeductFlipsAvailability(t *testing.T) {
	product := &Product{StockQuantity: 2, IsAvailable: true}

	if !product.Deduct(2) {
		t.Fatal("deduct within stock failed")
	}
	if product.StockQuantity != 0 || product.IsAvailable {
		t.Errorf("after deduct to zero: stock=%d available=%v", product.StockQuantity, product.IsAvailable)
	}

	if product.Deduct(1) {
		t.Error("deduct from empty stock must fail")
	}

	product.Restore(1)
	if product.StockQuantity != 1 || !product.IsAvailable {
		t.Errorf("after restore: stock=%d available=%v", product.StockQuantity, product.IsAvailable)
	}
}

func TestCustomerAvailableCredit(t *testing.T) {
	customer := &Customer{
		CreditLimit:   decimal.NewFromInt(5000),
		TotalBorrowed: decimal.NewFromInt(3000),
		TotalPaid:     decimal.NewFromInt(1000),
	}
	available, enforced := customer.AvailableCredit()
	if !enforced {
		t.Fatal("limit should be enforced")
	}
	if !available.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("available = %s, want 3000", available)
	}

	customer.CreditLimit = decimal.Zero
	if _, enforced := customer.AvailableCredit(); enforced {
		t.Error("zero limit must not be enforced")
	}
}

func TestScheduleRestate(t *testing.T) {
	today := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	expected := decimal.NewFromInt(100)

	cases := []struct {
		name string
		row  PaymentSchedule
		want string
	}{
		{"unpaid future", PaymentSchedule{DueDate: today.AddDate(0, 0, 1), ExpectedAmount: expected}, SchedulePending},
		{"unpaid past", PaymentSchedule{DueDate: today.AddDate(0, 0, -1), ExpectedAmount: expected}, ScheduleOverdue},
		{"partial past", PaymentSchedule{DueDate: today.AddDate(0, 0, -1), ExpectedAmount: expected, PaidAmount: decimal.NewFromInt(40)}, SchedulePartial},
		{"covered", PaymentSchedule{DueDate: today.AddDate(0, 0, -1), ExpectedAmount: expected, PaidAmount: decimal.NewFromInt(100)}, SchedulePaid},
		{"overpaid", PaymentSchedule{DueDate: today, ExpectedAmount: expected, PaidAmount: decimal.NewFromInt(120)}, SchedulePaid},
	}
	for _, c := range cases {
		c.row.Restate(today)
		if c.row.Status != c.want {
			t.Errorf("%s: status = %s, want %s", c.name, c.row.Status, c.want)
		}
	}
}

func TestUserCanApproveLoan(t *testing.T) {
	total := decimal.NewFromInt(50000)

	cases := []struct {
		name string
		user User
		want bool
	}{
		{"collector", User{Permission: PermissionCollector}, false},
		{"manager unlimited", User{Permission: PermissionManager}, true},
		{"manager under limit", User{Permission: PermissionManager, ApprovalLimit: decimal.NewFromInt(100000)}, true},
		{"manager over limit", User{Permission: PermissionManager, ApprovalLimit: decimal.NewFromInt(10000)}, false},
		{"admin ignores limit", User{Permission: PermissionAdmin, ApprovalLimit: decimal.NewFromInt(1)}, true},
		{"superadmin", User{Permission: PermissionSuperAdmin}, true},
	}
	for _, c := range cases {
		if got := c.user.CanApproveLoan(total); got != c.want {
			t.Errorf("%s: CanApproveLoan = %v, want %v", c.name, got, c.want)
		}
	}
}
