package Ledger

import (
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"Kopa/Models"
)

func TestCreateLoanComputesTotals(t *testing.T) {
	l := testLedger(t)
	customer := createCustomer(t, l, "0", "0", "0")

	loan := createCashLoan(t, l, customer.ID, 10000, 20)

	if !loan.TotalAmount.Equal(dec("12000")) {
		t.Errorf("total = %s, want 12000", loan.TotalAmount)
	}
	if !loan.Balance.Equal(dec("12000")) {
		t.Errorf("balance = %s, want 12000", loan.Balance)
	}
	if !loan.AmountPaid.IsZero() {
		t.Errorf("amount_paid = %s, want 0", loan.AmountPaid)
	}
	if loan.Status != Models.LoanPending {
		t.Errorf("status = %s, want pending", loan.Status)
	}
	if got := reloadCustomer(t, l, customer.ID).LoanCount; got != 1 {
		t.Errorf("loan_count = %d, want 1", got)
	}
}

func TestCreateLoanCustomerStanding(t *testing.T) {
	cases := []struct {
		status string
		want   error
	}{
		{Models.CustomerBlacklisted, Models.ErrCustomerBlacklisted},
		{Models.CustomerInactive, Models.ErrCustomerInactive},
	}
	for _, c := range cases {
		t.Run(c.status, func(t *testing.T) {
			l := testLedger(t)
			customer := createCustomer(t, l, "0", "0", "0")
			customer.Status = c.status
			if err := l.DB.Save(customer).Error; err != nil {
				t.Fatal(err)
			}

			_, err := l.CreateLoan(CreateLoanInput{CustomerID: customer.ID, PrincipalAmount: 1000})
			if !errors.Is(err, c.want) {
				t.Errorf("err = %v, want %v", err, c.want)
			}
		})
	}
}

func TestCreateLoanCreditLimitGate(t *testing.T) {
	// limit 5000, borrowed 3000, paid 1000: outstanding 2000, available 3000
	l := testLedger(t)
	customer := createCustomer(t, l, "5000", "3000", "1000")

	_, err := l.CreateLoan(CreateLoanInput{CustomerID: customer.ID, PrincipalAmount: 3500})
	var creditErr *Models.CreditLimitError
	if !errors.As(err, &creditErr) {
		t.Fatalf("err = %v, want CreditLimitError", err)
	}
	if !creditErr.Requested.Equal(dec("3500")) {
		t.Errorf("requested = %s, want 3500", creditErr.Requested)
	}

	if _, err := l.CreateLoan(CreateLoanInput{CustomerID: customer.ID, PrincipalAmount: 3000}); err != nil {
		t.Errorf("loan at exactly available credit rejected: %v", err)
	}
}

func TestCreateLoanZeroLimitUnenforced(t *testing.T) {
	l := testLedger(t)
	customer := createCustomer(t, l, "0", "0", "0")

	if _, err := l.CreateLoan(CreateLoanInput{CustomerID: customer.ID, PrincipalAmount: 1000000}); err != nil {
		t.Errorf("zero credit limit must not be enforced: %v", err)
	}
}

func TestLoanNumberFormat(t *testing.T) {
	l := testLedger(t)
	customer := createCustomer(t, l, "0", "0", "0")

	pattern := regexp.MustCompile(`^LN\d{8}\d{4}$`)
	prefix := "LN" + time.Now().Format("20060102")
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		loan := createCashLoan(t, l, customer.ID, 1000, 10)
		if !pattern.MatchString(loan.LoanNumber) {
			t.Errorf("loan number %q does not match LN{YYYYMMDD}{seq4}", loan.LoanNumber)
		}
		if loan.LoanNumber[:10] != prefix {
			t.Errorf("loan number %q has wrong date prefix", loan.LoanNumber)
		}
		if seen[loan.LoanNumber] {
			t.Errorf("duplicate loan number %q", loan.LoanNumber)
		}
		seen[loan.LoanNumber] = true
	}
}

func TestApproveLoanHappyPath(t *testing.T) {
	l := testLedger(t)
	customer := createCustomer(t, l, "0", "0", "0")
	product := createProduct(t, l, "Boxer 150", "50000", 3)

	loan, err := l.CreateLoan(CreateLoanInput{
		CustomerID:   customer.ID,
		InterestRate: 15,
		Items:        []LoanItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !loan.TotalAmount.Equal(dec("57500")) {
		t.Fatalf("total = %s, want 57500", loan.TotalAmount)
	}

	approved, err := l.ApproveLoan(loan.ID, adminUser())
	if err != nil {
		t.Fatal(err)
	}
	if approved.Status != Models.LoanApproved {
		t.Errorf("status = %s, want approved", approved.Status)
	}
	if approved.DisbursementDate == nil || approved.ApprovedAt == nil {
		t.Error("disbursement/approval dates not set")
	}

	var product2 Models.Product
	if err := l.DB.First(&product2, product.ID).Error; err != nil {
		t.Fatal(err)
	}
	if product2.StockQuantity != 2 {
		t.Errorf("stock = %d, want 2", product2.StockQuantity)
	}

	var rows []Models.PaymentSchedule
	if err := l.DB.Where("loan_id = ?", loan.ID).Find(&rows).Error; err != nil {
		t.Fatal(err)
	}
	if len(rows) != 30 {
		t.Errorf("schedule rows = %d, want 30", len(rows))
	}

	if got := reloadCustomer(t, l, customer.ID).TotalBorrowed; !got.Equal(dec("57500")) {
		t.Errorf("total_borrowed = %s, want 57500", got)
	}
}

func TestApproveLoanInsufficientStockIsAtomic(t *testing.T) {
	l := testLedger(t)
	customer := createCustomer(t, l, "0", "0", "0")
	productA := createProduct(t, l, "Product A", "100", 5)
	productB := createProduct(t, l, "Product B", "200", 1)

	loan, err := l.CreateLoan(CreateLoanInput{
		CustomerID: customer.ID,
		Items: []LoanItemInput{
			{ProductID: productA.ID, Quantity: 2},
			{ProductID: productB.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = l.ApproveLoan(loan.ID, adminUser())
	var stockErr *Models.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if len(stockErr.Items) != 1 || stockErr.Items[0].ProductID != productB.ID {
		t.Errorf("short items = %+v, want only product B", stockErr.Items)
	}

	// No partial deduction
	var a, b Models.Product
	l.DB.First(&a, productA.ID)
	l.DB.First(&b, productB.ID)
	if a.StockQuantity != 5 || b.StockQuantity != 1 {
		t.Errorf("stock after failed approval = %d/%d, want 5/1", a.StockQuantity, b.StockQuantity)
	}

	if got := reloadLoan(t, l, loan.ID).Status; got != Models.LoanPending {
		t.Errorf("loan status = %s, want pending after failed approval", got)
	}
	if got := reloadCustomer(t, l, customer.ID).TotalBorrowed; !got.IsZero() {
		t.Errorf("total_borrowed = %s, want 0 after failed approval", got)
	}
}

func TestApproveLoanAuthority(t *testing.T) {
	l := testLedger(t)
	customer := createCustomer(t, l, "0", "0", "0")

	cases := []struct {
		name  string
		actor *Models.User
		ok    bool
	}{
		{"collector", &Models.User{Permission: Models.PermissionCollector}, false},
		{"manager over limit", &Models.User{Permission: Models.PermissionManager, ApprovalLimit: dec("1000")}, false},
		{"manager within limit", &Models.User{Permission: Models.PermissionManager, ApprovalLimit: dec("20000")}, true},
		{"manager no limit set", &Models.User{Permission: Models.PermissionManager}, true},
		{"admin always", &Models.User{Permission: Models.PermissionAdmin, ApprovalLimit: dec("1")}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			loan := createCashLoan(t, l, customer.ID, 10000, 10) // total 11000
			_, err := l.ApproveLoan(loan.ID, c.actor)
			if c.ok && err != nil {
				t.Errorf("approval failed: %v", err)
			}
			if !c.ok && !errors.Is(err, Models.ErrUnauthorized) {
				t.Errorf("err = %v, want Unauthorized", err)
			}
		})
	}
}

func TestApproveLoanOnlyFromPending(t *testing.T) {
	l := testLedger(t)
	customer := createCustomer(t, l, "0", "0", "0")
	loan := createCashLoan(t, l, customer.ID, 1000, 0)

	if _, err := l.ApproveLoan(loan.ID, adminUser()); err != nil {
		t.Fatal(err)
	}
	_, err := l.ApproveLoan(loan.ID, adminUser())
	var transitionErr *Models.InvalidTransitionError
	if !errors.As(err, &transitionErr) {
		t.Errorf("double approval err = %v, want InvalidTransitionError", err)
	}
}

func TestRejectLoanRequiresReason(t *testing.T) {
	l := testLedger(t)
	customer := createCustomer(t, l, "0", "0", "0")
	loan := createCashLoan(t, l, customer.ID, 1000, 0)

	if _, err := l.RejectLoan(loan.ID, ""); !errors.Is(err, Models.ErrRejectionReasonEmpty) {
		t.Errorf("err = %v, want rejection reason required", err)
	}

	rejected, err := l.RejectLoan(loan.ID, "no collateral")
	if err != nil {
		t.Fatal(err)
	}
	if rejected.Status != Models.LoanRejected {
		t.Errorf("status = %s, want rejected", rejected.Status)
	}
	if rejected.Notes == "" {
		t.Error("rejection reason not recorded in notes")
	}
}

func TestMarkAsDefaultedOnlyWhenDisbursed(t *testing.T) {
	l := testLedger(t)
	customer := createCustomer(t, l, "0", "0", "0")
	loan := createCashLoan(t, l, customer.ID, 1000, 0)

	if _, err := l.MarkAsDefaulted(loan.ID, "missed everything"); err == nil {
		t.Error("defaulting a pending loan must fail")
	}

	if _, err := l.ApproveLoan(loan.ID, adminUser()); err != nil {
		t.Fatal(err)
	}
	defaulted, err := l.MarkAsDefaulted(loan.ID, "missed everything")
	if err != nil {
		t.Fatal(err)
	}
	if defaulted.Status != Models.LoanDefaulted {
		t.Errorf("status = %s, want defaulted", defaulted.Status)
	}

	// Irreversible
	if _, err := l.ApproveLoan(loan.ID, adminUser()); err == nil {
		t.Error("defaulted loan must not be approvable")
	}
}

func TestConcurrentApprovalsNeverOversell(t *testing.T) {
	l := testLedger(t)
	product := createProduct(t, l, "Scarce", "1000", 3)

	loans := make([]*Models.Loan, 2)
	for i := range loans {
		customer := &Models.Customer{
			Name: "C", Phone: t.Name() + string(rune('A'+i)), Status: Models.CustomerActive,
		}
		if err := l.DB.Create(customer).Error; err != nil {
			t.Fatal(err)
		}
		loan, err := l.CreateLoan(CreateLoanInput{
			CustomerID: customer.ID,
			Items:      []LoanItemInput{{ProductID: product.ID, Quantity: 2}},
		})
		if err != nil {
			t.Fatal(err)
		}
		loans[i] = loan
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range loans {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = l.ApproveLoan(loans[i].ID, adminUser())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Errorf("approvals succeeded = %d, want exactly 1 (stock 3, each wants 2)", succeeded)
	}

	var after Models.Product
	l.DB.First(&after, product.ID)
	if after.StockQuantity < 0 {
		t.Errorf("stock went negative: %d", after.StockQuantity)
	}
	if after.StockQuantity != 1 {
		t.Errorf("stock = %d, want 1", after.StockQuantity)
	}
}

func TestApproveLoanDuplicateItemsChecksAggregate(t *testing.T) {
	l := testLedger(t)
	customer := createCustomer(t, l, "0", "0", "0")
	product := createProduct(t, l, "Product", "100", 5)

	// Same product on two lines; the combined quantity exceeds stock even
	// though each line alone fits.
	loan, err := l.CreateLoan(CreateLoanInput{
		CustomerID: customer.ID,
		Items: []LoanItemInput{
			{ProductID: product.ID, Quantity: 3},
			{ProductID: product.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = l.ApproveLoan(loan.ID, adminUser())
	var stockErr *Models.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if len(stockErr.Items) != 1 {
		t.Fatalf("short items = %+v, want the product reported once", stockErr.Items)
	}
	if got := stockErr.Items[0]; got.Requested != 6 || got.Available != 5 {
		t.Errorf("short item = requested %d / available %d, want 6/5", got.Requested, got.Available)
	}

	var after Models.Product
	l.DB.First(&after, product.ID)
	if after.StockQuantity != 5 {
		t.Errorf("stock after failed approval = %d, want 5", after.StockQuantity)
	}
	if got := reloadLoan(t, l, loan.ID).Status; got != Models.LoanPending {
		t.Errorf("loan status = %s, want pending after failed approval", got)
	}
}

func TestApproveLoanDuplicateItemsDeductOnce(t *testing.T) {
	l := testLedger(t)
	customer := createCustomer(t, l, "0", "0", "0")
	product := createProduct(t, l, "Product", "100", 6)

	loan, err := l.CreateLoan(CreateLoanInput{
		CustomerID: customer.ID,
		Items: []LoanItemInput{
			{ProductID: product.ID, Quantity: 3},
			{ProductID: product.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !loan.PrincipalAmount.Equal(dec("600")) {
		t.Errorf("principal = %s, want 600", loan.PrincipalAmount)
	}

	if _, err := l.ApproveLoan(loan.ID, adminUser()); err != nil {
		t.Fatal(err)
	}

	var after Models.Product
	l.DB.First(&after, product.ID)
	if after.StockQuantity != 0 {
		t.Errorf("stock after approval = %d, want 0 (both lines committed)", after.StockQuantity)
	}
	if after.IsAvailable {
		t.Error("product still available at zero stock")
	}
}

func TestApproveLoanHonorsRequestedDuration(t *testing.T) {
	l := testLedger(t)
	customer := createCustomer(t, l, "0", "0", "0")

	loan, err := l.CreateLoan(CreateLoanInput{
		CustomerID:      customer.ID,
		PrincipalAmount: 1000,
		DurationDays:    10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.ApproveLoan(loan.ID, adminUser()); err != nil {
		t.Fatal(err)
	}

	loan = reloadLoan(t, l, loan.ID)
	if loan.AdjustedDurationDays != 10 {
		t.Errorf("adjusted_duration_days = %d, want the requested 10 over the configured 30", loan.AdjustedDurationDays)
	}
	if !loan.DailyPaymentAmount.Equal(dec("100")) {
		t.Errorf("daily_payment_amount = %s, want 100", loan.DailyPaymentAmount)
	}

	var rows []Models.PaymentSchedule
	if err := l.DB.Where("loan_id = ?", loan.ID).Find(&rows).Error; err != nil {
		t.Fatal(err)
	}
	if len(rows) != 10 {
		t.Errorf("schedule rows = %d, want 10", len(rows))
	}
}
