package Models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CustomerActive      = "active"
	CustomerInactive    = "inactive"
	CustomerBlacklisted = "blacklisted"
)

type Customer struct {
	gorm.Model
	Name  string `json:"name" gorm:"size:255;not null"`
	Phone string `json:"phone" gorm:"size:20;not null;uniqueIndex"`

	// A credit limit of zero means no limit is enforced yet; the account
	// is awaiting admin review.
	CreditLimit   decimal.Decimal `json:"credit_limit" gorm:"type:decimal(12,2);default:0"`
	TotalBorrowed decimal.Decimal `json:"total_borrowed" gorm:"type:decimal(12,2);default:0"`
	TotalPaid     decimal.Decimal `json:"total_paid" gorm:"type:decimal(12,2);default:0"`
	LoanCount     int             `json:"loan_count" gorm:"default:0"`
	Status        string          `json:"status" gorm:"size:20;default:active;index"`

	// Document store references, persisted verbatim and reused across loans.
	PhotoPath      string `json:"photo_path" gorm:"size:500"`
	NationalIDPath string `json:"national_id_path" gorm:"size:500"`

	Loans []Loan `json:"loans,omitempty" gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
}

// Outstanding is the customer's current debt across all loans.
func (c *Customer) Outstanding() decimal.Decimal {
	return c.TotalBorrowed.Sub(c.TotalPaid)
}

// AvailableCredit returns how much more the customer may borrow, and
// whether a limit is enforced at all.
func (c *Customer) AvailableCredit() (decimal.Decimal, bool) {
	if !c.CreditLimit.GreaterThan(decimal.Zero) {
		return decimal.Zero, false
	}
	return c.CreditLimit.Sub(c.Outstanding()), true
}

// CanBorrow checks the customer's account standing.
func (c *Customer) CanBorrow() error {
	switch c.Status {
	case CustomerBlacklisted:
		return ErrCustomerBlacklisted
	case CustomerActive:
		return nil
	default:
		return ErrCustomerInactive
	}
}
