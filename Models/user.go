package Models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Permission levels form a strict hierarchy; Verify middleware compares
// against these and loan approval checks the level plus the approval limit.
const (
	PermissionCollector  = 1
	PermissionManager    = 2
	PermissionAdmin      = 3
	PermissionSuperAdmin = 4
)

type User struct {
	gorm.Model
	Name       string `json:"name" gorm:"size:255;not null"`
	Phone      string `json:"phone" gorm:"size:20;not null;uniqueIndex"`
	Password   []byte `json:"-" gorm:"not null"`
	Permission int    `json:"permission" gorm:"not null;default:1"`

	// Managers may only approve loans up to this amount; zero means the
	// limit does not apply (Admin and above are always unlimited).
	ApprovalLimit decimal.Decimal `json:"approval_limit" gorm:"type:decimal(12,2);default:0"`
}

// CanApproveLoan checks the actor's authority for a loan of the given total.
func (u *User) CanApproveLoan(total decimal.Decimal) bool {
	if u.Permission >= PermissionAdmin {
		return true
	}
	if u.Permission < PermissionManager {
		return false
	}
	if u.ApprovalLimit.GreaterThan(decimal.Zero) && total.GreaterThan(u.ApprovalLimit) {
		return false
	}
	return true
}
