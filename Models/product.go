package Models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	gorm.Model
	Name          string          `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	StockQuantity int             `json:"stock_quantity" gorm:"not null;default:0"`
	IsAvailable   bool            `json:"is_available" gorm:"default:true"`
}

// Deduct removes qty from stock and clears availability at zero. The
// caller is responsible for having checked the quantity first; Deduct
// never lets stock go negative.
func (p *Product) Deduct(qty int) bool {
	if !p.IsAvailable || p.StockQuantity < qty {
		return false
	}
	p.StockQuantity -= qty
	if p.StockQuantity == 0 {
		p.IsAvailable = false
	}
	return true
}

// Restore adds qty back to stock and re-enables availability when stock
// becomes positive.
func (p *Product) Restore(qty int) {
	p.StockQuantity += qty
	if p.StockQuantity > 0 {
		p.IsAvailable = true
	}
}
