package Ledger

import (
	"Kopa/Models"
)

// RestoreStock adds quantity back to a product, re-enabling availability
// when stock becomes positive. Used for admin restock and for returning
// goods when a disbursed loan is unwound manually.
func (l *Ledger) RestoreStock(productID uint, qty int) (*Models.Product, error) {
	if qty <= 0 {
		return nil, &Models.ValidationError{Field: "quantity", Message: "must be positive"}
	}
	unlock := l.locks.lockProducts([]uint{productID})
	defer unlock()

	var product Models.Product
	if err := l.DB.First(&product, productID).Error; err != nil {
		return nil, notFoundOr(err)
	}
	product.Restore(qty)
	if err := l.DB.Save(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// SetAvailability is a pure flag flip; it does not touch stock counts.
func (l *Ledger) SetAvailability(productID uint, available bool) (*Models.Product, error) {
	unlock := l.locks.lockProducts([]uint{productID})
	defer unlock()

	var product Models.Product
	if err := l.DB.First(&product, productID).Error; err != nil {
		return nil, notFoundOr(err)
	}
	product.IsAvailable = available
	if err := l.DB.Save(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}
