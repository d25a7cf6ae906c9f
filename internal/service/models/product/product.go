package product

import (
	"errors"
	"fmt"
	"time"

	"github.com/fluxmart/order/internal/service/models/currency"
)

// Product is the catalog entry read by the order service. Stock is the
// live available-quantity counter mutated only through reserve/release.
type Product struct {
	ID            int64             `json:"id"`
	VendorID      int64             `json:"vendorId"`
	Name          string            `json:"name"`
	ImageURL      string            `json:"imageUrl"`
	PriceCents    int64             `json:"priceCents"`
	PriceCurrency currency.Currency `json:"priceCurrency"`
	Stock         int               `json:"stock"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

var ErrNotFound = errors.New("product not found")

// InsufficientStockError is returned when a reservation would drive a
// product's stock negative.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available,
	)
}
