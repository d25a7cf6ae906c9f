package orderitem

import (
	"time"

	"github.com/fluxmart/order/internal/service/models/currency"
)

// OrderItem is a snapshot of a product line within an order. Name, image
// and price are captured at the time the line enters the order and are
// never refreshed from the live product afterwards.
type OrderItem struct {
	ID            int64             `json:"id"`
	OrderID       int64             `json:"orderId"`
	ProductID     int64             `json:"productId"`
	VendorID      int64             `json:"vendorId"`
	ProductName   string            `json:"productName"`
	ProductImage  string            `json:"productImage"`
	PriceCents    int64             `json:"priceCents"`
	PriceCurrency currency.Currency `json:"priceCurrency"`
	Quantity      int               `json:"quantity"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}
