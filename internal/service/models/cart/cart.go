package cart

// Line is a product/quantity pair from a customer's cart. The cart is
// consumed exactly once when orders are created from it.
type Line struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}
