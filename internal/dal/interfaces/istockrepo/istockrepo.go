package istockrepo

import (
	"context"

	"github.com/fluxmart/order/internal/service/models/product"
)

// IStockRepository is the stock ledger plus the read-only catalog view
// backing it.
type IStockRepository interface {
	GetProduct(ctx context.Context, id int64) (*product.Product, error)
	GetProducts(ctx context.Context, ids []int64) ([]product.Product, error)

	// Reserve atomically checks availability and decrements stock.
	// Returns *product.InsufficientStockError when quantity exceeds the
	// current stock.
	Reserve(ctx context.Context, productID int64, quantity int) error

	// Release increments stock back by quantity.
	Release(ctx context.Context, productID int64, quantity int) error
}
