package icartrepo

import (
	"context"

	"github.com/fluxmart/order/internal/service/models/cart"
)

// ICartRepository is an interface for the cart postgres repository.
type ICartRepository interface {
	// LoadAndClear returns the customer's cart lines and empties the
	// cart in the same call. Run inside the order creation transaction
	// so a failed creation leaves the cart intact.
	LoadAndClear(ctx context.Context, customerID int64) ([]cart.Line, error)
}
