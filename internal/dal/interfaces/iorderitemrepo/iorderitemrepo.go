package iorderitemrepo

import (
	"context"

	"github.com/fluxmart/order/internal/service/models/orderitem"
)

// IOrderItemRepository is an interface for the order item postgres
// repository.
type IOrderItemRepository interface {
	BulkInsert(ctx context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error)
	Query(ctx context.Context, filter *orderitem.QueryOrderItemsModel) ([]orderitem.OrderItem, error)

	// ReplaceForOrder swaps the full line-item set of one order.
	ReplaceForOrder(ctx context.Context, orderID int64, items []orderitem.OrderItem) ([]orderitem.OrderItem, error)
}
