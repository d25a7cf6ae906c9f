package iorderrepo

import (
	"context"

	"github.com/fluxmart/order/internal/service/models/order"
)

// IOrderRepository is an interface for the order postgres repository.
type IOrderRepository interface {
	BulkInsert(ctx context.Context, orders []order.Order) ([]order.Order, error)
	GetByID(ctx context.Context, id int64) (*order.Order, error)

	// GetByIDForUpdate locks the order row for the duration of the
	// surrounding transaction so concurrent mutations serialize.
	GetByIDForUpdate(ctx context.Context, id int64) (*order.Order, error)
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	Update(ctx context.Context, o *order.Order) error
}
