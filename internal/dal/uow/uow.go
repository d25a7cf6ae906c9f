package uow

import (
	"context"

	"github.com/fluxmart/order/internal/dal/interfaces/icartrepo"
	"github.com/fluxmart/order/internal/dal/interfaces/iorderitemrepo"
	"github.com/fluxmart/order/internal/dal/interfaces/iorderrepo"
	"github.com/fluxmart/order/internal/dal/interfaces/ioutboxrepo"
	"github.com/fluxmart/order/internal/dal/interfaces/istockrepo"
	"github.com/fluxmart/order/internal/dal/postgres"
	cartrepo "github.com/fluxmart/order/internal/dal/repositories/cart/postgres"
	orderrepo "github.com/fluxmart/order/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/fluxmart/order/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/fluxmart/order/internal/dal/repositories/outbox/postgres"
	stockrepo "github.com/fluxmart/order/internal/dal/repositories/stock/postgres"

	"github.com/jmoiron/sqlx"
)

// unitOfWork binds every repository touched by one lifecycle operation
// to a single database transaction. Stock reservation, order persistence
// and outbox staging either all commit or all roll back, in every
// environment.
type unitOfWork struct {
	db            *sqlx.DB
	tx            *sqlx.Tx
	orderRepo     iorderrepo.IOrderRepository
	orderItemRepo iorderitemrepo.IOrderItemRepository
	stockRepo     istockrepo.IStockRepository
	cartRepo      icartrepo.ICartRepository
	outboxRepo    ioutboxrepo.IOutboxRepository
}

func NewUnitOfWork(client *postgres.Client) *unitOfWork {
	u := &unitOfWork{db: client.DB()}
	u.bind(u.db)

	return u
}

func (u *unitOfWork) bind(conn sqlx.ExtContext) {
	u.orderRepo = orderrepo.NewPostgresOrderRepository(conn)
	u.orderItemRepo = orderitemrepo.NewPostgresOrderItemRepository(conn)
	u.stockRepo = stockrepo.NewPostgresStockRepository(conn)
	u.cartRepo = cartrepo.NewPostgresCartRepository(conn)
	u.outboxRepo = outboxrepo.NewOutboxRepository(conn)
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *unitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

func (u *unitOfWork) StockRepository() istockrepo.IStockRepository {
	return u.stockRepo
}

func (u *unitOfWork) CartRepository() icartrepo.ICartRepository {
	return u.cartRepo
}

func (u *unitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	u.tx = tx
	u.bind(tx)

	return nil
}

func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Commit()
	u.tx = nil
	u.bind(u.db)

	return err
}

func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback()
	u.tx = nil
	u.bind(u.db)

	return err
}
