package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/fluxmart/order/internal/service/models/cart"
	"github.com/jmoiron/sqlx"
)

// CartLineDal represents cart line data access layer model
type CartLineDal struct {
	ProductId int64 `db:"product_id"`
	Quantity  int   `db:"quantity"`
}

type PostgresCartRepository struct {
	conn sqlx.ExtContext
}

func NewPostgresCartRepository(conn sqlx.ExtContext) *PostgresCartRepository {
	return &PostgresCartRepository{
		conn: conn,
	}
}

// LoadAndClear returns the customer's cart lines and deletes them. Run
// this inside the order creation transaction: a rollback restores the
// cart.
func (r *PostgresCartRepository) LoadAndClear(ctx context.Context, customerID int64) ([]cart.Line, error) {
	query, args, err := sq.Select("product_id", "quantity").
		From("cart_items").
		Where(sq.Eq{"customer_id": customerID}).
		OrderBy("id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var dals []CartLineDal
	if err := sqlx.SelectContext(ctx, r.conn, &dals, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}

	query, args, err = sq.Delete("cart_items").
		Where(sq.Eq{"customer_id": customerID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	lines := make([]cart.Line, 0, len(dals))
	for _, dal := range dals {
		lines = append(lines, cart.Line{
			ProductID: dal.ProductId,
			Quantity:  dal.Quantity,
		})
	}

	return lines, nil
}
