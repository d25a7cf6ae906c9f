package postgresrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/fluxmart/order/internal/service/models/currency"
	"github.com/fluxmart/order/internal/service/models/product"
	"github.com/jmoiron/sqlx"
)

// ProductDal represents product data access layer model
type ProductDal struct {
	Id            int64     `db:"id"`
	VendorId      int64     `db:"vendor_id"`
	Name          string    `db:"name"`
	ImageUrl      string    `db:"image_url"`
	PriceCents    int64     `db:"price_cents"`
	PriceCurrency string    `db:"price_currency"`
	Stock         int       `db:"stock"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// ToModel converts ProductDal to service layer Product model
func (p *ProductDal) ToModel() (*product.Product, error) {
	cur, err := currency.ParseCurrency(p.PriceCurrency)
	if err != nil {
		return nil, err
	}

	return &product.Product{
		ID:            p.Id,
		VendorID:      p.VendorId,
		Name:          p.Name,
		ImageURL:      p.ImageUrl,
		PriceCents:    p.PriceCents,
		PriceCurrency: cur,
		Stock:         p.Stock,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}, nil
}

var productColumns = []string{
	"id",
	"vendor_id",
	"name",
	"image_url",
	"price_cents",
	"price_currency",
	"stock",
	"created_at",
	"updated_at",
}

// PostgresStockRepository is the stock ledger over the products table.
// Reservation is a single conditional UPDATE, so the availability check
// and the decrement are one atomic statement serialized by row locks.
type PostgresStockRepository struct {
	conn sqlx.ExtContext
}

func NewPostgresStockRepository(conn sqlx.ExtContext) *PostgresStockRepository {
	return &PostgresStockRepository{
		conn: conn,
	}
}

// GetProduct retrieves a single product by ID.
func (r *PostgresStockRepository) GetProduct(ctx context.Context, id int64) (*product.Product, error) {
	query, args, err := sq.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var dal ProductDal
	if err := sqlx.GetContext(ctx, r.conn, &dal, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, product.ErrNotFound
		}

		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return dal.ToModel()
}

// GetProducts retrieves all products with the given IDs.
func (r *PostgresStockRepository) GetProducts(ctx context.Context, ids []int64) ([]product.Product, error) {
	if len(ids) == 0 {
		return []product.Product{}, nil
	}

	query, args, err := sq.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": ids}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var dals []ProductDal
	if err := sqlx.SelectContext(ctx, r.conn, &dals, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	var result []product.Product
	for i := range dals {
		model, err := dals[i].ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert product dal to model: %w", err)
		}
		result = append(result, *model)
	}

	return result, nil
}

// Reserve decrements stock by quantity if and only if enough stock is
// available. The check and the decrement execute as one statement.
func (r *PostgresStockRepository) Reserve(ctx context.Context, productID int64, quantity int) error {
	query, args, err := sq.Update("products").
		Set("stock", sq.Expr("stock - ?", quantity)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": productID}).
		Where(sq.GtOrEq{"stock": quantity}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build reserve query: %w", err)
	}

	res, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		p, err := r.GetProduct(ctx, productID)
		if err != nil {
			return err
		}

		return &product.InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: p.Stock,
		}
	}

	return nil
}

// Release increments stock back by quantity.
func (r *PostgresStockRepository) Release(ctx context.Context, productID int64, quantity int) error {
	query, args, err := sq.Update("products").
		Set("stock", sq.Expr("stock + ?", quantity)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": productID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build release query: %w", err)
	}

	res, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to release stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return product.ErrNotFound
	}

	return nil
}
