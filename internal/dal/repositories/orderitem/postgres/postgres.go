package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/fluxmart/order/internal/service/models/currency"
	"github.com/fluxmart/order/internal/service/models/orderitem"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// OrderItemDal represents order item data access layer model
type OrderItemDal struct {
	Id            int64     `db:"id"`
	OrderId       int64     `db:"order_id"`
	ProductId     int64     `db:"product_id"`
	VendorId      int64     `db:"vendor_id"`
	ProductName   string    `db:"product_name"`
	ProductImage  string    `db:"product_image"`
	PriceCents    int64     `db:"price_cents"`
	PriceCurrency string    `db:"price_currency"`
	Quantity      int       `db:"quantity"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// ToModel converts OrderItemDal to service layer OrderItem model
func (o *OrderItemDal) ToModel() (*orderitem.OrderItem, error) {
	cur, err := currency.ParseCurrency(o.PriceCurrency)
	if err != nil {
		return nil, err
	}

	return &orderitem.OrderItem{
		ID:            o.Id,
		OrderID:       o.OrderId,
		ProductID:     o.ProductId,
		VendorID:      o.VendorId,
		ProductName:   o.ProductName,
		ProductImage:  o.ProductImage,
		PriceCents:    o.PriceCents,
		PriceCurrency: cur,
		Quantity:      o.Quantity,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}, nil
}

type PostgresOrderItemRepository struct {
	conn sqlx.ExtContext
}

func NewPostgresOrderItemRepository(conn sqlx.ExtContext) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
	}
}

// BulkInsert inserts multiple order items and returns them with IDs.
func (r *PostgresOrderItemRepository) BulkInsert(ctx context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	if len(items) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	query := `
		INSERT INTO order_items (
			order_id,
			product_id,
			vendor_id,
			product_name,
			product_image,
			price_cents,
			price_currency,
			quantity,
			created_at,
			updated_at
		)
		SELECT
			order_id,
			product_id,
			vendor_id,
			product_name,
			product_image,
			price_cents,
			price_currency,
			quantity,
			created_at,
			updated_at
		FROM unnest(
			$1::bigint[], $2::bigint[], $3::bigint[], $4::text[], $5::text[],
			$6::bigint[], $7::text[], $8::int[], $9::timestamptz[], $10::timestamptz[]
		)
		AS t(order_id, product_id, vendor_id, product_name, product_image,
			price_cents, price_currency, quantity, created_at, updated_at)
		RETURNING
			id,
			order_id,
			product_id,
			vendor_id,
			product_name,
			product_image,
			price_cents,
			price_currency,
			quantity,
			created_at,
			updated_at
	`

	orderIds := make([]int64, len(items))
	productIds := make([]int64, len(items))
	vendorIds := make([]int64, len(items))
	productNames := make([]string, len(items))
	productImages := make([]string, len(items))
	priceCents := make([]int64, len(items))
	priceCurrencies := make([]string, len(items))
	quantities := make([]int32, len(items))
	createdAts := make([]time.Time, len(items))
	updatedAts := make([]time.Time, len(items))

	for i, item := range items {
		orderIds[i] = item.OrderID
		productIds[i] = item.ProductID
		vendorIds[i] = item.VendorID
		productNames[i] = item.ProductName
		productImages[i] = item.ProductImage
		priceCents[i] = item.PriceCents
		priceCurrencies[i] = item.PriceCurrency.String()
		quantities[i] = int32(item.Quantity)
		createdAts[i] = item.CreatedAt
		updatedAts[i] = item.UpdatedAt
	}

	rows, err := r.conn.QueryxContext(ctx, query,
		pq.Array(orderIds),
		pq.Array(productIds),
		pq.Array(vendorIds),
		pq.Array(productNames),
		pq.Array(productImages),
		pq.Array(priceCents),
		pq.Array(priceCurrencies),
		pq.Array(quantities),
		pq.Array(createdAts),
		pq.Array(updatedAts))
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}
	defer rows.Close()

	var result []orderitem.OrderItem
	for rows.Next() {
		var dal OrderItemDal
		if err := rows.StructScan(&dal); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order item dal to model: %w", err)
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// Query retrieves order items based on filter criteria.
func (r *PostgresOrderItemRepository) Query(ctx context.Context, filter *orderitem.QueryOrderItemsModel) ([]orderitem.OrderItem, error) {
	builder := sq.Select(
		"id",
		"order_id",
		"product_id",
		"vendor_id",
		"product_name",
		"product_image",
		"price_cents",
		"price_currency",
		"quantity",
		"created_at",
		"updated_at",
	).
		From("order_items").
		OrderBy("order_id ASC", "id ASC").
		PlaceholderFormat(sq.Dollar)

	if len(filter.Ids) > 0 {
		builder = builder.Where(sq.Eq{"id": filter.Ids})
	}
	if len(filter.OrderIds) > 0 {
		builder = builder.Where(sq.Eq{"order_id": filter.OrderIds})
	}
	if len(filter.ProductIds) > 0 {
		builder = builder.Where(sq.Eq{"product_id": filter.ProductIds})
	}
	if len(filter.VendorIds) > 0 {
		builder = builder.Where(sq.Eq{"vendor_id": filter.VendorIds})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var dals []OrderItemDal
	if err := sqlx.SelectContext(ctx, r.conn, &dals, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}

	var result []orderitem.OrderItem
	for i := range dals {
		model, err := dals[i].ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order item dal to model: %w", err)
		}
		result = append(result, *model)
	}

	return result, nil
}

// ReplaceForOrder deletes the current line items of an order and inserts
// the given set in their place.
func (r *PostgresOrderItemRepository) ReplaceForOrder(ctx context.Context, orderID int64, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	query, args, err := sq.Delete("order_items").
		Where(sq.Eq{"order_id": orderID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to delete order items: %w", err)
	}

	for i := range items {
		items[i].OrderID = orderID
	}

	return r.BulkInsert(ctx, items)
}
