package postgresrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/fluxmart/order/internal/service/models/currency"
	"github.com/fluxmart/order/internal/service/models/order"
	"github.com/fluxmart/order/internal/service/models/orderitem"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// OrderDal represents order data access layer model
type OrderDal struct {
	Id                    int64      `db:"id"`
	CustomerId            int64      `db:"customer_id"`
	ShippingStreet        string     `db:"shipping_street"`
	ShippingCity          string     `db:"shipping_city"`
	ShippingState         string     `db:"shipping_state"`
	ShippingZipCode       string     `db:"shipping_zip_code"`
	ShippingCountry       string     `db:"shipping_country"`
	PaymentMethod         string     `db:"payment_method"`
	ItemsPriceCents       int64      `db:"items_price_cents"`
	ShippingPriceCents    int64      `db:"shipping_price_cents"`
	TaxPriceCents         int64      `db:"tax_price_cents"`
	TotalPriceCents       int64      `db:"total_price_cents"`
	PriceCurrency         string     `db:"price_currency"`
	Status                string     `db:"status"`
	IsPaid                bool       `db:"is_paid"`
	PaidAt                *time.Time `db:"paid_at"`
	IsShipped             bool       `db:"is_shipped"`
	ShippedAt             *time.Time `db:"shipped_at"`
	IsDelivered           bool       `db:"is_delivered"`
	DeliveredAt           *time.Time `db:"delivered_at"`
	IsRefunded            bool       `db:"is_refunded"`
	RefundedAt            *time.Time `db:"refunded_at"`
	CancellationReason    string     `db:"cancellation_reason"`
	CancelledAt           *time.Time `db:"cancelled_at"`
	TrackingNumber        string     `db:"tracking_number"`
	Courier               string     `db:"courier"`
	EstimatedDeliveryDate *time.Time `db:"estimated_delivery_date"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
}

// ToModel converts OrderDal to service layer Order model
func (o *OrderDal) ToModel() (*order.Order, error) {
	cur, err := currency.ParseCurrency(o.PriceCurrency)
	if err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(o.Status)
	if err != nil {
		return nil, err
	}
	method, err := order.ParsePaymentMethod(o.PaymentMethod)
	if err != nil {
		return nil, err
	}

	return &order.Order{
		ID:         o.Id,
		CustomerID: o.CustomerId,
		ShippingAddress: order.ShippingAddress{
			Street:  o.ShippingStreet,
			City:    o.ShippingCity,
			State:   o.ShippingState,
			ZipCode: o.ShippingZipCode,
			Country: o.ShippingCountry,
		},
		PaymentMethod:         method,
		ItemsPriceCents:       o.ItemsPriceCents,
		ShippingPriceCents:    o.ShippingPriceCents,
		TaxPriceCents:         o.TaxPriceCents,
		TotalPriceCents:       o.TotalPriceCents,
		PriceCurrency:         cur,
		Status:                status,
		IsPaid:                o.IsPaid,
		PaidAt:                o.PaidAt,
		IsShipped:             o.IsShipped,
		ShippedAt:             o.ShippedAt,
		IsDelivered:           o.IsDelivered,
		DeliveredAt:           o.DeliveredAt,
		IsRefunded:            o.IsRefunded,
		RefundedAt:            o.RefundedAt,
		CancellationReason:    o.CancellationReason,
		CancelledAt:           o.CancelledAt,
		TrackingNumber:        o.TrackingNumber,
		Courier:               o.Courier,
		EstimatedDeliveryDate: o.EstimatedDeliveryDate,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
		OrderItems:            []orderitem.OrderItem{}, // Will be populated separately
	}, nil
}

// OrderDalFromModel converts service layer Order model to OrderDal
func OrderDalFromModel(o *order.Order) *OrderDal {
	return &OrderDal{
		Id:                    o.ID,
		CustomerId:            o.CustomerID,
		ShippingStreet:        o.ShippingAddress.Street,
		ShippingCity:          o.ShippingAddress.City,
		ShippingState:         o.ShippingAddress.State,
		ShippingZipCode:       o.ShippingAddress.ZipCode,
		ShippingCountry:       o.ShippingAddress.Country,
		PaymentMethod:         o.PaymentMethod.String(),
		ItemsPriceCents:       o.ItemsPriceCents,
		ShippingPriceCents:    o.ShippingPriceCents,
		TaxPriceCents:         o.TaxPriceCents,
		TotalPriceCents:       o.TotalPriceCents,
		PriceCurrency:         o.PriceCurrency.String(),
		Status:                o.Status.String(),
		IsPaid:                o.IsPaid,
		PaidAt:                o.PaidAt,
		IsShipped:             o.IsShipped,
		ShippedAt:             o.ShippedAt,
		IsDelivered:           o.IsDelivered,
		DeliveredAt:           o.DeliveredAt,
		IsRefunded:            o.IsRefunded,
		RefundedAt:            o.RefundedAt,
		CancellationReason:    o.CancellationReason,
		CancelledAt:           o.CancelledAt,
		TrackingNumber:        o.TrackingNumber,
		Courier:               o.Courier,
		EstimatedDeliveryDate: o.EstimatedDeliveryDate,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
}

var orderColumns = []string{
	"id",
	"customer_id",
	"shipping_street",
	"shipping_city",
	"shipping_state",
	"shipping_zip_code",
	"shipping_country",
	"payment_method",
	"items_price_cents",
	"shipping_price_cents",
	"tax_price_cents",
	"total_price_cents",
	"price_currency",
	"status",
	"is_paid",
	"paid_at",
	"is_shipped",
	"shipped_at",
	"is_delivered",
	"delivered_at",
	"is_refunded",
	"refunded_at",
	"cancellation_reason",
	"cancelled_at",
	"tracking_number",
	"courier",
	"estimated_delivery_date",
	"created_at",
	"updated_at",
}

type PostgresOrderRepository struct {
	conn sqlx.ExtContext
}

func NewPostgresOrderRepository(conn sqlx.ExtContext) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
	}
}

// BulkInsert inserts multiple orders and returns the inserted orders with
// IDs. Line items attached to the inputs are carried over to the results
// in insertion order.
func (r *PostgresOrderRepository) BulkInsert(ctx context.Context, orders []order.Order) ([]order.Order, error) {
	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	builder := sq.Insert("orders").
		Columns(orderColumns[1:]...).
		PlaceholderFormat(sq.Dollar).
		Suffix("RETURNING " + strings.Join(orderColumns, ", "))

	for i := range orders {
		dal := OrderDalFromModel(&orders[i])
		builder = builder.Values(
			dal.CustomerId,
			dal.ShippingStreet,
			dal.ShippingCity,
			dal.ShippingState,
			dal.ShippingZipCode,
			dal.ShippingCountry,
			dal.PaymentMethod,
			dal.ItemsPriceCents,
			dal.ShippingPriceCents,
			dal.TaxPriceCents,
			dal.TotalPriceCents,
			dal.PriceCurrency,
			dal.Status,
			dal.IsPaid,
			dal.PaidAt,
			dal.IsShipped,
			dal.ShippedAt,
			dal.IsDelivered,
			dal.DeliveredAt,
			dal.IsRefunded,
			dal.RefundedAt,
			dal.CancellationReason,
			dal.CancelledAt,
			dal.TrackingNumber,
			dal.Courier,
			dal.EstimatedDeliveryDate,
			dal.CreatedAt,
			dal.UpdatedAt,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	rows, err := r.conn.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	i := 0
	for rows.Next() {
		var dal OrderDal
		if err := rows.StructScan(&dal); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order dal to model: %w", err)
		}

		model.OrderItems = append(model.OrderItems, orders[i].OrderItems...)
		i++

		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// GetByID retrieves a single order by its ID.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate retrieves a single order and locks its row until the
// surrounding transaction ends.
func (r *PostgresOrderRepository) GetByIDForUpdate(ctx context.Context, id int64) (*order.Order, error) {
	return r.getByID(ctx, id, true)
}

func (r *PostgresOrderRepository) getByID(ctx context.Context, id int64, forUpdate bool) (*order.Order, error) {
	builder := sq.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var dal OrderDal
	if err := sqlx.GetContext(ctx, r.conn, &dal, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrNotFound
		}

		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return dal.ToModel()
}

// Query retrieves orders based on filter criteria, newest first.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	builder := sq.Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(sq.Dollar)

	if len(filter.Ids) > 0 {
		builder = builder.Where(sq.Eq{"id": filter.Ids})
	}
	if len(filter.CustomerIds) > 0 {
		builder = builder.Where(sq.Eq{"customer_id": filter.CustomerIds})
	}
	if len(filter.VendorIds) > 0 {
		builder = builder.Where(sq.Expr(
			"EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id AND oi.vendor_id = ANY(?))",
			pq.Array(filter.VendorIds),
		))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = s.String()
		}
		builder = builder.Where(sq.Eq{"status": statuses})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var dals []OrderDal
	if err := sqlx.SelectContext(ctx, r.conn, &dals, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	var result []order.Order
	for i := range dals {
		model, err := dals[i].ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order dal to model: %w", err)
		}
		result = append(result, *model)
	}

	return result, nil
}

// Update persists the mutable fields of an existing order.
func (r *PostgresOrderRepository) Update(ctx context.Context, o *order.Order) error {
	dal := OrderDalFromModel(o)

	query, args, err := sq.Update("orders").
		Set("items_price_cents", dal.ItemsPriceCents).
		Set("shipping_price_cents", dal.ShippingPriceCents).
		Set("tax_price_cents", dal.TaxPriceCents).
		Set("total_price_cents", dal.TotalPriceCents).
		Set("status", dal.Status).
		Set("is_paid", dal.IsPaid).
		Set("paid_at", dal.PaidAt).
		Set("is_shipped", dal.IsShipped).
		Set("shipped_at", dal.ShippedAt).
		Set("is_delivered", dal.IsDelivered).
		Set("delivered_at", dal.DeliveredAt).
		Set("is_refunded", dal.IsRefunded).
		Set("refunded_at", dal.RefundedAt).
		Set("cancellation_reason", dal.CancellationReason).
		Set("cancelled_at", dal.CancelledAt).
		Set("tracking_number", dal.TrackingNumber).
		Set("courier", dal.Courier).
		Set("estimated_delivery_date", dal.EstimatedDeliveryDate).
		Set("updated_at", dal.UpdatedAt).
		Where(sq.Eq{"id": dal.Id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	res, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return order.ErrNotFound
	}

	return nil
}
