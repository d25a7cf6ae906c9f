package ordersvc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fluxmart/order/internal/dal/interfaces/icartrepo"
	"github.com/fluxmart/order/internal/dal/interfaces/iorderitemrepo"
	"github.com/fluxmart/order/internal/dal/interfaces/iorderrepo"
	"github.com/fluxmart/order/internal/dal/interfaces/ioutboxrepo"
	"github.com/fluxmart/order/internal/dal/interfaces/istockrepo"
	"github.com/fluxmart/order/internal/dal/postgres"
	"github.com/fluxmart/order/internal/dal/uow"
	"github.com/fluxmart/order/internal/service/models/actor"
	"github.com/fluxmart/order/internal/service/models/cart"
	"github.com/fluxmart/order/internal/service/models/currency"
	"github.com/fluxmart/order/internal/service/models/order"
	"github.com/fluxmart/order/internal/service/models/orderitem"
	"github.com/fluxmart/order/internal/service/models/outbox"
	"github.com/fluxmart/order/internal/service/models/product"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

const (
	defaultShippingPriceCents = 1000
	defaultOutboxMaxRetries   = 5
)

// OrderService owns the order lifecycle: creation from a cart, customer
// edits, cancellation, status advancement and the payment toggle. Every
// mutating operation runs inside a unit of work so stock movements,
// order writes and notification events commit or roll back together.
type OrderService struct {
	pgClient           *postgres.Client
	uowFactory         func() unitOfWork
	clock              func() time.Time
	shippingPriceCents int64
	outboxMaxRetries   int
}

func (s *OrderService) newUOW() unitOfWork {
	return s.uowFactory()
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	StockRepository() istockrepo.IStockRepository
	CartRepository() icartrepo.ICartRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.uowFactory == nil {
		if s.pgClient == nil {
			panic("order service requires a postgres client or a unit of work factory")
		}
		s.uowFactory = func() unitOfWork {
			return uow.NewUnitOfWork(s.pgClient)
		}
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.shippingPriceCents == 0 {
		s.shippingPriceCents = viper.GetInt64("orders.shipping_price_cents")
		if s.shippingPriceCents == 0 {
			s.shippingPriceCents = defaultShippingPriceCents
		}
	}
	if s.outboxMaxRetries == 0 {
		s.outboxMaxRetries = viper.GetInt("rabbitmq.outbox.max_retries")
		if s.outboxMaxRetries == 0 {
			s.outboxMaxRetries = defaultOutboxMaxRetries
		}
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.pgClient = pgClient
	}
}

// WithUnitOfWorkFactory overrides how units of work are created.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory func() unitOfWork) option {
	return func(s *OrderService) {
		s.uowFactory = func() unitOfWork { return factory() }
	}
}

// WithClock overrides the time source.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(clock func() time.Time) option {
	return func(s *OrderService) {
		s.clock = clock
	}
}

// WithShippingPriceCents overrides the flat shipping price policy.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithShippingPriceCents(cents int64) option {
	return func(s *OrderService) {
		s.shippingPriceCents = cents
	}
}

// CreateOrder turns the customer's cart into pending orders, one per
// vendor represented in the cart. Stock is reserved per line with an
// atomic check-and-decrement; any failure rolls back every reservation
// already made and leaves the cart untouched.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	customerID int64,
	address order.ShippingAddress,
	method order.PaymentMethod,
) ([]order.Order, error) {
	ctx, span := otel.Tracer("order-svc").Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	now := s.clock()
	work := s.newUOW()

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = work.Rollback() }()

	lines, err := work.CartRepository().LoadAndClear(ctx, customerID)
	if err != nil {
		return nil, err
	}
	lines, err = normalizeLines(lines)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, order.ErrEmptyCart
	}

	products, err := s.loadProducts(ctx, work, lines)
	if err != nil {
		return nil, err
	}

	// One order per vendor, vendor order following cart order.
	var vendorIDs []int64
	linesByVendor := make(map[int64][]cart.Line)
	for _, line := range lines {
		vendorID := products[line.ProductID].VendorID
		if _, ok := linesByVendor[vendorID]; !ok {
			vendorIDs = append(vendorIDs, vendorID)
		}
		linesByVendor[vendorID] = append(linesByVendor[vendorID], line)
	}

	orders := make([]order.Order, 0, len(vendorIDs))
	for _, vendorID := range vendorIDs {
		items := make([]orderitem.OrderItem, 0, len(linesByVendor[vendorID]))
		for _, line := range linesByVendor[vendorID] {
			if err := work.StockRepository().Reserve(ctx, line.ProductID, line.Quantity); err != nil {
				return nil, err
			}
			items = append(items, snapshotItem(products[line.ProductID], line.Quantity, now))
		}

		o := order.Order{
			CustomerID:         customerID,
			ShippingAddress:    address,
			PaymentMethod:      method,
			ShippingPriceCents: s.shippingPriceCents,
			PriceCurrency:      currency.CurrencyUSD,
			Status:             order.StatusPending,
			CreatedAt:          now,
		}
		o.SetItems(items, now)
		orders = append(orders, o)
	}

	inserted, err := work.OrderRepository().BulkInsert(ctx, orders)
	if err != nil {
		return nil, err
	}

	flatItems := make([]orderitem.OrderItem, 0, len(lines))
	for _, o := range inserted {
		for _, item := range o.OrderItems {
			item.OrderID = o.ID
			flatItems = append(flatItems, item)
		}
	}
	flatItems, err = work.OrderItemRepository().BulkInsert(ctx, flatItems)
	if err != nil {
		return nil, err
	}

	for i := range inserted {
		inserted[i].OrderItems = nil
		for _, item := range flatItems {
			if item.OrderID == inserted[i].ID {
				inserted[i].OrderItems = append(inserted[i].OrderItems, item)
			}
		}
	}

	for i := range inserted {
		if err := s.enqueueEvent(ctx, work, outbox.QueueOrderCreated, &inserted[i], now); err != nil {
			return nil, err
		}
	}

	if err := work.Commit(); err != nil {
		return nil, err
	}

	return inserted, nil
}

// EditOrder replaces a pending unpaid order's line items, applying only
// the per-product quantity delta to the stock ledger. A product absent
// from the prior order has prior quantity zero; a product dropped from
// the new set is released in full.
func (s *OrderService) EditOrder(
	ctx context.Context,
	orderID int64,
	requester actor.Actor,
	newLines []cart.Line,
) (*order.Order, error) {
	ctx, span := otel.Tracer("order-svc").Start(ctx, "OrderService.EditOrder")
	defer span.End()

	now := s.clock()
	work := s.newUOW()

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = work.Rollback() }()

	o, err := s.loadOrderForUpdate(ctx, work, orderID)
	if err != nil {
		return nil, err
	}

	if o.CustomerID != requester.ID {
		return nil, order.ErrNotAuthorized
	}
	if !o.CanBeEdited() {
		return nil, order.ErrNotEditable
	}

	newLines, err = normalizeLines(newLines)
	if err != nil {
		return nil, err
	}
	if len(newLines) == 0 {
		return nil, order.ErrEmptyOrder
	}

	products, err := s.loadProducts(ctx, work, newLines)
	if err != nil {
		return nil, err
	}

	priorQuantities := make(map[int64]int, len(o.OrderItems))
	for _, item := range o.OrderItems {
		priorQuantities[item.ProductID] += item.Quantity
	}

	// Reserve increases and release decreases product by product; the
	// transaction guarantees no partial result survives a failure.
	for _, line := range newLines {
		delta := line.Quantity - priorQuantities[line.ProductID]
		switch {
		case delta > 0:
			if err := work.StockRepository().Reserve(ctx, line.ProductID, delta); err != nil {
				return nil, err
			}
		case delta < 0:
			if err := work.StockRepository().Release(ctx, line.ProductID, -delta); err != nil {
				return nil, err
			}
		}
		delete(priorQuantities, line.ProductID)
	}
	for productID, quantity := range priorQuantities {
		if err := work.StockRepository().Release(ctx, productID, quantity); err != nil {
			return nil, err
		}
	}

	items := make([]orderitem.OrderItem, 0, len(newLines))
	for _, line := range newLines {
		item := snapshotItem(products[line.ProductID], line.Quantity, now)
		item.OrderID = o.ID
		items = append(items, item)
	}

	items, err = work.OrderItemRepository().ReplaceForOrder(ctx, o.ID, items)
	if err != nil {
		return nil, err
	}

	o.SetItems(items, now)
	if err := work.OrderRepository().Update(ctx, o); err != nil {
		return nil, err
	}

	if err := work.Commit(); err != nil {
		return nil, err
	}

	return o, nil
}

// CancelOrder moves an order to the terminal cancelled status, releasing
// the full reserved quantity of every line item and recording a refund
// when the order had been paid.
func (s *OrderService) CancelOrder(
	ctx context.Context,
	orderID int64,
	requester actor.Actor,
	reason string,
) (*order.Order, error) {
	ctx, span := otel.Tracer("order-svc").Start(ctx, "OrderService.CancelOrder")
	defer span.End()

	now := s.clock()
	work := s.newUOW()

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = work.Rollback() }()

	o, err := s.loadOrderForUpdate(ctx, work, orderID)
	if err != nil {
		return nil, err
	}

	if o.CustomerID != requester.ID && !requester.IsAdmin() {
		return nil, order.ErrNotAuthorized
	}

	if err := o.Cancel(reason, now); err != nil {
		return nil, err
	}

	for _, item := range o.OrderItems {
		if err := work.StockRepository().Release(ctx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}

	if err := work.OrderRepository().Update(ctx, o); err != nil {
		return nil, err
	}
	if err := s.enqueueEvent(ctx, work, outbox.QueueOrderStatusChanged, o, now); err != nil {
		return nil, err
	}

	if err := work.Commit(); err != nil {
		return nil, err
	}

	return o, nil
}

// AdvanceStatus moves an order forward along pending → accepted →
// processing → shipped → delivered. Shipping requires full tracking
// details. Cancellation is not reachable through this operation.
func (s *OrderService) AdvanceStatus(
	ctx context.Context,
	orderID int64,
	requester actor.Actor,
	newStatus order.Status,
	details *order.ShippingDetails,
) (*order.Order, error) {
	ctx, span := otel.Tracer("order-svc").Start(ctx, "OrderService.AdvanceStatus")
	defer span.End()

	now := s.clock()
	work := s.newUOW()

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = work.Rollback() }()

	o, err := s.loadOrderForUpdate(ctx, work, orderID)
	if err != nil {
		return nil, err
	}

	if !requester.IsAdmin() && !o.HasVendor(requester.ID) {
		return nil, order.ErrNotAuthorized
	}

	// Cancelling releases stock and must go through CancelOrder.
	if newStatus == order.StatusCancelled {
		return nil, &order.InvalidTransitionError{From: o.Status, To: newStatus}
	}

	if newStatus == order.StatusShipped {
		var d order.ShippingDetails
		if details != nil {
			d = *details
		}
		if err := o.Ship(d, now); err != nil {
			return nil, err
		}
	} else {
		if err := o.Transition(newStatus, now); err != nil {
			return nil, err
		}
	}

	if err := work.OrderRepository().Update(ctx, o); err != nil {
		return nil, err
	}
	if err := s.enqueueEvent(ctx, work, outbox.QueueOrderStatusChanged, o, now); err != nil {
		return nil, err
	}

	if err := work.Commit(); err != nil {
		return nil, err
	}

	return o, nil
}

// TogglePayment flips the cash-on-delivery payment flag. Cancelled
// orders are rejected.
func (s *OrderService) TogglePayment(
	ctx context.Context,
	orderID int64,
	requester actor.Actor,
) (*order.Order, error) {
	ctx, span := otel.Tracer("order-svc").Start(ctx, "OrderService.TogglePayment")
	defer span.End()

	now := s.clock()
	work := s.newUOW()

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = work.Rollback() }()

	o, err := s.loadOrderForUpdate(ctx, work, orderID)
	if err != nil {
		return nil, err
	}

	if !requester.IsAdmin() && !o.HasVendor(requester.ID) {
		return nil, order.ErrNotAuthorized
	}

	if err := o.TogglePayment(now); err != nil {
		return nil, err
	}

	if err := work.OrderRepository().Update(ctx, o); err != nil {
		return nil, err
	}

	if err := work.Commit(); err != nil {
		return nil, err
	}

	return o, nil
}

// GetOrder returns one order visible to the requester: its customer, a
// vendor owning a line item, or an admin.
func (s *OrderService) GetOrder(
	ctx context.Context,
	orderID int64,
	requester actor.Actor,
) (*order.Order, error) {
	ctx, span := otel.Tracer("order-svc").Start(ctx, "OrderService.GetOrder")
	defer span.End()

	work := s.newUOW()

	o, err := s.loadOrder(ctx, work, orderID)
	if err != nil {
		return nil, err
	}

	if !requester.IsAdmin() && o.CustomerID != requester.ID && !o.HasVendor(requester.ID) {
		return nil, order.ErrNotAuthorized
	}

	return o, nil
}

// ListOrders returns orders visible to the requester, newest first.
// Customers see their own orders, vendors the orders containing their
// line items, admins everything.
func (s *OrderService) ListOrders(
	ctx context.Context,
	requester actor.Actor,
	limit int,
	offset int,
) ([]order.Order, error) {
	ctx, span := otel.Tracer("order-svc").Start(ctx, "OrderService.ListOrders")
	defer span.End()

	work := s.newUOW()

	filter := &order.QueryOrdersModel{Limit: limit, Offset: offset}
	switch requester.Role {
	case actor.RoleAdmin:
	case actor.RoleVendor:
		filter.VendorIds = []int64{requester.ID}
	default:
		filter.CustomerIds = []int64{requester.ID}
	}

	orders, err := work.OrderRepository().Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	itemFilter := &orderitem.QueryOrderItemsModel{}
	for _, o := range orders {
		itemFilter.OrderIds = append(itemFilter.OrderIds, o.ID)
	}
	items, err := work.OrderItemRepository().Query(ctx, itemFilter)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		for _, item := range items {
			if item.OrderID == orders[i].ID {
				orders[i].OrderItems = append(orders[i].OrderItems, item)
			}
		}
	}

	return orders, nil
}

func (s *OrderService) loadOrder(ctx context.Context, work unitOfWork, orderID int64) (*order.Order, error) {
	o, err := work.OrderRepository().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return s.attachItems(ctx, work, o)
}

func (s *OrderService) loadOrderForUpdate(ctx context.Context, work unitOfWork, orderID int64) (*order.Order, error) {
	o, err := work.OrderRepository().GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return s.attachItems(ctx, work, o)
}

func (s *OrderService) attachItems(ctx context.Context, work unitOfWork, o *order.Order) (*order.Order, error) {
	items, err := work.OrderItemRepository().Query(ctx, &orderitem.QueryOrderItemsModel{
		OrderIds: []int64{o.ID},
	})
	if err != nil {
		return nil, err
	}
	o.OrderItems = items

	return o, nil
}

func (s *OrderService) loadProducts(ctx context.Context, work unitOfWork, lines []cart.Line) (map[int64]product.Product, error) {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	products, err := work.StockRepository().GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("product %d: %w", id, product.ErrNotFound)
		}
	}

	return byID, nil
}

func (s *OrderService) enqueueEvent(
	ctx context.Context,
	work unitOfWork,
	queue string,
	o *order.Order,
	now time.Time,
) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	return work.OutboxRepository().Insert(ctx, outbox.Message{
		QueueName:   queue,
		RoutingKey:  queue,
		Payload:     payload,
		ContentType: "application/json",
		MaxRetries:  s.outboxMaxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	})
}

// normalizeLines merges duplicate products and validates quantities.
func normalizeLines(lines []cart.Line) ([]cart.Line, error) {
	quantities := make(map[int64]int, len(lines))
	var productIDs []int64
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, order.ErrInvalidQuantity
		}
		if _, ok := quantities[line.ProductID]; !ok {
			productIDs = append(productIDs, line.ProductID)
		}
		quantities[line.ProductID] += line.Quantity
	}

	result := make([]cart.Line, 0, len(productIDs))
	for _, id := range productIDs {
		result = append(result, cart.Line{ProductID: id, Quantity: quantities[id]})
	}

	return result, nil
}

func snapshotItem(p product.Product, quantity int, now time.Time) orderitem.OrderItem {
	return orderitem.OrderItem{
		ProductID:     p.ID,
		VendorID:      p.VendorID,
		ProductName:   p.Name,
		ProductImage:  p.ImageURL,
		PriceCents:    p.PriceCents,
		PriceCurrency: p.PriceCurrency,
		Quantity:      quantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
