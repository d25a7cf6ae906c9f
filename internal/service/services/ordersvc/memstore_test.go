package ordersvc

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fluxmart/order/internal/dal/interfaces/icartrepo"
	"github.com/fluxmart/order/internal/dal/interfaces/iorderitemrepo"
	"github.com/fluxmart/order/internal/dal/interfaces/iorderrepo"
	"github.com/fluxmart/order/internal/dal/interfaces/ioutboxrepo"
	"github.com/fluxmart/order/internal/dal/interfaces/istockrepo"
	"github.com/fluxmart/order/internal/service/models/cart"
	"github.com/fluxmart/order/internal/service/models/order"
	"github.com/fluxmart/order/internal/service/models/orderitem"
	"github.com/fluxmart/order/internal/service/models/outbox"
	"github.com/fluxmart/order/internal/service/models/product"
)

// memStore is an in-memory stand-in for Postgres. Each unit of work
// holds the store mutex for its whole transaction, which mirrors the
// serialization the row locks give the real repositories, and restores a
// snapshot on rollback so partial mutations never survive.
type memStore struct {
	mu sync.Mutex

	products map[int64]product.Product
	orders   map[int64]order.Order
	items    map[int64]orderitem.OrderItem
	carts    map[int64][]cart.Line
	outbox   map[int64]outbox.Message

	nextOrderID  int64
	nextItemID   int64
	nextOutboxID int64
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[int64]product.Product),
		orders:   make(map[int64]order.Order),
		items:    make(map[int64]orderitem.OrderItem),
		carts:    make(map[int64][]cart.Line),
		outbox:   make(map[int64]outbox.Message),
	}
}

func (st *memStore) addProduct(p product.Product) {
	st.products[p.ID] = p
}

func (st *memStore) setCart(customerID int64, lines ...cart.Line) {
	st.carts[customerID] = lines
}

func (st *memStore) stockOf(productID int64) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	return st.products[productID].Stock
}

func (st *memStore) cartOf(customerID int64) []cart.Line {
	st.mu.Lock()
	defer st.mu.Unlock()

	return st.carts[customerID]
}

func (st *memStore) outboxMessages() []outbox.Message {
	st.mu.Lock()
	defer st.mu.Unlock()

	msgs := make([]outbox.Message, 0, len(st.outbox))
	for _, msg := range st.outbox {
		msgs = append(msgs, msg)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })

	return msgs
}

func (st *memStore) snapshot() *memStore {
	clone := newMemStore()
	for id, p := range st.products {
		clone.products[id] = p
	}
	for id, o := range st.orders {
		o.OrderItems = nil
		clone.orders[id] = o
	}
	for id, item := range st.items {
		clone.items[id] = item
	}
	for customerID, lines := range st.carts {
		clone.carts[customerID] = append([]cart.Line(nil), lines...)
	}
	for id, msg := range st.outbox {
		clone.outbox[id] = msg
	}
	clone.nextOrderID = st.nextOrderID
	clone.nextItemID = st.nextItemID
	clone.nextOutboxID = st.nextOutboxID

	return clone
}

func (st *memStore) restore(snap *memStore) {
	st.products = snap.products
	st.orders = snap.orders
	st.items = snap.items
	st.carts = snap.carts
	st.outbox = snap.outbox
	st.nextOrderID = snap.nextOrderID
	st.nextItemID = snap.nextItemID
	st.nextOutboxID = snap.nextOutboxID
}

// memUOW implements the unit of work against a memStore.
type memUOW struct {
	store *memStore
	snap  *memStore
	inTx  bool
}

func (st *memStore) newUOW() unitOfWork {
	return &memUOW{store: st}
}

func (u *memUOW) Begin(_ context.Context) error {
	u.store.mu.Lock()
	u.snap = u.store.snapshot()
	u.inTx = true

	return nil
}

func (u *memUOW) Commit() error {
	if !u.inTx {
		return nil
	}
	u.inTx = false
	u.snap = nil
	u.store.mu.Unlock()

	return nil
}

func (u *memUOW) Rollback() error {
	if !u.inTx {
		return nil
	}
	u.store.restore(u.snap)
	u.inTx = false
	u.snap = nil
	u.store.mu.Unlock()

	return nil
}

// enter locks the store for single-call access outside a transaction.
func (u *memUOW) enter() func() {
	if u.inTx {
		return func() {}
	}
	u.store.mu.Lock()

	return u.store.mu.Unlock
}

func (u *memUOW) OrderRepository() iorderrepo.IOrderRepository             { return &memOrderRepo{u} }
func (u *memUOW) OrderItemRepository() iorderitemrepo.IOrderItemRepository { return &memItemRepo{u} }
func (u *memUOW) StockRepository() istockrepo.IStockRepository             { return &memStockRepo{u} }
func (u *memUOW) CartRepository() icartrepo.ICartRepository                { return &memCartRepo{u} }
func (u *memUOW) OutboxRepository() ioutboxrepo.IOutboxRepository          { return &memOutboxRepo{u} }

type memOrderRepo struct{ u *memUOW }

func (r *memOrderRepo) BulkInsert(_ context.Context, orders []order.Order) ([]order.Order, error) {
	defer r.u.enter()()

	st := r.u.store
	inserted := make([]order.Order, len(orders))
	for i, o := range orders {
		st.nextOrderID++
		o.ID = st.nextOrderID
		stored := o
		stored.OrderItems = nil
		st.orders[o.ID] = stored
		inserted[i] = o
	}

	return inserted, nil
}

func (r *memOrderRepo) GetByID(_ context.Context, id int64) (*order.Order, error) {
	defer r.u.enter()()

	o, ok := r.u.store.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}

	return &o, nil
}

func (r *memOrderRepo) GetByIDForUpdate(ctx context.Context, id int64) (*order.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *memOrderRepo) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	defer r.u.enter()()

	st := r.u.store
	var result []order.Order
	for _, o := range st.orders {
		if len(filter.CustomerIds) > 0 && !containsInt64(filter.CustomerIds, o.CustomerID) {
			continue
		}
		if len(filter.VendorIds) > 0 && !orderHasAnyVendor(st, o.ID, filter.VendorIds) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, o.Status) {
			continue
		}
		result = append(result, o)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}

		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}

	return result, nil
}

func (r *memOrderRepo) Update(_ context.Context, o *order.Order) error {
	defer r.u.enter()()

	st := r.u.store
	if _, ok := st.orders[o.ID]; !ok {
		return order.ErrNotFound
	}
	stored := *o
	stored.OrderItems = nil
	st.orders[o.ID] = stored

	return nil
}

func orderHasAnyVendor(st *memStore, orderID int64, vendorIDs []int64) bool {
	for _, item := range st.items {
		if item.OrderID == orderID && containsInt64(vendorIDs, item.VendorID) {
			return true
		}
	}

	return false
}

type memItemRepo struct{ u *memUOW }

func (r *memItemRepo) BulkInsert(_ context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	defer r.u.enter()()

	st := r.u.store
	inserted := make([]orderitem.OrderItem, len(items))
	for i, item := range items {
		st.nextItemID++
		item.ID = st.nextItemID
		st.items[item.ID] = item
		inserted[i] = item
	}

	return inserted, nil
}

func (r *memItemRepo) Query(_ context.Context, filter *orderitem.QueryOrderItemsModel) ([]orderitem.OrderItem, error) {
	defer r.u.enter()()

	var result []orderitem.OrderItem
	for _, item := range r.u.store.items {
		if len(filter.OrderIds) > 0 && !containsInt64(filter.OrderIds, item.OrderID) {
			continue
		}
		if len(filter.ProductIds) > 0 && !containsInt64(filter.ProductIds, item.ProductID) {
			continue
		}
		if len(filter.VendorIds) > 0 && !containsInt64(filter.VendorIds, item.VendorID) {
			continue
		}
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result, nil
}

func (r *memItemRepo) ReplaceForOrder(_ context.Context, orderID int64, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	defer r.u.enter()()

	st := r.u.store
	for id, item := range st.items {
		if item.OrderID == orderID {
			delete(st.items, id)
		}
	}

	inserted := make([]orderitem.OrderItem, len(items))
	for i, item := range items {
		st.nextItemID++
		item.ID = st.nextItemID
		item.OrderID = orderID
		st.items[item.ID] = item
		inserted[i] = item
	}

	return inserted, nil
}

type memStockRepo struct{ u *memUOW }

func (r *memStockRepo) GetProduct(_ context.Context, id int64) (*product.Product, error) {
	defer r.u.enter()()

	p, ok := r.u.store.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}

	return &p, nil
}

func (r *memStockRepo) GetProducts(_ context.Context, ids []int64) ([]product.Product, error) {
	defer r.u.enter()()

	var result []product.Product
	for _, id := range ids {
		if p, ok := r.u.store.products[id]; ok {
			result = append(result, p)
		}
	}

	return result, nil
}

func (r *memStockRepo) Reserve(_ context.Context, productID int64, quantity int) error {
	defer r.u.enter()()

	st := r.u.store
	p, ok := st.products[productID]
	if !ok {
		return product.ErrNotFound
	}
	if p.Stock < quantity {
		return &product.InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: p.Stock,
		}
	}
	p.Stock -= quantity
	st.products[productID] = p

	return nil
}

func (r *memStockRepo) Release(_ context.Context, productID int64, quantity int) error {
	defer r.u.enter()()

	st := r.u.store
	p, ok := st.products[productID]
	if !ok {
		return product.ErrNotFound
	}
	p.Stock += quantity
	st.products[productID] = p

	return nil
}

type memCartRepo struct{ u *memUOW }

func (r *memCartRepo) LoadAndClear(_ context.Context, customerID int64) ([]cart.Line, error) {
	defer r.u.enter()()

	st := r.u.store
	lines := st.carts[customerID]
	delete(st.carts, customerID)

	return lines, nil
}

type memOutboxRepo struct{ u *memUOW }

func (r *memOutboxRepo) Insert(_ context.Context, msg outbox.Message) error {
	defer r.u.enter()()

	st := r.u.store
	st.nextOutboxID++
	msg.ID = st.nextOutboxID
	st.outbox[msg.ID] = msg

	return nil
}

func (r *memOutboxRepo) GetPendingMessages(_ context.Context, limit int) ([]outbox.Message, error) {
	defer r.u.enter()()

	var result []outbox.Message
	for _, msg := range r.u.store.outbox {
		result = append(result, msg)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

func (r *memOutboxRepo) Delete(_ context.Context, id int64) error {
	defer r.u.enter()()

	delete(r.u.store.outbox, id)

	return nil
}

func (r *memOutboxRepo) UpdateRetry(_ context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error {
	defer r.u.enter()()

	st := r.u.store
	msg, ok := st.outbox[id]
	if !ok {
		return nil
	}
	msg.RetryCount = retryCount
	msg.LastError = lastError
	msg.NextRetryAt = nextRetryAt
	st.outbox[id] = msg

	return nil
}

func containsInt64(haystack []int64, needle int64) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}

	return false
}

func containsStatus(haystack []order.Status, needle order.Status) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}

	return false
}
