package auditsvc

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/fluxmart/order/internal/dal/interfaces/iorderrepo"
	"github.com/fluxmart/order/internal/service/models/currency"
	"github.com/fluxmart/order/internal/service/models/order"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeUOW backs the audit service with a plain order map. Begin and
// Rollback only track whether a rollback would have discarded updates.
type fakeUOW struct {
	orders    map[int64]order.Order
	updated   map[int64]order.Order
	committed bool
}

func newFakeUOW(orders ...order.Order) *fakeUOW {
	u := &fakeUOW{
		orders:  make(map[int64]order.Order),
		updated: make(map[int64]order.Order),
	}
	for _, o := range orders {
		u.orders[o.ID] = o
	}

	return u
}

func (u *fakeUOW) Begin(_ context.Context) error { return nil }

func (u *fakeUOW) Commit() error {
	for id, o := range u.updated {
		u.orders[id] = o
	}
	u.committed = true

	return nil
}

func (u *fakeUOW) Rollback() error {
	if !u.committed {
		u.updated = make(map[int64]order.Order)
	}

	return nil
}

func (u *fakeUOW) OrderRepository() iorderrepo.IOrderRepository { return &fakeOrderRepo{u} }

type fakeOrderRepo struct{ u *fakeUOW }

func (r *fakeOrderRepo) BulkInsert(_ context.Context, _ []order.Order) ([]order.Order, error) {
	panic("not used by the auditor")
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id int64) (*order.Order, error) {
	o, ok := r.u.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}

	return &o, nil
}

func (r *fakeOrderRepo) GetByIDForUpdate(ctx context.Context, id int64) (*order.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeOrderRepo) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	all := make([]order.Order, 0, len(r.u.orders))
	for _, o := range r.u.orders {
		if pending, ok := r.u.updated[o.ID]; ok {
			o = pending
		}
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if filter.Offset >= len(all) {
		return nil, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && len(all) > filter.Limit {
		all = all[:filter.Limit]
	}

	return all, nil
}

func (r *fakeOrderRepo) Update(_ context.Context, o *order.Order) error {
	if _, ok := r.u.orders[o.ID]; !ok {
		return order.ErrNotFound
	}
	r.u.updated[o.ID] = *o

	return nil
}

func newTestService(u *fakeUOW) *AuditService {
	return MustNewAuditService(
		WithUnitOfWorkFactory(func() unitOfWork { return u }),
		WithClock(func() time.Time { return testTime }),
	)
}

func healthyOrder(id int64) order.Order {
	return order.Order{
		ID:                 id,
		CustomerID:         1,
		Status:             order.StatusPending,
		PriceCurrency:      currency.CurrencyUSD,
		ItemsPriceCents:    1000,
		ShippingPriceCents: 500,
		TaxPriceCents:      100,
		TotalPriceCents:    1600,
		CreatedAt:          testTime,
		UpdatedAt:          testTime,
	}
}

func TestFindInconsistentCleanTable(t *testing.T) {
	t.Parallel()

	u := newFakeUOW(healthyOrder(1), healthyOrder(2))
	svc := newTestService(u)

	findings, err := svc.FindInconsistent(context.Background())
	require.NoError(t, err)
	require.Empty(t, findings)
}

func TestFindInconsistentReportsDriftedOrders(t *testing.T) {
	t.Parallel()

	drifted := healthyOrder(2)
	drifted.IsDelivered = true

	brokenTotal := healthyOrder(3)
	brokenTotal.TotalPriceCents = 1

	u := newFakeUOW(healthyOrder(1), drifted, brokenTotal)
	svc := newTestService(u)

	findings, err := svc.FindInconsistent(context.Background())
	require.NoError(t, err)
	require.Len(t, findings, 2)

	require.Equal(t, int64(2), findings[0].OrderID)
	require.True(t, findings[0].IsDelivered)
	require.NotEmpty(t, findings[0].Issues)

	require.Equal(t, int64(3), findings[1].OrderID)
	require.Contains(t, findings[1].Issues[0], "total price")

	require.Empty(t, u.updated, "find must not write anything")
}

func TestRepairNormalizesAndPersists(t *testing.T) {
	t.Parallel()

	drifted := healthyOrder(2)
	drifted.IsShipped = true
	drifted.IsDelivered = true
	drifted.TotalPriceCents = 9

	u := newFakeUOW(healthyOrder(1), drifted)
	svc := newTestService(u)

	findings, err := svc.Repair(context.Background())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, int64(2), findings[0].OrderID)
	require.True(t, findings[0].IsShipped, "findings report the pre-repair state")

	repaired := u.orders[2]
	require.False(t, repaired.IsShipped)
	require.False(t, repaired.IsDelivered)
	require.Equal(t, int64(1600), repaired.TotalPriceCents)
	require.Empty(t, repaired.Inconsistencies())

	untouched := u.orders[1]
	require.Equal(t, testTime, untouched.UpdatedAt, "healthy orders are not rewritten")
}

func TestRepairIdempotent(t *testing.T) {
	t.Parallel()

	drifted := healthyOrder(2)
	drifted.IsDelivered = true

	u := newFakeUOW(drifted)
	svc := newTestService(u)

	first, err := svc.Repair(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	u.committed = false
	second, err := svc.Repair(context.Background())
	require.NoError(t, err)
	require.Empty(t, second)
}

func TestScanPagesThroughLargeTables(t *testing.T) {
	t.Parallel()

	orders := make([]order.Order, 0, scanPageSize+5)
	for i := int64(1); i <= scanPageSize+5; i++ {
		orders = append(orders, healthyOrder(i))
	}
	bad := healthyOrder(scanPageSize + 3)
	bad.IsShipped = true
	orders[scanPageSize+2] = bad

	u := newFakeUOW(orders...)
	svc := newTestService(u)

	findings, err := svc.FindInconsistent(context.Background())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, int64(scanPageSize+3), findings[0].OrderID)
}
