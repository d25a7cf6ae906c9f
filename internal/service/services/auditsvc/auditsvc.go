package auditsvc

import (
	"context"
	"time"

	"github.com/fluxmart/order/internal/dal/interfaces/iorderrepo"
	"github.com/fluxmart/order/internal/dal/postgres"
	"github.com/fluxmart/order/internal/dal/uow"
	"github.com/fluxmart/order/internal/service/models/order"
	"go.opentelemetry.io/otel"
)

// scanPageSize bounds how many orders are pulled per round while
// scanning the full table.
const scanPageSize = 500

// AuditService is a defensive reconciliation tool: every flag on an
// order is derived from its status by the aggregate itself, so in normal
// operation this service finds nothing. It exists to detect and repair
// rows corrupted outside the service (manual writes, restores from old
// backups).
type AuditService struct {
	pgClient   *postgres.Client
	uowFactory func() unitOfWork
	clock      func() time.Time
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	OrderRepository() iorderrepo.IOrderRepository
}

// Finding reports one order whose stored state violates the status
// invariants.
type Finding struct {
	OrderID     int64        `json:"orderId"`
	Status      order.Status `json:"status"`
	IsPaid      bool         `json:"isPaid"`
	IsShipped   bool         `json:"isShipped"`
	IsDelivered bool         `json:"isDelivered"`
	Issues      []string     `json:"issues"`
}

// option is a function that configures the AuditService.
type option func(*AuditService)

// MustNewAuditService creates a new AuditService.
func MustNewAuditService(opts ...option) *AuditService {
	s := &AuditService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.uowFactory == nil {
		if s.pgClient == nil {
			panic("audit service requires a postgres client or a unit of work factory")
		}
		s.uowFactory = func() unitOfWork {
			return uow.NewUnitOfWork(s.pgClient)
		}
	}
	if s.clock == nil {
		s.clock = time.Now
	}

	return s
}

// WithPostgresClient sets the Postgres client for the AuditService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *AuditService) {
		s.pgClient = pgClient
	}
}

// WithUnitOfWorkFactory overrides how units of work are created.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory func() unitOfWork) option {
	return func(s *AuditService) {
		s.uowFactory = factory
	}
}

// WithClock overrides the time source.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(clock func() time.Time) option {
	return func(s *AuditService) {
		s.clock = clock
	}
}

// FindInconsistent scans all orders and reports every one whose stored
// flags disagree with its status.
func (s *AuditService) FindInconsistent(ctx context.Context) ([]Finding, error) {
	ctx, span := otel.Tracer("order-svc").Start(ctx, "AuditService.FindInconsistent")
	defer span.End()

	work := s.uowFactory()

	findings := []Finding{}
	if err := s.scan(ctx, work, func(o *order.Order) error {
		if f, bad := inspect(o); bad {
			findings = append(findings, f)
		}

		return nil
	}); err != nil {
		return nil, err
	}

	return findings, nil
}

// Repair re-derives the flag projection from status for every
// inconsistent order and persists the corrected rows in one
// transaction. It returns what was found before repair.
func (s *AuditService) Repair(ctx context.Context) ([]Finding, error) {
	ctx, span := otel.Tracer("order-svc").Start(ctx, "AuditService.Repair")
	defer span.End()

	now := s.clock()
	work := s.uowFactory()

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = work.Rollback() }()

	findings := []Finding{}
	if err := s.scan(ctx, work, func(o *order.Order) error {
		f, bad := inspect(o)
		if !bad {
			return nil
		}

		o.Normalize(now)
		if err := work.OrderRepository().Update(ctx, o); err != nil {
			return err
		}
		findings = append(findings, f)

		return nil
	}); err != nil {
		return nil, err
	}

	if err := work.Commit(); err != nil {
		return nil, err
	}

	return findings, nil
}

func (s *AuditService) scan(ctx context.Context, work unitOfWork, visit func(*order.Order) error) error {
	for offset := 0; ; offset += scanPageSize {
		page, err := work.OrderRepository().Query(ctx, &order.QueryOrdersModel{
			Limit:  scanPageSize,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}

		for i := range page {
			if err := visit(&page[i]); err != nil {
				return err
			}
		}

		if len(page) < scanPageSize {
			return nil
		}
	}
}

func inspect(o *order.Order) (Finding, bool) {
	issues := o.Inconsistencies()
	if len(issues) == 0 {
		return Finding{}, false
	}

	return Finding{
		OrderID:     o.ID,
		Status:      o.Status,
		IsPaid:      o.IsPaid,
		IsShipped:   o.IsShipped,
		IsDelivered: o.IsDelivered,
		Issues:      issues,
	}, true
}
