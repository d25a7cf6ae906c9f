package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluxmart/order/internal/dal/postgres"
	"github.com/fluxmart/order/internal/dal/rabbitmq"
	outboxrepo "github.com/fluxmart/order/internal/dal/repositories/outbox/postgres"
	"github.com/fluxmart/order/internal/otel"
	outboxmodel "github.com/fluxmart/order/internal/service/models/outbox"
	"github.com/fluxmart/order/internal/service/services/auditsvc"
	"github.com/fluxmart/order/internal/service/services/ordersvc"
	httptransport "github.com/fluxmart/order/internal/transport/http"
	outboxworker "github.com/fluxmart/order/internal/worker/outbox"
)

// App represents the application.
type App struct {
	orderSvc       *ordersvc.OrderService
	auditSvc       *auditsvc.AuditService
	transport      *httptransport.HTTPTransport
	outboxWorker   *outboxworker.Worker
	postgresClient *postgres.Client
	rabbitClient   *rabbitmq.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()

	postgresClient := postgres.MustNewClient()
	rabbitClient := rabbitmq.MustNewClient()

	mustDeclareQueues(rabbitClient)

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
	)
	auditSvc := auditsvc.MustNewAuditService(
		auditsvc.WithPostgresClient(postgresClient),
	)

	worker := outboxworker.NewWorker(
		outboxrepo.NewOutboxRepository(postgresClient.DB()),
		rabbitClient,
	)

	transport := httptransport.NewHTTPTransport(orderSvc, auditSvc)
	transport.RegisterRoutes()

	return &App{
		orderSvc:       orderSvc,
		auditSvc:       auditSvc,
		transport:      transport,
		outboxWorker:   worker,
		postgresClient: postgresClient,
		rabbitClient:   rabbitClient,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	go a.outboxWorker.Start(workerCtx)

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	cancelWorker()

	if err := a.rabbitClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Trace provider shutdown error", "error", err)
	}

	a.postgresClient.Close()
	slog.Info("Application shutdown complete")
}

// mustDeclareQueues declares the queues the notification collaborator
// consumes from.
func mustDeclareQueues(client *rabbitmq.Client) {
	for _, queue := range []string{
		outboxmodel.QueueOrderCreated,
		outboxmodel.QueueOrderStatusChanged,
	} {
		if _, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
			Name:    queue,
			Durable: true,
		}); err != nil {
			panic("failed to declare queue " + queue + ": " + err.Error())
		}
	}
}
