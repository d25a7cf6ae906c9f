package outbox

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/fluxmart/order/internal/dal/interfaces/ioutboxrepo"
	"github.com/fluxmart/order/internal/dal/rabbitmq"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

// Worker drains the outbox table into RabbitMQ. Order mutations stage
// their notification events in the same transaction; this worker is the
// only publisher, so a crash between commit and publish loses nothing.
type Worker struct {
	outboxRepo   ioutboxrepo.IOutboxRepository
	rabbitClient *rabbitmq.Client
	pollInterval time.Duration
	batchSize    int
	stopCh       chan struct{}
}

// NewWorker creates a new outbox worker.
func NewWorker(
	outboxRepo ioutboxrepo.IOutboxRepository,
	rabbitClient *rabbitmq.Client,
) *Worker {
	pollIntervalSeconds := viper.GetInt("rabbitmq.outbox.poll_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 10
	}

	batchSize := viper.GetInt("rabbitmq.outbox.batch_size")
	if batchSize == 0 {
		batchSize = 100
	}

	return &Worker{
		outboxRepo:   outboxRepo,
		rabbitClient: rabbitClient,
		pollInterval: time.Duration(pollIntervalSeconds) * time.Second,
		batchSize:    batchSize,
		stopCh:       make(chan struct{}),
	}
}

// Start begins draining the outbox. It blocks until the context is
// cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Outbox worker stopped")

			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// drain publishes one batch of pending messages.
func (w *Worker) drain(ctx context.Context) {
	messages, err := w.outboxRepo.GetPendingMessages(ctx, w.batchSize)
	if err != nil {
		slog.Error("Failed to get pending messages from outbox", "error", err)

		return
	}

	if len(messages) == 0 {
		return
	}

	slog.Info("Publishing outbox messages", "count", len(messages))

	for _, msg := range messages {
		err := w.rabbitClient.Channel().Publish(
			msg.ExchangeName,
			msg.RoutingKey,
			false,
			false,
			amqp.Publishing{
				ContentType: msg.ContentType,
				Body:        msg.Payload,
			},
		)
		if err != nil {
			w.scheduleRetry(ctx, msg.ID, msg.RetryCount, msg.MaxRetries, err)

			continue
		}

		if err := w.outboxRepo.Delete(ctx, msg.ID); err != nil {
			slog.Error("Failed to delete published outbox message", "outbox_id", msg.ID, "error", err)
		}
	}
}

// scheduleRetry records a failed publish with exponential backoff, or
// drops the message once its retry budget is exhausted. Notifications
// are fire-and-forget; a dropped event never blocks order processing.
func (w *Worker) scheduleRetry(ctx context.Context, id int64, retryCount, maxRetries int, pubErr error) {
	newRetryCount := retryCount + 1

	if maxRetries > 0 && newRetryCount > maxRetries {
		slog.Error("Dropping outbox message after exhausting retries",
			"outbox_id", id,
			"retry_count", retryCount,
			"error", pubErr,
		)
		if err := w.outboxRepo.Delete(ctx, id); err != nil {
			slog.Error("Failed to delete dead outbox message", "outbox_id", id, "error", err)
		}

		return
	}

	backoffSeconds := math.Pow(2, float64(newRetryCount)) * 30 // 60s, 120s, 240s, ...
	nextRetryAt := time.Now().Add(time.Duration(backoffSeconds) * time.Second)

	slog.Warn("Failed to publish outbox message, will retry",
		"outbox_id", id,
		"retry_count", newRetryCount,
		"next_retry", nextRetryAt,
		"error", pubErr,
	)

	if err := w.outboxRepo.UpdateRetry(ctx, id, newRetryCount, pubErr.Error(), nextRetryAt); err != nil {
		slog.Error("Failed to update outbox retry information", "outbox_id", id, "error", err)
	}
}
