package outbox

import (
	"time"
)

// Message is a notification event staged in the outbox table. It is
// written in the same transaction as the order mutation that caused it
// and published to RabbitMQ by the outbox worker.
type Message struct {
	ID           int64
	QueueName    string
	ExchangeName string
	RoutingKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}

// Queue names consumed by the notification collaborator.
const (
	QueueOrderCreated       = "oms.order.created"
	QueueOrderStatusChanged = "oms.order.status_changed"
)
