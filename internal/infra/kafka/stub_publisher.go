package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arcvent/hvac-portal/internal/core/domain"
	"github.com/arcvent/hvac-portal/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no
// brokers are configured, typically in development.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubPublisher{logger: logger}
}

// PublishSecurityEvent logs the event at info level.
func (p *StubPublisher) PublishSecurityEvent(_ context.Context, event domain.SecurityEvent) error {
	at := event.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	fields := []zap.Field{
		zap.String("event_type", string(event.Type)),
		zap.Time("timestamp", at.UTC()),
		zap.Any("metadata", event.Metadata),
	}
	if event.EmployeeID != nil {
		fields = append(fields, zap.String("employee_id", *event.EmployeeID))
	}

	p.logger.Info("Stub security event published", fields...)
	return nil
}

var _ port.SecurityEventPublisher = (*StubPublisher)(nil)
