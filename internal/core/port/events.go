package port

import (
	"context"

	"github.com/arcvent/hvac-portal/internal/core/domain"
)

// SecurityEventPublisher fans audit events out to the message bus for
// downstream consumers (alerting, reporting). Publishing is best-effort;
// callers must not fail the originating flow on error.
type SecurityEventPublisher interface {
	PublishSecurityEvent(ctx context.Context, event domain.SecurityEvent) error
}
