package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arcvent/hvac-portal/internal/core/domain"
	"github.com/arcvent/hvac-portal/internal/core/port"
	"github.com/arcvent/hvac-portal/internal/infra/logger"
)

// AuditService records security events. Recording is strictly fire-and-forget:
// storage or publish failures are logged and swallowed so they can never turn
// a successful authentication flow into a failure.
type AuditService struct {
	events    port.SecurityEventRepository
	publisher port.SecurityEventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuditService constructs an AuditService.
func NewAuditService(events port.SecurityEventRepository, publisher port.SecurityEventPublisher, log *zap.Logger) *AuditService {
	if log == nil {
		log = zap.NewNop()
	}
	service := &AuditService{
		events:    events,
		publisher: publisher,
		logger:    log,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the internal clock for deterministic tests.
func (s *AuditService) WithClock(clock func() time.Time) *AuditService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// EventContext carries request metadata attached to a security event.
// AttemptedEmail is recorded masked.
type EventContext struct {
	IP             string
	UserAgent      string
	AttemptedEmail string
}

// Record appends a security event and fans it out to the event bus.
// employeeID is nil for pre-auth failures where no account was resolved.
func (s *AuditService) Record(ctx context.Context, eventType domain.SecurityEventType, employeeID *string, evtCtx EventContext) {
	metadata := map[string]any{}
	if evtCtx.IP != "" {
		metadata["ip"] = evtCtx.IP
	}
	if evtCtx.UserAgent != "" {
		metadata["user_agent"] = evtCtx.UserAgent
	}
	if evtCtx.AttemptedEmail != "" {
		metadata["attempted_email"] = logger.MaskEmail(evtCtx.AttemptedEmail)
	}

	event := domain.SecurityEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		EmployeeID: employeeID,
		OccurredAt: s.now(),
		Metadata:   metadata,
	}

	if s.events != nil {
		if err := s.events.Append(ctx, event); err != nil {
			s.logger.Error("append security event failed",
				zap.String("event_type", string(eventType)),
				zap.Error(err),
			)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishSecurityEvent(ctx, event); err != nil {
			s.logger.Warn("publish security event failed",
				zap.String("event_type", string(eventType)),
				zap.Error(err),
			)
		}
	}
}
