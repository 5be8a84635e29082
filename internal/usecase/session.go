package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arcvent/hvac-portal/internal/core/domain"
	"github.com/arcvent/hvac-portal/internal/core/port"
	"github.com/arcvent/hvac-portal/internal/infra/security"
	"github.com/arcvent/hvac-portal/internal/repository"
)

var (
	// ErrSessionNotFound indicates the token does not match any stored session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates the session expired before validation.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionRevoked indicates the session was revoked ahead of validation.
	ErrSessionRevoked = errors.New("session revoked")
)

// DefaultSessionTTL applies when configuration leaves the TTL unset.
const DefaultSessionTTL = 720 * time.Hour

// SessionService issues, validates, and revokes opaque session tokens.
type SessionService struct {
	sessions  port.SessionRepository
	employees port.EmployeeRepository
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(sessions port.SessionRepository, employees port.EmployeeRepository, ttl time.Duration, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	service := &SessionService{
		sessions:  sessions,
		employees: employees,
		ttl:       ttl,
		logger:    logger,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the internal clock for deterministic tests.
func (s *SessionService) WithClock(clock func() time.Time) *SessionService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// TTL reports the configured session lifetime, used by the HTTP layer to set
// the cookie max-age.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Create issues a new opaque token for the employee and persists the session.
// The raw token is returned exactly once; only its hash is stored. The record
// is written before the token leaves this function, so an aborted request
// can never observe a token whose session was not durably committed.
func (s *SessionService) Create(ctx context.Context, employee domain.Employee, ip, userAgent *string) (string, *domain.Session, error) {
	if employee.ID == "" {
		return "", nil, fmt.Errorf("employee id is required")
	}

	token, err := security.GenerateSecureToken(security.SessionTokenBytes)
	if err != nil {
		return "", nil, fmt.Errorf("generate session token: %w", err)
	}

	now := s.now()
	session := domain.Session{
		ID:         uuid.NewString(),
		TokenHash:  security.HashToken(token),
		EmployeeID: employee.ID,
		IP:         ip,
		UserAgent:  userAgent,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.ttl),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}

	return token, &session, nil
}

// Validate resolves a raw token to its session and owning employee. The
// employee record is re-read on every call so role changes and deactivation
// take effect immediately without re-login. Unknown, expired, and revoked
// tokens return distinct sentinel errors; callers treat all of them as an
// invalid session.
func (s *SessionService) Validate(ctx context.Context, token string) (*domain.Session, *domain.Employee, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, ErrSessionNotFound
	}

	session, err := s.sessions.GetByTokenHash(ctx, security.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("fetch session: %w", err)
	}

	if session.RevokedAt != nil {
		return nil, nil, ErrSessionRevoked
	}
	if !s.now().Before(session.ExpiresAt) {
		return nil, nil, ErrSessionExpired
	}

	employee, err := s.employees.GetByID(ctx, session.EmployeeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("fetch session employee: %w", err)
	}

	if !employee.IsActive {
		return nil, nil, ErrSessionRevoked
	}

	sanitized := employee.Sanitize()
	return session, &sanitized, nil
}

// Revoke terminates the session identified by the raw token. Revoking an
// unknown or already revoked token is a no-op.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	if err := s.sessions.Revoke(ctx, security.HashToken(token), s.now()); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

// PurgeExpired deletes sessions whose expiry has passed. Expired rows are
// already rejected by Validate; purging keeps the table from growing without
// bound.
func (s *SessionService) PurgeExpired(ctx context.Context) (int, error) {
	deleted, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}

	if deleted > 0 {
		s.logger.Info("purged expired sessions", zap.Int("count", deleted))
	}

	return deleted, nil
}

// RevokeAllForEmployee terminates every live session the employee holds.
// Used when an account is deactivated.
func (s *SessionService) RevokeAllForEmployee(ctx context.Context, employeeID string) (int, error) {
	if employeeID == "" {
		return 0, fmt.Errorf("employee id is required")
	}

	revoked, err := s.sessions.RevokeAllForEmployee(ctx, employeeID, s.now())
	if err != nil {
		return 0, fmt.Errorf("revoke employee sessions: %w", err)
	}

	if revoked > 0 {
		s.logger.Info("revoked employee sessions",
			zap.String("employee_id", employeeID),
			zap.Int("count", revoked),
		)
	}

	return revoked, nil
}
