package port

import (
	"context"
	"time"

	"github.com/arcvent/hvac-portal/internal/core/domain"
)

// SessionRepository deals with session storage. Sessions are looked up by
// token hash; raw tokens never reach the repository layer.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	Revoke(ctx context.Context, tokenHash string, at time.Time) error
	RevokeAllForEmployee(ctx context.Context, employeeID string, at time.Time) (int, error)
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}
