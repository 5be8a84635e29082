package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arcvent/hvac-portal/internal/core/domain"
	"github.com/arcvent/hvac-portal/internal/core/port"
	"github.com/arcvent/hvac-portal/internal/repository"
)

// SessionRepository implements port.SessionRepository backed by PostgreSQL.
type SessionRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSessionRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewSessionRepository(exec pgExecutor) *SessionRepository {
	return &SessionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a session record.
func (r *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	stmt, args, err := r.builder.Insert("portal.sessions").
		Columns(
			"id",
			"token_hash",
			"employee_id",
			"ip",
			"user_agent",
			"issued_at",
			"expires_at",
			"revoked_at",
		).
		Values(
			session.ID,
			session.TokenHash,
			session.EmployeeID,
			session.IP,
			session.UserAgent,
			session.IssuedAt,
			session.ExpiresAt,
			session.RevokedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetByTokenHash loads a session by its hashed token.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	stmt, args, err := r.builder.
		Select(
			"id",
			"token_hash",
			"employee_id",
			"ip",
			"user_agent",
			"issued_at",
			"expires_at",
			"revoked_at",
		).
		From("portal.sessions").
		Where(squirrel.Eq{"token_hash": tokenHash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select session sql: %w", err)
	}

	var session domain.Session
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&session.ID,
		&session.TokenHash,
		&session.EmployeeID,
		&session.IP,
		&session.UserAgent,
		&session.IssuedAt,
		&session.ExpiresAt,
		&session.RevokedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	return &session, nil
}

// Revoke stamps revoked_at on the session identified by token hash. Already
// revoked or unknown sessions are left untouched without error, keeping the
// operation idempotent.
func (r *SessionRepository) Revoke(ctx context.Context, tokenHash string, at time.Time) error {
	stmt, args, err := r.builder.Update("portal.sessions").
		Set("revoked_at", at).
		Where(squirrel.Eq{"token_hash": tokenHash}).
		Where(squirrel.Eq{"revoked_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

// RevokeAllForEmployee revokes every live session belonging to the employee
// and reports how many were affected.
func (r *SessionRepository) RevokeAllForEmployee(ctx context.Context, employeeID string, at time.Time) (int, error) {
	stmt, args, err := r.builder.Update("portal.sessions").
		Set("revoked_at", at).
		Where(squirrel.Eq{"employee_id": employeeID}).
		Where(squirrel.Eq{"revoked_at": nil}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build revoke sessions sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions for employee: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// DeleteExpired removes sessions whose expiry passed before the cutoff.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	stmt, args, err := r.builder.Delete("portal.sessions").
		Where(squirrel.Lt{"expires_at": before}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete expired sessions sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

var _ port.SessionRepository = (*SessionRepository)(nil)
