package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/arcvent/hvac-portal/internal/core/domain"
	"github.com/arcvent/hvac-portal/internal/core/port"
)

// SecurityEventRepository appends audit rows to the security_events table.
// The table has no update or delete path in this codebase.
type SecurityEventRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSecurityEventRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewSecurityEventRepository(exec pgExecutor) *SecurityEventRepository {
	return &SecurityEventRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append inserts an immutable audit record.
func (r *SecurityEventRepository) Append(ctx context.Context, event domain.SecurityEvent) error {
	var metadata any
	if len(event.Metadata) > 0 {
		encoded, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("marshal event metadata: %w", err)
		}
		metadata = encoded
	}

	stmt, args, err := r.builder.Insert("portal.security_events").
		Columns(
			"id",
			"event_type",
			"employee_id",
			"occurred_at",
			"metadata",
		).
		Values(
			event.ID,
			event.Type,
			event.EmployeeID,
			event.OccurredAt,
			metadata,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert security event sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}

	return nil
}

var _ port.SecurityEventRepository = (*SecurityEventRepository)(nil)
