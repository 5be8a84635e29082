package port

import (
	"context"

	"github.com/arcvent/hvac-portal/internal/core/domain"
)

// SecurityEventRepository appends audit records. The store is append-only;
// no read path is exposed to the core.
type SecurityEventRepository interface {
	Append(ctx context.Context, event domain.SecurityEvent) error
}
