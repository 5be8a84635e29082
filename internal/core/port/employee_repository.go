package port

import (
	"context"

	"github.com/arcvent/hvac-portal/internal/core/domain"
)

// EmployeeRepository exposes persistence behavior for employee records.
// Lookups by email expect the caller to have normalised the address first.
type EmployeeRepository interface {
	Create(ctx context.Context, employee domain.Employee) error
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	List(ctx context.Context) ([]domain.Employee, error)
	Update(ctx context.Context, employee domain.Employee) error
	SetActive(ctx context.Context, id string, active bool) error
}
