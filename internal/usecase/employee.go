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
	// ErrEmployeeNotFound indicates the requested employee does not exist.
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrInvalidRole indicates the supplied role is outside the recognised set.
	ErrInvalidRole = errors.New("invalid role")
	// ErrPasswordPolicyViolation indicates the initial password failed the strength policy.
	ErrPasswordPolicyViolation = errors.New("password does not meet policy")
)

// EmployeeService implements admin provisioning and maintenance of employee
// accounts. Accounts are deactivated, never deleted.
type EmployeeService struct {
	employees port.EmployeeRepository
	sessions  *SessionService
	validator *security.PasswordValidator
	logger    *zap.Logger
	now       func() time.Time
}

// NewEmployeeService constructs an EmployeeService.
func NewEmployeeService(employees port.EmployeeRepository, sessions *SessionService, validator *security.PasswordValidator, logger *zap.Logger) *EmployeeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	service := &EmployeeService{
		employees: employees,
		sessions:  sessions,
		validator: validator,
		logger:    logger,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the internal clock for deterministic tests.
func (s *EmployeeService) WithClock(clock func() time.Time) *EmployeeService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// CreateEmployeeInput captures the fields an administrator supplies when
// provisioning an account.
type CreateEmployeeInput struct {
	Email      string
	Name       string
	Role       domain.Role
	Department string
	Phone      string
	Password   string
}

// Create provisions a new employee account with a hashed initial password.
func (s *EmployeeService) Create(ctx context.Context, input CreateEmployeeInput) (*domain.Employee, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("valid email is required")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	if !input.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	if err := s.validator.Validate(input.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	employee := domain.Employee{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Role:         input.Role,
		IsActive:     true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if dept := strings.TrimSpace(input.Department); dept != "" {
		employee.Department = &dept
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		employee.Phone = &phone
	}

	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}

	sanitized := employee.Sanitize()
	return &sanitized, nil
}

// UpdateEmployeeInput captures mutable profile fields. Nil fields are left
// unchanged.
type UpdateEmployeeInput struct {
	Email      *string
	Name       *string
	Role       *domain.Role
	Department *string
	Phone      *string
}

// Update applies profile changes to an existing employee.
func (s *EmployeeService) Update(ctx context.Context, id string, input UpdateEmployeeInput) (*domain.Employee, error) {
	employee, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := domain.NormalizeEmail(*input.Email)
		if email == "" || !strings.Contains(email, "@") {
			return nil, fmt.Errorf("valid email is required")
		}
		employee.Email = email
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("name is required")
		}
		employee.Name = name
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, ErrInvalidRole
		}
		employee.Role = *input.Role
	}
	if input.Department != nil {
		if dept := strings.TrimSpace(*input.Department); dept != "" {
			employee.Department = &dept
		} else {
			employee.Department = nil
		}
	}
	if input.Phone != nil {
		if phone := strings.TrimSpace(*input.Phone); phone != "" {
			employee.Phone = &phone
		} else {
			employee.Phone = nil
		}
	}

	employee.UpdatedAt = s.now()

	if err := s.employees.Update(ctx, *employee); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("update employee: %w", err)
	}

	sanitized := employee.Sanitize()
	return &sanitized, nil
}

// Deactivate flips the active flag off and revokes every live session the
// employee holds, so an unexpired cookie stops working immediately.
func (s *EmployeeService) Deactivate(ctx context.Context, id string) error {
	if err := s.employees.SetActive(ctx, id, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEmployeeNotFound
		}
		return fmt.Errorf("deactivate employee: %w", err)
	}

	if s.sessions != nil {
		if _, err := s.sessions.RevokeAllForEmployee(ctx, id); err != nil {
			// Validation re-checks the active flag, so live sessions are
			// already unusable; log and move on.
			s.logger.Warn("failed to revoke sessions for deactivated employee",
				zap.String("employee_id", id),
				zap.Error(err),
			)
		}
	}

	return nil
}

// Reactivate flips the active flag back on.
func (s *EmployeeService) Reactivate(ctx context.Context, id string) error {
	if err := s.employees.SetActive(ctx, id, true); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEmployeeNotFound
		}
		return fmt.Errorf("reactivate employee: %w", err)
	}
	return nil
}

// Get returns a single sanitized employee.
func (s *EmployeeService) Get(ctx context.Context, id string) (*domain.Employee, error) {
	employee, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	sanitized := employee.Sanitize()
	return &sanitized, nil
}

// List returns all employees with credential material removed.
func (s *EmployeeService) List(ctx context.Context) ([]domain.Employee, error) {
	employees, err := s.employees.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	for i := range employees {
		employees[i] = employees[i].Sanitize()
	}

	return employees, nil
}

func (s *EmployeeService) get(ctx context.Context, id string) (*domain.Employee, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("employee id is required")
	}

	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("fetch employee: %w", err)
	}

	return employee, nil
}
