package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/arcvent/hvac-portal/internal/core/domain"
	"github.com/arcvent/hvac-portal/internal/core/port"
	"github.com/arcvent/hvac-portal/internal/infra/security"
	"github.com/arcvent/hvac-portal/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the provided email or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount indicates the account has been deactivated.
	ErrInactiveAccount = errors.New("account is not active")
)

// AuthService verifies employee credentials. It deliberately collapses
// "no such account" and "wrong password" into the same failure so the HTTP
// layer cannot be used to enumerate accounts.
type AuthService struct {
	employees port.EmployeeRepository
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(employees port.EmployeeRepository) *AuthService {
	return &AuthService{employees: employees}
}

// Authenticate validates credentials and returns the sanitized employee.
// The email is normalised (trimmed, lowercased) before lookup.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.Employee, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}

	employee, err := s.employees.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup employee: %w", err)
	}

	ok, err := security.VerifyPassword(password, employee.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if !employee.IsActive {
		return nil, ErrInactiveAccount
	}

	sanitized := employee.Sanitize()
	return &sanitized, nil
}
