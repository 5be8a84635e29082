package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arcvent/hvac-portal/internal/core/domain"
	"github.com/arcvent/hvac-portal/internal/core/port"
	"github.com/arcvent/hvac-portal/internal/repository"
)

var employeeColumns = []string{
	"id",
	"email",
	"name",
	"role",
	"is_active",
	"department",
	"phone",
	"password_hash",
	"created_at",
	"updated_at",
}

// EmployeeRepository implements port.EmployeeRepository using PostgreSQL.
type EmployeeRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewEmployeeRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewEmployeeRepository(exec pgExecutor) *EmployeeRepository {
	return &EmployeeRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new employee row.
func (r *EmployeeRepository) Create(ctx context.Context, employee domain.Employee) error {
	stmt, args, err := r.builder.Insert("portal.employees").
		Columns(employeeColumns...).
		Values(
			employee.ID,
			employee.Email,
			employee.Name,
			employee.Role,
			employee.IsActive,
			employee.Department,
			employee.Phone,
			employee.PasswordHash,
			employee.CreatedAt,
			employee.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert employee sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}

	return nil
}

// GetByID retrieves an employee by identifier.
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	stmt, args, err := r.builder.
		Select(employeeColumns...).
		From("portal.employees").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select employee sql: %w", err)
	}

	return r.scanOne(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByEmail retrieves an employee by normalised email address.
func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	stmt, args, err := r.builder.
		Select(employeeColumns...).
		From("portal.employees").
		Where(squirrel.Eq{"email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select employee by email sql: %w", err)
	}

	return r.scanOne(r.exec.QueryRow(ctx, stmt, args...))
}

// List returns all employees ordered by name.
func (r *EmployeeRepository) List(ctx context.Context) ([]domain.Employee, error) {
	stmt, args, err := r.builder.
		Select(employeeColumns...).
		From("portal.employees").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list employees sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []domain.Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee row: %w", err)
		}
		employees = append(employees, *employee)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}

	return employees, nil
}

// Update persists mutable profile fields (email, name, role, department, phone).
func (r *EmployeeRepository) Update(ctx context.Context, employee domain.Employee) error {
	stmt, args, err := r.builder.Update("portal.employees").
		Set("email", employee.Email).
		Set("name", employee.Name).
		Set("role", employee.Role).
		Set("department", employee.Department).
		Set("phone", employee.Phone).
		Set("updated_at", employee.UpdatedAt).
		Where(squirrel.Eq{"id": employee.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update employee sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetActive toggles the active flag. Deactivation is the only supported
// removal path; rows are never deleted.
func (r *EmployeeRepository) SetActive(ctx context.Context, id string, active bool) error {
	stmt, args, err := r.builder.Update("portal.employees").
		Set("is_active", active).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set active sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set employee active: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *EmployeeRepository) scanOne(row pgx.Row) (*domain.Employee, error) {
	employee, err := scanEmployee(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan employee: %w", err)
	}
	return employee, nil
}

func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var (
		employee   domain.Employee
		department sql.NullString
		phone      sql.NullString
	)

	if err := row.Scan(
		&employee.ID,
		&employee.Email,
		&employee.Name,
		&employee.Role,
		&employee.IsActive,
		&department,
		&phone,
		&employee.PasswordHash,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if department.Valid {
		val := department.String
		employee.Department = &val
	}
	if phone.Valid {
		val := phone.String
		employee.Phone = &val
	}

	return &employee, nil
}

var _ port.EmployeeRepository = (*EmployeeRepository)(nil)
