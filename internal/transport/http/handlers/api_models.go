package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arcvent/hvac-portal/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// EmployeeSummary is the public view of an employee. The password hash never
// appears here.
type EmployeeSummary struct {
	ID         string      `json:"id"`
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	Role       domain.Role `json:"role"`
	IsActive   bool        `json:"is_active"`
	Department *string     `json:"department,omitempty"`
	Phone      *string     `json:"phone,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionSummary provides a compact view of the issued session.
type SessionSummary struct {
	ID        string    `json:"id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginResponse describes the response returned for a successful login. The
// token also rides in the Set-Cookie header for browser clients.
type LoginResponse struct {
	Token    string          `json:"token"`
	Employee EmployeeSummary `json:"employee"`
	Session  SessionSummary  `json:"session"`
}

// EmployeeCreateRequest defines the admin provisioning payload.
type EmployeeCreateRequest struct {
	Email      string `json:"email" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Role       string `json:"role" binding:"required"`
	Department string `json:"department"`
	Phone      string `json:"phone"`
	Password   string `json:"password" binding:"required"`
}

// EmployeeUpdateRequest defines the profile update payload. Absent fields are
// left unchanged.
type EmployeeUpdateRequest struct {
	Email      *string `json:"email,omitempty"`
	Name       *string `json:"name,omitempty"`
	Role       *string `json:"role,omitempty"`
	Department *string `json:"department,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

// EmployeeListResponse wraps multiple employees.
type EmployeeListResponse struct {
	Employees []EmployeeSummary `json:"employees"`
	Total     int               `json:"total"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// newEmployeeSummary converts a domain employee to its API view.
func newEmployeeSummary(employee domain.Employee) EmployeeSummary {
	return EmployeeSummary{
		ID:         employee.ID,
		Email:      employee.Email,
		Name:       employee.Name,
		Role:       employee.Role,
		IsActive:   employee.IsActive,
		Department: employee.Department,
		Phone:      employee.Phone,
		CreatedAt:  employee.CreatedAt,
		UpdatedAt:  employee.UpdatedAt,
	}
}

func newSessionSummary(session domain.Session) SessionSummary {
	return SessionSummary{
		ID:        session.ID,
		IssuedAt:  session.IssuedAt,
		ExpiresAt: session.ExpiresAt,
	}
}
