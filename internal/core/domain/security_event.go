package domain

import "time"

// SecurityEventType enumerates authentication-relevant occurrences recorded
// in the audit trail.
type SecurityEventType string

const (
	EventFailedLoginAttempt  SecurityEventType = "failed_login_attempt"
	EventSuccessfulLogin     SecurityEventType = "successful_login"
	EventUserLogout          SecurityEventType = "user_logout"
	EventRateLimitExceeded   SecurityEventType = "rate_limit_exceeded"
	EventEmployeeCreated     SecurityEventType = "employee_created"
	EventEmployeeUpdated     SecurityEventType = "employee_updated"
	EventEmployeeDeactivated SecurityEventType = "employee_deactivated"
)

// SecurityEvent is an immutable audit record. EmployeeID is nil for
// pre-authentication failures where no account could be resolved.
type SecurityEvent struct {
	ID         string
	Type       SecurityEventType
	EmployeeID *string
	OccurredAt time.Time
	Metadata   map[string]any
}
