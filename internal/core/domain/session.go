package domain

import "time"

// Session represents a persisted login session. The opaque token handed to
// the client is never stored; only its SHA-256 hash is.
type Session struct {
	ID         string
	TokenHash  string
	EmployeeID string
	IP         *string
	UserAgent  *string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	RevokedAt  *time.Time
}

// IsActive reports whether the session is still valid (not revoked and not
// expired at the supplied moment).
func (s Session) IsActive(at time.Time) bool {
	if s.RevokedAt != nil {
		return false
	}
	return s.ExpiresAt.After(at)
}

// Revoke marks the session as revoked. Returns true when the session changed
// state.
func (s *Session) Revoke(at time.Time) bool {
	if s.RevokedAt != nil {
		return false
	}
	s.RevokedAt = &at
	return true
}
