package domain

import (
	"strings"
	"time"
)

// Role enumerates the portal roles an employee can hold.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleTechnician Role = "technician"
	RoleSalesRep   Role = "sales_rep"
)

// KnownRoles lists every role the portal currently recognises.
func KnownRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleTechnician, RoleSalesRep}
}

// IsValid reports whether the role belongs to the recognised set.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleTechnician, RoleSalesRep:
		return true
	}
	return false
}

// Employee mirrors the persisted representation in the employees table.
// PasswordHash is owned by the credential store and must never leave the
// authentication layer; Sanitize clears it before the record crosses a
// service boundary.
type Employee struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	IsActive     bool
	Department   *string
	Phone        *string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sanitize returns a copy of the employee with credential material removed.
func (e Employee) Sanitize() Employee {
	e.PasswordHash = ""
	return e
}

// NormalizeEmail canonicalises an email for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
