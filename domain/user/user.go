// Package user models operator accounts and their role-based scope
// (spec §3 "User / Role").
package user

import (
	"fmt"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
)

// Role is a closed enumeration. Admin has no department scope; Manager is
// read-only across departments; Staff may only edit records in its own
// department (spec §3).
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleManager Role = "Manager"
	RoleStaff   Role = "Staff"
)

// Valid reports whether r is one of the closed enumeration values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

// ParseRole validates a raw string into a Role.
func ParseRole(raw string) (Role, error) {
	r := Role(raw)
	if !r.Valid() {
		return "", fmt.Errorf("user: unknown role %q", raw)
	}
	return r, nil
}

// User is an operator account. Department is empty for Admin accounts and
// required for Manager/Staff (spec §3).
type User struct {
	Username     string
	PasswordHash string
	Role         Role
	Department   department.Department
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary is the non-sensitive projection returned from login/me endpoints.
type Summary struct {
	Username   string
	Role       Role
	Department department.Department
}

func (u User) Summary() Summary {
	return Summary{Username: u.Username, Role: u.Role, Department: u.Department}
}
