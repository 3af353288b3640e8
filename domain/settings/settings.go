// Package settings backs the contract-protected /api/settings/value/{key}
// endpoint (spec §6): a small per-department key/value store the desktop
// helper reads directly and whose response shape is frozen.
package settings

import (
	"context"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
)

// Setting is one department-scoped key/value pair.
type Setting struct {
	Key        string
	Department department.Department
	Value      string
}

// Store reads and writes Setting rows.
type Store interface {
	Get(ctx context.Context, key string, dept department.Department) (Setting, bool, error)
	Put(ctx context.Context, s Setting) error
}
