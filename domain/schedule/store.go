// Package schedule provides shift-token parsing (C7) and persistence of
// parsed monthly schedule cells (C5).
package schedule

import (
	"context"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
)

// Cell is one (department, employee, date) -> raw cell text record.
type Cell struct {
	Department   department.Department
	EmployeeCode string
	Date         time.Time
	RawText      string
	SyncBatchID  string
	SyncedAt     time.Time
}

// Store persists Schedule Cells. Upserts are idempotent: an identical
// payload is a no-op (spec §4.5).
type Store interface {
	Upsert(ctx context.Context, cell Cell) error
	GetByEmployeeDate(ctx context.Context, dept department.Department, employeeCode string, date time.Time) (Cell, bool, error)
	ListByEmployeeMonth(ctx context.Context, dept department.Department, employeeCode string, year int, month time.Month) ([]Cell, error)
	ListByDepartmentMonth(ctx context.Context, dept department.Department, year int, month time.Month) ([]Cell, error)
}
