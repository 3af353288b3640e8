// Package pendingcase implements the Pending-Case Ledger (C13): tracking
// which Converted profiles still need an uploaded PDF.
package pendingcase

import (
	"context"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
)

// Status is the closed set of pending-case states (spec §3).
type Status string

const (
	StatusPending  Status = "Pending"
	StatusUploaded Status = "Uploaded"
)

// PendingCase is an open ticket for a Converted profile awaiting its PDF
// upload (spec §3, §4.13).
type PendingCase struct {
	ID          string
	ProfileRef  string
	Department  department.Department
	ProfileType string
	Status      Status
	DriveLink   string
	CreatedAt   time.Time
	ClosedAt    time.Time
}

// Stats summarizes the ledger for one department (spec §4.13:
// "statistics: total, by-type, oldest pending date, this-month completion
// rate").
type Stats struct {
	Total               int
	ByType              map[string]int
	OldestPendingDate    time.Time
	ThisMonthCompletionRate float64
}

// Repository persists PendingCase rows. Writes happen only via C11's state
// transitions (spec §4.13); this package itself never drives a transition.
type Repository interface {
	Create(ctx context.Context, pc PendingCase) (PendingCase, error)
	Close(ctx context.Context, profileRef string, driveLink string) (PendingCase, error)
	GetByProfile(ctx context.Context, profileRef string) (PendingCase, bool, error)
	ListByDepartment(ctx context.Context, dept department.Department, status Status) ([]PendingCase, error)
	ListByProfileType(ctx context.Context, dept department.Department, profileType string) ([]PendingCase, error)
	Stats(ctx context.Context, dept department.Department, asOf time.Time) (Stats, error)
}
