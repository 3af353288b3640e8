package profile

import (
	"context"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
)

// Repository persists Profile rows and their typed sub-forms.
// Convert writes the profile row and its sub-form in one transaction
// (spec §4.11 "convert ... writes the typed sub-record in the same
// transaction. Bumps version."); it does not create the Pending Case —
// that is Machine's responsibility, coordinating this repository with
// pendingcase.Repository (see DESIGN.md on the cross-package transaction
// boundary this implies).
type Repository interface {
	Create(ctx context.Context, p Profile) (Profile, error)
	Get(ctx context.Context, id string) (Profile, error)
	GetSubForm(ctx context.Context, id string) (SubForm, bool, error)
	Convert(ctx context.Context, id string, target Type, subForm SubForm, expectedVersion int) (Profile, error)
	Update(ctx context.Context, id string, patch Fields, expectedVersion int) (Profile, error)
	MarkComplete(ctx context.Context, id string, driveLink string, expectedVersion int) (Profile, error)
	AdminReset(ctx context.Context, id string, expectedVersion int) (Profile, error)
	LinkAssessmentRecord(ctx context.Context, id string, recordRef string, expectedVersion int) (Profile, error)
	ListByDepartment(ctx context.Context, dept department.Department, profileType Type) ([]Profile, error)
}
