package profile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/domain/pendingcase"
	"github.com/kunpeto/driver-management-system-sub001/domain/scoring"
)

// DocumentRenderer produces the PDF for a Converted profile, keyed by its
// sub-form type (spec §4.12 "Document Renderer"). The Machine only needs to
// know a document CAN be generated, not how; applications/docgen supplies
// the real implementation.
type DocumentRenderer interface {
	Render(ctx context.Context, p Profile, subForm SubForm) (data []byte, fileName string, err error)
}

// Machine is the Profile State Machine (C11): it coordinates Repository
// (profile + sub-form persistence), pendingcase.Repository (the Converted
// ledger), and scoring.Engine (recomputation when a tied record's date
// moves), per spec §4.11.
type Machine struct {
	profiles     Repository
	pendingCases pendingcase.Repository
	scoringEng   *scoring.Engine
	renderer     DocumentRenderer
}

// NewMachine builds a Machine over its three collaborators. renderer may be
// nil until applications/docgen is wired; GenerateDocument then fails
// loudly instead of silently no-opping.
func NewMachine(profiles Repository, pendingCases pendingcase.Repository, scoringEng *scoring.Engine, renderer DocumentRenderer) *Machine {
	return &Machine{profiles: profiles, pendingCases: pendingCases, scoringEng: scoringEng, renderer: renderer}
}

// Create starts a new Basic profile (spec §4.11 "create(department,
// employee, fields)").
func (m *Machine) Create(ctx context.Context, dept department.Department, employeeRef string, fields Fields) (Profile, error) {
	p := Profile{
		ID:               uuid.NewString(),
		Department:       dept,
		EmployeeRef:      employeeRef,
		EventDate:        fields.EventDate,
		EventTime:        fields.EventTime,
		EventLocation:    fields.EventLocation,
		TrainNumber:      fields.TrainNumber,
		EventTitle:       fields.EventTitle,
		EventDescription: fields.EventDescription,
	}
	return m.profiles.Create(ctx, p)
}

// Convert writes the profile's typed sub-form and bumps ConversionStatus to
// Converted in one Repository-level transaction, then opens a Pending Case.
// The Pending Case write is a second, separate transaction: spanning both
// domain/profile's and domain/pendingcase's stores under one *sql.Tx would
// need a unit-of-work abstraction wider than either package owns, so this
// accepts brief eventual consistency between "profile says Converted" and
// "a Pending Case row exists" instead (see DESIGN.md).
func (m *Machine) Convert(ctx context.Context, id string, target Type, subForm SubForm, expectedVersion int) (Profile, error) {
	p, err := m.profiles.Convert(ctx, id, target, subForm, expectedVersion)
	if err != nil {
		return Profile{}, err
	}
	_, err = m.pendingCases.Create(ctx, pendingcase.PendingCase{
		ID:         uuid.NewString(),
		ProfileRef: p.ID,
		Department: p.Department,
		ProfileType: string(p.ProfileType),
	})
	if err != nil {
		return p, fmt.Errorf("profile: convert succeeded but pending case creation failed: %w", err)
	}
	return p, nil
}

// GenerateDocument renders the PDF bytes for a Converted profile. It is
// idempotent and never transitions state or stores a Drive link itself —
// that only happens once the Desktop Helper has actually uploaded the file
// and calls back into C4's MarkCompleted (spec §4.12: "does not transition
// state"; §4.4 owns the completion handshake).
func (m *Machine) GenerateDocument(ctx context.Context, id string) (data []byte, fileName string, err error) {
	if m.renderer == nil {
		return nil, "", fmt.Errorf("profile: no document renderer configured")
	}
	p, err := m.profiles.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if p.ProfileType == TypeBasic {
		return nil, "", &InvalidTransitionError{ProfileID: id, From: p.ConversionStatus, Attempted: "generate_document"}
	}
	subForm, ok, err := m.profiles.GetSubForm(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", fmt.Errorf("profile: %s: converted profile has no sub-form", id)
	}
	return m.renderer.Render(ctx, p, subForm)
}

// MarkComplete closes out a Converted profile once its PDF has been
// uploaded to Drive, and closes the matching Pending Case (spec §4.11,
// §4.13).
func (m *Machine) MarkComplete(ctx context.Context, id string, driveLink string, expectedVersion int) (Profile, error) {
	p, err := m.profiles.MarkComplete(ctx, id, driveLink, expectedVersion)
	if err != nil {
		return Profile{}, err
	}
	if _, err := m.pendingCases.Close(ctx, p.ID, driveLink); err != nil {
		return p, fmt.Errorf("profile: mark complete succeeded but pending case close failed: %w", err)
	}
	return p, nil
}

// Update patches a profile's fields under optimistic concurrency. When the
// event_date changes on a profile already tied to an Assessment Record, it
// notifies the Scoring Engine so the record's cumulative rank recomputes
// under its new date (spec §4.11 "if tied to an Assessment Record, notify
// C9 to recompute").
func (m *Machine) Update(ctx context.Context, id string, patch Fields, expectedVersion int) (Profile, error) {
	before, err := m.profiles.Get(ctx, id)
	if err != nil {
		return Profile{}, err
	}

	p, err := m.profiles.Update(ctx, id, patch, expectedVersion)
	if err != nil {
		return Profile{}, err
	}

	if before.AssessmentRecordRef != "" && !patch.EventDate.Equal(before.EventDate) {
		if err := m.scoringEng.MoveRecordEventDate(ctx, before.AssessmentRecordRef, patch.EventDate); err != nil {
			return p, fmt.Errorf("profile: update succeeded but scoring recompute failed: %w", err)
		}
	}
	return p, nil
}

// AdminReset reverts a profile to Basic/Pending, the one transition allowed
// out of Converted or Completed (spec §4.11 "one-way except explicit
// admin_reset").
func (m *Machine) AdminReset(ctx context.Context, id string, expectedVersion int) (Profile, error) {
	return m.profiles.AdminReset(ctx, id, expectedVersion)
}

// LinkAssessmentRecord records which Assessment Record a profile's r-fault
// sub-form produced, so a later Update can notify C9 when the event date
// moves.
func (m *Machine) LinkAssessmentRecord(ctx context.Context, id string, recordRef string, expectedVersion int) (Profile, error) {
	return m.profiles.LinkAssessmentRecord(ctx, id, recordRef, expectedVersion)
}

// ListByDepartment lists profiles for one department, optionally filtered
// to a single ProfileType (pass "" for all types).
func (m *Machine) ListByDepartment(ctx context.Context, dept department.Department, profileType Type) ([]Profile, error) {
	return m.profiles.ListByDepartment(ctx, dept, profileType)
}

// Get returns a single profile by id, satisfying drive.ProfileReader.
func (m *Machine) Get(ctx context.Context, id string) (Profile, error) {
	return m.profiles.Get(ctx, id)
}
