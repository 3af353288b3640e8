// Package drive implements the Drive Dispatcher (C4): it never uploads a
// byte itself. It only computes where a profile's PDF belongs and, once the
// external Desktop Helper has actually uploaded it, records that the
// profile is Completed (spec §4.4).
package drive

import (
	"context"
	"fmt"
	"strings"

	"github.com/kunpeto/driver-management-system-sub001/domain/employee"
	"github.com/kunpeto/driver-management-system-sub001/domain/profile"
)

// typeKanji names each non-Basic profile type's folder segment (spec §4.4:
// "{profile_type_kanji}/{YYYY}/{MM}").
var typeKanji = map[profile.Type]string{
	profile.TypeEventInvestigation: "事件調查表",
	profile.TypePersonnelInterview: "人事面談紀錄",
	profile.TypeCorrectiveMeasures: "改善措施表",
	profile.TypeAssessmentNotice:   "考核通知書",
}

// UploadPlan is where a profile's PDF belongs, computed without touching
// any storage backend (spec §4.4).
type UploadPlan struct {
	Department        string
	FolderPath        string
	SuggestedFileName string
	CanUpload         bool
	Reason            string
}

// ProfileReader is the read slice of profile.Repository this dispatcher
// needs: just enough to compute a plan, never a mutation.
type ProfileReader interface {
	Get(ctx context.Context, id string) (profile.Profile, error)
}

// CompletionMachine is the C11 mutation this dispatcher drives once the
// Desktop Helper reports a finished upload. profile.Machine implements
// this directly.
type CompletionMachine interface {
	MarkComplete(ctx context.Context, id string, driveLink string, expectedVersion int) (profile.Profile, error)
}

// Dispatcher computes upload plans and records upload completion. It holds
// no files and performs no network calls of its own; the actual transfer
// happens in the external Desktop Helper (spec §4.4).
type Dispatcher struct {
	profiles  ProfileReader
	employees employee.Repository
	machine   CompletionMachine
}

// NewDispatcher builds a Dispatcher.
func NewDispatcher(profiles ProfileReader, employees employee.Repository, machine CompletionMachine) *Dispatcher {
	return &Dispatcher{profiles: profiles, employees: employees, machine: machine}
}

// PrepareUpload computes the UploadPlan for a profile (spec §4.4). It
// rejects Basic profiles (nothing to upload yet) and Completed ones
// (already uploaded) by returning CanUpload=false with a Reason rather
// than an error — the caller is expected to surface the plan either way.
func (d *Dispatcher) PrepareUpload(ctx context.Context, profileRef string) (UploadPlan, error) {
	p, err := d.profiles.Get(ctx, profileRef)
	if err != nil {
		return UploadPlan{}, err
	}

	if p.ProfileType == profile.TypeBasic {
		return UploadPlan{Department: string(p.Department), CanUpload: false, Reason: "profile has not been converted yet"}, nil
	}
	if p.ConversionStatus == profile.StatusCompleted {
		return UploadPlan{Department: string(p.Department), CanUpload: false, Reason: "profile is already completed"}, nil
	}

	kanji, ok := typeKanji[p.ProfileType]
	if !ok {
		return UploadPlan{}, fmt.Errorf("drive: no folder mapping for profile type %q", p.ProfileType)
	}
	folderPath := fmt.Sprintf("%s/%04d/%02d", kanji, p.EventDate.Year(), int(p.EventDate.Month()))

	fileName, err := d.fileName(ctx, p)
	if err != nil {
		return UploadPlan{}, err
	}

	return UploadPlan{
		Department:        string(p.Department),
		FolderPath:        folderPath,
		SuggestedFileName: fileName,
		CanUpload:         true,
	}, nil
}

// MarkCompleted records that the Desktop Helper finished the upload: the
// profile moves to Completed and its Pending Case closes (spec §4.4, via
// C11's Machine.MarkComplete).
func (d *Dispatcher) MarkCompleted(ctx context.Context, profileRef string, driveLink string, expectedVersion int) (profile.Profile, error) {
	return d.machine.MarkComplete(ctx, profileRef, driveLink, expectedVersion)
}

// fileName derives a deterministic, type-dependent file name from the
// profile's own fields and the subject employee's code (spec §4.4:
// "type-dependent but deterministic given the profile fields").
func (d *Dispatcher) fileName(ctx context.Context, p profile.Profile) (string, error) {
	emp, err := d.employees.GetByCode(ctx, p.EmployeeRef)
	if err != nil {
		return "", err
	}
	dateStamp := fmt.Sprintf("%04d%02d%02d", p.EventDate.Year(), int(p.EventDate.Month()), p.EventDate.Day())

	switch p.ProfileType {
	case profile.TypeEventInvestigation:
		return sanitize(fmt.Sprintf("%s_%s_事件調查表", dateStamp, emp.EmployeeCode)), nil
	case profile.TypePersonnelInterview:
		return sanitize(fmt.Sprintf("%s_%s_人事面談紀錄", dateStamp, emp.EmployeeCode)), nil
	case profile.TypeCorrectiveMeasures:
		return sanitize(fmt.Sprintf("%s_%s_改善措施表", dateStamp, emp.EmployeeCode)), nil
	case profile.TypeAssessmentNotice:
		return sanitize(fmt.Sprintf("%s_%s_考核通知書", dateStamp, emp.EmployeeCode)), nil
	default:
		return "", fmt.Errorf("drive: unsupported profile type %q for file naming", p.ProfileType)
	}
}

func sanitize(name string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-")
	return replacer.Replace(name) + ".pdf"
}
