package profile

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/domain/pendingcase"
	"github.com/kunpeto/driver-management-system-sub001/domain/scoring"
)

// fakeScoringStore is a minimal in-memory scoring.Store, duplicated here
// (rather than exported from package scoring) because scoring's fakeStore
// is a test-only type unexported from its own package.
type fakeScoringStore struct {
	records  map[string]*scoring.AssessmentRecord
	byKey    map[string]string
	counters map[scoringCounterKey]int
}

type scoringCounterKey struct {
	employee string
	category scoring.CategoryCode
	year     int
}

func newFakeScoringStore() *fakeScoringStore {
	return &fakeScoringStore{
		records:  map[string]*scoring.AssessmentRecord{},
		byKey:    map[string]string{},
		counters: map[scoringCounterKey]int{},
	}
}

func (s *fakeScoringStore) Transact(_ context.Context, fn func(scoring.Ops) error) error {
	return fn(&fakeScoringOps{s: s})
}

type fakeScoringOps struct{ s *fakeScoringStore }

func (o *fakeScoringOps) InsertRecord(rec *scoring.AssessmentRecord) error {
	cp := *rec
	o.s.records[rec.ID] = &cp
	if rec.IdempotencyKey != "" {
		o.s.byKey[rec.IdempotencyKey] = rec.ID
	}
	return nil
}

func (o *fakeScoringOps) GetRecord(id string) (scoring.AssessmentRecord, error) {
	return *o.s.records[id], nil
}

func (o *fakeScoringOps) FindByIdempotencyKey(key string) (scoring.AssessmentRecord, bool, error) {
	id, ok := o.s.byKey[key]
	if !ok {
		return scoring.AssessmentRecord{}, false, nil
	}
	return *o.s.records[id], true, nil
}

func (o *fakeScoringOps) UpdateRecordScore(id string, multiplier, finalPoints float64) error {
	o.s.records[id].CumulativeMultiplier = multiplier
	o.s.records[id].FinalPoints = finalPoints
	return nil
}

func (o *fakeScoringOps) UpdateRecordEventDate(id string, eventDate time.Time) error {
	o.s.records[id].EventDate = eventDate
	return nil
}

func (o *fakeScoringOps) SoftDeleteRecord(id string) error {
	o.s.records[id].IsSoftDeleted = true
	return nil
}

func (o *fakeScoringOps) ListLiveByCategoryYear(employee string, category scoring.CategoryCode, year int) ([]scoring.AssessmentRecord, error) {
	var out []scoring.AssessmentRecord
	for _, r := range o.s.records {
		if r.EmployeeRef == employee && r.CategoryCode == category && r.EventDate.Year() == year && !r.IsSoftDeleted {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate.Before(out[j].EventDate) })
	return out, nil
}

func (o *fakeScoringOps) ListLiveByEmployeeMonth(employee string, year int, month time.Month) ([]scoring.AssessmentRecord, error) {
	var out []scoring.AssessmentRecord
	for _, r := range o.s.records {
		if r.EmployeeRef == employee && r.EventDate.Year() == year && r.EventDate.Month() == month && !r.IsSoftDeleted {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate.Before(out[j].EventDate) })
	return out, nil
}

func (o *fakeScoringOps) LockCounter(employee string, category scoring.CategoryCode, year int) (int, error) {
	return o.s.counters[scoringCounterKey{employee, category, year}], nil
}

func (o *fakeScoringOps) SetCounter(employee string, category scoring.CategoryCode, year int, value int) error {
	o.s.counters[scoringCounterKey{employee, category, year}] = value
	return nil
}

func (o *fakeScoringOps) ArchiveCounters(int) error { return nil }

// fakeRepo is an in-memory Repository, mirroring the teacher's fakeRepo
// test idiom (domain/scoring's engine_test.go fakeStore).
type fakeRepo struct {
	mu       sync.Mutex
	profiles map[string]Profile
	subForms map[string]SubForm
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{profiles: map[string]Profile{}, subForms: map[string]SubForm{}}
}

func (r *fakeRepo) Create(ctx context.Context, p Profile) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.Version = 1
	p.ConversionStatus = StatusPending
	p.ProfileType = TypeBasic
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	r.profiles[p.ID] = p
	return p, nil
}

func (r *fakeRepo) Get(ctx context.Context, id string) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, &notFoundErr{id}
	}
	return p, nil
}

type notFoundErr struct{ id string }

func (e *notFoundErr) Error() string { return "profile not found: " + e.id }

func (r *fakeRepo) GetSubForm(ctx context.Context, id string) (SubForm, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.subForms[id]
	return f, ok, nil
}

func (r *fakeRepo) Convert(ctx context.Context, id string, target Type, subForm SubForm, expectedVersion int) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, &notFoundErr{id}
	}
	if p.ConversionStatus != StatusPending {
		return Profile{}, &InvalidTransitionError{ProfileID: id, From: p.ConversionStatus, Attempted: "convert"}
	}
	if p.Version != expectedVersion {
		return Profile{}, &VersionConflictError{ProfileID: id, ExpectedVersion: expectedVersion}
	}
	if subForm.Type() != target {
		return Profile{}, &SubFormTypeMismatchError{Target: target, Got: subForm.Type()}
	}
	p.ProfileType = target
	p.ConversionStatus = StatusConverted
	p.Version++
	p.UpdatedAt = time.Now().UTC()
	r.profiles[id] = p
	r.subForms[id] = subForm
	return p, nil
}

func (r *fakeRepo) Update(ctx context.Context, id string, patch Fields, expectedVersion int) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, &notFoundErr{id}
	}
	if p.ConversionStatus == StatusCompleted {
		return Profile{}, &InvalidTransitionError{ProfileID: id, From: p.ConversionStatus, Attempted: "update"}
	}
	if p.Version != expectedVersion {
		return Profile{}, &VersionConflictError{ProfileID: id, ExpectedVersion: expectedVersion}
	}
	p.EventDate, p.EventTime, p.EventLocation = patch.EventDate, patch.EventTime, patch.EventLocation
	p.TrainNumber, p.EventTitle, p.EventDescription = patch.TrainNumber, patch.EventTitle, patch.EventDescription
	p.Version++
	p.UpdatedAt = time.Now().UTC()
	r.profiles[id] = p
	return p, nil
}

func (r *fakeRepo) MarkComplete(ctx context.Context, id string, driveLink string, expectedVersion int) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, &notFoundErr{id}
	}
	if p.ConversionStatus != StatusConverted {
		return Profile{}, &InvalidTransitionError{ProfileID: id, From: p.ConversionStatus, Attempted: "mark_complete"}
	}
	if p.Version != expectedVersion {
		return Profile{}, &VersionConflictError{ProfileID: id, ExpectedVersion: expectedVersion}
	}
	p.ConversionStatus = StatusCompleted
	p.DriveLink = driveLink
	p.Version++
	p.UpdatedAt = time.Now().UTC()
	r.profiles[id] = p
	return p, nil
}

func (r *fakeRepo) AdminReset(ctx context.Context, id string, expectedVersion int) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, &notFoundErr{id}
	}
	if p.Version != expectedVersion {
		return Profile{}, &VersionConflictError{ProfileID: id, ExpectedVersion: expectedVersion}
	}
	p.ConversionStatus = StatusPending
	p.ProfileType = TypeBasic
	p.DriveLink = ""
	p.Version++
	r.profiles[id] = p
	delete(r.subForms, id)
	return p, nil
}

func (r *fakeRepo) LinkAssessmentRecord(ctx context.Context, id string, recordRef string, expectedVersion int) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, &notFoundErr{id}
	}
	if p.Version != expectedVersion {
		return Profile{}, &VersionConflictError{ProfileID: id, ExpectedVersion: expectedVersion}
	}
	p.AssessmentRecordRef = recordRef
	p.Version++
	r.profiles[id] = p
	return p, nil
}

func (r *fakeRepo) ListByDepartment(ctx context.Context, dept department.Department, profileType Type) ([]Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Profile
	for _, p := range r.profiles {
		if p.Department != dept {
			continue
		}
		if profileType != "" && p.ProfileType != profileType {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// fakePendingCases is an in-memory pendingcase.Repository.
type fakePendingCases struct {
	mu    sync.Mutex
	cases map[string]pendingcase.PendingCase
}

func newFakePendingCases() *fakePendingCases {
	return &fakePendingCases{cases: map[string]pendingcase.PendingCase{}}
}

func (f *fakePendingCases) Create(ctx context.Context, pc pendingcase.PendingCase) (pendingcase.PendingCase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pc.Status = pendingcase.StatusPending
	pc.CreatedAt = time.Now().UTC()
	f.cases[pc.ProfileRef] = pc
	return pc, nil
}

func (f *fakePendingCases) Close(ctx context.Context, profileRef string, driveLink string) (pendingcase.PendingCase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pc, ok := f.cases[profileRef]
	if !ok {
		return pendingcase.PendingCase{}, &notFoundErr{profileRef}
	}
	pc.Status = pendingcase.StatusUploaded
	pc.DriveLink = driveLink
	pc.ClosedAt = time.Now().UTC()
	f.cases[profileRef] = pc
	return pc, nil
}

func (f *fakePendingCases) GetByProfile(ctx context.Context, profileRef string) (pendingcase.PendingCase, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pc, ok := f.cases[profileRef]
	return pc, ok, nil
}

func (f *fakePendingCases) ListByDepartment(ctx context.Context, dept department.Department, status pendingcase.Status) ([]pendingcase.PendingCase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []pendingcase.PendingCase
	for _, pc := range f.cases {
		if pc.Department == dept && pc.Status == status {
			out = append(out, pc)
		}
	}
	return out, nil
}

func (f *fakePendingCases) ListByProfileType(ctx context.Context, dept department.Department, profileType string) ([]pendingcase.PendingCase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []pendingcase.PendingCase
	for _, pc := range f.cases {
		if pc.Department == dept && pc.ProfileType == profileType {
			out = append(out, pc)
		}
	}
	return out, nil
}

func (f *fakePendingCases) Stats(ctx context.Context, dept department.Department, asOf time.Time) (pendingcase.Stats, error) {
	return pendingcase.Stats{}, nil
}

func testStandards() scoring.StandardStore {
	return scoring.NewInMemoryStandardStore([]scoring.Standard{
		{Code: "R04", CategoryCode: scoring.CategoryResponsibility, BasePoints: -3.0, HasCumulative: true, IsRFaultType: true},
	})
}

func newTestMachine() (*Machine, *fakeRepo, *fakePendingCases, *scoring.Engine) {
	repo := newFakeRepo()
	cases := newFakePendingCases()
	engine := scoring.NewEngine(testStandards(), newFakeScoringStore())
	m := NewMachine(repo, cases, engine, nil)
	return m, repo, cases, engine
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestCreate_StartsBasicPending(t *testing.T) {
	m, _, _, _ := newTestMachine()
	p, err := m.Create(context.Background(), department.Tanhai, "E1001", Fields{
		EventDate: mustDate(t, "2026-03-01"), EventTitle: "platform incident",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ProfileType != TypeBasic || p.ConversionStatus != StatusPending || p.Version != 1 {
		t.Fatalf("unexpected initial profile state: %+v", p)
	}
}

func TestConvert_OpensPendingCase(t *testing.T) {
	m, _, cases, _ := newTestMachine()
	p, err := m.Create(context.Background(), department.Tanhai, "E1001", Fields{EventDate: mustDate(t, "2026-03-01")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	form := EventInvestigationForm{Summary: "door fault", RootCause: "sensor"}
	converted, err := m.Convert(context.Background(), p.ID, TypeEventInvestigation, form, p.Version)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if converted.ConversionStatus != StatusConverted {
		t.Fatalf("expected Converted, got %s", converted.ConversionStatus)
	}

	pc, ok, err := cases.GetByProfile(context.Background(), p.ID)
	if err != nil || !ok {
		t.Fatalf("expected a pending case to exist, ok=%v err=%v", ok, err)
	}
	if pc.Status != pendingcase.StatusPending {
		t.Fatalf("expected pending status, got %s", pc.Status)
	}
}

func TestConvert_RejectsStaleVersion(t *testing.T) {
	m, _, _, _ := newTestMachine()
	p, _ := m.Create(context.Background(), department.Tanhai, "E1001", Fields{EventDate: mustDate(t, "2026-03-01")})
	_, err := m.Convert(context.Background(), p.ID, TypeEventInvestigation, EventInvestigationForm{}, p.Version+1)
	if _, ok := err.(*VersionConflictError); !ok {
		t.Fatalf("expected *VersionConflictError, got %v", err)
	}
}

func TestConvert_TwiceIsInvalidTransition(t *testing.T) {
	m, _, _, _ := newTestMachine()
	p, _ := m.Create(context.Background(), department.Tanhai, "E1001", Fields{EventDate: mustDate(t, "2026-03-01")})
	converted, err := m.Convert(context.Background(), p.ID, TypeEventInvestigation, EventInvestigationForm{}, p.Version)
	if err != nil {
		t.Fatalf("first convert: %v", err)
	}
	_, err = m.Convert(context.Background(), p.ID, TypeEventInvestigation, EventInvestigationForm{}, converted.Version)
	if _, ok := err.(*InvalidTransitionError); !ok {
		t.Fatalf("expected *InvalidTransitionError, got %v", err)
	}
}

func TestMarkComplete_ClosesPendingCase(t *testing.T) {
	m, _, cases, _ := newTestMachine()
	p, _ := m.Create(context.Background(), department.Tanhai, "E1001", Fields{EventDate: mustDate(t, "2026-03-01")})
	converted, err := m.Convert(context.Background(), p.ID, TypeEventInvestigation, EventInvestigationForm{}, p.Version)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	completed, err := m.MarkComplete(context.Background(), p.ID, "https://drive.example/"+uuid.NewString(), converted.Version)
	if err != nil {
		t.Fatalf("mark complete: %v", err)
	}
	if completed.ConversionStatus != StatusCompleted {
		t.Fatalf("expected Completed, got %s", completed.ConversionStatus)
	}

	pc, ok, _ := cases.GetByProfile(context.Background(), p.ID)
	if !ok || pc.Status != pendingcase.StatusUploaded {
		t.Fatalf("expected pending case closed, got %+v ok=%v", pc, ok)
	}
}

func TestAdminReset_ReturnsToBasicPending(t *testing.T) {
	m, _, _, _ := newTestMachine()
	p, _ := m.Create(context.Background(), department.Tanhai, "E1001", Fields{EventDate: mustDate(t, "2026-03-01")})
	converted, _ := m.Convert(context.Background(), p.ID, TypeEventInvestigation, EventInvestigationForm{}, p.Version)

	reset, err := m.AdminReset(context.Background(), p.ID, converted.Version)
	if err != nil {
		t.Fatalf("admin reset: %v", err)
	}
	if reset.ConversionStatus != StatusPending || reset.ProfileType != TypeBasic {
		t.Fatalf("expected reset to Basic/Pending, got %+v", reset)
	}
}

func TestUpdate_EventDateChangeNotifiesScoring(t *testing.T) {
	m, _, _, engine := newTestMachine()
	p, _ := m.Create(context.Background(), department.Tanhai, "E1001", Fields{EventDate: mustDate(t, "2026-03-10")})

	checklist := &scoring.FaultChecklist{Flags: [9]bool{true, true, true, true, true}}
	rec, err := engine.ApplyRecord(context.Background(), scoring.Draft{
		Employee: "E1001", StandardCode: "R04", EventDate: mustDate(t, "2026-03-10"), Checklist: checklist,
	})
	if err != nil {
		t.Fatalf("apply record: %v", err)
	}

	linked, err := m.LinkAssessmentRecord(context.Background(), p.ID, rec.ID, p.Version)
	if err != nil {
		t.Fatalf("link: %v", err)
	}

	newDate := mustDate(t, "2026-07-01")
	updated, err := m.Update(context.Background(), p.ID, Fields{EventDate: newDate}, linked.Version)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.EventDate.Equal(newDate) {
		t.Fatalf("expected profile event date updated to %v, got %v", newDate, updated.EventDate)
	}

	records, err := engine.ListForEmployeeMonth(context.Background(), "E1001", 2026, time.July)
	if err != nil {
		t.Fatalf("list for employee month: %v", err)
	}
	if len(records) != 1 || !records[0].EventDate.Equal(newDate) {
		t.Fatalf("expected the moved record to show up in July, got %+v", records)
	}
}
