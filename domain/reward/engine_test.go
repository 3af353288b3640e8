package reward

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/domain/employee"
	"github.com/kunpeto/driver-management-system-sub001/domain/scoring"
)

type fakeEmployeeRepo struct {
	employees []employee.Employee
}

func (r *fakeEmployeeRepo) Create(context.Context, employee.Employee) (employee.Employee, error) {
	return employee.Employee{}, nil
}
func (r *fakeEmployeeRepo) GetByCode(context.Context, string) (employee.Employee, error) {
	return employee.Employee{}, nil
}
func (r *fakeEmployeeRepo) ListByDepartment(_ context.Context, dept department.Department, includeResigned bool) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range r.employees {
		if e.CurrentDepartment == dept && (includeResigned || !e.IsResigned) {
			out = append(out, e)
		}
	}
	return out, nil
}
func (r *fakeEmployeeRepo) MarkResigned(context.Context, string, bool) error { return nil }
func (r *fakeEmployeeRepo) RecordTransfer(context.Context, employee.Transfer) (employee.Transfer, error) {
	return employee.Transfer{}, nil
}
func (r *fakeEmployeeRepo) ListTransfers(context.Context, string) ([]employee.Transfer, error) {
	return nil, nil
}

type fakeScoringStore struct {
	records map[string]*scoring.AssessmentRecord
	byKey   map[string]string
}

func newFakeScoringStore() *fakeScoringStore {
	return &fakeScoringStore{records: map[string]*scoring.AssessmentRecord{}, byKey: map[string]string{}}
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
	return nil, nil
}
func (o *fakeScoringOps) ListLiveByEmployeeMonth(employeeCode string, year int, month time.Month) ([]scoring.AssessmentRecord, error) {
	var out []scoring.AssessmentRecord
	for _, r := range o.s.records {
		if r.EmployeeRef == employeeCode && r.EventDate.Year() == year && r.EventDate.Month() == month && !r.IsSoftDeleted {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate.Before(out[j].EventDate) })
	return out, nil
}
func (o *fakeScoringOps) LockCounter(string, scoring.CategoryCode, int) (int, error) { return 0, nil }
func (o *fakeScoringOps) SetCounter(string, scoring.CategoryCode, int, int) error    { return nil }
func (o *fakeScoringOps) ArchiveCounters(int) error                                  { return nil }

func rewardStandards() scoring.StandardStore {
	return scoring.NewInMemoryStandardStore([]scoring.Standard{
		{Code: CodeNoMinorFault, CategoryCode: scoring.CategoryMonthlyReward, BasePoints: 1},
		{Code: CodeNoDeduction, CategoryCode: scoring.CategoryMonthlyReward, BasePoints: 2},
		{Code: "R04", CategoryCode: scoring.CategoryResponsibility, BasePoints: -3, IsRFaultType: true},
	})
}

func TestProcess_EligibilityAndIdempotency(t *testing.T) {
	employees := []employee.Employee{
		{EmployeeCode: "2101A0001", CurrentDepartment: department.Tanhai},
		{EmployeeCode: "2101A0002", CurrentDepartment: department.Tanhai},
	}
	repo := &fakeEmployeeRepo{employees: employees}
	scoringStore := newFakeScoringStore()
	scoringEngine := scoring.NewEngine(rewardStandards(), scoringStore)

	// Employee 2 has an R-category fault this month, disqualifying +M02
	// and +M03; employee 1 has no records, qualifying for both.
	checklist := &scoring.FaultChecklist{Flags: [9]bool{true, true, true, true, true}}
	_, err := scoringEngine.ApplyRecord(context.Background(), scoring.Draft{
		Employee:     "2101A0002",
		StandardCode: "R04",
		EventDate:    time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		Checklist:    checklist,
	})
	if err != nil {
		t.Fatalf("seed fault record: %v", err)
	}

	rewardEngine := NewEngine(repo, scoringEngine)
	ctx := context.Background()

	first, err := rewardEngine.Process(ctx, department.Tanhai, 2026, time.April)
	if err != nil {
		t.Fatalf("first Process: %v", err)
	}
	if first.Created[CodeNoMinorFault] != 1 || first.Created[CodeNoDeduction] != 1 {
		t.Fatalf("expected one +M02 and one +M03, got %+v", first.Created)
	}

	second, err := rewardEngine.Process(ctx, department.Tanhai, 2026, time.April)
	if err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if len(second.Created) != 0 {
		t.Fatalf("expected no new records on rerun, got %+v", second.Created)
	}
	if len(second.Skipped) != 2 {
		t.Fatalf("expected 2 skipped on rerun, got %d", len(second.Skipped))
	}
}
