package bonus

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/domain/schedule"
	"github.com/kunpeto/driver-management-system-sub001/domain/scoring"
)

// fakeScheduleStore is an in-memory schedule.Store for bonus engine tests.
type fakeScheduleStore struct {
	cells []schedule.Cell
}

func (s *fakeScheduleStore) Upsert(context.Context, schedule.Cell) error { return nil }

func (s *fakeScheduleStore) GetByEmployeeDate(context.Context, department.Department, string, time.Time) (schedule.Cell, bool, error) {
	return schedule.Cell{}, false, nil
}

func (s *fakeScheduleStore) ListByEmployeeMonth(context.Context, department.Department, string, int, time.Month) ([]schedule.Cell, error) {
	return nil, nil
}

func (s *fakeScheduleStore) ListByDepartmentMonth(_ context.Context, dept department.Department, year int, month time.Month) ([]schedule.Cell, error) {
	var out []schedule.Cell
	for _, c := range s.cells {
		if c.Department == dept && c.Date.Year() == year && c.Date.Month() == month {
			out = append(out, c)
		}
	}
	return out, nil
}

// fakeScoringStore is a minimal in-memory scoring.Store, duplicated here
// (rather than exported from package scoring) because scoring's fakeStore
// is a test-only type unexported from its own package.
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

func (o *fakeScoringOps) LockCounter(string, scoring.CategoryCode, int) (int, error) { return 0, nil }
func (o *fakeScoringOps) SetCounter(string, scoring.CategoryCode, int, int) error    { return nil }
func (o *fakeScoringOps) ArchiveCounters(int) error                                  { return nil }

func bonusStandards() scoring.StandardStore {
	return scoring.NewInMemoryStandardStore([]scoring.Standard{
		{Code: CodeFullAttendance, CategoryCode: scoring.CategoryMonthlyReward, BasePoints: 3},
		{Code: CodeRShiftDuty, CategoryCode: scoring.CategoryAttendanceBonus, BasePoints: 3},
		{Code: CodeNationalHolidayDuty, CategoryCode: scoring.CategoryAttendanceBonus, BasePoints: 1},
		{Code: "+A03", CategoryCode: scoring.CategoryAttendanceBonus, BasePoints: 0.5},
		{Code: "+A04", CategoryCode: scoring.CategoryAttendanceBonus, BasePoints: 1.0},
		{Code: "+A05", CategoryCode: scoring.CategoryAttendanceBonus, BasePoints: 1.5},
		{Code: "+A06", CategoryCode: scoring.CategoryAttendanceBonus, BasePoints: 2.0},
	})
}

// Scenario 4 (spec §8): 10 full-attendance employees + 5 R-shift cells ->
// 15 records on first run, 0 new (15 skipped) on the second.
func TestProcess_AttendanceBonusIdempotency(t *testing.T) {
	// 10 full-attendance employees, each with one ordinary workday cell;
	// 5 of those same employees additionally have an R/0905G cell on a
	// different day, so the 15 records are 10x+M01 + 5x+A01 (spec §8
	// scenario 4 — the R-shift cells belong to a subset of the full-
	// attendance employees, not a disjoint group, since a plain R-shift
	// cell does not itself break full-month attendance).
	var cells []schedule.Cell
	for i := 0; i < 10; i++ {
		code := employeeCode(i)
		cells = append(cells, schedule.Cell{
			Department:   department.Tanhai,
			EmployeeCode: code,
			Date:         time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			RawText:      "08",
		})
		if i < 5 {
			cells = append(cells, schedule.Cell{
				Department:   department.Tanhai,
				EmployeeCode: code,
				Date:         time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
				RawText:      "R/0905G",
			})
		}
	}

	scheduleStore := &fakeScheduleStore{cells: cells}
	scoringEngine := scoring.NewEngine(bonusStandards(), newFakeScoringStore())
	bonusEngine := NewEngine(scheduleStore, scoringEngine)

	ctx := context.Background()
	first, err := bonusEngine.Process(ctx, department.Tanhai, 2026, time.January, false)
	if err != nil {
		t.Fatalf("first Process: %v", err)
	}
	totalCreated := 0
	for _, n := range first.Created {
		totalCreated += n
	}
	if totalCreated != 15 {
		t.Fatalf("first run: got %d created, want 15 (%+v)", totalCreated, first.Created)
	}

	second, err := bonusEngine.Process(ctx, department.Tanhai, 2026, time.January, false)
	if err != nil {
		t.Fatalf("second Process: %v", err)
	}
	totalCreated = 0
	for _, n := range second.Created {
		totalCreated += n
	}
	if totalCreated != 0 {
		t.Fatalf("second run: got %d created, want 0", totalCreated)
	}
	if len(second.Skipped) != 15 {
		t.Fatalf("second run: got %d skipped, want 15", len(second.Skipped))
	}
}

// Overtime composite boundary test (spec §8): a cell with both an R-shift
// and an overtime component produces two distinct bonus records.
func TestProcess_OvertimeCompositeProducesTwoRecords(t *testing.T) {
	cells := []schedule.Cell{{
		Department:   department.Tanhai,
		EmployeeCode: "2101A0001",
		Date:         time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		RawText:      "R/0905G(+2)",
	}}
	scheduleStore := &fakeScheduleStore{cells: cells}
	scoringEngine := scoring.NewEngine(bonusStandards(), newFakeScoringStore())
	bonusEngine := NewEngine(scheduleStore, scoringEngine)

	result, err := bonusEngine.Process(context.Background(), department.Tanhai, 2026, time.March, false)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Created[CodeRShiftDuty] != 1 {
		t.Fatalf("expected one %s record, got %d", CodeRShiftDuty, result.Created[CodeRShiftDuty])
	}
	if result.Created["+A04"] != 1 {
		t.Fatalf("expected one +A04 record, got %d", result.Created["+A04"])
	}
}

func employeeCode(n int) string {
	return "2101A" + zeroPad(n, 4)
}

func zeroPad(n, width int) string {
	s := ""
	for i := 0; i < width; i++ {
		s = string(rune('0'+n%10)) + s
		n /= 10
	}
	return s
}
