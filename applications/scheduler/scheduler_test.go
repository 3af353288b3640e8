package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/domain/employee"
	"github.com/kunpeto/driver-management-system-sub001/domain/reward"
	"github.com/kunpeto/driver-management-system-sub001/domain/schedule"
	"github.com/kunpeto/driver-management-system-sub001/domain/scoring"
	"github.com/kunpeto/driver-management-system-sub001/domain/syncjob"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/logging"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/taskqueue"
)

type fakeEmployeeRepo struct{}

func (fakeEmployeeRepo) Create(context.Context, employee.Employee) (employee.Employee, error) {
	return employee.Employee{}, nil
}
func (fakeEmployeeRepo) GetByCode(context.Context, string) (employee.Employee, error) {
	return employee.Employee{}, nil
}
func (fakeEmployeeRepo) ListByDepartment(context.Context, department.Department, bool) ([]employee.Employee, error) {
	return nil, nil
}
func (fakeEmployeeRepo) MarkResigned(context.Context, string, bool) error { return nil }
func (fakeEmployeeRepo) RecordTransfer(context.Context, employee.Transfer) (employee.Transfer, error) {
	return employee.Transfer{}, nil
}
func (fakeEmployeeRepo) ListTransfers(context.Context, string) ([]employee.Transfer, error) {
	return nil, nil
}

type fakeScoringStore struct {
	mu            sync.Mutex
	archivedYears []int
}

func (s *fakeScoringStore) Transact(_ context.Context, fn func(scoring.Ops) error) error {
	return fn(&fakeScoringOps{s: s})
}

type fakeScoringOps struct{ s *fakeScoringStore }

func (o *fakeScoringOps) InsertRecord(*scoring.AssessmentRecord) error { return nil }
func (o *fakeScoringOps) GetRecord(string) (scoring.AssessmentRecord, error) {
	return scoring.AssessmentRecord{}, nil
}
func (o *fakeScoringOps) FindByIdempotencyKey(string) (scoring.AssessmentRecord, bool, error) {
	return scoring.AssessmentRecord{}, false, nil
}
func (o *fakeScoringOps) UpdateRecordScore(string, float64, float64) error      { return nil }
func (o *fakeScoringOps) UpdateRecordEventDate(string, time.Time) error         { return nil }
func (o *fakeScoringOps) SoftDeleteRecord(string) error                        { return nil }
func (o *fakeScoringOps) ListLiveByCategoryYear(string, scoring.CategoryCode, int) ([]scoring.AssessmentRecord, error) {
	return nil, nil
}
func (o *fakeScoringOps) ListLiveByEmployeeMonth(string, int, time.Month) ([]scoring.AssessmentRecord, error) {
	return nil, nil
}
func (o *fakeScoringOps) LockCounter(string, scoring.CategoryCode, int) (int, error) { return 0, nil }
func (o *fakeScoringOps) SetCounter(string, scoring.CategoryCode, int, int) error    { return nil }
func (o *fakeScoringOps) ArchiveCounters(year int) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	o.s.archivedYears = append(o.s.archivedYears, year)
	return nil
}

type fakeScheduleStore struct {
	mu      sync.Mutex
	upserts int
}

func (f *fakeScheduleStore) Upsert(context.Context, schedule.Cell) error {
	f.mu.Lock()
	f.upserts++
	f.mu.Unlock()
	return nil
}
func (f *fakeScheduleStore) GetByEmployeeDate(context.Context, department.Department, string, time.Time) (schedule.Cell, bool, error) {
	return schedule.Cell{}, false, nil
}
func (f *fakeScheduleStore) ListByEmployeeMonth(context.Context, department.Department, string, int, time.Month) ([]schedule.Cell, error) {
	return nil, nil
}
func (f *fakeScheduleStore) ListByDepartmentMonth(context.Context, department.Department, int, time.Month) ([]schedule.Cell, error) {
	return nil, nil
}

type fakeSheetFetcher struct{ calls int }

func (f *fakeSheetFetcher) FetchTab(context.Context, syncjob.Kind, department.Department, string) (syncjob.Grid, error) {
	f.calls++
	return syncjob.Grid{Rows: [][]string{
		{"", "1"},
		{"E001", "D"},
	}}, nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *fakeScoringStore, *fakeSheetFetcher) {
	t.Helper()
	pool := taskqueue.NewPool(2, 16)
	pool.Start()
	t.Cleanup(pool.Stop)

	sheets := &fakeSheetFetcher{}
	sync := syncjob.NewOrchestrator(pool, sheets, &fakeScheduleStore{})

	scoringStore := &fakeScoringStore{}
	standards := scoring.NewInMemoryStandardStore(nil)
	scoringEngine := scoring.NewEngine(standards, scoringStore)

	rewardEngine := reward.NewEngine(fakeEmployeeRepo{}, scoringEngine)

	logger := logging.New("scheduler-test", "error", "text")

	s := New(Config{}, pool, sync, rewardEngine, scoringEngine, logger)
	return s, scoringStore, sheets
}

func TestRunScheduleSyncFiresOncePerDepartment(t *testing.T) {
	s, _, sheets := newTestScheduler(t)
	s.runScheduleSync()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if sheets.calls >= len(department.All()) {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if sheets.calls != len(department.All()) {
		t.Fatalf("expected %d sheet fetches, got %d", len(department.All()), sheets.calls)
	}
}

func TestRunYearlyCounterCloseArchivesPriorYear(t *testing.T) {
	s, store, _ := newTestScheduler(t)
	s.nowFunc = func() time.Time { return time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC) }

	s.runYearlyCounterClose()

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.archivedYears) != 1 || store.archivedYears[0] != 2026 {
		t.Fatalf("expected [2026], got %v", store.archivedYears)
	}
}

func TestRunYearlyCounterCloseCoalescesRepeatedFirings(t *testing.T) {
	s, store, _ := newTestScheduler(t)
	s.nowFunc = func() time.Time { return time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC) }

	s.runYearlyCounterClose()
	s.runYearlyCounterClose()

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.archivedYears) != 1 {
		t.Fatalf("expected coalescing to dedupe to a single archive call, got %v", store.archivedYears)
	}
}

func TestPriorMonthCrossesYearBoundary(t *testing.T) {
	year, month := priorMonth(time.Date(2027, time.January, 15, 0, 0, 0, 0, time.UTC))
	if year != 2026 || month != time.December {
		t.Fatalf("expected (2026, December), got (%d, %s)", year, month)
	}
}
