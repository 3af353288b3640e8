package scoring

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeStore is an in-memory Store for exercising Engine without a database.
// It serializes Transact with a single mutex, which is sufficient to prove
// the scoring rules themselves; true row-level concurrency is PostgresStore's
// concern and is grounded on the teacher's SELECT ... FOR UPDATE pattern.
type fakeStore struct {
	records  map[string]*AssessmentRecord
	byKey    map[string]string
	counters map[counterKey]int
}

type counterKey struct {
	employee string
	category CategoryCode
	year     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:  make(map[string]*AssessmentRecord),
		byKey:    make(map[string]string),
		counters: make(map[counterKey]int),
	}
}

func (s *fakeStore) Transact(_ context.Context, fn func(Ops) error) error {
	return fn(&fakeOps{s: s})
}

type fakeOps struct{ s *fakeStore }

func (o *fakeOps) InsertRecord(rec *AssessmentRecord) error {
	cp := *rec
	o.s.records[rec.ID] = &cp
	if rec.IdempotencyKey != "" {
		o.s.byKey[rec.IdempotencyKey] = rec.ID
	}
	return nil
}

func (o *fakeOps) GetRecord(id string) (AssessmentRecord, error) {
	rec, ok := o.s.records[id]
	if !ok {
		return AssessmentRecord{}, &RecordNotFoundError{RecordID: id}
	}
	return *rec, nil
}

func (o *fakeOps) FindByIdempotencyKey(key string) (AssessmentRecord, bool, error) {
	id, ok := o.s.byKey[key]
	if !ok {
		return AssessmentRecord{}, false, nil
	}
	return *o.s.records[id], true, nil
}

func (o *fakeOps) UpdateRecordScore(id string, multiplier, finalPoints float64) error {
	o.s.records[id].CumulativeMultiplier = multiplier
	o.s.records[id].FinalPoints = finalPoints
	return nil
}

func (o *fakeOps) UpdateRecordEventDate(id string, eventDate time.Time) error {
	o.s.records[id].EventDate = eventDate
	return nil
}

func (o *fakeOps) SoftDeleteRecord(id string) error {
	o.s.records[id].IsSoftDeleted = true
	return nil
}

func (o *fakeOps) ListLiveByCategoryYear(employee string, category CategoryCode, year int) ([]AssessmentRecord, error) {
	var out []AssessmentRecord
	for _, rec := range o.s.records {
		if rec.EmployeeRef == employee && rec.CategoryCode == category && rec.EventDate.Year() == year && !rec.IsSoftDeleted {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate.Before(out[j].EventDate) })
	return out, nil
}

func (o *fakeOps) ListLiveByEmployeeMonth(employee string, year int, month time.Month) ([]AssessmentRecord, error) {
	var out []AssessmentRecord
	for _, rec := range o.s.records {
		if rec.EmployeeRef == employee && rec.EventDate.Year() == year && rec.EventDate.Month() == month && !rec.IsSoftDeleted {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate.Before(out[j].EventDate) })
	return out, nil
}

func (o *fakeOps) LockCounter(employee string, category CategoryCode, year int) (int, error) {
	return o.s.counters[counterKey{employee, category, year}], nil
}

func (o *fakeOps) SetCounter(employee string, category CategoryCode, year int, value int) error {
	o.s.counters[counterKey{employee, category, year}] = value
	return nil
}

func (o *fakeOps) ArchiveCounters(year int) error { return nil }

func testStandards() StandardStore {
	return NewInMemoryStandardStore([]Standard{
		{Code: "S12", CategoryCode: CategorySevere, BasePoints: -2, HasCumulative: true},
		{Code: "R04", CategoryCode: CategoryResponsibility, BasePoints: -3, HasCumulative: true, IsRFaultType: true},
		{Code: "D01", CategoryCode: CategoryDeduction, BasePoints: -1, HasCumulative: false},
	})
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

// Scenario 1 (spec §8): cumulative scoring across three occurrences in one
// year for a has_cumulative standard.
func TestApplyRecord_CumulativeScoring(t *testing.T) {
	e := NewEngine(testStandards(), &fakeStore{
		records:  map[string]*AssessmentRecord{},
		byKey:    map[string]string{},
		counters: map[counterKey]int{},
	})
	ctx := context.Background()

	dates := []string{"2026-03-01", "2026-05-01", "2026-07-01"}
	want := []float64{-2.0, -3.0, -4.0}

	for i, d := range dates {
		rec, err := e.ApplyRecord(ctx, Draft{
			Employee:     "E1",
			StandardCode: "S12",
			EventDate:    mustDate(t, d),
		})
		if err != nil {
			t.Fatalf("ApplyRecord[%d]: %v", i, err)
		}
		if rec.FinalPoints != want[i] {
			t.Fatalf("record %d: got final_points=%v, want %v", i, rec.FinalPoints, want[i])
		}
	}
}

// Scenario 2 (spec §8): r-fault standard, 5 flags set => Major (0.7).
func TestApplyRecord_RFaultMajorResponsibility(t *testing.T) {
	e := NewEngine(testStandards(), newFakeStore())
	checklist := &FaultChecklist{Flags: [9]bool{true, true, true, true, true, false, false, false, false}}

	rec, err := e.ApplyRecord(context.Background(), Draft{
		Employee:     "E1",
		StandardCode: "R04",
		EventDate:    mustDate(t, "2026-01-10"),
		Checklist:    checklist,
	})
	if err != nil {
		t.Fatalf("ApplyRecord: %v", err)
	}
	if rec.FaultCoefficient == nil || *rec.FaultCoefficient != 0.7 {
		t.Fatalf("got coefficient %v, want 0.7", rec.FaultCoefficient)
	}
	if rec.CumulativeMultiplier != 1.0 {
		t.Fatalf("got multiplier %v, want 1.0", rec.CumulativeMultiplier)
	}
	if rec.FinalPoints != -2.1 {
		t.Fatalf("got final_points %v, want -2.1", rec.FinalPoints)
	}
}

// Scenario 3 (spec §8): soft-deleting a middle record recomputes the
// multiplier of the later live record.
func TestDeleteRecord_RecomputesLaterRecords(t *testing.T) {
	e := NewEngine(testStandards(), newFakeStore())
	ctx := context.Background()

	var ids []string
	for _, d := range []string{"2026-03-01", "2026-05-01", "2026-07-01"} {
		rec, err := e.ApplyRecord(ctx, Draft{Employee: "E1", StandardCode: "S12", EventDate: mustDate(t, d)})
		if err != nil {
			t.Fatalf("ApplyRecord: %v", err)
		}
		ids = append(ids, rec.ID)
	}

	if err := e.DeleteRecord(ctx, ids[1]); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}

	store := e.store.(*fakeStore)
	last := store.records[ids[2]]
	if last.CumulativeMultiplier != 1.5 {
		t.Fatalf("got multiplier %v, want 1.5", last.CumulativeMultiplier)
	}
	if last.FinalPoints != -3.0 {
		t.Fatalf("got final_points %v, want -3.0", last.FinalPoints)
	}
}

// Fault-checklist edge counts (spec §8 "Boundary tests").
func TestFaultCoefficient_BoundaryCounts(t *testing.T) {
	cases := []struct {
		k        int
		wantOK   bool
		wantCoef float64
	}{
		{0, false, 0},
		{3, true, 0.3},
		{4, true, 0.7},
		{7, true, 1.0},
	}
	for _, c := range cases {
		coef, _, ok := faultCoefficient(c.k)
		if ok != c.wantOK {
			t.Fatalf("k=%d: got ok=%v, want %v", c.k, ok, c.wantOK)
		}
		if ok && coef != c.wantCoef {
			t.Fatalf("k=%d: got coef=%v, want %v", c.k, coef, c.wantCoef)
		}
	}
}

func TestApplyRecord_UnknownStandard(t *testing.T) {
	e := NewEngine(testStandards(), newFakeStore())
	_, err := e.ApplyRecord(context.Background(), Draft{Employee: "E1", StandardCode: "ZZZ", EventDate: mustDate(t, "2026-01-01")})
	if _, ok := err.(*UnknownStandardError); !ok {
		t.Fatalf("expected *UnknownStandardError, got %T (%v)", err, err)
	}
}

func TestApplyRecord_IdempotencyKeySkipsDuplicate(t *testing.T) {
	e := NewEngine(testStandards(), newFakeStore())
	ctx := context.Background()
	draft := Draft{
		Employee:       "E1",
		StandardCode:   "D01",
		EventDate:      mustDate(t, "2026-01-01"),
		IdempotencyKey: uuid.NewString(),
	}

	first, err := e.ApplyRecord(ctx, draft)
	if err != nil {
		t.Fatalf("first ApplyRecord: %v", err)
	}
	second, err := e.ApplyRecord(ctx, draft)
	if err != nil {
		t.Fatalf("second ApplyRecord: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected idempotent skip to return the same record, got %s vs %s", first.ID, second.ID)
	}
}

// Boundary test (spec §8): a record on Dec 31 and one on Jan 1 are each
// rank-1 within their own year.
func TestApplyRecord_YearBoundaryResetsRank(t *testing.T) {
	e := NewEngine(testStandards(), newFakeStore())
	ctx := context.Background()

	dec31, err := e.ApplyRecord(ctx, Draft{Employee: "E1", StandardCode: "S12", EventDate: mustDate(t, "2026-12-31")})
	if err != nil {
		t.Fatalf("ApplyRecord dec31: %v", err)
	}
	jan1, err := e.ApplyRecord(ctx, Draft{Employee: "E1", StandardCode: "S12", EventDate: mustDate(t, "2027-01-01")})
	if err != nil {
		t.Fatalf("ApplyRecord jan1: %v", err)
	}
	if dec31.CumulativeMultiplier != 1.0 {
		t.Fatalf("dec31: got multiplier %v, want 1.0", dec31.CumulativeMultiplier)
	}
	if jan1.CumulativeMultiplier != 1.0 {
		t.Fatalf("jan1: got multiplier %v, want 1.0", jan1.CumulativeMultiplier)
	}
}
