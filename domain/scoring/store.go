package scoring

import (
	"context"
	"time"
)

// Ops is the set of operations available inside one Store.Transact call.
// All Ops calls inside a single Transact invocation commit or roll back
// together (spec §5: "insert record + bump counter" runs in one
// transaction with row-level locking on the counter row).
type Ops interface {
	InsertRecord(rec *AssessmentRecord) error
	GetRecord(id string) (AssessmentRecord, error)
	FindByIdempotencyKey(key string) (AssessmentRecord, bool, error)
	UpdateRecordScore(id string, multiplier, finalPoints float64) error
	UpdateRecordEventDate(id string, eventDate time.Time) error
	SoftDeleteRecord(id string) error
	// ListLiveByCategoryYear returns non-soft-deleted records for
	// (employee, category, year) ordered by event_date ascending, then by
	// insertion order for same-day ties.
	ListLiveByCategoryYear(employee string, category CategoryCode, year int) ([]AssessmentRecord, error)
	// ListLiveByEmployeeMonth returns non-soft-deleted records for employee
	// with event_date in (year, month), across all categories. Used by C10
	// to evaluate +M02/+M03 eligibility.
	ListLiveByEmployeeMonth(employee string, year int, month time.Month) ([]AssessmentRecord, error)
	// LockCounter returns the current occurrence_count for (employee,
	// category, year) under a row-level lock, creating the row at 0 if it
	// does not yet exist.
	LockCounter(employee string, category CategoryCode, year int) (current int, err error)
	SetCounter(employee string, category CategoryCode, year int, value int) error
	ArchiveCounters(year int) error
}

// Store runs a unit of work transactionally. PostgresStore implements this
// with a real database/sql transaction; fakeStore (in tests) implements it
// over an in-memory map for fast, DB-free coverage of the scoring rules.
type Store interface {
	Transact(ctx context.Context, fn func(Ops) error) error
}

// withCounterLocked is the spec §9 "Design Notes" helper: it acquires the
// counter row via ops, runs fn against its current value, and persists
// fn's returned next value in the same unit of work.
func withCounterLocked(ops Ops, employee string, category CategoryCode, year int, fn func(current int) (next int, err error)) (int, error) {
	current, err := ops.LockCounter(employee, category, year)
	if err != nil {
		return 0, err
	}
	next, err := fn(current)
	if err != nil {
		return 0, err
	}
	if err := ops.SetCounter(employee, category, year, next); err != nil {
		return 0, err
	}
	return next, nil
}

// recomputeGroup re-derives cumulative_multiplier and final_points for
// every live record in (employee, category, year), in event-date rank
// order, per the "rank consistency" invariant (spec §8).
func recomputeGroup(ops Ops, employee string, category CategoryCode, year int) error {
	live, err := ops.ListLiveByCategoryYear(employee, category, year)
	if err != nil {
		return err
	}
	for i, rec := range live {
		rank := i + 1
		multiplier := 1.0 + 0.5*float64(rank-1)
		finalPoints := roundHalfAwayFromZero1dp(rec.BasePoints * effectiveCoefficient(rec.FaultCoefficient) * multiplier)
		if multiplier == rec.CumulativeMultiplier && finalPoints == rec.FinalPoints {
			continue
		}
		if err := ops.UpdateRecordScore(rec.ID, multiplier, finalPoints); err != nil {
			return err
		}
	}
	return nil
}
