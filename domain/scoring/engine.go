package scoring

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Engine is the Assessment Scoring Engine (C9): apply_record,
// delete_record, profile-date-change recomputation, and yearly counter
// close, all centralized behind withCounterLocked (spec §4.9, §9).
type Engine struct {
	standards StandardStore
	store     Store
}

// NewEngine builds an Engine over a standards catalog and a transactional
// record/counter store.
func NewEngine(standards StandardStore, store Store) *Engine {
	return &Engine{standards: standards, store: store}
}

// ApplyRecord scores draft and persists the resulting record, incrementing
// the (employee, category, year) cumulative counter in the same
// transaction when the standard has has_cumulative set (spec §4.9).
func (e *Engine) ApplyRecord(ctx context.Context, draft Draft) (AssessmentRecord, error) {
	standard, ok, err := e.standards.GetByCode(draft.StandardCode)
	if err != nil {
		return AssessmentRecord{}, err
	}
	if !ok {
		return AssessmentRecord{}, &UnknownStandardError{Code: draft.StandardCode}
	}

	var coefPtr *float64
	if standard.IsRFaultType {
		if draft.Checklist == nil {
			return AssessmentRecord{}, &InvalidChecklistError{Reason: "r-fault standard requires a fault checklist"}
		}
		coef, _, ok := faultCoefficient(draft.Checklist.SetCount())
		if !ok {
			return AssessmentRecord{}, &InvalidChecklistError{Reason: "checklist must have at least one flag set"}
		}
		coefPtr = &coef
	}

	var rec AssessmentRecord
	err = e.store.Transact(ctx, func(ops Ops) error {
		if draft.IdempotencyKey != "" {
			existing, found, ferr := ops.FindByIdempotencyKey(draft.IdempotencyKey)
			if ferr != nil {
				return ferr
			}
			if found {
				rec = existing
				return nil
			}
		}

		multiplier := 1.0
		if standard.HasCumulative {
			next, lerr := withCounterLocked(ops, draft.Employee, standard.CategoryCode, draft.year(), func(current int) (int, error) {
				return current + 1, nil
			})
			if lerr != nil {
				return lerr
			}
			multiplier = 1.0 + 0.5*float64(next-1)
		}

		finalPoints := roundHalfAwayFromZero1dp(standard.BasePoints * effectiveCoefficient(coefPtr) * multiplier)

		rec = AssessmentRecord{
			ID:                   uuid.NewString(),
			EmployeeRef:          draft.Employee,
			StandardCode:         standard.Code,
			CategoryCode:         standard.CategoryCode,
			EventDate:            draft.EventDate,
			BasePoints:           standard.BasePoints,
			FaultCoefficient:     coefPtr,
			CumulativeMultiplier: multiplier,
			FinalPoints:          finalPoints,
			ProfileRef:           draft.ProfileRef,
			IdempotencyKey:       draft.IdempotencyKey,
			Checklist:            draft.Checklist,
			CreatedAt:            time.Now().UTC(),
		}
		return ops.InsertRecord(&rec)
	})
	return rec, err
}

// ListForEmployeeMonth returns an employee's live records for one month,
// across all categories (spec §4.10: "collect all non-soft-deleted
// Assessment Records with event_date in that month").
func (e *Engine) ListForEmployeeMonth(ctx context.Context, employee string, year int, month time.Month) ([]AssessmentRecord, error) {
	var out []AssessmentRecord
	err := e.store.Transact(ctx, func(ops Ops) error {
		var lerr error
		out, lerr = ops.ListLiveByEmployeeMonth(employee, year, month)
		return lerr
	})
	return out, err
}

// Peek reports whether a record with the given idempotency key already
// exists, without writing anything. Callers doing a dry-run pass (e.g. C8's
// dry_run mode) use this instead of ApplyRecord to report accurate skip
// counts with no side effects.
func (e *Engine) Peek(ctx context.Context, idempotencyKey string) (AssessmentRecord, bool, error) {
	var rec AssessmentRecord
	var found bool
	err := e.store.Transact(ctx, func(ops Ops) error {
		var ferr error
		rec, found, ferr = ops.FindByIdempotencyKey(idempotencyKey)
		return ferr
	})
	return rec, found, err
}

// DeleteRecord soft-deletes a record and, if its standard is cumulative,
// decrements the counter and recomputes every later live record in the
// same (employee, category, year) group in event-date order (spec §4.9
// "Soft-delete path"). Deleting an already-deleted record is a no-op.
func (e *Engine) DeleteRecord(ctx context.Context, recordID string) error {
	return e.store.Transact(ctx, func(ops Ops) error {
		record, err := ops.GetRecord(recordID)
		if err != nil {
			return err
		}
		if record.IsSoftDeleted {
			return nil
		}

		standard, ok, err := e.standards.GetByCode(record.StandardCode)
		if err != nil {
			return err
		}
		if !ok {
			return &UnknownStandardError{Code: record.StandardCode}
		}

		if err := ops.SoftDeleteRecord(recordID); err != nil {
			return err
		}
		if !standard.HasCumulative {
			return nil
		}

		year := record.EventDate.Local().Year()
		if _, err := withCounterLocked(ops, record.EmployeeRef, record.CategoryCode, year, decrementFloor0); err != nil {
			return err
		}
		return recomputeGroup(ops, record.EmployeeRef, record.CategoryCode, year)
	})
}

// MoveRecordEventDate implements the "profile date change" path: when a
// record's event_date crosses a year boundary, it is removed from the old
// year's counter (with later records in that year recomputed) and added to
// the new year's counter (with its rank recomputed in the new group). A
// same-year move only needs a recompute, since rank is event-date order
// within the unchanged group (spec §4.9, §4.11 bullet on C9 notification).
func (e *Engine) MoveRecordEventDate(ctx context.Context, recordID string, newEventDate time.Time) error {
	return e.store.Transact(ctx, func(ops Ops) error {
		record, err := ops.GetRecord(recordID)
		if err != nil {
			return err
		}
		standard, ok, err := e.standards.GetByCode(record.StandardCode)
		if err != nil {
			return err
		}
		if !ok {
			return &UnknownStandardError{Code: record.StandardCode}
		}

		oldYear := record.EventDate.Local().Year()
		newYear := newEventDate.Local().Year()

		if err := ops.UpdateRecordEventDate(recordID, newEventDate); err != nil {
			return err
		}
		if !standard.HasCumulative {
			return nil
		}

		if oldYear == newYear {
			return recomputeGroup(ops, record.EmployeeRef, record.CategoryCode, oldYear)
		}

		if _, err := withCounterLocked(ops, record.EmployeeRef, record.CategoryCode, oldYear, decrementFloor0); err != nil {
			return err
		}
		if err := recomputeGroup(ops, record.EmployeeRef, record.CategoryCode, oldYear); err != nil {
			return err
		}

		if _, err := withCounterLocked(ops, record.EmployeeRef, record.CategoryCode, newYear, func(current int) (int, error) {
			return current + 1, nil
		}); err != nil {
			return err
		}
		return recomputeGroup(ops, record.EmployeeRef, record.CategoryCode, newYear)
	})
}

// CloseYear archives counters for a prior year (spec §4.9 "Year reset").
// The new year's counters need no explicit creation: LockCounter creates a
// (employee, category, year) row at 0 the first time it's touched.
func (e *Engine) CloseYear(ctx context.Context, priorYear int) error {
	return e.store.Transact(ctx, func(ops Ops) error {
		return ops.ArchiveCounters(priorYear)
	})
}

func decrementFloor0(current int) (int, error) {
	if current <= 0 {
		return 0, nil
	}
	return current - 1, nil
}
