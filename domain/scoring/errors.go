package scoring

import "fmt"

// UnknownStandardError means apply_record referenced a standard_code with
// no catalog row (spec §4.9 step 1).
type UnknownStandardError struct {
	Code string
}

func (e *UnknownStandardError) Error() string {
	return fmt.Sprintf("scoring: unknown standard code %q", e.Code)
}

// InvalidChecklistError means an r-fault standard was applied without a
// well-formed 9-flag checklist, or with all flags unset (spec §4.9 step 2,
// §8 "Fault-checklist edge counts").
type InvalidChecklistError struct {
	Reason string
}

func (e *InvalidChecklistError) Error() string {
	return fmt.Sprintf("scoring: invalid fault checklist: %s", e.Reason)
}

// RecordNotFoundError means delete_record or a recompute path referenced a
// record id that doesn't exist or is already soft-deleted.
type RecordNotFoundError struct {
	RecordID string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("scoring: record %q not found", e.RecordID)
}
