package profile

import "fmt"

// InvalidTransitionError means the requested operation does not apply to
// the profile's current ConversionStatus (spec §4.11 contracts).
type InvalidTransitionError struct {
	ProfileID string
	From      ConversionStatus
	Attempted string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("profile: %s: cannot %s from state %s", e.ProfileID, e.Attempted, e.From)
}

// VersionConflictError means an update's expected_version did not match
// the row's current version (spec §4.11 "update ... optimistic-concurrency").
type VersionConflictError struct {
	ProfileID       string
	ExpectedVersion int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("profile: %s: version conflict (expected %d)", e.ProfileID, e.ExpectedVersion)
}

// SubFormTypeMismatchError means the sub-form payload's Type() doesn't
// match the requested target conversion type.
type SubFormTypeMismatchError struct {
	Target Type
	Got    Type
}

func (e *SubFormTypeMismatchError) Error() string {
	return fmt.Sprintf("profile: sub-form type %s does not match target type %s", e.Got, e.Target)
}
