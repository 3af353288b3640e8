package scoring

import "time"

// AssessmentRecord is one scored incident (spec §3). FaultCoefficient is
// nil for non-r-fault standards; effectiveCoefficient treats that as 1.0.
type AssessmentRecord struct {
	ID                 string
	EmployeeRef        string
	StandardCode       string
	CategoryCode       CategoryCode
	EventDate          time.Time
	BasePoints         float64
	FaultCoefficient   *float64
	CumulativeMultiplier float64
	FinalPoints        float64
	ProfileRef         string
	IsSoftDeleted      bool
	IdempotencyKey     string
	Checklist          *FaultChecklist
	CreatedAt          time.Time
}

// Draft is the input to ApplyRecord (spec §4.9: "apply_record(draft) ->
// ScoredRecord").
type Draft struct {
	Employee       string
	StandardCode   string
	EventDate      time.Time
	Checklist      *FaultChecklist
	ProfileRef     string
	IdempotencyKey string
	Actor          string
}

// year returns the calendar year a Draft's event falls in, local time, per
// the year-cohort boundary spec §4.9 describes.
func (d Draft) year() int {
	return d.EventDate.Local().Year()
}
