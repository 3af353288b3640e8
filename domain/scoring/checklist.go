package scoring

import "time"

// FaultChecklist is the 9-item responsibility checklist attached to
// r-fault records, plus the timeline fields spec §3 describes ("T0…T4 and
// a delay_seconds value").
type FaultChecklist struct {
	Flags [9]bool

	T0, T1, T2, T3, T4 time.Time
	DelaySeconds       int
}

// SetCount returns k, the number of set flags.
func (c FaultChecklist) SetCount() int {
	n := 0
	for _, f := range c.Flags {
		if f {
			n++
		}
	}
	return n
}

// faultLabel names a coefficient band, surfaced in API responses and logs.
type faultLabel string

const (
	faultLabelMinor faultLabel = "Minor"
	faultLabelMajor faultLabel = "Major"
	faultLabelFull  faultLabel = "Full"
)

// faultCoefficient implements spec §4.9 step 2's k-band table. k == 0
// returns ok=false: the caller must reject the record as nonsensical
// rather than score it at coefficient 0.
func faultCoefficient(k int) (coef float64, label faultLabel, ok bool) {
	switch {
	case k == 0:
		return 0, "", false
	case k >= 1 && k <= 3:
		return 0.3, faultLabelMinor, true
	case k >= 4 && k <= 6:
		return 0.7, faultLabelMajor, true
	case k >= 7 && k <= 9:
		return 1.0, faultLabelFull, true
	default:
		return 0, "", false
	}
}
