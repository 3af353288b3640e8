package profile

import (
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/scoring"
)

// SubForm is the tagged-variant sub-record written once a profile converts
// (spec §9 Design Note: "model as a tagged variant ... with one persistent
// sub-row per variant. Conversion is a typed state transition, not a field
// flip.").
type SubForm interface {
	Type() Type
}

// EventInvestigationForm backs TypeEventInvestigation. Checklist, when set,
// is forwarded to the Scoring Engine if the profile is later tied to an
// r-fault Assessment Record.
type EventInvestigationForm struct {
	Summary   string
	RootCause string
	Checklist *scoring.FaultChecklist
}

func (EventInvestigationForm) Type() Type { return TypeEventInvestigation }

// PersonnelInterviewForm backs TypePersonnelInterview.
type PersonnelInterviewForm struct {
	IntervieweeName  string
	IntervieweeRole  string
	Transcript       string
	FollowUpRequired bool
}

func (PersonnelInterviewForm) Type() Type { return TypePersonnelInterview }

// CorrectiveMeasuresForm backs TypeCorrectiveMeasures.
type CorrectiveMeasuresForm struct {
	MeasuresDescription string
	ResponsibleParty    string
	DueDate             time.Time
	VerifiedAt          time.Time
}

func (CorrectiveMeasuresForm) Type() Type { return TypeCorrectiveMeasures }

// AssessmentNoticeForm backs TypeAssessmentNotice.
type AssessmentNoticeForm struct {
	StandardCode   string
	NoticeText     string
	AcknowledgedAt time.Time
}

func (AssessmentNoticeForm) Type() Type { return TypeAssessmentNotice }
