package docgen

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/domain/profile"
	"github.com/kunpeto/driver-management-system-sub001/domain/scoring"
)

func sampleProfile(id string, profileType profile.Type) profile.Profile {
	return profile.Profile{
		ID:               id,
		Department:       department.Tanhai,
		EmployeeRef:      "2101A0001",
		EventDate:        time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
		EventLocation:    "Tanhai Depot",
		TrainNumber:      "105",
		EventTitle:       "door fault",
		ProfileType:      profileType,
		ConversionStatus: profile.StatusConverted,
	}
}

func TestRender_EventInvestigation_IsDeterministic(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	p := sampleProfile("p-1", profile.TypeEventInvestigation)
	form := profile.EventInvestigationForm{
		Summary:   "doors failed to close at platform 2",
		RootCause: "sensor misalignment",
		Checklist: &scoring.FaultChecklist{Flags: [9]bool{true, false, true}},
	}

	data1, name1, err := r.Render(context.Background(), p, form)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	data2, name2, err := r.Render(context.Background(), p, form)
	if err != nil {
		t.Fatalf("Render (second call): %v", err)
	}
	if !bytes.Equal(data1, data2) {
		t.Fatal("expected identical inputs to produce identical bytes")
	}
	if name1 != name2 {
		t.Fatalf("expected identical file names, got %q and %q", name1, name2)
	}
	if name1 != "EI_p-1_202603.doc" {
		t.Fatalf("unexpected file name: %q", name1)
	}
	if !bytes.Contains(data1, []byte("doors failed to close at platform 2")) {
		t.Fatal("expected rendered body to contain the summary text")
	}
	if !bytes.Contains(data1, []byte("☑")) || !bytes.Contains(data1, []byte("☐")) {
		t.Fatal("expected both checked and unchecked checklist glyphs")
	}
}

func TestRender_PersonnelInterview(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	p := sampleProfile("p-2", profile.TypePersonnelInterview)
	form := profile.PersonnelInterviewForm{
		IntervieweeName:  "driver one",
		IntervieweeRole:  "train operator",
		Transcript:       "discussed the incident",
		FollowUpRequired: true,
	}

	data, name, err := r.Render(context.Background(), p, form)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if name != "PI_p-2_202603.doc" {
		t.Fatalf("unexpected file name: %q", name)
	}
	if !bytes.Contains(data, []byte("driver one")) {
		t.Fatal("expected rendered body to contain the interviewee name")
	}
}

func TestRender_MismatchedSubFormTypeErrors(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	p := sampleProfile("p-3", profile.TypeEventInvestigation)
	_, _, err = r.Render(context.Background(), p, profile.PersonnelInterviewForm{})
	if err == nil {
		t.Fatal("expected an error when the sub-form doesn't match the profile's template")
	}
}
