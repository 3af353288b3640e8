// Package profile implements the Profile State Machine (C11): incident
// profiles with typed sub-forms, a one-way conversion lifecycle, and
// optimistic-concurrency updates.
package profile

import (
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
)

// Type is the closed set of profile variants (spec §3).
type Type string

const (
	TypeBasic                Type = "Basic"
	TypeEventInvestigation   Type = "EventInvestigation"
	TypePersonnelInterview   Type = "PersonnelInterview"
	TypeCorrectiveMeasures   Type = "CorrectiveMeasures"
	TypeAssessmentNotice     Type = "AssessmentNotice"
)

// ConversionStatus is the closed set of lifecycle states (spec §3, §4.11).
type ConversionStatus string

const (
	StatusPending   ConversionStatus = "Pending"
	StatusConverted ConversionStatus = "Converted"
	StatusCompleted ConversionStatus = "Completed"
)

// Profile is an incident record for one driver (spec §3).
type Profile struct {
	ID                 string
	Department         department.Department
	EmployeeRef        string
	EventDate          time.Time
	EventTime          string
	EventLocation      string
	TrainNumber        string
	EventTitle         string
	EventDescription   string
	ProfileType        Type
	ConversionStatus   ConversionStatus
	Version            int
	DriveLink          string
	AssessmentRecordRef string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Fields carries the caller-supplied attributes for create/update (spec
// §4.11 "create(department, employee, fields)").
type Fields struct {
	EventDate        time.Time
	EventTime        string
	EventLocation    string
	TrainNumber      string
	EventTitle       string
	EventDescription string
}
