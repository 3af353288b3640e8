// Package bonus implements the Attendance Bonus Engine (C8): it derives
// +M01/+A01…+A06 records from a month of parsed schedule cells and emits
// them idempotently via the scoring engine.
package bonus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/domain/schedule"
	"github.com/kunpeto/driver-management-system-sub001/domain/scoring"
)

const (
	CodeFullAttendance      = "+M01"
	CodeRShiftDuty          = "+A01"
	CodeNationalHolidayDuty = "+A02"
)

// overtimeCodes maps a cell's overtime unit (1..4) to its standard code,
// per spec §4.8 step 2.
var overtimeCodes = map[int]string{
	1: "+A03",
	2: "+A04",
	3: "+A05",
	4: "+A06",
}

// Result summarizes one Process invocation (spec §4.8: "counts by code,
// list of skipped keys, warnings").
type Result struct {
	Created  map[string]int
	Skipped  []string
	Warnings []string
}

func newResult() Result {
	return Result{Created: make(map[string]int)}
}

// Engine derives attendance-bonus records from schedule cells.
type Engine struct {
	cells   schedule.Store
	scoring *scoring.Engine
}

// NewEngine builds a bonus Engine over a schedule cell store and the
// shared scoring engine used to persist (or peek at) derived records.
func NewEngine(cells schedule.Store, scoringEngine *scoring.Engine) *Engine {
	return &Engine{cells: cells, scoring: scoringEngine}
}

// proposedRecord is an internal draft before idempotency resolution.
type proposedRecord struct {
	department   department.Department
	employee     string
	standardCode string
	eventDate    time.Time
}

// Process runs the attendance-bonus rule set for one (department, year,
// month). With dryRun set, proposed records are classified and checked
// for idempotency-key collisions but never persisted (spec §4.8).
func (e *Engine) Process(ctx context.Context, dept department.Department, year int, month time.Month, dryRun bool) (Result, error) {
	cells, err := e.cells.ListByDepartmentMonth(ctx, dept, year, month)
	if err != nil {
		return Result{}, fmt.Errorf("bonus: list schedule cells: %w", err)
	}

	byEmployee := make(map[string][]schedule.Cell)
	for _, c := range cells {
		byEmployee[c.EmployeeCode] = append(byEmployee[c.EmployeeCode], c)
	}

	result := newResult()
	for employee, employeeCells := range byEmployee {
		for _, p := range proposeRecords(dept, employee, year, month, employeeCells) {
			if err := e.emit(ctx, p, dryRun, &result); err != nil {
				return result, err
			}
		}
	}
	return result, nil
}

func proposeRecords(dept department.Department, employee string, year int, month time.Month, cells []schedule.Cell) []proposedRecord {
	var out []proposedRecord
	fullAttendance := true

	for _, c := range cells {
		tok := schedule.ParseCell(c.RawText)
		if tok.Kind == schedule.KindOff {
			fullAttendance = false
		}
		if tok.HasRShift() {
			out = append(out, proposedRecord{department: dept, employee: employee, standardCode: CodeRShiftDuty, eventDate: c.Date})
		}
		if tok.HasNationalHolidayRShift() {
			out = append(out, proposedRecord{department: dept, employee: employee, standardCode: CodeNationalHolidayDuty, eventDate: c.Date})
		}
		if tok.HasOvertime() {
			if code, ok := overtimeCodes[tok.OvertimeUnit]; ok {
				out = append(out, proposedRecord{department: dept, employee: employee, standardCode: code, eventDate: c.Date})
			}
		}
	}

	if fullAttendance && len(cells) > 0 {
		monthRef := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		out = append(out, proposedRecord{department: dept, employee: employee, standardCode: CodeFullAttendance, eventDate: monthRef})
	}

	return out
}

func (e *Engine) emit(ctx context.Context, p proposedRecord, dryRun bool, result *Result) error {
	key := idempotencyKey(p)

	if dryRun {
		_, found, err := e.scoring.Peek(ctx, key)
		if err != nil {
			return err
		}
		if found {
			result.Skipped = append(result.Skipped, key)
			return nil
		}
		result.Created[p.standardCode]++
		return nil
	}

	before, found, err := e.scoring.Peek(ctx, key)
	_ = before
	if err != nil {
		return err
	}
	if found {
		result.Skipped = append(result.Skipped, key)
		return nil
	}

	_, err = e.scoring.ApplyRecord(ctx, scoring.Draft{
		Employee:       p.employee,
		StandardCode:   p.standardCode,
		EventDate:      p.eventDate,
		IdempotencyKey: key,
	})
	if err != nil {
		if uerr, ok := err.(*scoring.UnknownStandardError); ok {
			result.Warnings = append(result.Warnings, uerr.Error())
			return nil
		}
		return err
	}
	result.Created[p.standardCode]++
	return nil
}

func idempotencyKey(p proposedRecord) string {
	dayOrM := p.eventDate.Format("2006-01-02")
	if p.standardCode == CodeFullAttendance {
		dayOrM = "M"
	}
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s", p.department, p.employee, dayOrM, p.standardCode)))
	return hex.EncodeToString(h[:])
}
