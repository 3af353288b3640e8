// Package reward implements the Monthly Reward Derivation (C10): +M02/+M03
// eligibility over a month of an employee's assessment records.
package reward

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/domain/employee"
	"github.com/kunpeto/driver-management-system-sub001/domain/scoring"
)

const (
	CodeNoMinorFault = "+M02"
	CodeNoDeduction  = "+M03"
)

// noMinorFaultCategories is the {R, S} set +M02 checks (spec §4.10).
var noMinorFaultCategories = map[scoring.CategoryCode]bool{
	scoring.CategoryResponsibility: true,
	scoring.CategorySevere:         true,
}

// Result summarizes one Process invocation, mirroring bonus.Result's shape.
type Result struct {
	Created  map[string]int
	Skipped  []string
	Warnings []string
}

func newResult() Result {
	return Result{Created: make(map[string]int)}
}

// Engine derives +M02/+M03 reward records.
type Engine struct {
	employees employee.Repository
	scoring   *scoring.Engine
}

// NewEngine builds a reward Engine.
func NewEngine(employees employee.Repository, scoringEngine *scoring.Engine) *Engine {
	return &Engine{employees: employees, scoring: scoringEngine}
}

// Process evaluates +M02/+M03 eligibility for every active employee in
// dept for (year, month) and emits idempotent reward records (spec §4.10).
// +M01 is C8's concern and is never re-emitted here.
func (e *Engine) Process(ctx context.Context, dept department.Department, year int, month time.Month) (Result, error) {
	employees, err := e.employees.ListByDepartment(ctx, dept, false)
	if err != nil {
		return Result{}, fmt.Errorf("reward: list employees: %w", err)
	}

	result := newResult()
	for _, emp := range employees {
		records, err := e.scoring.ListForEmployeeMonth(ctx, emp.EmployeeCode, year, month)
		if err != nil {
			return result, fmt.Errorf("reward: list records for %s: %w", emp.EmployeeCode, err)
		}

		hasNoMinorFault := true
		hasNoDeduction := true
		for _, rec := range records {
			if noMinorFaultCategories[rec.CategoryCode] {
				hasNoMinorFault = false
			}
			if scoring.IsDeductionCategory(rec.CategoryCode) {
				hasNoDeduction = false
			}
		}

		if hasNoMinorFault {
			if err := e.emit(ctx, dept, emp.EmployeeCode, CodeNoMinorFault, year, month, &result); err != nil {
				return result, err
			}
		}
		if hasNoDeduction {
			if err := e.emit(ctx, dept, emp.EmployeeCode, CodeNoDeduction, year, month, &result); err != nil {
				return result, err
			}
		}
	}
	return result, nil
}

func (e *Engine) emit(ctx context.Context, dept department.Department, employeeCode, code string, year int, month time.Month, result *Result) error {
	key := idempotencyKey(dept, employeeCode, year, month, code)

	if _, found, err := e.scoring.Peek(ctx, key); err != nil {
		return err
	} else if found {
		result.Skipped = append(result.Skipped, key)
		return nil
	}

	eventDate := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	_, err := e.scoring.ApplyRecord(ctx, scoring.Draft{
		Employee:       employeeCode,
		StandardCode:   code,
		EventDate:      eventDate,
		IdempotencyKey: key,
	})
	if err != nil {
		if uerr, ok := err.(*scoring.UnknownStandardError); ok {
			result.Warnings = append(result.Warnings, uerr.Error())
			return nil
		}
		return err
	}
	result.Created[code]++
	return nil
}

func idempotencyKey(dept department.Department, employeeCode string, year int, month time.Month, code string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%04d-%02d|%s", dept, employeeCode, year, int(month), code)))
	return hex.EncodeToString(h[:])
}
