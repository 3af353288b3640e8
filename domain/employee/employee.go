// Package employee models driver identity and department transfers.
package employee

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
)

// codePattern matches the externally-assigned employee code format:
// \d{4}[A-Z]\d{4}. The first 4 digits are YYMM (YY offset by 2000) of hire.
var codePattern = regexp.MustCompile(`^\d{4}[A-Z]\d{4}$`)

// Employee is the identity of a driver.
type Employee struct {
	EmployeeCode      string
	Name              string
	CurrentDepartment department.Department
	IsResigned        bool
	ContactInfo       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Transfer is an immutable log entry of a department change.
type Transfer struct {
	ID              string
	EmployeeCode    string
	FromDepartment  department.Department
	ToDepartment    department.Department
	EffectiveDate   time.Time
	Reason          string
	RecordedAt      time.Time
}

// ValidateCode checks an employee code against the externally-assigned
// format \d{4}[A-Z]\d{4}.
func ValidateCode(code string) error {
	if !codePattern.MatchString(code) {
		return fmt.Errorf("employee: invalid employee code %q, expected \\d{4}[A-Z]\\d{4}", code)
	}
	return nil
}

// HireYearMonth derives the (year, month) of hire from the employee code's
// first four characters: YYMM with YY offset by 2000.
func HireYearMonth(code string) (year int, month time.Month, err error) {
	if err := ValidateCode(code); err != nil {
		return 0, 0, err
	}
	yy, err := strconv.Atoi(code[0:2])
	if err != nil {
		return 0, 0, fmt.Errorf("employee: invalid year digits in code %q", code)
	}
	mm, err := strconv.Atoi(code[2:4])
	if err != nil || mm < 1 || mm > 12 {
		return 0, 0, fmt.Errorf("employee: invalid month digits in code %q", code)
	}
	return 2000 + yy, time.Month(mm), nil
}
