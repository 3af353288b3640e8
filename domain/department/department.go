// Package department defines the closed two-tenant enumeration that every
// tenant-scoped record in this system carries.
package department

import "fmt"

// Department is a closed enumeration: {Tanhai, Ankeng}. Data is never
// merged across departments (spec §1 Non-goals).
type Department string

const (
	Tanhai Department = "Tanhai"
	Ankeng Department = "Ankeng"
)

// All lists every valid Department, in a stable order.
func All() []Department { return []Department{Tanhai, Ankeng} }

// Valid reports whether d is one of the closed enumeration values.
func (d Department) Valid() bool {
	return d == Tanhai || d == Ankeng
}

// Parse validates a raw string into a Department.
func Parse(raw string) (Department, error) {
	d := Department(raw)
	if !d.Valid() {
		return "", fmt.Errorf("department: unknown department %q", raw)
	}
	return d, nil
}
