// Package credential implements the dual-track Credential & Token Lifecycle
// (C2): per-department service-account credentials decoded once at start-up,
// and per-department OAuth refresh tokens persisted encrypted at rest with
// on-demand, coalesced access-token exchange.
package credential

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
)

// ServiceAccount is the decoded form of a Google service-account key. It is
// kept in memory only; this package never persists it (spec §4.2).
type ServiceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
	TokenURI    string `json:"token_uri"`
}

// ServiceAccountStore holds the decoded service accounts loaded once at
// start-up from GOOGLE_SERVICE_ACCOUNT_{department}.
type ServiceAccountStore struct {
	accounts map[department.Department]ServiceAccount
	sheetIDs map[string]string // "{kind}|{department}" -> spreadsheet id
}

// Attendance and Duty rosters live in separate spreadsheets per department
// (applications/sheets), so each needs its own configured id.
const (
	sheetKindAttendance = "attendance"
	sheetKindDuty       = "duty"
)

// LoadServiceAccounts reads GOOGLE_SERVICE_ACCOUNT_{dept} (base64-encoded
// JSON) for every department, plus a spreadsheet id per (kind, department):
// GOOGLE_SHEETS_ID_{dept}_ATTENDANCE and GOOGLE_SHEETS_ID_{dept}_DUTY. Either
// falls back to the unsuffixed GOOGLE_SHEETS_ID_{dept} when only one roster
// type is in use for that department. A department missing its service
// account is simply absent from the store; callers surface NotAuthorized
// when it's looked up.
func LoadServiceAccounts() (*ServiceAccountStore, error) {
	store := &ServiceAccountStore{
		accounts: make(map[department.Department]ServiceAccount),
		sheetIDs: make(map[string]string),
	}
	for _, dept := range department.All() {
		envKey := fmt.Sprintf("GOOGLE_SERVICE_ACCOUNT_%s", dept)
		raw := os.Getenv(envKey)
		if raw == "" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("credential: decode %s: %w", envKey, err)
		}
		var sa ServiceAccount
		if err := json.Unmarshal(decoded, &sa); err != nil {
			return nil, fmt.Errorf("credential: parse %s: %w", envKey, err)
		}
		store.accounts[dept] = sa

		fallback := os.Getenv(fmt.Sprintf("GOOGLE_SHEETS_ID_%s", dept))
		store.sheetIDs[sheetKindAttendance+"|"+string(dept)] = firstNonEmpty(
			os.Getenv(fmt.Sprintf("GOOGLE_SHEETS_ID_%s_ATTENDANCE", dept)), fallback)
		store.sheetIDs[sheetKindDuty+"|"+string(dept)] = firstNonEmpty(
			os.Getenv(fmt.Sprintf("GOOGLE_SHEETS_ID_%s_DUTY", dept)), fallback)
	}
	return store, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Get returns the decoded service account for dept.
func (s *ServiceAccountStore) Get(dept department.Department) (ServiceAccount, bool) {
	sa, ok := s.accounts[dept]
	return sa, ok
}

// AttendanceSpreadsheetID returns the configured attendance-roster
// spreadsheet id for dept.
func (s *ServiceAccountStore) AttendanceSpreadsheetID(dept department.Department) string {
	return s.sheetIDs[sheetKindAttendance+"|"+string(dept)]
}

// DutySpreadsheetID returns the configured duty-roster spreadsheet id for
// dept.
func (s *ServiceAccountStore) DutySpreadsheetID(dept department.Department) string {
	return s.sheetIDs[sheetKindDuty+"|"+string(dept)]
}
