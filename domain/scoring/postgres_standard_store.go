package scoring

import (
	"database/sql"
	"fmt"
)

// PostgresStandardStore implements StandardStore by querying the
// assessment_standards catalog table seeded by the migrations package
// (spec §4.9 step 1: "resolve standard by standard_code").
type PostgresStandardStore struct {
	db *sql.DB
}

// NewPostgresStandardStore builds a StandardStore backed by db.
func NewPostgresStandardStore(db *sql.DB) *PostgresStandardStore {
	return &PostgresStandardStore{db: db}
}

func (s *PostgresStandardStore) GetByCode(code string) (Standard, bool, error) {
	row := s.db.QueryRow(`
		SELECT code, category_code, base_points, has_cumulative, is_r_fault_type
		FROM assessment_standards WHERE code = $1
	`, code)

	var std Standard
	var category string
	if err := row.Scan(&std.Code, &category, &std.BasePoints, &std.HasCumulative, &std.IsRFaultType); err != nil {
		if err == sql.ErrNoRows {
			return Standard{}, false, nil
		}
		return Standard{}, false, fmt.Errorf("scoring: load standard %q: %w", code, err)
	}
	std.CategoryCode = CategoryCode(category)
	return std, true, nil
}

// ListAll returns every catalog row, ordered by code, for the read-only
// /api/assessment-standards listing endpoint.
func (s *PostgresStandardStore) ListAll() ([]Standard, error) {
	rows, err := s.db.Query(`
		SELECT code, category_code, base_points, has_cumulative, is_r_fault_type
		FROM assessment_standards ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("scoring: list standards: %w", err)
	}
	defer rows.Close()

	var out []Standard
	for rows.Next() {
		var std Standard
		var category string
		if err := rows.Scan(&std.Code, &category, &std.BasePoints, &std.HasCumulative, &std.IsRFaultType); err != nil {
			return nil, fmt.Errorf("scoring: scan standard: %w", err)
		}
		std.CategoryCode = CategoryCode(category)
		out = append(out, std)
	}
	return out, rows.Err()
}
