package employee

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	infradb "github.com/kunpeto/driver-management-system-sub001/infrastructure/database"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
)

// PostgresStore implements Repository using database/sql + lib/pq.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed employee store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, e Employee) (Employee, error) {
	if err := ValidateCode(e.EmployeeCode); err != nil {
		return Employee{}, err
	}
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (employee_code, name, current_department, is_resigned, contact_info, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.EmployeeCode, e.Name, string(e.CurrentDepartment), e.IsResigned, e.ContactInfo, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		if infradb.IsUniqueViolation(err) {
			return Employee{}, infradb.ErrAlreadyExists
		}
		return Employee{}, fmt.Errorf("employee: create: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) GetByCode(ctx context.Context, code string) (Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT employee_code, name, current_department, is_resigned, contact_info, created_at, updated_at
		FROM employees WHERE employee_code = $1
	`, code)

	var e Employee
	var dept string
	if err := row.Scan(&e.EmployeeCode, &e.Name, &dept, &e.IsResigned, &e.ContactInfo, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return Employee{}, infradb.NewNotFoundError("employee", code)
		}
		return Employee{}, fmt.Errorf("employee: get by code: %w", err)
	}
	e.CurrentDepartment = department.Department(dept)
	return e, nil
}

func (s *PostgresStore) ListByDepartment(ctx context.Context, dept department.Department, includeResigned bool) ([]Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_code, name, current_department, is_resigned, contact_info, created_at, updated_at
		FROM employees
		WHERE current_department = $1 AND ($2 OR NOT is_resigned)
		ORDER BY employee_code
	`, string(dept), includeResigned)
	if err != nil {
		return nil, fmt.Errorf("employee: list by department: %w", err)
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var e Employee
		var d string
		if err := rows.Scan(&e.EmployeeCode, &e.Name, &d, &e.IsResigned, &e.ContactInfo, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("employee: scan: %w", err)
		}
		e.CurrentDepartment = department.Department(d)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkResigned(ctx context.Context, code string, resigned bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE employees SET is_resigned = $2, updated_at = $3 WHERE employee_code = $1
	`, code, resigned, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("employee: mark resigned: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return infradb.NewNotFoundError("employee", code)
	}
	return nil
}

func (s *PostgresStore) RecordTransfer(ctx context.Context, t Transfer) (Transfer, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.RecordedAt = time.Now().UTC()

	err := infradb.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO employee_transfers (id, employee_code, from_department, to_department, effective_date, reason, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, t.ID, t.EmployeeCode, string(t.FromDepartment), string(t.ToDepartment), t.EffectiveDate, t.Reason, t.RecordedAt)
		if err != nil {
			return fmt.Errorf("insert transfer: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE employees SET current_department = $2, updated_at = $3 WHERE employee_code = $1
		`, t.EmployeeCode, string(t.ToDepartment), t.RecordedAt)
		if err != nil {
			return fmt.Errorf("advance department: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return infradb.NewNotFoundError("employee", t.EmployeeCode)
		}
		return nil
	})
	if err != nil {
		return Transfer{}, err
	}
	return t, nil
}

func (s *PostgresStore) ListTransfers(ctx context.Context, code string) ([]Transfer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_code, from_department, to_department, effective_date, reason, recorded_at
		FROM employee_transfers WHERE employee_code = $1 ORDER BY effective_date
	`, code)
	if err != nil {
		return nil, fmt.Errorf("employee: list transfers: %w", err)
	}
	defer rows.Close()

	var out []Transfer
	for rows.Next() {
		var t Transfer
		var from, to string
		if err := rows.Scan(&t.ID, &t.EmployeeCode, &from, &to, &t.EffectiveDate, &t.Reason, &t.RecordedAt); err != nil {
			return nil, fmt.Errorf("employee: scan transfer: %w", err)
		}
		t.FromDepartment, t.ToDepartment = department.Department(from), department.Department(to)
		out = append(out, t)
	}
	return out, rows.Err()
}
