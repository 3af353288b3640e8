package schedule

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
)

// PostgresStore implements Store using database/sql + lib/pq.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed schedule store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Upsert writes a cell idempotently: identical (department, employee, date,
// raw_text) is a no-op; changed raw_text updates in place and bumps
// synced_at/sync_batch_id (spec §4.5, §5 "last write wins").
func (s *PostgresStore) Upsert(ctx context.Context, cell Cell) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedule_cells (department, employee_code, cell_date, raw_text, sync_batch_id, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (department, employee_code, cell_date) DO UPDATE
		SET raw_text = EXCLUDED.raw_text,
		    sync_batch_id = EXCLUDED.sync_batch_id,
		    synced_at = EXCLUDED.synced_at
		WHERE schedule_cells.raw_text IS DISTINCT FROM EXCLUDED.raw_text
	`, string(cell.Department), cell.EmployeeCode, cell.Date, cell.RawText, cell.SyncBatchID, cell.SyncedAt)
	if err != nil {
		return fmt.Errorf("schedule: upsert cell: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByEmployeeDate(ctx context.Context, dept department.Department, employeeCode string, date time.Time) (Cell, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT department, employee_code, cell_date, raw_text, sync_batch_id, synced_at
		FROM schedule_cells WHERE department = $1 AND employee_code = $2 AND cell_date = $3
	`, string(dept), employeeCode, date)

	cell, err := scanCell(row)
	if err == sql.ErrNoRows {
		return Cell{}, false, nil
	}
	if err != nil {
		return Cell{}, false, fmt.Errorf("schedule: get cell: %w", err)
	}
	return cell, true, nil
}

func (s *PostgresStore) ListByEmployeeMonth(ctx context.Context, dept department.Department, employeeCode string, year int, month time.Month) ([]Cell, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	rows, err := s.db.QueryContext(ctx, `
		SELECT department, employee_code, cell_date, raw_text, sync_batch_id, synced_at
		FROM schedule_cells
		WHERE department = $1 AND employee_code = $2 AND cell_date >= $3 AND cell_date < $4
		ORDER BY cell_date
	`, string(dept), employeeCode, start, end)
	if err != nil {
		return nil, fmt.Errorf("schedule: list by employee month: %w", err)
	}
	defer rows.Close()
	return scanCells(rows)
}

func (s *PostgresStore) ListByDepartmentMonth(ctx context.Context, dept department.Department, year int, month time.Month) ([]Cell, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	rows, err := s.db.QueryContext(ctx, `
		SELECT department, employee_code, cell_date, raw_text, sync_batch_id, synced_at
		FROM schedule_cells
		WHERE department = $1 AND cell_date >= $2 AND cell_date < $3
		ORDER BY employee_code, cell_date
	`, string(dept), start, end)
	if err != nil {
		return nil, fmt.Errorf("schedule: list by department month: %w", err)
	}
	defer rows.Close()
	return scanCells(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCell(row rowScanner) (Cell, error) {
	var c Cell
	var dept string
	if err := row.Scan(&dept, &c.EmployeeCode, &c.Date, &c.RawText, &c.SyncBatchID, &c.SyncedAt); err != nil {
		return Cell{}, err
	}
	c.Department = department.Department(dept)
	return c, nil
}

func scanCells(rows *sql.Rows) ([]Cell, error) {
	var out []Cell
	for rows.Next() {
		c, err := scanCell(rows)
		if err != nil {
			return nil, fmt.Errorf("schedule: scan cell: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
