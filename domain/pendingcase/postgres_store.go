package pendingcase

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	infradb "github.com/kunpeto/driver-management-system-sub001/infrastructure/database"
)

// PostgresStore implements Repository over database/sql.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore builds a Repository backed by the given connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, pc PendingCase) (PendingCase, error) {
	pc.CreatedAt = time.Now().UTC()
	pc.Status = StatusPending
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_cases (id, profile_ref, department, profile_type, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, pc.ID, pc.ProfileRef, string(pc.Department), pc.ProfileType, string(pc.Status), pc.CreatedAt)
	if err != nil {
		if infradb.IsUniqueViolation(err) {
			return PendingCase{}, infradb.NewConflictError(fmt.Sprintf("a pending case already exists for profile %q", pc.ProfileRef))
		}
		return PendingCase{}, fmt.Errorf("pendingcase: create: %w", err)
	}
	return pc, nil
}

func (s *PostgresStore) Close(ctx context.Context, profileRef, driveLink string) (PendingCase, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE pending_cases SET status = $2, drive_link = $3, closed_at = $4
		WHERE profile_ref = $1 AND status = $5
	`, profileRef, string(StatusUploaded), driveLink, now, string(StatusPending))
	if err != nil {
		return PendingCase{}, fmt.Errorf("pendingcase: close: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return PendingCase{}, fmt.Errorf("pendingcase: close rows affected: %w", err)
	}
	if n == 0 {
		return PendingCase{}, infradb.NewNotFoundError("pending_case", profileRef)
	}
	return s.mustGetByProfile(ctx, profileRef)
}

func (s *PostgresStore) mustGetByProfile(ctx context.Context, profileRef string) (PendingCase, error) {
	pc, ok, err := s.GetByProfile(ctx, profileRef)
	if err != nil {
		return PendingCase{}, err
	}
	if !ok {
		return PendingCase{}, infradb.NewNotFoundError("pending_case", profileRef)
	}
	return pc, nil
}

func (s *PostgresStore) GetByProfile(ctx context.Context, profileRef string) (PendingCase, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, profile_ref, department, profile_type, status, COALESCE(drive_link, ''), created_at, closed_at
		FROM pending_cases WHERE profile_ref = $1
	`, profileRef)
	pc, err := scanCase(row)
	if err == sql.ErrNoRows {
		return PendingCase{}, false, nil
	}
	if err != nil {
		return PendingCase{}, false, fmt.Errorf("pendingcase: get by profile: %w", err)
	}
	return pc, true, nil
}

func (s *PostgresStore) ListByDepartment(ctx context.Context, dept department.Department, status Status) ([]PendingCase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_ref, department, profile_type, status, COALESCE(drive_link, ''), created_at, closed_at
		FROM pending_cases WHERE department = $1 AND status = $2
		ORDER BY created_at ASC
	`, string(dept), string(status))
	if err != nil {
		return nil, fmt.Errorf("pendingcase: list by department: %w", err)
	}
	return scanCases(rows)
}

func (s *PostgresStore) ListByProfileType(ctx context.Context, dept department.Department, profileType string) ([]PendingCase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_ref, department, profile_type, status, COALESCE(drive_link, ''), created_at, closed_at
		FROM pending_cases WHERE department = $1 AND profile_type = $2
		ORDER BY created_at ASC
	`, string(dept), profileType)
	if err != nil {
		return nil, fmt.Errorf("pendingcase: list by profile type: %w", err)
	}
	return scanCases(rows)
}

func (s *PostgresStore) Stats(ctx context.Context, dept department.Department, asOf time.Time) (Stats, error) {
	stats := Stats{ByType: make(map[string]int)}

	rows, err := s.db.QueryContext(ctx, `
		SELECT profile_type, COUNT(*) FROM pending_cases
		WHERE department = $1 AND status = $2
		GROUP BY profile_type
	`, string(dept), string(StatusPending))
	if err != nil {
		return Stats{}, fmt.Errorf("pendingcase: stats by type: %w", err)
	}
	for rows.Next() {
		var profileType string
		var count int
		if err := rows.Scan(&profileType, &count); err != nil {
			rows.Close()
			return Stats{}, fmt.Errorf("pendingcase: scan stats row: %w", err)
		}
		stats.ByType[profileType] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}
	rows.Close()

	var oldest sql.NullTime
	if err := s.db.QueryRowContext(ctx, `
		SELECT MIN(created_at) FROM pending_cases WHERE department = $1 AND status = $2
	`, string(dept), string(StatusPending)).Scan(&oldest); err != nil {
		return Stats{}, fmt.Errorf("pendingcase: oldest pending: %w", err)
	}
	if oldest.Valid {
		stats.OldestPendingDate = oldest.Time
	}

	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())
	var opened, completed int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM pending_cases WHERE department = $1 AND created_at >= $2
	`, string(dept), monthStart).Scan(&opened); err != nil {
		return Stats{}, fmt.Errorf("pendingcase: month opened count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM pending_cases WHERE department = $1 AND status = $2 AND closed_at >= $3
	`, string(dept), string(StatusUploaded), monthStart).Scan(&completed); err != nil {
		return Stats{}, fmt.Errorf("pendingcase: month completed count: %w", err)
	}
	if opened > 0 {
		stats.ThisMonthCompletionRate = float64(completed) / float64(opened)
	}

	return stats, nil
}

type rowLike interface {
	Scan(dest ...any) error
}

func scanCase(row rowLike) (PendingCase, error) {
	var pc PendingCase
	var deptStr, statusStr string
	var closedAt sql.NullTime
	if err := row.Scan(&pc.ID, &pc.ProfileRef, &deptStr, &pc.ProfileType, &statusStr, &pc.DriveLink, &pc.CreatedAt, &closedAt); err != nil {
		return PendingCase{}, err
	}
	pc.Department = department.Department(deptStr)
	pc.Status = Status(statusStr)
	if closedAt.Valid {
		pc.ClosedAt = closedAt.Time
	}
	return pc, nil
}

func scanCases(rows *sql.Rows) ([]PendingCase, error) {
	defer rows.Close()
	var out []PendingCase
	for rows.Next() {
		pc, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("pendingcase: scan: %w", err)
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}
