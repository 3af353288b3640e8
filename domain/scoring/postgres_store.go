package scoring

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	infradb "github.com/kunpeto/driver-management-system-sub001/infrastructure/database"
)

// PostgresStore implements Store over database/sql, using
// "SELECT ... FOR UPDATE" to serialize scoring on the (employee, category,
// year) counter row (spec §5: "the Cumulative Counter row ... is the
// serialization point for scoring").
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore builds a Store backed by the given connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Transact(ctx context.Context, fn func(Ops) error) error {
	return infradb.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&pgOps{ctx: ctx, tx: tx})
	})
}

// pgOps implements Ops against one open transaction.
type pgOps struct {
	ctx context.Context
	tx  *sql.Tx
}

func (o *pgOps) InsertRecord(rec *AssessmentRecord) error {
	var checklistJSON []byte
	var err error
	if rec.Checklist != nil {
		checklistJSON, err = encodeChecklist(rec.Checklist)
		if err != nil {
			return err
		}
	}
	_, err = o.tx.ExecContext(o.ctx, `
		INSERT INTO assessment_records
			(id, employee_ref, standard_code, category_code, event_date, base_points,
			 fault_coefficient, cumulative_multiplier, final_points, profile_ref,
			 is_soft_deleted, idempotency_key, fault_checklist, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,false,$11,$12,$13)
	`, rec.ID, rec.EmployeeRef, rec.StandardCode, string(rec.CategoryCode), rec.EventDate,
		rec.BasePoints, rec.FaultCoefficient, rec.CumulativeMultiplier, rec.FinalPoints,
		nullString(rec.ProfileRef), nullString(rec.IdempotencyKey), checklistJSON, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("scoring: insert record: %w", err)
	}
	return nil
}

func (o *pgOps) GetRecord(id string) (AssessmentRecord, error) {
	row := o.tx.QueryRowContext(o.ctx, `
		SELECT id, employee_ref, standard_code, category_code, event_date, base_points,
		       fault_coefficient, cumulative_multiplier, final_points, profile_ref,
		       is_soft_deleted, idempotency_key, fault_checklist, created_at
		FROM assessment_records WHERE id = $1
	`, id)
	return scanRecord(row)
}

func (o *pgOps) FindByIdempotencyKey(key string) (AssessmentRecord, bool, error) {
	row := o.tx.QueryRowContext(o.ctx, `
		SELECT id, employee_ref, standard_code, category_code, event_date, base_points,
		       fault_coefficient, cumulative_multiplier, final_points, profile_ref,
		       is_soft_deleted, idempotency_key, fault_checklist, created_at
		FROM assessment_records WHERE idempotency_key = $1
	`, key)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return AssessmentRecord{}, false, nil
	}
	if err != nil {
		return AssessmentRecord{}, false, err
	}
	return rec, true, nil
}

func (o *pgOps) UpdateRecordScore(id string, multiplier, finalPoints float64) error {
	_, err := o.tx.ExecContext(o.ctx, `
		UPDATE assessment_records SET cumulative_multiplier = $2, final_points = $3
		WHERE id = $1
	`, id, multiplier, finalPoints)
	if err != nil {
		return fmt.Errorf("scoring: update record score: %w", err)
	}
	return nil
}

func (o *pgOps) UpdateRecordEventDate(id string, eventDate time.Time) error {
	_, err := o.tx.ExecContext(o.ctx, `
		UPDATE assessment_records SET event_date = $2 WHERE id = $1
	`, id, eventDate)
	if err != nil {
		return fmt.Errorf("scoring: update record event date: %w", err)
	}
	return nil
}

func (o *pgOps) SoftDeleteRecord(id string) error {
	_, err := o.tx.ExecContext(o.ctx, `
		UPDATE assessment_records SET is_soft_deleted = true WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("scoring: soft delete record: %w", err)
	}
	return nil
}

func (o *pgOps) ListLiveByCategoryYear(employee string, category CategoryCode, year int) ([]AssessmentRecord, error) {
	rows, err := o.tx.QueryContext(o.ctx, `
		SELECT id, employee_ref, standard_code, category_code, event_date, base_points,
		       fault_coefficient, cumulative_multiplier, final_points, profile_ref,
		       is_soft_deleted, idempotency_key, fault_checklist, created_at
		FROM assessment_records
		WHERE employee_ref = $1 AND category_code = $2
		  AND EXTRACT(YEAR FROM event_date) = $3 AND is_soft_deleted = false
		ORDER BY event_date ASC, created_at ASC
	`, employee, string(category), year)
	if err != nil {
		return nil, fmt.Errorf("scoring: list live records: %w", err)
	}
	defer rows.Close()

	var out []AssessmentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scoring: scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (o *pgOps) ListLiveByEmployeeMonth(employee string, year int, month time.Month) ([]AssessmentRecord, error) {
	rows, err := o.tx.QueryContext(o.ctx, `
		SELECT id, employee_ref, standard_code, category_code, event_date, base_points,
		       fault_coefficient, cumulative_multiplier, final_points, profile_ref,
		       is_soft_deleted, idempotency_key, fault_checklist, created_at
		FROM assessment_records
		WHERE employee_ref = $1
		  AND EXTRACT(YEAR FROM event_date) = $2 AND EXTRACT(MONTH FROM event_date) = $3
		  AND is_soft_deleted = false
		ORDER BY event_date ASC, created_at ASC
	`, employee, year, int(month))
	if err != nil {
		return nil, fmt.Errorf("scoring: list records by employee month: %w", err)
	}
	defer rows.Close()

	var out []AssessmentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scoring: scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (o *pgOps) LockCounter(employee string, category CategoryCode, year int) (int, error) {
	_, err := o.tx.ExecContext(o.ctx, `
		INSERT INTO cumulative_counters (employee_ref, category_code, year, occurrence_count, archived)
		VALUES ($1, $2, $3, 0, false)
		ON CONFLICT (employee_ref, category_code, year) DO NOTHING
	`, employee, string(category), year)
	if err != nil {
		return 0, fmt.Errorf("scoring: seed counter: %w", err)
	}

	var count int
	row := o.tx.QueryRowContext(o.ctx, `
		SELECT occurrence_count FROM cumulative_counters
		WHERE employee_ref = $1 AND category_code = $2 AND year = $3
		FOR UPDATE
	`, employee, string(category), year)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("scoring: lock counter: %w", err)
	}
	return count, nil
}

func (o *pgOps) SetCounter(employee string, category CategoryCode, year int, value int) error {
	_, err := o.tx.ExecContext(o.ctx, `
		UPDATE cumulative_counters SET occurrence_count = $4
		WHERE employee_ref = $1 AND category_code = $2 AND year = $3
	`, employee, string(category), year, value)
	if err != nil {
		return fmt.Errorf("scoring: set counter: %w", err)
	}
	return nil
}

func (o *pgOps) ArchiveCounters(year int) error {
	_, err := o.tx.ExecContext(o.ctx, `
		UPDATE cumulative_counters SET archived = true WHERE year = $1
	`, year)
	if err != nil {
		return fmt.Errorf("scoring: archive counters: %w", err)
	}
	return nil
}

type rowLike interface {
	Scan(dest ...any) error
}

func scanRecord(row rowLike) (AssessmentRecord, error) {
	var rec AssessmentRecord
	var categoryCode string
	var coef sql.NullFloat64
	var profileRef, idempotencyKey sql.NullString
	var checklistJSON []byte

	if err := row.Scan(&rec.ID, &rec.EmployeeRef, &rec.StandardCode, &categoryCode, &rec.EventDate,
		&rec.BasePoints, &coef, &rec.CumulativeMultiplier, &rec.FinalPoints, &profileRef,
		&rec.IsSoftDeleted, &idempotencyKey, &checklistJSON, &rec.CreatedAt); err != nil {
		return AssessmentRecord{}, err
	}
	rec.CategoryCode = CategoryCode(categoryCode)
	if coef.Valid {
		v := coef.Float64
		rec.FaultCoefficient = &v
	}
	rec.ProfileRef = profileRef.String
	rec.IdempotencyKey = idempotencyKey.String
	if len(checklistJSON) > 0 {
		checklist, err := decodeChecklist(checklistJSON)
		if err != nil {
			return AssessmentRecord{}, err
		}
		rec.Checklist = checklist
	}
	return rec, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
