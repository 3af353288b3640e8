package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	infradb "github.com/kunpeto/driver-management-system-sub001/infrastructure/database"
)

// PostgresStore implements Repository over database/sql. Sub-forms live in a
// second table keyed by profile_id with one JSON payload column rather than
// four separate typed tables, since the variant's shape is only ever read
// back whole (spec §9: "tagged variant ... one persistent sub-row per
// variant" says nothing about physical layout).
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore builds a Repository backed by the given connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p Profile) (Profile, error) {
	p.Version = 1
	p.ConversionStatus = StatusPending
	p.ProfileType = TypeBasic
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	err := infradb.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO profiles
				(id, department, employee_ref, event_date, event_time, event_location,
				 train_number, event_title, event_description, profile_type,
				 conversion_status, version, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		`, p.ID, string(p.Department), p.EmployeeRef, p.EventDate, p.EventTime, p.EventLocation,
			p.TrainNumber, p.EventTitle, p.EventDescription, string(p.ProfileType),
			string(p.ConversionStatus), p.Version, p.CreatedAt, p.UpdatedAt)
		return err
	})
	if err != nil {
		return Profile{}, fmt.Errorf("profile: create: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Profile, error) {
	row := s.db.QueryRowContext(ctx, selectProfileSQL+" WHERE id = $1", id)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return Profile{}, infradb.NewNotFoundError("profile", id)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("profile: get: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) GetSubForm(ctx context.Context, id string) (SubForm, bool, error) {
	var profileType string
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT profile_type, payload FROM profile_sub_forms WHERE profile_id = $1
	`, id).Scan(&profileType, &payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("profile: get sub-form: %w", err)
	}
	form, err := decodeSubForm(Type(profileType), payload)
	if err != nil {
		return nil, false, err
	}
	return form, true, nil
}

func (s *PostgresStore) Convert(ctx context.Context, id string, target Type, subForm SubForm, expectedVersion int) (Profile, error) {
	var out Profile
	err := infradb.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		p, err := lockProfile(ctx, tx, id)
		if err != nil {
			return err
		}
		if p.ConversionStatus != StatusPending {
			return &InvalidTransitionError{ProfileID: id, From: p.ConversionStatus, Attempted: "convert"}
		}
		if p.Version != expectedVersion {
			return &VersionConflictError{ProfileID: id, ExpectedVersion: expectedVersion}
		}
		if subForm.Type() != target {
			return &SubFormTypeMismatchError{Target: target, Got: subForm.Type()}
		}

		payload, err := json.Marshal(subForm)
		if err != nil {
			return fmt.Errorf("profile: marshal sub-form: %w", err)
		}
		now := time.Now().UTC()
		p.ProfileType = target
		p.ConversionStatus = StatusConverted
		p.Version++
		p.UpdatedAt = now

		if _, err := tx.ExecContext(ctx, `
			UPDATE profiles SET profile_type = $2, conversion_status = $3, version = $4, updated_at = $5
			WHERE id = $1
		`, id, string(p.ProfileType), string(p.ConversionStatus), p.Version, p.UpdatedAt); err != nil {
			return fmt.Errorf("profile: update on convert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO profile_sub_forms (profile_id, profile_type, payload)
			VALUES ($1,$2,$3)
			ON CONFLICT (profile_id) DO UPDATE SET profile_type = $2, payload = $3
		`, id, string(target), payload); err != nil {
			return fmt.Errorf("profile: insert sub-form: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return Profile{}, err
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, patch Fields, expectedVersion int) (Profile, error) {
	var out Profile
	err := infradb.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		p, err := lockProfile(ctx, tx, id)
		if err != nil {
			return err
		}
		if p.ConversionStatus == StatusCompleted {
			return &InvalidTransitionError{ProfileID: id, From: p.ConversionStatus, Attempted: "update"}
		}
		if p.Version != expectedVersion {
			return &VersionConflictError{ProfileID: id, ExpectedVersion: expectedVersion}
		}
		p.EventDate, p.EventTime, p.EventLocation = patch.EventDate, patch.EventTime, patch.EventLocation
		p.TrainNumber, p.EventTitle, p.EventDescription = patch.TrainNumber, patch.EventTitle, patch.EventDescription
		p.Version++
		p.UpdatedAt = time.Now().UTC()

		if _, err := tx.ExecContext(ctx, `
			UPDATE profiles SET event_date = $2, event_time = $3, event_location = $4,
			       train_number = $5, event_title = $6, event_description = $7,
			       version = $8, updated_at = $9
			WHERE id = $1
		`, id, p.EventDate, p.EventTime, p.EventLocation, p.TrainNumber, p.EventTitle,
			p.EventDescription, p.Version, p.UpdatedAt); err != nil {
			return fmt.Errorf("profile: update: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return Profile{}, err
	}
	return out, nil
}

func (s *PostgresStore) MarkComplete(ctx context.Context, id string, driveLink string, expectedVersion int) (Profile, error) {
	var out Profile
	err := infradb.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		p, err := lockProfile(ctx, tx, id)
		if err != nil {
			return err
		}
		if p.ConversionStatus != StatusConverted {
			return &InvalidTransitionError{ProfileID: id, From: p.ConversionStatus, Attempted: "mark_complete"}
		}
		if p.Version != expectedVersion {
			return &VersionConflictError{ProfileID: id, ExpectedVersion: expectedVersion}
		}
		p.ConversionStatus = StatusCompleted
		p.DriveLink = driveLink
		p.Version++
		p.UpdatedAt = time.Now().UTC()

		if _, err := tx.ExecContext(ctx, `
			UPDATE profiles SET conversion_status = $2, drive_link = $3, version = $4, updated_at = $5
			WHERE id = $1
		`, id, string(p.ConversionStatus), p.DriveLink, p.Version, p.UpdatedAt); err != nil {
			return fmt.Errorf("profile: mark complete: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return Profile{}, err
	}
	return out, nil
}

func (s *PostgresStore) AdminReset(ctx context.Context, id string, expectedVersion int) (Profile, error) {
	var out Profile
	err := infradb.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		p, err := lockProfile(ctx, tx, id)
		if err != nil {
			return err
		}
		if p.Version != expectedVersion {
			return &VersionConflictError{ProfileID: id, ExpectedVersion: expectedVersion}
		}
		p.ConversionStatus = StatusPending
		p.ProfileType = TypeBasic
		p.DriveLink = ""
		p.Version++
		p.UpdatedAt = time.Now().UTC()

		if _, err := tx.ExecContext(ctx, `
			UPDATE profiles SET conversion_status = $2, profile_type = $3, drive_link = '', version = $4, updated_at = $5
			WHERE id = $1
		`, id, string(p.ConversionStatus), string(p.ProfileType), p.Version, p.UpdatedAt); err != nil {
			return fmt.Errorf("profile: admin reset: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM profile_sub_forms WHERE profile_id = $1`, id); err != nil {
			return fmt.Errorf("profile: admin reset sub-form: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return Profile{}, err
	}
	return out, nil
}

func (s *PostgresStore) LinkAssessmentRecord(ctx context.Context, id string, recordRef string, expectedVersion int) (Profile, error) {
	var out Profile
	err := infradb.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		p, err := lockProfile(ctx, tx, id)
		if err != nil {
			return err
		}
		if p.Version != expectedVersion {
			return &VersionConflictError{ProfileID: id, ExpectedVersion: expectedVersion}
		}
		p.AssessmentRecordRef = recordRef
		p.Version++
		p.UpdatedAt = time.Now().UTC()

		if _, err := tx.ExecContext(ctx, `
			UPDATE profiles SET assessment_record_ref = $2, version = $3, updated_at = $4
			WHERE id = $1
		`, id, p.AssessmentRecordRef, p.Version, p.UpdatedAt); err != nil {
			return fmt.Errorf("profile: link assessment record: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return Profile{}, err
	}
	return out, nil
}

func (s *PostgresStore) ListByDepartment(ctx context.Context, dept department.Department, profileType Type) ([]Profile, error) {
	query := selectProfileSQL + " WHERE department = $1"
	args := []any{string(dept)}
	if profileType != "" {
		query += " AND profile_type = $2"
		args = append(args, string(profileType))
	}
	query += " ORDER BY event_date DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("profile: list by department: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("profile: scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func lockProfile(ctx context.Context, tx *sql.Tx, id string) (Profile, error) {
	row := tx.QueryRowContext(ctx, selectProfileSQL+" WHERE id = $1 FOR UPDATE", id)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return Profile{}, infradb.NewNotFoundError("profile", id)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("profile: lock: %w", err)
	}
	return p, nil
}

const selectProfileSQL = `
	SELECT id, department, employee_ref, event_date, event_time, event_location,
	       train_number, event_title, event_description, profile_type,
	       conversion_status, version, COALESCE(drive_link, ''),
	       COALESCE(assessment_record_ref, ''), created_at, updated_at
	FROM profiles`

type rowLike interface {
	Scan(dest ...any) error
}

func scanProfile(row rowLike) (Profile, error) {
	var p Profile
	var deptStr, profileTypeStr, statusStr string
	if err := row.Scan(&p.ID, &deptStr, &p.EmployeeRef, &p.EventDate, &p.EventTime, &p.EventLocation,
		&p.TrainNumber, &p.EventTitle, &p.EventDescription, &profileTypeStr, &statusStr, &p.Version,
		&p.DriveLink, &p.AssessmentRecordRef, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Profile{}, err
	}
	p.Department = department.Department(deptStr)
	p.ProfileType = Type(profileTypeStr)
	p.ConversionStatus = ConversionStatus(statusStr)
	return p, nil
}

func decodeSubForm(t Type, payload []byte) (SubForm, error) {
	switch t {
	case TypeEventInvestigation:
		var f EventInvestigationForm
		if err := json.Unmarshal(payload, &f); err != nil {
			return nil, fmt.Errorf("profile: decode event-investigation form: %w", err)
		}
		return f, nil
	case TypePersonnelInterview:
		var f PersonnelInterviewForm
		if err := json.Unmarshal(payload, &f); err != nil {
			return nil, fmt.Errorf("profile: decode personnel-interview form: %w", err)
		}
		return f, nil
	case TypeCorrectiveMeasures:
		var f CorrectiveMeasuresForm
		if err := json.Unmarshal(payload, &f); err != nil {
			return nil, fmt.Errorf("profile: decode corrective-measures form: %w", err)
		}
		return f, nil
	case TypeAssessmentNotice:
		var f AssessmentNoticeForm
		if err := json.Unmarshal(payload, &f); err != nil {
			return nil, fmt.Errorf("profile: decode assessment-notice form: %w", err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("profile: unknown sub-form type %q", t)
	}
}
