package settings

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
)

// PostgresStore implements Store over the settings table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key string, dept department.Department) (Setting, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT key, department, value FROM settings WHERE key = $1 AND department = $2
	`, key, string(dept))

	var out Setting
	var d string
	if err := row.Scan(&out.Key, &d, &out.Value); err != nil {
		if err == sql.ErrNoRows {
			return Setting{}, false, nil
		}
		return Setting{}, false, fmt.Errorf("settings: get: %w", err)
	}
	out.Department = department.Department(d)
	return out, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, st Setting) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, department, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (key, department) DO UPDATE SET value = EXCLUDED.value
	`, st.Key, string(st.Department), st.Value)
	if err != nil {
		return fmt.Errorf("settings: put: %w", err)
	}
	return nil
}
