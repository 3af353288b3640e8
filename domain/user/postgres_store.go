package user

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	infradb "github.com/kunpeto/driver-management-system-sub001/infrastructure/database"
)

// PostgresStore implements Repository using database/sql + lib/pq.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed user store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u User) (User, error) {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role, department, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.Username, u.PasswordHash, string(u.Role), deptArg(u.Department), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if infradb.IsUniqueViolation(err) {
			return User{}, infradb.ErrAlreadyExists
		}
		return User{}, fmt.Errorf("user: create: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetByUsername(ctx context.Context, username string) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT username, password_hash, role, department, created_at, updated_at
		FROM users WHERE username = $1
	`, username)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return User{}, &NotFoundError{Username: username}
	}
	if err != nil {
		return User{}, fmt.Errorf("user: get by username: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, username, newHash string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, updated_at = $3 WHERE username = $1
	`, username, newHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("user: update password hash: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return &NotFoundError{Username: username}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	var role string
	var dept sql.NullString
	if err := row.Scan(&u.Username, &u.PasswordHash, &role, &dept, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, err
	}
	u.Role = Role(role)
	if dept.Valid {
		u.Department = department.Department(dept.String)
	}
	return u, nil
}

func deptArg(d department.Department) any {
	if d == "" {
		return nil
	}
	return string(d)
}
