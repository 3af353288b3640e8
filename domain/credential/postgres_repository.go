package credential

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
)

// PostgresOAuthRepository implements OAuthRepository using database/sql.
// Only ciphertext ever reaches this layer; encryption/decryption happens in
// Manager via the Vault.
type PostgresOAuthRepository struct {
	db *sql.DB
}

// NewPostgresOAuthRepository creates a new PostgreSQL-backed OAuth token
// repository.
func NewPostgresOAuthRepository(db *sql.DB) *PostgresOAuthRepository {
	return &PostgresOAuthRepository{db: db}
}

func (r *PostgresOAuthRepository) Get(ctx context.Context, dept department.Department) (OAuthToken, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT department, encrypted_refresh_token, encrypted_access_token, access_expires_at, authorized_email, updated_at
		FROM oauth_tokens WHERE department = $1
	`, string(dept))

	var tok OAuthToken
	var deptStr string
	var accessExp sql.NullTime
	var encAccess []byte
	if err := row.Scan(&deptStr, &tok.EncryptedRefreshToken, &encAccess, &accessExp, &tok.AuthorizedEmail, &tok.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return OAuthToken{}, false, nil
		}
		return OAuthToken{}, false, fmt.Errorf("credential: get oauth token: %w", err)
	}
	tok.Department = department.Department(deptStr)
	tok.EncryptedAccessToken = encAccess
	if accessExp.Valid {
		tok.AccessExpiresAt = accessExp.Time
	}
	return tok, true, nil
}

func (r *PostgresOAuthRepository) Upsert(ctx context.Context, token OAuthToken) error {
	var accessExp any
	if !token.AccessExpiresAt.IsZero() {
		accessExp = token.AccessExpiresAt
	}
	if token.UpdatedAt.IsZero() {
		token.UpdatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO oauth_tokens (department, encrypted_refresh_token, encrypted_access_token, access_expires_at, authorized_email, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (department) DO UPDATE
		SET encrypted_refresh_token = EXCLUDED.encrypted_refresh_token,
		    encrypted_access_token = EXCLUDED.encrypted_access_token,
		    access_expires_at = EXCLUDED.access_expires_at,
		    authorized_email = EXCLUDED.authorized_email,
		    updated_at = EXCLUDED.updated_at
	`, string(token.Department), token.EncryptedRefreshToken, token.EncryptedAccessToken, accessExp, token.AuthorizedEmail, token.UpdatedAt)
	if err != nil {
		return fmt.Errorf("credential: upsert oauth token: %w", err)
	}
	return nil
}

func (r *PostgresOAuthRepository) Delete(ctx context.Context, dept department.Department) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM oauth_tokens WHERE department = $1`, string(dept))
	if err != nil {
		return fmt.Errorf("credential: delete oauth token: %w", err)
	}
	return nil
}
