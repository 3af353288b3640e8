package credential

import (
	"context"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
)

// OAuthToken is the persisted row for one department's OAuth grant (spec
// §3). At most one active row exists per department.
type OAuthToken struct {
	Department            department.Department
	EncryptedRefreshToken  []byte
	EncryptedAccessToken   []byte
	AccessExpiresAt        time.Time
	AuthorizedEmail        string
	UpdatedAt              time.Time
}

// OAuthRepository persists OAuthToken rows.
type OAuthRepository interface {
	Get(ctx context.Context, dept department.Department) (OAuthToken, bool, error)
	Upsert(ctx context.Context, token OAuthToken) error
	Delete(ctx context.Context, dept department.Department) error
}

// Errors surfaced by Manager (spec §4.2 "Failure modes").
type (
	// NotAuthorizedError means no OAuth token exists for the department.
	NotAuthorizedError struct{ Department department.Department }
	// UpstreamAuthFailureError means the identity provider rejected the
	// exchange or refresh.
	UpstreamAuthFailureError struct{ Reason string }
	// VaultInconsistencyError means decrypting a persisted token failed;
	// this is fatal and admin-visible.
	VaultInconsistencyError struct{ Reason string }
)

func (e *NotAuthorizedError) Error() string {
	return "credential: department " + string(e.Department) + " is not authorized"
}

func (e *UpstreamAuthFailureError) Error() string {
	return "credential: upstream auth failure: " + e.Reason
}

func (e *VaultInconsistencyError) Error() string {
	return "credential: vault inconsistency: " + e.Reason
}
