package credential

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/coalesce"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/crypto"
)

const (
	vaultInfoRefreshToken = "credential:oauth:refresh_token:v1"
	vaultInfoAccessToken  = "credential:oauth:access_token:v1"
	stateTokenTTL         = 10 * time.Minute
)

// Manager implements the OAuth-token half of C2: begin/finalize
// authorization and coalesced access-token acquisition.
type Manager struct {
	vault      *crypto.Vault
	repo       OAuthRepository
	oauthConf  func(dept department.Department) *oauth2.Config
	states     *stateStore
	refreshes  *coalesce.Group
}

// NewManager builds a Manager. oauthConf returns the per-department
// oauth2.Config (client id/secret/redirect/scopes/endpoint are identical
// across departments; only the bound department differs in practice, but
// callers may vary it).
func NewManager(vault *crypto.Vault, repo OAuthRepository, oauthConf func(department.Department) *oauth2.Config) *Manager {
	return &Manager{
		vault:     vault,
		repo:      repo,
		oauthConf: oauthConf,
		states:    newStateStore(stateTokenTTL),
		refreshes: coalesce.New(),
	}
}

// BeginAuthorization generates a department-bound state token and the
// provider's consent URL (spec §4.2).
func (m *Manager) BeginAuthorization(dept department.Department) (authURL, stateToken string, err error) {
	stateToken, err = m.states.issue(dept)
	if err != nil {
		return "", "", err
	}
	conf := m.oauthConf(dept)
	authURL = conf.AuthCodeURL(stateToken, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	return authURL, stateToken, nil
}

// FinalizeAuthorization exchanges an authorization code for tokens, encrypts
// the refresh token, and upserts the department's row (spec §4.2). It
// rejects unknown, expired, or reused state tokens.
func (m *Manager) FinalizeAuthorization(ctx context.Context, stateToken, authorizationCode string) error {
	dept, err := m.states.consume(stateToken)
	if err != nil {
		return err
	}

	conf := m.oauthConf(dept)
	tok, err := conf.Exchange(ctx, authorizationCode)
	if err != nil {
		return &UpstreamAuthFailureError{Reason: err.Error()}
	}
	if tok.RefreshToken == "" {
		return &UpstreamAuthFailureError{Reason: "identity provider did not return a refresh token"}
	}

	encRefresh, err := m.vault.Encrypt([]byte(dept), vaultInfoRefreshToken, []byte(tok.RefreshToken))
	if err != nil {
		return &VaultInconsistencyError{Reason: err.Error()}
	}

	row := OAuthToken{
		Department:            dept,
		EncryptedRefreshToken: encRefresh,
		UpdatedAt:             time.Now().UTC(),
	}
	if tok.AccessToken != "" {
		encAccess, err := m.vault.Encrypt([]byte(dept), vaultInfoAccessToken, []byte(tok.AccessToken))
		if err != nil {
			return &VaultInconsistencyError{Reason: err.Error()}
		}
		row.EncryptedAccessToken = encAccess
		row.AccessExpiresAt = tok.Expiry
	}

	return m.repo.Upsert(ctx, row)
}

// AcquireAccessToken returns a valid access token for dept, refreshing it if
// necessary. Concurrent callers for the same department are coalesced into
// a single refresh request (spec §4.2, §5, §8 "OAuth refresh coalescing").
func (m *Manager) AcquireAccessToken(ctx context.Context, dept department.Department) (string, error) {
	row, ok, err := m.repo.Get(ctx, dept)
	if err != nil {
		return "", fmt.Errorf("credential: load oauth token: %w", err)
	}
	if !ok {
		return "", &NotAuthorizedError{Department: dept}
	}

	if row.EncryptedAccessToken != nil && time.Now().Before(row.AccessExpiresAt) {
		plain, err := m.vault.Decrypt([]byte(dept), vaultInfoAccessToken, row.EncryptedAccessToken)
		if err != nil {
			return "", &VaultInconsistencyError{Reason: err.Error()}
		}
		return string(plain), nil
	}

	result, err, _ := m.refreshes.Do(string(dept), func() (any, error) {
		return m.refresh(ctx, dept)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (m *Manager) refresh(ctx context.Context, dept department.Department) (string, error) {
	row, ok, err := m.repo.Get(ctx, dept)
	if err != nil {
		return "", fmt.Errorf("credential: load oauth token: %w", err)
	}
	if !ok {
		return "", &NotAuthorizedError{Department: dept}
	}

	refreshPlain, err := m.vault.Decrypt([]byte(dept), vaultInfoRefreshToken, row.EncryptedRefreshToken)
	if err != nil {
		return "", &VaultInconsistencyError{Reason: err.Error()}
	}

	conf := m.oauthConf(dept)
	src := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: string(refreshPlain)})
	tok, err := src.Token()
	if err != nil {
		return "", &UpstreamAuthFailureError{Reason: err.Error()}
	}

	encAccess, err := m.vault.Encrypt([]byte(dept), vaultInfoAccessToken, []byte(tok.AccessToken))
	if err != nil {
		return "", &VaultInconsistencyError{Reason: err.Error()}
	}
	row.EncryptedAccessToken = encAccess
	row.AccessExpiresAt = tok.Expiry
	row.UpdatedAt = time.Now().UTC()
	if tok.RefreshToken != "" && tok.RefreshToken != string(refreshPlain) {
		encRefresh, err := m.vault.Encrypt([]byte(dept), vaultInfoRefreshToken, []byte(tok.RefreshToken))
		if err != nil {
			return "", &VaultInconsistencyError{Reason: err.Error()}
		}
		row.EncryptedRefreshToken = encRefresh
	}

	if err := m.repo.Upsert(ctx, row); err != nil {
		return "", fmt.Errorf("credential: persist refreshed token: %w", err)
	}
	return tok.AccessToken, nil
}

// Revoke deletes the department's OAuth row (spec §4.2).
func (m *Manager) Revoke(ctx context.Context, dept department.Department) error {
	return m.repo.Delete(ctx, dept)
}
