// Package auth implements login, bearer-token issuance/verification, and
// refresh for operator accounts (spec §4.16).
package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/kunpeto/driver-management-system-sub001/domain/user"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/middleware"
)

const (
	// BcryptCost is the adaptive-hash work factor (spec §4.16: "cost ≥ 12").
	BcryptCost = 12

	accessTokenTTL  = 30 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	// lockout window (spec §4.16): 10 failed logins within 10 minutes locks
	// the username for 15 minutes.
	lockoutThreshold = 10
	lockoutWindow    = 10 * time.Minute
	lockoutDuration  = 15 * time.Minute
)

// Claims is the JWT payload shared by access and refresh tokens,
// distinguished by Type.
type Claims struct {
	UserID     string `json:"user_id"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	Type       string `json:"typ"`
	jwt.RegisteredClaims
}

// Summary is the non-sensitive user projection returned from login.
type Summary struct {
	Username   string
	Role       string
	Department string
}

// TooManyAttemptsError reports a locked username (spec §4.16).
type TooManyAttemptsError struct {
	Username  string
	RetryAt   time.Time
}

func (e *TooManyAttemptsError) Error() string {
	return fmt.Sprintf("auth: too many failed attempts for %q, locked until %s", e.Username, e.RetryAt.Format(time.RFC3339))
}

// InvalidCredentialsError reports a username/password mismatch.
type InvalidCredentialsError struct{}

func (e *InvalidCredentialsError) Error() string { return "auth: invalid username or password" }

type failureLog struct {
	mu       sync.Mutex
	attempts []time.Time
	lockedAt time.Time
	locked   bool
}

// Manager issues and verifies bearer tokens and owns password hashing and
// lockout bookkeeping. It implements middleware.TokenVerifier.
type Manager struct {
	secret []byte
	repo   user.Repository

	mu       sync.Mutex
	failures map[string]*failureLog

	now func() time.Time
}

// NewManager builds a Manager. secret signs both access and refresh tokens;
// a single HMAC secret mirrors the teacher's legacy JWT manager (see
// DESIGN.md) and is acceptable since the two token types carry distinct
// "typ" claims and are never interchangeable.
func NewManager(secret string, repo user.Repository) *Manager {
	return &Manager{
		secret:   []byte(secret),
		repo:     repo,
		failures: make(map[string]*failureLog),
		now:      time.Now,
	}
}

// Login verifies credentials and, on success, issues a fresh token pair
// (spec §4.16).
func (m *Manager) Login(ctx context.Context, username, password string) (accessToken, refreshToken string, summary Summary, err error) {
	username = strings.TrimSpace(username)

	if locked, retryAt := m.isLocked(username); locked {
		return "", "", Summary{}, &TooManyAttemptsError{Username: username, RetryAt: retryAt}
	}

	u, err := m.repo.GetByUsername(ctx, username)
	if err != nil {
		m.recordFailure(username)
		return "", "", Summary{}, &InvalidCredentialsError{}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		m.recordFailure(username)
		return "", "", Summary{}, &InvalidCredentialsError{}
	}

	m.clearFailures(username)

	access, err := m.issue(u, tokenTypeAccess, accessTokenTTL)
	if err != nil {
		return "", "", Summary{}, fmt.Errorf("auth: issue access token: %w", err)
	}
	refresh, err := m.issue(u, tokenTypeRefresh, refreshTokenTTL)
	if err != nil {
		return "", "", Summary{}, fmt.Errorf("auth: issue refresh token: %w", err)
	}
	return access, refresh, toSummary(u), nil
}

// Refresh exchanges a valid refresh token for a new access token (spec
// §4.16). The refresh token itself is not rotated.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (accessToken string, err error) {
	claims, err := m.parse(refreshToken)
	if err != nil {
		return "", err
	}
	if claims.Type != tokenTypeRefresh {
		return "", fmt.Errorf("auth: token is not a refresh token")
	}

	u, err := m.repo.GetByUsername(ctx, claims.Subject)
	if err != nil {
		return "", &InvalidCredentialsError{}
	}

	access, err := m.issue(u, tokenTypeAccess, accessTokenTTL)
	if err != nil {
		return "", fmt.Errorf("auth: issue access token: %w", err)
	}
	return access, nil
}

// ChangePassword replaces actor's password hash after verifying the old
// password (spec §4.16: "requires reauth").
func (m *Manager) ChangePassword(ctx context.Context, actor middleware.Actor, oldPassword, newPassword string) error {
	u, err := m.repo.GetByUsername(ctx, actor.Username)
	if err != nil {
		return &InvalidCredentialsError{}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)); err != nil {
		return &InvalidCredentialsError{}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), BcryptCost)
	if err != nil {
		return fmt.Errorf("auth: hash new password: %w", err)
	}
	return m.repo.UpdatePasswordHash(ctx, actor.Username, string(hash))
}

// Verify implements middleware.TokenVerifier: it parses an access token and
// returns the Actor it encodes. Refresh tokens are rejected here so a
// leaked long-lived token cannot be used as a bearer credential.
func (m *Manager) Verify(tokenString string) (middleware.Actor, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return middleware.Actor{}, err
	}
	if claims.Type != tokenTypeAccess {
		return middleware.Actor{}, fmt.Errorf("auth: token is not an access token")
	}
	return middleware.Actor{
		UserID:     claims.UserID,
		Username:   claims.Subject,
		Role:       claims.Role,
		Department: claims.Department,
	}, nil
}

func (m *Manager) issue(u user.User, typ string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		UserID:     u.Username,
		Role:       string(u.Role),
		Department: string(u.Department),
		Type:       typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("auth: invalid token")
	}
	return claims, nil
}

func (m *Manager) isLocked(username string) (bool, time.Time) {
	m.mu.Lock()
	log, ok := m.failures[username]
	m.mu.Unlock()
	if !ok {
		return false, time.Time{}
	}
	log.mu.Lock()
	defer log.mu.Unlock()
	if !log.locked {
		return false, time.Time{}
	}
	retryAt := log.lockedAt.Add(lockoutDuration)
	if m.now().After(retryAt) {
		log.locked = false
		log.attempts = nil
		return false, time.Time{}
	}
	return true, retryAt
}

func (m *Manager) recordFailure(username string) {
	m.mu.Lock()
	log, ok := m.failures[username]
	if !ok {
		log = &failureLog{}
		m.failures[username] = log
	}
	m.mu.Unlock()

	log.mu.Lock()
	defer log.mu.Unlock()
	now := m.now()
	cutoff := now.Add(-lockoutWindow)
	kept := log.attempts[:0]
	for _, t := range log.attempts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	log.attempts = append(kept, now)
	if len(log.attempts) >= lockoutThreshold {
		log.locked = true
		log.lockedAt = now
	}
}

func (m *Manager) clearFailures(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, username)
}

func toSummary(u user.User) Summary {
	return Summary{Username: u.Username, Role: string(u.Role), Department: string(u.Department)}
}
