package credential

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
)

// stateEntry binds one in-flight OAuth authorization attempt to a
// department, with a short TTL and single-use semantics.
type stateEntry struct {
	department department.Department
	expiresAt  time.Time
	used       bool
}

// stateStore is an in-memory registry of pending OAuth state tokens.
type stateStore struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]*stateEntry
}

func newStateStore(ttl time.Duration) *stateStore {
	return &stateStore{ttl: ttl, m: make(map[string]*stateEntry)}
}

func (s *stateStore) issue(dept department.Department) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("credential: generate state token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	s.mu.Lock()
	s.m[token] = &stateEntry{department: dept, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return token, nil
}

// consume validates and single-uses a state token, returning its bound
// department.
func (s *stateStore) consume(token string) (department.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.m[token]
	if !ok {
		return "", fmt.Errorf("credential: unknown state token")
	}
	if entry.used {
		return "", fmt.Errorf("credential: state token already used")
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.m, token)
		return "", fmt.Errorf("credential: state token expired")
	}
	entry.used = true
	delete(s.m, token)
	return entry.department, nil
}
