// Package ratelimit provides per-key token-bucket rate limiting for HTTP
// routes (spec §4.14: login 10/min/IP, document-generation 5/min/actor).
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config describes a single named rate limit.
type Config struct {
	RequestsPerMinute int
	Burst             int
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per key (IP address or actor id),
// evicting idle buckets so memory doesn't grow unbounded.
type KeyedLimiter struct {
	mu      sync.Mutex
	cfg     Config
	buckets map[string]*entry
	ttl     time.Duration
}

// New creates a KeyedLimiter for cfg with a default 1-hour idle eviction.
func New(cfg Config) *KeyedLimiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RequestsPerMinute
	}
	return &KeyedLimiter{
		cfg:     cfg,
		buckets: make(map[string]*entry),
		ttl:     time.Hour,
	}
}

// Allow reports whether key may proceed, consuming a token if so.
func (k *KeyedLimiter) Allow(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.buckets[key]
	if !ok {
		perSecond := rate.Limit(float64(k.cfg.RequestsPerMinute) / 60.0)
		e = &entry{limiter: rate.NewLimiter(perSecond, k.cfg.Burst)}
		k.buckets[key] = e
	}
	e.lastSeen = time.Now()
	k.evictLocked()
	return e.limiter.Allow()
}

func (k *KeyedLimiter) evictLocked() {
	cutoff := time.Now().Add(-k.ttl)
	for key, e := range k.buckets {
		if e.lastSeen.Before(cutoff) {
			delete(k.buckets, key)
		}
	}
}

// LoginConfig returns the login-route rate limit: 10 attempts/min/IP.
func LoginConfig() Config { return Config{RequestsPerMinute: 10, Burst: 10} }

// DocumentGenerationConfig returns the document-generation rate limit:
// 5 requests/min/actor.
func DocumentGenerationConfig() Config { return Config{RequestsPerMinute: 5, Burst: 5} }
