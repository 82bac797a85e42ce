package repository

import (
	"context"
	"sync"
	"time"
)

type expiring struct {
	value     string
	expiresAt time.Time
}

func (e expiring) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryOTPStore is the in-process fallback store.
type MemoryOTPStore struct {
	codes      sync.Map
	verified   sync.Map
	mu         sync.Mutex
	rateLimits map[string]*rateLimitEntry
	now        func() time.Time
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{
		rateLimits: make(map[string]*rateLimitEntry),
		now:        time.Now,
	}
}

func (r *MemoryOTPStore) load(m *sync.Map, key string) (string, bool) {
	val, ok := m.Load(key)
	if !ok {
		return "", false
	}
	e := val.(expiring)
	if e.expired(r.now()) {
		m.CompareAndDelete(key, val)
		return "", false
	}
	return e.value, true
}

func (r *MemoryOTPStore) SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	r.codes.Store(emailKey(otpKeyPrefix, email), expiring{value: code, expiresAt: r.now().Add(ttl)})
	return nil
}

func (r *MemoryOTPStore) GetOTP(ctx context.Context, email string) (string, error) {
	code, _ := r.load(&r.codes, emailKey(otpKeyPrefix, email))
	return code, nil
}

func (r *MemoryOTPStore) DeleteOTP(ctx context.Context, email string) error {
	r.codes.Delete(emailKey(otpKeyPrefix, email))
	return nil
}

func (r *MemoryOTPStore) MarkVerified(ctx context.Context, email string, ttl time.Duration) error {
	r.verified.Store(emailKey(verifiedKeyPrefix, email), expiring{value: "1", expiresAt: r.now().Add(ttl)})
	return nil
}

func (r *MemoryOTPStore) IsVerified(ctx context.Context, email string) (bool, error) {
	_, ok := r.load(&r.verified, emailKey(verifiedKeyPrefix, email))
	return ok, nil
}

func (r *MemoryOTPStore) ClearVerified(ctx context.Context, email string) error {
	r.verified.Delete(emailKey(verifiedKeyPrefix, email))
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryOTPStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.rateLimits[key]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[key] = entry
	}
	entry.count++
	return entry.count <= limit, nil
}
