package session

import (
	"context"
	"sync"
	"time"
)

// RevocationList records token ids (jti) that were logged out before they
// expired. Entries only need to live as long as the token itself.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// Backend names the store, reported by /api/version.
	Backend() string
}

// MemoryRevocationList keeps revoked ids in process memory. Revocations are
// lost on restart and are not shared between instances.
type MemoryRevocationList struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *MemoryRevocationList) Backend() string { return "memory" }

func (m *MemoryRevocationList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.entries[jti] = now.Add(ttl)
	m.sweepLocked(now)
	return nil
}

func (m *MemoryRevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	expiresAt, ok := m.entries[jti]
	if !ok {
		return false, nil
	}
	if !m.now().Before(expiresAt) {
		delete(m.entries, jti)
		return false, nil
	}
	return true, nil
}

// Len reports the number of live entries.
func (m *MemoryRevocationList) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked(m.now())
	return len(m.entries)
}

func (m *MemoryRevocationList) sweepLocked(now time.Time) {
	for jti, expiresAt := range m.entries {
		if !now.Before(expiresAt) {
			delete(m.entries, jti)
		}
	}
}
