package otpstore

import (
	"context"
	"log"
	"sync"
	"time"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"
)

const DefaultSweepInterval = 5 * time.Minute

type Memory struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     domain.OTPEntry
	expiresAt time.Time
}

func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{now: now, entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, key string) (domain.OTPEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return domain.OTPEntry{}, false, nil
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return domain.OTPEntry{}, false, nil
	}
	return entry.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value domain.OTPEntry, ttl time.Duration) error {
	if ttl <= 0 {
		return m.Delete(context.Background(), key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) ReserveAttempt(_ context.Context, key string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok || !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return 0, false, nil
	}
	entry.value.Attempts++
	m.entries[key] = entry
	return entry.value.Attempts, true, nil
}

func (m *Memory) Consume(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	delete(m.entries, key)
	return ok && m.now().Before(entry.expiresAt), nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *Memory) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// StartSweeper runs Sweep every interval until ctx is done.
func (m *Memory) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					log.Printf("otp sweep removed %d expired codes", n)
				}
			}
		}
	}()
}

var _ usecase.OTPStore = (*Memory)(nil)
