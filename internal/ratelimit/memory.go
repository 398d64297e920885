package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	maxEntries      = 10000
	cleanupInterval = time.Minute
)

type bucket struct {
	count   int
	resetAt time.Time
}

// Memory is an in-process Limiter for single-instance deployments. State does
// not survive restarts and is not shared across instances; multi-instance
// deployments should use the Redis limiter instead.
type Memory struct {
	policy Policy

	mu          sync.Mutex
	buckets     map[string]*bucket
	lastCleanup time.Time
}

func NewMemory(policy Policy) *Memory {
	return &Memory{
		policy:      policy,
		buckets:     make(map[string]*bucket),
		lastCleanup: time.Now(),
	}
}

func (m *Memory) Record(ctx context.Context, key string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.maybeCleanup()

	now := time.Now()
	b, exists := m.buckets[key]
	if !exists || !b.resetAt.After(now) {
		b = &bucket{count: 0, resetAt: now.Add(m.policy.Window)}
		m.buckets[key] = b
	}

	b.count++

	remaining := m.policy.MaxAttempts - b.count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Blocked:   b.count > m.policy.MaxAttempts,
		Remaining: remaining,
		ResetAt:   b.resetAt,
	}, nil
}

func (m *Memory) Blocked(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, exists := m.buckets[key]
	if !exists || !b.resetAt.After(time.Now()) {
		return false, nil
	}
	return b.count >= m.policy.MaxAttempts, nil
}

func (m *Memory) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.buckets, key)
	return nil
}

func (m *Memory) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, b := range m.buckets {
		if !b.resetAt.After(now) {
			delete(m.buckets, key)
		}
	}
	m.lastCleanup = now
	return nil
}

// maybeCleanup bounds memory growth without a background goroutine.
// Callers must hold the mutex.
func (m *Memory) maybeCleanup() {
	now := time.Now()
	if now.Sub(m.lastCleanup) >= cleanupInterval {
		for key, b := range m.buckets {
			if !b.resetAt.After(now) {
				delete(m.buckets, key)
			}
		}
		m.lastCleanup = now
	}

	if len(m.buckets) > maxEntries {
		drop := len(m.buckets) / 5
		for key := range m.buckets {
			delete(m.buckets, key)
			drop--
			if drop <= 0 {
				break
			}
		}
	}
}

var _ Limiter = (*Memory)(nil)
