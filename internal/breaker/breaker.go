// Package breaker remembers recent AI provider failures so callers can skip the
// provider for a cooldown window instead of hammering it.
package breaker

import (
	"context"
	"sync/atomic"
	"time"
)

// DefaultCooldown is how long the AI path stays disabled after a failure.
const DefaultCooldown = 5 * time.Minute

// Memory is an in-process failure state. The failure timestamp is a single
// word, so concurrent writers simply overwrite each other.
type Memory struct {
	cooldown time.Duration
	failedAt atomic.Int64
}

func NewMemory(cooldown time.Duration) *Memory {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Memory{cooldown: cooldown}
}

func (m *Memory) Cooldown() time.Duration {
	return m.cooldown
}

// InCooldown reports whether a failure was recorded less than the cooldown ago.
// An expired failure is cleared on the way.
func (m *Memory) InCooldown(_ context.Context, now time.Time) bool {
	at := m.failedAt.Load()
	if at == 0 {
		return false
	}

	if now.Sub(time.Unix(0, at)) < m.cooldown {
		return true
	}

	m.failedAt.CompareAndSwap(at, 0)
	return false
}

func (m *Memory) RecordFailure(_ context.Context, at time.Time) {
	m.failedAt.Store(at.UnixNano())
}

func (m *Memory) Reset(context.Context) {
	m.failedAt.Store(0)
}

// FailedAt returns the recorded failure time, if any.
func (m *Memory) FailedAt() (time.Time, bool) {
	at := m.failedAt.Load()
	if at == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, at), true
}
