// Package cooldown tracks per (user, command) cooldown windows.
//
// Windows are fixed: a successful run pushes the expiry to now + cooldown,
// regardless of earlier windows. Entries are never deleted; an expired entry
// is indistinguishable from a missing one.
package cooldown

import (
	"sync"
	"time"
)

type key struct {
	user    string
	command string
}

type entry struct {
	mu       sync.Mutex
	expiry   time.Time
	reserved bool
}

// Manager is safe for concurrent use. Each key carries its own lock, so
// unrelated users and commands never contend.
type Manager struct {
	entries sync.Map // key -> *entry
	now     func() time.Time
}

func NewManager() *Manager {
	return NewManagerWithClock(time.Now)
}

// NewManagerWithClock is NewManager with an injectable time source.
func NewManagerWithClock(now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{now: now}
}

func (m *Manager) entry(user, command string) *entry {
	k := key{user: user, command: command}
	if e, ok := m.entries.Load(k); ok {
		return e.(*entry)
	}
	e, _ := m.entries.LoadOrStore(k, &entry{})
	return e.(*entry)
}

// IsOnCooldown reports whether a stored expiry for (user, command) is still
// in the future.
func (m *Manager) IsOnCooldown(user, command string) bool {
	e, ok := m.entries.Load(key{user: user, command: command})
	if !ok {
		return false
	}
	ent := e.(*entry)
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return m.now().Before(ent.expiry)
}

// Commit stores now + d as the expiry, overwriting any previous value, and
// clears a pending reservation.
func (m *Manager) Commit(user, command string, d time.Duration) {
	e := m.entry(user, command)
	e.mu.Lock()
	e.expiry = m.now().Add(d)
	e.reserved = false
	e.mu.Unlock()
}

// Reserve atomically checks the window and claims the key for one in-flight
// run. It fails while the key is on cooldown or already reserved. A
// successful reservation must end in Commit or Cancel.
func (m *Manager) Reserve(user, command string) bool {
	e := m.entry(user, command)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.reserved || m.now().Before(e.expiry) {
		return false
	}
	e.reserved = true
	return true
}

// Cancel drops a reservation without starting a window.
func (m *Manager) Cancel(user, command string) {
	e, ok := m.entries.Load(key{user: user, command: command})
	if !ok {
		return
	}
	ent := e.(*entry)
	ent.mu.Lock()
	ent.reserved = false
	ent.mu.Unlock()
}

// Remaining returns how long (user, command) stays on cooldown.
func (m *Manager) Remaining(user, command string) time.Duration {
	e, ok := m.entries.Load(key{user: user, command: command})
	if !ok {
		return 0
	}
	ent := e.(*entry)
	ent.mu.Lock()
	defer ent.mu.Unlock()
	if left := ent.expiry.Sub(m.now()); left > 0 {
		return left
	}
	return 0
}
