// Package keymutex provides per-key mutual exclusion. The engine uses one Map
// per resource class (listings, wallets) so unrelated keys never contend on a
// single global lock.
package keymutex

import (
	"sync"

	"github.com/google/uuid"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// Map hands out one mutex per key. Entries are dropped once the last holder
// unlocks, so the map does not grow with the number of keys ever seen.
type Map struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*entry
}

func New() *Map {
	return &Map{locks: make(map[uuid.UUID]*entry)}
}

// Lock acquires the mutex for key, creating it on first use.
func (m *Map) Lock(key uuid.UUID) {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &entry{}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key. Calling Unlock for a key that is not
// held is a programming error and panics, same as sync.Mutex.
func (m *Map) Unlock(key uuid.UUID) {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		m.mu.Unlock()
		panic("keymutex: unlock of unheld key")
	}
	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()

	e.mu.Unlock()
}
