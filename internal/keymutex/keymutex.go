// Package keymutex provides named exclusive locks so that check-then-reserve
// sequences for one agent serialize without blocking other agents.
package keymutex

import "sync"

// KeyMutex hands out one mutex per key, created lazily on first use.
// Mutexes are retained for the process lifetime; the key space is bounded
// by the number of distinct agents seen.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an empty KeyMutex.
func New() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the exclusive lock for key.
func (k *KeyMutex) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the exclusive lock for key. Calling Unlock for a key that
// was never locked panics, same as sync.Mutex.
func (k *KeyMutex) Unlock(key string) {
	k.get(key).Unlock()
}

func (k *KeyMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}
