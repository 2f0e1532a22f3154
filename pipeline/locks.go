package pipeline

import "sync"

// lockArena hands out per-story exclusivity tokens. A token exists only
// while its story has an advance in flight: acquisition creates it lazily
// and release deletes it, so the arena never grows with idle entries and
// unrelated stories never contend on anything but the short map lock.
type lockArena struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newLockArena() *lockArena {
	return &lockArena{held: make(map[string]struct{})}
}

// tryAcquire claims the token for id, or reports false if another advance
// holds it. Contenders fail fast rather than queue.
func (a *lockArena) tryAcquire(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, busy := a.held[id]; busy {
		return false
	}
	a.held[id] = struct{}{}
	return true
}

func (a *lockArena) release(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.held, id)
}

func (a *lockArena) size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.held)
}
