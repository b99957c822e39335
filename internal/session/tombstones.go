// ABOUTME: Bounded record of swept session ids
// ABOUTME: Lets lookups report "expired" rather than "never existed"
package session

import "sync"

const tombstoneLimit = 1024

// tombstones remembers recently swept session ids so later lookups can
// tell an expired session from one that never existed. The set is
// capped; the oldest entries fall off first, after which an expired id
// degrades to not-found.
type tombstones struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

func newTombstones() *tombstones {
	return &tombstones{seen: make(map[string]struct{})}
}

func (t *tombstones) record(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[id]; ok {
		return
	}
	if len(t.order) >= tombstoneLimit {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.seen, oldest)
	}
	t.seen[id] = struct{}{}
	t.order = append(t.order, id)
}

func (t *tombstones) contains(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.seen[id]
	return ok
}
