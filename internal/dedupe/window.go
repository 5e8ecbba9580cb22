// ABOUTME: Thread-safe TTL window that reports the first occurrence of a key
// ABOUTME: Lets callers record an event once per key per window, bounded in size

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	key string
	at  time.Time
}

// Window remembers keys for a fixed duration. Entries are kept in mark order
// (oldest at front), so expiry and eviction both pop from the front.
type Window struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// New creates a window that remembers up to maxSize keys for ttl each.
func New(ttl time.Duration, maxSize int) *Window {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Window{
		seen:    make(map[string]*list.Element),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// First reports whether key is new in the current window and marks it.
// A key seen less than ttl ago returns false and keeps its original mark.
func (w *Window) First(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.pruneLocked(now)

	if _, ok := w.seen[key]; ok {
		return false
	}

	if len(w.seen) >= w.maxSize {
		w.removeLocked(w.order.Front())
	}
	w.seen[key] = w.order.PushBack(&entry{key: key, at: now})
	return true
}

// Len returns the number of keys currently remembered.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(w.now())
	return len(w.seen)
}

// pruneLocked drops expired keys. Must be called with mu held.
func (w *Window) pruneLocked(now time.Time) {
	for front := w.order.Front(); front != nil; front = w.order.Front() {
		if now.Sub(front.Value.(*entry).at) < w.ttl {
			return
		}
		w.removeLocked(front)
	}
}

func (w *Window) removeLocked(elem *list.Element) {
	if elem == nil {
		return
	}
	w.order.Remove(elem)
	delete(w.seen, elem.Value.(*entry).key)
}
