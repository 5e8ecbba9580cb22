// ABOUTME: Tests for the dedupe window
// ABOUTME: Validates first-occurrence reporting, expiry, size limits, and concurrency safety

package dedupe

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestWindow(ttl time.Duration, maxSize int) (*Window, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	w := New(ttl, maxSize)
	w.now = clock.Now
	return w, clock
}

func TestWindow_FirstThenRepeat(t *testing.T) {
	w, _ := newTestWindow(time.Minute, 10)

	assert.True(t, w.First("admin-1 GET /session/account"))
	assert.False(t, w.First("admin-1 GET /session/account"))
	assert.True(t, w.First("admin-1 DELETE /session/account"))
	assert.Equal(t, 2, w.Len())
}

func TestWindow_Expiry(t *testing.T) {
	w, clock := newTestWindow(time.Minute, 10)

	assert.True(t, w.First("k"))

	clock.Advance(59 * time.Second)
	assert.False(t, w.First("k"))

	// The repeat did not extend the window.
	clock.Advance(time.Second)
	assert.True(t, w.First("k"))
}

func TestWindow_ExpiredKeysArePruned(t *testing.T) {
	w, clock := newTestWindow(time.Minute, 10)

	w.First("a")
	clock.Advance(30 * time.Second)
	w.First("b")

	clock.Advance(30 * time.Second)
	assert.Equal(t, 1, w.Len(), "a expired, b still live")

	clock.Advance(30 * time.Second)
	assert.Equal(t, 0, w.Len())
}

func TestWindow_EvictsOldestAtCapacity(t *testing.T) {
	w, clock := newTestWindow(time.Hour, 3)

	for _, k := range []string{"a", "b", "c"} {
		assert.True(t, w.First(k))
		clock.Advance(time.Second)
	}

	assert.True(t, w.First("d"))
	assert.Equal(t, 3, w.Len())

	// a was evicted, so it is new again; that in turn evicts b.
	assert.True(t, w.First("a"))
	assert.False(t, w.First("c"))
	assert.True(t, w.First("b"))
}

func TestWindow_ZeroSize(t *testing.T) {
	w := New(time.Minute, 0)

	assert.True(t, w.First("a"))
	assert.True(t, w.First("b"))
	assert.Equal(t, 1, w.Len())
}

func TestWindow_Concurrent(t *testing.T) {
	w := New(time.Minute, 1000)

	var firsts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if w.First("same-key") {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), firsts.Load())
}
