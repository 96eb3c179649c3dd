// internal/dedup/window.go
package dedup

import "sync"

// DefaultCapacity is the window size used when none is configured.
const DefaultCapacity = 10_000

// Window is a bounded set of recently seen keys. When full it evicts the
// oldest tenth of its keys in insertion order before inserting a new one.
// Len never exceeds Capacity.
type Window struct {
	mu    sync.Mutex
	set   map[string]struct{}
	ring  []string
	head  int // index of the oldest key
	size  int
	evict int
}

// New creates a window. A non-positive capacity selects DefaultCapacity.
func New(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	evict := capacity / 10
	if evict < 1 {
		evict = 1
	}
	return &Window{
		set:   make(map[string]struct{}, capacity),
		ring:  make([]string, capacity),
		evict: evict,
	}
}

// Has reports whether key is in the window.
func (w *Window) Has(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.set[key]
	return ok
}

// Add inserts key. Adding a present key does not refresh its position.
func (w *Window) Add(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.insert(key)
}

// CheckAndAdd inserts key and reports whether it was absent.
func (w *Window) CheckAndAdd(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.insert(key)
}

// Len returns the number of keys held.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Capacity returns the maximum number of keys held.
func (w *Window) Capacity() int {
	return len(w.ring)
}

func (w *Window) insert(key string) bool {
	if _, ok := w.set[key]; ok {
		return false
	}
	if w.size == len(w.ring) {
		w.evictOldest()
	}
	w.ring[(w.head+w.size)%len(w.ring)] = key
	w.size++
	w.set[key] = struct{}{}
	return true
}

func (w *Window) evictOldest() {
	for i := 0; i < w.evict && w.size > 0; i++ {
		delete(w.set, w.ring[w.head])
		w.ring[w.head] = ""
		w.head = (w.head + 1) % len(w.ring)
		w.size--
	}
}
