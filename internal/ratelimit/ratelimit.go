// Package ratelimit provides cancelable timing-control wrappers used to
// bound how often bursty event handlers execute. Callers own cancellation:
// a wrapper never tracks the lifetime of state its function captures.
package ratelimit

import (
	"sync"
	"time"
)

// Debounced invokes its function only after a quiet period since the last
// Call. The pending timer resets on every Call.
type Debounced struct {
	mu    sync.Mutex
	fn    func()
	wait  time.Duration
	timer *time.Timer
}

// Debounce wraps fn with a trailing-edge debounce of wait.
func Debounce(fn func(), wait time.Duration) *Debounced {
	return &Debounced{fn: fn, wait: wait}
}

// Call schedules fn after the wait, resetting any pending invocation.
func (d *Debounced) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		d.timer = nil
		d.mu.Unlock()
		d.fn()
	})
}

// Cancel drops the pending invocation, if any.
func (d *Debounced) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Flush runs the pending invocation immediately, if any.
func (d *Debounced) Flush() {
	d.mu.Lock()
	pending := d.timer != nil
	if pending {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	if pending {
		d.fn()
	}
}

// Throttled invokes its function immediately on the first Call within a
// window, then at most once more per window while Calls keep arriving.
// It stays callable indefinitely.
type Throttled struct {
	mu       sync.Mutex
	fn       func()
	wait     time.Duration
	last     time.Time
	trailing *time.Timer
	pending  bool
}

// Throttle wraps fn with a leading-plus-trailing throttle of wait.
func Throttle(fn func(), wait time.Duration) *Throttled {
	return &Throttled{fn: fn, wait: wait}
}

// Call runs fn now if the window is open, otherwise records one trailing
// invocation for when it closes.
func (t *Throttled) Call() {
	t.mu.Lock()
	now := time.Now()
	if t.trailing == nil && now.Sub(t.last) >= t.wait {
		t.last = now
		t.mu.Unlock()
		t.fn()
		return
	}
	t.pending = true
	if t.trailing == nil {
		delay := t.wait - now.Sub(t.last)
		if delay < 0 {
			delay = 0
		}
		t.trailing = time.AfterFunc(delay, t.fire)
	}
	t.mu.Unlock()
}

func (t *Throttled) fire() {
	t.mu.Lock()
	t.trailing = nil
	run := t.pending
	t.pending = false
	if run {
		t.last = time.Now()
	}
	t.mu.Unlock()
	if run {
		t.fn()
	}
}

// Cancel drops any pending trailing invocation.
func (t *Throttled) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.trailing != nil {
		t.trailing.Stop()
		t.trailing = nil
	}
	t.pending = false
}

// Memo caches the result of a single keyed computation. A new key evicts
// the previous entry; a repeated key returns the cached value without
// re-running fetch. Failed fetches are not cached.
type Memo[K comparable, V any] struct {
	mu  sync.Mutex
	ok  bool
	key K
	val V
}

// Do returns the cached value for key, computing it via fetch on a miss.
func (m *Memo[K, V]) Do(key K, fetch func() (V, error)) (V, error) {
	m.mu.Lock()
	if m.ok && m.key == key {
		v := m.val
		m.mu.Unlock()
		return v, nil
	}
	m.mu.Unlock()

	v, err := fetch()
	if err != nil {
		return v, err
	}
	m.mu.Lock()
	m.ok = true
	m.key = key
	m.val = v
	m.mu.Unlock()
	return v, nil
}

// Forget clears the cached entry.
func (m *Memo[K, V]) Forget() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ok = false
}
