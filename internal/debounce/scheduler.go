// Package debounce coalesces bursts of values into a single dispatch of the
// latest one after a quiet window.
package debounce

import "sync"

// Scheduler is the timer-free core of a debouncer. Arm records a value and
// hands back a token; Fire releases the value only for the most recent
// token. It does not know about clocks, so any timer source (time.AfterFunc,
// tea.Tick, a fake clock) can drive it.
type Scheduler[T any] struct {
	mu    sync.Mutex
	token uint64
	value T
	armed bool
}

// Arm replaces the pending value and invalidates every earlier token
func (s *Scheduler[T]) Arm(v T) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token++
	s.value = v
	s.armed = true
	return s.token
}

// Cancel drops the pending value
func (s *Scheduler[T]) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token++
	s.armed = false
	var zero T
	s.value = zero
}

// Fire returns the pending value if token is still current. A value is
// released at most once.
func (s *Scheduler[T]) Fire(token uint64) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if !s.armed || token != s.token {
		return zero, false
	}
	v := s.value
	s.armed = false
	s.value = zero
	return v, true
}

// Pending reports whether a value is waiting to fire
func (s *Scheduler[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}
