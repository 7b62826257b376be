package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet window used for search input
const DefaultDelay = 300 * time.Millisecond

// Timer is the part of *time.Timer the debouncer needs
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock is backed by the time package
var RealClock Clock = realClock{}

// Debouncer calls fn with the latest triggered value once no new value has
// arrived for the configured delay. fn runs on the clock's goroutine.
type Debouncer[T any] struct {
	delay time.Duration
	clock Clock
	fn    func(T)

	sched Scheduler[T]
	mu    sync.Mutex
	timer Timer
}

// New returns a debouncer using the real clock. A non-positive delay
// falls back to DefaultDelay.
func New[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	return NewWithClock(delay, RealClock, fn)
}

// NewWithClock is New with an explicit clock
func NewWithClock[T any](delay time.Duration, clock Clock, fn func(T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if clock == nil {
		clock = RealClock
	}
	return &Debouncer[T]{delay: delay, clock: clock, fn: fn}
}

// Trigger records v and restarts the quiet window
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	token := d.sched.Arm(v)
	d.timer = d.clock.AfterFunc(d.delay, func() {
		if v, ok := d.sched.Fire(token); ok {
			d.fn(v)
		}
	})
}

// Cancel discards any pending value without dispatching it
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.sched.Cancel()
}

// Pending reports whether a dispatch is scheduled
func (d *Debouncer[T]) Pending() bool {
	return d.sched.Pending()
}
