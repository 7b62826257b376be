package debounce

import (
	"sort"
	"sync"
	"testing"
	"time"
)

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// advanceTo fires due timers in deadline order
func (c *fakeClock) advanceTo(now time.Duration) {
	c.mu.Lock()
	c.now = now
	var due []*fakeTimer
	rest := c.timers[:0]
	for _, t := range c.timers {
		if t.at <= now {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	c.timers = rest
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		if !t.stopped {
			t.f()
		}
	}
}

type dispatch struct {
	at    time.Duration
	value string
}

func TestDebouncerCoalescesBurst(t *testing.T) {
	clock := &fakeClock{}
	var got []dispatch
	d := NewWithClock(300*time.Millisecond, clock, func(v string) {
		got = append(got, dispatch{at: clock.now, value: v})
	})

	for _, step := range []struct {
		at time.Duration
		v  string
	}{
		{0, "a"},
		{50 * time.Millisecond, "b"},
		{100 * time.Millisecond, "c"},
		{299 * time.Millisecond, "d"},
	} {
		clock.advanceTo(step.at)
		d.Trigger(step.v)
	}

	clock.advanceTo(598 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("dispatched before quiet window elapsed: %+v", got)
	}
	clock.advanceTo(599 * time.Millisecond)
	if len(got) != 1 || got[0].value != "d" || got[0].at != 599*time.Millisecond {
		t.Fatalf("expected one dispatch of d at 599ms, got %+v", got)
	}

	clock.advanceTo(2 * time.Second)
	if len(got) != 1 {
		t.Fatalf("unexpected extra dispatch: %+v", got)
	}
}

func TestDebouncerCancel(t *testing.T) {
	clock := &fakeClock{}
	calls := 0
	d := NewWithClock(300*time.Millisecond, clock, func(string) { calls++ })

	d.Trigger("x")
	if !d.Pending() {
		t.Fatalf("expected pending dispatch")
	}
	d.Cancel()
	clock.advanceTo(time.Second)
	if calls != 0 || d.Pending() {
		t.Fatalf("cancelled value dispatched: calls=%d", calls)
	}
}

func TestDebouncerDefaultsDelay(t *testing.T) {
	d := NewWithClock(0, &fakeClock{}, func(int) {})
	if d.delay != DefaultDelay {
		t.Fatalf("delay = %v", d.delay)
	}
}

func TestSchedulerLastValueWins(t *testing.T) {
	var s Scheduler[string]
	first := s.Arm("a")
	second := s.Arm("b")

	if _, ok := s.Fire(first); ok {
		t.Fatalf("stale token fired")
	}
	v, ok := s.Fire(second)
	if !ok || v != "b" {
		t.Fatalf("fire = %q, %v", v, ok)
	}
	if _, ok := s.Fire(second); ok {
		t.Fatalf("value released twice")
	}

	tok := s.Arm("c")
	s.Cancel()
	if _, ok := s.Fire(tok); ok {
		t.Fatalf("cancelled value fired")
	}
}
