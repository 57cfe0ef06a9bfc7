package testhelpers

import (
	"sync"
	"time"

	"bumpbot/domain/interfaces"
)

// FakeScheduler records scheduled callbacks and runs them only when a test
// fires them
type FakeScheduler struct {
	mu     sync.Mutex
	timers []*FakeTimer
}

func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{}
}

func (s *FakeScheduler) AfterFunc(d time.Duration, f func()) interfaces.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &FakeTimer{Delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Timers returns every timer ever scheduled, in scheduling order
func (s *FakeScheduler) Timers() []*FakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*FakeTimer, len(s.timers))
	copy(out, s.timers)
	return out
}

// WithDelay returns the timers scheduled with delay d
func (s *FakeScheduler) WithDelay(d time.Duration) []*FakeTimer {
	var out []*FakeTimer
	for _, t := range s.Timers() {
		if t.Delay == d {
			out = append(out, t)
		}
	}
	return out
}

// FireDue fires every pending timer scheduled with delay d
func (s *FakeScheduler) FireDue(d time.Duration) int {
	fired := 0
	for _, t := range s.WithDelay(d) {
		if t.Fire() {
			fired++
		}
	}
	return fired
}

// FakeTimer is a timer controlled by the test
type FakeTimer struct {
	Delay time.Duration

	mu      sync.Mutex
	f       func()
	stopped bool
	fired   bool
}

// Stop cancels the timer if it has not fired
func (t *FakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Fire runs the callback unless the timer was stopped or already fired
func (t *FakeTimer) Fire() bool {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return false
	}
	t.fired = true
	t.mu.Unlock()
	t.f()
	return true
}

// ForceFire runs the callback even after Stop, simulating a timer that was
// already firing when it was cancelled
func (t *FakeTimer) ForceFire() {
	t.mu.Lock()
	t.fired = true
	t.mu.Unlock()
	t.f()
}

// Stopped reports whether Stop cancelled the timer
func (t *FakeTimer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Pending reports whether the timer can still fire
func (t *FakeTimer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.stopped && !t.fired
}
