// Package internal provides internal utilities for the calc package.
package internal

import "time"

// Clock is the time source used by polling waits.
// This abstraction allows deterministic tests of timeout behavior.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep blocks for d.
	Sleep(d time.Duration)
}

// SystemClock is a Clock backed by the runtime's monotonic clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Sleep calls time.Sleep.
func (SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// MockClock is a Clock for tests. Sleep advances the clock instead of blocking.
// It is not safe for concurrent use.
type MockClock struct {
	current time.Time
	sleeps  int
}

// NewMockClock creates a new MockClock initialized to the given time.
// If t is zero, it initializes to a fixed start time.
func NewMockClock(t time.Time) *MockClock {
	if t.IsZero() {
		t = time.Unix(1000000000, 0)
	}
	return &MockClock{current: t}
}

// Now returns the mock clock's current time.
func (m *MockClock) Now() time.Time {
	return m.current
}

// Sleep advances the clock by d without blocking.
func (m *MockClock) Sleep(d time.Duration) {
	m.sleeps++
	m.Advance(d)
}

// Sleeps reports how many times Sleep was called.
func (m *MockClock) Sleeps() int {
	return m.sleeps
}

// Advance moves the clock forward by the given duration.
// Panics if d is negative.
func (m *MockClock) Advance(d time.Duration) {
	if d < 0 {
		panic("MockClock.Advance: duration must be non-negative")
	}
	m.current = m.current.Add(d)
}
