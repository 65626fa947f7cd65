// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// FakeClock is a manually driven Clock for tests. Time only moves when
// Advance or Set is called. It is safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []timer
	changed *sync.Cond
}

// timer is one outstanding After call.
type timer struct {
	at time.Time
	ch chan time.Time
}

// Fake returns a FakeClock reading initial.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{now: initial}
	c.changed = sync.NewCond(&c.mu)
	return c
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After registers a timer that fires once the clock reaches now+d.
// Non-positive durations fire immediately and register nothing.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.pending = append(c.pending, timer{at: c.now.Add(d), ch: ch})
	c.changed.Broadcast()
	return ch
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.move(func(now time.Time) time.Time { return now.Add(d) })
}

// Set moves the clock to t. Moving backwards fires nothing.
func (c *FakeClock) Set(t time.Time) {
	c.move(func(time.Time) time.Time { return t })
}

// move updates the time and fires due timers in deadline order. Timer
// channels are buffered, so sending under the lock never blocks.
func (c *FakeClock) move(next func(time.Time) time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = next(c.now)

	var due []timer
	c.pending = slices.DeleteFunc(c.pending, func(entry timer) bool {
		if entry.at.After(c.now) {
			return false
		}
		due = append(due, entry)
		return true
	})
	slices.SortStableFunc(due, func(a, b timer) int { return a.at.Compare(b.at) })
	for _, entry := range due {
		entry.ch <- c.now
	}
	c.changed.Broadcast()
}

// WaitForTimers blocks until at least n timers are pending. Tests use
// it to know a goroutine is parked in After before advancing.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.pending) < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of timers that have not fired.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
