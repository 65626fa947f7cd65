// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"

	"github.com/claimlink/signer/lib/testutil"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	c := Fake(epoch)
	if got := c.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	c.Advance(8 * time.Hour)
	if got := c.Now(); !got.Equal(epoch.Add(8 * time.Hour)) {
		t.Fatalf("Now() after Advance = %v", got)
	}
}

func TestFakeClockAfterFiresOnAdvance(t *testing.T) {
	c := Fake(epoch)
	channel := c.After(time.Second)

	select {
	case <-channel:
		t.Fatal("After fired before Advance")
	default:
	}

	c.Advance(500 * time.Millisecond)
	select {
	case <-channel:
		t.Fatal("After fired before its deadline")
	default:
	}

	c.Advance(500 * time.Millisecond)
	select {
	case fired := <-channel:
		if !fired.Equal(epoch.Add(time.Second)) {
			t.Errorf("fired at %v, want %v", fired, epoch.Add(time.Second))
		}
	default:
		t.Fatal("After did not fire at its deadline")
	}
	if c.PendingCount() != 0 {
		t.Errorf("PendingCount = %d after firing, want 0", c.PendingCount())
	}
}

func TestFakeClockAfterZeroDuration(t *testing.T) {
	c := Fake(epoch)
	select {
	case <-c.After(0):
	default:
		t.Fatal("After(0) did not fire immediately")
	}
	if c.PendingCount() != 0 {
		t.Errorf("After(0) registered a waiter")
	}
}

func TestFakeClockWaitForTimers(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})
	go func() {
		<-c.After(time.Minute)
		close(done)
	}()

	c.WaitForTimers(1)
	c.Advance(time.Minute)

	testutil.RequireClosed(t, done, 5*time.Second, "goroutine waking after Advance")
}

func TestFakeClockSetFiresInOrder(t *testing.T) {
	c := Fake(epoch)
	late := c.After(time.Hour)
	early := c.After(time.Minute)

	c.Set(epoch.Add(30 * time.Second))
	if c.PendingCount() != 2 {
		t.Fatalf("PendingCount = %d, want 2", c.PendingCount())
	}
	c.Set(epoch.Add(2 * time.Hour))
	for name, ch := range map[string]<-chan time.Time{"early": early, "late": late} {
		select {
		case fired := <-ch:
			if !fired.Equal(epoch.Add(2 * time.Hour)) {
				t.Errorf("%s fired at %v", name, fired)
			}
		default:
			t.Errorf("%s did not fire", name)
		}
	}

	c.Set(epoch)
	if !c.Now().Equal(epoch) {
		t.Errorf("Set backwards: Now() = %v", c.Now())
	}
}

func TestRealClockImplementsClock(t *testing.T) {
	var _ Clock = Real()
	var _ Clock = Fake(epoch)
}
