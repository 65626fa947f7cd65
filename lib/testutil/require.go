// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// Fataler is the part of testing.TB the channel helpers use.
type Fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive returns the next value from ch, failing the test if
// none arrives within timeout or ch is closed first.
//
//	err := testutil.RequireReceive(t, done, 5*time.Second, "server exit")
func RequireReceive[T any](t Fataler, ch <-chan T, timeout time.Duration, what ...any) T {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("%s: channel closed before a value arrived", describe(what))
		}
		return value
	case <-timer.C:
		t.Fatalf("%s: nothing received within %v", describe(what), timeout)
	}
	panic("unreachable")
}

// RequireClosed waits until ch is closed or yields a value, failing
// the test after timeout. Readiness channels signal this way.
func RequireClosed(t Fataler, ch <-chan struct{}, timeout time.Duration, what ...any) {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
		t.Fatalf("%s: channel not closed within %v", describe(what), timeout)
	}
}

// describe renders the optional description: a plain value, or a
// format string followed by its arguments.
func describe(what []any) string {
	switch {
	case len(what) == 0:
		return "wait"
	case len(what) == 1:
		return fmt.Sprint(what[0])
	}
	if format, ok := what[0].(string); ok {
		return fmt.Sprintf(format, what[1:]...)
	}
	return fmt.Sprint(what...)
}
