// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Delegation expirations, ingress expiry, certificate freshness checks
// and the replica polling backoff all read time through a [Clock]
// instead of calling time.Now or time.After directly. Production code
// uses [Real]; tests use [Fake], which only moves when Advance is
// called.
//
// A goroutine that waits on [FakeClock.After] registers a pending
// waiter. Tests call WaitForTimers before Advance so the advance never
// races the registration:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go poller.Run(ctx) // blocks in c.After(backoff)
//	c.WaitForTimers(1)
//	c.Advance(time.Second)
package clock
