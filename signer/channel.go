// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package signer

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
)

// listener is one registration. active is cleared by unsubscribe so a
// notification already iterating over the list skips it.
type listener[F any] struct {
	fn     F
	active atomic.Bool
}

// Channel carries requests from one wallet connection. Listener lists
// may change while Send is running; a response goes to the listeners
// registered when it is delivered.
type Channel struct {
	dispatcher *dispatcher
	closed     atomic.Bool

	mu                sync.Mutex
	responseListeners []*listener[func(Response)]
	closeListeners    []*listener[func()]
}

// AddResponseListener registers fn for every response and returns a
// function that removes exactly this registration. Registering the
// same function twice makes two registrations.
func (c *Channel) AddResponseListener(fn func(Response)) (unsubscribe func()) {
	return addListener(&c.mu, &c.responseListeners, fn)
}

// AddCloseListener registers fn to run on Close.
func (c *Channel) AddCloseListener(fn func()) (unsubscribe func()) {
	return addListener(&c.mu, &c.closeListeners, fn)
}

func addListener[F any](mu *sync.Mutex, list *[]*listener[F], fn F) func() {
	entry := &listener[F]{fn: fn}
	entry.active.Store(true)

	mu.Lock()
	*list = append(*list, entry)
	mu.Unlock()

	return func() {
		entry.active.Store(false)
		mu.Lock()
		defer mu.Unlock()
		*list = slices.DeleteFunc(*list, func(candidate *listener[F]) bool {
			return candidate == entry
		})
	}
}

func snapshot[F any](mu *sync.Mutex, list *[]*listener[F]) []*listener[F] {
	mu.Lock()
	defer mu.Unlock()
	return slices.Clone(*list)
}

// Closed reports whether Close has been called.
func (c *Channel) Closed() bool { return c.closed.Load() }

// Send processes request. It fails with ErrTransportNotCreated on a
// channel not obtained from Transport.EstablishChannel and with
// ErrChannelClosed after Close. Notifications return nil without
// producing a response. Otherwise
// the response is delivered to every response listener before Send
// returns. A handler failure (icrc34 or icrc49) is returned instead of
// a response.
func (c *Channel) Send(ctx context.Context, request Request) error {
	if c == nil || c.dispatcher == nil {
		return ErrTransportNotCreated
	}
	if c.closed.Load() {
		return ErrChannelClosed
	}
	if request.IsNotification() {
		return nil
	}

	response, err := c.dispatcher.dispatch(ctx, request)
	if err != nil {
		return err
	}

	for _, entry := range snapshot(&c.mu, &c.responseListeners) {
		if entry.active.Load() {
			entry.fn(response)
		}
	}
	return nil
}

// Close marks the channel closed and runs the close listeners. Calling
// it again runs the listeners again.
func (c *Channel) Close() {
	c.closed.Store(true)
	for _, entry := range snapshot(&c.mu, &c.closeListeners) {
		if entry.active.Load() {
			entry.fn()
		}
	}
}
