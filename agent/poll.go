// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/claimlink/signer/lib/certificate"
	"github.com/claimlink/signer/lib/principal"
	"github.com/claimlink/signer/lib/requestid"
)

// PollStrategy is the backoff used by PollForResponse.
type PollStrategy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// Timeout bounds the whole wait, measured on the agent's clock.
	Timeout time.Duration
}

// DefaultPollStrategy returns the strategy used when none is
// configured.
func DefaultPollStrategy() PollStrategy {
	return PollStrategy{
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   1.4,
		Timeout:      5 * time.Minute,
	}
}

func (s PollStrategy) withDefaults() PollStrategy {
	defaults := DefaultPollStrategy()
	if s.InitialDelay <= 0 {
		s.InitialDelay = defaults.InitialDelay
	}
	if s.MaxDelay <= 0 {
		s.MaxDelay = defaults.MaxDelay
	}
	if s.Multiplier < 1 {
		s.Multiplier = defaults.Multiplier
	}
	if s.Timeout <= 0 {
		s.Timeout = defaults.Timeout
	}
	return s
}

// next returns the delay following current.
func (s PollStrategy) next(current time.Duration) time.Duration {
	grown := time.Duration(float64(current) * s.Multiplier)
	if grown > s.MaxDelay {
		return s.MaxDelay
	}
	return grown
}

// Status is the execution status of a request as certified by the
// subnet.
type Status string

const (
	StatusUnknown    Status = "unknown"
	StatusReceived   Status = "received"
	StatusProcessing Status = "processing"
	StatusReplied    Status = "replied"
	StatusRejected   Status = "rejected"
	StatusDone       Status = "done"
)

// Terminal reports whether no further status change will happen.
func (s Status) Terminal() bool {
	switch s {
	case StatusReplied, StatusRejected, StatusDone:
		return true
	}
	return false
}

// StatusPath returns the certified path of a request's status.
func StatusPath(id requestid.RequestID) certificate.Path {
	return certificate.NewPath("request_status", id.Bytes(), "status")
}

// ReplyPath returns the certified path of a request's reply.
func ReplyPath(id requestid.RequestID) certificate.Path {
	return certificate.NewPath("request_status", id.Bytes(), "reply")
}

// RequestStatusPath returns the subtree covering everything certified
// about a request.
func RequestStatusPath(id requestid.RequestID) certificate.Path {
	return certificate.NewPath("request_status", id.Bytes())
}

// RequestStatus reads and verifies the current status of a request.
func (a *HTTPAgent) RequestStatus(ctx context.Context, canister principal.Principal, id requestid.RequestID) (Status, *certificate.Certificate, error) {
	raw, err := a.ReadState(ctx, canister, []certificate.Path{RequestStatusPath(id)})
	if err != nil {
		return "", nil, err
	}
	cert, err := certificate.Parse(raw)
	if err != nil {
		return "", nil, err
	}
	if err := certificate.Verify(cert, certificate.VerifyOptions{
		RootKey:    certificate.RootKeyOrMainnet(a.RootKey()),
		CanisterID: canister,
		Verifier:   a.verifier,
		Now:        a.clock.Now(),
	}); err != nil {
		return "", nil, err
	}

	value, lookup := cert.Lookup(StatusPath(id))
	switch lookup {
	case certificate.Found:
		return Status(value), cert, nil
	case certificate.Absent, certificate.Unknown:
		return StatusUnknown, cert, nil
	default:
		return "", nil, fmt.Errorf("request status of %s is %s", id, lookup)
	}
}

// PollForResponse implements Agent.
func (a *HTTPAgent) PollForResponse(ctx context.Context, canister principal.Principal, id requestid.RequestID) error {
	strategy := a.poll
	deadline := a.clock.Now().Add(strategy.Timeout)
	delay := strategy.InitialDelay
	logger := a.logger.With("canister", canister.String(), "request_id", id.String())

	for attempt := 1; ; attempt++ {
		status, _, err := a.RequestStatus(ctx, canister, id)
		if err != nil {
			return fmt.Errorf("polling request %s: %w", id, err)
		}
		if status.Terminal() {
			logger.Debug("request reached terminal status", "status", string(status), "attempts", attempt)
			return nil
		}

		if !a.clock.Now().Add(delay).Before(deadline) {
			return fmt.Errorf("%w: request %s still %s after %s", ErrPollTimeout, id, status, strategy.Timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.clock.After(delay):
		}
		delay = strategy.next(delay)
	}
}
