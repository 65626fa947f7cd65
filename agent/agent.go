// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"errors"

	"github.com/claimlink/signer/lib/certificate"
	"github.com/claimlink/signer/lib/identity"
	"github.com/claimlink/signer/lib/principal"
	"github.com/claimlink/signer/lib/requestid"
)

// DefaultHost is the public boundary node used when no host is
// configured.
const DefaultHost = "https://icp-api.io"

// ErrPollTimeout is returned by PollForResponse when the call does not
// reach a terminal status within the poll strategy's timeout.
var ErrPollTimeout = errors.New("timed out waiting for call to complete")

// Agent talks to canisters on behalf of one identity.
type Agent interface {
	// Identity returns the identity calls are signed with.
	Identity() identity.Identity

	// RootKey returns the DER-encoded root key of the network, or nil
	// when it is not known.
	RootKey() []byte

	// Call submits an update call and returns its request id once the
	// network has accepted it.
	Call(ctx context.Context, canister principal.Principal, options CallOptions) (requestid.RequestID, error)

	// PollForResponse blocks until the request reaches a terminal
	// status (replied, rejected, or done). The outcome itself is read
	// from certified state by the caller.
	PollForResponse(ctx context.Context, canister principal.Principal, id requestid.RequestID) error

	// ReadState returns the raw CBOR certificate for paths.
	ReadState(ctx context.Context, canister principal.Principal, paths []certificate.Path) ([]byte, error)
}

// CallOptions describes one update call.
type CallOptions struct {
	// EffectiveCanisterID routes the call. Zero means the target
	// canister.
	EffectiveCanisterID principal.Principal

	MethodName string
	Arg        []byte

	// Nonce is placed in the content when non-nil. When nil the agent
	// generates a random one.
	Nonce []byte

	// Transforms run after the agent-wide transforms, in order, on the
	// final content before it is hashed and signed.
	Transforms []Transform
}

// Transform inspects or rewrites call content before signing.
type Transform func(content *CallContent) error
