// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package signer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/claimlink/signer/lib/identity"
	"github.com/claimlink/signer/lib/principal"
)

// handleDelegation issues a delegation from the agent's identity to
// the requested public key. When the identity itself acts under a
// delegation chain, the new link extends that chain.
func handleDelegation(_ context.Context, d *dispatcher, raw json.RawMessage) (any, *Error, error) {
	var params DelegationParams
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr, nil
	}
	if len(params.PublicKey) == 0 {
		return nil, errInvalidParams(errors.New("publicKey is required")), nil
	}

	now := d.clock.Now()
	ttl := d.delegationTTL
	if params.MaxTimeToLive != nil {
		// The expiration must stay representable as int64 nanoseconds.
		requested := uint64(*params.MaxTimeToLive)
		if requested > uint64(math.MaxInt64-now.UnixNano()) {
			return nil, errInvalidParams(fmt.Errorf("maxTimeToLive %d ns puts the expiration out of range", requested)), nil
		}
		// Millisecond precision, matching wallet clients.
		ttl = time.Duration(requested).Truncate(time.Millisecond)
	}

	var targets []principal.Principal
	for _, text := range params.Targets {
		target, err := principal.FromText(text)
		if err != nil {
			return nil, errInvalidParams(fmt.Errorf("target %q: %w", text, err)), nil
		}
		targets = append(targets, target)
	}

	signer := d.agent.Identity()
	var previous *identity.DelegationChain
	if delegating, ok := signer.(identity.Delegating); ok {
		previous = delegating.Delegation()
	}

	expiration := now.Add(ttl)
	chain, err := identity.CreateDelegationChain(signer, params.PublicKey, expiration, targets, previous)
	if err != nil {
		return nil, nil, fmt.Errorf("creating delegation: %w", err)
	}
	return delegationResult(chain), nil, nil
}

func delegationResult(chain *identity.DelegationChain) DelegationResult {
	result := DelegationResult{
		PublicKey:        chain.PublicKey,
		SignerDelegation: make([]SignedDelegation, len(chain.Delegations)),
	}
	for index, link := range chain.Delegations {
		var targets []string
		for _, target := range link.Delegation.Targets {
			targets = append(targets, target.String())
		}
		result.SignerDelegation[index] = SignedDelegation{
			Delegation: DelegationContent{
				PublicKey:  link.Delegation.PublicKey,
				Expiration: NanosString(link.Delegation.ExpirationNanos()),
				Targets:    targets,
			},
			Signature: link.Signature,
		}
	}
	return result
}
