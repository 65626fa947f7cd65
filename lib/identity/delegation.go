// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/claimlink/signer/lib/principal"
	"github.com/claimlink/signer/lib/requestid"
)

// delegationDomain is the domain separator prepended to delegation
// hashes before signing.
var delegationDomain = []byte("\x1aic-request-auth-delegation")

// Delegation authorizes PublicKey to sign for the delegator until
// Expiration, restricted to Targets when non-empty.
type Delegation struct {
	PublicKey  []byte
	Expiration time.Time
	Targets    []principal.Principal
}

// ExpirationNanos returns the expiration as nanoseconds since the
// Unix epoch, the unit used on the wire.
func (d Delegation) ExpirationNanos() uint64 {
	return uint64(d.Expiration.UnixNano())
}

// fields returns the content map hashed for signing.
func (d Delegation) fields() map[string]any {
	fields := map[string]any{
		"pubkey":     d.PublicKey,
		"expiration": d.ExpirationNanos(),
	}
	if len(d.Targets) > 0 {
		targets := make([][]byte, len(d.Targets))
		for index, target := range d.Targets {
			targets[index] = target.Bytes()
		}
		fields["targets"] = targets
	}
	return fields
}

// SigningMessage returns the bytes a delegator signs.
func (d Delegation) SigningMessage() ([]byte, error) {
	hash, err := requestid.Of(d.fields())
	if err != nil {
		return nil, fmt.Errorf("hashing delegation: %w", err)
	}
	return append(bytes.Clone(delegationDomain), hash[:]...), nil
}

// SignedDelegation is one link of a chain.
type SignedDelegation struct {
	Delegation Delegation
	Signature  []byte
}

// DelegationChain is an ordered list of delegations starting at the
// identity whose DER key is PublicKey.
type DelegationChain struct {
	Delegations []SignedDelegation
	PublicKey   []byte
}

// CreateDelegationChain signs a delegation from `from` to the DER
// public key `to`. When previous is non-nil the new link is appended
// to it and the chain keeps previous's root public key.
func CreateDelegationChain(from Identity, to []byte, expiration time.Time, targets []principal.Principal, previous *DelegationChain) (*DelegationChain, error) {
	if len(to) == 0 {
		return nil, errors.New("delegation target public key is empty")
	}
	delegation := Delegation{
		PublicKey:  bytes.Clone(to),
		Expiration: expiration,
		Targets:    targets,
	}
	message, err := delegation.SigningMessage()
	if err != nil {
		return nil, err
	}
	signature, err := from.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("signing delegation: %w", err)
	}

	chain := &DelegationChain{PublicKey: from.PublicKey()}
	if previous != nil {
		chain.PublicKey = bytes.Clone(previous.PublicKey)
		chain.Delegations = append(chain.Delegations, previous.Delegations...)
	}
	chain.Delegations = append(chain.Delegations, SignedDelegation{
		Delegation: delegation,
		Signature:  signature,
	})
	return chain, nil
}

// WireDelegation is the CBOR form of a delegation inside a request
// envelope.
type WireDelegation struct {
	PublicKey  []byte   `cbor:"pubkey"`
	Expiration uint64   `cbor:"expiration"`
	Targets    [][]byte `cbor:"targets,omitempty"`
}

// WireSignedDelegation is the CBOR form of one chain link.
type WireSignedDelegation struct {
	Delegation WireDelegation `cbor:"delegation"`
	Signature  []byte         `cbor:"signature"`
}

// Wire returns the envelope encoding of the chain's links.
func (c *DelegationChain) Wire() []WireSignedDelegation {
	wire := make([]WireSignedDelegation, len(c.Delegations))
	for index, link := range c.Delegations {
		var targets [][]byte
		for _, target := range link.Delegation.Targets {
			targets = append(targets, target.Bytes())
		}
		wire[index] = WireSignedDelegation{
			Delegation: WireDelegation{
				PublicKey:  link.Delegation.PublicKey,
				Expiration: link.Delegation.ExpirationNanos(),
				Targets:    targets,
			},
			Signature: link.Signature,
		}
	}
	return wire
}

// DelegationIdentity signs with a session identity while presenting a
// delegation chain that ends at the session key.
type DelegationIdentity struct {
	session Identity
	chain   *DelegationChain
}

// NewDelegationIdentity pairs a session identity with a chain. The
// chain's last delegation must target the session's public key.
func NewDelegationIdentity(session Identity, chain *DelegationChain) (*DelegationIdentity, error) {
	if chain == nil || len(chain.Delegations) == 0 {
		return nil, errors.New("delegation chain is empty")
	}
	last := chain.Delegations[len(chain.Delegations)-1].Delegation
	if !bytes.Equal(last.PublicKey, session.PublicKey()) {
		return nil, errors.New("delegation chain does not end at the session key")
	}
	return &DelegationIdentity{session: session, chain: chain}, nil
}

// Principal implements Identity: the principal of the chain's root.
func (i *DelegationIdentity) Principal() principal.Principal {
	return principal.SelfAuthenticating(i.chain.PublicKey)
}

// PublicKey implements Identity.
func (i *DelegationIdentity) PublicKey() []byte { return bytes.Clone(i.chain.PublicKey) }

// Sign implements Identity using the session key.
func (i *DelegationIdentity) Sign(message []byte) ([]byte, error) {
	return i.session.Sign(message)
}

// Delegation implements Delegating.
func (i *DelegationIdentity) Delegation() *DelegationChain { return i.chain }
