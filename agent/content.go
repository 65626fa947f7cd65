// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"bytes"
	"fmt"
	"time"

	"github.com/claimlink/signer/lib/certificate"
	"github.com/claimlink/signer/lib/codec"
	"github.com/claimlink/signer/lib/identity"
	"github.com/claimlink/signer/lib/requestid"
)

// requestDomain prefixes a request id before the sender signs it.
var requestDomain = []byte("\x0aic-request")

// CallContent is the content map of an update call.
type CallContent struct {
	RequestType   string `cbor:"request_type"`
	CanisterID    []byte `cbor:"canister_id"`
	MethodName    string `cbor:"method_name"`
	Arg           []byte `cbor:"arg"`
	Sender        []byte `cbor:"sender"`
	IngressExpiry uint64 `cbor:"ingress_expiry"`
	Nonce         []byte `cbor:"nonce,omitempty"`
}

// Clone returns a deep copy of c.
func (c *CallContent) Clone() CallContent {
	clone := *c
	clone.CanisterID = bytes.Clone(c.CanisterID)
	clone.Arg = bytes.Clone(c.Arg)
	clone.Sender = bytes.Clone(c.Sender)
	clone.Nonce = bytes.Clone(c.Nonce)
	return clone
}

// Encode returns the self-described CBOR form of the content map, the
// form wallets receive as contentMap.
func (c *CallContent) Encode() ([]byte, error) {
	return codec.MarshalSelfDescribed(c)
}

// RequestID hashes the content map.
func (c *CallContent) RequestID() (requestid.RequestID, error) {
	fields := map[string]any{
		"request_type":   c.RequestType,
		"canister_id":    c.CanisterID,
		"method_name":    c.MethodName,
		"arg":            c.Arg,
		"sender":         c.Sender,
		"ingress_expiry": c.IngressExpiry,
	}
	if c.Nonce != nil {
		fields["nonce"] = c.Nonce
	}
	return requestid.Of(fields)
}

// readStateContent is the content map of a read_state request.
type readStateContent struct {
	RequestType   string     `cbor:"request_type"`
	Paths         [][][]byte `cbor:"paths"`
	Sender        []byte     `cbor:"sender"`
	IngressExpiry uint64     `cbor:"ingress_expiry"`
}

func (c *readStateContent) requestID() (requestid.RequestID, error) {
	paths := make([]any, len(c.Paths))
	for index, path := range c.Paths {
		paths[index] = path
	}
	return requestid.Of(map[string]any{
		"request_type":   c.RequestType,
		"paths":          paths,
		"sender":         c.Sender,
		"ingress_expiry": c.IngressExpiry,
	})
}

func newReadStateContent(paths []certificate.Path, sender []byte, expiry uint64) *readStateContent {
	content := &readStateContent{
		RequestType:   "read_state",
		Paths:         make([][][]byte, len(paths)),
		Sender:        sender,
		IngressExpiry: expiry,
	}
	for index, path := range paths {
		content.Paths[index] = [][]byte(path)
	}
	return content
}

// envelope is the signed wrapper posted to the replica.
type envelope struct {
	Content          any                             `cbor:"content"`
	SenderPubKey     []byte                          `cbor:"sender_pubkey,omitempty"`
	SenderSig        []byte                          `cbor:"sender_sig,omitempty"`
	SenderDelegation []identity.WireSignedDelegation `cbor:"sender_delegation,omitempty"`
}

// sign wraps content for id. The anonymous identity sends unsigned
// envelopes.
func sign(signer identity.Identity, content any, id requestid.RequestID) (*envelope, error) {
	wrapped := &envelope{Content: content}
	if signer.Principal().IsAnonymous() {
		return wrapped, nil
	}
	message := append(bytes.Clone(requestDomain), id[:]...)
	signature, err := signer.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("signing request %s: %w", id, err)
	}
	wrapped.SenderPubKey = signer.PublicKey()
	wrapped.SenderSig = signature
	if delegating, ok := signer.(identity.Delegating); ok {
		if chain := delegating.Delegation(); chain != nil {
			wrapped.SenderDelegation = chain.Wire()
		}
	}
	return wrapped, nil
}

// ingressExpiry returns the expiry for a request created at now. Whole
// minutes keep replicas with slightly skewed clocks from rejecting it.
func ingressExpiry(now time.Time, ttl time.Duration) uint64 {
	expiry := now.Add(ttl)
	if ttl >= time.Minute {
		expiry = expiry.Truncate(time.Minute)
	}
	return uint64(expiry.UnixNano())
}
