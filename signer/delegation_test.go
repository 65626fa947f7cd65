// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package signer

import (
	"bytes"
	"crypto/ed25519"
	"math"
	"testing"
	"time"

	"github.com/claimlink/signer/lib/identity"
)

func sessionKey(t *testing.T) []byte {
	t.Helper()
	session, err := identity.NewEd25519(bytes.Repeat([]byte{9}, ed25519.SeedSize))
	if err != nil {
		t.Fatal(err)
	}
	return session.PublicKey()
}

func TestDelegationDefaultExpiration(t *testing.T) {
	h := newHarness(t)
	key := sessionKey(t)
	got := result[DelegationResult](t, h.call(t, "icrc34_delegation", DelegationParams{PublicKey: key}))

	if !bytes.Equal(got.PublicKey, h.agent.identity.PublicKey()) {
		t.Error("result public key is not the signer's key")
	}
	if len(got.SignerDelegation) != 1 {
		t.Fatalf("got %d delegations, want 1", len(got.SignerDelegation))
	}
	link := got.SignerDelegation[0]
	want := uint64(epoch.Add(8 * time.Hour).UnixNano())
	if uint64(link.Delegation.Expiration) != want {
		t.Errorf("expiration = %d, want %d", link.Delegation.Expiration, want)
	}
	if !bytes.Equal(link.Delegation.PublicKey, key) {
		t.Error("delegation is not issued to the requested key")
	}

	message, err := identity.Delegation{
		PublicKey:  key,
		Expiration: epoch.Add(8 * time.Hour),
	}.SigningMessage()
	if err != nil {
		t.Fatal(err)
	}
	signerKey, err := identity.RawPublicKey(got.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if !ed25519.Verify(signerKey, message, link.Signature) {
		t.Error("delegation signature does not verify")
	}
}

func TestDelegationMaxTimeToLive(t *testing.T) {
	h := newHarness(t)
	ttl := NanosString(90*time.Second + 123456)
	got := result[DelegationResult](t, h.call(t, "icrc34_delegation", DelegationParams{
		PublicKey:     sessionKey(t),
		MaxTimeToLive: &ttl,
		Targets:       []string{ledger.String()},
	}))

	link := got.SignerDelegation[0].Delegation
	if want := uint64(epoch.Add(90 * time.Second).UnixNano()); uint64(link.Expiration) != want {
		t.Errorf("expiration = %d, want %d", link.Expiration, want)
	}
	if len(link.Targets) != 1 || link.Targets[0] != ledger.String() {
		t.Errorf("targets = %v", link.Targets)
	}
}

func TestDelegationRejectsBadParams(t *testing.T) {
	h := newHarness(t)
	maxTTL := NanosString(^uint64(0))
	pastInt64 := NanosString(uint64(math.MaxInt64) + 1)
	beyondClock := NanosString(uint64(math.MaxInt64 - epoch.UnixNano() + 1))
	for name, params := range map[string]DelegationParams{
		"missing key":       {},
		"bad target":        {PublicKey: sessionKey(t), Targets: []string{"not-a-principal"}},
		"max uint64 ttl":    {PublicKey: sessionKey(t), MaxTimeToLive: &maxTTL},
		"ttl past int64":    {PublicKey: sessionKey(t), MaxTimeToLive: &pastInt64},
		"expiry past int64": {PublicKey: sessionKey(t), MaxTimeToLive: &beyondClock},
	} {
		response := h.call(t, "icrc34_delegation", params)
		if rpcErr := response.Err(); rpcErr == nil || rpcErr.Code != CodeInvalidParams {
			t.Errorf("%s: error = %v, want code %d", name, rpcErr, CodeInvalidParams)
		}
	}
}

func TestDelegationLongestRepresentableTTL(t *testing.T) {
	h := newHarness(t)
	ttl := NanosString(uint64(math.MaxInt64 - epoch.UnixNano()))
	got := result[DelegationResult](t, h.call(t, "icrc34_delegation", DelegationParams{
		PublicKey:     sessionKey(t),
		MaxTimeToLive: &ttl,
	}))
	expiration := uint64(got.SignerDelegation[0].Delegation.Expiration)
	if expiration <= uint64(epoch.UnixNano()) {
		t.Errorf("expiration %d is not after the clock (%d)", expiration, epoch.UnixNano())
	}
}

func TestDelegationExtendsIdentityChain(t *testing.T) {
	h := newHarness(t)
	root := h.agent.identity
	session, err := identity.NewEd25519(bytes.Repeat([]byte{5}, ed25519.SeedSize))
	if err != nil {
		t.Fatal(err)
	}
	chain, err := identity.CreateDelegationChain(root, session.PublicKey(), epoch.Add(time.Hour), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	delegated, err := identity.NewDelegationIdentity(session, chain)
	if err != nil {
		t.Fatal(err)
	}
	h.agent.identity = delegated

	got := result[DelegationResult](t, h.call(t, "icrc34_delegation", DelegationParams{PublicKey: sessionKey(t)}))
	if len(got.SignerDelegation) != 2 {
		t.Fatalf("got %d delegations, want 2", len(got.SignerDelegation))
	}
	if !bytes.Equal(got.PublicKey, root.PublicKey()) {
		t.Error("extended chain does not start at the root key")
	}
}
