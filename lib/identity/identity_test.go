// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"testing"
	"time"

	"github.com/claimlink/signer/lib/principal"
)

func testSeed(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, ed25519.SeedSize)
}

func TestAnonymous(t *testing.T) {
	anon := Anonymous()
	if !anon.Principal().IsAnonymous() {
		t.Errorf("Principal() = %s, want anonymous", anon.Principal())
	}
	if anon.PublicKey() != nil {
		t.Error("anonymous identity has a public key")
	}
	if _, err := anon.Sign([]byte("x")); !errors.Is(err, ErrAnonymousSign) {
		t.Errorf("Sign err = %v, want ErrAnonymousSign", err)
	}
}

func TestEd25519PrincipalIsSelfAuthenticating(t *testing.T) {
	id, err := NewEd25519(testSeed(1))
	if err != nil {
		t.Fatalf("NewEd25519: %v", err)
	}
	if got, want := id.Principal(), principal.SelfAuthenticating(id.PublicKey()); got != want {
		t.Errorf("Principal() = %s, want %s", got, want)
	}
	if len(id.PublicKey()) != 44 {
		t.Errorf("DER public key is %d bytes, want 44", len(id.PublicKey()))
	}
}

func TestEd25519SignVerifies(t *testing.T) {
	id, err := NewEd25519(testSeed(2))
	if err != nil {
		t.Fatal(err)
	}
	message := []byte("\x0aic-request payload")
	signature, err := id.Sign(message)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	raw, err := RawPublicKey(id.PublicKey())
	if err != nil {
		t.Fatalf("RawPublicKey: %v", err)
	}
	if !ed25519.Verify(raw, message, signature) {
		t.Error("signature does not verify")
	}
}

func TestPEMRoundtrip(t *testing.T) {
	original, err := GenerateEd25519()
	if err != nil {
		t.Fatal(err)
	}
	encoded, err := original.MarshalPEM()
	if err != nil {
		t.Fatalf("MarshalPEM: %v", err)
	}
	parsed, err := ParsePEM(encoded)
	if err != nil {
		t.Fatalf("ParsePEM: %v", err)
	}
	if parsed.Principal() != original.Principal() {
		t.Errorf("PEM roundtrip changed the principal: %s != %s", parsed.Principal(), original.Principal())
	}

	if _, err := ParsePEM([]byte("not pem")); err == nil {
		t.Error("ParsePEM accepted garbage")
	}
}

func TestDeriveEd25519(t *testing.T) {
	master := bytes.Repeat([]byte{0x5a}, 32)
	first, err := DeriveEd25519(master, "claim-links")
	if err != nil {
		t.Fatalf("DeriveEd25519: %v", err)
	}
	again, err := DeriveEd25519(master, "claim-links")
	if err != nil {
		t.Fatal(err)
	}
	other, err := DeriveEd25519(master, "treasury")
	if err != nil {
		t.Fatal(err)
	}
	if first.Principal() != again.Principal() {
		t.Error("derivation is not deterministic")
	}
	if first.Principal() == other.Principal() {
		t.Error("different labels derived the same identity")
	}
	if _, err := DeriveEd25519(master[:16], "x"); err == nil {
		t.Error("DeriveEd25519 accepted a 16-byte master secret")
	}
}

func TestCreateDelegationChain(t *testing.T) {
	root, err := NewEd25519(testSeed(3))
	if err != nil {
		t.Fatal(err)
	}
	session, err := NewEd25519(testSeed(4))
	if err != nil {
		t.Fatal(err)
	}
	target := principal.MustFromText("ryjl3-tyaaa-aaaaa-aaaba-cai")
	expiration := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	chain, err := CreateDelegationChain(root, session.PublicKey(), expiration, []principal.Principal{target}, nil)
	if err != nil {
		t.Fatalf("CreateDelegationChain: %v", err)
	}
	if !bytes.Equal(chain.PublicKey, root.PublicKey()) {
		t.Error("chain public key is not the delegator's key")
	}
	if len(chain.Delegations) != 1 {
		t.Fatalf("chain has %d links, want 1", len(chain.Delegations))
	}

	link := chain.Delegations[0]
	message, err := link.Delegation.SigningMessage()
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := RawPublicKey(root.PublicKey())
	if !ed25519.Verify(raw, message, link.Signature) {
		t.Error("delegation signature does not verify under the delegator key")
	}
	if !bytes.HasPrefix(message, []byte("\x1aic-request-auth-delegation")) {
		t.Error("signing message lacks the delegation domain separator")
	}

	wire := chain.Wire()
	if wire[0].Delegation.Expiration != uint64(expiration.UnixNano()) {
		t.Errorf("wire expiration = %d", wire[0].Delegation.Expiration)
	}
	if len(wire[0].Delegation.Targets) != 1 || !bytes.Equal(wire[0].Delegation.Targets[0], target.Bytes()) {
		t.Errorf("wire targets = %x", wire[0].Delegation.Targets)
	}
}

func TestDelegationChainsCompose(t *testing.T) {
	root, _ := NewEd25519(testSeed(5))
	middle, _ := NewEd25519(testSeed(6))
	leaf, _ := NewEd25519(testSeed(7))
	expiration := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := CreateDelegationChain(root, middle.PublicKey(), expiration, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	delegated, err := NewDelegationIdentity(middle, first)
	if err != nil {
		t.Fatalf("NewDelegationIdentity: %v", err)
	}
	if delegated.Principal() != root.Principal() {
		t.Errorf("delegation identity principal = %s, want root %s", delegated.Principal(), root.Principal())
	}

	second, err := CreateDelegationChain(delegated, leaf.PublicKey(), expiration, nil, delegated.Delegation())
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Delegations) != 2 {
		t.Fatalf("composed chain has %d links, want 2", len(second.Delegations))
	}
	if !bytes.Equal(second.PublicKey, root.PublicKey()) {
		t.Error("composed chain lost its root public key")
	}
	if !bytes.Equal(second.Delegations[1].Delegation.PublicKey, leaf.PublicKey()) {
		t.Error("second link does not target the leaf key")
	}
}

func TestNewDelegationIdentityRejectsMismatchedChain(t *testing.T) {
	root, _ := NewEd25519(testSeed(8))
	session, _ := NewEd25519(testSeed(9))
	stranger, _ := NewEd25519(testSeed(10))
	chain, err := CreateDelegationChain(root, session.PublicKey(), time.Unix(0, 0), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewDelegationIdentity(stranger, chain); err == nil {
		t.Error("NewDelegationIdentity accepted a chain for another key")
	}
}
