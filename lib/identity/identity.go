// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/claimlink/signer/lib/principal"
)

// Identity signs requests on behalf of a principal.
type Identity interface {
	// Principal returns the principal requests are sent as.
	Principal() principal.Principal

	// PublicKey returns the DER-encoded public key presented in
	// request envelopes. Nil for the anonymous identity.
	PublicKey() []byte

	// Sign signs message, which already carries its domain
	// separator.
	Sign(message []byte) ([]byte, error)
}

// Delegating is implemented by identities that act under a delegation
// chain.
type Delegating interface {
	Identity

	// Delegation returns the chain the identity presents.
	Delegation() *DelegationChain
}

// ErrAnonymousSign is returned when something asks the anonymous
// identity for a signature.
var ErrAnonymousSign = errors.New("the anonymous identity cannot sign")

type anonymous struct{}

// Anonymous returns the identity of unauthenticated callers.
func Anonymous() Identity { return anonymous{} }

func (anonymous) Principal() principal.Principal { return principal.Anonymous }

func (anonymous) PublicKey() []byte { return nil }

func (anonymous) Sign([]byte) ([]byte, error) { return nil, ErrAnonymousSign }

// ed25519DERPrefix is the SubjectPublicKeyInfo header of an Ed25519
// public key.
var ed25519DERPrefix = []byte{0x30, 0x2a, 0x30, 0x05, 0x06, 0x03, 0x2b, 0x65, 0x70, 0x03, 0x21, 0x00}

// Ed25519 is an identity backed by an Ed25519 key pair.
type Ed25519 struct {
	privateKey ed25519.PrivateKey
	der        []byte
	principal  principal.Principal
}

// NewEd25519 builds an identity from a 32-byte seed.
func NewEd25519(seed []byte) (*Ed25519, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("ed25519 seed is %d bytes, want %d", len(seed), ed25519.SeedSize)
	}
	return fromPrivateKey(ed25519.NewKeyFromSeed(seed)), nil
}

// GenerateEd25519 creates a fresh random identity.
func GenerateEd25519() (*Ed25519, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating ed25519 key: %w", err)
	}
	return fromPrivateKey(privateKey), nil
}

// hkdfInfoPrefix is the HKDF info prefix for derived identities.
// Changing it changes every derived principal.
var hkdfInfoPrefix = []byte("claimlink.identity.ed25519.v1:")

// DeriveEd25519 derives an identity from a master secret and a label
// with HKDF-SHA256. The same inputs always yield the same principal,
// and different labels yield unrelated keys.
func DeriveEd25519(master []byte, label string) (*Ed25519, error) {
	if len(master) < 32 {
		return nil, fmt.Errorf("master secret is %d bytes, want at least 32", len(master))
	}
	info := append(append([]byte(nil), hkdfInfoPrefix...), label...)
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, info), seed); err != nil {
		return nil, fmt.Errorf("deriving ed25519 seed: %w", err)
	}
	defer clear(seed)
	return NewEd25519(seed)
}

// ParsePEM reads a PKCS#8 "PRIVATE KEY" PEM block holding an Ed25519
// key.
func ParsePEM(data []byte) (*Ed25519, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("PEM block type is %q, want \"PRIVATE KEY\"", block.Type)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing PKCS#8 key: %w", err)
	}
	privateKey, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("PEM key is %T, only Ed25519 keys are supported", key)
	}
	return fromPrivateKey(privateKey), nil
}

func fromPrivateKey(privateKey ed25519.PrivateKey) *Ed25519 {
	publicKey := privateKey.Public().(ed25519.PublicKey)
	der := make([]byte, 0, len(ed25519DERPrefix)+len(publicKey))
	der = append(der, ed25519DERPrefix...)
	der = append(der, publicKey...)
	return &Ed25519{
		privateKey: privateKey,
		der:        der,
		principal:  principal.SelfAuthenticating(der),
	}
}

// Principal implements Identity.
func (i *Ed25519) Principal() principal.Principal { return i.principal }

// PublicKey implements Identity.
func (i *Ed25519) PublicKey() []byte { return bytes.Clone(i.der) }

// Sign implements Identity.
func (i *Ed25519) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(i.privateKey, message), nil
}

// MarshalPEM encodes the private key as a PKCS#8 PEM block.
func (i *Ed25519) MarshalPEM() ([]byte, error) {
	encoded, err := x509.MarshalPKCS8PrivateKey(i.privateKey)
	if err != nil {
		return nil, fmt.Errorf("encoding PKCS#8 key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: encoded}), nil
}

// RawPublicKey strips the DER header from an Ed25519 public key.
func RawPublicKey(der []byte) (ed25519.PublicKey, error) {
	if len(der) != len(ed25519DERPrefix)+ed25519.PublicKeySize || !bytes.HasPrefix(der, ed25519DERPrefix) {
		return nil, fmt.Errorf("not a DER-encoded Ed25519 public key")
	}
	return ed25519.PublicKey(der[len(ed25519DERPrefix):]), nil
}
