// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package certtest builds signed certificates for tests.
//
// Certificates produced here are "signed" with a SHA-256 construction
// that [Verifier] understands, so tests exercise the real tree
// reconstruction, lookup, delegation and freshness logic of package
// certificate without a BLS implementation in the loop.
package certtest

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"time"

	"github.com/claimlink/signer/lib/candid"
	"github.com/claimlink/signer/lib/certificate"
	"github.com/claimlink/signer/lib/codec"
)

// RootKey is the DER-encoded root key test certificates are signed
// with.
var RootKey = certificate.WrapBLSKey(bytes.Repeat([]byte{0x07}, 96))

// SubnetKey is the DER-encoded key of a delegated test subnet.
var SubnetKey = certificate.WrapBLSKey(bytes.Repeat([]byte{0x0b}, 96))

// Verifier accepts signatures produced by Sign.
type Verifier struct{}

// VerifySignature implements certificate.Verifier.
func (Verifier) VerifySignature(publicKey, message, signature []byte) error {
	if !bytes.Equal(signature, Sign(publicKey, message)) {
		return errors.New("test signature does not match")
	}
	return nil
}

// Sign returns the test signature of message under a raw public key.
func Sign(publicKey, message []byte) []byte {
	digest := sha256.Sum256(append(append([]byte(nil), publicKey...), message...))
	return digest[:]
}

// Empty returns an empty tree node.
func Empty() any { return []any{uint64(0)} }

// Fork joins two subtrees.
func Fork(left, right any) any { return []any{uint64(1), left, right} }

// Labeled attaches a label to a subtree.
func Labeled(label any, child any) any {
	switch typed := label.(type) {
	case string:
		return []any{uint64(2), []byte(typed), child}
	case []byte:
		return []any{uint64(2), typed, child}
	default:
		panic("certtest.Labeled: label must be string or []byte")
	}
}

// Leaf wraps a value.
func Leaf(value []byte) any { return []any{uint64(3), value} }

// Pruned hides a subtree behind its digest.
func Pruned(digest certificate.Digest) any { return []any{uint64(4), digest[:]} }

// Forks joins any number of subtrees left to right. Labeled children
// must already be in label order.
func Forks(children ...any) any {
	if len(children) == 0 {
		return Empty()
	}
	tree := children[0]
	for _, child := range children[1:] {
		tree = Fork(tree, child)
	}
	return tree
}

// Time returns the labeled "time" leaf for at.
func Time(at time.Time) any {
	return Labeled("time", Leaf(candid.AppendUleb128(nil, uint64(at.UnixNano()))))
}

// RequestStatus returns a request_status subtree for one request. A
// nil reply omits the reply leaf.
func RequestStatus(requestID []byte, status string, reply []byte) any {
	fields := []any{}
	if reply != nil {
		fields = append(fields, Labeled("reply", Leaf(reply)))
	}
	fields = append(fields, Labeled("status", Leaf([]byte(status))))
	return Labeled("request_status", Labeled(requestID, Forks(fields...)))
}

// Build encodes tree and signs it with the raw form of the DER key.
func Build(tree any, derKey []byte) []byte {
	return build(tree, derKey, nil)
}

// BuildDelegated signs tree with SubnetKey and attaches a delegation
// from RootKey authorizing subnetID for the canister range [low, high].
func BuildDelegated(tree any, subnetID, low, high []byte) []byte {
	ranges, err := codec.Marshal([][][]byte{{low, high}})
	if err != nil {
		panic(err)
	}
	parentTree := Labeled("subnet", Labeled(subnetID, Forks(
		Labeled("canister_ranges", Leaf(ranges)),
		Labeled("public_key", Leaf(SubnetKey)),
	)))
	parent := Build(parentTree, RootKey)
	return build(tree, SubnetKey, &certificate.Delegation{SubnetID: subnetID, Certificate: parent})
}

func build(tree any, derKey []byte, delegation *certificate.Delegation) []byte {
	encodedTree, err := codec.Marshal(tree)
	if err != nil {
		panic(err)
	}
	decoded, err := certificate.DecodeTree(encodedTree)
	if err != nil {
		panic(err)
	}
	rawKey, err := certificate.ExtractBLSKey(derKey)
	if err != nil {
		panic(err)
	}
	cert := struct {
		Tree       codec.RawMessage        `cbor:"tree"`
		Signature  []byte                  `cbor:"signature"`
		Delegation *certificate.Delegation `cbor:"delegation,omitempty"`
	}{
		Tree:       encodedTree,
		Signature:  Sign(rawKey, certificate.SignedMessage(decoded.Digest())),
		Delegation: delegation,
	}
	encoded, err := codec.MarshalSelfDescribed(cert)
	if err != nil {
		panic(err)
	}
	return encoded
}
