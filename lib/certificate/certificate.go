// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package certificate

import (
	"fmt"
	"time"

	"github.com/claimlink/signer/lib/candid"
	"github.com/claimlink/signer/lib/codec"
)

// Certificate is a decoded state certificate.
type Certificate struct {
	// Tree is the certified hash tree.
	Tree *HashTree

	// Signature is the BLS signature over the tree's root hash.
	Signature []byte

	// Delegation is set when the certificate was issued by a subnet
	// other than the root subnet.
	Delegation *Delegation

	// Raw is the certificate exactly as received. It is what the
	// signer hands back to wallet callers.
	Raw []byte
}

// Delegation authorizes a subnet's key by way of a certificate signed
// by the root subnet.
type Delegation struct {
	SubnetID    []byte `cbor:"subnet_id"`
	Certificate []byte `cbor:"certificate"`
}

type wireCertificate struct {
	Tree       codec.RawMessage `cbor:"tree"`
	Signature  []byte           `cbor:"signature"`
	Delegation *Delegation      `cbor:"delegation,omitempty"`
}

// Parse decodes a CBOR certificate. It does not verify it.
func Parse(raw []byte) (*Certificate, error) {
	var wire wireCertificate
	if err := codec.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decoding certificate: %w", err)
	}
	if len(wire.Tree) == 0 {
		return nil, fmt.Errorf("certificate has no tree")
	}
	if len(wire.Signature) == 0 {
		return nil, fmt.Errorf("certificate has no signature")
	}

	tree, err := DecodeTree(wire.Tree)
	if err != nil {
		return nil, fmt.Errorf("certificate: %w", err)
	}

	return &Certificate{
		Tree:       tree,
		Signature:  wire.Signature,
		Delegation: wire.Delegation,
		Raw:        raw,
	}, nil
}

// Lookup follows path through the certificate's tree.
func (c *Certificate) Lookup(path Path) ([]byte, LookupStatus) {
	return c.Tree.Lookup(path)
}

// Time returns the certified "time" leaf.
func (c *Certificate) Time() (time.Time, error) {
	value, status := c.Lookup(NewPath("time"))
	if status != Found {
		return time.Time{}, fmt.Errorf("certificate time is %s", status)
	}
	nanos, err := candid.DecodeUleb128(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("decoding certificate time: %w", err)
	}
	return time.Unix(0, int64(nanos)), nil
}
