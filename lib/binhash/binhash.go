// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte keyed BLAKE3 digest.
type Digest [32]byte

// Domain is a 32-byte BLAKE3 key naming what was hashed. Changing a
// domain's bytes changes every digest in it.
type Domain [32]byte

var (
	// ContentMap keys digests of CBOR call content maps.
	ContentMap = newDomain("claimlink.signer.content-map")

	// Certificate keys digests of CBOR certificates.
	Certificate = newDomain("claimlink.signer.certificate")

	// Argument keys digests of Candid call arguments.
	Argument = newDomain("claimlink.signer.argument")
)

// newDomain zero-pads name into a key. Names longer than 32 bytes
// are a programming error.
func newDomain(name string) Domain {
	if len(name) > len(Domain{}) {
		panic("binhash: domain name longer than 32 bytes: " + name)
	}
	var domain Domain
	copy(domain[:], name)
	return domain
}

// Sum returns the digest of data in domain.
func Sum(domain Domain, data []byte) Digest {
	hasher, err := blake3.NewKeyed(domain[:])
	if err != nil {
		panic("binhash: keyed hasher initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// String returns the full hex encoding.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 8 bytes in hex, the form written to logs.
func (d Digest) Short() string {
	return hex.EncodeToString(d[:8])
}

// Parse decodes a 64-character hex digest.
func Parse(text string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(text)
	if err != nil {
		return digest, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != len(digest) {
		return digest, fmt.Errorf("digest is %d bytes, want %d", len(decoded), len(digest))
	}
	copy(digest[:], decoded)
	return digest, nil
}
