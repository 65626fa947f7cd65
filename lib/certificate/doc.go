// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package certificate decodes and verifies Internet Computer state
// certificates.
//
// A certificate is a CBOR map carrying a hash tree, a BLS signature
// over the tree's root hash, and optionally a delegation from the root
// subnet to the subnet that produced it. [Parse] decodes the
// structure; [Verify] checks the signature chain against a root key,
// the delegation's canister ranges, and the certificate's freshness.
// Only after Verify succeeds may values from [Certificate.Lookup] be
// trusted.
//
// Signature checking goes through the [Verifier] interface. The
// default [BLSVerifier] implements the BLS12-381 minimal-signature
// scheme used by subnets; tests substitute their own.
//
// [MainnetRootKey] is the public root key of the production network.
// It is a convenience fallback for callers whose agent has no root key
// configured and must never be used to accept certificates from a
// different network.
package certificate
