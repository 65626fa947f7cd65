// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity provides the signing identities a replica agent
// authenticates requests with, and the delegation chains a wallet
// hands to dapps.
//
// An [Identity] knows its principal, its DER-encoded public key, and
// how to sign. [Anonymous] signs nothing. [Ed25519] is a plain key
// pair, loadable from the PKCS#8 PEM files produced by `dfx identity
// export` or derived deterministically from a master secret with
// HKDF-SHA256 ([DeriveEd25519]).
//
// A [DelegationChain] lets a short-lived session key act for a
// long-lived identity until an expiration, optionally only towards a
// set of target canisters. [CreateDelegationChain] appends a link to
// an existing chain, so a wallet that is itself running under a
// delegation can delegate further. A [DelegationIdentity] signs with
// the session key while presenting the chain's root public key.
package identity
