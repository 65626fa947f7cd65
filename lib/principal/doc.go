// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package principal implements Internet Computer principal identifiers.
//
// A principal is an opaque byte string of at most 29 bytes naming a
// user, a canister, or the anonymous caller. Its textual form is the
// big-endian CRC-32 of the bytes followed by the bytes themselves,
// base32-encoded (RFC 4648, lowercase, no padding) and split into
// dash-separated groups of five characters:
//
//	ryjl3-tyaaa-aaaaa-aaaba-cai
//
// [FromText] accepts only the canonical textual form, so two distinct
// strings never parse to the same principal. This matters for the
// sender check on canister calls, which compares principals textually.
//
// Checksumming and base32 coding come from the agent-go principal
// package; this package adds a comparable value type and the
// canonical-form check.
//
// Principals derived from a public key ([SelfAuthenticating]) are the
// SHA-224 digest of the DER-encoded key followed by the class byte 0x02.
package principal
