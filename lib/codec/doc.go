// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the signer's standard CBOR encoding
// configuration.
//
// The signer uses two serialization formats with a clear boundary:
//
//   - JSON for the inbound JSON-RPC surface, configuration files and
//     CLI output.
//   - CBOR for everything exchanged with a replica: call and read_state
//     envelopes, certificates, hash trees, and the status endpoint.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. The
// content-map bytes returned to wallet callers are produced by this
// encoder, so the same call always yields identical bytes.
//
// Replica messages are prefixed with the self-describe tag 55799
// (0xd9d9f7). [MarshalSelfDescribed] adds the prefix and
// [StripSelfDescribe] removes it before decoding.
//
// # Struct Tag Rules
//
//   - `cbor` tag: the type is only ever serialized as CBOR. Envelopes
//     and certificate structures use this.
//   - `json` tag: the type may be serialized as both JSON and CBOR.
//     fxamacker/cbor v2 reads `json` tags as fallback when `cbor` tags
//     are absent.
//
// Never use both tags on the same field.
package codec
