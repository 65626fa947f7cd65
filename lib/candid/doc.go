// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package candid wraps the agent-go Candid codec with the few typed
// operations the signer needs to inspect canister replies and to call
// validator canisters:
//
//   - [DecodeBool] reads a single bool reply (validator canisters).
//   - [VariantField] reports which field of a variant reply was
//     selected. [IsErrVariant] uses it to recognize the conventional
//     `variant { Ok : T; Err : E }` result shape in its error form.
//   - [EncodeValidationArgs] builds the argument of an ICRC-114
//     validation call.
//
// Decoding goes through the full message parser, so malformed messages
// are rejected before any value is looked at.
package candid
