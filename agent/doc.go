// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent submits calls to Internet Computer canisters and reads
// certified state.
//
// [Agent] is the narrow surface the signer needs: submit a call, wait
// for it to reach a terminal status, and read a certificate for a set
// of state paths. [HTTPAgent] implements it against the replica HTTP
// API v2:
//
//   - POST /api/v2/canister/{id}/call submits a signed CBOR envelope.
//     202 means the call was accepted for execution.
//   - POST /api/v2/canister/{id}/read_state returns a certificate.
//   - GET /api/v2/status reports the replica's root key.
//
// Call content passes through [Transform] functions before it is
// hashed and signed. The signer uses a per-call transform to capture
// the exact content map it returns to wallets.
package agent
