// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package signer bridges wallet JSON-RPC requests to canister calls.
//
// A [Transport] holds an [agent.Agent] and hands out [Channel] values.
// A Channel accepts JSON-RPC 2.0 requests through [Channel.Send] and
// delivers each response to every registered response listener before
// Send returns. Notifications (requests without an id) produce no
// response.
//
// Supported methods are the ICRC-25 signer family: capability and
// permission discovery, icrc27_accounts, icrc34_delegation,
// icrc49_call_canister, and icrc112_batch_call_canister with ICRC-114
// validation.
//
// # Batch execution
//
// icrc112_batch_call_canister takes an ordered list of groups. Groups
// run one after another; the requests inside a group run concurrently
// and all of them settle before the next group starts. The first
// failure anywhere marks the whole batch set as failed: requests that
// have not started yet resolve to code 1001 without a network call.
// Requests already in flight are not cancelled.
//
// Each executed request is certified: the certificate for its
// request_status is verified against the agent's root key, falling
// back to the mainnet root key when the agent has none. The fallback
// exists for convenience and must not be relied on for other
// networks.
package signer
