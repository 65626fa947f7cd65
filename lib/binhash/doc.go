// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash computes short keyed BLAKE3 digests used to
// correlate request payloads in logs without printing them.
//
// Each [Domain] keys the hash separately, so the same bytes logged as
// a content map and as a certificate produce unrelated digests.
package binhash
