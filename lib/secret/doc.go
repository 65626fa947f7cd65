// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds key material outside the Go heap.
//
// A [Buffer] is an anonymous mmap region locked into RAM and excluded
// from core dumps. Close zeroes it before unmapping. The signer keeps
// decrypted identity PEM files and master seeds in a Buffer until the
// key has been parsed.
package secret
