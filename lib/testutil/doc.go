// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for signer packages.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests do not need direct time.After calls. They are the only place
// in the test suite where real wall-clock timeouts are used.
//
// [DecodeHex] and [WriteFile] fail the test instead of returning
// errors, since test setup failures are not recoverable.
//
// This package has no signer-internal dependencies.
package testutil
