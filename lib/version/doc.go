// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the signer binary.
//
// [GitCommit], [GitDirty], [BuildTime], and [Version] are set with
// -ldflags at build time:
//
//	go build -ldflags "-X github.com/claimlink/signer/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Unset values fall back to the module build info recorded by the Go
// toolchain, then to "unknown".
package version
