// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

// DecodeHex decodes a hex test vector or fails the test.
func DecodeHex(t testing.TB, value string) []byte {
	t.Helper()
	decoded, err := hex.DecodeString(value)
	if err != nil {
		t.Fatalf("decoding hex test vector %q: %v", value, err)
	}
	return decoded
}

// WriteFile writes content to name inside a per-test temporary
// directory and returns the full path.
func WriteFile(t testing.TB, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}
