// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the signer's configuration file.
//
// The file is named by the CLAIMLINK_SIGNER_CONFIG environment
// variable ([Load]) or by a --config flag ([LoadFile]). There is no
// search path. Files ending in .json or .jsonc are read as JSON with
// comments and trailing commas; anything else is YAML.
//
// A file may carry development and production sections whose non-empty
// fields override the base values when [Config].Environment matches.
// ${VAR} and ${VAR:-default} are expanded in path fields after
// overrides are applied.
package config
