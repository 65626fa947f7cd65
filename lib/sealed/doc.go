// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts and decrypts identity files with age.
//
// An identity PEM may be stored as plaintext, as a binary age file, or
// as an ASCII-armored age file. [Open] accepts all three and returns
// the plaintext in a [secret.Buffer]. Encrypted files are unlocked
// either with X25519 identities read by [ParseIdentities] or with a
// passphrase via [PassphraseIdentity].
package sealed
