// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"filippo.io/age"

	"github.com/claimlink/signer/cmd/claimlink-signer/cli"
	"github.com/claimlink/signer/lib/config"
	"github.com/claimlink/signer/lib/identity"
	"github.com/claimlink/signer/lib/sealed"
	"github.com/claimlink/signer/lib/secret"
)

// passphraseReader is replaced in tests.
var passphraseReader = cli.ReadPassphrase

// loadIdentity returns the signing identity described by settings.
// Without a key file the anonymous identity is used.
func loadIdentity(settings config.IdentityConfig) (identity.Identity, error) {
	if settings.File == "" {
		return identity.Anonymous(), nil
	}
	data, err := os.ReadFile(settings.File)
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}

	var unlock []age.Identity
	if sealed.Detect(data) != sealed.Plaintext {
		unlock, err = unlockIdentities(settings)
		if err != nil {
			return nil, err
		}
	}

	plaintext, err := sealed.Open(data, unlock...)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", settings.File, err)
	}
	defer plaintext.Close()

	signer, err := identity.ParsePEM(plaintext.Bytes())
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", settings.File, err)
	}
	return signer, nil
}

// unlockIdentities picks the age identities for an encrypted key file:
// an identity file, then a passphrase from the environment, then a
// terminal prompt.
func unlockIdentities(settings config.IdentityConfig) ([]age.Identity, error) {
	if settings.AgeIdentityFile != "" {
		keys, err := secret.ReadFile(settings.AgeIdentityFile)
		if err != nil {
			return nil, fmt.Errorf("reading age identity file: %w", err)
		}
		defer keys.Close()
		return sealed.ParseIdentities(keys.Bytes())
	}

	passphrase := ""
	if settings.PassphraseEnv != "" {
		passphrase = os.Getenv(settings.PassphraseEnv)
	}
	if passphrase == "" {
		prompted, err := passphraseReader("Identity passphrase: ")
		if errors.Is(err, cli.ErrNoTerminal) {
			return nil, fmt.Errorf("%s is encrypted: set identity.age_identity_file or identity.passphrase_env", settings.File)
		}
		if err != nil {
			return nil, err
		}
		passphrase = prompted
	}
	unlock, err := sealed.PassphraseIdentity(passphrase)
	if err != nil {
		return nil, err
	}
	return []age.Identity{unlock}, nil
}
