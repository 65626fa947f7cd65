// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"filippo.io/age"

	"github.com/claimlink/signer/cmd/claimlink-signer/cli"
	"github.com/claimlink/signer/lib/config"
	"github.com/claimlink/signer/lib/principal"
	"github.com/claimlink/signer/lib/testutil"
)

func TestLoadIdentityAnonymous(t *testing.T) {
	signer, err := loadIdentity(config.IdentityConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if signer.Principal() != principal.Anonymous {
		t.Errorf("principal = %s, want anonymous", signer.Principal())
	}
}

func generate(t *testing.T, options keygenOptions) (string, string) {
	t.Helper()
	options.output = filepath.Join(t.TempDir(), "signer.pem")
	var stdout, stderr bytes.Buffer
	if err := runKeygen(options, &stdout, &stderr); err != nil {
		t.Fatalf("runKeygen: %v", err)
	}
	printed := strings.TrimSpace(strings.TrimPrefix(stderr.String(), "principal: "))
	return options.output, printed
}

func TestKeygenPlaintextRoundTrip(t *testing.T) {
	path, printed := generate(t, keygenOptions{})
	signer, err := loadIdentity(config.IdentityConfig{File: path})
	if err != nil {
		t.Fatal(err)
	}
	if signer.Principal().String() != printed {
		t.Errorf("loaded principal %s, keygen printed %s", signer.Principal(), printed)
	}
}

func TestKeygenSealedToRecipient(t *testing.T) {
	ageIdentity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatal(err)
	}
	recipients := testutil.WriteFile(t, "recipients.txt", []byte("# ops\n"+ageIdentity.Recipient().String()+"\n"))
	identityFile := testutil.WriteFile(t, "age.key", []byte(ageIdentity.String()+"\n"))

	path, printed := generate(t, keygenOptions{recipientsFile: recipients, armor: true})
	signer, err := loadIdentity(config.IdentityConfig{File: path, AgeIdentityFile: identityFile})
	if err != nil {
		t.Fatal(err)
	}
	if signer.Principal().String() != printed {
		t.Errorf("loaded principal %s, keygen printed %s", signer.Principal(), printed)
	}
}

func TestKeygenPassphrase(t *testing.T) {
	original := passphraseReader
	t.Cleanup(func() { passphraseReader = original })
	passphraseReader = func(string) (string, error) { return "correct horse", nil }

	path, printed := generate(t, keygenOptions{passphrase: true})

	t.Setenv("SIGNER_TEST_PASSPHRASE", "correct horse")
	passphraseReader = func(string) (string, error) {
		t.Error("prompted although the passphrase is in the environment")
		return "", cli.ErrNoTerminal
	}
	signer, err := loadIdentity(config.IdentityConfig{File: path, PassphraseEnv: "SIGNER_TEST_PASSPHRASE"})
	if err != nil {
		t.Fatal(err)
	}
	if signer.Principal().String() != printed {
		t.Errorf("loaded principal %s, keygen printed %s", signer.Principal(), printed)
	}
}

func TestLoadEncryptedIdentityWithoutTerminal(t *testing.T) {
	original := passphraseReader
	t.Cleanup(func() { passphraseReader = original })
	passphraseReader = func(string) (string, error) { return "pw", nil }
	path, _ := generate(t, keygenOptions{passphrase: true})

	passphraseReader = func(string) (string, error) { return "", cli.ErrNoTerminal }
	if _, err := loadIdentity(config.IdentityConfig{File: path}); err == nil || !strings.Contains(err.Error(), "encrypted") {
		t.Errorf("error = %v, want a hint about unlocking", err)
	}
}

func TestKeygenDerivedIsDeterministic(t *testing.T) {
	master := testutil.WriteFile(t, "master", bytes.Repeat([]byte{0x42}, 32))
	_, first := generate(t, keygenOptions{masterFile: master, label: "wallet"})
	_, second := generate(t, keygenOptions{masterFile: master, label: "wallet"})
	_, other := generate(t, keygenOptions{masterFile: master, label: "other"})
	if first != second {
		t.Errorf("same master and label gave %s and %s", first, second)
	}
	if first == other {
		t.Error("different labels gave the same principal")
	}
}

func TestKeygenRejectsConflictingEncryption(t *testing.T) {
	err := runKeygen(keygenOptions{recipientsFile: "x", passphrase: true}, &bytes.Buffer{}, &bytes.Buffer{})
	if err == nil {
		t.Error("conflicting options accepted")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	loaded, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Gateway.Listen != config.Default().Gateway.Listen {
		t.Errorf("listen = %q", loaded.Gateway.Listen)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := testutil.WriteFile(t, "bad.yaml", []byte("log:\n  level: loud\n"))
	if _, err := loadConfig(path); err == nil {
		t.Error("invalid config accepted")
	}
}

func TestRootListsCommands(t *testing.T) {
	var help bytes.Buffer
	root().PrintHelp(&help)
	for _, name := range []string{"serve", "keygen", "principal", "version"} {
		if !strings.Contains(help.String(), name) {
			t.Errorf("help does not list %s", name)
		}
	}
}
