// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/claimlink/signer/lib/secret"
)

// binaryHeader starts every unarmored age file.
const binaryHeader = "age-encryption.org/v1\n"

// ErrNoIdentity is returned by Open when the data is encrypted and no
// identity was supplied to decrypt it.
var ErrNoIdentity = errors.New("identity file is encrypted and no age identity or passphrase was provided")

// Format describes how a file is stored.
type Format int

const (
	Plaintext Format = iota
	Binary
	Armored
)

func (f Format) String() string {
	switch f {
	case Plaintext:
		return "plaintext"
	case Binary:
		return "age"
	case Armored:
		return "age-armored"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Detect reports the storage format of data.
func Detect(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	switch {
	case bytes.HasPrefix(trimmed, []byte(armor.Header)):
		return Armored
	case bytes.HasPrefix(data, []byte(binaryHeader)):
		return Binary
	default:
		return Plaintext
	}
}

// Options controls Seal.
type Options struct {
	// Armor produces PEM-style ASCII output.
	Armor bool

	// ScryptWorkFactor overrides the scrypt cost (log2 N) for
	// passphrase encryption. Zero keeps age's default.
	ScryptWorkFactor int
}

// Seal encrypts plaintext to recipients.
func Seal(plaintext []byte, recipients []age.Recipient, options Options) ([]byte, error) {
	if len(recipients) == 0 {
		return nil, errors.New("at least one recipient is required")
	}

	var output bytes.Buffer
	var destination io.Writer = &output
	var armorWriter io.WriteCloser
	if options.Armor {
		armorWriter = armor.NewWriter(&output)
		destination = armorWriter
	}

	writer, err := age.Encrypt(destination, recipients...)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing plaintext: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing age encryption: %w", err)
	}
	if armorWriter != nil {
		if err := armorWriter.Close(); err != nil {
			return nil, fmt.Errorf("finalizing armor: %w", err)
		}
	}
	return output.Bytes(), nil
}

// SealWithPassphrase encrypts plaintext with a scrypt passphrase.
func SealWithPassphrase(plaintext []byte, passphrase string, options Options) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating passphrase recipient: %w", err)
	}
	if options.ScryptWorkFactor > 0 {
		recipient.SetWorkFactor(options.ScryptWorkFactor)
	}
	return Seal(plaintext, []age.Recipient{recipient}, options)
}

// Open returns the plaintext of data in locked memory. Plaintext input
// is copied as is. Encrypted input is decrypted with identities.
func Open(data []byte, identities ...age.Identity) (*secret.Buffer, error) {
	var source io.Reader
	switch Detect(data) {
	case Plaintext:
		return secret.FromBytes(bytes.Clone(data))
	case Armored:
		source = armor.NewReader(bytes.NewReader(bytes.TrimLeft(data, " \t\r\n")))
	case Binary:
		source = bytes.NewReader(data)
	}
	if len(identities) == 0 {
		return nil, ErrNoIdentity
	}

	reader, err := age.Decrypt(source, identities...)
	if err != nil {
		return nil, fmt.Errorf("decrypting identity file: %w", err)
	}
	buffer, err := secret.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted identity file: %w", err)
	}
	return buffer, nil
}

// ParseIdentities reads age identities (AGE-SECRET-KEY-1... lines,
// comments allowed) from data.
func ParseIdentities(data []byte) ([]age.Identity, error) {
	identities, err := age.ParseIdentities(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing age identities: %w", err)
	}
	return identities, nil
}

// ParseRecipients reads age1... recipients, one per line, from text.
func ParseRecipients(text string) ([]age.Recipient, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	recipients := make([]age.Recipient, 0, len(lines))
	for _, line := range lines {
		recipient, err := age.ParseX25519Recipient(line)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient %q: %w", line, err)
		}
		recipients = append(recipients, recipient)
	}
	if len(recipients) == 0 {
		return nil, errors.New("no recipients found")
	}
	return recipients, nil
}

// PassphraseIdentity returns an identity that unlocks files sealed
// with SealWithPassphrase.
func PassphraseIdentity(passphrase string) (age.Identity, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating passphrase identity: %w", err)
	}
	return identity, nil
}
