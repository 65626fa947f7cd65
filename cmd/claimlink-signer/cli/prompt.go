// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// ErrNoTerminal is returned by ReadPassphrase when stdin is not a
// terminal.
var ErrNoTerminal = errors.New("stdin is not a terminal")

// ReadPassphrase prompts on stderr and reads a line from the terminal
// without echo.
func ReadPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNoTerminal
	}
	fmt.Fprint(os.Stderr, prompt)
	passphrase, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(passphrase), nil
}
