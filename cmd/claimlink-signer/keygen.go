// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/claimlink/signer/cmd/claimlink-signer/cli"
	"github.com/claimlink/signer/lib/identity"
	"github.com/claimlink/signer/lib/sealed"
	"github.com/claimlink/signer/lib/secret"
)

type keygenOptions struct {
	output         string
	recipientsFile string
	passphrase     bool
	armor          bool
	masterFile     string
	label          string
}

func keygenCommand() *cli.Command {
	var options keygenOptions
	return &cli.Command{
		Name:    "keygen",
		Summary: "Create an Ed25519 identity",
		Description: `Create an Ed25519 identity as a PKCS#8 PEM file.

The key is written in plaintext unless --recipients or --passphrase is
given, in which case it is encrypted with age. With --master the key is
derived deterministically from a master secret file and --label, so the
same pair always yields the same principal.`,
		Flags: func() *pflag.FlagSet {
			options = keygenOptions{}
			flagSet := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
			flagSet.StringVarP(&options.output, "output", "o", "", "write the key to this file instead of stdout")
			flagSet.StringVar(&options.recipientsFile, "recipients", "", "encrypt to the age recipients listed in this file")
			flagSet.BoolVar(&options.passphrase, "passphrase", false, "encrypt with a passphrase read from the terminal")
			flagSet.BoolVar(&options.armor, "armor", true, "ASCII-armor encrypted output")
			flagSet.StringVar(&options.masterFile, "master", "", "derive the key from the secret in this file")
			flagSet.StringVar(&options.label, "label", "default", "derivation label used with --master")
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "Create a key sealed to an age recipient", Command: "claimlink-signer keygen --recipients ops.txt -o signer.pem.age"},
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			return runKeygen(options, os.Stdout, os.Stderr)
		},
	}
}

func runKeygen(options keygenOptions, stdout, stderr io.Writer) error {
	if options.recipientsFile != "" && options.passphrase {
		return errors.New("--recipients and --passphrase are mutually exclusive")
	}

	signer, err := newKey(options)
	if err != nil {
		return err
	}
	encoded, err := signer.MarshalPEM()
	if err != nil {
		return err
	}
	defer secret.Zero(encoded)

	switch {
	case options.recipientsFile != "":
		text, err := os.ReadFile(options.recipientsFile)
		if err != nil {
			return fmt.Errorf("reading recipients: %w", err)
		}
		recipients, err := sealed.ParseRecipients(string(text))
		if err != nil {
			return err
		}
		encoded, err = sealed.Seal(encoded, recipients, sealed.Options{Armor: options.armor})
		if err != nil {
			return err
		}
	case options.passphrase:
		passphrase, err := confirmPassphrase()
		if err != nil {
			return err
		}
		encoded, err = sealed.SealWithPassphrase(encoded, passphrase, sealed.Options{Armor: options.armor})
		if err != nil {
			return err
		}
	}

	if options.output == "" {
		if _, err := stdout.Write(encoded); err != nil {
			return err
		}
	} else if err := os.WriteFile(options.output, encoded, 0o600); err != nil {
		return fmt.Errorf("writing key: %w", err)
	}
	fmt.Fprintf(stderr, "principal: %s\n", signer.Principal())
	return nil
}

func newKey(options keygenOptions) (*identity.Ed25519, error) {
	if options.masterFile == "" {
		return identity.GenerateEd25519()
	}
	master, err := secret.ReadFile(options.masterFile)
	if err != nil {
		return nil, fmt.Errorf("reading master secret: %w", err)
	}
	defer master.Close()
	return identity.DeriveEd25519(master.Bytes(), options.label)
}

func confirmPassphrase() (string, error) {
	first, err := passphraseReader("New passphrase: ")
	if err != nil {
		return "", err
	}
	second, err := passphraseReader("Repeat passphrase: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passphrases do not match")
	}
	if first == "" {
		return "", errors.New("passphrase is empty")
	}
	return first, nil
}
