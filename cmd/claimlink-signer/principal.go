// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/claimlink/signer/cmd/claimlink-signer/cli"
	"github.com/claimlink/signer/lib/config"
)

func principalCommand() *cli.Command {
	var configPath, keyFile string
	var showKey bool
	return &cli.Command{
		Name:    "principal",
		Summary: "Print the principal of the configured identity",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("principal", pflag.ContinueOnError)
			configFlag(flagSet, &configPath)
			flagSet.StringVar(&keyFile, "identity", "", "identity file; overrides the config")
			flagSet.BoolVar(&showKey, "public-key", false, "also print the DER public key in hex")
			return flagSet
		},
		Run: func([]string) error {
			loaded, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			settings := loaded.Identity
			if keyFile != "" {
				settings = config.IdentityConfig{File: keyFile}
			}
			signer, err := loadIdentity(settings)
			if err != nil {
				return err
			}
			fmt.Println(signer.Principal())
			if showKey {
				fmt.Println(hex.EncodeToString(signer.PublicKey()))
			}
			return nil
		},
	}
}
