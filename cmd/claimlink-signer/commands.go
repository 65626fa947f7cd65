// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/claimlink/signer/cmd/claimlink-signer/cli"
	"github.com/claimlink/signer/lib/config"
	"github.com/claimlink/signer/lib/version"
)

func root() *cli.Command {
	return &cli.Command{
		Name:        "claimlink-signer",
		Description: "Sign Internet Computer requests for wallets over the ICRC signer standards.",
		Subcommands: []*cli.Command{
			serveCommand(),
			keygenCommand(),
			principalCommand(),
			versionCommand(),
		},
	}
}

// configFlag registers --config on flagSet.
func configFlag(flagSet *pflag.FlagSet, path *string) {
	flagSet.StringVarP(path, "config", "c", "", "config file (YAML or JSONC); defaults to $"+config.EnvironmentVariable)
}

// loadConfig reads path, or the file named by the environment when
// path is empty. With neither set the defaults are used.
func loadConfig(path string) (*config.Config, error) {
	var loaded *config.Config
	var err error
	switch {
	case path != "":
		loaded, err = config.LoadFile(path)
	case os.Getenv(config.EnvironmentVariable) != "":
		loaded, err = config.Load()
	default:
		loaded = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if err := loaded.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return loaded, nil
}

func versionCommand() *cli.Command {
	var full bool
	return &cli.Command{
		Name:    "version",
		Summary: "Print build information",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("version", pflag.ContinueOnError)
			flagSet.BoolVar(&full, "full", false, "include Go version and platform")
			return flagSet
		},
		Run: func([]string) error {
			build := version.Current()
			if full {
				fmt.Println(build.Full())
				return nil
			}
			fmt.Println(build.String())
			return nil
		},
	}
}
