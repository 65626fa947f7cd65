// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/claimlink/signer/agent"
	"github.com/claimlink/signer/cmd/claimlink-signer/cli"
	"github.com/claimlink/signer/gateway"
	"github.com/claimlink/signer/lib/config"
	"github.com/claimlink/signer/lib/identity"
	"github.com/claimlink/signer/lib/version"
	"github.com/claimlink/signer/signer"
)

func serveCommand() *cli.Command {
	var configPath, listen, host string
	return &cli.Command{
		Name:    "serve",
		Summary: "Serve the signer gateway",
		Description: `Serve the signer gateway until interrupted.

Wallets connect to /ws (WebSocket, one channel per connection) or POST
single JSON-RPC requests to /rpc. Calls are signed with the configured
identity and sent to the configured replica host.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("serve", pflag.ContinueOnError)
			configFlag(flagSet, &configPath)
			flagSet.StringVar(&listen, "listen", "", "listen address; overrides gateway.listen")
			flagSet.StringVar(&host, "host", "", "replica URL; overrides agent.host")
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "Serve against a local replica", Command: "claimlink-signer serve --config local.yaml --host http://127.0.0.1:4943"},
		},
		Run: func([]string) error {
			loaded, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				loaded.Gateway.Listen = listen
			}
			if host != "" {
				loaded.Agent.Host = host
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, loaded)
		},
	}
}

func serve(ctx context.Context, loaded *config.Config) error {
	logger, err := cli.NewLogger(os.Stderr, loaded.Log.Level, loaded.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	signerIdentity, err := loadIdentity(loaded.Identity)
	if err != nil {
		return err
	}

	httpAgent, err := newAgent(loaded, signerIdentity, logger)
	if err != nil {
		return err
	}
	if loaded.Agent.FetchRootKey {
		if _, err := httpAgent.FetchRootKey(ctx); err != nil {
			return err
		}
	}

	transport, err := signer.NewTransport(signer.TransportOptions{
		Agent:           httpAgent,
		DelegationTTL:   loaded.DelegationTTL(),
		ValidatorMethod: loaded.Batch.ValidatorMethod,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	logger.Info("signer starting",
		"version", version.Info(),
		"environment", loaded.Environment,
		"principal", signerIdentity.Principal().String(),
		"host", httpAgent.Host(),
	)

	server := gateway.New(gateway.Config{
		Address:         loaded.Gateway.Listen,
		Transport:       transport,
		AllowedOrigins:  loaded.Gateway.AllowedOrigins,
		MaxMessageBytes: loaded.Gateway.MaxMessageBytes,
		Compress:        loaded.Gateway.Compress,
		Logger:          logger,
	})
	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("serving gateway: %w", err)
	}
	return nil
}

func newAgent(loaded *config.Config, signerIdentity identity.Identity, logger *slog.Logger) (*agent.HTTPAgent, error) {
	return agent.NewHTTPAgent(agent.Options{
		Host:          loaded.Agent.Host,
		Identity:      signerIdentity,
		HTTPClient:    &http.Client{Timeout: loaded.RequestTimeout()},
		IngressExpiry: loaded.IngressExpiry(),
		Poll: agent.PollStrategy{
			InitialDelay: loaded.PollInitialDelay(),
			MaxDelay:     loaded.PollMaxDelay(),
			Multiplier:   loaded.Agent.Poll.Multiplier,
			Timeout:      loaded.PollTimeout(),
		},
		Logger: logger,
	})
}
