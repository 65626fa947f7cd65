// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package signer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/claimlink/signer/agent"
	"github.com/claimlink/signer/lib/certificate"
	"github.com/claimlink/signer/lib/clock"
)

// DefaultDelegationTTL is the lifetime of a delegation when the
// request does not set maxTimeToLive.
const DefaultDelegationTTL = 8 * time.Hour

// DefaultValidatorMethod is the ICRC-114 validation method.
const DefaultValidatorMethod = "icrc114_validate"

// TransportOptions configures NewTransport.
type TransportOptions struct {
	// Agent performs canister calls. When nil an anonymous HTTPAgent
	// against agent.DefaultHost is created.
	Agent agent.Agent

	// Verifier checks certificate signatures in batch calls. Defaults
	// to BLS.
	Verifier certificate.Verifier

	// DelegationTTL defaults to DefaultDelegationTTL.
	DelegationTTL time.Duration

	// ValidatorMethod defaults to DefaultValidatorMethod.
	ValidatorMethod string

	Clock  clock.Clock
	Logger *slog.Logger
}

// Transport creates Channels that share one Agent. The zero value is
// not usable: every method fails with ErrTransportNotCreated.
type Transport struct {
	dispatcher *dispatcher
}

// NewTransport builds a Transport.
func NewTransport(options TransportOptions) (*Transport, error) {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Agent == nil {
		httpAgent, err := agent.NewHTTPAgent(agent.Options{
			Clock:  options.Clock,
			Logger: options.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating default agent: %w", err)
		}
		options.Agent = httpAgent
	}
	if options.Verifier == nil {
		options.Verifier = certificate.BLSVerifier{}
	}
	if options.DelegationTTL <= 0 {
		options.DelegationTTL = DefaultDelegationTTL
	}
	if options.ValidatorMethod == "" {
		options.ValidatorMethod = DefaultValidatorMethod
	}

	return &Transport{dispatcher: &dispatcher{
		agent:           options.Agent,
		verifier:        options.Verifier,
		delegationTTL:   options.DelegationTTL,
		validatorMethod: options.ValidatorMethod,
		clock:           options.Clock,
		logger:          options.Logger,
	}}, nil
}

// Agent returns the agent channels call through.
func (t *Transport) Agent() (agent.Agent, error) {
	if t == nil || t.dispatcher == nil {
		return nil, ErrTransportNotCreated
	}
	return t.dispatcher.agent, nil
}

// EstablishChannel returns a new open Channel. Channels are
// independent of each other.
func (t *Transport) EstablishChannel() (*Channel, error) {
	if t == nil || t.dispatcher == nil {
		return nil, ErrTransportNotCreated
	}
	return &Channel{dispatcher: t.dispatcher}, nil
}
