// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package signer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claimlink/signer/agent"
	"github.com/claimlink/signer/lib/binhash"
	"github.com/claimlink/signer/lib/certificate"
	"github.com/claimlink/signer/lib/principal"
	"github.com/claimlink/signer/lib/requestid"
)

func handleCallCanister(ctx context.Context, d *dispatcher, raw json.RawMessage) (any, *Error, error) {
	var params CallCanisterParams
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr, nil
	}
	if err := d.checkSender(params.Sender); err != nil {
		return nil, nil, err
	}
	canister, err := principal.FromText(params.CanisterID)
	if err != nil {
		return nil, errInvalidParams(fmt.Errorf("canisterId: %w", err)), nil
	}

	call, err := d.certifiedCall(ctx, canister, params.Method, params.Arg, nil, agent.RequestStatusPath)
	if err != nil {
		return nil, nil, err
	}
	return CallCanisterResult{ContentMap: call.contentMap, Certificate: call.rawCertificate}, nil, nil
}

// checkSender fails when sender names a principal other than the
// agent's. An empty sender is accepted.
func (d *dispatcher) checkSender(sender string) error {
	if sender == "" {
		return nil
	}
	expected := d.agent.Identity().Principal().String()
	if sender != expected {
		return fmt.Errorf("%w: got %s, signing as %s", ErrSenderMismatch, sender, expected)
	}
	return nil
}

// certifiedOutcome is a submitted call together with the verified
// certificate read back after it completed.
type certifiedOutcome struct {
	id             requestid.RequestID
	contentMap     []byte
	rawCertificate []byte
	certificate    *certificate.Certificate
}

// status returns the certified status of the call.
func (o *certifiedOutcome) status() agent.Status {
	value, lookup := o.certificate.Lookup(agent.StatusPath(o.id))
	if lookup != certificate.Found {
		return agent.StatusUnknown
	}
	return agent.Status(value)
}

// reply returns the certified reply, or false when the certificate
// holds none.
func (o *certifiedOutcome) reply() ([]byte, bool) {
	value, lookup := o.certificate.Lookup(agent.ReplyPath(o.id))
	return value, lookup == certificate.Found
}

// certifiedCall submits an update call, waits for it to finish, and
// reads and verifies the certificate for the paths pathsFor returns.
// The content map is captured as signed.
func (d *dispatcher) certifiedCall(ctx context.Context, canister principal.Principal, method string, arg, nonce []byte, pathsFor ...func(requestid.RequestID) certificate.Path) (*certifiedOutcome, error) {
	var captured *agent.CallContent
	capture := func(content *agent.CallContent) error {
		clone := content.Clone()
		captured = &clone
		return nil
	}

	id, err := d.agent.Call(ctx, canister, agent.CallOptions{
		MethodName: method,
		Arg:        arg,
		Nonce:      nonce,
		Transforms: []agent.Transform{capture},
	})
	if err != nil {
		return nil, fmt.Errorf("calling %s on %s: %w", method, canister, err)
	}
	if captured == nil {
		return nil, fmt.Errorf("calling %s on %s: agent did not expose the call content", method, canister)
	}
	contentMap, err := captured.Encode()
	if err != nil {
		return nil, fmt.Errorf("encoding content map: %w", err)
	}

	if err := d.agent.PollForResponse(ctx, canister, id); err != nil {
		return nil, fmt.Errorf("waiting for %s on %s: %w", method, canister, err)
	}

	paths := make([]certificate.Path, len(pathsFor))
	for index, pathFor := range pathsFor {
		paths[index] = pathFor(id)
	}
	raw, err := d.agent.ReadState(ctx, canister, paths)
	if err != nil {
		return nil, fmt.Errorf("reading state of %s: %w", id, err)
	}
	cert, err := certificate.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing certificate for %s: %w", id, err)
	}
	if err := certificate.Verify(cert, certificate.VerifyOptions{
		RootKey:    certificate.RootKeyOrMainnet(d.agent.RootKey()),
		CanisterID: canister,
		Verifier:   d.verifier,
		Now:        d.clock.Now(),
	}); err != nil {
		return nil, fmt.Errorf("verifying certificate for %s: %w", id, err)
	}

	d.logger.Debug("call certified",
		"canister", canister.String(),
		"method", method,
		"request_id", id.String(),
		"content_digest", binhash.Sum(binhash.ContentMap, contentMap).Short(),
		"certificate_digest", binhash.Sum(binhash.Certificate, raw).Short(),
	)
	return &certifiedOutcome{id: id, contentMap: contentMap, rawCertificate: raw, certificate: cert}, nil
}
