// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package signer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/claimlink/signer/agent"
	"github.com/claimlink/signer/lib/certificate"
	"github.com/claimlink/signer/lib/clock"
)

// Method is a supported JSON-RPC method.
type Method int

const (
	MethodSupportedStandards Method = iota + 1
	MethodPermissions
	MethodRequestPermissions
	MethodAccounts
	MethodDelegation
	MethodCallCanister
	MethodBatchCallCanister
)

var methodNames = map[Method]string{
	MethodSupportedStandards: "icrc25_supported_standards",
	MethodPermissions:        "icrc25_permissions",
	MethodRequestPermissions: "icrc25_request_permissions",
	MethodAccounts:           "icrc27_accounts",
	MethodDelegation:         "icrc34_delegation",
	MethodCallCanister:       "icrc49_call_canister",
	MethodBatchCallCanister:  "icrc112_batch_call_canister",
}

var methodsByName = func() map[string]Method {
	byName := make(map[string]Method, len(methodNames))
	for method, name := range methodNames {
		byName[name] = method
	}
	return byName
}()

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod looks up a method by its JSON-RPC name.
func ParseMethod(name string) (Method, bool) {
	method, ok := methodsByName[name]
	return method, ok
}

// handler answers one method. A non-nil *Error becomes an error
// response; a non-nil error is returned from Send.
type handler func(ctx context.Context, d *dispatcher, params json.RawMessage) (any, *Error, error)

var handlers = map[Method]handler{}

func register(method Method, fn handler) {
	if _, exists := handlers[method]; exists {
		panic(fmt.Sprintf("signer: duplicate handler for %s", method))
	}
	handlers[method] = fn
}

func init() {
	register(MethodSupportedStandards, handleSupportedStandards)
	register(MethodPermissions, handlePermissions)
	register(MethodRequestPermissions, handlePermissions)
	register(MethodAccounts, handleAccounts)
	register(MethodDelegation, handleDelegation)
	register(MethodCallCanister, handleCallCanister)
	register(MethodBatchCallCanister, handleBatchCallCanister)

	for method := range methodNames {
		if _, ok := handlers[method]; !ok {
			panic(fmt.Sprintf("signer: no handler for %s", method))
		}
	}
}

// dispatcher holds what handlers need. One dispatcher is shared by
// every Channel of a Transport.
type dispatcher struct {
	agent           agent.Agent
	verifier        certificate.Verifier
	delegationTTL   time.Duration
	validatorMethod string
	clock           clock.Clock
	logger          *slog.Logger
}

func (d *dispatcher) dispatch(ctx context.Context, request Request) (Response, error) {
	if request.JSONRPC != Version || request.Method == "" {
		return ErrorResponse(request.ID, errInvalidRequest()), nil
	}
	method, ok := ParseMethod(request.Method)
	if !ok {
		return ErrorResponse(request.ID, errNotSupported()), nil
	}

	start := d.clock.Now()
	result, rpcErr, err := handlers[method](ctx, d, request.Params)
	logger := d.logger.With("method", method.String(), "id", request.ID.String(), "elapsed", d.clock.Now().Sub(start))
	if err != nil {
		logger.Warn("request failed", "error", err)
		return Response{}, fmt.Errorf("%s: %w", method, err)
	}
	if rpcErr != nil {
		logger.Debug("request answered with error", "code", rpcErr.Code, "message", rpcErr.Message)
		return ErrorResponse(request.ID, rpcErr), nil
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return Response{}, fmt.Errorf("%s: encoding result: %w", method, err)
	}
	logger.Debug("request answered")
	return ResultResponse(request.ID, encoded), nil
}

// decodeParams unmarshals params into v. Absent params decode as an
// empty object.
func decodeParams(params json.RawMessage, v any) *Error {
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	if err := json.Unmarshal(params, v); err != nil {
		return errInvalidParams(err)
	}
	return nil
}

const standardsBase = "https://github.com/dfinity/wg-identity-authentication/blob/main/topics/"

var supportedStandards = []SupportedStandard{
	{Name: "ICRC-25", URL: standardsBase + "icrc_25_signer_interaction_standard.md"},
	{Name: "ICRC-27", URL: standardsBase + "icrc_27_accounts.md"},
	{Name: "ICRC-34", URL: standardsBase + "icrc_34_delegation.md"},
	{Name: "ICRC-49", URL: standardsBase + "icrc_49_call_canister.md"},
	{Name: "ICRC-112", URL: standardsBase + "icrc_112_batch_call_canister.md"},
	{Name: "ICRC-114", URL: standardsBase + "icrc_114_validate_batch_call.md"},
}

// scopedMethods are the methods wallets ask permission for.
var scopedMethods = []Method{
	MethodAccounts,
	MethodDelegation,
	MethodCallCanister,
	MethodBatchCallCanister,
}

func handleSupportedStandards(context.Context, *dispatcher, json.RawMessage) (any, *Error, error) {
	return SupportedStandardsResult{SupportedStandards: supportedStandards}, nil, nil
}

// handlePermissions grants every scope without prompting.
func handlePermissions(context.Context, *dispatcher, json.RawMessage) (any, *Error, error) {
	scopes := make([]Permission, len(scopedMethods))
	for index, method := range scopedMethods {
		scopes[index] = Permission{Scope: PermissionScope{Method: method.String()}, State: "granted"}
	}
	return PermissionsResult{Scopes: scopes}, nil, nil
}

func handleAccounts(_ context.Context, d *dispatcher, _ json.RawMessage) (any, *Error, error) {
	owner := d.agent.Identity().Principal()
	return AccountsResult{Accounts: []Account{{Owner: owner.String()}}}, nil, nil
}
