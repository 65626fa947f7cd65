// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package signer

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SupportedStandard names one ICRC standard the signer implements.
type SupportedStandard struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SupportedStandardsResult is the result of icrc25_supported_standards.
type SupportedStandardsResult struct {
	SupportedStandards []SupportedStandard `json:"supportedStandards"`
}

// PermissionScope names the method a permission applies to.
type PermissionScope struct {
	Method string `json:"method"`
}

// Permission is one scope and its state.
type Permission struct {
	Scope PermissionScope `json:"scope"`
	State string          `json:"state"`
}

// PermissionsResult is the result of icrc25_permissions and
// icrc25_request_permissions.
type PermissionsResult struct {
	Scopes []Permission `json:"scopes"`
}

// Account is an ICRC-27 account.
type Account struct {
	Owner      string      `json:"owner"`
	Subaccount Base64Bytes `json:"subaccount,omitempty"`
}

// AccountsResult is the result of icrc27_accounts.
type AccountsResult struct {
	Accounts []Account `json:"accounts"`
}

// DelegationParams are the params of icrc34_delegation.
type DelegationParams struct {
	PublicKey     Base64Bytes  `json:"publicKey"`
	MaxTimeToLive *NanosString `json:"maxTimeToLive,omitempty"`
	Targets       []string     `json:"targets,omitempty"`
}

// DelegationContent is one delegation as returned to the caller.
type DelegationContent struct {
	PublicKey  Base64Bytes `json:"pubkey"`
	Expiration NanosString `json:"expiration"`
	Targets    []string    `json:"targets,omitempty"`
}

// SignedDelegation pairs a delegation with its signature.
type SignedDelegation struct {
	Delegation DelegationContent `json:"delegation"`
	Signature  Base64Bytes       `json:"signature"`
}

// DelegationResult is the result of icrc34_delegation.
type DelegationResult struct {
	PublicKey        Base64Bytes        `json:"publicKey"`
	SignerDelegation []SignedDelegation `json:"signerDelegation"`
}

// CallCanisterParams are the params of icrc49_call_canister.
type CallCanisterParams struct {
	CanisterID string      `json:"canisterId"`
	Sender     string      `json:"sender"`
	Method     string      `json:"method"`
	Arg        Base64Bytes `json:"arg"`
}

// CallCanisterResult carries the submitted content map and the
// certificate proving its outcome.
type CallCanisterResult struct {
	ContentMap  Base64Bytes `json:"contentMap"`
	Certificate Base64Bytes `json:"certificate"`
}

// BatchRequest is one call inside an icrc112 batch.
type BatchRequest struct {
	CanisterID string      `json:"canisterId"`
	Method     string      `json:"method"`
	Arg        Base64Bytes `json:"arg"`
	Nonce      Base64Bytes `json:"nonce,omitempty"`
}

// ValidationTarget names the ICRC-114 validation canister.
type ValidationTarget struct {
	CanisterID string `json:"canisterId"`
	// Method overrides the configured validator method.
	Method string `json:"method,omitempty"`
}

// BatchCallCanisterParams are the params of
// icrc112_batch_call_canister. Requests is an ordered list of groups.
type BatchCallCanisterParams struct {
	Sender     string            `json:"sender,omitempty"`
	Requests   [][]BatchRequest  `json:"requests"`
	Validation *ValidationTarget `json:"validation,omitempty"`
}

// BatchResult is the outcome of one batch request: either a result or
// an error.
type BatchResult struct {
	result *CallCanisterResult
	err    *Error
}

// BatchSuccess wraps a successful call.
func BatchSuccess(result CallCanisterResult) BatchResult {
	return BatchResult{result: &result}
}

// BatchFailure wraps a failed or skipped call.
func BatchFailure(err *Error) BatchResult {
	return BatchResult{err: err}
}

// Result returns the call result, or nil for a failure.
func (b BatchResult) Result() *CallCanisterResult { return b.result }

// Err returns the error, or nil for a success.
func (b BatchResult) Err() *Error { return b.err }

type wireBatchResult struct {
	Result *CallCanisterResult `json:"result,omitempty"`
	Error  *Error              `json:"error,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (b BatchResult) MarshalJSON() ([]byte, error) {
	if (b.result == nil) == (b.err == nil) {
		return nil, errors.New("batch result must hold exactly one of result and error")
	}
	return json.Marshal(wireBatchResult{Result: b.result, Error: b.err})
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *BatchResult) UnmarshalJSON(data []byte) error {
	var wire wireBatchResult
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if (wire.Result == nil) == (wire.Error == nil) {
		return fmt.Errorf("batch result must hold exactly one of result and error: %s", data)
	}
	*b = BatchResult{result: wire.Result, err: wire.Error}
	return nil
}

// BatchCallCanisterResult mirrors the request groups.
type BatchCallCanisterResult struct {
	Responses [][]BatchResult `json:"responses"`
}
