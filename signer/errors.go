// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package signer

import "errors"

// JSON-RPC error codes produced by the signer.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeInvalidParams  = -32602

	// CodeNotSupported answers methods outside the supported set.
	CodeNotSupported = 2000

	// CodeNotProcessed marks a batch request that was never submitted
	// because an earlier request in the batch set failed.
	CodeNotProcessed = 1001

	// CodeValidationRequired rejects a multi-request batch that names
	// no validation canister.
	CodeValidationRequired = 1002

	// CodeValidationFailed marks a request whose reply was rejected by
	// the built-in check or by the validation canister.
	CodeValidationFailed = 1003

	// CodeNetworkError covers submission, polling, and certification
	// failures.
	CodeNetworkError = 4000
)

var (
	// ErrTransportNotCreated is returned by a Transport that was not
	// built with NewTransport.
	ErrTransportNotCreated = errors.New("signer: transport must be created with NewTransport")

	// ErrChannelClosed is returned by Send after Close.
	ErrChannelClosed = errors.New("signer: channel is closed")

	// ErrSenderMismatch is returned when a request names a sender other
	// than the agent's principal.
	ErrSenderMismatch = errors.New("signer: sender does not match the signing identity")
)

func errInvalidRequest() *Error {
	return &Error{Code: CodeInvalidRequest, Message: "Invalid request"}
}

func errInvalidParams(cause error) *Error {
	return &Error{Code: CodeInvalidParams, Message: "Invalid params", Data: cause.Error()}
}

func errNotSupported() *Error {
	return &Error{Code: CodeNotSupported, Message: "Not supported"}
}

func errNotProcessed() *Error {
	return &Error{Code: CodeNotProcessed, Message: "Request not processed."}
}

func errValidationRequired() *Error {
	return &Error{Code: CodeValidationRequired, Message: "Validation required"}
}

func errValidationFailed() *Error {
	return &Error{Code: CodeValidationFailed, Message: "Validation failed."}
}

func errMissingReply() *Error {
	return &Error{Code: CodeNetworkError, Message: "Certificate is missing reply."}
}

func errRequestFailed(cause error) *Error {
	return &Error{Code: CodeNetworkError, Message: "Request failed.", Data: cause.Error()}
}

// NetworkError converts an error returned by Send into the error
// object remote callers receive.
func NetworkError(cause error) *Error {
	return &Error{Code: CodeNetworkError, Message: "Network error", Data: cause.Error()}
}

// ParseError is the error object for a request body that is not JSON.
func ParseError() *Error {
	return &Error{Code: CodeParseError, Message: "Parse error"}
}

// InvalidRequest is the error object for a structurally invalid
// request.
func InvalidRequest() *Error { return errInvalidRequest() }
