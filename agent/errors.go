// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import "fmt"

// RejectError is a synchronous rejection of a call by the replica.
type RejectError struct {
	// Code is the IC reject code (1 system fatal ... 5 canister error).
	Code uint64 `cbor:"reject_code"`

	Message string `cbor:"reject_message"`

	// ErrorCode is the replica's structured error code, e.g.
	// "IC0503", when it sends one.
	ErrorCode string `cbor:"error_code,omitempty"`
}

func (e *RejectError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("call rejected (code %d, %s): %s", e.Code, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("call rejected (code %d): %s", e.Code, e.Message)
}

// HTTPError is an unexpected HTTP status from the replica.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("replica returned %d for %s %s: %s", e.StatusCode, e.Method, e.Path, e.Body)
}
