// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds small HTTP and connection helpers shared by the
// replica agent and the gateway.
//
// Body reads are always bounded. [ReadLimited] fails with
// [ErrBodyTooLarge] instead of silently truncating, so a certificate cut
// short never reaches the CBOR decoder.
package netutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxResponseSize bounds replica response bodies. Certificates with
// subnet delegations are a few kilobytes.
const MaxResponseSize int64 = 16 << 20

// maxErrorBody bounds the body text quoted in error messages.
const maxErrorBody = 512

// ErrBodyTooLarge is returned when a body exceeds its limit.
var ErrBodyTooLarge = errors.New("body exceeds size limit")

// ReadLimited reads body to EOF, failing if it is longer than limit.
func ReadLimited(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, limit)
	}
	return data, nil
}

// ReadResponse reads a replica response body up to MaxResponseSize.
func ReadResponse(body io.Reader) ([]byte, error) {
	return ReadLimited(body, MaxResponseSize)
}

// DecodeResponse reads a JSON body up to MaxResponseSize into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody returns the start of an error response body for use in an
// error message. Read errors are ignored.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody+1))
	text := strings.TrimSpace(string(data))
	if len(data) > maxErrorBody {
		text = strings.TrimSpace(string(data[:maxErrorBody])) + "..."
	}
	return text
}
