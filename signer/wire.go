// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package signer

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Version is the only accepted value of the jsonrpc member.
const Version = "2.0"

// RequestID is a JSON-RPC id: a number or a string, kept as its raw
// JSON token so it is echoed back unchanged.
type RequestID struct {
	raw json.RawMessage
}

// NumberID returns a numeric id.
func NumberID(value int64) *RequestID {
	return &RequestID{raw: json.RawMessage(strconv.FormatInt(value, 10))}
}

// StringID returns a string id.
func StringID(value string) *RequestID {
	encoded, _ := json.Marshal(value)
	return &RequestID{raw: encoded}
}

func (id *RequestID) String() string {
	if id == nil || len(id.raw) == 0 {
		return "null"
	}
	return string(id.raw)
}

// MarshalJSON implements json.Marshaler.
func (id RequestID) MarshalJSON() ([]byte, error) {
	if len(id.raw) == 0 {
		return []byte("null"), nil
	}
	return id.raw, nil
}

// UnmarshalJSON accepts numbers and strings.
func (id *RequestID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return errors.New("empty request id")
	}
	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return fmt.Errorf("request id: %w", err)
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var number json.Number
		if err := json.Unmarshal(trimmed, &number); err != nil {
			return fmt.Errorf("request id: %w", err)
		}
	default:
		return fmt.Errorf("request id must be a number or a string, got %s", trimmed)
	}
	id.raw = bytes.Clone(trimmed)
	return nil
}

// Request is an inbound JSON-RPC request. A nil ID marks a
// notification; an explicit null id decodes to nil as well.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *RequestID      `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether no response is expected.
func (r *Request) IsNotification() bool { return r.ID == nil }

// NewRequest builds a request with params encoded as JSON.
func NewRequest(id *RequestID, method string, params any) (Request, error) {
	request := Request{JSONRPC: Version, ID: id, Method: method}
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return Request{}, fmt.Errorf("encoding %s params: %w", method, err)
		}
		request.Params = encoded
	}
	return request, nil
}

// DecodeRequest parses one JSON-RPC request message. Data that is not
// JSON fails with ParseError. A JSON value that is not a well-typed
// request object fails with InvalidRequest; the returned Request then
// carries only the id, when one could be recovered, so the error can
// be answered.
func DecodeRequest(data []byte) (Request, *Error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		if json.Valid(data) {
			return Request{}, errInvalidRequest()
		}
		return Request{}, ParseError()
	}
	if members == nil {
		return Request{}, errInvalidRequest()
	}

	var request Request
	if err := json.Unmarshal(data, &request); err != nil {
		var recovered Request
		if raw, ok := members["id"]; ok {
			var id RequestID
			if id.UnmarshalJSON(raw) == nil {
				recovered.ID = &id
			}
		}
		return recovered, errInvalidRequest()
	}
	return request, nil
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("json-rpc error %d: %s (%v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("json-rpc error %d: %s", e.Code, e.Message)
}

// Response is a JSON-RPC response. It holds either a result or an
// error, never both; ResultResponse and ErrorResponse are the only
// ways to build one.
type Response struct {
	id     *RequestID
	result json.RawMessage
	err    *Error
}

// ResultResponse builds a success response. A nil result encodes as
// JSON null.
func ResultResponse(id *RequestID, result json.RawMessage) Response {
	if result == nil {
		result = json.RawMessage("null")
	}
	return Response{id: id, result: result}
}

// ErrorResponse builds an error response. id is nil when the request
// could not be parsed far enough to read it.
func ErrorResponse(id *RequestID, err *Error) Response {
	return Response{id: id, err: err}
}

// ID returns the id of the request being answered.
func (r Response) ID() *RequestID { return r.id }

// Result returns the result and true for a success response.
func (r Response) Result() (json.RawMessage, bool) {
	return r.result, r.err == nil
}

// Err returns the error object of an error response, or nil.
func (r Response) Err() *Error { return r.err }

// DecodeResult unmarshals the result of a success response into v.
func (r Response) DecodeResult(v any) error {
	if r.err != nil {
		return r.err
	}
	return json.Unmarshal(r.result, v)
}

type wireResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *RequestID      `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r Response) MarshalJSON() ([]byte, error) {
	wire := wireResponse{JSONRPC: Version, ID: r.id}
	if r.err != nil {
		wire.Error = r.err
	} else {
		wire.Result = r.result
		if wire.Result == nil {
			wire.Result = json.RawMessage("null")
		}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON rejects objects carrying both or neither of result and
// error.
func (r *Response) UnmarshalJSON(data []byte) error {
	var wire struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      *RequestID      `json:"id"`
		Result  json.RawMessage `json:"result"`
		Error   *Error          `json:"error"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	hasResult := wire.Result != nil
	hasError := wire.Error != nil
	if hasResult == hasError {
		return errors.New("response must carry exactly one of result and error")
	}
	*r = Response{id: wire.ID, result: wire.Result, err: wire.Error}
	return nil
}

// Base64Bytes is binary data carried as standard base64 text.
type Base64Bytes []byte

// MarshalJSON implements json.Marshaler.
func (b Base64Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(b))
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Base64Bytes) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("base64 field must be a string: %w", err)
	}
	decoded, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return fmt.Errorf("decoding base64: %w", err)
	}
	*b = decoded
	return nil
}

// NanosString is a count of nanoseconds carried as a decimal string.
type NanosString uint64

// MarshalJSON implements json.Marshaler.
func (n NanosString) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(n), 10))
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NanosString) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("nanoseconds must be a decimal string: %w", err)
	}
	value, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return fmt.Errorf("parsing nanoseconds %q: %w", text, err)
	}
	*n = NanosString(value)
	return nil
}
