// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// selfDescribeTag is the encoded form of CBOR tag 55799. Replicas
// accept and emit messages with and without it.
var selfDescribeTag = []byte{0xd9, 0xd9, 0xf7}

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2).
var encMode cbor.EncMode

// decMode is the CBOR decoder. Unknown fields are silently ignored so
// that newer replica responses still decode.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Hash trees and status maps are decoded into any-typed
		// targets. The CBOR default of map[interface{}]interface{}
		// is awkward to walk and incompatible with encoding/json.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// A read_state tree for a busy subnet carries more array
		// elements than the library default allows.
		MaxArrayElements: 1 << 20,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// MarshalSelfDescribed encodes v and prefixes the result with the
// self-describe tag, the framing replicas expect on request bodies.
func MarshalSelfDescribed(v any) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, err
	}
	framed := make([]byte, 0, len(selfDescribeTag)+len(data))
	framed = append(framed, selfDescribeTag...)
	return append(framed, data...), nil
}

// StripSelfDescribe returns data without a leading self-describe tag.
// Data without the tag is returned unchanged.
func StripSelfDescribe(data []byte) []byte {
	return bytes.TrimPrefix(data, selfDescribeTag)
}

// Unmarshal decodes CBOR data into v. A leading self-describe tag is
// ignored.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(StripSelfDescribe(data), v)
}

// Encoder is a CBOR stream encoder. Type alias so consumers import
// only lib/codec, not fxamacker/cbor directly.
type Encoder = cbor.Encoder

// Decoder is a CBOR stream decoder.
type Decoder = cbor.Decoder

// RawMessage is a raw encoded CBOR value, used to delay decoding of
// nested structures such as hash trees.
type RawMessage = cbor.RawMessage

// NewEncoder returns a CBOR encoder that writes to w using Core
// Deterministic Encoding.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a CBOR decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for
// data. Used in debug logging of replica rejects.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(StripSelfDescribe(data))
}
