// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package candid

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/aviate-labs/agent-go/candid/idl"
)

// ErrShapeMismatch is returned when a well-formed message does not
// have the shape the caller asked for.
var ErrShapeMismatch = errors.New("candid: value does not match expected type")

// Hash returns the Candid field hash of a label.
func Hash(label string) uint32 {
	return uint32(idl.Hash(label).Uint64())
}

// decode parses a complete message. The idl decoder indexes slices
// straight from wire lengths, so a panic on hostile input is reported
// as an ordinary decode error.
func decode(data []byte) (types []idl.Type, values []any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			types, values = nil, nil
			err = fmt.Errorf("candid: malformed message: %v", recovered)
		}
	}()
	types, values, err = idl.Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("candid: %w", err)
	}
	if len(types) != len(values) {
		return nil, nil, fmt.Errorf("candid: %d argument types for %d values", len(types), len(values))
	}
	return types, values, nil
}

// first decodes data and returns its first argument.
func first(data []byte) (idl.Type, any, error) {
	types, values, err := decode(data)
	if err != nil {
		return nil, nil, err
	}
	if len(values) == 0 {
		return nil, nil, fmt.Errorf("%w: message has no arguments", ErrShapeMismatch)
	}
	return types[0], values[0], nil
}

// DecodeBool decodes a message whose first argument is a bool.
func DecodeBool(data []byte) (bool, error) {
	argType, value, err := first(data)
	if err != nil {
		return false, err
	}
	if _, ok := argType.(*idl.BoolType); !ok {
		return false, fmt.Errorf("%w: first argument is %s, not bool", ErrShapeMismatch, argType)
	}
	decoded, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%w: bool decoded as %T", ErrShapeMismatch, value)
	}
	return decoded, nil
}

// VariantField returns the field hash selected by the variant that is
// the first argument of data.
func VariantField(data []byte) (uint32, error) {
	argType, value, err := first(data)
	if err != nil {
		return 0, err
	}
	if _, ok := argType.(*idl.VariantType); !ok {
		return 0, fmt.Errorf("%w: first argument is %s, not a variant", ErrShapeMismatch, argType)
	}
	selected, ok := value.(*idl.Variant)
	if !ok {
		return 0, fmt.Errorf("%w: variant decoded as %T", ErrShapeMismatch, value)
	}
	// Decoded field names are the decimal field hashes.
	hash, err := strconv.ParseUint(selected.Name, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("candid: variant field %q: %w", selected.Name, err)
	}
	return uint32(hash), nil
}

// IsErrVariant reports whether the first argument of data is a variant
// with its Err field selected. A variant that selects any other field
// is a shape mismatch: callers use this to recognize failed results,
// and anything else must be checked another way.
func IsErrVariant(data []byte) (bool, error) {
	hash, err := VariantField(data)
	if err != nil {
		return false, err
	}
	if hash != Hash("Err") {
		return false, fmt.Errorf("%w: variant selects field %d", ErrShapeMismatch, hash)
	}
	return true, nil
}
