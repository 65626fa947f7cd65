// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package requestid computes representation-independent hashes of
// request content maps.
//
// Hashing is delegated to the agent-go certification package: the hash
// of a map is SHA-256 over the sorted concatenation of SHA-256(key) ||
// hash(value) for every field, so the same content yields the same
// request ID no matter how it was serialized. This package narrows the
// accepted Go types to the ones request content actually uses and
// normalizes them before hashing.
package requestid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/aviate-labs/agent-go/certification"
)

// RequestID identifies a submitted request. It is also the value
// signed by the sender.
type RequestID [sha256.Size]byte

// String returns the lowercase hex encoding.
func (id RequestID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the ID as a byte slice.
func (id RequestID) Bytes() []byte {
	return id[:]
}

// Parse decodes a hex request ID.
func Parse(value string) (RequestID, error) {
	var id RequestID
	decoded, err := hex.DecodeString(value)
	if err != nil {
		return id, fmt.Errorf("parsing request id: %w", err)
	}
	if len(decoded) != len(id) {
		return id, fmt.Errorf("request id is %d bytes, want %d", len(decoded), len(id))
	}
	copy(id[:], decoded)
	return id, nil
}

// Of hashes a content map. Supported value types are []byte, string,
// unsigned and non-negative signed integers up to math.MaxInt64,
// [][]byte, []any and map[string]any (recursively). Fields whose value
// is nil are skipped, matching absent optional fields.
func Of(fields map[string]any) (RequestID, error) {
	pairs := make([]certification.KeyValuePair, 0, len(fields))
	for key, value := range fields {
		if value == nil {
			continue
		}
		normalized, err := normalize(value)
		if err != nil {
			return RequestID{}, fmt.Errorf("hashing field %q: %w", key, err)
		}
		pairs = append(pairs, certification.KeyValuePair{Key: key, Value: normalized})
	}
	digest, err := certification.RepresentationIndependentHash(pairs)
	if err != nil {
		return RequestID{}, fmt.Errorf("hashing request content: %w", err)
	}
	return RequestID(digest), nil
}

// normalize converts value into the types the certification hasher
// understands, rejecting anything that would hash ambiguously.
func normalize(value any) (any, error) {
	switch typed := value.(type) {
	case []byte, string:
		return typed, nil
	case uint64:
		return natural(typed)
	case uint:
		return natural(uint64(typed))
	case uint32:
		return uint64(typed), nil
	case int:
		return normalize(int64(typed))
	case int64:
		if typed < 0 {
			return nil, fmt.Errorf("negative integer %d", typed)
		}
		return uint64(typed), nil
	case [][]byte:
		elements := make([]any, len(typed))
		for index, element := range typed {
			elements[index] = element
		}
		return elements, nil
	case []any:
		elements := make([]any, len(typed))
		for index, element := range typed {
			normalized, err := normalize(element)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", index, err)
			}
			elements[index] = normalized
		}
		return elements, nil
	case map[string]any:
		nested := make(map[string]any, len(typed))
		for key, element := range typed {
			if element == nil {
				continue
			}
			normalized, err := normalize(element)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			nested[key] = normalized
		}
		return nested, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
}

// natural bounds unsigned integers to the range the hasher encodes
// without sign loss.
func natural(value uint64) (any, error) {
	if value > math.MaxInt64 {
		return nil, fmt.Errorf("integer %d exceeds %d", value, int64(math.MaxInt64))
	}
	return value, nil
}
