// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package candid

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/aviate-labs/leb128"
)

// AppendUleb128 appends the unsigned LEB128 encoding of value.
func AppendUleb128(dst []byte, value uint64) []byte {
	encoded, err := leb128.EncodeUnsigned(new(big.Int).SetUint64(value))
	if err != nil {
		// EncodeUnsigned only fails for negative input.
		panic(err)
	}
	return append(dst, encoded...)
}

// DecodeUleb128 decodes data, which must contain exactly one unsigned
// LEB128 value that fits in 64 bits.
func DecodeUleb128(data []byte) (uint64, error) {
	r := bytes.NewReader(data)
	value, err := leb128.DecodeUnsigned(r)
	if err != nil {
		return 0, fmt.Errorf("candid: decoding LEB128: %w", err)
	}
	if r.Len() != 0 {
		return 0, fmt.Errorf("candid: %d trailing bytes after LEB128 value", r.Len())
	}
	if !value.IsUint64() {
		return 0, fmt.Errorf("candid: LEB128 value overflows 64 bits")
	}
	return value.Uint64(), nil
}
