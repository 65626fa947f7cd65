// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package certificate

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// blsKeyDERPrefix is the DER header of a BLS12-381 G2 public key as
// published by the replica.
var blsKeyDERPrefix = mustDecodeHex("308182301d060d2b0601040182dc7c0503010201060c2b0601040182dc7c05030201036100")

// blsKeyLength is the size of a compressed G2 point.
const blsKeyLength = 96

// MainnetRootKey is the DER-encoded root public key of the Internet
// Computer mainnet.
//
// It is only a fallback for agents that were not configured with a
// root key. Certificates from local or test networks are signed by a
// different key and will fail verification against it.
var MainnetRootKey = mustDecodeHex("308182301d060d2b0601040182dc7c0503010201060c2b0601040182dc7c05030201036100" +
	"814c0e6ec71fab583b08bd81373c255c3c371b2e84863c98a4f1e08b74235d14fb5d9c0cd546d9685f913a0c0b2cc534" +
	"1583bf4b4392e467db96d65b9bb4cb717112f8472e0d5a4d14505ffd7484b01291091c5f87b98883463f98091a0baaae")

// RootKeyOrMainnet returns configured when it is non-empty and
// MainnetRootKey otherwise.
func RootKeyOrMainnet(configured []byte) []byte {
	if len(configured) > 0 {
		return configured
	}
	return MainnetRootKey
}

// ExtractBLSKey strips the DER header from a BLS public key.
func ExtractBLSKey(der []byte) ([]byte, error) {
	if len(der) != len(blsKeyDERPrefix)+blsKeyLength {
		return nil, fmt.Errorf("BLS public key is %d bytes, want %d", len(der), len(blsKeyDERPrefix)+blsKeyLength)
	}
	if !bytes.HasPrefix(der, blsKeyDERPrefix) {
		return nil, fmt.Errorf("public key is not a DER-encoded BLS12-381 key")
	}
	return der[len(blsKeyDERPrefix):], nil
}

// WrapBLSKey adds the DER header to a raw BLS public key.
func WrapBLSKey(raw []byte) []byte {
	der := make([]byte, 0, len(blsKeyDERPrefix)+len(raw))
	der = append(der, blsKeyDERPrefix...)
	return append(der, raw...)
}

func mustDecodeHex(value string) []byte {
	decoded, err := hex.DecodeString(value)
	if err != nil {
		panic("certificate: invalid hex constant: " + err.Error())
	}
	return decoded
}
