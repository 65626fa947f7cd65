// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package certificate

import (
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/bls"
)

// BLSVerifier verifies BLS12-381 signatures in the minimal-signature
// configuration subnets use: public keys in G2, signatures in G1,
// hash-to-curve domain BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_NUL_.
type BLSVerifier struct{}

// VerifySignature implements Verifier.
func (BLSVerifier) VerifySignature(publicKey, message, signature []byte) error {
	var key bls.PublicKey[bls.KeyG2SigG1]
	if err := key.UnmarshalBinary(publicKey); err != nil {
		return fmt.Errorf("decoding BLS public key: %w", err)
	}
	if !bls.Verify(&key, message, signature) {
		return errors.New("BLS signature does not match")
	}
	return nil
}
