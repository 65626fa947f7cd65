// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package certificate

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/aviate-labs/agent-go/certification/hashtree"

	"github.com/claimlink/signer/lib/codec"
	"github.com/claimlink/signer/lib/principal"
)

// DefaultMaxAge bounds how far a certificate's time may drift from the
// local clock in either direction.
const DefaultMaxAge = 5 * time.Minute

// ErrVerification is wrapped by every verification failure.
var ErrVerification = errors.New("certificate verification failed")

// Verifier checks a signature made with a raw (not DER-wrapped) public
// key.
type Verifier interface {
	VerifySignature(publicKey, message, signature []byte) error
}

// VerifyOptions configures Verify.
type VerifyOptions struct {
	// RootKey is the DER-encoded root public key. Use RootKeyOrMainnet
	// to apply the mainnet fallback explicitly.
	RootKey []byte

	// CanisterID is the canister the certificate is expected to speak
	// for. A delegated certificate must cover it.
	CanisterID principal.Principal

	// Verifier checks BLS signatures. Defaults to BLSVerifier.
	Verifier Verifier

	// Now is the reference time for the freshness check.
	Now time.Time

	// MaxAge overrides DefaultMaxAge. Negative disables the check.
	MaxAge time.Duration
}

// Verify checks that cert is signed by the subnet responsible for the
// configured canister, that the signing key is rooted in RootKey, and
// that the certificate is fresh.
func Verify(cert *Certificate, options VerifyOptions) error {
	if len(options.RootKey) == 0 {
		return fmt.Errorf("%w: no root key", ErrVerification)
	}
	if options.Verifier == nil {
		options.Verifier = BLSVerifier{}
	}
	if options.MaxAge == 0 {
		options.MaxAge = DefaultMaxAge
	}
	return verify(cert, options, true)
}

func verify(cert *Certificate, options VerifyOptions, allowDelegation bool) error {
	signingKey := options.RootKey
	if cert.Delegation != nil {
		if !allowDelegation {
			return fmt.Errorf("%w: nested delegation", ErrVerification)
		}
		subnetKey, err := checkDelegation(cert.Delegation, options)
		if err != nil {
			return err
		}
		signingKey = subnetKey
	}

	rawKey, err := ExtractBLSKey(signingKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}

	message := SignedMessage(cert.Tree.Digest())
	if err := options.Verifier.VerifySignature(rawKey, message, cert.Signature); err != nil {
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}

	if options.MaxAge > 0 {
		if options.Now.IsZero() {
			return fmt.Errorf("%w: no reference time for freshness check", ErrVerification)
		}
		certified, err := cert.Time()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrVerification, err)
		}
		drift := options.Now.Sub(certified)
		if drift > options.MaxAge {
			return fmt.Errorf("%w: certificate is %s old (limit %s)", ErrVerification, drift, options.MaxAge)
		}
		if -drift > options.MaxAge {
			return fmt.Errorf("%w: certificate is %s in the future (limit %s)", ErrVerification, -drift, options.MaxAge)
		}
	}
	return nil
}

// SignedMessage returns the bytes a subnet signs for a tree with the
// given root hash.
func SignedMessage(root Digest) []byte {
	return append(hashtree.DomainSeparator("ic-state-root"), root[:]...)
}

// checkDelegation verifies the root-subnet certificate embedded in a
// delegation and returns the delegated subnet's DER public key.
func checkDelegation(delegation *Delegation, options VerifyOptions) ([]byte, error) {
	parent, err := Parse(delegation.Certificate)
	if err != nil {
		return nil, fmt.Errorf("%w: delegation: %v", ErrVerification, err)
	}

	parentOptions := options
	// Delegation certificates are long-lived and are not subject to
	// the freshness limit.
	parentOptions.MaxAge = -1
	if err := verify(parent, parentOptions, false); err != nil {
		return nil, fmt.Errorf("delegation: %w", err)
	}

	rangesRaw, status := parent.Lookup(NewPath("subnet", delegation.SubnetID, "canister_ranges"))
	if status != Found {
		return nil, fmt.Errorf("%w: delegation canister ranges are %s", ErrVerification, status)
	}
	var ranges [][2][]byte
	if err := codec.Unmarshal(rangesRaw, &ranges); err != nil {
		return nil, fmt.Errorf("%w: decoding canister ranges: %v", ErrVerification, err)
	}
	canister := options.CanisterID.Bytes()
	covered := false
	for _, canisterRange := range ranges {
		if bytes.Compare(canisterRange[0], canister) <= 0 && bytes.Compare(canister, canisterRange[1]) <= 0 {
			covered = true
			break
		}
	}
	if !covered {
		return nil, fmt.Errorf("%w: subnet is not authorized for canister %s", ErrVerification, options.CanisterID)
	}

	publicKey, status := parent.Lookup(NewPath("subnet", delegation.SubnetID, "public_key"))
	if status != Found {
		return nil, fmt.Errorf("%w: delegated subnet public key is %s", ErrVerification, status)
	}
	return publicKey, nil
}
