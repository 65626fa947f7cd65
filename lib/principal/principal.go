// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package principal

import (
	"errors"
	"fmt"

	icprincipal "github.com/aviate-labs/agent-go/principal"
)

// MaxLength is the largest principal in bytes.
const MaxLength = 29

// ErrInvalidText is returned (wrapped) for every malformed textual
// principal.
var ErrInvalidText = errors.New("invalid principal text")

// Principal is an immutable principal identifier. The zero value is
// the management canister (empty byte string). Principals are
// comparable with ==.
type Principal struct {
	raw string
}

// Anonymous is the principal of unauthenticated callers.
var Anonymous = Principal{raw: string(icprincipal.AnonymousID.Raw)}

// Management is the management canister, "aaaaa-aa".
var Management = Principal{}

// FromBytes returns the principal with the given raw bytes.
func FromBytes(raw []byte) (Principal, error) {
	if len(raw) > MaxLength {
		return Principal{}, fmt.Errorf("principal is %d bytes, maximum is %d", len(raw), MaxLength)
	}
	return Principal{raw: string(raw)}, nil
}

// FromAgent converts the agent library's principal type.
func FromAgent(p icprincipal.Principal) (Principal, error) {
	return FromBytes(p.Raw)
}

// SelfAuthenticating derives the principal controlled by a DER-encoded
// public key.
func SelfAuthenticating(derPublicKey []byte) Principal {
	return Principal{raw: string(icprincipal.NewSelfAuthenticating(derPublicKey).Raw)}
}

// FromText parses the canonical textual form of a principal.
func FromText(text string) (Principal, error) {
	if text == "" {
		return Principal{}, fmt.Errorf("%w: empty string", ErrInvalidText)
	}
	decoded, err := icprincipal.Decode(text)
	if err != nil {
		return Principal{}, fmt.Errorf("%w %q: %v", ErrInvalidText, text, err)
	}
	parsed, err := FromAgent(decoded)
	if err != nil {
		return Principal{}, fmt.Errorf("%w %q: %v", ErrInvalidText, text, err)
	}
	if canonical := parsed.String(); canonical != text {
		return Principal{}, fmt.Errorf("%w %q: not in canonical form (expected %q)", ErrInvalidText, text, canonical)
	}
	return parsed, nil
}

// MustFromText is FromText for compile-time constants. Panics on error.
func MustFromText(text string) Principal {
	parsed, err := FromText(text)
	if err != nil {
		panic(err)
	}
	return parsed
}

// Bytes returns a copy of the raw principal bytes.
func (p Principal) Bytes() []byte {
	return []byte(p.raw)
}

// Len returns the length of the raw principal in bytes.
func (p Principal) Len() int {
	return len(p.raw)
}

// IsAnonymous reports whether p is the anonymous principal.
func (p Principal) IsAnonymous() bool {
	return p == Anonymous
}

// String returns the canonical textual form.
func (p Principal) String() string {
	return p.Agent().Encode()
}

// Agent returns p as the agent library's principal type, the form
// Candid values carry.
func (p Principal) Agent() icprincipal.Principal {
	return icprincipal.Principal{Raw: []byte(p.raw)}
}

// MarshalText implements encoding.TextMarshaler so principals appear
// in their textual form in JSON.
func (p Principal) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Principal) UnmarshalText(text []byte) error {
	parsed, err := FromText(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
