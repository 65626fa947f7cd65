// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package candid

import (
	"fmt"

	"github.com/aviate-labs/agent-go/candid/idl"
	"github.com/aviate-labs/agent-go/principal"
)

// ValidationArgs is the argument of an ICRC-114 validation method:
//
//	record {
//	  canister_id : principal;
//	  method : text;
//	  arg : blob;
//	  res : blob;
//	  nonce : opt blob;
//	}
type ValidationArgs struct {
	CanisterID []byte
	Method     string
	Arg        []byte
	Result     []byte
	// Nonce is encoded as `null` when nil.
	Nonce []byte
}

var validationArgsType = idl.NewRecordType(map[string]idl.Type{
	"canister_id": new(idl.PrincipalType),
	"method":      new(idl.TextType),
	"arg":         idl.NewVectorType(idl.Nat8Type()),
	"res":         idl.NewVectorType(idl.Nat8Type()),
	"nonce":       idl.NewOptionalType(idl.NewVectorType(idl.Nat8Type())),
})

// EncodeValidationArgs encodes args as a single-argument Candid
// message.
func EncodeValidationArgs(args ValidationArgs) ([]byte, error) {
	var nonce any
	if args.Nonce != nil {
		nonce = args.Nonce
	}
	encoded, err := idl.Encode([]idl.Type{validationArgsType}, []any{map[string]any{
		"canister_id": principal.Principal{Raw: args.CanisterID},
		"method":      args.Method,
		"arg":         args.Arg,
		"res":         args.Result,
		"nonce":       nonce,
	}})
	if err != nil {
		return nil, fmt.Errorf("candid: encoding validation args: %w", err)
	}
	return encoded, nil
}

// EncodeBool encodes a single bool argument. Test replicas use it to
// answer validation calls.
func EncodeBool(value bool) []byte {
	return mustEncode(new(idl.BoolType), value)
}

var resultVariantType = idl.NewVariantType(map[string]idl.Type{
	"Ok":  new(idl.NatType),
	"Err": new(idl.TextType),
})

// EncodeResultVariant encodes `variant { Ok : nat; Err : text }` with
// the Err field selected when errText is non-empty and Ok(okValue)
// otherwise. It produces replies shaped like token-ledger transfer
// results.
func EncodeResultVariant(okValue uint64, errText string) []byte {
	if errText != "" {
		return mustEncode(resultVariantType, idl.Variant{Name: "Err", Value: errText})
	}
	return mustEncode(resultVariantType, idl.Variant{Name: "Ok", Value: idl.NewNat(okValue)})
}

// mustEncode encodes one value of a fixed type. The types above accept
// every value their callers pass, so an error is a programming fault.
func mustEncode(argType idl.Type, value any) []byte {
	encoded, err := idl.Encode([]idl.Type{argType}, []any{value})
	if err != nil {
		panic(fmt.Sprintf("candid: encoding %s: %v", argType, err))
	}
	return encoded
}
