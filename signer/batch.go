// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package signer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/claimlink/signer/agent"
	"github.com/claimlink/signer/lib/candid"
	"github.com/claimlink/signer/lib/principal"
)

// fastPathPrefixes are the token standard methods whose replies are
// checked for an Err variant without consulting a validation canister.
var fastPathPrefixes = []string{
	"icrc1_transfer",
	"icrc2_approve",
	"icrc2_transfer_from",
	"icrc7_transfer",
	"icrc37_approve",
	"icrc37_transfer_from",
	"icrc37_revoke",
}

func hasFastPath(method string) bool {
	for _, prefix := range fastPathPrefixes {
		if strings.HasPrefix(method, prefix) {
			return true
		}
	}
	return false
}

// batchRun is the state shared by every request of one
// icrc112_batch_call_canister invocation.
type batchRun struct {
	d          *dispatcher
	validation *validator
	failed     atomic.Bool
}

// validator is the ICRC-114 validation canister of a batch.
type validator struct {
	canister principal.Principal
	method   string
}

func handleBatchCallCanister(ctx context.Context, d *dispatcher, raw json.RawMessage) (any, *Error, error) {
	var params BatchCallCanisterParams
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr, nil
	}

	total := 0
	for _, group := range params.Requests {
		total += len(group)
	}
	if total > 1 && (params.Validation == nil || params.Validation.CanisterID == "") {
		return nil, errValidationRequired(), nil
	}
	if err := d.checkSender(params.Sender); err != nil {
		return nil, nil, err
	}

	run := &batchRun{d: d}
	if params.Validation != nil && params.Validation.CanisterID != "" {
		canister, err := principal.FromText(params.Validation.CanisterID)
		if err != nil {
			return nil, errInvalidParams(fmt.Errorf("validation.canisterId: %w", err)), nil
		}
		method := params.Validation.Method
		if method == "" {
			method = d.validatorMethod
		}
		run.validation = &validator{canister: canister, method: method}
	}

	responses := make([][]BatchResult, len(params.Requests))
	for groupIndex, group := range params.Requests {
		results := make([]BatchResult, len(group))
		var wg sync.WaitGroup
		for index, request := range group {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[index] = run.execute(ctx, request)
			}()
		}
		wg.Wait()
		responses[groupIndex] = results
		d.logger.Debug("batch group settled", "group", groupIndex, "size", len(group), "failed", run.failed.Load())
	}
	return BatchCallCanisterResult{Responses: responses}, nil, nil
}

// execute runs one request of the batch. Requests that start after
// another request failed are not submitted.
func (r *batchRun) execute(ctx context.Context, request BatchRequest) BatchResult {
	if r.failed.Load() {
		return BatchFailure(errNotProcessed())
	}
	result, rpcErr, err := r.call(ctx, request)
	if err != nil {
		r.failed.Store(true)
		r.d.logger.Warn("batch request failed", "canister", request.CanisterID, "method", request.Method, "error", err)
		return BatchFailure(errRequestFailed(err))
	}
	if rpcErr != nil {
		r.failed.Store(true)
		return BatchFailure(rpcErr)
	}
	return BatchSuccess(result)
}

func (r *batchRun) call(ctx context.Context, request BatchRequest) (CallCanisterResult, *Error, error) {
	canister, err := principal.FromText(request.CanisterID)
	if err != nil {
		return CallCanisterResult{}, nil, fmt.Errorf("canisterId: %w", err)
	}

	outcome, err := r.d.certifiedCall(ctx, canister, request.Method, request.Arg, request.Nonce, agent.StatusPath, agent.ReplyPath)
	if err != nil {
		return CallCanisterResult{}, nil, err
	}
	success := CallCanisterResult{ContentMap: outcome.contentMap, Certificate: outcome.rawCertificate}

	reply, ok := outcome.reply()
	if outcome.status() != agent.StatusReplied || !ok {
		return CallCanisterResult{}, errMissingReply(), nil
	}

	if hasFastPath(request.Method) {
		isErr, err := candid.IsErrVariant(reply)
		if err == nil && isErr {
			return CallCanisterResult{}, errValidationFailed(), nil
		}
		return success, nil, nil
	}

	if r.validation != nil {
		valid, err := r.validate(ctx, canister, request, reply)
		if err != nil {
			return CallCanisterResult{}, nil, err
		}
		if !valid {
			return CallCanisterResult{}, errValidationFailed(), nil
		}
	}
	return success, nil, nil
}

// validate asks the validation canister whether reply is an
// acceptable outcome of request.
func (r *batchRun) validate(ctx context.Context, canister principal.Principal, request BatchRequest, reply []byte) (bool, error) {
	arg, err := candid.EncodeValidationArgs(candid.ValidationArgs{
		CanisterID: canister.Bytes(),
		Method:     request.Method,
		Arg:        request.Arg,
		Result:     reply,
		Nonce:      request.Nonce,
	})
	if err != nil {
		return false, err
	}

	outcome, err := r.d.certifiedCall(ctx, r.validation.canister, r.validation.method, arg, nil, agent.StatusPath, agent.ReplyPath)
	if err != nil {
		return false, fmt.Errorf("validating with %s: %w", r.validation.canister, err)
	}
	answer, ok := outcome.reply()
	if outcome.status() != agent.StatusReplied || !ok {
		return false, fmt.Errorf("validating with %s: %w", r.validation.canister, errValidatorNoReply)
	}
	valid, err := candid.DecodeBool(answer)
	if err != nil {
		return false, fmt.Errorf("decoding validation reply: %w", err)
	}
	r.d.logger.Debug("batch request validated", "canister", request.CanisterID, "method", request.Method, "valid", valid)
	return valid, nil
}

var errValidatorNoReply = errors.New("validation canister did not reply")
