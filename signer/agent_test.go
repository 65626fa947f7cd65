// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package signer

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/claimlink/signer/agent"
	"github.com/claimlink/signer/lib/candid"
	"github.com/claimlink/signer/lib/certificate"
	"github.com/claimlink/signer/lib/certificate/certtest"
	"github.com/claimlink/signer/lib/clock"
	"github.com/claimlink/signer/lib/identity"
	"github.com/claimlink/signer/lib/principal"
	"github.com/claimlink/signer/lib/requestid"
)

var (
	epoch              = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger             = principal.MustFromText("ryjl3-tyaaa-aaaaa-aaaba-cai")
	validationCanister = principal.MustFromText("rrkah-fqaaa-aaaaa-aaaaq-cai")
)

// outcome is what the fake network certifies for one call.
type outcome struct {
	status string
	reply  []byte
}

func replied(reply []byte) outcome { return outcome{status: "replied", reply: reply} }

// fakeAgent answers calls from a script consumed in call order and
// certifies outcomes with certtest keys at the fake clock's time.
type fakeAgent struct {
	identity identity.Identity
	clock    clock.Clock

	mu       sync.Mutex
	script   []outcome
	calls    []agent.CallContent
	outcomes map[requestid.RequestID]outcome
	callErr  error
	pollErr  error

	// gates hold calls to a method until the channel is closed.
	gates map[string]chan struct{}
	// methodErrs fail calls to a method; each failure is reported on
	// failures when it is non-nil.
	methodErrs map[string]error
	failures   chan string
}

func newFakeAgent(t *testing.T, fakeClock clock.Clock, script ...outcome) *fakeAgent {
	t.Helper()
	signer, err := identity.NewEd25519(bytes.Repeat([]byte{3}, ed25519.SeedSize))
	if err != nil {
		t.Fatalf("NewEd25519: %v", err)
	}
	return &fakeAgent{
		identity: signer,
		clock:    fakeClock,
		script:   script,
		outcomes: make(map[requestid.RequestID]outcome),
	}
}

func (a *fakeAgent) Identity() identity.Identity { return a.identity }

func (a *fakeAgent) RootKey() []byte { return certtest.RootKey }

func (a *fakeAgent) Call(ctx context.Context, canister principal.Principal, options agent.CallOptions) (requestid.RequestID, error) {
	if a.callErr != nil {
		return requestid.RequestID{}, a.callErr
	}
	if err, ok := a.methodErrs[options.MethodName]; ok {
		if a.failures != nil {
			a.failures <- options.MethodName
		}
		return requestid.RequestID{}, err
	}
	if gate, ok := a.gates[options.MethodName]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return requestid.RequestID{}, ctx.Err()
		}
	}
	nonce := options.Nonce
	if nonce == nil {
		nonce = []byte{0xfe}
	}
	content := &agent.CallContent{
		RequestType:   "call",
		CanisterID:    canister.Bytes(),
		MethodName:    options.MethodName,
		Arg:           bytes.Clone(options.Arg),
		Sender:        a.identity.Principal().Bytes(),
		IngressExpiry: uint64(a.clock.Now().Add(4 * time.Minute).UnixNano()),
		Nonce:         nonce,
	}
	for _, transform := range options.Transforms {
		if err := transform(content); err != nil {
			return requestid.RequestID{}, err
		}
	}
	id, err := content.RequestID()
	if err != nil {
		return requestid.RequestID{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	next := replied(candid.EncodeBool(true))
	if len(a.script) > 0 {
		next, a.script = a.script[0], a.script[1:]
	}
	a.calls = append(a.calls, content.Clone())
	a.outcomes[id] = next
	return id, nil
}

func (a *fakeAgent) PollForResponse(context.Context, principal.Principal, requestid.RequestID) error {
	return a.pollErr
}

func (a *fakeAgent) ReadState(_ context.Context, _ principal.Principal, paths []certificate.Path) ([]byte, error) {
	if len(paths) == 0 || len(paths[0]) < 2 {
		return nil, errors.New("fake agent: unexpected read_state paths")
	}
	id := requestid.RequestID(paths[0][1])

	a.mu.Lock()
	result, ok := a.outcomes[id]
	a.mu.Unlock()
	if !ok {
		return nil, errors.New("fake agent: unknown request")
	}
	tree := certtest.Forks(
		certtest.RequestStatus(id.Bytes(), result.status, result.reply),
		certtest.Time(a.clock.Now()),
	)
	return certtest.Build(tree, certtest.RootKey), nil
}

// callLog returns the content of every call in submission order.
func (a *fakeAgent) callLog() []agent.CallContent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]agent.CallContent(nil), a.calls...)
}

// harness is a channel over a fake agent that records responses.
type harness struct {
	agent     *fakeAgent
	clock     *clock.FakeClock
	transport *Transport
	channel   *Channel

	mu        sync.Mutex
	responses []Response
}

func newHarness(t *testing.T, script ...outcome) *harness {
	t.Helper()
	fakeClock := clock.Fake(epoch)
	fake := newFakeAgent(t, fakeClock, script...)
	transport, err := NewTransport(TransportOptions{
		Agent:    fake,
		Verifier: certtest.Verifier{},
		Clock:    fakeClock,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	channel, err := transport.EstablishChannel()
	if err != nil {
		t.Fatalf("EstablishChannel: %v", err)
	}
	h := &harness{agent: fake, clock: fakeClock, transport: transport, channel: channel}
	channel.AddResponseListener(func(response Response) {
		h.mu.Lock()
		h.responses = append(h.responses, response)
		h.mu.Unlock()
	})
	return h
}

// call sends one request and returns the single response it produced.
func (h *harness) call(t *testing.T, method string, params any) Response {
	t.Helper()
	request, err := NewRequest(NumberID(1), method, params)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	h.mu.Lock()
	before := len(h.responses)
	h.mu.Unlock()

	if err := h.channel.Send(context.Background(), request); err != nil {
		t.Fatalf("Send(%s): %v", method, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.responses) != before+1 {
		t.Fatalf("Send(%s) produced %d responses, want 1", method, len(h.responses)-before)
	}
	return h.responses[before]
}

// result decodes a successful response into v.
func result[T any](t *testing.T, response Response) T {
	t.Helper()
	if rpcErr := response.Err(); rpcErr != nil {
		t.Fatalf("unexpected error response: %d %s %v", rpcErr.Code, rpcErr.Message, rpcErr.Data)
	}
	var value T
	if err := response.DecodeResult(&value); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	return value
}
