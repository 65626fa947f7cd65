// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/claimlink/signer/lib/certificate/certtest"
	"github.com/claimlink/signer/lib/codec"
	"github.com/claimlink/signer/lib/identity"
	"github.com/claimlink/signer/lib/netutil"
	"github.com/claimlink/signer/lib/requestid"
)

// wireEnvelope is the replica's view of a posted envelope.
type wireEnvelope struct {
	Content          codec.RawMessage                `cbor:"content"`
	SenderPubKey     []byte                          `cbor:"sender_pubkey"`
	SenderSig        []byte                          `cbor:"sender_sig"`
	SenderDelegation []identity.WireSignedDelegation `cbor:"sender_delegation"`
}

type receivedCall struct {
	effectiveCanister string
	content           CallContent
	envelope          wireEnvelope
}

// fakeReplica serves the v2 endpoints from in-memory state and signs
// certificates with certtest keys.
type fakeReplica struct {
	t      *testing.T
	server *httptest.Server

	mu sync.Mutex
	// statuses is consumed one entry per read_state; the last entry
	// repeats.
	statuses   map[requestid.RequestID][]string
	replies    map[requestid.RequestID][]byte
	calls      []receivedCall
	readStates []readStateContent
	callStatus int
	callBody   []byte
	rootKey    []byte
}

func newFakeReplica(t *testing.T) *fakeReplica {
	t.Helper()
	replica := &fakeReplica{
		t:          t,
		statuses:   make(map[requestid.RequestID][]string),
		replies:    make(map[requestid.RequestID][]byte),
		callStatus: http.StatusAccepted,
		rootKey:    certtest.RootKey,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v2/canister/{canister}/call", replica.handleCall)
	mux.HandleFunc("POST /api/v2/canister/{canister}/read_state", replica.handleReadState)
	mux.HandleFunc("GET /api/v2/status", replica.handleStatus)
	replica.server = httptest.NewServer(mux)
	t.Cleanup(replica.server.Close)
	return replica
}

// script sets the statuses returned for id and the reply certified
// once the status is "replied".
func (r *fakeReplica) script(id requestid.RequestID, reply []byte, statuses ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[id] = statuses
	r.replies[id] = reply
}

func (r *fakeReplica) receivedCalls() []receivedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]receivedCall(nil), r.calls...)
}

func (r *fakeReplica) readStateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.readStates)
}

func (r *fakeReplica) decodeEnvelope(w http.ResponseWriter, request *http.Request) (wireEnvelope, bool) {
	var envelope wireEnvelope
	if request.Header.Get("Content-Type") != cborContentType {
		http.Error(w, "wrong content type", http.StatusBadRequest)
		return envelope, false
	}
	body, err := netutil.ReadResponse(request.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return envelope, false
	}
	if err := codec.Unmarshal(body, &envelope); err != nil {
		http.Error(w, "bad envelope: "+err.Error(), http.StatusBadRequest)
		return envelope, false
	}
	return envelope, true
}

func (r *fakeReplica) handleCall(w http.ResponseWriter, request *http.Request) {
	envelope, ok := r.decodeEnvelope(w, request)
	if !ok {
		return
	}
	var content CallContent
	if err := codec.Unmarshal(envelope.Content, &content); err != nil {
		http.Error(w, "bad call content: "+err.Error(), http.StatusBadRequest)
		return
	}

	r.mu.Lock()
	r.calls = append(r.calls, receivedCall{
		effectiveCanister: request.PathValue("canister"),
		content:           content,
		envelope:          envelope,
	})
	status, body := r.callStatus, r.callBody
	r.mu.Unlock()

	w.WriteHeader(status)
	w.Write(body)
}

func (r *fakeReplica) handleReadState(w http.ResponseWriter, request *http.Request) {
	envelope, ok := r.decodeEnvelope(w, request)
	if !ok {
		return
	}
	var content readStateContent
	if err := codec.Unmarshal(envelope.Content, &content); err != nil {
		http.Error(w, "bad read_state content: "+err.Error(), http.StatusBadRequest)
		return
	}

	r.mu.Lock()
	r.readStates = append(r.readStates, content)
	subtrees := []any{}
	if len(content.Paths) > 0 && len(content.Paths[0]) >= 2 {
		var id requestid.RequestID
		copy(id[:], content.Paths[0][1])
		if queue, ok := r.statuses[id]; ok && len(queue) > 0 {
			status := queue[0]
			if len(queue) > 1 {
				r.statuses[id] = queue[1:]
			}
			var reply []byte
			if status == "replied" {
				reply = r.replies[id]
			}
			subtrees = append(subtrees, certtest.RequestStatus(id[:], status, reply))
		}
	}
	r.mu.Unlock()

	subtrees = append(subtrees, certtest.Time(time.Now()))
	cert := certtest.Build(certtest.Forks(subtrees...), certtest.RootKey)
	body, err := codec.Marshal(map[string]any{"certificate": cert})
	if err != nil {
		r.t.Errorf("encoding read_state response: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", cborContentType)
	w.Write(body)
}

func (r *fakeReplica) handleStatus(w http.ResponseWriter, request *http.Request) {
	r.mu.Lock()
	rootKey := r.rootKey
	r.mu.Unlock()
	body, err := codec.MarshalSelfDescribed(map[string]any{
		"root_key":              rootKey,
		"impl_version":          "test",
		"replica_health_status": "healthy",
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", cborContentType)
	w.Write(body)
}

// newTestAgent returns an agent pointed at replica that trusts
// certtest certificates and polls quickly.
func newTestAgent(t *testing.T, replica *fakeReplica, id identity.Identity) *HTTPAgent {
	t.Helper()
	agent, err := NewHTTPAgent(Options{
		Host:     replica.server.URL,
		Identity: id,
		RootKey:  certtest.RootKey,
		Verifier: certtest.Verifier{},
		Poll: PollStrategy{
			InitialDelay: time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
			Multiplier:   2,
			Timeout:      5 * time.Second,
		},
	})
	if err != nil {
		t.Fatalf("NewHTTPAgent: %v", err)
	}
	return agent
}
