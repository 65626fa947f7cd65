// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/claimlink/signer/lib/binhash"
	"github.com/claimlink/signer/lib/certificate"
	"github.com/claimlink/signer/lib/clock"
	"github.com/claimlink/signer/lib/codec"
	"github.com/claimlink/signer/lib/identity"
	"github.com/claimlink/signer/lib/netutil"
	"github.com/claimlink/signer/lib/principal"
	"github.com/claimlink/signer/lib/requestid"
)

const cborContentType = "application/cbor"

// DefaultIngressExpiry is how far ahead call envelopes expire.
const DefaultIngressExpiry = 4 * time.Minute

// Options configures an HTTPAgent.
type Options struct {
	// Host is the replica base URL. Defaults to DefaultHost.
	Host string

	// Identity signs requests. Defaults to the anonymous identity.
	Identity identity.Identity

	// HTTPClient defaults to a client with a 30 second timeout.
	HTTPClient *http.Client

	// RootKey is the DER root key of the network. Leave nil for
	// mainnet or call FetchRootKey for a local replica.
	RootKey []byte

	// IngressExpiry defaults to DefaultIngressExpiry.
	IngressExpiry time.Duration

	Poll PollStrategy

	// Verifier checks certificate signatures. Defaults to BLS.
	Verifier certificate.Verifier

	Clock  clock.Clock
	Logger *slog.Logger
}

// HTTPAgent implements Agent over the replica HTTP API v2.
type HTTPAgent struct {
	baseURL       string
	httpClient    *http.Client
	identity      identity.Identity
	ingressExpiry time.Duration
	poll          PollStrategy
	verifier      certificate.Verifier
	clock         clock.Clock
	logger        *slog.Logger

	mu         sync.RWMutex
	rootKey    []byte
	transforms []Transform
}

var _ Agent = (*HTTPAgent)(nil)

// NewHTTPAgent validates options and returns an agent. It makes no
// network requests.
func NewHTTPAgent(options Options) (*HTTPAgent, error) {
	host := options.Host
	if host == "" {
		host = DefaultHost
	}
	parsed, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("agent: invalid host %q: %w", host, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("agent: host %q must be an http or https URL", host)
	}

	agent := &HTTPAgent{
		baseURL:       strings.TrimRight(host, "/"),
		httpClient:    options.HTTPClient,
		identity:      options.Identity,
		ingressExpiry: options.IngressExpiry,
		poll:          options.Poll.withDefaults(),
		verifier:      options.Verifier,
		clock:         options.Clock,
		logger:        options.Logger,
		rootKey:       bytes.Clone(options.RootKey),
	}
	if agent.httpClient == nil {
		agent.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if agent.identity == nil {
		agent.identity = identity.Anonymous()
	}
	if agent.ingressExpiry <= 0 {
		agent.ingressExpiry = DefaultIngressExpiry
	}
	if agent.verifier == nil {
		agent.verifier = certificate.BLSVerifier{}
	}
	if agent.clock == nil {
		agent.clock = clock.Real()
	}
	if agent.logger == nil {
		agent.logger = slog.Default()
	}
	return agent, nil
}

// Host returns the base URL requests are sent to.
func (a *HTTPAgent) Host() string { return a.baseURL }

// Identity implements Agent.
func (a *HTTPAgent) Identity() identity.Identity { return a.identity }

// RootKey implements Agent.
func (a *HTTPAgent) RootKey() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return bytes.Clone(a.rootKey)
}

// AddTransform registers a transform applied to every call made by
// this agent, before per-call transforms.
func (a *HTTPAgent) AddTransform(transform Transform) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transforms = append(a.transforms, transform)
}

// ReplicaStatus is the decoded /api/v2/status response.
type ReplicaStatus struct {
	RootKey             []byte `cbor:"root_key"`
	ImplVersion         string `cbor:"impl_version,omitempty"`
	ReplicaHealthStatus string `cbor:"replica_health_status,omitempty"`
}

// Status fetches the replica status.
func (a *HTTPAgent) Status(ctx context.Context) (*ReplicaStatus, error) {
	body, err := a.get(ctx, "/api/v2/status")
	if err != nil {
		return nil, err
	}
	var status ReplicaStatus
	if err := codec.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("decoding replica status: %w", err)
	}
	return &status, nil
}

// FetchRootKey replaces the root key with the one the replica reports.
// Only safe against a local replica: a malicious host controls the
// answer.
func (a *HTTPAgent) FetchRootKey(ctx context.Context) ([]byte, error) {
	status, err := a.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching root key: %w", err)
	}
	if len(status.RootKey) == 0 {
		return nil, fmt.Errorf("fetching root key: replica status has no root_key")
	}
	a.mu.Lock()
	a.rootKey = bytes.Clone(status.RootKey)
	a.mu.Unlock()
	a.logger.Warn("using root key reported by the replica", "host", a.baseURL)
	return bytes.Clone(status.RootKey), nil
}

// Call implements Agent.
func (a *HTTPAgent) Call(ctx context.Context, canister principal.Principal, options CallOptions) (requestid.RequestID, error) {
	nonce := options.Nonce
	if nonce == nil {
		nonce = make([]byte, 16)
		if _, err := rand.Read(nonce); err != nil {
			return requestid.RequestID{}, fmt.Errorf("generating nonce: %w", err)
		}
	}
	content := &CallContent{
		RequestType:   "call",
		CanisterID:    canister.Bytes(),
		MethodName:    options.MethodName,
		Arg:           bytes.Clone(options.Arg),
		Sender:        a.identity.Principal().Bytes(),
		IngressExpiry: ingressExpiry(a.clock.Now(), a.ingressExpiry),
		Nonce:         nonce,
	}

	a.mu.RLock()
	transforms := append(append([]Transform(nil), a.transforms...), options.Transforms...)
	a.mu.RUnlock()
	for _, transform := range transforms {
		if err := transform(content); err != nil {
			return requestid.RequestID{}, fmt.Errorf("transforming call content: %w", err)
		}
	}

	id, err := content.RequestID()
	if err != nil {
		return requestid.RequestID{}, fmt.Errorf("computing request id: %w", err)
	}
	wrapped, err := sign(a.identity, content, id)
	if err != nil {
		return requestid.RequestID{}, err
	}
	encoded, err := codec.MarshalSelfDescribed(wrapped)
	if err != nil {
		return requestid.RequestID{}, fmt.Errorf("encoding call envelope: %w", err)
	}

	effective := options.EffectiveCanisterID
	if effective.Len() == 0 {
		effective = canister
	}
	path := "/api/v2/canister/" + effective.String() + "/call"

	a.logger.Debug("submitting call",
		"canister", canister.String(),
		"method", options.MethodName,
		"request_id", id.String(),
		"argument_digest", binhash.Sum(binhash.Argument, content.Arg).Short(),
	)

	body, status, err := a.post(ctx, path, encoded)
	if err != nil {
		return requestid.RequestID{}, err
	}
	switch status {
	case http.StatusAccepted:
		return id, nil
	case http.StatusOK:
		var reject RejectError
		if err := codec.Unmarshal(body, &reject); err != nil || reject.Code == 0 {
			return requestid.RequestID{}, &HTTPError{Method: http.MethodPost, Path: path, StatusCode: status, Body: string(body)}
		}
		return requestid.RequestID{}, &reject
	default:
		return requestid.RequestID{}, &HTTPError{Method: http.MethodPost, Path: path, StatusCode: status, Body: netutil.ErrorBody(bytes.NewReader(body))}
	}
}

// ReadState implements Agent.
func (a *HTTPAgent) ReadState(ctx context.Context, canister principal.Principal, paths []certificate.Path) ([]byte, error) {
	content := newReadStateContent(paths, a.identity.Principal().Bytes(), ingressExpiry(a.clock.Now(), a.ingressExpiry))
	id, err := content.requestID()
	if err != nil {
		return nil, fmt.Errorf("computing read_state request id: %w", err)
	}
	wrapped, err := sign(a.identity, content, id)
	if err != nil {
		return nil, err
	}
	encoded, err := codec.MarshalSelfDescribed(wrapped)
	if err != nil {
		return nil, fmt.Errorf("encoding read_state envelope: %w", err)
	}

	path := "/api/v2/canister/" + canister.String() + "/read_state"
	body, status, err := a.post(ctx, path, encoded)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &HTTPError{Method: http.MethodPost, Path: path, StatusCode: status, Body: netutil.ErrorBody(bytes.NewReader(body))}
	}

	var response struct {
		Certificate []byte `cbor:"certificate"`
	}
	if err := codec.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decoding read_state response: %w", err)
	}
	if len(response.Certificate) == 0 {
		return nil, fmt.Errorf("read_state response has no certificate")
	}
	a.logger.Debug("read state",
		"canister", canister.String(),
		"paths", len(paths),
		"certificate_digest", binhash.Sum(binhash.Certificate, response.Certificate).Short(),
	)
	return response.Certificate, nil
}

// post sends a CBOR body and returns the response body and status
// without interpreting the status.
func (a *HTTPAgent) post(ctx context.Context, path string, body []byte) ([]byte, int, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("agent: creating request: %w", err)
	}
	request.Header.Set("Content-Type", cborContentType)

	response, err := a.httpClient.Do(request)
	if err != nil {
		return nil, 0, fmt.Errorf("agent: POST %s: %w", path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("agent: reading response from %s: %w", path, err)
	}
	return responseBody, response.StatusCode, nil
}

// get fetches path and fails with *HTTPError unless the status is
// 200.
func (a *HTTPAgent) get(ctx context.Context, path string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("agent: creating request: %w", err)
	}
	response, err := a.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("agent: GET %s: %w", path, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, &HTTPError{Method: http.MethodGet, Path: path, StatusCode: response.StatusCode, Body: netutil.ErrorBody(response.Body)}
	}
	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("agent: reading response from %s: %w", path, err)
	}
	return responseBody, nil
}
