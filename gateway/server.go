// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway exposes signer Channels to wallets over the network.
//
// Three endpoints are served:
//
//   - GET /ws upgrades to a WebSocket. Each connection owns one
//     Channel; every text frame carries one JSON-RPC request and every
//     response is written back as a text frame.
//   - POST /rpc answers one JSON-RPC request per HTTP request on a
//     short-lived Channel. Notifications get 204 No Content.
//   - GET /healthz reports the build version and the signing principal.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/claimlink/signer/signer"
)

// DefaultMaxMessageBytes bounds one inbound JSON-RPC message.
const DefaultMaxMessageBytes int64 = 1 << 20

// Config configures a Server.
type Config struct {
	// Address is the TCP listen address, e.g. "127.0.0.1:8765". Port
	// 0 picks a free port; see Addr. Required.
	Address string

	// Transport creates the Channels requests are sent on. Required.
	Transport *signer.Transport

	// AllowedOrigins are host patterns accepted for cross-origin
	// WebSocket upgrades. Empty allows same-origin clients only.
	AllowedOrigins []string

	// MaxMessageBytes defaults to DefaultMaxMessageBytes.
	MaxMessageBytes int64

	// Compress gzips /rpc and /healthz responses when the client
	// accepts it.
	Compress bool

	// ShutdownTimeout is how long Serve waits for in-flight requests
	// after its context ends. Defaults to 10 seconds.
	ShutdownTimeout time.Duration

	Logger *slog.Logger
}

// Server serves the gateway endpoints. Serve blocks until its context
// is cancelled and active requests drain.
type Server struct {
	config  Config
	handler http.Handler
	logger  *slog.Logger

	// ready is closed once the listener is bound.
	ready chan struct{}
	addr  net.Addr

	connections atomic.Int64
}

// New builds a Server. It panics when a required field is missing.
func New(config Config) *Server {
	if config.Address == "" {
		panic("gateway: Address is required")
	}
	if config.Transport == nil {
		panic("gateway: Transport is required")
	}
	if config.MaxMessageBytes <= 0 {
		config.MaxMessageBytes = DefaultMaxMessageBytes
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: config,
		logger: logger,
		ready:  make(chan struct{}),
	}

	compress := func(handler http.Handler) http.Handler { return handler }
	if config.Compress {
		compress = func(handler http.Handler) http.Handler { return gzhttp.GzipHandler(handler) }
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.Handle("POST /rpc", compress(http.HandlerFunc(s.handleRPC)))
	mux.Handle("GET /healthz", compress(http.HandlerFunc(s.handleHealth)))
	s.handler = mux
	return s
}

// Handler returns the routing handler, for embedding in another
// server or in tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Ready is closed once the server is bound and accepting connections.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the resolved listen address. Only valid after Ready is
// closed.
func (s *Server) Addr() net.Addr { return s.addr }

// Connections returns the number of open WebSocket connections.
func (s *Server) Connections() int64 { return s.connections.Load() }

// Serve accepts connections until ctx is cancelled, then stops
// accepting and waits up to ShutdownTimeout for active requests.
// Open WebSocket connections are closed by the cancellation.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Address, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	server := &http.Server{
		Handler:           s.handler,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("gateway listening", "address", s.addr.String())

	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("gateway shutting down", "connections", s.connections.Load())
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("gateway shutdown: %w", err)
	}
	s.logger.Info("gateway stopped")
	return nil
}
