// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/claimlink/signer/lib/netutil"
	"github.com/claimlink/signer/lib/version"
	"github.com/claimlink/signer/signer"
)

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := netutil.ReadLimited(r.Body, s.config.MaxMessageBytes)
	if err != nil {
		if errors.Is(err, netutil.ErrBodyTooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "reading request body", http.StatusBadRequest)
		return
	}

	request, rpcErr := signer.DecodeRequest(body)
	if rpcErr != nil {
		writeJSON(w, http.StatusOK, signer.ErrorResponse(request.ID, rpcErr))
		return
	}

	channel, err := s.config.Transport.EstablishChannel()
	if err != nil {
		s.logger.Error("establishing channel", "error", err)
		http.Error(w, "signer unavailable", http.StatusServiceUnavailable)
		return
	}
	defer channel.Close()

	var response *signer.Response
	channel.AddResponseListener(func(delivered signer.Response) {
		response = &delivered
	})

	if err := channel.Send(r.Context(), request); err != nil {
		s.logger.Warn("request failed", "method", request.Method, "id", request.ID.String(), "error", err)
		if request.IsNotification() {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, signer.ErrorResponse(request.ID, signer.NetworkError(err)))
		return
	}
	if response == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, *response)
}

// Health is the body of GET /healthz.
type Health struct {
	Status    string        `json:"status"`
	Version   version.Build `json:"version"`
	Principal string        `json:"principal"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	signingAgent, err := s.config.Transport.Agent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, Health{
		Status:    "ok",
		Version:   version.Current(),
		Principal: signingAgent.Identity().Principal().String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
