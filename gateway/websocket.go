// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/claimlink/signer/lib/netutil"
	"github.com/claimlink/signer/signer"
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.config.AllowedOrigins,
	})
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	conn.SetReadLimit(s.config.MaxMessageBytes)

	channel, err := s.config.Transport.EstablishChannel()
	if err != nil {
		s.logger.Error("establishing channel", "error", err)
		conn.Close(websocket.StatusInternalError, "signer unavailable")
		return
	}

	s.connections.Add(1)
	defer s.connections.Add(-1)

	session := &wsSession{
		conn:    conn,
		channel: channel,
		logger:  s.logger.With("connection", uuid.NewString(), "remote", r.RemoteAddr),
	}
	session.run(r.Context())
}

// wsSession binds one WebSocket connection to one Channel.
type wsSession struct {
	conn    *websocket.Conn
	channel *signer.Channel
	logger  *slog.Logger
}

func (c *wsSession) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	c.logger.Info("wallet connected")
	c.channel.AddResponseListener(func(response signer.Response) {
		c.write(ctx, response)
	})
	c.channel.AddCloseListener(cancel)

	var inflight sync.WaitGroup
	status := websocket.StatusNormalClosure
	for {
		kind, data, err := c.conn.Read(ctx)
		if err != nil {
			c.logReadEnd(err)
			break
		}
		if kind != websocket.MessageText {
			status = websocket.StatusUnsupportedData
			break
		}

		request, rpcErr := signer.DecodeRequest(data)
		if rpcErr != nil {
			c.write(ctx, signer.ErrorResponse(request.ID, rpcErr))
			continue
		}

		// Requests run concurrently so a long batch does not hold up
		// the rest of the connection.
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			c.send(ctx, request)
		}()
	}

	c.channel.Close()
	inflight.Wait()
	c.conn.Close(status, "")
	c.logger.Info("wallet disconnected")
}

func (c *wsSession) send(ctx context.Context, request signer.Request) {
	err := c.channel.Send(ctx, request)
	if err == nil {
		return
	}
	if errors.Is(err, signer.ErrChannelClosed) || request.IsNotification() {
		c.logger.Debug("request dropped", "method", request.Method, "error", err)
		return
	}
	c.logger.Warn("request failed", "method", request.Method, "id", request.ID.String(), "error", err)
	c.write(ctx, signer.ErrorResponse(request.ID, signer.NetworkError(err)))
}

func (c *wsSession) write(ctx context.Context, response signer.Response) {
	data, err := json.Marshal(response)
	if err != nil {
		c.logger.Error("encoding response", "error", err)
		return
	}
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil && !netutil.IsExpectedCloseError(err) {
		c.logger.Warn("writing response", "error", err)
	}
}

func (c *wsSession) logReadEnd(err error) {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return
	}
	if netutil.IsExpectedCloseError(err) {
		return
	}
	c.logger.Warn("websocket read failed", "error", err)
}
