// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/bureau-foundation/assetpipe/lib/codec"
)

// ActionFunc handles one action. raw is the full CBOR request,
// including the "action" field. A nil result produces {ok: true}; a
// non-nil one is CBOR-encoded into the response's data field.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// Response is the envelope every request is answered with.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

const (
	readTimeout  = 30 * time.Second
	writeTimeout = 10 * time.Second

	// maxRequestSize bounds a request. Requests carry a path and a few
	// integers.
	maxRequestSize = 64 * 1024
)

// SocketServer answers one CBOR request per connection on a Unix
// socket, routing on the request's "action" field. Register actions
// with Handle before calling Serve.
type SocketServer struct {
	socketPath string
	logger     *slog.Logger

	mu       sync.RWMutex
	handlers map[string]ActionFunc

	// Serve waits on this before returning.
	inFlight sync.WaitGroup
}

// NewSocketServer returns a server that will listen on socketPath. A
// nil logger discards.
func NewSocketServer(socketPath string, logger *slog.Logger) *SocketServer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SocketServer{
		socketPath: socketPath,
		handlers:   make(map[string]ActionFunc),
		logger:     logger,
	}
}

// Handle registers handler for action. It panics on a duplicate
// registration.
func (s *SocketServer) Handle(action string, handler ActionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// HandleRequest registers a handler that receives the request decoded
// into Req. Decode failures are reported to the client.
func HandleRequest[Req any](s *SocketServer, action string, handler func(ctx context.Context, request Req) (any, error)) {
	s.Handle(action, func(ctx context.Context, raw []byte) (any, error) {
		var request Req
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, fmt.Errorf("invalid %s request: %w", action, err)
		}
		return handler(ctx, request)
	})
}

// Actions returns the registered action names, sorted.
func (s *SocketServer) Actions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actions := make([]string, 0, len(s.handlers))
	for action := range s.handlers {
		actions = append(actions, action)
	}
	slices.Sort(actions)
	return actions
}

// Serve listens on the socket path and answers requests until ctx is
// cancelled, then waits for in-flight requests. A stale socket file is
// replaced; the socket file is removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer os.Remove(s.socketPath)

	s.logger.Info("socket server listening", "path", s.socketPath, "actions", s.Actions())
	return s.serveListener(ctx, listener)
}

func (s *SocketServer) serveListener(ctx context.Context, listener net.Listener) error {
	stop := context.AfterFunc(ctx, func() { listener.Close() })
	defer stop()
	defer listener.Close()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.inFlight.Add(1)
		go func() {
			defer s.inFlight.Done()
			s.serveConnection(ctx, conn)
		}()
	}

	s.inFlight.Wait()
	return nil
}

func (s *SocketServer) serveConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		s.reply(conn, Response{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	s.reply(conn, s.dispatch(ctx, raw))
}

// dispatch routes raw to its handler and builds the response. Handler
// panics become error responses so one bad request cannot take the
// daemon down.
func (s *SocketServer) dispatch(ctx context.Context, raw []byte) (response Response) {
	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		return Response{Error: fmt.Sprintf("invalid request: %v", err)}
	}
	if header.Action == "" {
		return Response{Error: "missing required field: action"}
	}

	s.mu.RLock()
	handler, exists := s.handlers[header.Action]
	s.mu.RUnlock()
	if !exists {
		return Response{Error: fmt.Sprintf("unknown action %q", header.Action)}
	}

	started := time.Now()
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Error("action panicked", "action", header.Action, "panic", recovered)
			response = Response{Error: fmt.Sprintf("internal: action %s panicked", header.Action)}
		}
	}()

	result, err := handler(ctx, raw)
	if err != nil {
		s.logger.Debug("action failed", "action", header.Action, "error", err, "duration", time.Since(started))
		return Response{Error: err.Error()}
	}
	s.logger.Debug("action served", "action", header.Action, "duration", time.Since(started))

	if result == nil {
		return Response{OK: true}
	}
	data, err := codec.Marshal(result)
	if err != nil {
		return Response{Error: fmt.Sprintf("internal: marshaling %s response: %v", header.Action, err)}
	}
	return Response{OK: true, Data: data}
}

// reply writes response. Write failures are only logged: the
// connection closes either way.
func (s *SocketServer) reply(conn net.Conn, response Response) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("failed to write response", "ok", response.OK, "error", err)
	}
}
