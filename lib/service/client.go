// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/bureau-foundation/assetpipe/lib/codec"
)

const (
	dialTimeout = 5 * time.Second

	// responseReadTimeout covers the server's read and write timeouts
	// plus handler time.
	responseReadTimeout = 45 * time.Second

	// maxResponseSize bounds a response. Blob responses carry whole
	// payloads.
	maxResponseSize = 256 * 1024 * 1024
)

// ServiceError is returned by Call when the server answered ok=false.
type ServiceError struct {
	Action  string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error on %q: %s", e.Action, e.Message)
}

// Client calls a socket served by [SocketServer]. Each Call uses a
// fresh connection.
type Client struct {
	socketPath string
}

// NewClient returns a client for socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// SocketPath returns the socket the client dials.
func (c *Client) SocketPath() string {
	return c.socketPath
}

// Call sends action with the fields of request and decodes the
// response data into result.
//
// request may be nil, a map with string keys, or a struct; structs are
// flattened through CBOR so their tags name the fields. It must not
// carry an "action" field. result may be nil to discard data.
//
// A server-side failure is returned as *ServiceError; connection and
// encoding failures as plain errors.
func (c *Client) Call(ctx context.Context, action string, request any, result any) error {
	fields, err := requestFields(request)
	if err != nil {
		return fmt.Errorf("encoding %q request: %w", action, err)
	}
	fields["action"] = action

	response, err := c.send(ctx, fields)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, c.socketPath, err)
	}
	if !response.OK {
		return &ServiceError{Action: action, Message: response.Error}
	}

	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}
	return nil
}

// CallRaw is Call returning the undecoded data field.
func (c *Client) CallRaw(ctx context.Context, action string, request any) (codec.RawMessage, error) {
	var raw codec.RawMessage
	if err := c.Call(ctx, action, request, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func requestFields(request any) (map[string]any, error) {
	switch typed := request.(type) {
	case nil:
		return make(map[string]any, 1), nil
	case map[string]any:
		fields := make(map[string]any, len(typed)+1)
		for key, value := range typed {
			fields[key] = value
		}
		return fields, nil
	}

	encoded, err := codec.Marshal(request)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]any)
	if err := codec.Unmarshal(encoded, &fields); err != nil {
		return nil, fmt.Errorf("request must encode as a map: %w", err)
	}
	return fields, nil
}

func (c *Client) send(ctx context.Context, request any) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	if _, ok := ctx.Deadline(); !ok {
		conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	}
	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &response, nil
}
