// Package jittercli is the RPC client used by the CLI to talk to a running
// aptjitter daemon.
package jittercli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
)

// dialFunc is replaced in tests.
var dialFunc = net.Dial

type Client struct {
	rpc *jrpc2.Client
}

// NewClient connects to the daemon socket. An empty path uses SocketPath("").
func NewClient(path string) (*Client, error) {
	path = SocketPath(path)
	debugLog("connecting to %s", path)
	conn, err := dialFunc("unix", path)
	if err != nil {
		return nil, fmt.Errorf("error connecting to daemon: %s", err.Error())
	}
	debugLog("connected to %s", path)
	return NewClientConn(conn), nil
}

// NewClientConn wraps an established connection.
func NewClientConn(conn io.ReadWriteCloser) *Client {
	return &Client{rpc: jrpc2.NewClient(channel.Line(conn, conn), nil)}
}

// Close closes the connection to the daemon.
func (c *Client) Close() error {
	return c.rpc.Close()
}

func invoke[T any](ctx context.Context, c *Client, method string, params any) (*T, error) {
	debugLog("invoking %s", method)
	var res T
	if err := c.rpc.CallResult(ctx, method, params, &res); err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", method, err)
	}
	return &res, nil
}

// ErrorCode returns the JSON-RPC error code carried by err, or 0.
func ErrorCode(err error) int {
	var e *jrpc2.Error
	if errors.As(err, &e) {
		return int(e.Code)
	}
	return 0
}
