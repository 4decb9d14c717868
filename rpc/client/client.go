package client

import (
	"context"
	"fmt"

	"github.com/lni/dragonboat/v4/logger"

	"github.com/ValentinKolb/mpRPC/rpc/codec"
	"github.com/ValentinKolb/mpRPC/rpc/common"
	"github.com/ValentinKolb/mpRPC/rpc/message"
	"github.com/ValentinKolb/mpRPC/rpc/transport"
)

var (
	Logger = logger.GetLogger("client")
)

// RPCClient is the high-level client of the engine. It converts between
// native Go values and the wire value union, and delegates the actual frame
// plumbing to the configured transport.
type RPCClient struct {
	config    common.ClientConfig
	transport transport.IRPCClientTransport
}

// NewRPCClient creates a client and connects its transport
//
// Usage:
//
//	c, err := client.NewRPCClient(config, tcp.NewTCPClientTransport())
//	if err != nil {
//		panic(err)
//	}
//	defer c.Close()
//
//	var sum int
//	err = c.CallInto(ctx, &sum, "add", 1, 2)
func NewRPCClient(config common.ClientConfig, transport transport.IRPCClientTransport) (*RPCClient, error) {
	if err := transport.Connect(config); err != nil {
		return nil, fmt.Errorf("failed to connect transport: %w", err)
	}
	return &RPCClient{
		config:    config,
		transport: transport,
	}, nil
}

// Call invokes a remote method with native Go arguments and returns the raw
// result value. An error outcome from the peer is returned as
// *message.RemoteError; transport failures are retried by the transport
// before surfacing here.
func (c *RPCClient) Call(ctx context.Context, method string, args ...any) (message.Value, error) {
	params, err := codec.FromNatives(args...)
	if err != nil {
		return message.Value{}, err
	}
	return c.transport.Call(ctx, method, params)
}

// CallInto invokes a remote method and decodes the result into dst, which
// must be a non-nil pointer.
func (c *RPCClient) CallInto(ctx context.Context, dst any, method string, args ...any) error {
	result, err := c.Call(ctx, method, args...)
	if err != nil {
		return err
	}
	return codec.ToNative(result, dst)
}

// CallValues invokes a remote method with pre-built wire values, bypassing
// the native conversion for callers that already work on message.Value.
func (c *RPCClient) CallValues(ctx context.Context, method string, params []message.Value) (message.Value, error) {
	return c.transport.Call(ctx, method, params)
}

// Notify sends a notification with native Go arguments. It returns once the
// frame is written; the peer never answers.
func (c *RPCClient) Notify(ctx context.Context, method string, args ...any) error {
	params, err := codec.FromNatives(args...)
	if err != nil {
		return err
	}
	return c.transport.Notify(ctx, method, params)
}

// Close closes the underlying transport and fails all calls still waiting.
func (c *RPCClient) Close() error {
	return c.transport.Close()
}
