package transport

import (
	"context"
	"net"

	"github.com/ValentinKolb/mpRPC/rpc/common"
	"github.com/ValentinKolb/mpRPC/rpc/message"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// IRPCHandler handles the decoded frames of one connection.
// The transport layer decodes and validates frames, the handler supplies the
// application semantics. Implementations must be safe for concurrent use:
// the transport invokes them from multiple worker goroutines at once.
type IRPCHandler interface {
	// HandleRequest processes one request and returns its result. A non-nil
	// error becomes the error slot of the response frame; result is ignored
	// in that case. The context is canceled when the connection closes.
	HandleRequest(ctx context.Context, method string, params []message.Value) (result message.Value, err error)

	// HandleNotification processes one notification. No reply is ever sent;
	// a returned error is only logged.
	HandleNotification(ctx context.Context, method string, params []message.Value) error
}

// HandlerFactory creates the handler for a new connection. The remote address
// allows per-peer state or access decisions; most factories ignore it and
// return a shared handler.
type HandlerFactory func(remote net.Addr) IRPCHandler

// IRPCServerTransport is the interface for the RPC server transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers the handler factory for the transport layer.
	// The factory is invoked once per accepted connection.
	RegisterHandler(factory HandlerFactory)
	// Listen starts the transport layer and serves incoming connections
	// until the listener fails
	Listen(config common.ServerConfig) error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Call sends a request and blocks until the matching response arrives,
	// the context is done or the configured timeout expires. A remote error
	// outcome is returned as *message.RemoteError.
	Call(ctx context.Context, method string, params []message.Value) (message.Value, error)
	// Notify sends a notification. It returns once the frame is written;
	// no acknowledgement exists on the wire.
	Notify(ctx context.Context, method string, params []message.Value) error
	// Close closes the transport connections
	Close() error
}
