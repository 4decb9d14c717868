// Package transport defines the interfaces and abstractions for the RPC
// engine's communication layer. It provides a common contract that all
// transport implementations must fulfill, enabling protocol-agnostic
// communication.
//
// The package focuses on:
//   - Defining clear interfaces for client and server transport layers
//   - Separating frame plumbing from application semantics via handlers
//   - Enabling multiple transport implementations (TCP, Unix sockets)
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport
//     implementations that handles connection management, request sending
//     and response correlation.
//
//   - IRPCServerTransport: Interface for server-side transport
//     implementations that decodes incoming frames and routes them to the
//     registered handler.
//
//   - IRPCHandler / HandlerFactory: The seam between the transport and the
//     application. The factory is invoked per connection, the handler's
//     methods per decoded request or notification.
package transport
