// Package base provides the foundation for the stream transports of the RPC
// engine, implementing the connection driver and client multiplexer
// independent of the specific network protocol (TCP, Unix sockets, etc.).
// It serves as a base layer that is extended with protocol-specific
// connectors.
//
// The package focuses on:
//   - Protocol-agnostic client and server transport implementations
//   - Streaming frame decode with partial-input handling and exact-span
//     resynchronization after invalid frames
//   - Concurrent request multiplexing over single connections, with
//     responses leaving in completion order
//   - Robust error handling with retries and reconnection logic
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific
//     operations that allow extending the base transport with different
//     network protocols.
//
//   - clientTransport: Core client implementation that manages multiple
//     connections with round-robin load balancing and correlates response
//     frames with waiting callers through a pending-call table. Transport
//     failures are retried with jittered exponential backoff; remote errors
//     are returned to the caller unretried.
//
//   - serverTransport: Core server implementation that drives one goroutine
//     trio per connection: a reader that decodes frames from a growable
//     receive buffer, a bounded pool of handler workers, and a single writer
//     that batches response frames through a buffered writer.
//
// Performance Optimizations:
//
//   - Connection Pooling: Multiple connections per endpoint improve
//     throughput for high-load scenarios. For small messages a single
//     connection per endpoint may perform better due to reduced overhead.
//
//   - Frame Batching: The server writer flushes its buffer only once the
//     outgoing queue runs dry, combining bursts of responses into fewer
//     syscalls.
//
//   - Buffer Compaction: The receive buffer is compacted in place between
//     reads, so steady-state decoding allocates nothing per frame beyond
//     the decoded values themselves.
//
// Thread Safety:
//
//	All public methods are thread-safe. The client transport uses atomic
//	operations and mutexes to ensure concurrent access safety, while the
//	server confines each connection to its own goroutines.
package base
