// Package tcp implements TCP socket-based transport for the RPC engine. It
// provides concrete implementations of the base package's connector
// interfaces optimized for TCP connections.
//
// This package builds on the base package's transport functionality,
// inheriting its connection pooling, frame multiplexing and error handling.
// See the base package documentation for detailed information on the
// underlying transport mechanisms and performance characteristics.
//
// Key Components:
//
//   - clientConnector: TCP-specific implementation of base.IClientConnector
//
//   - serverConnector: TCP-specific implementation of base.IServerConnector
//
// Both connectors apply the shared SocketConf and TCPConf tuning knobs
// (buffer sizes, NoDelay, keep-alive, linger) to every connection they set
// up.
package tcp
