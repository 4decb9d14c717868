// Package common provides configuration structures and logging utilities
// shared by the client and server halves of the RPC engine.
//
// The package focuses on:
//   - Configuration structures for client and server components
//   - Socket and TCP tuning parameters shared by all stream transports
//   - Custom logging implementation with consistent formatting
//
// Key Components:
//
//   - ServerConfig: Comprehensive configuration for a server, including the
//     listen endpoint, per-connection worker bounds, frame size limits,
//     socket tuning and the optional metrics endpoint.
//
//   - ClientConfig: Configuration for client components, controlling
//     endpoints, connection pooling, timeouts, and retry behavior.
//
//   - Logger: Custom logging implementation built on the dragonboat logger
//     interfaces, providing consistent formatting across the application.
package common
