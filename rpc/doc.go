// Package rpc provides a MessagePack-RPC engine: a streaming frame codec
// with partial-input recovery, multiplexed connections and method-based
// dispatch. It acts as the communication layer between clients and servers,
// enabling concurrent calls over single connections.
//
// The package is organized into several subpackages:
//
//   - message: The wire value union and the three message forms (request,
//     response, notification) with their validity rules.
//
//   - codec: The MessagePack framing codec, including streaming decode from
//     truncated buffers and exact-span resynchronization after invalid
//     frames, plus the bridge between native Go values and wire values.
//
//   - pending: The id-to-completion correlation table that pairs response
//     frames with the callers waiting for them.
//
//   - common: Configuration structures and logging shared across the engine.
//
//   - transport: Network communication abstractions with pluggable
//     implementations (TCP, Unix sockets) built on a shared base driver.
//
//   - client: The high-level client converting between native Go values and
//     the wire format.
//
//   - server: The method mux and server shell that route decoded frames to
//     application handlers.
package rpc
