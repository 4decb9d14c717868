// Package codec implements the MessagePack wire format of the RPC engine:
// the bidirectional transform between message.Message values and the byte
// stream, including partial-input detection and resynchronization.
//
// The package focuses on:
//   - Deterministic, minimal-width encoding of the three frame forms
//     [0,id,method,params], [1,id,error,result] and [2,method,params]
//   - Streaming decode from possibly truncated buffers with an exact
//     bytes-consumed contract
//   - Strict separation of the need-more-data control signal from real
//     decode failures
//   - A bridge between native Go values and the wire value union
//
// Key Components:
//
//   - EncodeMessage / AppendMessage / AppendValue: total encoding functions;
//     every well-formed message has exactly one wire representation.
//
//   - DecodeMessage / ReadValue: parse one frame or value from the front of a
//     buffer. ErrShortBuffer (zero bytes consumed) means the caller must wait
//     for more input; a FrameError carries the exact byte span to skip so the
//     stream resynchronizes on the next frame; success reports the exact
//     number of bytes consumed.
//
//   - FromNative / ToNative: convert between arbitrary Go values and
//     message.Value via the msgpack library, used by the high-level client
//     and the CLI.
//
// Thread Safety:
//
//	All functions are stateless and safe for concurrent use. Decoded values
//	copy the bytes they need, so callers may reuse or compact their buffers
//	immediately after a call returns.
package codec
