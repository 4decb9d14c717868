// Package message defines the data model of the MessagePack-RPC protocol:
// the typed value union carried in parameters and results, and the three
// message variants exchanged between peers.
//
// The package focuses on:
//   - Representing arbitrary wire values as a closed tagged union (Value)
//   - Modeling Request, Response and Notification as a Go interface union (Message)
//   - Normalized construction so structural equality is round-trip stable
//
// Key Components:
//
//   - Value: tagged union over nil, bool, int, uint, float, string, binary,
//     array, map and extension. The engine moves values without interpreting
//     them; factory functions (Nil, Bool, Int, Str, Array, ...) normalize the
//     representation.
//
//   - Message: interface implemented by *Request, *Response and *Notification.
//     The wire type tag is exposed via Kind(); a Response's outcome is either
//     an error value or a result value, with the error slot as discriminant.
//
//   - RemoteError: Go error wrapping an error value received from the peer.
//
// Thread Safety:
//
//	Values and messages are plain data; they are safe for concurrent reads.
//	They must not be mutated after being handed to the codec or a transport.
package message
