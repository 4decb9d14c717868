package codec

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ValentinKolb/mpRPC/rpc/message"
)

// FromNative converts an arbitrary Go value into a wire value. The value is
// marshalled with the msgpack library and re-read by the streaming decoder,
// so everything the library can serialize (structs, maps, slices, tagged
// fields) becomes a well-formed message.Value without a second mapping layer.
func FromNative(v any) (message.Value, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return message.Value{}, fmt.Errorf("codec: failed to marshal native value: %w", err)
	}
	val, n, err := ReadValue(b)
	if err != nil {
		return message.Value{}, fmt.Errorf("codec: failed to re-read marshalled value: %w", err)
	}
	if n != len(b) {
		return message.Value{}, fmt.Errorf("codec: marshalled value left %d trailing bytes", len(b)-n)
	}
	return val, nil
}

// FromNatives converts a list of Go values, typically a parameter list.
func FromNatives(vs ...any) ([]message.Value, error) {
	params := make([]message.Value, 0, len(vs))
	for i, v := range vs {
		val, err := FromNative(v)
		if err != nil {
			return nil, fmt.Errorf("codec: param %d: %w", i, err)
		}
		params = append(params, val)
	}
	return params, nil
}

// ToNative decodes a wire value into the given Go destination, which must be
// a non-nil pointer as with msgpack.Unmarshal.
func ToNative(v message.Value, dst any) error {
	return msgpack.Unmarshal(AppendValue(nil, v), dst)
}
