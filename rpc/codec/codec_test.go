package codec

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ValentinKolb/mpRPC/rpc/message"
)

// testMessages creates a set of messages covering all variants and value types
func testMessages() []message.Message {
	return []message.Message{
		// Request without params
		message.NewRequest(1, "ping"),

		// Request with simple params
		message.NewRequest(42, "add", message.Int(1), message.Int(2)),

		// Request with maximum id and mixed params
		message.NewRequest(math.MaxUint32, "echo",
			message.Str("hello"),
			message.Bool(true),
			message.Nil(),
		),

		// Request exercising every value type
		message.NewRequest(3, "blob",
			message.Bin([]byte{0x00, 0xff, 0x7f}),
			message.Float(3.25),
			message.Array(message.Int(-1), message.Uint(math.MaxUint64)),
			message.Map(message.MapEntry{Key: message.Str("k"), Val: message.Int(1)}),
			message.Ext(5, []byte{1, 2, 3, 4}),
		),

		// Successful response
		message.NewResponse(7, message.Int(4)),

		// Successful response with nil result
		message.NewResponse(8, message.Nil()),

		// Error response
		message.NewErrorResponse(9, message.Str("Unknown method")),

		// Notifications
		message.NewNotification("log", message.Str("a"), message.Str("b")),
		message.NewNotification("tick"),
	}
}

// TestMessageRoundTrip tests that every message survives encode and decode
// unchanged and that decode consumes exactly the encoded bytes
func TestMessageRoundTrip(t *testing.T) {
	for _, msg := range testMessages() {
		t.Run(msg.String(), func(t *testing.T) {
			frame := EncodeMessage(msg)

			decoded, n, err := DecodeMessage(frame)
			if err != nil {
				t.Fatalf("Failed to decode: %v", err)
			}
			if n != len(frame) {
				t.Errorf("Consumed %d bytes, frame has %d", n, len(frame))
			}
			if !reflect.DeepEqual(msg, decoded) {
				t.Errorf("Message doesn't match after round trip:\nOriginal: %+v\nResult: %+v", msg, decoded)
			}
		})
	}
}

// TestStreamingDecode feeds a stream of frames one byte at a time, checking
// that a truncated frame consumes nothing and that every frame is decoded
// exactly once at its boundary
func TestStreamingDecode(t *testing.T) {
	msgs := testMessages()

	var stream []byte
	for _, msg := range msgs {
		stream = AppendMessage(stream, msg)
	}

	var decoded []message.Message
	var buf []byte
	for _, b := range stream {
		buf = append(buf, b)

		for {
			msg, n, err := DecodeMessage(buf)
			if IsShortBuffer(err) {
				if n != 0 {
					t.Fatalf("ErrShortBuffer consumed %d bytes, want 0", n)
				}
				break
			}
			if err != nil {
				t.Fatalf("Unexpected decode error: %v", err)
			}
			decoded = append(decoded, msg)
			buf = buf[n:]
		}
	}

	if len(buf) != 0 {
		t.Errorf("Stream left %d undecoded bytes", len(buf))
	}
	if !reflect.DeepEqual(msgs, decoded) {
		t.Errorf("Decoded stream doesn't match:\nOriginal: %+v\nResult: %+v", msgs, decoded)
	}
}

// TestShortBufferPrefixes tests that every proper prefix of a frame reports
// need-more-data instead of an error
func TestShortBufferPrefixes(t *testing.T) {
	frame := EncodeMessage(message.NewRequest(300, "add",
		message.Int(100000),
		message.Str("a longer string that needs a length header"),
		message.Bin(bytes.Repeat([]byte{0xab}, 300)),
	))

	for i := 0; i < len(frame); i++ {
		msg, n, err := DecodeMessage(frame[:i])
		if !IsShortBuffer(err) {
			t.Fatalf("Prefix of %d/%d bytes: got (%v, %d, %v), want ErrShortBuffer", i, len(frame), msg, n, err)
		}
		if n != 0 {
			t.Fatalf("Prefix of %d bytes consumed %d bytes, want 0", i, n)
		}
	}
}

// TestResyncAfterInvalidFrame tests that a FrameError reports the exact span
// to skip and that decoding continues with the next frame
func TestResyncAfterInvalidFrame(t *testing.T) {
	first := message.NewRequest(1, "ping")
	second := message.NewRequest(2, "pong")

	tests := map[string][]byte{
		// 0xc1 is reserved and never valid
		"reserved byte": {0xc1},

		// complete value but not an array
		"non-array frame": AppendValue(nil, message.Str("not a frame")),

		// complete array with an unknown type tag
		"unknown type tag": AppendValue(nil, message.Array(
			message.Int(9), message.Int(1), message.Str("x"), message.Array(),
		)),

		// response carrying both error and result
		"error and result set": AppendValue(nil, message.Array(
			message.Int(1), message.Int(3), message.Str("boom"), message.Int(4),
		)),
	}

	for name, junk := range tests {
		t.Run(name, func(t *testing.T) {
			stream := EncodeMessage(first)
			stream = append(stream, junk...)
			stream = AppendMessage(stream, second)

			// First frame decodes fine
			msg, n, err := DecodeMessage(stream)
			if err != nil {
				t.Fatalf("Failed to decode first frame: %v", err)
			}
			if !reflect.DeepEqual(msg, message.Message(first)) {
				t.Fatalf("First frame mismatch: %+v", msg)
			}
			stream = stream[n:]

			// Junk reports a FrameError spanning exactly the junk bytes
			_, n, err = DecodeMessage(stream)
			var frameErr *FrameError
			if !errors.As(err, &frameErr) {
				t.Fatalf("Expected FrameError, got %v", err)
			}
			if frameErr.Size != len(junk) {
				t.Fatalf("FrameError.Size = %d, junk is %d bytes", frameErr.Size, len(junk))
			}
			if n != frameErr.Size {
				t.Fatalf("Consumed %d, FrameError.Size %d", n, frameErr.Size)
			}
			stream = stream[frameErr.Size:]

			// Decoding resynchronizes on the second frame
			msg, n, err = DecodeMessage(stream)
			if err != nil {
				t.Fatalf("Failed to decode after resync: %v", err)
			}
			if n != len(stream) {
				t.Errorf("Trailing bytes after second frame")
			}
			if !reflect.DeepEqual(msg, message.Message(second)) {
				t.Errorf("Second frame mismatch: %+v", msg)
			}
		})
	}
}

// TestMinimalWidthEncoding pins the exact bytes of representative values
func TestMinimalWidthEncoding(t *testing.T) {
	tests := []struct {
		value    message.Value
		expected []byte
	}{
		{message.Nil(), []byte{0xc0}},
		{message.Bool(false), []byte{0xc2}},
		{message.Bool(true), []byte{0xc3}},
		{message.Int(0), []byte{0x00}},
		{message.Int(127), []byte{0x7f}},
		{message.Int(128), []byte{0xcc, 0x80}},
		{message.Int(256), []byte{0xcd, 0x01, 0x00}},
		{message.Int(65536), []byte{0xce, 0x00, 0x01, 0x00, 0x00}},
		{message.Int(-1), []byte{0xff}},
		{message.Int(-32), []byte{0xe0}},
		{message.Int(-33), []byte{0xd0, 0xdf}},
		{message.Int(-129), []byte{0xd1, 0xff, 0x7f}},
		{message.Uint(math.MaxUint64), []byte{0xcf, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		{message.Float(1.0), []byte{0xcb, 0x3f, 0xf0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
		{message.Str(""), []byte{0xa0}},
		{message.Str("abc"), []byte{0xa3, 'a', 'b', 'c'}},
		{message.Bin([]byte{}), []byte{0xc4, 0x00}},
		{message.Bin([]byte{0x01}), []byte{0xc4, 0x01, 0x01}},
		{message.Array(), []byte{0x90}},
		{message.Map(), []byte{0x80}},
		{message.Ext(1, []byte{0xaa}), []byte{0xd4, 0x01, 0xaa}},
	}

	for _, tc := range tests {
		t.Run(tc.value.String(), func(t *testing.T) {
			encoded := AppendValue(nil, tc.value)
			if !bytes.Equal(encoded, tc.expected) {
				t.Errorf("Encoded % x, want % x", encoded, tc.expected)
			}

			// and the bytes read back as the same value
			decoded, n, err := ReadValue(tc.expected)
			if err != nil {
				t.Fatalf("Failed to read back: %v", err)
			}
			if n != len(tc.expected) {
				t.Errorf("Consumed %d bytes, want %d", n, len(tc.expected))
			}
			if !decoded.Equal(tc.value) {
				t.Errorf("Read back %s, want %s", decoded, tc.value)
			}
		})
	}
}

// TestEnvelopeValidation tests that well-formed values with invalid message
// shapes are rejected as frame errors spanning the complete value
func TestEnvelopeValidation(t *testing.T) {
	tests := map[string]message.Value{
		"not an array":         message.Int(1),
		"too few elements":     message.Array(message.Int(0), message.Int(1)),
		"tag not an integer":   message.Array(message.Str("0"), message.Int(1), message.Str("m"), message.Array()),
		"negative tag":         message.Array(message.Int(-1), message.Int(1), message.Str("m"), message.Array()),
		"request with 3 elems": message.Array(message.Int(0), message.Int(1), message.Str("m")),
		"request id not int":   message.Array(message.Int(0), message.Str("1"), message.Str("m"), message.Array()),
		"request id too large": message.Array(message.Int(0), message.Uint(1<<40), message.Str("m"), message.Array()),
		"empty method":         message.Array(message.Int(0), message.Int(1), message.Str(""), message.Array()),
		"params not array":     message.Array(message.Int(0), message.Int(1), message.Str("m"), message.Int(5)),
		"notification 4 elems": message.Array(message.Int(2), message.Str("m"), message.Array(), message.Nil()),
		"unknown tag":          message.Array(message.Int(7), message.Int(1), message.Str("m"), message.Array()),
	}

	for name, v := range tests {
		t.Run(name, func(t *testing.T) {
			data := AppendValue(nil, v)

			msg, n, err := DecodeMessage(data)
			if !IsFrameError(err) {
				t.Fatalf("Got (%v, %d, %v), want FrameError", msg, n, err)
			}
			if n != len(data) {
				t.Errorf("FrameError spans %d bytes, value has %d", n, len(data))
			}
		})
	}
}

// TestNestingDepthLimit tests that absurdly nested input is rejected instead
// of recursing without bound
func TestNestingDepthLimit(t *testing.T) {
	// 200 nested single-element arrays around an integer
	data := bytes.Repeat([]byte{0x91}, 200)
	data = append(data, 0x01)

	_, _, err := ReadValue(data)
	if !IsFrameError(err) {
		t.Fatalf("Got %v, want FrameError", err)
	}
}

// TestInteropDecode tests that frames produced by the msgpack library are
// understood by the streaming decoder
func TestInteropDecode(t *testing.T) {
	frame, err := msgpack.Marshal([]any{0, 1, "add", []any{1, 2}})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	msg, n, err := DecodeMessage(frame)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if n != len(frame) {
		t.Errorf("Consumed %d bytes, frame has %d", n, len(frame))
	}

	expected := message.NewRequest(1, "add", message.Int(1), message.Int(2))
	if !reflect.DeepEqual(msg, message.Message(expected)) {
		t.Errorf("Decoded %+v, want %+v", msg, expected)
	}
}

// TestInteropEncode tests that the encoder's output is understood by the
// msgpack library
func TestInteropEncode(t *testing.T) {
	var s string
	if err := msgpack.Unmarshal(AppendValue(nil, message.Str("hi")), &s); err != nil || s != "hi" {
		t.Errorf("String interop: got (%q, %v)", s, err)
	}

	var i int
	if err := msgpack.Unmarshal(AppendValue(nil, message.Int(-4711)), &i); err != nil || i != -4711 {
		t.Errorf("Int interop: got (%d, %v)", i, err)
	}

	var f float64
	if err := msgpack.Unmarshal(AppendValue(nil, message.Float(2.5)), &f); err != nil || f != 2.5 {
		t.Errorf("Float interop: got (%g, %v)", f, err)
	}

	var b []byte
	if err := msgpack.Unmarshal(AppendValue(nil, message.Bin([]byte{1, 2})), &b); err != nil || !bytes.Equal(b, []byte{1, 2}) {
		t.Errorf("Binary interop: got (% x, %v)", b, err)
	}
}

// TestNativeRoundTrip tests the bridge between Go values and wire values
func TestNativeRoundTrip(t *testing.T) {
	type record struct {
		Name  string `msgpack:"name"`
		Count int    `msgpack:"count"`
	}

	original := record{Name: "demo", Count: 3}

	v, err := FromNative(original)
	if err != nil {
		t.Fatalf("FromNative failed: %v", err)
	}
	if v.Type != message.TypeMap {
		t.Fatalf("Struct converted to %s, want map", v.Type)
	}

	var result record
	if err := ToNative(v, &result); err != nil {
		t.Fatalf("ToNative failed: %v", err)
	}
	if !reflect.DeepEqual(original, result) {
		t.Errorf("Value doesn't match after round trip:\nOriginal: %+v\nResult: %+v", original, result)
	}
}

// TestNaNRoundTrip tests that NaN payloads survive the round trip
func TestNaNRoundTrip(t *testing.T) {
	frame := EncodeMessage(message.NewResponse(1, message.Float(math.NaN())))

	msg, _, err := DecodeMessage(frame)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	resp := msg.(*message.Response)
	if !resp.Result.Equal(message.Float(math.NaN())) {
		t.Errorf("NaN result doesn't compare equal after round trip")
	}
}
