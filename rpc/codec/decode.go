package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ValentinKolb/mpRPC/rpc/message"
)

// --------------------------------------------------------------------------
// Message Decoding
// --------------------------------------------------------------------------

// DecodeMessage parses one message frame from the front of data.
//
// The three possible results:
//   - (msg, n, nil): one complete frame was decoded, the caller must drop
//     exactly n bytes and may call again for the next resident frame.
//   - (nil, 0, ErrShortBuffer): data ends mid-frame, nothing was consumed;
//     retain every byte and retry once more have arrived.
//   - (nil, n, *FrameError): the frame is malformed; skip exactly n bytes and
//     call again, decoding resynchronizes on the next value boundary.
//
// Decoding is resumable from any frame boundary: the retained remainder plus
// newly arrived bytes form a valid input for the next call.
func DecodeMessage(data []byte) (message.Message, int, error) {
	v, n, err := ReadValue(data)
	if err != nil {
		return nil, n, err
	}
	m, err := interpretEnvelope(v, n)
	if err != nil {
		return nil, n, err
	}
	return m, n, nil
}

// ReadValue parses one self-describing msgpack value from the front of data
// and reports the exact number of bytes it occupies. The error contract is
// the same as DecodeMessage's.
func ReadValue(data []byte) (message.Value, int, error) {
	r := &reader{data: data}
	v, err := r.readValue(0)
	if err != nil {
		if IsShortBuffer(err) {
			return message.Value{}, 0, ErrShortBuffer
		}
		// r.pos covers everything consumed up to and including the
		// offending byte, which is the best possible resync point
		if fe, ok := err.(*FrameError); ok {
			fe.Size = r.pos
		}
		return message.Value{}, r.pos, err
	}
	return v, r.pos, nil
}

// --------------------------------------------------------------------------
// Value Reader
// --------------------------------------------------------------------------

type reader struct {
	data []byte
	pos  int
}

// need reports ErrShortBuffer if fewer than n bytes remain.
func (r *reader) need(n int) error {
	if len(r.data)-r.pos < n {
		return ErrShortBuffer
	}
	return nil
}

// take consumes the next n bytes. The caller must have checked need(n).
func (r *reader) take(n int) []byte {
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) readValue(depth int) (message.Value, error) {
	if depth > maxNestingDepth {
		return message.Value{}, &FrameError{Reason: "value nesting too deep"}
	}
	if err := r.need(1); err != nil {
		return message.Value{}, err
	}
	c := r.data[r.pos]
	r.pos++

	// fix formats carry their payload size in the lead byte
	switch {
	case c <= mpFixIntMax:
		return message.Int(int64(c)), nil
	case c >= mpNegFixIntMin:
		return message.Int(int64(int8(c))), nil
	case c >= mpFixMap && c < mpFixArray:
		return r.readMap(int(c&0x0f), depth)
	case c >= mpFixArray && c < mpFixStr:
		return r.readArray(int(c&0x0f), depth)
	case c >= mpFixStr && c < mpNil:
		return r.readStr(int(c & 0x1f))
	}

	switch c {
	case mpNil:
		return message.Nil(), nil
	case mpFalse:
		return message.Bool(false), nil
	case mpTrue:
		return message.Bool(true), nil
	case mpUint8:
		if err := r.need(1); err != nil {
			return message.Value{}, err
		}
		return message.Uint(uint64(r.take(1)[0])), nil
	case mpUint16:
		if err := r.need(2); err != nil {
			return message.Value{}, err
		}
		return message.Uint(uint64(binary.BigEndian.Uint16(r.take(2)))), nil
	case mpUint32:
		if err := r.need(4); err != nil {
			return message.Value{}, err
		}
		return message.Uint(uint64(binary.BigEndian.Uint32(r.take(4)))), nil
	case mpUint64:
		if err := r.need(8); err != nil {
			return message.Value{}, err
		}
		return message.Uint(binary.BigEndian.Uint64(r.take(8))), nil
	case mpInt8:
		if err := r.need(1); err != nil {
			return message.Value{}, err
		}
		return message.Int(int64(int8(r.take(1)[0]))), nil
	case mpInt16:
		if err := r.need(2); err != nil {
			return message.Value{}, err
		}
		return message.Int(int64(int16(binary.BigEndian.Uint16(r.take(2))))), nil
	case mpInt32:
		if err := r.need(4); err != nil {
			return message.Value{}, err
		}
		return message.Int(int64(int32(binary.BigEndian.Uint32(r.take(4))))), nil
	case mpInt64:
		if err := r.need(8); err != nil {
			return message.Value{}, err
		}
		return message.Int(int64(binary.BigEndian.Uint64(r.take(8)))), nil
	case mpFloat32:
		if err := r.need(4); err != nil {
			return message.Value{}, err
		}
		return message.Float(float64(math.Float32frombits(binary.BigEndian.Uint32(r.take(4))))), nil
	case mpFloat64:
		if err := r.need(8); err != nil {
			return message.Value{}, err
		}
		return message.Float(math.Float64frombits(binary.BigEndian.Uint64(r.take(8)))), nil
	case mpStr8:
		n, err := r.readLen(1)
		if err != nil {
			return message.Value{}, err
		}
		return r.readStr(n)
	case mpStr16:
		n, err := r.readLen(2)
		if err != nil {
			return message.Value{}, err
		}
		return r.readStr(n)
	case mpStr32:
		n, err := r.readLen(4)
		if err != nil {
			return message.Value{}, err
		}
		return r.readStr(n)
	case mpBin8:
		n, err := r.readLen(1)
		if err != nil {
			return message.Value{}, err
		}
		return r.readBin(n)
	case mpBin16:
		n, err := r.readLen(2)
		if err != nil {
			return message.Value{}, err
		}
		return r.readBin(n)
	case mpBin32:
		n, err := r.readLen(4)
		if err != nil {
			return message.Value{}, err
		}
		return r.readBin(n)
	case mpArray16:
		n, err := r.readLen(2)
		if err != nil {
			return message.Value{}, err
		}
		return r.readArray(n, depth)
	case mpArray32:
		n, err := r.readLen(4)
		if err != nil {
			return message.Value{}, err
		}
		return r.readArray(n, depth)
	case mpMap16:
		n, err := r.readLen(2)
		if err != nil {
			return message.Value{}, err
		}
		return r.readMap(n, depth)
	case mpMap32:
		n, err := r.readLen(4)
		if err != nil {
			return message.Value{}, err
		}
		return r.readMap(n, depth)
	case mpFixExt1:
		return r.readExt(1)
	case mpFixExt2:
		return r.readExt(2)
	case mpFixExt4:
		return r.readExt(4)
	case mpFixExt8:
		return r.readExt(8)
	case mpFixExt16:
		return r.readExt(16)
	case mpExt8:
		n, err := r.readLen(1)
		if err != nil {
			return message.Value{}, err
		}
		return r.readExt(n)
	case mpExt16:
		n, err := r.readLen(2)
		if err != nil {
			return message.Value{}, err
		}
		return r.readExt(n)
	case mpExt32:
		n, err := r.readLen(4)
		if err != nil {
			return message.Value{}, err
		}
		return r.readExt(n)
	default:
		// only 0xc1 remains, which the MessagePack format reserves as never-used
		return message.Value{}, &FrameError{Reason: fmt.Sprintf("reserved format byte 0x%02x", c)}
	}
}

// readLen reads a big-endian length field of width 1, 2 or 4 bytes.
func (r *reader) readLen(width int) (int, error) {
	if err := r.need(width); err != nil {
		return 0, err
	}
	switch width {
	case 1:
		return int(r.take(1)[0]), nil
	case 2:
		return int(binary.BigEndian.Uint16(r.take(2))), nil
	default:
		return int(binary.BigEndian.Uint32(r.take(4))), nil
	}
}

func (r *reader) readStr(n int) (message.Value, error) {
	if err := r.need(n); err != nil {
		return message.Value{}, err
	}
	// string() copies, so the value stays valid after the receive
	// buffer is compacted
	return message.Str(string(r.take(n))), nil
}

func (r *reader) readBin(n int) (message.Value, error) {
	if err := r.need(n); err != nil {
		return message.Value{}, err
	}
	b := make([]byte, n)
	copy(b, r.take(n))
	return message.Bin(b), nil
}

func (r *reader) readExt(n int) (message.Value, error) {
	if err := r.need(1 + n); err != nil {
		return message.Value{}, err
	}
	extType := int8(r.take(1)[0])
	b := make([]byte, n)
	copy(b, r.take(n))
	return message.Ext(extType, b), nil
}

func (r *reader) readArray(n, depth int) (message.Value, error) {
	// cap the pre-allocation: the claimed count is attacker-controlled and
	// only as trustworthy as the bytes that actually follow
	elems := make([]message.Value, 0, minInt(n, 1024))
	for i := 0; i < n; i++ {
		v, err := r.readValue(depth + 1)
		if err != nil {
			return message.Value{}, err
		}
		elems = append(elems, v)
	}
	return message.Array(elems...), nil
}

func (r *reader) readMap(n, depth int) (message.Value, error) {
	entries := make([]message.MapEntry, 0, minInt(n, 1024))
	for i := 0; i < n; i++ {
		k, err := r.readValue(depth + 1)
		if err != nil {
			return message.Value{}, err
		}
		v, err := r.readValue(depth + 1)
		if err != nil {
			return message.Value{}, err
		}
		entries = append(entries, message.MapEntry{Key: k, Val: v})
	}
	return message.Map(entries...), nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// --------------------------------------------------------------------------
// Envelope Validation
// --------------------------------------------------------------------------

// interpretEnvelope turns a fully parsed value into a message. Every shape
// violation is a FrameError spanning the complete value so the caller skips
// it as one unit.
func interpretEnvelope(v message.Value, size int) (message.Message, error) {
	frameErr := func(format string, args ...any) error {
		return &FrameError{Size: size, Reason: fmt.Sprintf(format, args...)}
	}

	if v.Type != message.TypeArray {
		return nil, frameErr("message is not an array but %s", v.Type)
	}
	elems := v.Array
	if len(elems) < 3 {
		return nil, frameErr("message array has %d elements, need at least 3", len(elems))
	}
	tag, ok := elems[0].AsUint()
	if !ok {
		return nil, frameErr("type tag is not an integer but %s", elems[0].Type)
	}

	switch message.Kind(tag) {
	case message.KindRequest:
		if len(elems) != 4 {
			return nil, frameErr("request array has %d elements, need 4", len(elems))
		}
		id, err := messageID(elems[1])
		if err != nil {
			return nil, frameErr("request %v", err)
		}
		method, params, err := methodAndParams(elems[2], elems[3])
		if err != nil {
			return nil, frameErr("request %v", err)
		}
		return &message.Request{ID: id, Method: method, Params: params}, nil

	case message.KindResponse:
		if len(elems) != 4 {
			return nil, frameErr("response array has %d elements, need 4", len(elems))
		}
		id, err := messageID(elems[1])
		if err != nil {
			return nil, frameErr("response %v", err)
		}
		errVal, result := elems[2], elems[3]
		if !errVal.IsNil() && !result.IsNil() {
			return nil, frameErr("response %d carries both error and result", id)
		}
		return &message.Response{ID: id, Err: errVal, Result: result}, nil

	case message.KindNotification:
		if len(elems) != 3 {
			return nil, frameErr("notification array has %d elements, need 3", len(elems))
		}
		method, params, err := methodAndParams(elems[1], elems[2])
		if err != nil {
			return nil, frameErr("notification %v", err)
		}
		return &message.Notification{Method: method, Params: params}, nil

	default:
		return nil, frameErr("unknown type tag %d", tag)
	}
}

func messageID(v message.Value) (uint32, error) {
	id, ok := v.AsUint()
	if !ok {
		return 0, fmt.Errorf("id is not an integer but %s", v.Type)
	}
	if id > math.MaxUint32 {
		return 0, fmt.Errorf("id %d exceeds 32 bits", id)
	}
	return uint32(id), nil
}

func methodAndParams(methodV, paramsV message.Value) (string, []message.Value, error) {
	method, ok := methodV.AsString()
	if !ok {
		return "", nil, fmt.Errorf("method is not a string but %s", methodV.Type)
	}
	if method == "" {
		return "", nil, fmt.Errorf("method is empty")
	}
	if paramsV.Type != message.TypeArray {
		return "", nil, fmt.Errorf("params is not an array but %s", paramsV.Type)
	}
	return method, paramsV.Array, nil
}
