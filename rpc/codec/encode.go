package codec

import (
	"encoding/binary"
	"math"

	"github.com/ValentinKolb/mpRPC/rpc/message"
)

// --------------------------------------------------------------------------
// Message Encoding
// --------------------------------------------------------------------------

// EncodeMessage serializes one message into its wire frame. Encoding is a
// total function: every well-formed in-memory message has exactly one frame.
func EncodeMessage(m message.Message) []byte {
	return AppendMessage(nil, m)
}

// AppendMessage appends the wire frame of m to dst and returns the extended
// buffer. The frame is the msgpack array [type, ...fields]:
//
//	Request:      [0, id, method, params]
//	Response:     [1, id, error, result]
//	Notification: [2, method, params]
func AppendMessage(dst []byte, m message.Message) []byte {
	switch msg := m.(type) {
	case *message.Request:
		dst = appendArrayHeader(dst, 4)
		dst = appendUint(dst, uint64(message.KindRequest))
		dst = appendUint(dst, uint64(msg.ID))
		dst = appendString(dst, msg.Method)
		dst = appendArray(dst, msg.Params)
	case *message.Response:
		dst = appendArrayHeader(dst, 4)
		dst = appendUint(dst, uint64(message.KindResponse))
		dst = appendUint(dst, uint64(msg.ID))
		dst = AppendValue(dst, msg.Err)
		dst = AppendValue(dst, msg.Result)
	case *message.Notification:
		dst = appendArrayHeader(dst, 3)
		dst = appendUint(dst, uint64(message.KindNotification))
		dst = appendString(dst, msg.Method)
		dst = appendArray(dst, msg.Params)
	}
	return dst
}

// --------------------------------------------------------------------------
// Value Encoding
// --------------------------------------------------------------------------

// AppendValue appends the msgpack encoding of v to dst, always using the
// smallest format that can represent the value.
func AppendValue(dst []byte, v message.Value) []byte {
	switch v.Type {
	case message.TypeNil:
		return append(dst, mpNil)
	case message.TypeBool:
		if v.Bool {
			return append(dst, mpTrue)
		}
		return append(dst, mpFalse)
	case message.TypeInt:
		if v.Int >= 0 {
			return appendUint(dst, uint64(v.Int))
		}
		return appendNegInt(dst, v.Int)
	case message.TypeUint:
		return appendUint(dst, v.Uint)
	case message.TypeFloat:
		dst = append(dst, mpFloat64)
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(v.Float))
	case message.TypeString:
		return appendString(dst, v.Str)
	case message.TypeBinary:
		dst = appendBinHeader(dst, len(v.Bin))
		return append(dst, v.Bin...)
	case message.TypeArray:
		return appendArray(dst, v.Array)
	case message.TypeMap:
		dst = appendMapHeader(dst, len(v.Entries))
		for _, e := range v.Entries {
			dst = AppendValue(dst, e.Key)
			dst = AppendValue(dst, e.Val)
		}
		return dst
	case message.TypeExt:
		dst = appendExtHeader(dst, v.ExtType, len(v.Bin))
		return append(dst, v.Bin...)
	default:
		// unreachable for values built through the message factories
		return append(dst, mpNil)
	}
}

// --------------------------------------------------------------------------
// Format Helpers
// --------------------------------------------------------------------------

func appendUint(dst []byte, u uint64) []byte {
	switch {
	case u <= mpFixIntMax:
		return append(dst, byte(u))
	case u <= math.MaxUint8:
		return append(dst, mpUint8, byte(u))
	case u <= math.MaxUint16:
		return binary.BigEndian.AppendUint16(append(dst, mpUint16), uint16(u))
	case u <= math.MaxUint32:
		return binary.BigEndian.AppendUint32(append(dst, mpUint32), uint32(u))
	default:
		return binary.BigEndian.AppendUint64(append(dst, mpUint64), u)
	}
}

func appendNegInt(dst []byte, i int64) []byte {
	switch {
	case i >= -32:
		return append(dst, byte(i))
	case i >= math.MinInt8:
		return append(dst, mpInt8, byte(i))
	case i >= math.MinInt16:
		return binary.BigEndian.AppendUint16(append(dst, mpInt16), uint16(i))
	case i >= math.MinInt32:
		return binary.BigEndian.AppendUint32(append(dst, mpInt32), uint32(i))
	default:
		return binary.BigEndian.AppendUint64(append(dst, mpInt64), uint64(i))
	}
}

func appendString(dst []byte, s string) []byte {
	n := len(s)
	switch {
	case n < 32:
		dst = append(dst, mpFixStr|byte(n))
	case n <= math.MaxUint8:
		dst = append(dst, mpStr8, byte(n))
	case n <= math.MaxUint16:
		dst = binary.BigEndian.AppendUint16(append(dst, mpStr16), uint16(n))
	default:
		dst = binary.BigEndian.AppendUint32(append(dst, mpStr32), uint32(n))
	}
	return append(dst, s...)
}

func appendBinHeader(dst []byte, n int) []byte {
	switch {
	case n <= math.MaxUint8:
		return append(dst, mpBin8, byte(n))
	case n <= math.MaxUint16:
		return binary.BigEndian.AppendUint16(append(dst, mpBin16), uint16(n))
	default:
		return binary.BigEndian.AppendUint32(append(dst, mpBin32), uint32(n))
	}
}

func appendArrayHeader(dst []byte, n int) []byte {
	switch {
	case n < 16:
		return append(dst, mpFixArray|byte(n))
	case n <= math.MaxUint16:
		return binary.BigEndian.AppendUint16(append(dst, mpArray16), uint16(n))
	default:
		return binary.BigEndian.AppendUint32(append(dst, mpArray32), uint32(n))
	}
}

func appendMapHeader(dst []byte, n int) []byte {
	switch {
	case n < 16:
		return append(dst, mpFixMap|byte(n))
	case n <= math.MaxUint16:
		return binary.BigEndian.AppendUint16(append(dst, mpMap16), uint16(n))
	default:
		return binary.BigEndian.AppendUint32(append(dst, mpMap32), uint32(n))
	}
}

func appendExtHeader(dst []byte, extType int8, n int) []byte {
	switch n {
	case 1:
		return append(dst, mpFixExt1, byte(extType))
	case 2:
		return append(dst, mpFixExt2, byte(extType))
	case 4:
		return append(dst, mpFixExt4, byte(extType))
	case 8:
		return append(dst, mpFixExt8, byte(extType))
	case 16:
		return append(dst, mpFixExt16, byte(extType))
	}
	switch {
	case n <= math.MaxUint8:
		return append(dst, mpExt8, byte(n), byte(extType))
	case n <= math.MaxUint16:
		dst = binary.BigEndian.AppendUint16(append(dst, mpExt16), uint16(n))
		return append(dst, byte(extType))
	default:
		dst = binary.BigEndian.AppendUint32(append(dst, mpExt32), uint32(n))
		return append(dst, byte(extType))
	}
}

func appendArray(dst []byte, elems []message.Value) []byte {
	dst = appendArrayHeader(dst, len(elems))
	for _, e := range elems {
		dst = AppendValue(dst, e)
	}
	return dst
}
