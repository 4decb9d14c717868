package message

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Message Union
// --------------------------------------------------------------------------

// Kind identifies the wire variant of a message. The numeric values are the
// type tags of the wire format and must not be reordered.
type Kind uint8

const (
	KindRequest      Kind = 0
	KindResponse     Kind = 1
	KindNotification Kind = 2
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	case KindNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// Message is the union of the three wire variants. Exactly one concrete type
// implements each variant; the discriminant is the dynamic type itself.
type Message interface {
	// Kind returns the wire type tag of the message.
	Kind() Kind

	fmt.Stringer
}

// --------------------------------------------------------------------------
// Request
// --------------------------------------------------------------------------

// Request is a call expecting exactly one Response carrying the same id.
// The id must be unique among the requests currently outstanding on its
// connection; it may be reused once the matching Response was consumed.
type Request struct {
	ID     uint32
	Method string
	Params []Value
}

// NewRequest creates a new Request.
func NewRequest(id uint32, method string, params ...Value) *Request {
	if params == nil {
		params = []Value{}
	}
	return &Request{ID: id, Method: method, Params: params}
}

func (m *Request) Kind() Kind { return KindRequest }

func (m *Request) String() string {
	return fmt.Sprintf("request(id=%d, method=%s, params=%s)", m.ID, m.Method, formatParams(m.Params))
}

// --------------------------------------------------------------------------
// Response
// --------------------------------------------------------------------------

// Response answers the Request with the same id. The error slot is the
// discriminant of the outcome: a non-nil Err means failure, otherwise Result
// carries the (possibly nil) success value. The factory functions keep the
// slot that is not active at the nil value, mirroring the wire layout.
type Response struct {
	ID     uint32
	Err    Value
	Result Value
}

// NewResponse creates a successful Response.
func NewResponse(id uint32, result Value) *Response {
	return &Response{ID: id, Err: Nil(), Result: result}
}

// NewErrorResponse creates a failed Response. A nil error value is not a
// meaningful outcome, so it is normalized to a generic error string.
func NewErrorResponse(id uint32, err Value) *Response {
	if err.IsNil() {
		err = Str("unknown error")
	}
	return &Response{ID: id, Err: err, Result: Nil()}
}

func (m *Response) Kind() Kind { return KindResponse }

// IsError reports whether the response carries an error outcome.
func (m *Response) IsError() bool {
	return !m.Err.IsNil()
}

func (m *Response) String() string {
	if m.IsError() {
		return fmt.Sprintf("response(id=%d, error=%s)", m.ID, m.Err)
	}
	return fmt.Sprintf("response(id=%d, result=%s)", m.ID, m.Result)
}

// --------------------------------------------------------------------------
// Notification
// --------------------------------------------------------------------------

// Notification is a fire-and-forget call. It carries no id and must never
// receive a Response, not even when its handler fails.
type Notification struct {
	Method string
	Params []Value
}

// NewNotification creates a new Notification.
func NewNotification(method string, params ...Value) *Notification {
	if params == nil {
		params = []Value{}
	}
	return &Notification{Method: method, Params: params}
}

func (m *Notification) Kind() Kind { return KindNotification }

func (m *Notification) String() string {
	return fmt.Sprintf("notification(method=%s, params=%s)", m.Method, formatParams(m.Params))
}

// --------------------------------------------------------------------------
// Remote Errors
// --------------------------------------------------------------------------

// RemoteError is the client-side representation of a Response error outcome.
type RemoteError struct {
	Value Value
}

func (e *RemoteError) Error() string {
	if s, ok := e.Value.AsString(); ok {
		return s
	}
	return e.Value.String()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func formatParams(params []Value) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
