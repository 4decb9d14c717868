package server

import (
	"context"

	"github.com/ValentinKolb/mpRPC/rpc/message"
)

// HandlerFunc handles one request for a single method. The returned value
// becomes the result slot of the response; a non-nil error becomes its error
// slot instead.
type HandlerFunc func(ctx context.Context, params []message.Value) (message.Value, error)

// NotifyFunc handles one notification for a single method. There is no
// response; a returned error is only logged by the transport.
type NotifyFunc func(ctx context.Context, params []message.Value) error
