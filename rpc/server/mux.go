package server

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/ValentinKolb/mpRPC/rpc/message"
)

// ServeMux routes decoded requests and notifications to the handler
// registered for their method name. It implements transport.IRPCHandler, so
// one mux typically serves all connections of a server.
type ServeMux struct {
	handlers      *xsync.MapOf[string, HandlerFunc]
	notifications *xsync.MapOf[string, NotifyFunc]
}

// NewServeMux creates an empty mux.
func NewServeMux() *ServeMux {
	return &ServeMux{
		handlers:      xsync.NewMapOf[string, HandlerFunc](),
		notifications: xsync.NewMapOf[string, NotifyFunc](),
	}
}

// HandleFunc registers the handler for a request method. Registering the
// same method twice replaces the previous handler.
func (m *ServeMux) HandleFunc(method string, h HandlerFunc) {
	m.handlers.Store(method, h)
}

// HandleNotifyFunc registers the handler for a notification method.
func (m *ServeMux) HandleNotifyFunc(method string, h NotifyFunc) {
	m.notifications.Store(method, h)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCHandler)
// --------------------------------------------------------------------------

func (m *ServeMux) HandleRequest(ctx context.Context, method string, params []message.Value) (message.Value, error) {
	h, ok := m.handlers.Load(method)
	if !ok {
		// Becomes the error slot of the response frame
		return message.Value{}, fmt.Errorf("unknown method %q", method)
	}
	return h(ctx, params)
}

func (m *ServeMux) HandleNotification(ctx context.Context, method string, params []message.Value) error {
	h, ok := m.notifications.Load(method)
	if !ok {
		return fmt.Errorf("unknown notification %q", method)
	}
	return h(ctx, params)
}
