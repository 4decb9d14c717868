package server

import (
	"context"
	"fmt"
	"testing"

	"github.com/ValentinKolb/mpRPC/rpc/message"
)

// TestMuxRouting tests that requests and notifications reach the handler
// registered for their method
func TestMuxRouting(t *testing.T) {
	mux := NewServeMux()

	mux.HandleFunc("double", func(_ context.Context, params []message.Value) (message.Value, error) {
		n, ok := params[0].AsInt()
		if !ok {
			return message.Value{}, fmt.Errorf("expected an integer")
		}
		return message.Int(2 * n), nil
	})

	received := make(chan []message.Value, 1)
	mux.HandleNotifyFunc("event", func(_ context.Context, params []message.Value) error {
		received <- params
		return nil
	})

	result, err := mux.HandleRequest(context.Background(), "double", []message.Value{message.Int(21)})
	if err != nil {
		t.Fatalf("HandleRequest failed: %v", err)
	}
	if n, _ := result.AsInt(); n != 42 {
		t.Errorf("Result %d, want 42", n)
	}

	if err := mux.HandleNotification(context.Background(), "event", []message.Value{message.Str("x")}); err != nil {
		t.Fatalf("HandleNotification failed: %v", err)
	}
	select {
	case params := <-received:
		if s, _ := params[0].AsString(); s != "x" {
			t.Errorf("Notification param %q, want %q", s, "x")
		}
	default:
		t.Fatal("Notification handler never ran")
	}
}

// TestMuxUnknownMethod tests the error paths for unregistered methods
func TestMuxUnknownMethod(t *testing.T) {
	mux := NewServeMux()

	if _, err := mux.HandleRequest(context.Background(), "missing", nil); err == nil {
		t.Error("Unknown method did not fail")
	}
	if err := mux.HandleNotification(context.Background(), "missing", nil); err == nil {
		t.Error("Unknown notification did not fail")
	}

	// requests and notifications use separate registries
	mux.HandleFunc("only-request", func(_ context.Context, _ []message.Value) (message.Value, error) {
		return message.Nil(), nil
	})
	if err := mux.HandleNotification(context.Background(), "only-request", nil); err == nil {
		t.Error("Request handler answered a notification")
	}
}
