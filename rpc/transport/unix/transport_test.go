package unix

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/mpRPC/rpc/common"
	"github.com/ValentinKolb/mpRPC/rpc/message"
	"github.com/ValentinKolb/mpRPC/rpc/transport"
)

// echoHandler serves a few methods for the end-to-end tests
type echoHandler struct {
	notifications chan []message.Value
}

func (h *echoHandler) HandleRequest(_ context.Context, method string, params []message.Value) (message.Value, error) {
	switch method {
	case "add":
		var sum int64
		for _, p := range params {
			n, ok := p.AsInt()
			if !ok {
				return message.Value{}, fmt.Errorf("add: expected integer params")
			}
			sum += n
		}
		return message.Int(sum), nil
	case "echo":
		return message.Array(params...), nil
	case "sleep":
		ms, _ := params[0].AsInt()
		time.Sleep(time.Duration(ms) * time.Millisecond)
		return message.Int(ms), nil
	default:
		return message.Value{}, fmt.Errorf("unknown method %q", method)
	}
}

func (h *echoHandler) HandleNotification(_ context.Context, _ string, params []message.Value) error {
	h.notifications <- params
	return nil
}

// startServer starts a unix server transport on a fresh socket and waits for
// it to accept connections
func startServer(t *testing.T) (string, *echoHandler) {
	t.Helper()

	endpoint := filepath.Join(t.TempDir(), "rpc.sock")
	handler := &echoHandler{notifications: make(chan []message.Value, 16)}

	st := NewUnixServerTransport()
	st.RegisterHandler(func(_ net.Addr) transport.IRPCHandler { return handler })

	go func() {
		if err := st.Listen(common.ServerConfig{
			Transport: common.ServerTransportConfig{
				Endpoint:       endpoint,
				WorkersPerConn: 8,
			},
		}); err != nil {
			t.Errorf("Listen failed: %v", err)
		}
	}()

	// wait until the socket accepts connections
	for i := 0; i < 100; i++ {
		if conn, err := net.Dial("unix", endpoint); err == nil {
			_ = conn.Close()
			return endpoint, handler
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Server never came up")
	return "", nil
}

// connectClient connects a unix client transport to the endpoint
func connectClient(t *testing.T, endpoint string, connections int) transport.IRPCClientTransport {
	t.Helper()

	ct := NewUnixClientTransport()
	err := ct.Connect(common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{endpoint},
			ConnectionsPerEndpoint: connections,
			RetryCount:             1,
		},
	})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	t.Cleanup(func() { _ = ct.Close() })
	return ct
}

// TestCallRoundTrip tests a call through the full client and server stack
func TestCallRoundTrip(t *testing.T) {
	endpoint, _ := startServer(t)
	ct := connectClient(t, endpoint, 1)

	result, err := ct.Call(context.Background(), "add", []message.Value{message.Int(19), message.Int(23)})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if n, _ := result.AsInt(); n != 42 {
		t.Errorf("Result %d, want 42", n)
	}
}

// TestCallRemoteError tests that a handler failure surfaces as RemoteError
// and is not retried as a transport failure
func TestCallRemoteError(t *testing.T) {
	endpoint, _ := startServer(t)
	ct := connectClient(t, endpoint, 1)

	_, err := ct.Call(context.Background(), "nope", nil)
	var remoteErr *message.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("Got %v, want RemoteError", err)
	}
	if remoteErr.Error() != `unknown method "nope"` {
		t.Errorf("Remote error is %q", remoteErr.Error())
	}
}

// TestConcurrentCalls tests that many calls multiplex over few connections
// and every response reaches its caller
func TestConcurrentCalls(t *testing.T) {
	endpoint, _ := startServer(t)
	ct := connectClient(t, endpoint, 2)

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			result, err := ct.Call(context.Background(), "add", []message.Value{
				message.Int(int64(i)), message.Int(int64(i)),
			})
			if err != nil {
				errs <- fmt.Errorf("call %d: %w", i, err)
				return
			}
			if got, _ := result.AsInt(); got != int64(2*i) {
				errs <- fmt.Errorf("call %d returned %d, want %d", i, got, 2*i)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

// TestSlowCallDoesNotBlockFast tests completion-order responses end to end
func TestSlowCallDoesNotBlockFast(t *testing.T) {
	endpoint, _ := startServer(t)
	ct := connectClient(t, endpoint, 1)

	slowDone := make(chan struct{})
	go func() {
		defer close(slowDone)
		if _, err := ct.Call(context.Background(), "sleep", []message.Value{message.Int(300)}); err != nil {
			t.Errorf("Slow call failed: %v", err)
		}
	}()

	// give the slow call a head start on the shared connection
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	if _, err := ct.Call(context.Background(), "add", []message.Value{message.Int(1)}); err != nil {
		t.Fatalf("Fast call failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("Fast call waited %s behind the slow one", elapsed)
	}

	<-slowDone
}

// TestNotify tests that notifications arrive and produce no response traffic
func TestNotify(t *testing.T) {
	endpoint, handler := startServer(t)
	ct := connectClient(t, endpoint, 1)

	if err := ct.Notify(context.Background(), "log", []message.Value{message.Str("hello")}); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	select {
	case params := <-handler.notifications:
		if s, _ := params[0].AsString(); s != "hello" {
			t.Errorf("Notification param %q, want %q", s, "hello")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Notification never arrived")
	}

	// the connection still works for calls afterwards
	if _, err := ct.Call(context.Background(), "add", []message.Value{message.Int(1)}); err != nil {
		t.Fatalf("Call after notify failed: %v", err)
	}
}

// TestCallContextCancel tests that a canceled context abandons the call
func TestCallContextCancel(t *testing.T) {
	endpoint, _ := startServer(t)
	ct := connectClient(t, endpoint, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := ct.Call(ctx, "sleep", []message.Value{message.Int(2000)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Got %v, want context.Canceled", err)
	}
}
