package base

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/ValentinKolb/mpRPC/rpc/codec"
	"github.com/ValentinKolb/mpRPC/rpc/common"
	"github.com/ValentinKolb/mpRPC/rpc/message"
	"github.com/ValentinKolb/mpRPC/rpc/transport"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector IServerConnector
	factory   transport.HandlerFactory
	config    common.ServerConfig
	listener  net.Listener
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport with per-connection worker pool
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	return &serverTransport{connector: connector}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(factory transport.HandlerFactory) {
	t.factory = factory
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	if t.factory == nil {
		return fmt.Errorf("no handler factory registered")
	}

	t.config = config

	// minimum one worker per connection
	if t.config.Transport.WorkersPerConn < 1 {
		t.config.Transport.WorkersPerConn = 1
	}

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}
	t.listener = listener

	Logger.Infof("Starting %s server on %s with %d workers per connection",
		t.connector.GetName(), config.Transport.Endpoint, t.config.Transport.WorkersPerConn)

	// Accept connections
	for {
		conn, err := listener.Accept()
		if err != nil {
			Logger.Errorf("Accept error: %v", err)
			continue
		}

		if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
			Logger.Errorf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
			_ = conn.Close()
			continue
		}

		// Handle the connection in a goroutine
		go t.handleConnection(conn)
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection drives one connection: it decodes frames from the stream,
// dispatches them to bounded worker goroutines and funnels all responses
// through a single writer goroutine, so responses leave in completion order
// while the connection keeps accepting new requests.
func (t *serverTransport) handleConnection(conn net.Conn) {
	atomic.AddInt64(&activeConnections, 1)
	defer atomic.AddInt64(&activeConnections, -1)

	// Canceled when the connection winds down, so long-running handlers
	// can notice the peer is gone
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := t.factory(conn.RemoteAddr())

	// Timeout in seconds
	timeout := time.Duration(t.config.TimeoutSecond) * time.Second

	// Create a semaphore to limit concurrent workers for this connection
	// The buffered channel acts as a counting semaphore
	workerSemaphore := make(chan struct{}, t.config.Transport.WorkersPerConn)

	// Create a wait group to wait for all workers to finish
	var wg sync.WaitGroup

	// All frames leave through this queue; the writer goroutine is the only
	// one writing to the connection
	out := make(chan []byte, writeQueueSize)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writeFrames(conn, out, timeout)
	}()

	// Request ids with a handler still running. A request reusing an
	// in-flight id is rejected without invoking the handler; the original
	// request keeps running and answers under that id.
	inFlight := xsync.NewMapOf[uint32, struct{}]()

	// dispatch routes one decoded frame. It blocks on the worker semaphore,
	// which is the connection's backpressure: no new frame is decoded while
	// all workers are busy.
	dispatch := func(msg message.Message) {
		switch m := msg.(type) {
		case *message.Request:
			if _, loaded := inFlight.LoadOrStore(m.ID, struct{}{}); loaded {
				metricDuplicateIDs.Inc()
				Logger.Warningf("Duplicate request id %d from %s", m.ID, conn.RemoteAddr())
				out <- codec.EncodeMessage(message.NewErrorResponse(m.ID, message.Str("duplicate request id")))
				return
			}

			workerSemaphore <- struct{}{}
			wg.Add(1)
			go func() {
				defer func() {
					<-workerSemaphore
					wg.Done()
				}()

				start := time.Now()
				result, err := handler.HandleRequest(ctx, m.Method, m.Params)
				Logger.Debugf("Processed request %q with id %d took %s", m.Method, m.ID, time.Since(start))

				inFlight.Delete(m.ID)

				if err != nil {
					metricHandlerErrors.Inc()
					out <- codec.EncodeMessage(message.NewErrorResponse(m.ID, errorValue(err)))
				} else {
					out <- codec.EncodeMessage(message.NewResponse(m.ID, result))
				}
			}()

		case *message.Notification:
			workerSemaphore <- struct{}{}
			wg.Add(1)
			go func() {
				defer func() {
					<-workerSemaphore
					wg.Done()
				}()

				// Notifications are never answered, a failure is only logged
				if err := handler.HandleNotification(ctx, m.Method, m.Params); err != nil {
					metricHandlerErrors.Inc()
					Logger.Errorf("Notification %q failed: %v", m.Method, err)
				}
			}()

		case *message.Response:
			// A server awaits no responses; the peer is confused
			Logger.Warningf("Ignoring response frame for id %d from %s", m.ID, conn.RemoteAddr())
		}
	}

	// Read loop: read a chunk, then drain all complete frames from the buffer
	var buf recvBuffer
	for {
		if timeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
				Logger.Errorf("Failed to set read deadline: %v", err)
				break
			}
		}

		n, readErr := buf.readFrom(conn)
		if n > 0 {
			if err := t.drainFrames(&buf, conn, dispatch); err != nil {
				Logger.Errorf("Closing connection from %s: %v", conn.RemoteAddr(), err)
				break
			}
		}

		// Case EOF: Connection closed by client
		if readErr == io.EOF {
			if buf.len() > 0 {
				Logger.Warningf("Connection from %s closed mid-frame (%d bytes pending)", conn.RemoteAddr(), buf.len())
			} else {
				Logger.Infof("Connection closed by client")
			}
			break
		}

		// Case error: log and close connection
		if readErr != nil {
			Logger.Errorf("Error reading from connection: %v", readErr)
			break
		}
	}

	// Wait for all workers to finish before closing the connection
	// This ensures we don't lose any in-progress work
	wg.Wait()
	close(out)
	<-writerDone
	_ = conn.Close()
}

// drainFrames decodes and dispatches every complete frame at the front of
// the buffer. Invalid frames are skipped by their exact byte span so the
// stream stays aligned on the next frame boundary; a truncated frame leaves
// the buffer untouched until more bytes arrive.
func (t *serverTransport) drainFrames(buf *recvBuffer, conn net.Conn, dispatch func(message.Message)) error {
	for buf.len() > 0 {
		msg, n, err := codec.DecodeMessage(buf.bytes())

		if codec.IsShortBuffer(err) {
			if max := t.config.Transport.MaxMessageSize; max > 0 && buf.len() > max {
				return fmt.Errorf("frame exceeds maximum message size of %d bytes", max)
			}
			return nil
		}

		var frameErr *codec.FrameError
		if errors.As(err, &frameErr) {
			metricInvalidFrames.Inc()
			Logger.Warningf("Skipping invalid frame from %s: %v", conn.RemoteAddr(), frameErr)
			buf.advance(frameErr.Size)
			continue
		}

		if err != nil {
			return err
		}

		metricFramesRead.Inc()
		buf.advance(n)
		dispatch(msg)
	}
	return nil
}

// writeFrames is the connection's writer goroutine. Frames are written
// through a buffered writer that is only flushed once the queue runs dry,
// batching bursts of responses into fewer syscalls.
func writeFrames(conn net.Conn, out <-chan []byte, timeout time.Duration) {
	w := bufio.NewWriterSize(conn, writeBufferSize)

	fail := func(err error) {
		Logger.Errorf("Failed to write response: %v", err)
		_ = conn.Close()
		// Keep draining so blocked workers can finish
		for range out {
		}
	}

	for frame := range out {
		if timeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				fail(err)
				return
			}
		}

		if _, err := w.Write(frame); err != nil {
			fail(err)
			return
		}
		metricFramesWritten.Inc()

		// Flush only when no further frame is queued
		if len(out) == 0 {
			if err := w.Flush(); err != nil {
				fail(err)
				return
			}
		}
	}

	_ = w.Flush()
}

// errorValue converts a handler error into the error slot of a response.
// A *message.RemoteError passes its structured value through unchanged, any
// other error is sent as its string representation.
func errorValue(err error) message.Value {
	var remoteErr *message.RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Value
	}
	return message.Str(err.Error())
}
