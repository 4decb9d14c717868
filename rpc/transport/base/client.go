package base

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lni/dragonboat/v4/logger"

	"github.com/ValentinKolb/mpRPC/rpc/codec"
	"github.com/ValentinKolb/mpRPC/rpc/common"
	"github.com/ValentinKolb/mpRPC/rpc/message"
	"github.com/ValentinKolb/mpRPC/rpc/pending"
	"github.com/ValentinKolb/mpRPC/rpc/transport"
)

var Logger = logger.GetLogger("transport/rpc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection based on the provided configuration
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientConnection represents a single net connection. Multiple calls are in
// flight on it at once; the pending table pairs each response frame with the
// caller waiting for its id.
type clientConnection struct {
	conn     net.Conn
	endpoint string
	stopCh   chan struct{} // Close signal for the reader goroutine
	pending  *pending.Table
	connMu   sync.Mutex // Protects writes to the connection
	parent   *clientTransport
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	connections   []*clientConnection
	connectionsMu sync.RWMutex
	nextConnIndex uint64 // Atomic counter for Round Robin
	stopping      atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Store the config
	t.config = config
	t.stopping.Store(false)

	// Close all existing connections
	t.closeConnections()

	// Set default value for ConnectionsPerEndpoint
	connectionsPerEP := 1
	if config.Transport.ConnectionsPerEndpoint > 0 {
		connectionsPerEP = config.Transport.ConnectionsPerEndpoint
	}

	// Create connections
	t.connections = make([]*clientConnection, 0, len(config.Transport.Endpoints)*connectionsPerEP)

	// Initialize client connections
	for _, endpoint := range config.Transport.Endpoints {
		// Create multiple connections per endpoint
		for i := 0; i < connectionsPerEP; i++ {
			clientConn := &clientConnection{
				conn:     nil, // Will be set by reconnect
				endpoint: endpoint,
				stopCh:   make(chan struct{}),
				pending:  pending.NewTable(),
				parent:   t,
			}

			// Establish the initial connection using reconnect
			if err := clientConn.reconnect(); err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, connectionsPerEP, err)
				continue
			}

			// Add to our connections list
			t.connectionsMu.Lock()
			t.connections = append(t.connections, clientConn)
			t.connectionsMu.Unlock()

			Logger.Infof("Connected to %s (connection %d/%d)", endpoint, i+1, connectionsPerEP)

			// Start the response reader
			go clientConn.readResponses()
		}
	}

	// Check if we have at least one connection
	if len(t.connections) == 0 {
		return fmt.Errorf("failed to connect to any endpoint")
	}

	Logger.Infof("Connected to %d out of %d connections to %d endpoints using %s transport",
		len(t.connections), len(config.Transport.Endpoints)*connectionsPerEP, len(config.Transport.Endpoints), t.connector.GetName())

	return nil
}

func (t *clientTransport) Call(ctx context.Context, method string, params []message.Value) (message.Value, error) {
	// Define the send function to be used in retries
	send := func(connection *clientConnection) (message.Value, error) {
		// Test if connection is still valid
		if connection.conn == nil {
			return message.Value{}, fmt.Errorf("connection is closed")
		}

		// Reserve a fresh request id on this connection. The entry is removed
		// on every exit path, so a response arriving after a timeout finds no
		// entry and is dropped as an orphan.
		call := connection.pending.Register()
		defer connection.pending.Remove(call.ID())

		frame := codec.EncodeMessage(message.NewRequest(call.ID(), method, params...))

		// Set write timeout
		if t.config.TimeoutSecond > 0 {
			timeout := time.Duration(t.config.TimeoutSecond) * time.Second
			connection.conn.SetWriteDeadline(time.Now().Add(timeout))
		}

		// Lock the connection only for writing
		connection.connMu.Lock()
		_, err := connection.conn.Write(frame)
		connection.connMu.Unlock()

		if err != nil {
			return message.Value{}, err
		}
		metricFramesWritten.Inc()

		// Wait for response, cancellation or timeout
		var timeoutCh <-chan time.Time
		if t.config.TimeoutSecond > 0 {
			timeout := time.Duration(t.config.TimeoutSecond) * time.Second
			timeoutCh = time.After(timeout)
		} else {
			timeoutCh = make(chan time.Time) // Never triggers
		}

		select {
		case <-call.Done():
			outcome, err := call.Outcome()
			if err != nil {
				return message.Value{}, err
			}
			if outcome.IsError() {
				return message.Value{}, &message.RemoteError{Value: outcome.Err}
			}
			return outcome.Result, nil
		case <-ctx.Done():
			return message.Value{}, ctx.Err()
		case <-timeoutCh:
			return message.Value{}, fmt.Errorf("request timed out")
		}
	}

	// Retry logic with exponential backoff
	var lastErr error

	// We always try at least once, and up to maxRetries times
	maxRetries := t.config.Transport.RetryCount
	if maxRetries < 1 {
		maxRetries = 1
	}

	// Initial backoff duration in milliseconds
	backoffMs := 50

	for i := 0; i < maxRetries; i++ {
		conn := t.getNextConnection()
		if conn == nil {
			return message.Value{}, fmt.Errorf("no active connections available")
		}

		// Try with this connection
		result, err := send(conn)
		if err == nil {
			return result, nil
		}

		// A remote error is an answer, not a transport failure; only
		// transport failures are worth another attempt
		var remoteErr *message.RemoteError
		if errors.As(err, &remoteErr) || ctx.Err() != nil {
			return message.Value{}, err
		}

		lastErr = err
		Logger.Debugf("Request attempt %d/%d failed: %v", i+1, maxRetries, err)

		if i < maxRetries-1 {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			backoffDuration := time.Duration(jitter) * time.Millisecond
			time.Sleep(backoffDuration)
			backoffMs *= 2
		}
	}

	// All attempts failed
	return message.Value{}, fmt.Errorf("failed to send request after %d attempts: %v", maxRetries, lastErr)
}

func (t *clientTransport) Notify(ctx context.Context, method string, params []message.Value) error {
	frame := codec.EncodeMessage(message.NewNotification(method, params...))

	// Define the send function to be used in retries
	send := func(connection *clientConnection) error {
		if connection.conn == nil {
			return fmt.Errorf("connection is closed")
		}

		// Set write timeout
		if t.config.TimeoutSecond > 0 {
			timeout := time.Duration(t.config.TimeoutSecond) * time.Second
			connection.conn.SetWriteDeadline(time.Now().Add(timeout))
		}

		// Lock the connection only for writing
		connection.connMu.Lock()
		_, err := connection.conn.Write(frame)
		connection.connMu.Unlock()

		if err == nil {
			metricFramesWritten.Inc()
		}
		return err
	}

	// Retry failed writes; there is no response to wait for
	var lastErr error

	maxRetries := t.config.Transport.RetryCount
	if maxRetries < 1 {
		maxRetries = 1
	}

	backoffMs := 50

	for i := 0; i < maxRetries; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn := t.getNextConnection()
		if conn == nil {
			return fmt.Errorf("no active connections available")
		}

		if err := send(conn); err == nil {
			return nil
		} else {
			lastErr = err
		}

		Logger.Debugf("Notification attempt %d/%d failed: %v", i+1, maxRetries, lastErr)

		if i < maxRetries-1 {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter) * time.Millisecond)
			backoffMs *= 2
		}
	}

	return fmt.Errorf("failed to send notification after %d attempts: %v", maxRetries, lastErr)
}

func (t *clientTransport) Close() error {
	t.stopping.Store(true)
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// getNextConnection selects the next connection via Round Robin
func (t *clientTransport) getNextConnection() *clientConnection {
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()

	if len(t.connections) == 0 {
		return nil
	}

	// Simple Round Robin algorithm
	var index uint64
	if len(t.connections) == 1 {
		// optimize for single connection
		index = 0
	} else {
		index = atomic.AddUint64(&t.nextConnIndex, 1) % uint64(len(t.connections))
	}
	return t.connections[index]
}

// closeConnections closes all active connections
func (t *clientTransport) closeConnections() {
	t.connectionsMu.Lock()
	defer t.connectionsMu.Unlock()

	for _, conn := range t.connections {
		// Signal reader goroutine to stop
		close(conn.stopCh)

		// Close the connection
		if conn.conn != nil {
			conn.conn.Close()
		}

		// Wake up every caller still waiting on this connection
		conn.pending.FailAll(fmt.Errorf("transport closed"))
	}

	// Empty the list
	t.connections = nil
}

// readResponses reads the stream in a loop, decodes complete frames and
// resolves the pending calls they answer
func (c *clientConnection) readResponses() {
	var buf recvBuffer

	for {
		// Check if we should stop
		select {
		case <-c.stopCh:
			return
		default:
			// Continue
		}

		// Set timeout if configured
		if c.parent.config.TimeoutSecond > 0 {
			timeout := time.Duration(c.parent.config.TimeoutSecond) * time.Second
			c.conn.SetReadDeadline(time.Now().Add(timeout))
		}

		n, err := buf.readFrom(c.conn)
		if n > 0 {
			c.drainFrames(&buf)
		}

		if err != nil {
			// Stop silently when the transport is shutting down
			select {
			case <-c.stopCh:
				return
			default:
			}

			Logger.Errorf("Error reading response from %s: %v", c.endpoint, err)

			// Every call still waiting on this connection is lost
			c.pending.FailAll(fmt.Errorf("connection lost: %v", err))

			// Try to restore the connection
			if err := c.reconnect(); err != nil {
				Logger.Errorf("Failed to reconnect to %s: %v", c.endpoint, err)
				return
			}

			// Partial frame bytes from the old connection are useless
			buf.reset()
		}
	}
}

// drainFrames resolves all complete response frames at the front of the
// buffer. Invalid frames are skipped by their exact span; a response for an
// id no caller waits on (answered late, or abandoned after a timeout) is
// counted and dropped.
func (c *clientConnection) drainFrames(buf *recvBuffer) {
	for buf.len() > 0 {
		msg, n, err := codec.DecodeMessage(buf.bytes())

		if codec.IsShortBuffer(err) {
			return
		}

		var frameErr *codec.FrameError
		if errors.As(err, &frameErr) {
			metricInvalidFrames.Inc()
			Logger.Warningf("Skipping invalid frame from %s: %v", c.endpoint, frameErr)
			buf.advance(frameErr.Size)
			continue
		}

		if err != nil {
			Logger.Errorf("Failed to decode frame from %s: %v", c.endpoint, err)
			buf.reset()
			return
		}

		metricFramesRead.Inc()
		buf.advance(n)

		resp, ok := msg.(*message.Response)
		if !ok {
			Logger.Warningf("Ignoring unexpected %s frame from %s", msg.Kind(), c.endpoint)
			continue
		}

		if !c.pending.Resolve(resp.ID, pending.Outcome{Err: resp.Err, Result: resp.Result}) {
			metricOrphanResponses.Inc()
			Logger.Warningf("Received response for unknown request id %d", resp.ID)
		}
	}
}

// reconnect establishes or restores a connection to the endpoint
func (c *clientConnection) reconnect() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	// Close the old connection if it exists
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	// Connect to the endpoint
	conn, err := c.parent.connector.Connect(c.endpoint)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %v", c.endpoint, err)
	}

	// Upgrade the connection with protocol-specific settings
	if err := c.parent.connector.UpgradeConnection(conn, c.parent.config); err != nil {
		conn.Close()
		return fmt.Errorf("failed to upgrade connection to %s: %v", c.endpoint, err)
	}

	c.conn = conn
	return nil
}
