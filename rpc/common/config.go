package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Shared transport tuning structs
// --------------------------------------------------------------------------

// SocketConf holds socket buffer settings shared by all stream transports.
type SocketConf struct {
	// WriteBufferSize is the socket write buffer size in bytes (0 = OS default)
	WriteBufferSize int
	// ReadBufferSize is the socket read buffer size in bytes (0 = OS default)
	ReadBufferSize int
}

// TCPConf holds TCP-specific tuning knobs. Unix socket transports ignore it.
type TCPConf struct {
	// TCPNoDelay disables Nagle's algorithm when true
	TCPNoDelay bool
	// TCPKeepAliveSec enables keep-alive probes with the given period (0 = off)
	TCPKeepAliveSec int
	// TCPLingerSec sets the socket linger time (negative = OS default)
	TCPLingerSec int
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerTransportConfig holds the settings of the server transport layer.
type ServerTransportConfig struct {
	// Endpoint is the address to listen on (host:port for tcp, a path for unix)
	Endpoint string

	// WorkersPerConn bounds the handler goroutines running per connection.
	// Once the bound is reached, frame dispatch on that connection pauses
	// until a worker finishes.
	WorkersPerConn int

	// MaxMessageSize is the largest single frame the server accepts in bytes
	// (0 = unlimited). A connection that sends a larger frame is closed.
	MaxMessageSize int

	SocketConf
	TCPConf
}

// ServerConfig holds all configuration parameters for an RPC server.
type ServerConfig struct {
	// TimeoutSecond is the per-connection idle deadline (0 = none)
	TimeoutSecond int64

	// MetricsEndpoint exposes Prometheus metrics when non-empty (e.g. ":6060")
	MetricsEndpoint string

	// Logging configuration
	LogLevel string

	// Transport layer settings
	Transport ServerTransportConfig
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Workers Per Conn", strconv.Itoa(c.Transport.WorkersPerConn))
	if c.Transport.MaxMessageSize > 0 {
		addField("Max Message Size", fmt.Sprintf("%d bytes", c.Transport.MaxMessageSize))
	} else {
		addField("Max Message Size", "unlimited")
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Metrics
	if c.MetricsEndpoint != "" {
		addSection("Metrics")
		addField("Endpoint", c.MetricsEndpoint)
	}

	// Socket tuning
	addSection("Socket")
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.Transport.WriteBufferSize))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.Transport.ReadBufferSize))
	addField("TCP NoDelay", fmt.Sprintf("%t", c.Transport.TCPNoDelay))
	addField("TCP KeepAlive", fmt.Sprintf("%d sec", c.Transport.TCPKeepAliveSec))
	addField("TCP Linger", fmt.Sprintf("%d sec", c.Transport.TCPLingerSec))

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the settings of the client transport layer.
type ClientTransportConfig struct {
	// Endpoints lists the servers to connect to
	Endpoints []string

	// ConnectionsPerEndpoint opens that many multiplexed connections per
	// endpoint; calls are spread over them round-robin
	ConnectionsPerEndpoint int

	// RetryCount is how often a request is retried on transport failures
	RetryCount int

	// MaxMessageSize is the largest single frame the client accepts (0 = unlimited)
	MaxMessageSize int

	SocketConf
	TCPConf
}

// ClientConfig holds all configuration parameters for an RPC client.
type ClientConfig struct {
	// TimeoutSecond is the per-call timeout (0 = none)
	TimeoutSecond int

	// Logging configuration
	LogLevel string

	// Transport layer settings
	Transport ClientTransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.Transport.ConnectionsPerEndpoint)))))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
