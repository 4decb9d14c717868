// Package server implements the RPC server of the engine. It provides the
// method mux that routes decoded frames to handlers, along with the core
// server implementation that wires configuration, transport and metrics
// together.
//
// The package focuses on:
//   - Method-based routing of requests and notifications
//   - Decoupling application handlers from the transport mechanics
//   - Optional Prometheus metrics and pprof exposure
//
// Key Components:
//
//   - ServeMux: Concurrent method registry implementing the transport
//     handler interface. Requests for unregistered methods are answered
//     with an error response; unregistered notifications are logged.
//
//   - HandlerFunc / NotifyFunc: The signatures application code implements.
//
//   - NewRPCServer: Factory function creating a configured server with the
//     specified transport and mux.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  TimeoutSecond: 5,
//	  LogLevel: "info",
//	  Transport: common.ServerTransportConfig{
//	    Endpoint:       "0.0.0.0:5000",
//	    WorkersPerConn: 16,
//	  },
//	}
//
//	// Register handlers
//	mux := server.NewServeMux()
//	mux.HandleFunc("add", func(ctx context.Context, params []message.Value) (message.Value, error) {
//	  if len(params) != 2 {
//	    return message.Value{}, fmt.Errorf("add expects 2 params")
//	  }
//	  return message.Int(params[0].Int + params[1].Int), nil
//	})
//
//	// Create and start the server
//	s := server.NewRPCServer(config, tcp.NewTCPServerTransport(), mux)
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent
//	requests across multiple connections. Each request is processed
//	independently. The Serve method is not thread-safe and should be called
//	only once.
package server
