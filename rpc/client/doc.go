// Package client implements the high-level RPC client of the engine. It
// wraps a transport with the conversion between native Go values and the
// wire value union, so callers work with plain Go types.
//
// The package focuses on:
//   - Transparent conversion of call arguments and results
//   - Integration with the transport layer for multiplexed calls
//   - Error handling and surfacing of remote errors
//
// Key Components:
//
//   - NewRPCClient: Factory function that creates a client and connects its
//     transport. The transport maintains the connections and correlates
//     responses; the client only converts values.
//
//   - Call / CallInto / CallValues: Request variants for raw results,
//     decoding into a destination, and pre-built wire values.
//
//   - Notify: Fire-and-forget notifications with no response.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:              []string{"localhost:5000"},
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	c, err := client.NewRPCClient(config, tcp.NewTCPClientTransport())
//	if err != nil {
//	  log.Fatalf("connect: %v", err)
//	}
//	defer c.Close()
//
//	var sum int
//	if err := c.CallInto(ctx, &sum, "add", 1, 2); err != nil {
//	  log.Fatalf("call: %v", err)
//	}
//
// Performance Considerations:
//
//   - For applications that frequently send large payloads, increasing
//     ConnectionsPerEndpoint can improve throughput by allowing parallel
//     requests.
//
//   - For small messages, a single connection per endpoint is often more
//     efficient due to reduced connection overhead.
//
// Thread Safety:
//
//	The client is thread-safe and can be used concurrently from multiple
//	goroutines without additional synchronization.
package client
