// Package cmd implements the command-line interface for the mpRPC engine.
// It provides a hierarchical command structure with operations for running
// the demo server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Commands for starting and configuring the demo server
//   - call: One-shot client commands for calls and notifications
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See mprpc -help for a list of all commands.
package cmd
