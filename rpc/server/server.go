package server

import (
	"net"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"

	"github.com/ValentinKolb/mpRPC/rpc/common"
	"github.com/ValentinKolb/mpRPC/rpc/transport"

	_ "net/http/pprof"
)

var Logger = logger.GetLogger("server")

// NewRPCServer creates a new RPC server
// It takes a config, transport and mux as parameters
//
// Usage:
//
//	mux := server.NewServeMux()
//	mux.HandleFunc("echo", echoHandler)
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		mux,
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	mux *ServeMux,
) rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	// Create the RPC server
	return rpcServer{
		config:    config,
		transport: transport,
		mux:       mux,
	}
}

type rpcServer struct {
	config    common.ServerConfig
	transport transport.IRPCServerTransport
	mux       *ServeMux
}

func (s *rpcServer) init() error {

	// Init logger
	common.InitLoggers(s.config.LogLevel)

	// Expose Prometheus metrics (and pprof) if configured
	if endpoint := s.config.MetricsEndpoint; endpoint != "" {
		http.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
			metrics.WritePrometheus(w, true)
		})
		go func() {
			Logger.Infof("Starting metrics server on %s", endpoint)
			Logger.Errorf("%v", http.ListenAndServe(endpoint, nil))
		}()
	}

	// Configure the transport layer: all connections share the mux
	s.transport.RegisterHandler(func(_ net.Addr) transport.IRPCHandler {
		return s.mux
	})

	return nil
}

// Serve starts the RPC server
// This function will also initialize the server and start the transport layer
func (s *rpcServer) Serve() error {
	err := s.init()
	if err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}
