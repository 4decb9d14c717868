package serve

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdUtil "github.com/ValentinKolb/mpRPC/cmd/util"
	"github.com/ValentinKolb/mpRPC/rpc/common"
	"github.com/ValentinKolb/mpRPC/rpc/message"
	"github.com/ValentinKolb/mpRPC/rpc/server"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the mpRPC demo server",
		Long:    `Start an mpRPC server exposing a set of demo methods (echo, add, mul, div, log). The configuration can be set via command line flags or environment variables. The format of the environment variables is MPRPC_<flag> (e.g. MPRPC_TIMEOUT=15)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:5000", cmdUtil.WrapString("The address on which the server will listen (e.g. localhost:5000 for tcp, /tmp/mprpc.sock for unix)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 0, cmdUtil.WrapString("Per-connection idle timeout in seconds (0 = none)"))

	key = "workers-per-conn"
	ServeCmd.PersistentFlags().Int(key, 16, cmdUtil.WrapString("Maximum number of handler goroutines running concurrently per connection"))

	key = "max-message-size"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Largest accepted frame in bytes (0 = unlimited). Connections sending larger frames are closed"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Expose Prometheus metrics and pprof on this address (e.g. :6060, empty = disabled)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "write-buffer"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The size of the socket write buffer (in KB)"))

	key = "read-buffer"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The size of the socket read buffer (in KB)"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval in seconds (only for tcp)"))

	key = "tcp-linger"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The linger time in seconds (only for tcp)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.Transport = common.ServerTransportConfig{
		Endpoint:       viper.GetString("endpoint"),
		WorkersPerConn: viper.GetInt("workers-per-conn"),
		MaxMessageSize: viper.GetInt("max-message-size"),
		SocketConf: common.SocketConf{
			WriteBufferSize: viper.GetInt("write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("read-buffer") * 1024,
		},
		TCPConf: common.TCPConf{
			TCPNoDelay:      viper.GetBool("tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("tcp-linger"),
		},
	}

	return nil
}

// run starts the demo server
func run(_ *cobra.Command, _ []string) error {
	// Parse the transport
	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		demoMux(),
	)

	return serv.Serve()
}

// demoMux registers the demo methods served by the CLI server
func demoMux() *server.ServeMux {
	mux := server.NewServeMux()

	// echo returns its parameters unchanged
	mux.HandleFunc("echo", func(_ context.Context, params []message.Value) (message.Value, error) {
		return message.Array(params...), nil
	})

	// add sums any number of integer parameters
	mux.HandleFunc("add", func(_ context.Context, params []message.Value) (message.Value, error) {
		var sum int64
		for i, p := range params {
			n, ok := p.AsInt()
			if !ok {
				return message.Value{}, fmt.Errorf("add: param %d is %s, expected an integer", i, p.Type)
			}
			sum += n
		}
		return message.Int(sum), nil
	})

	// mul multiplies any number of integer parameters
	mux.HandleFunc("mul", func(_ context.Context, params []message.Value) (message.Value, error) {
		product := int64(1)
		for i, p := range params {
			n, ok := p.AsInt()
			if !ok {
				return message.Value{}, fmt.Errorf("mul: param %d is %s, expected an integer", i, p.Type)
			}
			product *= n
		}
		return message.Int(product), nil
	})

	// div divides the first parameter by the second
	mux.HandleFunc("div", func(_ context.Context, params []message.Value) (message.Value, error) {
		if len(params) != 2 {
			return message.Value{}, fmt.Errorf("div: expected 2 params, got %d", len(params))
		}
		a, aok := params[0].AsInt()
		b, bok := params[1].AsInt()
		if !aok || !bok {
			return message.Value{}, fmt.Errorf("div: expected integer params")
		}
		if b == 0 {
			return message.Value{}, fmt.Errorf("div: division by zero")
		}
		return message.Int(a / b), nil
	})

	// log prints its parameters; being a notification it is never answered
	mux.HandleNotifyFunc("log", func(_ context.Context, params []message.Value) error {
		parts := make([]string, len(params))
		for i, p := range params {
			parts[i] = p.String()
		}
		server.Logger.Infof("log notification: %s", strings.Join(parts, " "))
		return nil
	})

	return mux
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("mprpc")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
