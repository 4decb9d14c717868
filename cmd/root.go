package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ValentinKolb/mpRPC/cmd/call"
	"github.com/ValentinKolb/mpRPC/cmd/serve"
	"github.com/ValentinKolb/mpRPC/cmd/util"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "mprpc",
		Short: "MessagePack-RPC engine",
		Long: fmt.Sprintf(`mpRPC (v%s)

A MessagePack-RPC engine written in Go: a streaming frame codec with
partial-input recovery, multiplexed connections and a method mux, with a
demo server and one-shot client commands.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of mpRPC",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mpRPC v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(call.CallCmd)
	RootCmd.AddCommand(call.NotifyCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
