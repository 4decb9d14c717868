package call

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ValentinKolb/mpRPC/cmd/util"
	"github.com/ValentinKolb/mpRPC/rpc/client"
	"github.com/ValentinKolb/mpRPC/rpc/codec"
	"github.com/ValentinKolb/mpRPC/rpc/common"
)

var (
	rpcClient *client.RPCClient

	// CallCmd invokes a remote method and prints the decoded result
	CallCmd = &cobra.Command{
		Use:               "call [method] [args...]",
		Short:             "Invoke a remote method and print its result",
		Long:              `Invoke a remote method. Arguments are parsed as JSON values; anything that is not valid JSON is sent as a plain string (so both '42' and 'hello' work unquoted).`,
		Args:              cobra.MinimumNArgs(1),
		PersistentPreRunE: setupClient,
		RunE:              runCall,
	}

	// NotifyCmd sends a notification; the server never answers it
	NotifyCmd = &cobra.Command{
		Use:               "notify [method] [args...]",
		Short:             "Send a notification (fire-and-forget, no response)",
		Args:              cobra.MinimumNArgs(1),
		PersistentPreRunE: setupClient,
		RunE:              runNotify,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to both commands
	util.SetupRPCClientFlags(CallCmd)
	util.SetupRPCClientFlags(NotifyCmd)
}

// setupClient initializes the RPC client
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()
	common.InitLoggers(config.LogLevel)

	t, err := util.GetClientTransport()
	if err != nil {
		return err
	}

	// Create the RPC client
	rpcClient, err = client.NewRPCClient(*config, t)
	return err
}

// parseArgs converts CLI arguments to native values. Every argument is tried
// as JSON first, falling back to a plain string.
func parseArgs(args []string) []any {
	parsed := make([]any, len(args))
	for i, raw := range args {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		parsed[i] = v
	}
	return parsed
}

func runCall(_ *cobra.Command, args []string) error {
	defer rpcClient.Close()

	result, err := rpcClient.Call(context.Background(), args[0], parseArgs(args[1:])...)
	if err != nil {
		return err
	}

	// Render the result as JSON
	var out any
	if err := codec.ToNative(result, &out); err != nil {
		return err
	}
	rendered, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(rendered))
	return nil
}

func runNotify(_ *cobra.Command, args []string) error {
	defer rpcClient.Close()

	if err := rpcClient.Notify(context.Background(), args[0], parseArgs(args[1:])...); err != nil {
		return err
	}

	fmt.Println("notification sent")
	return nil
}
