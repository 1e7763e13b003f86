// Myconode-agent runs the grow chamber node.
//
// It joins the configured network, reads the sensors, controls the
// humidifier and exhaust fan locally, publishes readings to the document
// store and applies the operator's light and robot arm commands on a fixed
// interval. An optional live feed streams operator events over WebSocket.
//
// Usage:
//
//	myconode-agent run [flags]
//
// See 'myconode-agent run --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/myconode/myconode/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "myconode-agent",
	Short: "Myconode grow chamber agent",
	Long: `The myconode agent controls one grow chamber.

It keeps the chamber's climate inside its configured ranges even when the
network is down, and syncs readings and operator commands with the document
store whenever the link is up.

For store inspection and configuration, use the separate 'myconode-cfg' utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "myconode-agent %s\n", version.Full())
	},
}
