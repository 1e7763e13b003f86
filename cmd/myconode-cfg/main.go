// Myconode-cfg is the operator utility for myconode nodes.
//
// It discovers document stores, tests the access point link, inspects and
// edits store documents with the same link-gated client the agent uses, and
// manages the node's configuration file.
//
// Usage:
//
//	myconode-cfg [command] [flags]
//
// See 'myconode-cfg --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/myconode/myconode/internal/logging"
	"github.com/myconode/myconode/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "myconode-cfg",
	Short: "Myconode configuration and store utility",
	Long: `A standalone utility for myconode nodes.

Discovers document stores on the local network, checks the access point link,
reads and writes store documents, and manages the node configuration file.

Logging is silent unless MYCONODE_LOG_LEVEL is set.`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.InitializeFromEnv()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: platform config dir)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "myconode-cfg %s\n", version.Full())
	},
}
