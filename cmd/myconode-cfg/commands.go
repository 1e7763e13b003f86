package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/myconode/myconode/internal/config"
	"github.com/myconode/myconode/internal/discovery"
	"github.com/myconode/myconode/internal/netlink"
	"github.com/myconode/myconode/internal/node"
	"github.com/myconode/myconode/internal/operator"
	"github.com/myconode/myconode/internal/ui"
)

// Command flags
var (
	configPath  string
	scanTimeout int
	networkName string
	apSecret    string
	connectMS   int
	forceInit   bool
	showSecrets bool
)

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(showConfigCmd)
	rootCmd.AddCommand(initConfigCmd)
}

// scanCmd discovers document stores on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for document stores on the network",
	Long: `Scan for document stores using mDNS/DNS-SD discovery.

Stores advertise "_myconode-store._tcp". Each answer is shown with the host
URL the agent would use for it.`,
	Example: `  # Scan for 5 seconds (default)
  myconode-cfg scan

  # Longer scan for busy networks
  myconode-cfg scan --timeout 15`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 5, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Scanning for document stores (timeout: %ds)...\n\n", scanTimeout)

	stores, err := discovery.ScanForStores(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(stores) == 0 {
		ui.PrintWarning(out, "No stores found", map[string]string{
			"Service": discovery.StoreServiceType,
			"Timeout": strconv.Itoa(scanTimeout) + "s",
		})
		fmt.Fprintln(out, "\nTroubleshooting:")
		fmt.Fprintln(out, "  - Ensure this machine is on the same network as the store")
		fmt.Fprintln(out, "  - Check that the store advertises "+discovery.StoreServiceType)
		fmt.Fprintln(out, "  - Try increasing --timeout for slower networks")
		fmt.Fprintln(out, "  - Set remote.host in the config to skip discovery")
		return nil
	}

	fmt.Fprintf(out, "Found %d store(s):\n\n", len(stores))
	for i, s := range stores {
		fmt.Fprintf(out, "%d. %s\n", i+1, s.Instance)
		fmt.Fprintf(out, "   Host:  %s\n", s.Hostname)
		fmt.Fprintf(out, "   URL:   %s\n", s.URL())
		if len(s.Metadata) > 0 {
			fmt.Fprintf(out, "   Metadata: %v\n", s.Metadata)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, "Use 'myconode-cfg get sensors/current --host <url>' to read from a store")
	return nil
}

// linkCmd tests the access point connection
var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Connect to the access point and report the result",
	Long: `Join the configured access point the same way the agent does: start the
association, then poll the radio until it reports connected or the connect
timeout expires. Progress is drawn as it happens.`,
	Example: `  # Use the link section of the config
  myconode-cfg link

  # Try another network with a short timeout
  myconode-cfg link --network greenhouse-2 --ap-secret hunter22 --timeout-ms 5000`,
	RunE: runLink,
}

func init() {
	linkCmd.Flags().StringVar(&networkName, "network", "", "Network name (overrides the config)")
	linkCmd.Flags().StringVar(&apSecret, "ap-secret", "", "Network password (overrides the config)")
	linkCmd.Flags().IntVar(&connectMS, "timeout-ms", 0, "Connect timeout in milliseconds (overrides the config)")
}

func runLink(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if networkName != "" {
		cfg.Link.NetworkName = networkName
	}
	if apSecret != "" {
		cfg.Link.Secret = apSecret
	}
	if connectMS > 0 {
		cfg.Link.ConnectTimeoutMS = connectMS
	}

	ui.PrintCommandHeader(out, "Link Test", "myconode-cfg link", map[string]string{
		"Driver":  cfg.Link.Driver,
		"Network": cfg.Link.NetworkName,
		"Timeout": cfg.Link.ConnectTimeout().String(),
	})

	radio, err := node.NewRadio(cfg.Link)
	if err != nil {
		return err
	}
	link := netlink.New(radio,
		netlink.WithPollInterval(cfg.Link.PollInterval()),
		netlink.WithNotifier(operator.NewConsole(out)),
	)

	start := time.Now()
	link.Connect(node.Credentials(cfg.Link))

	if !link.IsConnected() {
		err := fmt.Errorf("no connection to %q after %s", cfg.Link.NetworkName, cfg.Link.ConnectTimeout())
		ui.PrintFailure(out, "Link down", err, []string{
			"Check the network name and password",
			"Move the node closer to the access point",
			"Increase link.connect_timeout_ms for slow access points",
		})
		return err
	}

	ui.PrintSuccess(out, "Link up", map[string]string{
		"Network": cfg.Link.NetworkName,
		"Address": link.LocalAddress(),
		"Elapsed": time.Since(start).Round(time.Millisecond).String(),
	})
	return nil
}

// showConfigCmd prints the effective configuration
var showConfigCmd = &cobra.Command{
	Use:   "show-config",
	Short: "Show the effective configuration",
	Long: `Print the configuration the agent would run with: the config file merged
over the defaults. Secrets are masked unless --show-secrets is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		out := cmd.OutOrStdout()

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if !showSecrets {
			cfg = cfg.Redacted()
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}

		path := configPath
		if path == "" {
			if path, err = config.GetConfigPath(); err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "# %s\n", path)
		fmt.Fprint(out, string(data))

		if err := cfg.Validate(); err != nil {
			ui.PrintWarning(out, "Configuration is not valid", map[string]string{"Problem": err.Error()})
		}
		return nil
	},
}

func init() {
	showConfigCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print secrets in clear text")
}

// initConfigCmd writes a default configuration file
var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a default configuration file",
	Long: `Write the default configuration to the config path. The defaults run the
agent against simulated radio and sensors with store discovery enabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		out := cmd.OutOrStdout()

		path := configPath
		if path == "" {
			p, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			path = p
		}

		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("cannot access config file: %w", err)
		}

		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		ui.PrintSuccess(out, "Configuration written", map[string]string{"Path": path})
		return nil
	},
}

func init() {
	initConfigCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")
}

// loadForStore loads the config and applies the store flag overrides.
func loadForStore() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if storeHost != "" {
		cfg.Remote.Host = storeHost
	}
	if storeSecret != "" {
		cfg.Remote.Secret = storeSecret
	}
	if requestTimeoutMS > 0 {
		cfg.Remote.RequestTimeoutMS = requestTimeoutMS
	}
	return cfg, nil
}
