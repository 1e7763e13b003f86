package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/myconode/myconode/internal/agent"
	"github.com/myconode/myconode/internal/config"
	"github.com/myconode/myconode/internal/discovery"
	"github.com/myconode/myconode/internal/logging"
	"github.com/myconode/myconode/internal/node"
	"github.com/myconode/myconode/internal/operator"
	"github.com/myconode/myconode/internal/server"
	"github.com/myconode/myconode/internal/ui"
	"github.com/myconode/myconode/internal/version"
)

// Run command flags
var (
	configPath string
	logLevel   string
	once       bool
	feedListen string
	noFeed     bool
	quiet      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent",
	Long: `Run the agent until interrupted.

The agent connects to the configured access point (blocking for up to the
connect timeout), resolves the document store (configured host, or mDNS
discovery when none is set) and then runs one cycle immediately and one
per interval.

With --once it runs a single cycle, prints the cycle report as JSON and exits.`,
	Example: `  # Run with the default config file
  myconode-agent run

  # Run a single cycle against a specific config
  myconode-agent run --config ./bench.yaml --once

  # Serve the live feed on another port with debug logging
  myconode-agent run --feed-listen :9000 --log-level debug`,
	RunE: runAgent,
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Config file (default: platform config dir)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")
	runCmd.Flags().BoolVar(&once, "once", false, "Run one cycle and exit")
	runCmd.Flags().StringVar(&feedListen, "feed-listen", "", "Enable the live feed on this address (e.g. :8787)")
	runCmd.Flags().BoolVar(&noFeed, "no-feed", false, "Disable the live feed even if the config enables it")
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print operator events to the console")
}

func runAgent(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if feedListen != "" {
		cfg.Feed.Enabled = true
		cfg.Feed.Listen = feedListen
	}
	if noFeed {
		cfg.Feed.Enabled = false
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if err := logging.Initialize(level); err != nil {
		return err
	}
	defer logging.Sync()

	if err := cfg.Validate(); err != nil {
		ui.PrintFailure(out, "Invalid configuration", err, []string{
			"Check the file with: myconode-cfg show-config",
			"Write a fresh one with: myconode-cfg init-config --force",
		})
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifiers := []operator.Notifier{operator.LogNotifier{}}
	if !quiet {
		notifiers = append(notifiers, operator.NewConsole(out))
	}

	if cfg.Feed.Enabled && !once {
		feed, ad, err := startFeed(cfg.Feed)
		if err != nil {
			return err
		}
		defer func() {
			ad.Shutdown()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := feed.Shutdown(shutdownCtx); err != nil {
				logging.Error("Feed shutdown failed", zap.Error(err))
			}
		}()
		notifiers = append(notifiers, feed)
	}

	if !quiet {
		ui.PrintCommandHeader(out, "Myconode Agent", "myconode-agent run", map[string]string{
			"Network":  valueOr(cfg.Link.NetworkName, "(host managed)"),
			"Link":     cfg.Link.Driver,
			"Store":    valueOr(cfg.Remote.Host, "(discover)"),
			"Sensors":  cfg.Sensors.Driver,
			"Interval": cfg.Agent.Interval().String(),
		})
	}

	n, err := node.Build(ctx, cfg, operator.Multi(notifiers...))
	if err != nil {
		ui.PrintFailure(out, "Agent failed to start", err, []string{
			"Set remote.host when mDNS discovery is unavailable",
			"Check the access point name and password in the link section",
		})
		return err
	}
	defer func() {
		if err := n.Close(); err != nil {
			logging.Warn("Failed to release hardware", zap.Error(err))
		}
	}()

	if once {
		return printReport(out, n.Agent.RunOnce())
	}

	if err := n.Agent.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func startFeed(cfg config.FeedConfig) (*server.Server, *discovery.Advertisement, error) {
	feed := server.New(server.Config{Listen: cfg.Listen})
	if err := feed.Start(); err != nil {
		return nil, nil, err
	}

	if !cfg.Advertise {
		return feed, nil, nil
	}

	instance := cfg.Instance
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "node"
		}
		instance = "myconode " + host
	}
	ad, err := discovery.Advertise(instance, feed.Port(), version.Version)
	if err != nil {
		// The feed still works by address.
		logging.Warn("Failed to advertise feed", zap.Error(err))
		return feed, nil, nil
	}
	return feed, ad, nil
}

func printReport(w io.Writer, report agent.CycleReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
