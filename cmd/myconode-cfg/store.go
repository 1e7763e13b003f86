package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/myconode/myconode/internal/netlink"
	"github.com/myconode/myconode/internal/node"
	"github.com/myconode/myconode/internal/operator"
	"github.com/myconode/myconode/internal/remotesync"
	"github.com/myconode/myconode/internal/ui"
)

// Store command flags
var (
	storeHost        string
	storeSecret      string
	requestTimeoutMS int
	rawOutput        bool
	showAuth         bool
)

func init() {
	for _, c := range []*cobra.Command{urlCmd, getCmd, putCmd, postCmd, patchCmd} {
		c.Flags().StringVar(&storeHost, "host", "", "Store host URL (overrides the config)")
		c.Flags().StringVar(&storeSecret, "secret", "", "Store auth token (overrides the config)")
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{getCmd, putCmd, postCmd, patchCmd} {
		c.Flags().IntVar(&requestTimeoutMS, "timeout-ms", 0, "Request timeout in milliseconds (overrides the config)")
		c.Flags().BoolVar(&rawOutput, "raw", false, "Print only the response body")
	}
	urlCmd.Flags().BoolVar(&showAuth, "show-auth", false, "Print the auth token in clear text")
}

var urlCmd = &cobra.Command{
	Use:   "url <path>",
	Short: "Print the URL a document path resolves to",
	Long: `Print the full URL the agent would use for a document path: the store host,
the path with the .json suffix, and the auth query parameter.`,
	Example: `  myconode-cfg url sensors/current
  myconode-cfg url robotArm --host https://grow.example.com --secret tok --show-auth`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadForStore()
		if err != nil {
			return err
		}
		if cfg.Remote.Host == "" {
			return fmt.Errorf("no store host: set remote.host or pass --host")
		}

		u := remotesync.BuildURL(cfg.Remote.Host, args[0], cfg.Remote.Secret)
		if !showAuth {
			u = remotesync.RedactURL(u)
		}
		fmt.Fprintln(cmd.OutOrStdout(), u)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Read a document from the store",
	Example: `  myconode-cfg get lightControl
  myconode-cfg get sensors/current --raw | jq .temperature`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStoreOp(cmd, "GET", args[0], nil)
	},
}

var putCmd = &cobra.Command{
	Use:   "put <path> <json|@file|->",
	Short: "Replace a document in the store",
	Example: `  myconode-cfg put lightControl '{"intensity":60,"isAuto":false,"status":"on"}'
  myconode-cfg put robotArm @arm.json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := readPayload(cmd.InOrStdin(), args[1])
		if err != nil {
			return err
		}
		return runStoreOp(cmd, "PUT", args[0], payload)
	},
}

var postCmd = &cobra.Command{
	Use:     "post <path> <json|@file|->",
	Short:   "Append a document to a store collection",
	Example: `  myconode-cfg post alerts '{"type":"info","message":"Door opened","timestamp":0,"acknowledged":false}'`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := readPayload(cmd.InOrStdin(), args[1])
		if err != nil {
			return err
		}
		return runStoreOp(cmd, "POST", args[0], payload)
	},
}

var patchCmd = &cobra.Command{
	Use:     "patch <path> <json|@file|->",
	Short:   "Update fields of a document in the store",
	Example: `  myconode-cfg patch robotArm '{"targetPlot":3,"status":"moving"}'`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := readPayload(cmd.InOrStdin(), args[1])
		if err != nil {
			return err
		}
		return runStoreOp(cmd, "PATCH", args[0], payload)
	},
}

// readPayload resolves a payload argument: literal JSON, @file, or - for stdin.
func readPayload(stdin io.Reader, arg string) ([]byte, error) {
	var data []byte
	var err error

	switch {
	case arg == "-":
		data, err = io.ReadAll(stdin)
	case strings.HasPrefix(arg, "@"):
		data, err = os.ReadFile(strings.TrimPrefix(arg, "@"))
	default:
		data = []byte(arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}
	return data, nil
}

func runStoreOp(cmd *cobra.Command, method, path string, payload []byte) error {
	cmd.SilenceUsage = true
	out := cmd.OutOrStdout()

	cfg, err := loadForStore()
	if err != nil {
		return err
	}

	if !rawOutput {
		ui.PrintCommandHeader(out, "Store "+method, "myconode-cfg "+strings.ToLower(method)+" "+path, map[string]string{
			"Path":  path,
			"Store": valueOr(cfg.Remote.Host, "(discover)"),
		})
	}

	var notifier operator.Notifier = operator.Nop{}
	if !rawOutput {
		notifier = operator.NewConsole(out)
	}
	radio, err := node.NewRadio(cfg.Link)
	if err != nil {
		return err
	}
	link := netlink.New(radio,
		netlink.WithPollInterval(cfg.Link.PollInterval()),
		netlink.WithNotifier(notifier),
	)
	if !link.IsConnected() {
		link.Connect(node.Credentials(cfg.Link))
	}

	endpoint, err := node.ResolveEndpoint(cmd.Context(), cfg.Remote, link.IsConnected())
	if err != nil {
		return err
	}
	client, err := remotesync.NewClient(endpoint, link)
	if err != nil {
		return err
	}
	client.SetTimeout(cfg.Remote.RequestTimeout())

	var body []byte
	var status int
	switch method {
	case "GET":
		status = client.Get(path, &body)
	case "PUT":
		status = client.Put(path, payload)
	case "POST":
		status = client.Post(path, payload, &body)
	case "PATCH":
		status = client.Patch(path, payload)
	}

	if rawOutput {
		if len(body) > 0 {
			fmt.Fprintln(out, string(body))
		}
		if !remotesync.IsSuccess(status) {
			return fmt.Errorf("%s %s: %s", method, path, remotesync.Describe(status))
		}
		return nil
	}

	if !remotesync.IsSuccess(status) {
		var cause error = fmt.Errorf("%s (status %d)", remotesync.Describe(status), status)
		if te := client.LastError(); te != nil && status < remotesync.StatusNoLink {
			cause = te
		}
		result := ui.NewFailureResult(method+" "+path+" failed", cause, remotesync.TroubleshootingHints(status))
		if len(body) > 0 {
			result.SetBody(prettyJSON(body))
		}
		ui.PrintResult(out, result)
		return fmt.Errorf("%s %s: %s", method, path, remotesync.Describe(status))
	}

	result := ui.NewSuccessResult(method+" "+path, map[string]string{
		"Status": strconv.Itoa(status),
		"URL":    remotesync.RedactURL(client.URL(path)),
		"Bytes":  strconv.Itoa(len(body)),
	})
	if len(body) > 0 {
		result.SetBody(prettyJSON(body))
	}
	ui.PrintResult(out, result)
	return nil
}

func prettyJSON(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	return buf.String()
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
