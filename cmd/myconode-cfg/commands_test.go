package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/myconode/myconode/internal/config"
)

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Flag variables outlive a single Execute call.
	storeHost, storeSecret, requestTimeoutMS = "", "", 0
	rawOutput, showAuth, showSecrets, forceInit = false, false, false, false
	networkName, apSecret, connectMS = "", "", 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, mutate func(*config.Config)) string {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Link.SimulatedConnectAfter = 0
	cfg.Link.NetworkName = "grow-ap"
	if mutate != nil {
		mutate(&cfg)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadPayload(t *testing.T) {
	file := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(file, []byte(" {\"status\":\"on\"}\n"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		arg     string
		stdin   string
		want    string
		wantErr bool
	}{
		{"literal", `{"intensity":50}`, "", `{"intensity":50}`, false},
		{"file", "@" + file, "", `{"status":"on"}`, false},
		{"stdin", "-", `[1,2]`, `[1,2]`, false},
		{"invalid json", `{intensity:50}`, "", "", true},
		{"missing file", "@/does/not/exist.json", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readPayload(strings.NewReader(tt.stdin), tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("readPayload() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(got) != tt.want {
				t.Errorf("readPayload() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestURLCommand(t *testing.T) {
	path := writeConfig(t, func(c *config.Config) {
		c.Remote.Host = "https://grow.example.com"
		c.Remote.Secret = "tok"
	})

	out, err := execute(t, "url", "sensors/current", "--config", path)
	if err != nil {
		t.Fatalf("url error = %v", err)
	}
	if strings.Contains(out, "tok") {
		t.Errorf("url output leaks the token: %q", out)
	}
	if !strings.Contains(out, "https://grow.example.com/sensors/current.json?auth=") {
		t.Errorf("url output = %q", out)
	}

	out, err = execute(t, "url", "sensors/current", "--config", path, "--show-auth")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "https://grow.example.com/sensors/current.json?auth=tok" {
		t.Errorf("url --show-auth = %q", out)
	}
}

func TestURLCommand_NoHost(t *testing.T) {
	path := writeConfig(t, nil)
	if _, err := execute(t, "url", "robotArm", "--config", path); err == nil {
		t.Error("url without a host should fail")
	}
}

func TestGetCommand_Raw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lightControl.json" || r.URL.Query().Get("auth") != "tok" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"intensity":75,"isAuto":true,"status":"on"}`)
	}))
	defer srv.Close()

	path := writeConfig(t, nil)
	out, err := execute(t, "get", "lightControl", "--config", path, "--host", srv.URL, "--secret", "tok", "--raw")
	if err != nil {
		t.Fatalf("get error = %v (output %q)", err, out)
	}
	if strings.TrimSpace(out) != `{"intensity":75,"isAuto":true,"status":"on"}` {
		t.Errorf("get --raw = %q", out)
	}
}

func TestPutCommand_StoreRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	path := writeConfig(t, nil)
	out, err := execute(t, "put", "lightControl", `{"intensity":10}`, "--config", path, "--host", srv.URL)
	if err == nil {
		t.Fatal("put should fail on 401")
	}
	if !strings.Contains(out, "Check remote.secret") {
		t.Errorf("output should carry the auth hint, got %q", out)
	}
}

func TestGetCommand_LinkDown(t *testing.T) {
	path := writeConfig(t, func(c *config.Config) {
		c.Link.SimulatedConnectAfter = -1
		c.Link.ConnectTimeoutMS = 0
	})

	_, err := execute(t, "get", "robotArm", "--config", path, "--host", "http://127.0.0.1:1", "--raw")
	if err == nil || !strings.Contains(err.Error(), "no network link") {
		t.Errorf("get error = %v, want no network link", err)
	}
}

func TestInitConfigAndShowConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	if _, err := execute(t, "init-config", "--config", path); err != nil {
		t.Fatalf("init-config error = %v", err)
	}
	if _, err := execute(t, "init-config", "--config", path); err == nil {
		t.Error("init-config should refuse to overwrite without --force")
	}
	if _, err := execute(t, "init-config", "--config", path, "--force"); err != nil {
		t.Errorf("init-config --force error = %v", err)
	}

	out, err := execute(t, "show-config", "--config", path)
	if err != nil {
		t.Fatalf("show-config error = %v", err)
	}
	for _, want := range []string{"driver: simulated", "interval_seconds: 30"} {
		if !strings.Contains(out, want) {
			t.Errorf("show-config output missing %q", want)
		}
	}
}

func TestLinkCommand(t *testing.T) {
	path := writeConfig(t, nil)

	out, err := execute(t, "link", "--config", path)
	if err != nil {
		t.Fatalf("link error = %v", err)
	}
	if !strings.Contains(out, "192.168.4.2") {
		t.Errorf("link output should show the simulated address, got %q", out)
	}
}
