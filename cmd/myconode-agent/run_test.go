package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/myconode/myconode/internal/agent"
	"github.com/myconode/myconode/internal/config"
)

func TestRunOnce_PrintsReport(t *testing.T) {
	var puts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			puts.Add(1)
		}
		_, _ = io.WriteString(w, `null`)
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.Link.SimulatedConnectAfter = 0
	cfg.Remote.Host = srv.URL
	cfg.Sensors.Driver = config.SensorDriverFixture
	cfg.RobotArm.Enabled = false
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"run", "--config", path, "--once", "--quiet"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("run --once error = %v (output %q)", err, out.String())
	}

	var report agent.CycleReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("output is not a cycle report: %v\n%s", err, out.String())
	}
	if report.Cycle != 1 || !report.Linked {
		t.Errorf("report = %+v", report)
	}
	if report.Current.Status != http.StatusOK || puts.Load() != 1 {
		t.Errorf("current status = %d, puts = %d", report.Current.Status, puts.Load())
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "myconode-agent ") {
		t.Errorf("version output = %q", out.String())
	}
}
