package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func entry(instance, host string, port int, ips []net.IP, text ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, StoreServiceType, ServiceDomain)
	e.HostName = host
	e.Port = port
	e.AddrIPv4 = ips
	e.Text = text
	return e
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   *zeroconf.ServiceEntry
		wantNil bool
		wantURL string
	}{
		{
			name:    "plain http store",
			entry:   entry("bench store", "grow-pi.local.", 8080, []net.IP{net.ParseIP("192.168.4.10")}),
			wantURL: "http://192.168.4.10:8080/",
		},
		{
			name:    "https with document root",
			entry:   entry("cloud relay", "relay.local.", 443, []net.IP{net.ParseIP("10.0.0.5")}, "scheme=https", "path=/grow/"),
			wantURL: "https://10.0.0.5:443/grow/",
		},
		{
			name:    "unknown scheme falls back to http",
			entry:   entry("odd", "odd.local.", 80, []net.IP{net.ParseIP("10.0.0.6")}, "scheme=gopher"),
			wantURL: "http://10.0.0.6:80/",
		},
		{
			name:    "missing port uses default",
			entry:   entry("noport", "np.local.", 0, []net.IP{net.ParseIP("10.0.0.7")}),
			wantURL: "http://10.0.0.7:80/",
		},
		{
			name:    "no address",
			entry:   entry("ghost", "ghost.local.", 80, nil),
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := parseServiceEntry(tt.entry)
			if tt.wantNil {
				if store != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", store)
				}
				return
			}
			if store == nil {
				t.Fatal("parseServiceEntry() returned nil")
			}
			if got := store.URL(); got != tt.wantURL {
				t.Errorf("URL() = %q, want %q", got, tt.wantURL)
			}
			if store.Instance != tt.entry.Instance {
				t.Errorf("Instance = %q, want %q", store.Instance, tt.entry.Instance)
			}
		})
	}
}

func TestParseServiceEntry_IPv6Fallback(t *testing.T) {
	e := entry("v6", "v6.local.", 8080, nil)
	e.AddrIPv6 = []net.IP{net.ParseIP("fe80::1")}

	store := parseServiceEntry(e)
	if store == nil {
		t.Fatal("expected a store from an IPv6-only entry")
	}
	if got := store.URL(); got != "http://[fe80::1]:8080/" {
		t.Errorf("URL() = %q", got)
	}
}

func TestParseServiceEntry_Metadata(t *testing.T) {
	store := parseServiceEntry(entry("meta", "m.local.", 80, []net.IP{net.ParseIP("10.0.0.8")}, "path=/", "readonly", "version=2"))
	if store == nil {
		t.Fatal("parseServiceEntry() returned nil")
	}

	if store.GetMetadata("version") != "2" {
		t.Errorf("version = %q", store.GetMetadata("version"))
	}
	if _, ok := store.Metadata["readonly"]; !ok {
		t.Error("key-only TXT record should be kept")
	}
	if store.GetMetadata("missing") != "" {
		t.Error("missing key should be empty")
	}

	var empty Store
	if empty.GetMetadata("x") != "" {
		t.Error("nil metadata should be empty")
	}
}

func TestDedupe(t *testing.T) {
	ip := []net.IP{net.ParseIP("10.0.0.9")}
	a := parseServiceEntry(entry("a", "a.local.", 80, ip))
	b := parseServiceEntry(entry("a", "a.local.", 80, ip))
	c := parseServiceEntry(entry("c", "c.local.", 80, ip))

	got := dedupe([]*Store{a, b, c})
	if len(got) != 2 {
		t.Fatalf("dedupe() kept %d stores, want 2", len(got))
	}
	if got[0] != a || got[1] != c {
		t.Error("dedupe() should keep the first answer in order")
	}
}

func TestAdvertise_Validation(t *testing.T) {
	if _, err := Advertise("", 8787, "dev"); err == nil {
		t.Error("empty instance should fail")
	}
	if _, err := Advertise("node", 0, "dev"); err == nil {
		t.Error("port 0 should fail")
	}

	var nilAd *Advertisement
	nilAd.Shutdown()
}

func TestNewScanner(t *testing.T) {
	if NewScanner().Timeout != DefaultScanTimeout {
		t.Error("NewScanner() should use DefaultScanTimeout")
	}
}
