package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/myconode/myconode/internal/logging"
	"go.uber.org/zap"
)

const (
	// StoreServiceType is the mDNS service type document stores advertise
	StoreServiceType = "_myconode-store._tcp"

	// FeedServiceType is the mDNS service type of the agent's live feed
	FeedServiceType = "_myconode-feed._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for store discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is used when an entry advertises no port
	DefaultPort = 80
)

// Scanner handles mDNS store discovery
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForStores collects every store that answers within the timeout.
func (s *Scanner) ScanForStores(ctx context.Context) ([]*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	var mu sync.Mutex
	stores := make([]*Store, 0)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			if store := parseServiceEntry(entry); store != nil {
				logging.Debug("Store discovered", zap.String("instance", store.Instance), zap.String("url", store.URL()))
				mu.Lock()
				stores = append(stores, store)
				mu.Unlock()
			}
		}
	}()

	if err := resolver.Browse(ctx, StoreServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return dedupe(stores), nil
}

// FirstStore returns the first store that answers, or an error if none
// does within the timeout.
func (s *Scanner) FirstStore(ctx context.Context) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Store, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			if store := parseServiceEntry(entry); store != nil {
				select {
				case found <- store:
				default:
				}
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, StoreServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case store := <-found:
		return store, nil
	case <-ctx.Done():
		select {
		case store := <-found:
			return store, nil
		default:
		}
		return nil, fmt.Errorf("no %s service found within %s", StoreServiceType, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Store.
// Returns nil when the entry has no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Store {
	if entry == nil {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	scheme := strings.ToLower(metadata["scheme"])
	if scheme != "https" {
		scheme = "http"
	}

	return &Store{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Scheme:       scheme,
		Path:         metadata["path"],
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// dedupe drops repeated answers for the same instance, keeping the first.
func dedupe(stores []*Store) []*Store {
	seen := make(map[string]bool, len(stores))
	out := make([]*Store, 0, len(stores))
	for _, s := range stores {
		key := s.Instance + "|" + s.URL()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// ScanForStores is a convenience function to scan with a custom timeout
func ScanForStores(timeout time.Duration) ([]*Store, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForStores(context.Background())
}

// FindStore returns the first store found within timeout.
func FindStore(ctx context.Context, timeout time.Duration) (*Store, error) {
	scanner := NewScanner()
	if timeout > 0 {
		scanner.Timeout = timeout
	}
	return scanner.FirstStore(ctx)
}
