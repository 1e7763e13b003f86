package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Store is a document store found on the local network.
type Store struct {
	// Instance is the advertised service instance name (e.g., "greenhouse store")
	Instance string

	// Hostname is the mDNS hostname (e.g., "grow-pi.local.")
	Hostname string

	// IP is the advertised address, IPv4 preferred
	IP string

	// Port is the HTTP port
	Port int

	// Scheme is "http" or "https", from the scheme= TXT record
	Scheme string

	// Path is the document root, from the path= TXT record
	Path string

	// Metadata holds every TXT record
	Metadata map[string]string

	// DiscoveredAt is when the store answered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the store
func (s *Store) String() string {
	return fmt.Sprintf("Store %q (%s) at %s", s.Instance, s.Hostname, s.URL())
}

// URL returns the store host URL suitable for remotesync.Endpoint.Host.
func (s *Store) URL() string {
	scheme := s.Scheme
	if scheme == "" {
		scheme = "http"
	}
	u := fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(s.IP, strconv.Itoa(s.Port)))
	if p := strings.Trim(s.Path, "/"); p != "" {
		u += "/" + p
	}
	return u + "/"
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (s *Store) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}
