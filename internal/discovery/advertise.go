package discovery

import (
	"fmt"

	"github.com/grandcat/zeroconf"
	"github.com/myconode/myconode/internal/logging"
	"go.uber.org/zap"
)

// Advertisement is a registered mDNS service. Shutdown withdraws it.
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise registers the live feed as instance on port. The TXT records
// tell browsers where the WebSocket endpoint lives.
func Advertise(instance string, port int, version string) (*Advertisement, error) {
	if instance == "" {
		return nil, fmt.Errorf("instance name is required")
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}

	text := []string{"path=/ws", "version=" + version}
	server, err := zeroconf.Register(instance, FeedServiceType, ServiceDomain, port, text, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Feed advertised",
		zap.String("instance", instance),
		zap.String("service", FeedServiceType),
		zap.Int("port", port),
	)
	return &Advertisement{server: server}, nil
}

// Shutdown withdraws the advertisement. It is safe on a nil receiver.
func (a *Advertisement) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
}
