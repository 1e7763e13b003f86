package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/myconode/myconode/internal/logging"
	"github.com/myconode/myconode/internal/operator"
	"go.uber.org/zap"
)

// Config holds the feed server configuration
type Config struct {
	Listen string // e.g., ":8787"
}

// Server is the operator live feed. It implements operator.Notifier:
// every event it receives is sent as JSON to each connected WebSocket client.
type Server struct {
	config     Config
	httpServer *http.Server
	listener   net.Listener
	wg         sync.WaitGroup

	mu      sync.Mutex
	clients map[*client]struct{}
	last    *operator.Event
	sent    int
}

// New creates a new Server instance
func New(config Config) *Server {
	s := &Server{
		config:  config,
		clients: make(map[*client]struct{}),
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the feed's HTTP routes: /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start listens on the configured address and serves in the background.
// It returns once the listener is open.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	s.listener = listener

	logging.Info("Feed server listening", zap.String("addr", listener.Addr().String()))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Feed server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Port returns the port the server is listening on, or 0 before Start.
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Notify broadcasts ev to every connected client. A client whose queue is
// full is disconnected rather than allowed to stall the agent.
func (s *Server) Notify(ev operator.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		logging.Error("Failed to encode feed event", zap.String("kind", string(ev.Kind)), zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = &ev
	s.sent++
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			logging.Warn("Feed client too slow, dropping", zap.String("remote_addr", c.remoteAddr))
			s.removeLocked(c)
		}
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down feed server...")

	err := s.httpServer.Shutdown(ctx)

	// Hijacked WebSocket connections are not closed by http.Server.
	s.mu.Lock()
	for c := range s.clients {
		_ = c.conn.Close()
		s.removeLocked(c)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("Feed server stopped")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	case <-time.After(10 * time.Second):
		logging.Warn("Shutdown timeout after 10 seconds, forcing close")
	}

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to shut down feed server: %w", err)
	}
	return nil
}

// GetActiveConnections returns the number of connected feed clients
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(c)
}

func (s *Server) removeLocked(c *client) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
}
