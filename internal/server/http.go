package server

import (
	"encoding/json"
	"net/http"

	"github.com/myconode/myconode/internal/operator"
	"github.com/myconode/myconode/internal/version"
)

// Health is the /healthz response body.
type Health struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Clients   int             `json:"clients"`
	Events    int             `json:"events"`
	LastEvent *operator.Event `json:"last_event,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, s.health())
}

func (s *Server) health() Health {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := Health{
		Status:  "ok",
		Version: version.Version,
		Clients: len(s.clients),
		Events:  s.sent,
	}
	if s.last != nil {
		ev := *s.last
		h.LastEvent = &ev
	}
	return h
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
