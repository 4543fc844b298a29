// Package web provides the HTTP status page and manual mode controls.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/donation-box/internal/controller"
	"github.com/sweeney/donation-box/internal/ledger"
	"github.com/sweeney/donation-box/internal/status"
)

// Switcher queues manual mode changes for the control loop.
type Switcher interface {
	Next() error
	SwitchTo(index int) error
}

// History reads the event ledger.
type History interface {
	Recent(ctx context.Context, limit int) ([]ledger.Entry, error)
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	switcher   Switcher
	history    History
}

// Option configures a Server.
type Option func(*Server)

// WithSwitcher enables the POST /api/mode endpoints.
func WithSwitcher(sw Switcher) Option {
	return func(s *Server) { s.switcher = sw }
}

// WithHistory enables GET /api/history.
func WithHistory(h History) Option {
	return func(s *Server) { s.history = h }
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker, opts ...Option) *Server {
	s := &Server{tracker: tracker}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /index.html", s.handleIndex)
	mux.HandleFunc("GET /index.json", s.handleJSON)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("POST /api/mode/next", s.handleNext)
	mux.HandleFunc("POST /api/mode/{index}", s.handleSwitch)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Handler returns the root handler. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap, s.switcher != nil); err != nil {
		log.Warn().Err(err).Msg("render status page")
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(s.tracker.Snapshot()))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, 500)
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		log.Warn().Err(err).Msg("history query failed")
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	if s.switcher == nil {
		http.Error(w, "manual control disabled", http.StatusNotFound)
		return
	}
	s.queued(w, r, s.switcher.Next(), map[string]any{"next": true})
}

func (s *Server) handleSwitch(w http.ResponseWriter, r *http.Request) {
	if s.switcher == nil {
		http.Error(w, "manual control disabled", http.StatusNotFound)
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		http.Error(w, "invalid mode index", http.StatusBadRequest)
		return
	}
	if n := len(s.tracker.Snapshot().Modes); index < 0 || index >= n {
		http.Error(w, "mode index out of range", http.StatusNotFound)
		return
	}
	s.queued(w, r, s.switcher.SwitchTo(index), map[string]any{"index": index})
}

// queued answers a mode request. Browser form posts are redirected back to
// the status page; API clients get JSON.
func (s *Server) queued(w http.ResponseWriter, r *http.Request, err error, body map[string]any) {
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, controller.ErrBusy) {
			code = http.StatusServiceUnavailable
		}
		log.Warn().Err(err).Msg("mode switch not queued")
		http.Error(w, err.Error(), code)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	body["queued"] = true
	writeJSON(w, http.StatusAccepted, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
