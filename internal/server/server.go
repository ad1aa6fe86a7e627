package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lazypower/vapor/internal/engine"
)

// Server is the vapor HTTP API server. It is the presentation layer's view
// of a single engine.
type Server struct {
	eng     *engine.Engine
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server around eng.
func New(eng *engine.Engine, version string) *Server {
	s := &Server{
		eng:     eng,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/events", s.handleEvents)

		r.Get("/notes", s.handleListNotes)
		r.Post("/notes", s.handleAddNote)
		r.Put("/notes", s.handleReplaceNotes)
		r.Post("/notes/clear", s.handleClearAll)
		r.Post("/notes/restore", s.handleRestoreNote)
		r.Patch("/notes/{id}", s.handleUpdateNote)
		r.Put("/notes/{id}/tag", s.handleSetTag)
		r.Delete("/notes/{id}", s.handleDeleteNote)

		r.Get("/trash", s.handleListTrash)
		r.Delete("/trash", s.handleClearTrash)
		r.Post("/trash/{id}/restore", s.handleRestoreFromTrash)
		r.Delete("/trash/{id}", s.handlePermanentDelete)

		r.Post("/undo", s.handleUndo)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.eng.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"loaded":  s.eng.Loaded(),
		"notes":   len(snap.Notes),
		"trash":   len(snap.Trash),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
