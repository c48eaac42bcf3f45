package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mwhite/orbit/internal/engine"
	"github.com/mwhite/orbit/internal/store"
)

// Server is the orbit HTTP API server.
type Server struct {
	db      *store.DB
	eng     *engine.Engine
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server with the given database, engine and version string.
func New(db *store.DB, eng *engine.Engine, version string) *Server {
	s := &Server{
		db:      db,
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

		r.Get("/friends", s.handleListFriends)
		r.Post("/friends", s.handleAddFriend)
		r.Get("/friends/{friendID}", s.handleGetFriend)
		r.Put("/friends/{friendID}", s.handleUpdateFriend)
		r.Delete("/friends/{friendID}", s.handleDeleteFriend)
		r.Post("/friends/{friendID}/archive", s.handleArchiveFriend)
		r.Get("/friends/{friendID}/meetings", s.handleListMeetings)
		r.Post("/friends/{friendID}/meetings", s.handleLogMeeting)

		r.Post("/undo", s.handleUndo)
		r.Get("/stats", s.handleStats)

		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)
		r.Post("/reset", s.handleReset)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	dbPath := "(memory-only)"
	if s.db != nil {
		dbPath = s.db.Path
		if err := s.db.Ping(); err != nil {
			dbOK = false
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": dbPath,
	})
}
