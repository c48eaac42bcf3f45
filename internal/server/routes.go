package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mwhite/orbit/internal/engine"
	"github.com/mwhite/orbit/internal/model"
)

// maxImportBody bounds the import request body. The engine enforces its own
// ceiling too; this just stops a runaway upload at the transport.
const maxImportBody = 8 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeErr maps engine sentinels onto HTTP statuses. The error text is the
// user-facing reason — the engine already makes it specific.
func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrCapacity):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, engine.ErrBadShape), errors.Is(err, engine.ErrBadRecord):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrParse),
		errors.Is(err, engine.ErrEmptyName),
		errors.Is(err, engine.ErrBadTier),
		errors.Is(err, engine.ErrBadCadence),
		errors.Is(err, engine.ErrNoteTooLong),
		errors.Is(err, engine.ErrNothingToUndo):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleListFriends(w http.ResponseWriter, r *http.Request) {
	includeArchived := false
	if v := r.URL.Query().Get("archived"); v != "" {
		includeArchived, _ = strconv.ParseBool(v)
	}
	friends := s.eng.Friends(includeArchived)
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(friends),
		"friends": friends,
	})
}

func (s *Server) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Tier        string `json:"tier"`
		CadenceDays int    `json:"cadence_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Tier == "" {
		req.Tier = string(model.TierCasual)
	}

	f, err := s.eng.AddFriend(req.Name, model.Tier(req.Tier), req.CadenceDays)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleGetFriend(w http.ResponseWriter, r *http.Request) {
	fv, err := s.eng.Friend(chi.URLParam(r, "friendID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fv)
}

func (s *Server) handleUpdateFriend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Tier        string `json:"tier"`
		CadenceDays int    `json:"cadence_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	f, err := s.eng.UpdateFriend(chi.URLParam(r, "friendID"), req.Name, model.Tier(req.Tier), req.CadenceDays)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleDeleteFriend(w http.ResponseWriter, r *http.Request) {
	if err := s.eng.DeleteFriend(chi.URLParam(r, "friendID")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "deleted",
		"undo":   true,
	})
}

func (s *Server) handleArchiveFriend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Archived *bool `json:"archived"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	archived := true
	if req.Archived != nil {
		archived = *req.Archived
	}

	f, err := s.eng.SetArchived(chi.URLParam(r, "friendID"), archived)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := s.eng.Meetings(chi.URLParam(r, "friendID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(meetings),
		"meetings": meetings,
	})
}

func (s *Server) handleLogMeeting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Note string `json:"note"`
	}
	// An empty body is fine — the note is optional.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	f, m, err := s.eng.LogMeeting(chi.URLParam(r, "friendID"), req.Note)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"friend":  f,
		"meeting": m,
	})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	f, err := s.eng.Undo()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "restored",
		"friend": f,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Stats())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.eng.Export()
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="orbit-backup.json"`)
	w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBody))
	if err != nil {
		http.Error(w, `{"error":"read body failed"}`, http.StatusBadRequest)
		return
	}

	if err := s.eng.Import(data); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Settings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme              *string `json:"theme"`
		OnboardingComplete *bool   `json:"onboarding_complete"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	settings := s.eng.Settings()
	if req.Theme != nil {
		settings = s.eng.SetTheme(*req.Theme)
	}
	if req.OnboardingComplete != nil && *req.OnboardingComplete {
		settings = s.eng.CompleteOnboarding()
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.eng.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
