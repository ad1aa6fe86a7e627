package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lazypower/vapor/internal/engine"
	"github.com/lazypower/vapor/internal/store"
)

// maxBodyBytes caps request bodies; audio payloads arrive inline as data URIs.
const maxBodyBytes = 16 << 20

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func status(w http.ResponseWriter, ok bool) {
	if ok {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "noop"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Snapshot())
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Notes())
}

func (s *Server) handleListTrash(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Trash())
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text      string `json:"text"`
		AudioData string `json:"audio_data"`
	}
	if !decode(w, r, &req) {
		return
	}

	n, err := s.eng.Add(req.Text, req.AudioData)
	if errors.Is(err, engine.ErrEmptyText) {
		writeError(w, http.StatusBadRequest, "text required")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decode(w, r, &req) {
		return
	}
	// Unknown ids are a silent no-op.
	s.eng.Update(chi.URLParam(r, "id"), req.Text)
	status(w, true)
}

func (s *Server) handleSetTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tag string `json:"tag"`
	}
	if !decode(w, r, &req) {
		return
	}
	tag, err := store.ParseTag(req.Tag)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.eng.SetTag(chi.URLParam(r, "id"), tag)
	status(w, true)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	rev, ok := s.eng.Delete(chi.URLParam(r, "id"))
	if !ok {
		status(w, false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "undo": rev})
}

func (s *Server) handleRestoreNote(w http.ResponseWriter, r *http.Request) {
	var n store.Note
	if !decode(w, r, &n) {
		return
	}
	status(w, s.eng.RestoreNote(n))
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	rev, ok := s.eng.ClearAll()
	if !ok {
		status(w, false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "undo": rev})
}

func (s *Server) handleReplaceNotes(w http.ResponseWriter, r *http.Request) {
	var notes []store.Note
	if !decode(w, r, &notes) {
		return
	}
	// A null body decodes to nil; an empty collection must be sent as [].
	if notes == nil {
		writeError(w, http.StatusBadRequest, "notes array required")
		return
	}
	s.eng.ReplaceNotes(notes)
	status(w, true)
}

func (s *Server) handleRestoreFromTrash(w http.ResponseWriter, r *http.Request) {
	status(w, s.eng.RestoreFromTrash(chi.URLParam(r, "id")))
}

func (s *Server) handlePermanentDelete(w http.ResponseWriter, r *http.Request) {
	status(w, s.eng.PermanentDelete(chi.URLParam(r, "id")))
}

func (s *Server) handleClearTrash(w http.ResponseWriter, r *http.Request) {
	s.eng.ClearTrash()
	status(w, true)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	var rev engine.Reversal
	if !decode(w, r, &rev) {
		return
	}
	if rev.Kind != engine.ReverseRestoreNote && rev.Kind != engine.ReverseReplaceNotes {
		writeError(w, http.StatusBadRequest, "unknown reversal kind")
		return
	}
	status(w, s.eng.Reverse(rev))
}
