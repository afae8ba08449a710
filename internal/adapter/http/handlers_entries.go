package adapthttp

import (
	"net/http"

	"noteflow/internal/domain"
)

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.userID(r)

	switch r.Method {
	case http.MethodGet:
		dr, err := rangeQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		items, err := s.journal.List(ctx, userID, dr)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case http.MethodPost:
		var body domain.JournalEntry
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		entry, err := s.journal.Save(ctx, userID, body)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entry": entry})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.userID(r)
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		entry, err := s.journal.Get(ctx, userID, id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entry": entry})

	case http.MethodDelete:
		deleted, err := s.journal.Delete(ctx, userID, id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if !deleted {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": id})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
