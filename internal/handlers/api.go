// Package handlers implements the REST endpoints for session
// inspection and control. The interactive protocol lives in the
// gateway package; these handlers cover what an operator or a
// monitoring system needs over plain HTTP.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gluk-w/termmux/internal/gateway"
	"github.com/gluk-w/termmux/internal/terminal"
)

// API bundles the dependencies shared by the REST handlers.
type API struct {
	Mgr *terminal.Manager
	Reg *gateway.Registry
}

func (a *API) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"sessions": a.Mgr.Count(),
		"clients":  a.Reg.Count(),
	})
}

type sessionInfo struct {
	ID           int       `json:"id"`
	ExternalID   string    `json:"external_id,omitempty"`
	Command      string    `json:"command"`
	Pid          int       `json:"pid"`
	Paused       bool      `json:"paused"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

func (a *API) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := a.Mgr.List()
	out := make([]sessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionInfo{
			ID:           s.ID,
			ExternalID:   s.ExternalID,
			Command:      s.Command,
			Pid:          s.Pid(),
			Paused:       s.Paused(),
			CreatedAt:    s.CreatedAt,
			LastActivity: s.LastActivity(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) CloseSession(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	if a.Mgr.Get(id) == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	a.Mgr.Kill(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (a *API) GetRecording(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	s := a.Mgr.Get(id)
	if s == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if s.Recording == nil {
		writeError(w, http.StatusNotFound, "recording not enabled")
		return
	}

	data, err := s.Recording.ExportJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export recording: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
