package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/jbctechsolutions/deskflip/internal/application/workspace"
	"github.com/jbctechsolutions/deskflip/internal/domain/history"
	"github.com/jbctechsolutions/deskflip/internal/domain/layout"
)

// HealthResponse is the JSON response for GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Profiles int    `json:"profiles"`
	ActiveID int    `json:"active_id"`
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views := s.cfg.Workspace.List(r.Context())
		resp := HealthResponse{Status: "ok", Profiles: len(views)}
		for _, v := range views {
			if v.IsActive {
				resp.ActiveID = v.ID
			}
		}
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.SetProfiles(len(views))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleListProfiles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.cfg.Workspace.List(r.Context()))
	}
}

func (s *Server) handleGetProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		view, err := s.cfg.Workspace.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (s *Server) handleCreateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := s.cfg.Workspace.Create(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

func (s *Server) handleDeleteProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		purge := r.URL.Query().Get("purge") == "true"
		if err := s.cfg.Workspace.Delete(r.Context(), id, workspace.DeleteOptions{Purge: purge}); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeResult reports a switch-like operation. Drift is reported as a
// STORAGE error.
func writeResult(w http.ResponseWriter, res workspace.Result, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res.Report(nil))
}

func (s *Server) handleSwitch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		opts := workspace.SwitchOptions{Workspace: r.URL.Query().Get("workspace") == "true"}
		res, err := s.cfg.Workspace.Switch(r.Context(), id, opts)
		writeResult(w, res, err)
	}
}

func (s *Server) handleRestoreOriginal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.cfg.Workspace.RestoreOriginal(r.Context())
		writeResult(w, res, err)
	}
}

func (s *Server) handleOriginal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"path": s.cfg.Workspace.OriginalPath(r.Context())})
	}
}

func (s *Server) handleGetLayout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		l, err := s.cfg.Workspace.GetLayout(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(l))
	}
}

func (s *Server) handleSaveLayout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		l, err := s.cfg.Workspace.SaveLayout(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(l))
	}
}

func nonNil(l layout.Layout) layout.Layout {
	if l.Icons == nil {
		return layout.New()
	}
	return l
}

func (s *Server) handleRestoreLayout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.cfg.Workspace.RestoreLayout(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleNoArrange() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.cfg.Workspace.DisableAutoArrange(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleLinks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		links := s.cfg.Workspace.Links(r.Context())
		if links == nil {
			links = map[int]string{}
		}
		writeJSON(w, http.StatusOK, links)
	}
}

// LinkRequest is the body of PUT /profiles/{id}/link.
type LinkRequest struct {
	Slot string `json:"slot"`
}

func (s *Server) handleLink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		var req LinkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, badRequest("invalid request body: "+err.Error()))
			return
		}
		if err := s.cfg.Workspace.Link(r.Context(), id, req.Slot); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleUnlink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.cfg.Workspace.Unlink(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// VdeskResponse is the JSON response for GET /vdesk.
type VdeskResponse struct {
	Count   int `json:"count"`
	Current int `json:"current"`
}

func (s *Server) handleVdesk() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := s.cfg.Desktops.SlotCount(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		current, err := s.cfg.Desktops.CurrentSlot(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, VdeskResponse{Count: count, Current: current})
	}
}

func (s *Server) handleVdeskSwitch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := intParam(r, "index")
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.cfg.Desktops.GoTo(r.Context(), index); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleWindows() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := s.cfg.Desktops.EnumerateVisibleWindows
		if r.URL.Query().Get("current") == "true" {
			list = s.cfg.Desktops.WindowsOnCurrentSlot
		}
		windows, err := list(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if windows == nil {
			writeJSON(w, http.StatusOK, []struct{}{})
			return
		}
		writeJSON(w, http.StatusOK, windows)
	}
}

func (s *Server) handleGetHotkeys() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.cfg.Hotkeys.Settings())
	}
}

func (s *Server) handleSetHotkeys() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := s.cfg.Hotkeys.Settings()
		if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
			writeError(w, badRequest("invalid request body: "+err.Error()))
			return
		}
		saved, err := s.cfg.Hotkeys.Set(next)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

// DefaultHistoryLimit caps GET /history without a limit parameter.
const DefaultHistoryLimit = 50

func (s *Server) handleHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.History == nil {
			writeJSON(w, http.StatusOK, []history.Record{})
			return
		}

		q := r.URL.Query()
		filter := history.Filter{
			Operation: q.Get("operation"),
			Status:    q.Get("status"),
			Limit:     DefaultHistoryLimit,
		}
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeError(w, badRequest("invalid limit: "+v))
				return
			}
			filter.Limit = n
		}
		if v := q.Get("since"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, badRequest("invalid since: "+v))
				return
			}
			filter.Since = t
		}

		records, err := s.cfg.History.List(r.Context(), filter)
		if err != nil {
			writeError(w, err)
			return
		}
		if records == nil {
			records = []history.Record{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}
