package server

import (
	"mime"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"rumormill/internal/api"
	"rumormill/internal/journal"
	"rumormill/internal/trigger"
	"rumormill/webui"
)

func (s *Server) handleRumors(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter := strings.TrimSpace(r.URL.Query().Get("name"))
		list, err := s.registry.List(r.Context(), filter)
		if err != nil {
			s.writeErrorFor(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		patch, err := api.DecodeRumorPatch(r.Body)
		if err != nil {
			s.writeErrorFor(w, err)
			return
		}
		created, err := s.registry.Create(r.Context(), patch)
		if err != nil {
			s.writeErrorFor(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, created)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleRumorItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/rumors/")

	if rest == "resetAll" {
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if err := s.registry.ResetAllCounts(r.Context()); err != nil {
			s.writeErrorFor(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	idStr, isReset := strings.CutSuffix(rest, "/reset")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || strings.Contains(idStr, "/") {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch {
	case isReset:
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if err := s.registry.ResetCount(r.Context(), id); err != nil {
			s.writeErrorFor(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodPut:
		patch, err := api.DecodeRumorPatch(r.Body)
		if err != nil {
			s.writeErrorFor(w, err)
			return
		}
		updated, err := s.registry.Update(r.Context(), id, patch)
		if err != nil {
			s.writeErrorFor(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, updated)
	case r.Method == http.MethodDelete:
		if err := s.registry.Delete(r.Context(), id); err != nil {
			s.writeErrorFor(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.status == nil {
		status := api.DaemonStatus{Running: true, PID: os.Getpid()}
		if s.queue != nil {
			status.Trigger.Pending = s.queue.Pending()
			status.Trigger.Capacity = s.queue.Capacity()
		}
		s.writeJSON(w, http.StatusOK, status)
		return
	}
	s.writeJSON(w, http.StatusOK, s.status(r.Context()))
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if s.journal == nil {
			s.writeJSON(w, http.StatusOK, api.JournalResponse{Entries: []journal.Entry{}})
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		entries, err := s.journal.Recent(r.Context(), limit)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if entries == nil {
			entries = []journal.Entry{}
		}
		s.writeJSON(w, http.StatusOK, api.JournalResponse{Entries: entries})
	case http.MethodDelete:
		if s.journal == nil {
			s.writeError(w, http.StatusServiceUnavailable, "journal unavailable")
			return
		}
		if err := s.journal.Clear(r.Context()); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.queue == nil {
		s.writeError(w, http.StatusServiceUnavailable, "print queue unavailable")
		return
	}
	if !s.queue.Offer(trigger.Pulse{Source: trigger.SourceManual}) {
		s.writeError(w, http.StatusConflict, "print queue full")
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.TriggerResponse{
		Queued:  true,
		Pending: s.queue.Pending(),
		Source:  trigger.SourceManual,
	})
}

// handleUI serves the embedded single-page UI. Unmatched GETs fall back to
// the index document so client-side routes survive a reload; anything else
// is a plain 404.
func (s *Server) handleUI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}

	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if name == "" || name == "." {
		name = "index.html"
	}
	data, err := webui.Files.ReadFile(name)
	if err != nil {
		name = "index.html"
		if data, err = webui.Files.ReadFile(name); err != nil {
			http.NotFound(w, r)
			return
		}
	}

	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(data)
}
