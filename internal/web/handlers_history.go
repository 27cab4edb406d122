package web

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/softjail/internal/core"
)

// handleImportHistory lists archived runs of one kind, newest first.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ImportHistory(r.Context(), chi.URLParam(r, "kind"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleArchivedReport returns the stored report of one run as text.
func (s *Server) handleArchivedReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.ArchivedReport(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, report)
}

// handleArchivedPayload returns the original payload of one run.
func (s *Server) handleArchivedPayload(w http.ResponseWriter, r *http.Request) {
	kindKey := chi.URLParam(r, "kind")
	payload, err := s.service.ArchivedPayload(r.Context(), kindKey, chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	contentType := "application/json"
	if kind, ok := core.Get(kindKey); ok && kind.Format == core.FormatXML {
		contentType = "application/xml; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	io.WriteString(w, payload)
}
