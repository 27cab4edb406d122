package web

import (
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/softjail/internal/core"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExportPrisoners renders prisoners by id. The ids query parameter is
// a comma-separated id list; format=xlsx returns a workbook instead of JSON.
func (s *Server) handleExportPrisoners(w http.ResponseWriter, r *http.Request) {
	ids, err := core.ParseIDs(r.URL.Query().Get("ids"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		out, err := s.service.ExportByIDs(r.Context(), ids)
		if err != nil {
			respondError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, out)

	case "xlsx":
		out, err := s.service.ExportByIDsXLSX(r.Context(), ids)
		if err != nil {
			respondError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="prisoners.xlsx"`)
		w.Write(out)

	default:
		respondError(w, r, fmt.Errorf("%w: unknown format %q", core.ErrInvalidFilter, format))
	}
}

// handleExportInbox renders the inbox of the prisoners named in the
// comma-separated names query parameter.
func (s *Server) handleExportInbox(w http.ResponseWriter, r *http.Request) {
	out, err := s.service.ExportInbox(r.Context(), r.URL.Query().Get("names"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	io.WriteString(w, out)
}
