package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/softjail/internal/core"
)

// formFileField is the multipart field holding the payload.
const formFileField = "file"

// ImportResponse wraps the import result for JSON encoding.
type ImportResponse struct {
	RunID    string   `json:"runId"`
	Kind     string   `json:"kind"`
	Report   string   `json:"report"`
	Lines    []string `json:"lines"`
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Duration string   `json:"duration"`
}

func toImportResponse(res *core.ImportResult) ImportResponse {
	var lines []string
	if res.Report != "" {
		lines = strings.Split(res.Report, "\n")
	}
	return ImportResponse{
		RunID:    res.RunID,
		Kind:     res.Kind,
		Report:   res.Report,
		Lines:    lines,
		Accepted: res.Accepted,
		Rejected: res.Rejected,
		Duration: res.Duration.String(),
	}
}

// handleListKinds returns the registered import kinds in import order.
func (s *Server) handleListKinds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListKinds())
}

// handleImportStatus returns the current state of the import limiter.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ImportLimiterStatus())
}

// handleImport runs one import. The payload is the raw request body, or the
// "file" field of a multipart form. Clients accepting text/plain get the
// report text only.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if _, ok := core.Get(kind); !ok {
		respondError(w, r, fmt.Errorf("%w: %s", core.ErrUnknownKind, kind))
		return
	}

	payload, err := s.readPayload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if strings.TrimSpace(payload) == "" {
		badRequest(w, "empty payload")
		return
	}

	res, err := s.service.Import(withRequestMetadata(r), kind, payload)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if prefersText(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Import-Run", res.RunID)
		io.WriteString(w, res.Report)
		return
	}
	writeJSON(w, http.StatusOK, toImportResponse(res))
}

// readPayload reads the import payload, bounded by the service limit.
func (s *Server) readPayload(w http.ResponseWriter, r *http.Request) (string, error) {
	limit := s.service.MaxPayloadSize()
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType != "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		return core.ReadPayload(r.Body, limit)
	}

	// Allow room for the multipart framing around the file.
	r.Body = http.MaxBytesReader(w, r.Body, limit+64<<10)
	file, _, err := r.FormFile(formFileField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", err
		}
		return "", fmt.Errorf("%w: missing %q form file", core.ErrMalformedPayload, formFileField)
	}
	defer file.Close()

	return core.ReadPayload(file, limit)
}

// prefersText reports whether the client asked for the plain report.
func prefersText(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/plain") && !strings.Contains(accept, "application/json")
}
