package web

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/softjail/internal/core"
)

// indexData is what the index page shows.
type indexData struct {
	Kinds  []core.ImportKind
	Status core.ImportLimiterStatus
}

// indexPage renders the service overview: the import kinds in import order
// and the endpoints that accept them.
func indexPage(data indexData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>SoftJail</title>`+
			`<style>body{font-family:sans-serif;margin:2rem}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.3rem .6rem}</style>`+
			`</head><body><h1>SoftJail records</h1>`); err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w, `<p>Imports running: %d of %d</p>`, data.Status.Active, data.Status.MaxConcurrent); err != nil {
			return err
		}

		io.WriteString(w, `<h2>Imports</h2><table><tr><th>Order</th><th>Kind</th><th>Format</th><th>Endpoint</th><th>Description</th></tr>`)
		for _, k := range data.Kinds {
			if _, err := fmt.Fprintf(w, `<tr><td>%d</td><td>%s</td><td>%s</td><td><code>POST /api/import/%s</code></td><td>%s</td></tr>`,
				k.Order,
				templ.EscapeString(k.Label),
				templ.EscapeString(string(k.Format)),
				templ.EscapeString(k.Key),
				templ.EscapeString(k.Description),
			); err != nil {
				return err
			}
		}
		io.WriteString(w, `</table>`)

		_, err := io.WriteString(w, `<h2>Exports</h2><ul>`+
			`<li><code>GET /api/export/prisoners?ids=1,2</code> (add <code>format=xlsx</code> for a workbook)</li>`+
			`<li><code>GET /api/export/inbox?names=Full Name,Other Name</code></li>`+
			`</ul></body></html>`)
		return err
	})
}

// handleIndex renders the overview page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := indexPage(indexData{
		Kinds:  s.service.ListKinds(),
		Status: s.service.ImportLimiterStatus(),
	})
	if err := page.Render(r.Context(), w); err != nil {
		respondError(w, r, err)
	}
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Error  string `json:"error,omitempty"`
}

// handleHealth reports liveness and store reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Health == nil {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Store: "unchecked"})
		return
	}
	if err := s.opts.Health.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "degraded",
			Store:  "unreachable",
			Error:  core.MapError(err).Code,
		})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Store: "ok"})
}
