package web

// errors.go turns service errors into HTTP responses.
//
// The technical error is logged with the request ID for correlation. The
// client receives the mapped user message and its support code, as JSON on
// /api routes and as plain text elsewhere.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/softjail/internal/core"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusSentinels maps service errors to HTTP status codes. First match wins.
var statusSentinels = []struct {
	err    error
	status int
}{
	{core.ErrUnknownKind, http.StatusNotFound},
	{core.ErrRunNotFound, http.StatusNotFound},
	{core.ErrMalformedPayload, http.StatusBadRequest},
	{core.ErrInvalidFilter, http.StatusBadRequest},
	{core.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge},
	{core.ErrForeignKey, http.StatusConflict},
	{core.ErrDuplicateKey, http.StatusConflict},
	{core.ErrTooManyImports, http.StatusServiceUnavailable},
	{core.ErrStoreUnavailable, http.StatusServiceUnavailable},
	{core.ErrArchiveDisabled, http.StatusNotImplemented},
	{context.DeadlineExceeded, http.StatusGatewayTimeout},
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	for _, s := range statusSentinels {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped user message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		err = errors.Join(core.ErrPayloadTooLarge, err)
	}
	msg := core.MapError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err,
	)

	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeJSON(w, status, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
		return
	}
	http.Error(w, msg.Message+" ("+msg.Code+")", status)
}

// badRequest writes a 400 for request-shape problems found before the
// service is called.
func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   message,
		Message: message,
		Code:    "REQ001",
	})
}
