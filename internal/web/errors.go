package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as user-friendly messages with a support code
//   - Formatted as JSON for API clients and as an HTML fragment otherwise
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusCode)
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is rendered in the format the client asked for

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/intake/internal/api"
	"github.com/JonMunkholm/intake/internal/core"
	"github.com/JonMunkholm/intake/internal/logging"
	"github.com/JonMunkholm/intake/internal/web/templates"
)

var errRateLimited = errors.New("rate limit exceeded")

// respondError logs err and writes its user-facing form.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	level := slog.LevelWarn
	if statusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logFor(r).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if wantsJSON(r) {
		writeJSON(w, r, statusCode, api.NewErrorResponse(userMsg))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w); err != nil {
		logFor(r).Error("render error alert", "error", err)
	}
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func logFor(r *http.Request) *slog.Logger {
	return logging.FromContext(r.Context())
}
