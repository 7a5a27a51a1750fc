// Package handlers serves a source.DataSource over the game server's HTTP
// protocol. The preview API uses it to expose the offline simulator to
// remote clients.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/wuxia-session/internal/logger"
	"github.com/jwebster45206/wuxia-session/pkg/offline"
	"github.com/jwebster45206/wuxia-session/pkg/source"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, payload any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error("Failed to encode response", "error", err, "status", status)
	}
}

func writeErrorMessage(w http.ResponseWriter, log *slog.Logger, status int, message string) {
	writeJSON(w, log, status, ErrorResponse{Error: message})
}

// statusFor maps source and simulator errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, offline.ErrEmptyAction),
		errors.Is(err, offline.ErrCultivationTimes):
		return http.StatusBadRequest
	case errors.Is(err, offline.ErrPlayerDead):
		return http.StatusConflict
	case errors.Is(err, source.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, source.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes it with the mapped status. Server errors
// hide their detail from the caller.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := statusFor(err)
	reqLog := logger.WithError(logger.WithRequestID(log, r.Header.Get(source.RequestIDHeader)), err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		reqLog.Error("Request failed", "method", r.Method, "path", r.URL.Path)
		writeErrorMessage(w, log, status, "Internal server error")
		return
	}
	reqLog.Warn("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status)
	writeErrorMessage(w, log, status, err.Error())
}

// allow writes 405 unless r uses method.
func allow(w http.ResponseWriter, r *http.Request, log *slog.Logger, method string) bool {
	if r.Method == method {
		return true
	}
	log.Warn("Method not allowed", "method", r.Method, "path", r.URL.Path)
	w.Header().Set("Allow", method)
	writeErrorMessage(w, log, http.StatusMethodNotAllowed, "Method not allowed. Only "+method+" is supported.")
	return false
}

// decode reads a JSON body into v, writing 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Warn("Invalid request body", "error", err, "path", r.URL.Path)
		writeErrorMessage(w, log, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
