// Package middleware provides HTTP middleware and the error advice that turns
// handler errors into responses.
package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/niolikon/taskboard/internal/apperr"
	"github.com/niolikon/taskboard/internal/handler/dto"
)

// HandlerFunc is an HTTP handler that reports failures as errors.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Advice renders handler errors as the uniform error body.
type Advice struct {
	logger *slog.Logger
}

// NewAdvice creates an Advice.
func NewAdvice(logger *slog.Logger) *Advice {
	return &Advice{logger: logger}
}

// Handle adapts fn to an http.HandlerFunc. A nil error means fn already wrote
// its response.
func (a *Advice) Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			a.WriteError(w, r, err)
		}
	}
}

// WriteError resolves err to a status and message and writes it.
// Unrecognized errors are logged with the request id and hidden from the caller.
func (a *Advice) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := apperr.Resolve(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed",
			slog.String("request_id", GetRequestID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	} else {
		a.logger.Debug("request rejected",
			slog.String("request_id", GetRequestID(r.Context())),
			slog.Int("status_code", status),
			slog.String("error", err.Error()),
		)
	}
	writeError(w, status, msg)
}

// writeError writes the uniform error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: msg, Code: status})
}
