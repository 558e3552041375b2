// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/niolikon/taskboard/internal/apperr"
	"github.com/niolikon/taskboard/internal/handler/dto"
)

// maxBodyBytes caps request bodies decoded by the handlers.
const maxBodyBytes = 1 << 20

// Request failures reported before a service is called.
var (
	ErrInvalidInput = apperr.BadRequest("Invalid input data")
	ErrInvalidID    = apperr.BadRequest("Invalid id")
)

// Validatable is an input payload that can check itself for an operation.
type Validatable interface {
	Validate(op dto.Operation) error
}

// Identified is an output payload exposing its id for the Location header.
type Identified[ID any] interface {
	GetID() ID
}

// decodeInput reads one JSON object from the body, rejecting unknown fields,
// and validates it for op.
func decodeInput[In Validatable](w http.ResponseWriter, r *http.Request, op dto.Operation) (In, error) {
	var in In
	if err := decodeJSON(w, r, &in); err != nil {
		return in, err
	}
	if err := in.Validate(op); err != nil {
		return in, ErrInvalidInput.Wrap(err)
	}
	return in, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return ErrInvalidInput.Wrap(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrInvalidInput.Wrap(errors.New("trailing data after JSON object"))
	}
	return nil
}

// ParseInt64ID parses numeric path ids.
func ParseInt64ID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("parse id %q: not a positive integer", raw)
	}
	return id, nil
}

// maxStringIDLen bounds string path ids; longer ids are never stored.
const maxStringIDLen = 128

// ParseTaskID accepts any non-blank id of bounded length. Ids that were never
// issued are left to the repository, which reports them as not found.
func ParseTaskID(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" || len(raw) > maxStringIDLen {
		return "", fmt.Errorf("parse id %q: not a task id", raw)
	}
	return raw, nil
}

// NotFound answers unknown routes with the uniform error body.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Resource not found", Code: http.StatusNotFound})
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, dto.ErrorResponse{Error: "Method not allowed", Code: http.StatusMethodNotAllowed})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
