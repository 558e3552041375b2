package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"bad request", BadRequest("Invalid input data"), http.StatusBadRequest, "Invalid input data"},
		{"unauthorized", Unauthorized("User has no valid Id"), http.StatusUnauthorized, "User has no valid Id"},
		{"not found", NotFound("Could not find task with id 1"), http.StatusNotFound, "Could not find task with id 1"},
		{"conflict", Conflict("Could not create entity"), http.StatusConflict, "Could not create entity"},
		{"too many requests", TooManyRequests("Rate limit exceeded"), http.StatusTooManyRequests, "Rate limit exceeded"},
		{"wrapped domain error", fmt.Errorf("handler: %w", NotFound("gone")), http.StatusNotFound, "gone"},
		{"plain error", errors.New("pq: connection refused"), http.StatusInternalServerError, InternalMessage},
		{"unknown kind", &Error{Kind: Kind(99), Message: "secret"}, http.StatusInternalServerError, InternalMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := Resolve(tt.err)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if msg != tt.wantMsg {
				t.Errorf("message = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestWrapKeepsMessageAndCause(t *testing.T) {
	cause := errors.New("entity not found")
	err := NotFound("Could not find label with id 7").Wrap(cause)

	if err.Error() != "Could not find label with id 7" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable with errors.Is")
	}
	if err.Status() != http.StatusNotFound {
		t.Errorf("Status() = %d, want 404", err.Status())
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("wrap: %w", Conflict("x"))
	if !Is(err, KindConflict) {
		t.Error("expected conflict kind")
	}
	if Is(err, KindNotFound) {
		t.Error("did not expect not found kind")
	}
	if Is(errors.New("plain"), KindConflict) {
		t.Error("plain errors carry no kind")
	}
}
