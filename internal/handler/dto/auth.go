package dto

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	minPasswordLength = 8
	maxUsernameLength = 64
)

// CredentialsRequest is the body of the register and token endpoints.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks the credentials. Registration enforces a password length.
func (c CredentialsRequest) Validate(op Operation) error {
	username := strings.TrimSpace(c.Username)
	if username == "" || utf8.RuneCountInString(username) > maxUsernameLength {
		return fmt.Errorf("%w: username must be 1-%d characters", ErrInvalidInput, maxUsernameLength)
	}
	if c.Password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if op == OpCreate && utf8.RuneCountInString(c.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	return nil
}

// RefreshRequest is the body of the refresh and logout endpoints.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r RefreshRequest) Validate(Operation) error {
	if r.RefreshToken == "" {
		return fmt.Errorf("%w: refresh_token is required", ErrInvalidInput)
	}
	return nil
}

// UserResponse represents a registered owner.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
