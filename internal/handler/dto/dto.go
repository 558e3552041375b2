// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import "errors"

// Operation is the write an input payload is validated for.
type Operation int

const (
	OpCreate Operation = iota + 1
	OpUpdate
)

// ErrInvalidInput is the failure every input validator reports.
var ErrInvalidInput = errors.New("invalid input")

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
