package repository

import (
	"errors"
	"fmt"

	"github.com/niolikon/taskboard/internal/model"
)

// Failure signals of the repository contract. Callers match them with errors.Is;
// the error's message describes the concrete record.
var (
	ErrEntityNotFound     = errors.New("entity not found")
	ErrOwnershipViolation = errors.New("entity ownership violation")
	ErrSaveChangeFailed   = errors.New("repository save change failed")
)

// Errors for owner (user) records.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameExists = errors.New("username already exists")
)

// Error is a contract failure with a record-specific message.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

// EntityNotFound reports that no record of the given type has id.
func EntityNotFound(entity string, id any) error {
	return &Error{kind: ErrEntityNotFound, msg: fmt.Sprintf("Could not find %s with id %v", entity, id)}
}

// OwnershipViolation reports that the record exists but belongs to someone else.
func OwnershipViolation(entity string, id any, owner model.Owner) error {
	return &Error{
		kind: ErrOwnershipViolation,
		msg:  fmt.Sprintf("%s %v does not belong to owner %s", entity, id, ownerID(owner)),
	}
}

// OwnerNotFound reports that the owner of a new record is unknown.
func OwnerNotFound(id string) error {
	return &Error{kind: ErrOwnershipViolation, msg: fmt.Sprintf("Could not find owner %s in database", id)}
}

// SaveChangeFailed reports that op affected zero rows.
func SaveChangeFailed(op string) error {
	return &Error{kind: ErrSaveChangeFailed, msg: op + " affected no rows"}
}

func ownerID(owner model.Owner) string {
	if owner == nil {
		return ""
	}
	return owner.OwnerID()
}
