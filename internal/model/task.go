package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Task fields that take part in partial updates.
const (
	TaskTitle Field = iota
	TaskDescription
	TaskDone
	TaskDueAt
)

// Task is a work item owned by a single user.
type Task struct {
	ID          string
	Owner       Owner
	Title       string
	Description string
	Done        bool
	DueAt       *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Fields marks the values carried by this instance when used as a merge source.
	Fields FieldSet
}

// NewTaskID returns a new lexicographically sortable task identifier.
func NewTaskID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// ValidTaskID reports whether id has the task identifier format.
func ValidTaskID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

func (t *Task) GetID() string { return t.ID }
func (t *Task) SetID(id string) { t.ID = id }
func (t *Task) GetOwner() Owner { return t.Owner }
func (t *Task) SetOwner(owner Owner) { t.Owner = owner }

// CopyFrom overwrites the fields other marks as present. ID and Owner are kept.
func (t *Task) CopyFrom(other *Task) {
	if other == nil {
		return
	}
	if other.Fields.Has(TaskTitle) {
		t.Title = other.Title
	}
	if other.Fields.Has(TaskDescription) {
		t.Description = other.Description
	}
	if other.Fields.Has(TaskDone) {
		t.Done = other.Done
	}
	if other.Fields.Has(TaskDueAt) {
		t.DueAt = other.DueAt
	}
}

// Touch records a write at now. CreatedAt is only set once.
func (t *Task) Touch(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}

// Clone returns a copy that shares no mutable state with t.
func (t *Task) Clone() *Task {
	c := *t
	if t.DueAt != nil {
		due := *t.DueAt
		c.DueAt = &due
	}
	return &c
}
