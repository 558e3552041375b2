package dto

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/niolikon/taskboard/internal/model"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
)

// TaskInput is the request body for creating or updating a task.
// Omitted or null fields are left untouched on update.
type TaskInput struct {
	Title       model.Optional[string]    `json:"title"`
	Description model.Optional[string]    `json:"description"`
	Done        model.Optional[bool]      `json:"done"`
	DueAt       model.Optional[time.Time] `json:"due_at"`
}

// Validate checks the payload for op.
func (in TaskInput) Validate(op Operation) error {
	title, hasTitle := in.Title.Get()
	if op == OpCreate && !hasTitle {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if hasTitle {
		if strings.TrimSpace(title) == "" {
			return fmt.Errorf("%w: title must not be blank", ErrInvalidInput)
		}
		if utf8.RuneCountInString(title) > maxTitleLength {
			return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, maxTitleLength)
		}
	}
	if desc, ok := in.Description.Get(); ok && utf8.RuneCountInString(desc) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, maxDescriptionLength)
	}
	return nil
}

// TaskOutput represents a task in API responses.
type TaskOutput struct {
	ID          string     `json:"id"`
	Owner       string     `json:"owner"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Done        bool       `json:"done"`
	DueAt       *time.Time `json:"due_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (o TaskOutput) GetID() string { return o.ID }

// TaskMapper converts between tasks and their DTOs.
type TaskMapper struct{}

// ToEntity builds a merge source carrying only the fields present in in.
func (TaskMapper) ToEntity(in TaskInput) *model.Task {
	task := &model.Task{}
	if v, ok := in.Title.Get(); ok {
		task.Title = strings.TrimSpace(v)
		task.Fields = task.Fields.With(model.TaskTitle)
	}
	if v, ok := in.Description.Get(); ok {
		task.Description = v
		task.Fields = task.Fields.With(model.TaskDescription)
	}
	if v, ok := in.Done.Get(); ok {
		task.Done = v
		task.Fields = task.Fields.With(model.TaskDone)
	}
	if v, ok := in.DueAt.Get(); ok {
		due := v.UTC()
		task.DueAt = &due
		task.Fields = task.Fields.With(model.TaskDueAt)
	}
	return task
}

// ToOutput converts a task to its response DTO.
func (TaskMapper) ToOutput(task *model.Task) TaskOutput {
	out := TaskOutput{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Done:        task.Done,
		DueAt:       task.DueAt,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.Owner != nil {
		out.Owner = task.Owner.OwnerID()
	}
	return out
}
