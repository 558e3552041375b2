package dto

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/niolikon/taskboard/internal/model"
)

const maxLabelNameLength = 64

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// LabelInput is the request body for creating or updating a label.
type LabelInput struct {
	Name  model.Optional[string] `json:"name"`
	Color model.Optional[string] `json:"color"`
}

// Validate checks the payload for op. An empty color clears it.
func (in LabelInput) Validate(op Operation) error {
	name, hasName := in.Name.Get()
	if op == OpCreate && !hasName {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if hasName {
		name = strings.TrimSpace(name)
		if name == "" || utf8.RuneCountInString(name) > maxLabelNameLength {
			return fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidInput, maxLabelNameLength)
		}
	}
	if color, ok := in.Color.Get(); ok && color != "" && !colorPattern.MatchString(color) {
		return fmt.Errorf("%w: color must be #rrggbb", ErrInvalidInput)
	}
	return nil
}

// LabelOutput represents a label in API responses.
type LabelOutput struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o LabelOutput) GetID() int64 { return o.ID }

// LabelMapper converts between labels and their DTOs.
type LabelMapper struct{}

func (LabelMapper) ToEntity(in LabelInput) *model.Label {
	label := &model.Label{}
	if v, ok := in.Name.Get(); ok {
		label.Name = strings.TrimSpace(v)
		label.Fields = label.Fields.With(model.LabelName)
	}
	if v, ok := in.Color.Get(); ok {
		label.Color = strings.ToLower(v)
		label.Fields = label.Fields.With(model.LabelColor)
	}
	return label
}

func (LabelMapper) ToOutput(label *model.Label) LabelOutput {
	return LabelOutput{
		ID:        label.ID,
		Name:      label.Name,
		Color:     label.Color,
		CreatedAt: label.CreatedAt,
		UpdatedAt: label.UpdatedAt,
	}
}
