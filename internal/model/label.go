package model

import "time"

// Label fields that take part in partial updates.
const (
	LabelName Field = iota
	LabelColor
)

// Label is a shared tag that is not owned by any user.
type Label struct {
	ID        int64
	Name      string
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time

	Fields FieldSet
}

func (l *Label) GetID() int64 { return l.ID }
func (l *Label) SetID(id int64) { l.ID = id }

// Clone returns a copy of l.
func (l *Label) Clone() *Label {
	c := *l
	return &c
}

// Touch records a write at now. CreatedAt is only set once.
func (l *Label) Touch(now time.Time) {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
}

// CopyFrom overwrites the fields other marks as present.
func (l *Label) CopyFrom(other *Label) {
	if other == nil {
		return
	}
	if other.Fields.Has(LabelName) {
		l.Name = other.Name
	}
	if other.Fields.Has(LabelColor) {
		l.Color = other.Color
	}
}
