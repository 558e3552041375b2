package service

import (
	"strings"

	"github.com/niolikon/taskboard/internal/model"
)

type taskIn struct {
	Title model.Optional[string]
	Done  model.Optional[bool]
}

type taskOut struct {
	ID    string
	Owner string
	Title string
	Done  bool
}

type taskMapper struct{}

func (taskMapper) ToEntity(in taskIn) *model.Task {
	task := &model.Task{}
	if v, ok := in.Title.Get(); ok {
		task.Title = v
		task.Fields = task.Fields.With(model.TaskTitle)
	}
	if v, ok := in.Done.Get(); ok {
		task.Done = v
		task.Fields = task.Fields.With(model.TaskDone)
	}
	return task
}

func (taskMapper) ToOutput(task *model.Task) taskOut {
	out := taskOut{ID: task.ID, Title: task.Title, Done: task.Done}
	if task.Owner != nil {
		out.Owner = task.Owner.OwnerID()
	}
	return out
}

type labelIn struct {
	Name model.Optional[string]
}

type labelOut struct {
	ID   int64
	Name string
}

type labelMapper struct{}

func (labelMapper) ToEntity(in labelIn) *model.Label {
	label := &model.Label{}
	if v, ok := in.Name.Get(); ok {
		label.Name = strings.TrimSpace(v)
		label.Fields = label.Fields.With(model.LabelName)
	}
	return label
}

func (labelMapper) ToOutput(label *model.Label) labelOut {
	return labelOut{ID: label.ID, Name: label.Name}
}
