package service

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/niolikon/taskboard/internal/model"
)

var errInvalidDone = errors.New("Invalid value for done")

// TaskDoneFilter narrows task listings by the "done" query parameter.
// Other parameters are ignored.
func TaskDoneFilter(query url.Values) (func(*model.Task) bool, error) {
	raw := query.Get("done")
	if raw == "" {
		return nil, nil
	}
	done, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errInvalidDone
	}
	return func(task *model.Task) bool { return task.Done == done }, nil
}
