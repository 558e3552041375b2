// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"

	"github.com/niolikon/taskboard/internal/apperr"
	"github.com/niolikon/taskboard/internal/metrics"
	"github.com/niolikon/taskboard/internal/model"
	"github.com/niolikon/taskboard/internal/repository"
)

// Mapper converts between an entity and its wire representations.
type Mapper[E, In, Out any] interface {
	ToEntity(in In) E
	ToOutput(entity E) Out
}

// Failure messages for repository signals.
const (
	msgCreateFailed = "Could not create entity"
	msgUpdateFailed = "Could not update entity"
	msgDeleteFailed = "Could not delete entity"
)

// failurePolicy says which repository signals an operation translates.
// Signals it does not name pass through unchanged.
type failurePolicy struct {
	notFound      bool
	conflict      string
	ownership     string
	ownerVerbatim bool
}

func (p failurePolicy) translate(err error) error {
	switch {
	case p.notFound && errors.Is(err, repository.ErrEntityNotFound):
		return apperr.NotFound(err.Error()).Wrap(err)
	case p.ownership != "" && errors.Is(err, repository.ErrOwnershipViolation):
		return apperr.Unauthorized(p.ownership).Wrap(err)
	case p.ownerVerbatim && errors.Is(err, repository.ErrOwnershipViolation):
		return apperr.Unauthorized(err.Error()).Wrap(err)
	case p.conflict != "" && errors.Is(err, repository.ErrSaveChangeFailed):
		return apperr.Conflict(p.conflict).Wrap(err)
	}
	return err
}

var (
	createPolicy = failurePolicy{conflict: msgCreateFailed}
	readPolicy   = failurePolicy{notFound: true}
	updatePolicy = failurePolicy{notFound: true, conflict: msgUpdateFailed}
	deletePolicy = failurePolicy{notFound: true, conflict: msgDeleteFailed}
)

// CrudService runs the create/read/update/delete pipeline for an unowned resource.
type CrudService[ID comparable, E model.Entity[ID, E], In, Out any] struct {
	resource string
	repo     repository.CrudRepository[ID, E]
	mapper   Mapper[E, In, Out]
	metrics  metrics.Recorder
}

// NewCrudService creates a CrudService. resource labels metrics.
func NewCrudService[ID comparable, E model.Entity[ID, E], In, Out any](
	resource string,
	repo repository.CrudRepository[ID, E],
	mapper Mapper[E, In, Out],
	recorder metrics.Recorder,
) *CrudService[ID, E, In, Out] {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CrudService[ID, E, In, Out]{
		resource: resource,
		repo:     repo,
		mapper:   mapper,
		metrics:  recorder,
	}
}

// Create stores a new entity built from in.
func (s *CrudService[ID, E, In, Out]) Create(ctx context.Context, in In) (Out, error) {
	var zero Out
	created, err := s.repo.Create(ctx, s.mapper.ToEntity(in))
	if err != nil {
		return zero, s.fail(createPolicy.translate(err))
	}
	s.metrics.IncEntityCreated(s.resource)
	return s.mapper.ToOutput(created), nil
}

// ReadAll returns every entity in repository order.
func (s *CrudService[ID, E, In, Out]) ReadAll(ctx context.Context) ([]Out, error) {
	entities, err := s.repo.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return mapAll(s.mapper, entities), nil
}

// Read returns the entity with id.
func (s *CrudService[ID, E, In, Out]) Read(ctx context.Context, id ID) (Out, error) {
	var zero Out
	entity, err := s.repo.Read(ctx, id)
	if err != nil {
		return zero, s.fail(readPolicy.translate(err))
	}
	return s.mapper.ToOutput(entity), nil
}

// Update merges in into the entity with id. Any id carried by in is ignored.
func (s *CrudService[ID, E, In, Out]) Update(ctx context.Context, id ID, in In) (Out, error) {
	var zero Out
	entity := s.mapper.ToEntity(in)
	entity.SetID(id)

	updated, err := s.repo.Update(ctx, entity)
	if err != nil {
		return zero, s.fail(updatePolicy.translate(err))
	}
	s.metrics.IncEntityUpdated(s.resource)
	return s.mapper.ToOutput(updated), nil
}

// Delete removes the entity with id.
func (s *CrudService[ID, E, In, Out]) Delete(ctx context.Context, id ID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail(deletePolicy.translate(err))
	}
	s.metrics.IncEntityDeleted(s.resource)
	return nil
}

func (s *CrudService[ID, E, In, Out]) fail(err error) error {
	recordFailure(s.metrics, s.resource, err)
	return err
}

func recordFailure(recorder metrics.Recorder, resource string, err error) {
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		recorder.IncEntityFailure(resource, "not_found")
	case apperr.Is(err, apperr.KindConflict):
		recorder.IncEntityFailure(resource, "conflict")
	case apperr.Is(err, apperr.KindUnauthorized):
		recorder.IncEntityFailure(resource, "unauthorized")
	case apperr.Is(err, apperr.KindBadRequest):
		recorder.IncEntityFailure(resource, "bad_request")
	default:
		recorder.IncEntityFailure(resource, "internal")
	}
}

func mapAll[E, In, Out any](mapper Mapper[E, In, Out], entities []E) []Out {
	out := make([]Out, 0, len(entities))
	for _, entity := range entities {
		out = append(out, mapper.ToOutput(entity))
	}
	return out
}
