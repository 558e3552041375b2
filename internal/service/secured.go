package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/niolikon/taskboard/internal/apperr"
	"github.com/niolikon/taskboard/internal/auth"
	"github.com/niolikon/taskboard/internal/metrics"
	"github.com/niolikon/taskboard/internal/model"
	"github.com/niolikon/taskboard/internal/repository"
)

func notAuthorizedTo(action string) string {
	return fmt.Sprintf("User not authorized to %s entities under others' ownership", action)
}

var (
	securedCreatePolicy = failurePolicy{conflict: msgCreateFailed, ownerVerbatim: true}
	securedReadPolicy   = failurePolicy{notFound: true, ownership: notAuthorizedTo("read")}
	securedUpdatePolicy = failurePolicy{notFound: true, conflict: msgUpdateFailed, ownership: notAuthorizedTo("update")}
	securedDeletePolicy = failurePolicy{notFound: true, conflict: msgDeleteFailed, ownership: notAuthorizedTo("delete")}
)

// QueryFilter builds an entity predicate from list query parameters.
// It returns a nil predicate when the query selects everything.
type QueryFilter[E any] func(query url.Values) (func(E) bool, error)

// SecuredCrudService runs the CRUD pipeline for a resource owned by its callers.
type SecuredCrudService[ID comparable, E model.OwnedEntity[ID, E], In, Out any] struct {
	resource string
	repo     repository.SecuredCrudRepository[ID, E]
	mapper   Mapper[E, In, Out]
	metrics  metrics.Recorder
	filter   QueryFilter[E]
}

// NewSecuredCrudService creates a SecuredCrudService. resource labels metrics.
func NewSecuredCrudService[ID comparable, E model.OwnedEntity[ID, E], In, Out any](
	resource string,
	repo repository.SecuredCrudRepository[ID, E],
	mapper Mapper[E, In, Out],
	recorder metrics.Recorder,
) *SecuredCrudService[ID, E, In, Out] {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &SecuredCrudService[ID, E, In, Out]{
		resource: resource,
		repo:     repo,
		mapper:   mapper,
		metrics:  recorder,
	}
}

// WithQueryFilter enables filtered listing through ReadAllByQuery.
func (s *SecuredCrudService[ID, E, In, Out]) WithQueryFilter(filter QueryFilter[E]) *SecuredCrudService[ID, E, In, Out] {
	s.filter = filter
	return s
}

// Create stores a new entity owned by user.
func (s *SecuredCrudService[ID, E, In, Out]) Create(ctx context.Context, user auth.AuthenticatedUser, in In) (Out, error) {
	var zero Out
	created, err := s.repo.Create(ctx, auth.ToOwner(user), s.mapper.ToEntity(in))
	if err != nil {
		return zero, s.fail(securedCreatePolicy.translate(err))
	}
	s.metrics.IncEntityCreated(s.resource)
	return s.mapper.ToOutput(created), nil
}

// ReadAll returns the entities owned by user.
func (s *SecuredCrudService[ID, E, In, Out]) ReadAll(ctx context.Context, user auth.AuthenticatedUser) ([]Out, error) {
	entities, err := s.repo.ReadAll(ctx, auth.ToOwner(user))
	if err != nil {
		return nil, err
	}
	return mapAll(s.mapper, entities), nil
}

// ReadAllMatching returns the entities owned by user that match.
func (s *SecuredCrudService[ID, E, In, Out]) ReadAllMatching(ctx context.Context, user auth.AuthenticatedUser, match func(E) bool) ([]Out, error) {
	entities, err := s.repo.ReadAllMatching(ctx, auth.ToOwner(user), match)
	if err != nil {
		return nil, err
	}
	return mapAll(s.mapper, entities), nil
}

// ReadAllByQuery lists the user's entities filtered by the configured QueryFilter.
func (s *SecuredCrudService[ID, E, In, Out]) ReadAllByQuery(ctx context.Context, user auth.AuthenticatedUser, query url.Values) ([]Out, error) {
	if s.filter == nil || len(query) == 0 {
		return s.ReadAll(ctx, user)
	}
	match, err := s.filter(query)
	if err != nil {
		return nil, apperr.BadRequest(err.Error()).Wrap(err)
	}
	if match == nil {
		return s.ReadAll(ctx, user)
	}
	return s.ReadAllMatching(ctx, user, match)
}

// Read returns the entity with id if user owns it.
func (s *SecuredCrudService[ID, E, In, Out]) Read(ctx context.Context, user auth.AuthenticatedUser, id ID) (Out, error) {
	var zero Out
	entity, err := s.repo.Read(ctx, auth.ToOwner(user), id)
	if err != nil {
		return zero, s.fail(securedReadPolicy.translate(err))
	}
	return s.mapper.ToOutput(entity), nil
}

// Update merges in into the entity with id if user owns it.
// The owner of the stored entity never changes.
func (s *SecuredCrudService[ID, E, In, Out]) Update(ctx context.Context, user auth.AuthenticatedUser, id ID, in In) (Out, error) {
	var zero Out
	entity := s.mapper.ToEntity(in)
	entity.SetID(id)

	updated, err := s.repo.Update(ctx, auth.ToOwner(user), entity)
	if err != nil {
		return zero, s.fail(securedUpdatePolicy.translate(err))
	}
	s.metrics.IncEntityUpdated(s.resource)
	return s.mapper.ToOutput(updated), nil
}

// Delete removes the entity with id if user owns it.
func (s *SecuredCrudService[ID, E, In, Out]) Delete(ctx context.Context, user auth.AuthenticatedUser, id ID) error {
	if err := s.repo.Delete(ctx, auth.ToOwner(user), id); err != nil {
		return s.fail(securedDeletePolicy.translate(err))
	}
	s.metrics.IncEntityDeleted(s.resource)
	return nil
}

func (s *SecuredCrudService[ID, E, In, Out]) fail(err error) error {
	recordFailure(s.metrics, s.resource, err)
	return err
}
