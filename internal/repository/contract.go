package repository

import (
	"context"

	"github.com/niolikon/taskboard/internal/model"
)

// CrudRepository persists entities without ownership scoping.
//
// Read, Update and Delete fail with ErrEntityNotFound when no record has the id.
// Create, Update and Delete fail with ErrSaveChangeFailed when the write affects
// zero rows.
type CrudRepository[ID comparable, E model.Entity[ID, E]] interface {
	Create(ctx context.Context, entity E) (E, error)
	ReadAll(ctx context.Context) ([]E, error)
	Read(ctx context.Context, id ID) (E, error)
	Update(ctx context.Context, entity E) (E, error)
	Delete(ctx context.Context, id ID) error
}

// SecuredCrudRepository persists entities scoped to an owner.
//
// In addition to the CrudRepository failures, Read, Update and Delete fail with
// ErrOwnershipViolation when the record belongs to a different owner, and Create
// fails with it when the owner cannot be resolved.
type SecuredCrudRepository[ID comparable, E model.OwnedEntity[ID, E]] interface {
	Create(ctx context.Context, owner model.Owner, entity E) (E, error)
	ReadAll(ctx context.Context, owner model.Owner) ([]E, error)
	ReadAllMatching(ctx context.Context, owner model.Owner, match func(E) bool) ([]E, error)
	Read(ctx context.Context, owner model.Owner, id ID) (E, error)
	Update(ctx context.Context, owner model.Owner, entity E) (E, error)
	Delete(ctx context.Context, owner model.Owner, id ID) error
}

// OwnerResolver turns an owner identifier into the owner stored on new records.
type OwnerResolver interface {
	ResolveOwner(ctx context.Context, id string) (model.Owner, error)
}

// ServedOwners resolves owners managed outside this service (identity provider
// principals). Any non-empty identifier is accepted as is.
type ServedOwners struct{}

// ResolveOwner implements OwnerResolver.
func (ServedOwners) ResolveOwner(_ context.Context, id string) (model.Owner, error) {
	if id == "" {
		return nil, OwnerNotFound(id)
	}
	return model.ServedOwner{ID: id}, nil
}

func filter[E any](items []E, match func(E) bool) []E {
	if match == nil {
		return items
	}
	out := make([]E, 0, len(items))
	for _, item := range items {
		if match(item) {
			out = append(out, item)
		}
	}
	return out
}
