package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/niolikon/taskboard/internal/model"
)

// Memory is an in-process CrudRepository. Entities are cloned on the way in
// and out, and ReadAll returns them in insertion order.
type Memory[ID comparable, E model.Entity[ID, E]] struct {
	entity string
	nextID func() ID
	now    func() time.Time

	mu    sync.RWMutex
	items map[ID]E
	order []ID
}

// NewMemory creates an empty Memory repository. nextID assigns ids to entities
// created without one.
func NewMemory[ID comparable, E model.Entity[ID, E]](entity string, nextID func() ID) *Memory[ID, E] {
	return &Memory[ID, E]{
		entity: entity,
		nextID: nextID,
		now:    func() time.Time { return time.Now().UTC() },
		items:  make(map[ID]E),
	}
}

// WithClock replaces the time source used for entity timestamps.
func (m *Memory[ID, E]) WithClock(now func() time.Time) *Memory[ID, E] {
	m.now = now
	return m
}

// toucher is implemented by entities that carry write timestamps.
type toucher interface {
	Touch(now time.Time)
}

func (m *Memory[ID, E]) touch(entity E) {
	if t, ok := any(entity).(toucher); ok {
		t.Touch(m.now())
	}
}

// Create stores entity.
func (m *Memory[ID, E]) Create(_ context.Context, entity E) (E, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := entity.Clone()
	var zero ID
	if stored.GetID() == zero {
		stored.SetID(m.nextID())
	}
	if _, exists := m.items[stored.GetID()]; exists {
		var none E
		return none, SaveChangeFailed("create")
	}
	m.touch(stored)
	m.items[stored.GetID()] = stored
	m.order = append(m.order, stored.GetID())

	return stored.Clone(), nil
}

// ReadAll returns every stored entity.
func (m *Memory[ID, E]) ReadAll(_ context.Context) ([]E, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]E, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.items[id].Clone())
	}
	return out, nil
}

// Read returns the entity with id.
func (m *Memory[ID, E]) Read(_ context.Context, id ID) (E, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.items[id]
	if !ok {
		var none E
		return none, EntityNotFound(m.entity, id)
	}
	return stored.Clone(), nil
}

// Update merges entity into the stored record.
func (m *Memory[ID, E]) Update(_ context.Context, entity E) (E, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.items[entity.GetID()]
	if !ok {
		var none E
		return none, EntityNotFound(m.entity, entity.GetID())
	}
	stored.CopyFrom(entity)
	m.touch(stored)
	return stored.Clone(), nil
}

// Delete removes the entity with id.
func (m *Memory[ID, E]) Delete(_ context.Context, id ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return EntityNotFound(m.entity, id)
	}
	delete(m.items, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// SecuredMemory is an in-process SecuredCrudRepository.
type SecuredMemory[ID comparable, E model.OwnedEntity[ID, E]] struct {
	store  *Memory[ID, E]
	owners OwnerResolver
}

// NewSecuredMemory creates an empty SecuredMemory repository.
func NewSecuredMemory[ID comparable, E model.OwnedEntity[ID, E]](entity string, nextID func() ID, owners OwnerResolver) *SecuredMemory[ID, E] {
	return &SecuredMemory[ID, E]{
		store:  NewMemory[ID, E](entity, nextID),
		owners: owners,
	}
}

// WithClock replaces the time source used for entity timestamps.
func (m *SecuredMemory[ID, E]) WithClock(now func() time.Time) *SecuredMemory[ID, E] {
	m.store.WithClock(now)
	return m
}

// Create stores entity under owner.
func (m *SecuredMemory[ID, E]) Create(ctx context.Context, owner model.Owner, entity E) (E, error) {
	resolved, err := m.owners.ResolveOwner(ctx, ownerID(owner))
	if err != nil {
		var none E
		return none, err
	}
	entity = entity.Clone()
	entity.SetOwner(resolved)
	return m.store.Create(ctx, entity)
}

// ReadAll returns the owner's entities.
func (m *SecuredMemory[ID, E]) ReadAll(ctx context.Context, owner model.Owner) ([]E, error) {
	return m.ReadAllMatching(ctx, owner, nil)
}

// ReadAllMatching returns the owner's entities accepted by match.
func (m *SecuredMemory[ID, E]) ReadAllMatching(ctx context.Context, owner model.Owner, match func(E) bool) ([]E, error) {
	all, err := m.store.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	owned := filter(all, func(e E) bool { return model.SameOwner(e.GetOwner(), owner) })
	return filter(owned, match), nil
}

// Read returns the entity with id if it belongs to owner.
func (m *SecuredMemory[ID, E]) Read(ctx context.Context, owner model.Owner, id ID) (E, error) {
	stored, err := m.store.Read(ctx, id)
	if err != nil {
		return stored, err
	}
	if !model.SameOwner(stored.GetOwner(), owner) {
		var none E
		return none, OwnershipViolation(m.store.entity, id, owner)
	}
	return stored, nil
}

// Update merges entity into the stored record if it belongs to owner.
func (m *SecuredMemory[ID, E]) Update(ctx context.Context, owner model.Owner, entity E) (E, error) {
	if _, err := m.Read(ctx, owner, entity.GetID()); err != nil {
		var none E
		return none, err
	}
	return m.store.Update(ctx, entity)
}

// Delete removes the entity with id if it belongs to owner.
func (m *SecuredMemory[ID, E]) Delete(ctx context.Context, owner model.Owner, id ID) error {
	if _, err := m.Read(ctx, owner, id); err != nil {
		return err
	}
	return m.store.Delete(ctx, id)
}

// Int64Sequence returns an id generator counting up from 1.
func Int64Sequence() func() int64 {
	var n atomic.Int64
	return func() int64 { return n.Add(1) }
}

// MemoryUsers is an in-process owner store.
type MemoryUsers struct {
	mu         sync.RWMutex
	byID       map[string]*model.User
	byUsername map[string]*model.User
}

// NewMemoryUsers creates an empty MemoryUsers.
func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{
		byID:       make(map[string]*model.User),
		byUsername: make(map[string]*model.User),
	}
}

// CreateUser stores user.
func (m *MemoryUsers) CreateUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byUsername[user.Username]; exists {
		return ErrUsernameExists
	}
	stored := *user
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	m.byID[stored.ID] = &stored
	m.byUsername[stored.Username] = &stored
	return nil
}

// GetUserByID retrieves an owner by id.
func (m *MemoryUsers) GetUserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	c := *user
	return &c, nil
}

// GetUserByUsername retrieves an owner by username.
func (m *MemoryUsers) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.byUsername[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	c := *user
	return &c, nil
}

// ResolveOwner implements OwnerResolver.
func (m *MemoryUsers) ResolveOwner(ctx context.Context, id string) (model.Owner, error) {
	user, err := m.GetUserByID(ctx, id)
	if err != nil {
		return nil, OwnerNotFound(id)
	}
	return user, nil
}
