package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niolikon/taskboard/internal/model"
)

func newLabelStore() *Memory[int64, *model.Label] {
	return NewMemory[int64, *model.Label]("label", Int64Sequence())
}

func newTaskStore(t *testing.T, owners ...string) *SecuredMemory[string, *model.Task] {
	t.Helper()
	users := NewMemoryUsers()
	for _, id := range owners {
		require.NoError(t, users.CreateUser(context.Background(), &model.User{ID: id, Username: "user-" + id}))
	}
	return NewSecuredMemory[string, *model.Task]("task", model.NewTaskID, users)
}

func TestMemory_CreateAssignsIDsInOrder(t *testing.T) {
	ctx := context.Background()
	store := newLabelStore()

	first, err := store.Create(ctx, &model.Label{Name: "bug"})
	require.NoError(t, err)
	second, err := store.Create(ctx, &model.Label{Name: "feature"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)

	all, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "bug", all[0].Name)
	assert.Equal(t, "feature", all[1].Name)
}

func TestMemory_DuplicateIDIsSaveFailure(t *testing.T) {
	ctx := context.Background()
	store := newLabelStore()

	_, err := store.Create(ctx, &model.Label{ID: 5, Name: "a"})
	require.NoError(t, err)
	_, err = store.Create(ctx, &model.Label{ID: 5, Name: "b"})
	assert.ErrorIs(t, err, ErrSaveChangeFailed)
}

func TestMemory_MissingIDs(t *testing.T) {
	ctx := context.Background()
	store := newLabelStore()

	_, err := store.Read(ctx, 42)
	require.ErrorIs(t, err, ErrEntityNotFound)
	assert.Equal(t, "Could not find label with id 42", err.Error())

	_, err = store.Update(ctx, &model.Label{ID: 42, Name: "x", Fields: model.AllFields})
	assert.ErrorIs(t, err, ErrEntityNotFound)

	assert.ErrorIs(t, store.Delete(ctx, 42), ErrEntityNotFound)
}

func TestMemory_UpdateMergesPresentFields(t *testing.T) {
	ctx := context.Background()
	store := newLabelStore()

	created, err := store.Create(ctx, &model.Label{Name: "bug", Color: "#f00"})
	require.NoError(t, err)

	updated, err := store.Update(ctx, &model.Label{
		ID:     created.ID,
		Color:  "#0f0",
		Fields: model.FieldSet(0).With(model.LabelColor),
	})
	require.NoError(t, err)
	assert.Equal(t, "bug", updated.Name)
	assert.Equal(t, "#0f0", updated.Color)
}

// steppingClock returns start and then advances by a minute on every call.
func steppingClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Minute)
		return now
	}
}

func TestMemory_StampsWrites(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store := newLabelStore().WithClock(steppingClock(start))

	created, err := store.Create(ctx, &model.Label{Name: "bug"})
	require.NoError(t, err)
	assert.Equal(t, start, created.CreatedAt)
	assert.Equal(t, start, created.UpdatedAt)

	updated, err := store.Update(ctx, &model.Label{
		ID:     created.ID,
		Color:  "#0f0",
		Fields: model.FieldSet(0).With(model.LabelColor),
	})
	require.NoError(t, err)
	assert.Equal(t, start, updated.CreatedAt)
	assert.Equal(t, start.Add(time.Minute), updated.UpdatedAt)

	read, err := store.Read(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.UpdatedAt, read.UpdatedAt)
}

func TestSecuredMemory_StampsWrites(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store := newTaskStore(t, "alice").WithClock(steppingClock(start))
	alice := model.ServedOwner{ID: "alice"}

	task, err := store.Create(ctx, alice, &model.Task{Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, start, task.CreatedAt)
	assert.Equal(t, start, task.UpdatedAt)

	updated, err := store.Update(ctx, alice, &model.Task{
		ID:     task.ID,
		Done:   true,
		Fields: model.FieldSet(0).With(model.TaskDone),
	})
	require.NoError(t, err)
	assert.Equal(t, start, updated.CreatedAt)
	assert.Equal(t, start.Add(time.Minute), updated.UpdatedAt)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := newLabelStore()

	created, err := store.Create(ctx, &model.Label{Name: "bug"})
	require.NoError(t, err)
	created.Name = "mutated"

	read, err := store.Read(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "bug", read.Name)
}

func TestMemory_DeleteTwice(t *testing.T) {
	ctx := context.Background()
	store := newLabelStore()

	created, err := store.Create(ctx, &model.Label{Name: "bug"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, created.ID))
	assert.ErrorIs(t, store.Delete(ctx, created.ID), ErrEntityNotFound)

	all, err := store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSecuredMemory_CreateResolvesOwner(t *testing.T) {
	ctx := context.Background()
	store := newTaskStore(t, "alice")

	created, err := store.Create(ctx, model.ServedOwner{ID: "alice"}, &model.Task{Title: "one"})
	require.NoError(t, err)
	assert.True(t, model.ValidTaskID(created.ID))
	assert.Equal(t, "alice", created.Owner.OwnerID())

	_, err = store.Create(ctx, model.ServedOwner{ID: "ghost"}, &model.Task{Title: "two"})
	require.ErrorIs(t, err, ErrOwnershipViolation)
	assert.Equal(t, "Could not find owner ghost in database", err.Error())
}

func TestSecuredMemory_OwnershipChecks(t *testing.T) {
	ctx := context.Background()
	store := newTaskStore(t, "alice", "bob")
	alice := model.ServedOwner{ID: "alice"}
	bob := model.ServedOwner{ID: "bob"}

	task, err := store.Create(ctx, alice, &model.Task{Title: "private"})
	require.NoError(t, err)

	_, err = store.Read(ctx, bob, task.ID)
	assert.ErrorIs(t, err, ErrOwnershipViolation)

	_, err = store.Update(ctx, bob, &model.Task{ID: task.ID, Title: "hijack", Fields: model.AllFields})
	assert.ErrorIs(t, err, ErrOwnershipViolation)

	assert.ErrorIs(t, store.Delete(ctx, bob, task.ID), ErrOwnershipViolation)

	stored, err := store.Read(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", stored.Title)
}

func TestSecuredMemory_UpdateKeepsOwner(t *testing.T) {
	ctx := context.Background()
	store := newTaskStore(t, "alice")
	alice := model.ServedOwner{ID: "alice"}

	task, err := store.Create(ctx, alice, &model.Task{Title: "t"})
	require.NoError(t, err)

	updated, err := store.Update(ctx, alice, &model.Task{
		ID:     task.ID,
		Owner:  model.ServedOwner{ID: "mallory"},
		Done:   true,
		Fields: model.FieldSet(0).With(model.TaskDone),
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", updated.Owner.OwnerID())
	assert.Equal(t, "t", updated.Title)
	assert.True(t, updated.Done)
}

func TestSecuredMemory_ReadAllScopesToOwner(t *testing.T) {
	ctx := context.Background()
	store := newTaskStore(t, "alice", "bob")
	alice := model.ServedOwner{ID: "alice"}
	bob := model.ServedOwner{ID: "bob"}

	for _, title := range []string{"a1", "a2"} {
		_, err := store.Create(ctx, alice, &model.Task{Title: title, Done: title == "a2"})
		require.NoError(t, err)
	}
	_, err := store.Create(ctx, bob, &model.Task{Title: "b1"})
	require.NoError(t, err)

	tasks, err := store.ReadAll(ctx, alice)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a1", tasks[0].Title)

	done, err := store.ReadAllMatching(ctx, alice, func(task *model.Task) bool { return task.Done })
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "a2", done[0].Title)
}

func TestServedOwners(t *testing.T) {
	owner, err := ServedOwners{}.ResolveOwner(context.Background(), "kc-user")
	require.NoError(t, err)
	assert.Equal(t, model.ServedOwner{ID: "kc-user"}, owner)

	_, err = ServedOwners{}.ResolveOwner(context.Background(), "")
	assert.ErrorIs(t, err, ErrOwnershipViolation)
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryUsers()

	require.NoError(t, users.CreateUser(ctx, &model.User{ID: "u1", Username: "alice"}))
	assert.ErrorIs(t, users.CreateUser(ctx, &model.User{ID: "u2", Username: "alice"}), ErrUsernameExists)

	byName, err := users.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", byName.ID)
	assert.False(t, byName.CreatedAt.IsZero())

	_, err = users.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
