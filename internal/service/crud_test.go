package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niolikon/taskboard/internal/apperr"
	"github.com/niolikon/taskboard/internal/metrics"
	"github.com/niolikon/taskboard/internal/model"
	"github.com/niolikon/taskboard/internal/repository"
)

func newLabelService(t *testing.T) (*CrudService[int64, *model.Label, labelIn, labelOut], *metrics.InMemoryRecorder) {
	t.Helper()
	recorder := metrics.NewInMemory()
	repo := repository.NewMemory[int64, *model.Label]("label", repository.Int64Sequence())
	return NewCrudService[int64, *model.Label, labelIn, labelOut]("labels", repo, labelMapper{}, recorder), recorder
}

func TestCrudService_CreateAndRead(t *testing.T) {
	svc, recorder := newLabelService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, labelIn{Name: model.Some("urgent")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "urgent", created.Name)

	got, err := svc.Read(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	assert.Equal(t, uint64(1), recorder.Snapshot().EntitiesCreated["labels"])
}

func TestCrudService_ReadAllKeepsOrder(t *testing.T) {
	svc, _ := newLabelService(t)
	ctx := context.Background()

	all, err := svc.ReadAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	for _, name := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, labelIn{Name: model.Some(name)})
		require.NoError(t, err)
	}

	all, err = svc.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Name)
	assert.Equal(t, "c", all[2].Name)
}

func TestCrudService_ReadMissing(t *testing.T) {
	svc, recorder := newLabelService(t)

	_, err := svc.Read(context.Background(), 42)
	require.Error(t, err)

	status, msg := apperr.Resolve(err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Could not find label with id 42", msg)
	assert.True(t, errors.Is(err, repository.ErrEntityNotFound))
	assert.Equal(t, uint64(1), recorder.Snapshot().EntityFailures[metrics.FailureKey{Resource: "labels", Kind: "not_found"}])
}

func TestCrudService_UpdateUsesPathID(t *testing.T) {
	svc, _ := newLabelService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, labelIn{Name: model.Some("first")})
	require.NoError(t, err)
	second, err := svc.Create(ctx, labelIn{Name: model.Some("second")})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, first.ID, labelIn{Name: model.Some("renamed")})
	require.NoError(t, err)
	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, "renamed", updated.Name)

	untouched, err := svc.Read(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", untouched.Name)
}

func TestCrudService_UpdateKeepsAbsentFields(t *testing.T) {
	svc, _ := newLabelService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, labelIn{Name: model.Some("keep")})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, labelIn{})
	require.NoError(t, err)
	assert.Equal(t, "keep", updated.Name)
}

func TestCrudService_UpdateMissing(t *testing.T) {
	svc, _ := newLabelService(t)

	_, err := svc.Update(context.Background(), 9, labelIn{Name: model.Some("x")})
	status, msg := apperr.Resolve(err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Could not find label with id 9", msg)
}

func TestCrudService_Delete(t *testing.T) {
	svc, recorder := newLabelService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, labelIn{Name: model.Some("gone")})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Read(ctx, created.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	err = svc.Delete(ctx, created.ID)
	status, _ := apperr.Resolve(err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, uint64(1), recorder.Snapshot().EntitiesDeleted["labels"])
}

// failingRepo reports a zero-row write for every mutation.
type failingRepo struct {
	readErr error
}

func (f failingRepo) Create(context.Context, *model.Label) (*model.Label, error) {
	return nil, repository.SaveChangeFailed("create")
}
func (f failingRepo) ReadAll(context.Context) ([]*model.Label, error) {
	return nil, f.readErr
}
func (f failingRepo) Read(context.Context, int64) (*model.Label, error) {
	return nil, f.readErr
}
func (f failingRepo) Update(context.Context, *model.Label) (*model.Label, error) {
	return nil, repository.SaveChangeFailed("update")
}
func (f failingRepo) Delete(context.Context, int64) error {
	return repository.SaveChangeFailed("delete")
}

func TestCrudService_SaveChangeFailures(t *testing.T) {
	svc := NewCrudService[int64, *model.Label, labelIn, labelOut]("labels", failingRepo{}, labelMapper{}, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
		want string
	}{
		{"create", func() error { _, err := svc.Create(ctx, labelIn{}); return err }, "Could not create entity"},
		{"update", func() error { _, err := svc.Update(ctx, 1, labelIn{}); return err }, "Could not update entity"},
		{"delete", func() error { return svc.Delete(ctx, 1) }, "Could not delete entity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := apperr.Resolve(tt.run())
			assert.Equal(t, http.StatusConflict, status)
			assert.Equal(t, tt.want, msg)
		})
	}
}

func TestCrudService_UnrecognizedFailurePassesThrough(t *testing.T) {
	boom := errors.New("connection reset")
	svc := NewCrudService[int64, *model.Label, labelIn, labelOut]("labels", failingRepo{readErr: boom}, labelMapper{}, nil)

	_, err := svc.Read(context.Background(), 1)
	assert.ErrorIs(t, err, boom)

	status, msg := apperr.Resolve(err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, apperr.InternalMessage, msg)
}
