package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/niolikon/taskboard/internal/model"
)

const taskEntity = "task"

const taskColumns = `id, owner_id, title, description, done, due_at, created_at, updated_at`

// TaskRepository stores tasks in PostgreSQL, scoped to their owners.
type TaskRepository struct {
	db     *Repository
	owners OwnerResolver
}

// NewTaskRepository creates a TaskRepository. owners resolves the owner of new tasks.
func NewTaskRepository(db *Repository, owners OwnerResolver) *TaskRepository {
	return &TaskRepository{db: db, owners: owners}
}

var _ SecuredCrudRepository[string, *model.Task] = (*TaskRepository)(nil)

// Create inserts a task owned by owner.
func (r *TaskRepository) Create(ctx context.Context, owner model.Owner, task *model.Task) (*model.Task, error) {
	resolved, err := r.owners.ResolveOwner(ctx, ownerID(owner))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task.Owner = resolved
	if task.ID == "" {
		task.ID = model.NewTaskID()
	}
	task.CreatedAt = now
	task.UpdatedAt = now

	query := `
		INSERT INTO tasks (id, owner_id, title, description, done, due_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	tag, err := r.db.pool.Exec(ctx, query,
		task.ID,
		resolved.OwnerID(),
		task.Title,
		task.Description,
		task.Done,
		task.DueAt,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	if tag.RowsAffected() < 1 {
		return nil, SaveChangeFailed("create")
	}

	return task, nil
}

// ReadAll returns the owner's tasks, oldest first.
func (r *TaskRepository) ReadAll(ctx context.Context, owner model.Owner) ([]*model.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.pool.Query(ctx, query, ownerID(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*model.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// ReadAllMatching returns the owner's tasks accepted by match.
func (r *TaskRepository) ReadAllMatching(ctx context.Context, owner model.Owner, match func(*model.Task) bool) ([]*model.Task, error) {
	tasks, err := r.ReadAll(ctx, owner)
	if err != nil {
		return nil, err
	}
	return filter(tasks, match), nil
}

// Read returns the task with id if it belongs to owner.
func (r *TaskRepository) Read(ctx context.Context, owner model.Owner, id string) (*model.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1
	`

	task, err := scanTask(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, EntityNotFound(taskEntity, id)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if !model.SameOwner(task.Owner, owner) {
		return nil, OwnershipViolation(taskEntity, id, owner)
	}

	return task, nil
}

// Update merges task into the stored record and persists it.
func (r *TaskRepository) Update(ctx context.Context, owner model.Owner, task *model.Task) (*model.Task, error) {
	stored, err := r.Read(ctx, owner, task.ID)
	if err != nil {
		return nil, err
	}

	stored.CopyFrom(task)
	stored.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE tasks
		SET title = $3, description = $4, done = $5, due_at = $6, updated_at = $7
		WHERE id = $1 AND owner_id = $2
	`

	tag, err := r.db.pool.Exec(ctx, query,
		stored.ID,
		stored.Owner.OwnerID(),
		stored.Title,
		stored.Description,
		stored.Done,
		stored.DueAt,
		stored.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if tag.RowsAffected() < 1 {
		return nil, SaveChangeFailed("update")
	}

	return stored, nil
}

// Delete removes the task with id if it belongs to owner.
func (r *TaskRepository) Delete(ctx context.Context, owner model.Owner, id string) error {
	stored, err := r.Read(ctx, owner, id)
	if err != nil {
		return err
	}

	tag, err := r.db.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`,
		stored.ID, stored.Owner.OwnerID())
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() < 1 {
		return SaveChangeFailed("delete")
	}

	return nil
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var task model.Task
	var owner string
	err := row.Scan(
		&task.ID,
		&owner,
		&task.Title,
		&task.Description,
		&task.Done,
		&task.DueAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Owner = model.ServedOwner{ID: owner}
	task.Fields = model.AllFields
	return &task, nil
}
