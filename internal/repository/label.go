package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/niolikon/taskboard/internal/model"
)

const labelEntity = "label"

// LabelRepository stores labels in PostgreSQL.
type LabelRepository struct {
	db *Repository
}

// NewLabelRepository creates a LabelRepository.
func NewLabelRepository(db *Repository) *LabelRepository {
	return &LabelRepository{db: db}
}

var _ CrudRepository[int64, *model.Label] = (*LabelRepository)(nil)

// Create inserts a label. The database assigns its id.
func (r *LabelRepository) Create(ctx context.Context, label *model.Label) (*model.Label, error) {
	query := `
		INSERT INTO labels (name, color)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`

	err := r.db.pool.QueryRow(ctx, query, label.Name, label.Color).
		Scan(&label.ID, &label.CreatedAt, &label.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, SaveChangeFailed("create")
		}
		return nil, fmt.Errorf("failed to create label: %w", err)
	}

	return label, nil
}

// ReadAll returns every label by id.
func (r *LabelRepository) ReadAll(ctx context.Context) ([]*model.Label, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name, color, created_at, updated_at
		FROM labels
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	defer rows.Close()

	labels := make([]*model.Label, 0)
	for rows.Next() {
		label, err := scanLabel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate labels: %w", err)
	}

	return labels, nil
}

// Read returns the label with id.
func (r *LabelRepository) Read(ctx context.Context, id int64) (*model.Label, error) {
	label, err := scanLabel(r.db.pool.QueryRow(ctx, `
		SELECT id, name, color, created_at, updated_at
		FROM labels
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, EntityNotFound(labelEntity, id)
		}
		return nil, fmt.Errorf("failed to get label: %w", err)
	}
	return label, nil
}

// Update merges label into the stored record and persists it.
func (r *LabelRepository) Update(ctx context.Context, label *model.Label) (*model.Label, error) {
	stored, err := r.Read(ctx, label.ID)
	if err != nil {
		return nil, err
	}

	stored.CopyFrom(label)

	err = r.db.pool.QueryRow(ctx, `
		UPDATE labels
		SET name = $2, color = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, stored.ID, stored.Name, stored.Color).Scan(&stored.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, SaveChangeFailed("update")
		}
		return nil, fmt.Errorf("failed to update label: %w", err)
	}

	return stored, nil
}

// Delete removes the label with id.
func (r *LabelRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.Read(ctx, id); err != nil {
		return err
	}

	tag, err := r.db.pool.Exec(ctx, `DELETE FROM labels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete label: %w", err)
	}
	if tag.RowsAffected() < 1 {
		return SaveChangeFailed("delete")
	}

	return nil
}

func scanLabel(row pgx.Row) (*model.Label, error) {
	var label model.Label
	if err := row.Scan(&label.ID, &label.Name, &label.Color, &label.CreatedAt, &label.UpdatedAt); err != nil {
		return nil, err
	}
	label.Fields = model.AllFields
	return &label, nil
}
