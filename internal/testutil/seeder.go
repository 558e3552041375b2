package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/niolikon/taskboard/internal/model"
)

// SeedData describes the rows a test needs before it runs.
// Tasks are grouped by the id of the owner they belong to.
type SeedData struct {
	Owners []*model.User
	Tasks  map[string][]*model.Task
	Labels []*model.Label
}

// Seeder pre-seeds tables before a test and cleans them afterwards.
type Seeder struct {
	db *sqlx.DB
}

// OpenSeeder connects to databaseURL with the lib/pq driver.
func OpenSeeder(ctx context.Context, databaseURL string) (*Seeder, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect seeder: %w", err)
	}
	return &Seeder{db: db}, nil
}

// Close closes the seeder connection.
func (s *Seeder) Close() error {
	return s.db.Close()
}

type ownerRow struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type taskRow struct {
	ID          string     `db:"id"`
	OwnerID     string     `db:"owner_id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Done        bool       `db:"done"`
	DueAt       *time.Time `db:"due_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

type labelRow struct {
	Name  string `db:"name"`
	Color string `db:"color"`
}

// Seed inserts owners, then each owner's tasks, then labels, in one transaction.
// Seeded tasks get their Owner set; seeded labels get their ID set.
func (s *Seeder) Seed(ctx context.Context, data SeedData) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, owner := range data.Owners {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO owners (id, username, password_hash, created_at)
			VALUES (:id, :username, :password_hash, :created_at)
		`, ownerRow{
			ID:           owner.ID,
			Username:     owner.Username,
			PasswordHash: owner.PasswordHash,
			CreatedAt:    owner.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("seed owner %s: %w", owner.ID, err)
		}

		for _, task := range data.Tasks[owner.ID] {
			task.Owner = owner
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO tasks (id, owner_id, title, description, done, due_at, created_at, updated_at)
				VALUES (:id, :owner_id, :title, :description, :done, :due_at, :created_at, :updated_at)
			`, taskRow{
				ID:          task.ID,
				OwnerID:     owner.ID,
				Title:       task.Title,
				Description: task.Description,
				Done:        task.Done,
				DueAt:       task.DueAt,
				CreatedAt:   task.CreatedAt,
				UpdatedAt:   task.UpdatedAt,
			})
			if err != nil {
				return fmt.Errorf("seed task %s: %w", task.ID, err)
			}
		}
	}

	for _, label := range data.Labels {
		query, args, err := tx.BindNamed(`
			INSERT INTO labels (name, color) VALUES (:name, :color) RETURNING id
		`, labelRow{Name: label.Name, Color: label.Color})
		if err != nil {
			return fmt.Errorf("bind label: %w", err)
		}
		if err := tx.GetContext(ctx, &label.ID, query, args...); err != nil {
			return fmt.Errorf("seed label %s: %w", label.Name, err)
		}
	}

	return tx.Commit()
}

// Clean removes every row seeded or created by a test.
func (s *Seeder) Clean(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE tasks, labels, owners RESTART IDENTITY`); err != nil {
		return fmt.Errorf("clean tables: %w", err)
	}
	return nil
}

// CountTasks returns the number of stored tasks owned by ownerID.
func (s *Seeder) CountTasks(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM tasks WHERE owner_id = $1`, ownerID)
	return n, err
}
