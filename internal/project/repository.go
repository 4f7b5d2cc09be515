// AngelaMos | 2026
// repository.go

package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/defect-tracker/internal/core"
)

type Repository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context) ([]Project, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
	CreateStage(ctx context.Context, s *Stage) error
	GetStage(ctx context.Context, id string) (*Stage, error)
	ListStages(ctx context.Context, projectID string) ([]Stage, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Project) error {
	query := `
		INSERT INTO projects (id, name, address, description, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Address,
		p.Description,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create project: %w", core.TranslatePgError(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Project, error) {
	query := `
		SELECT id, name, address, description, created_at, deleted_at
		FROM projects
		WHERE id = $1 AND deleted_at IS NULL`

	var p Project
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get project: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", core.TranslatePgError(err))
	}

	return &p, nil
}

func (r *repository) List(ctx context.Context) ([]Project, error) {
	query := `
		SELECT id, name, address, description, created_at, deleted_at
		FROM projects
		WHERE deleted_at IS NULL
		ORDER BY name, id`

	var projects []Project
	if err := r.db.SelectContext(ctx, &projects, query); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return projects, nil
}

func (r *repository) SoftDelete(
	ctx context.Context,
	id string,
	at time.Time,
) error {
	query := `
		UPDATE projects
		SET deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("delete project: %w", core.TranslatePgError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project: %w", core.TranslatePgError(err))
	}
	if rows == 0 {
		return fmt.Errorf("delete project: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) CreateStage(ctx context.Context, s *Stage) error {
	query := `
		INSERT INTO stages (id, project_id, name, order_index, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.ProjectID,
		s.Name,
		s.OrderIndex,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stage: %w", core.TranslatePgError(err))
	}

	return nil
}

func (r *repository) GetStage(ctx context.Context, id string) (*Stage, error) {
	query := `
		SELECT id, project_id, name, order_index, created_at
		FROM stages
		WHERE id = $1`

	var s Stage
	err := r.db.GetContext(ctx, &s, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get stage: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get stage: %w", core.TranslatePgError(err))
	}

	return &s, nil
}

func (r *repository) ListStages(
	ctx context.Context,
	projectID string,
) ([]Stage, error) {
	query := `
		SELECT id, project_id, name, order_index, created_at
		FROM stages
		WHERE project_id = $1
		ORDER BY order_index, created_at`

	var stages []Stage
	if err := r.db.SelectContext(ctx, &stages, query, projectID); err != nil {
		return nil, fmt.Errorf("list stages: %w", core.TranslatePgError(err))
	}

	return stages, nil
}
