// AngelaMos | 2026
// service.go

package project

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/defect-tracker/internal/access"
	"github.com/carterperez-dev/defect-tracker/internal/core"
)

type Service struct {
	repo  Repository
	clock core.Clock
}

func NewService(repo Repository, clock core.Clock) *Service {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Service{repo: repo, clock: clock}
}

func (s *Service) List(ctx context.Context) ([]Project, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(
	ctx context.Context,
	p access.Principal,
	req CreateProjectRequest,
) (*Project, error) {
	if !p.IsManager() {
		return nil, fmt.Errorf("create project: %w", core.ErrForbidden)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("create project: name: %w", core.ErrInvalidInput)
	}

	project := &Project{
		ID:          uuid.New().String(),
		Name:        name,
		Address:     strings.TrimSpace(req.Address),
		Description: req.Description,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}

	return project, nil
}

// Delete soft-deletes the project. Its stages and defects are left as
// they are.
func (s *Service) Delete(
	ctx context.Context,
	p access.Principal,
	id string,
) error {
	if !p.IsManager() {
		return fmt.Errorf("delete project: %w", core.ErrForbidden)
	}

	return s.repo.SoftDelete(ctx, id, s.clock.Now())
}

func (s *Service) ListStages(
	ctx context.Context,
	projectID string,
) ([]Stage, error) {
	if _, err := s.repo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	return s.repo.ListStages(ctx, projectID)
}

func (s *Service) CreateStage(
	ctx context.Context,
	p access.Principal,
	projectID string,
	req CreateStageRequest,
) (*Stage, error) {
	if !p.IsManager() {
		return nil, fmt.Errorf("create stage: %w", core.ErrForbidden)
	}

	if _, err := s.repo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("create stage: name: %w", core.ErrInvalidInput)
	}

	stage := &Stage{
		ID:         uuid.New().String(),
		ProjectID:  projectID,
		Name:       name,
		OrderIndex: req.OrderIndex,
		CreatedAt:  s.clock.Now(),
	}

	if err := s.repo.CreateStage(ctx, stage); err != nil {
		return nil, err
	}

	return stage, nil
}

// ProjectExists reports whether a live project with this id exists.
func (s *Service) ProjectExists(ctx context.Context, id string) (bool, error) {
	_, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) StageProjectID(
	ctx context.Context,
	stageID string,
) (string, error) {
	stage, err := s.repo.GetStage(ctx, stageID)
	if err != nil {
		return "", err
	}
	return stage.ProjectID, nil
}
