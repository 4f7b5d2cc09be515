// AngelaMos | 2026
// service.go

package defect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/defect-tracker/internal/access"
	"github.com/carterperez-dev/defect-tracker/internal/core"
)

const tracerName = "defect-tracker/defect"

var (
	ErrProjectNotFound = fmt.Errorf("project: %w", core.ErrNotFound)
	ErrStageNotFound   = fmt.Errorf("stage: %w", core.ErrNotFound)
	ErrStageMismatch   = fmt.Errorf(
		"stage belongs to a different project: %w",
		core.ErrInvalidInput,
	)
)

// ProjectLookup answers the referential checks defect creation needs.
type ProjectLookup interface {
	ProjectExists(ctx context.Context, id string) (bool, error)
	StageProjectID(ctx context.Context, stageID string) (string, error)
}

type Service struct {
	repo     Repository
	projects ProjectLookup
	gate     *access.Gate
	clock    core.Clock
	logger   *slog.Logger
}

func NewService(
	repo Repository,
	projects ProjectLookup,
	gate *access.Gate,
	clock core.Clock,
	logger *slog.Logger,
) *Service {
	if clock == nil {
		clock = core.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		projects: projects,
		gate:     gate,
		clock:    clock,
		logger:   logger,
	}
}

func (s *Service) List(
	ctx context.Context,
	p access.Principal,
	params ListDefectsParams,
) (_ []Defect, _ int, err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "defect.List",
		attribute.String("role", string(p.Role)),
	)
	defer func() { core.SetSpanError(ctx, err); span.End() }()

	decision := s.gate.Authorize(ctx, p, access.ActionViewList, access.Ownership{})
	if err := decision.Err(); err != nil {
		return nil, 0, fmt.Errorf("list defects: %w", err)
	}

	if params.Status != "" {
		if _, err := ParseStatus(params.Status); err != nil {
			return nil, 0, fmt.Errorf("list defects: %w", err)
		}
	}
	if params.Priority != "" {
		if _, err := ParsePriority(params.Priority); err != nil {
			return nil, 0, fmt.Errorf("list defects: %w", err)
		}
	}

	if params.ProjectID != "" {
		if _, err := uuid.Parse(params.ProjectID); err != nil {
			return nil, 0, fmt.Errorf(
				"list defects: project_id: %w", core.ErrInvalidInput)
		}
	}

	params.Normalize()
	params.OwnerID = access.VisibilityScope(p)

	candidates, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	visible := access.FilterVisible(p, candidates,
		func(d Defect) access.Ownership { return d.Ownership() },
		func(d Defect) bool { return d.IsDeleted() },
	)

	return visible, total, nil
}

// Get returns a defect the principal can see. Defects outside the
// principal's visibility are reported as not found.
func (s *Service) Get(
	ctx context.Context,
	p access.Principal,
	id string,
) (*Defect, error) {
	return s.visibleDefect(ctx, p, id, "get defect")
}

// visibleDefect loads a live defect and reports it as missing to a
// principal who cannot see it.
func (s *Service) visibleDefect(
	ctx context.Context,
	p access.Principal,
	id, op string,
) (*Defect, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !access.CanView(p, d.Ownership()) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return d, nil
}

// canSeeParent checks visibility of the defect a comment or history entry
// belongs to. Soft-deleted parents still count so direct lookups keep
// working after deletion.
func (s *Service) canSeeParent(
	ctx context.Context,
	p access.Principal,
	defectID, op string,
) error {
	d, err := s.repo.GetByIDIncludingDeleted(ctx, defectID)
	if err != nil {
		return err
	}

	if !access.CanView(p, d.Ownership()) {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func (s *Service) Create(
	ctx context.Context,
	p access.Principal,
	req CreateDefectRequest,
) (_ *Defect, err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "defect.Create",
		attribute.String("role", string(p.Role)),
		attribute.String("project_id", req.ProjectID),
	)
	defer func() { core.SetSpanError(ctx, err); span.End() }()

	decision := s.gate.Authorize(ctx, p, access.ActionCreate, access.Ownership{})
	if err := decision.Err(); err != nil {
		return nil, fmt.Errorf("create defect: %w", err)
	}

	d, err := s.buildDefect(p, req)
	if err != nil {
		return nil, fmt.Errorf("create defect: %w", err)
	}

	if err := s.checkReferences(ctx, d); err != nil {
		return nil, fmt.Errorf("create defect: %w", err)
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "defect created",
		"defect_id", d.ID,
		"project_id", d.ProjectID,
		"user_id", p.ID,
	)

	return d, nil
}

func (s *Service) buildDefect(
	p access.Principal,
	req CreateDefectRequest,
) (*Defect, error) {
	title, err := parseTitle(req.Title)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FieldTitle, err)
	}

	description, err := parseDescription(req.Description)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FieldDescription, err)
	}

	priority, err := ParsePriority(req.Priority)
	if err != nil {
		return nil, err
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("project_id: %w", core.ErrInvalidInput)
	}

	stageID, err := parseOptionalID(optional(req.StageID))
	if err != nil {
		return nil, fmt.Errorf("stage_id: %w", err)
	}

	assignee, err := parseOptionalID(optional(req.AssignedTo))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FieldAssignedTo, err)
	}

	dueDate, err := parseOptionalDate(optional(req.DueDate))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FieldDueDate, err)
	}

	now := s.clock.Now()

	return &Defect{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		Priority:    priority,
		Status:      StatusNew,
		ProjectID:   projectID.String(),
		StageID:     stageID,
		CreatedBy:   p.ID,
		AssignedTo:  assignee,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *Service) checkReferences(ctx context.Context, d *Defect) error {
	exists, err := s.projects.ProjectExists(ctx, d.ProjectID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrProjectNotFound
	}

	if d.StageID == nil {
		return nil
	}

	stageProject, err := s.projects.StageProjectID(ctx, *d.StageID)
	if errors.Is(err, core.ErrNotFound) {
		return ErrStageNotFound
	}
	if err != nil {
		return err
	}
	if stageProject != d.ProjectID {
		return ErrStageMismatch
	}

	return nil
}

// Update applies a field-level change set. The row lock, the diff, the
// defect write and every history insert share one transaction, so a
// concurrent update can neither interleave nor be half-visible.
func (s *Service) Update(
	ctx context.Context,
	p access.Principal,
	id string,
	changes Changes,
) (_ *Defect, err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "defect.Update",
		attribute.String("role", string(p.Role)),
		attribute.String("defect_id", id),
	)
	defer func() { core.SetSpanError(ctx, err); span.End() }()

	var updated *Defect
	var written int

	err = s.repo.WithTx(ctx, func(repo Repository) error {
		d, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		decision := s.gate.Authorize(ctx, p, access.ActionUpdate, d.Ownership())
		if err := decision.Err(); err != nil {
			return fmt.Errorf("update defect: %w", err)
		}

		pending, err := Diff(d, changes)
		if err != nil {
			return fmt.Errorf("update defect: %w", err)
		}

		updated = d
		if len(pending) == 0 {
			return nil
		}

		entries := Apply(d, pending, p.ID, s.clock.Now())

		if err := repo.Update(ctx, d); err != nil {
			return err
		}
		if err := repo.AppendHistory(ctx, entries); err != nil {
			return err
		}

		written = len(entries)
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("history.entries", written))
	return updated, nil
}

func (s *Service) Delete(
	ctx context.Context,
	p access.Principal,
	id string,
) (err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "defect.Delete",
		attribute.String("role", string(p.Role)),
		attribute.String("defect_id", id),
	)
	defer func() { core.SetSpanError(ctx, err); span.End() }()

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	decision := s.gate.Authorize(ctx, p, access.ActionDelete, d.Ownership())
	if err := decision.Err(); err != nil {
		return fmt.Errorf("delete defect: %w", err)
	}

	if err := s.repo.SoftDelete(ctx, id, s.clock.Now()); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "defect deleted",
		"defect_id", id,
		"user_id", p.ID,
	)

	return nil
}

func (s *Service) AddComment(
	ctx context.Context,
	p access.Principal,
	defectID, body string,
) (*Comment, error) {
	d, err := s.visibleDefect(ctx, p, defectID, "add comment")
	if err != nil {
		return nil, err
	}

	decision := s.gate.Authorize(ctx, p, access.ActionComment, d.Ownership())
	if err := decision.Err(); err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}

	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("add comment: body: %w", core.ErrInvalidInput)
	}

	c := &Comment{
		ID:        uuid.New().String(),
		DefectID:  d.ID,
		AuthorID:  p.ID,
		Body:      body,
		CreatedAt: s.clock.Now(),
	}

	if err := s.repo.CreateComment(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// ListComments returns the thread of a live defect, oldest first.
func (s *Service) ListComments(
	ctx context.Context,
	p access.Principal,
	defectID string,
) ([]Comment, error) {
	if _, err := s.visibleDefect(ctx, p, defectID, "list comments"); err != nil {
		return nil, err
	}

	return s.repo.ListComments(ctx, defectID)
}

// GetComment looks a comment up by its own id; this keeps working after
// the parent defect is soft-deleted.
func (s *Service) GetComment(
	ctx context.Context,
	p access.Principal,
	id string,
) (*Comment, error) {
	c, err := s.repo.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.canSeeParent(ctx, p, c.DefectID, "get comment"); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) ListHistory(
	ctx context.Context,
	p access.Principal,
	defectID string,
) ([]HistoryEntry, error) {
	if _, err := s.visibleDefect(ctx, p, defectID, "list history"); err != nil {
		return nil, err
	}

	return s.repo.ListHistory(ctx, defectID)
}

func (s *Service) GetHistoryEntry(
	ctx context.Context,
	p access.Principal,
	id string,
) (*HistoryEntry, error) {
	entry, err := s.repo.GetHistoryEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.canSeeParent(ctx, p, entry.DefectID, "get history entry"); err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *Service) ListAttachments(
	ctx context.Context,
	p access.Principal,
	defectID string,
) ([]Attachment, error) {
	if _, err := s.visibleDefect(ctx, p, defectID, "list attachments"); err != nil {
		return nil, err
	}

	return s.repo.ListAttachments(ctx, defectID)
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
