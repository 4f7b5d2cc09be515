// AngelaMos | 2026
// service.go

package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/defect-tracker/internal/access"
	"github.com/carterperez-dev/defect-tracker/internal/core"
	"github.com/carterperez-dev/defect-tracker/internal/defect"
)

const tracerName = "defect-tracker/report"

var exportHeader = []string{
	"id",
	"title",
	"description",
	"status",
	"priority",
	"due_date",
	"project_id",
	"assigned_to",
}

type Service struct {
	repo   Repository
	gate   *access.Gate
	clock  core.Clock
	logger *slog.Logger
}

func NewService(
	repo Repository,
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
	return &Service{repo: repo, gate: gate, clock: clock, logger: logger}
}

// Stats counts the defects the principal can see, by status and by
// priority. Every known status and priority is present, zero or not.
func (s *Service) Stats(
	ctx context.Context,
	p access.Principal,
	f Filter,
) (_ *Stats, err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "report.Stats",
		attribute.String("role", string(p.Role)),
	)
	defer func() { core.SetSpanError(ctx, err); span.End() }()

	decision := s.gate.Authorize(ctx, p, access.ActionViewList, access.Ownership{})
	if err := decision.Err(); err != nil {
		return nil, fmt.Errorf("defect stats: %w", err)
	}

	if err := validateFilter(&f); err != nil {
		return nil, fmt.Errorf("defect stats: %w", err)
	}
	f.OwnerID = access.VisibilityScope(p)

	buckets, err := s.repo.CountBuckets(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("defect stats: %w", err)
	}

	stats := &Stats{
		ByStatus:   make(map[string]int, len(defect.Statuses)),
		ByPriority: make(map[string]int, len(defect.Priorities)),
	}
	for _, st := range defect.Statuses {
		stats.ByStatus[string(st)] = 0
	}
	for _, pr := range defect.Priorities {
		stats.ByPriority[string(pr)] = 0
	}

	for _, b := range buckets {
		stats.Total += b.Count
		stats.ByStatus[b.Status] += b.Count
		stats.ByPriority[b.Priority] += b.Count
	}

	return stats, nil
}

// Export writes every non-deleted defect matching f to w in the given
// format. Managers only.
func (s *Service) Export(
	ctx context.Context,
	p access.Principal,
	f Filter,
	format Format,
	w io.Writer,
) (err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "report.Export",
		attribute.String("role", string(p.Role)),
		attribute.String("export.format", string(format)),
	)
	defer func() { core.SetSpanError(ctx, err); span.End() }()

	decision := s.gate.Authorize(ctx, p, access.ActionExport, access.Ownership{})
	if err := decision.Err(); err != nil {
		return fmt.Errorf("export defects: %w", err)
	}

	if err := validateFilter(&f); err != nil {
		return fmt.Errorf("export defects: %w", err)
	}

	rw, err := newRowWriter(format, w)
	if err != nil {
		return fmt.Errorf("export defects: %w", err)
	}
	defer rw.Close() //nolint:errcheck

	if err := rw.WriteRow(exportHeader); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}

	rows := 0
	err = s.repo.EachExportRow(ctx, f, func(row ExportRow) error {
		rows++
		return rw.WriteRow(exportRecord(row))
	})
	if err != nil {
		return fmt.Errorf("export defects: %w", err)
	}

	if err := rw.Finish(); err != nil {
		return fmt.Errorf("finish export: %w", err)
	}

	span.SetAttributes(attribute.Int("export.rows", rows))
	s.logger.InfoContext(ctx, "defects exported",
		"user_id", p.ID,
		"format", format,
		"rows", rows,
	)
	return nil
}

// ExportFilename names an export after the day it was produced.
func (s *Service) ExportFilename(format Format) string {
	return fmt.Sprintf("defects_%s.%s", s.clock.Now().Format("20060102"), format)
}

func exportRecord(row ExportRow) []string {
	dueDate := ""
	if row.DueDate != nil {
		dueDate = row.DueDate.UTC().Format(time.RFC3339)
	}
	assignedTo := ""
	if row.AssignedTo != nil {
		assignedTo = *row.AssignedTo
	}

	return []string{
		row.ID,
		row.Title,
		row.Description,
		row.Status,
		row.Priority,
		dueDate,
		row.ProjectID,
		assignedTo,
	}
}

func validateFilter(f *Filter) error {
	if f.Status != "" {
		if _, err := defect.ParseStatus(f.Status); err != nil {
			return err
		}
	}
	if f.Priority != "" {
		if _, err := defect.ParsePriority(f.Priority); err != nil {
			return err
		}
	}
	if f.ProjectID != "" {
		if _, err := uuid.Parse(f.ProjectID); err != nil {
			return fmt.Errorf("project_id %q: %w", f.ProjectID, core.ErrInvalidInput)
		}
	}
	return nil
}
