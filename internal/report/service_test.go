// AngelaMos | 2026
// service_test.go

package report_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/xuri/excelize/v2"

	"github.com/carterperez-dev/defect-tracker/internal/access"
	"github.com/carterperez-dev/defect-tracker/internal/core"
	"github.com/carterperez-dev/defect-tracker/internal/report"
)

type storedDefect struct {
	row       report.ExportRow
	createdBy string
	deleted   bool
}

type memoryRepository struct {
	mu      sync.Mutex
	defects []storedDefect
}

func (m *memoryRepository) matching(f report.Filter) []storedDefect {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []storedDefect
	for _, d := range m.defects {
		if d.deleted {
			continue
		}
		if f.OwnerID != "" && d.createdBy != f.OwnerID &&
			(d.row.AssignedTo == nil || *d.row.AssignedTo != f.OwnerID) {
			continue
		}
		if f.ProjectID != "" && d.row.ProjectID != f.ProjectID {
			continue
		}
		if f.Status != "" && d.row.Status != f.Status {
			continue
		}
		if f.Priority != "" && d.row.Priority != f.Priority {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (m *memoryRepository) CountBuckets(
	_ context.Context,
	f report.Filter,
) ([]report.Bucket, error) {
	counts := map[[2]string]int{}
	for _, d := range m.matching(f) {
		counts[[2]string{d.row.Status, d.row.Priority}]++
	}

	buckets := make([]report.Bucket, 0, len(counts))
	for k, n := range counts {
		buckets = append(buckets, report.Bucket{Status: k[0], Priority: k[1], Count: n})
	}
	return buckets, nil
}

func (m *memoryRepository) EachExportRow(
	_ context.Context,
	f report.Filter,
	fn func(report.ExportRow) error,
) error {
	for _, d := range m.matching(f) {
		if err := fn(d.row); err != nil {
			return err
		}
	}
	return nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

const (
	projectA = "7b0c1f8e-3a43-4d1e-9d55-0a1b2c3d4e5f"
	projectB = "8c1d2e9f-4b54-4e2f-8e66-1b2c3d4e5f60"
)

var (
	engineer = access.Principal{ID: "11111111-1111-4111-8111-111111111111", Role: access.RoleEngineer}
	manager  = access.Principal{ID: "22222222-2222-4222-8222-222222222222", Role: access.RoleManager}
	observer = access.Principal{ID: "33333333-3333-4333-8333-333333333333", Role: access.RoleObserver}
)

var wantHeader = []string{
	"id", "title", "description", "status", "priority",
	"due_date", "project_id", "assigned_to",
}

func ptr[T any](v T) *T { return &v }

func newService() *report.Service {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &memoryRepository{defects: []storedDefect{
		{
			row: report.ExportRow{
				ID: "d1", Title: "Cracked slab", Description: "Level 2, grid C4",
				Status: "new", Priority: "high", ProjectID: projectA,
				DueDate: &due,
			},
			createdBy: engineer.ID,
		},
		{
			row: report.ExportRow{
				ID: "d2", Title: "Loose railing", Description: "Stair B, \"urgent\"",
				Status: "in_work", Priority: "high", ProjectID: projectA,
				AssignedTo: ptr(engineer.ID),
			},
			createdBy: manager.ID,
		},
		{
			row: report.ExportRow{
				ID: "d3", Title: "Paint", Description: "Touch up",
				Status: "closed", Priority: "low", ProjectID: projectB,
			},
			createdBy: manager.ID,
		},
		{
			row: report.ExportRow{
				ID: "d4", Title: "Removed", Description: "Deleted",
				Status: "new", Priority: "critical", ProjectID: projectB,
			},
			createdBy: engineer.ID,
			deleted:   true,
		},
	}}

	clock := fixedClock{t: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	return report.NewService(repo, access.NewGate(nil), clock, nil)
}

func TestStatsByRole(t *testing.T) {
	svc := newService()

	cases := []struct {
		name      string
		principal access.Principal
		total     int
		high      int
	}{
		{"manager sees all", manager, 3, 2},
		{"observer sees all", observer, 3, 2},
		{"engineer sees own", engineer, 2, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stats, err := svc.Stats(context.Background(), tc.principal, report.Filter{})
			gt.NoError(t, err).Required()

			gt.Value(t, stats.Total).Equal(tc.total)
			gt.Value(t, stats.ByPriority["high"]).Equal(tc.high)
			gt.Value(t, stats.ByPriority["critical"]).Equal(0)
			gt.Value(t, len(stats.ByStatus)).Equal(5)
			gt.Value(t, len(stats.ByPriority)).Equal(4)
		})
	}
}

func TestStatsFilter(t *testing.T) {
	svc := newService()

	stats, err := svc.Stats(context.Background(), manager, report.Filter{ProjectID: projectB})
	gt.NoError(t, err).Required()
	gt.Value(t, stats.Total).Equal(1)
	gt.Value(t, stats.ByStatus["closed"]).Equal(1)

	_, err = svc.Stats(context.Background(), manager, report.Filter{Status: "done"})
	gt.Error(t, err).Is(core.ErrInvalidInput)

	_, err = svc.Stats(context.Background(), manager, report.Filter{ProjectID: "nope"})
	gt.Error(t, err).Is(core.ErrInvalidInput)
}

func TestStatsRejectsUnknownRole(t *testing.T) {
	svc := newService()

	_, err := svc.Stats(context.Background(), access.Principal{ID: "x", Role: "guest"}, report.Filter{})
	gt.Error(t, err).Is(core.ErrForbidden)
}

func TestExportCSV(t *testing.T) {
	svc := newService()

	var out strings.Builder
	gt.NoError(t, svc.Export(context.Background(), manager, report.Filter{}, report.FormatCSV, &out)).Required()

	records, err := csv.NewReader(strings.NewReader(out.String())).ReadAll()
	gt.NoError(t, err).Required()
	gt.Array(t, records).Length(4).Required()

	gt.Value(t, records[0]).Equal(wantHeader)
	gt.Value(t, records[1][5]).Equal("2026-03-01T00:00:00Z")
	gt.Value(t, records[1][7]).Equal("")
	gt.Value(t, records[2][2]).Equal(`Stair B, "urgent"`)
	gt.Value(t, records[2][7]).Equal(engineer.ID)
}

func TestExportXLSX(t *testing.T) {
	svc := newService()

	var out bytes.Buffer
	gt.NoError(t, svc.Export(context.Background(), manager, report.Filter{}, report.FormatXLSX, &out)).Required()

	book, err := excelize.OpenReader(&out)
	gt.NoError(t, err).Required()
	defer book.Close()

	gt.Value(t, book.GetSheetList()).Equal([]string{"Defects"})

	rows, err := book.GetRows("Defects")
	gt.NoError(t, err).Required()
	gt.Array(t, rows).Length(4).Required()

	gt.Value(t, rows[0]).Equal(wantHeader)
	gt.Value(t, rows[1][0]).Equal("d1")
	gt.Value(t, rows[1][5]).Equal("2026-03-01T00:00:00Z")
	gt.Value(t, rows[2][2]).Equal(`Stair B, "urgent"`)
	gt.Value(t, rows[2][7]).Equal(engineer.ID)
	gt.Value(t, rows[3][6]).Equal(projectB)
}

func TestExportManagerOnly(t *testing.T) {
	svc := newService()

	for _, p := range []access.Principal{engineer, observer} {
		for _, format := range []report.Format{report.FormatXLSX, report.FormatCSV} {
			var out bytes.Buffer
			err := svc.Export(context.Background(), p, report.Filter{}, format, &out)
			gt.Error(t, err).Is(core.ErrForbidden)
			gt.Value(t, out.Len()).Equal(0)
		}
	}
}

func TestExportDenialLogsThroughGate(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	svc := report.NewService(&memoryRepository{}, access.NewGate(logger), nil, logger)

	err := svc.Export(context.Background(), observer, report.Filter{}, report.FormatXLSX, io.Discard)
	gt.Error(t, err).Is(core.ErrForbidden)

	gt.String(t, logs.String()).Contains("access denied")
	gt.String(t, logs.String()).Contains("user_id=" + observer.ID)
	gt.String(t, logs.String()).Contains("action=export")
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in   string
		want report.Format
	}{
		{"", report.FormatXLSX},
		{"xlsx", report.FormatXLSX},
		{"CSV", report.FormatCSV},
	}
	for _, tc := range cases {
		got, err := report.ParseFormat(tc.in)
		gt.NoError(t, err).Required()
		gt.Value(t, got).Equal(tc.want)
	}

	_, err := report.ParseFormat("pdf")
	gt.Error(t, err).Is(core.ErrInvalidInput)
}

func TestExportFilename(t *testing.T) {
	svc := newService()
	gt.Value(t, svc.ExportFilename(report.FormatXLSX)).Equal("defects_20261015.xlsx")
	gt.Value(t, svc.ExportFilename(report.FormatCSV)).Equal("defects_20261015.csv")
}
