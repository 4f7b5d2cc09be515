// AngelaMos | 2026
// repository.go

package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/defect-tracker/internal/core"
)

type Repository interface {
	CountBuckets(ctx context.Context, f Filter) ([]Bucket, error)
	// EachExportRow visits matching defects oldest first.
	EachExportRow(ctx context.Context, f Filter, fn func(ExportRow) error) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func where(f Filter) (string, []any) {
	conditions := []string{"deleted_at IS NULL"}
	var args []any
	argIdx := 1

	if f.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(created_by = $%d OR assigned_to = $%d)", argIdx, argIdx))
		args = append(args, f.OwnerID)
		argIdx++
	}

	if f.ProjectID != "" {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argIdx))
		args = append(args, f.ProjectID)
		argIdx++
	}

	if f.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, f.Status)
		argIdx++
	}

	if f.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", argIdx))
		args = append(args, f.Priority)
	}

	return strings.Join(conditions, " AND "), args
}

func (r *repository) CountBuckets(
	ctx context.Context,
	f Filter,
) ([]Bucket, error) {
	clause, args := where(f)
	query := fmt.Sprintf(`
		SELECT status, priority, COUNT(*) AS count
		FROM defects
		WHERE %s
		GROUP BY status, priority`, clause)

	var buckets []Bucket
	if err := r.db.SelectContext(ctx, &buckets, query, args...); err != nil {
		return nil, fmt.Errorf("count defects: %w", core.TranslatePgError(err))
	}

	return buckets, nil
}

func (r *repository) EachExportRow(
	ctx context.Context,
	f Filter,
	fn func(ExportRow) error,
) error {
	clause, args := where(f)
	query := fmt.Sprintf(`
		SELECT id, title, description, status, priority, due_date,
		       project_id, assigned_to
		FROM defects
		WHERE %s
		ORDER BY created_at, id`, clause)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("export defects: %w", core.TranslatePgError(err))
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	for rows.Next() {
		var row ExportRow
		if err := rows.StructScan(&row); err != nil {
			return fmt.Errorf("scan export row: %w", err)
		}
		if err := fn(row); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("export defects: %w", err)
	}
	return nil
}
