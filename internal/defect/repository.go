// AngelaMos | 2026
// repository.go

package defect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/defect-tracker/internal/core"
)

type Repository interface {
	Create(ctx context.Context, d *Defect) error
	GetByID(ctx context.Context, id string) (*Defect, error)
	GetByIDForUpdate(ctx context.Context, id string) (*Defect, error)
	// GetByIDIncludingDeleted also returns soft-deleted rows.
	GetByIDIncludingDeleted(ctx context.Context, id string) (*Defect, error)
	List(ctx context.Context, params ListDefectsParams) ([]Defect, int, error)
	Update(ctx context.Context, d *Defect) error
	SoftDelete(ctx context.Context, id string, at time.Time) error

	AppendHistory(ctx context.Context, entries []HistoryEntry) error
	GetHistoryEntry(ctx context.Context, id string) (*HistoryEntry, error)
	ListHistory(ctx context.Context, defectID string) ([]HistoryEntry, error)

	CreateComment(ctx context.Context, c *Comment) error
	GetComment(ctx context.Context, id string) (*Comment, error)
	ListComments(ctx context.Context, defectID string) ([]Comment, error)

	ListAttachments(ctx context.Context, defectID string) ([]Attachment, error)

	// WithTx runs fn against a repository bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(repo Repository) error) error
}

type repository struct {
	db   core.DBTX
	conn *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db, conn: db}
}

const defectColumns = `
	id, title, description, priority, status, project_id, stage_id,
	created_by, assigned_to, due_date, created_at, updated_at, deleted_at`

func (r *repository) WithTx(
	ctx context.Context,
	fn func(repo Repository) error,
) error {
	if r.conn == nil {
		return fn(r)
	}

	return core.InTx(ctx, r.conn, func(tx *sqlx.Tx) error {
		return fn(&repository{db: tx})
	})
}

func (r *repository) Create(ctx context.Context, d *Defect) error {
	query := `
		INSERT INTO defects (
			id, title, description, priority, status, project_id, stage_id,
			created_by, assigned_to, due_date, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)`

	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.Title,
		d.Description,
		d.Priority,
		d.Status,
		d.ProjectID,
		d.StageID,
		d.CreatedBy,
		d.AssignedTo,
		d.DueDate,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create defect: %w", core.TranslatePgError(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Defect, error) {
	query := `SELECT` + defectColumns + `
		FROM defects
		WHERE id = $1 AND deleted_at IS NULL`

	return r.getOne(ctx, "get defect", query, id)
}

func (r *repository) GetByIDIncludingDeleted(
	ctx context.Context,
	id string,
) (*Defect, error) {
	query := `SELECT` + defectColumns + `
		FROM defects
		WHERE id = $1`

	return r.getOne(ctx, "get defect", query, id)
}

func (r *repository) GetByIDForUpdate(
	ctx context.Context,
	id string,
) (*Defect, error) {
	query := `SELECT` + defectColumns + `
		FROM defects
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE`

	return r.getOne(ctx, "lock defect", query, id)
}

func (r *repository) getOne(
	ctx context.Context,
	op, query string,
	args ...any,
) (*Defect, error) {
	var d Defect
	err := r.db.GetContext(ctx, &d, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, core.TranslatePgError(err))
	}

	return &d, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListDefectsParams,
) ([]Defect, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if params.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(created_by = $%d OR assigned_to = $%d)", argIdx, argIdx))
		args = append(args, params.OwnerID)
		argIdx++
	}

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	if params.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", argIdx))
		args = append(args, params.Priority)
		argIdx++
	}

	if params.ProjectID != "" {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argIdx))
		args = append(args, params.ProjectID)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM defects WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count defects: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM defects
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		defectColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var defects []Defect
	if err := r.db.SelectContext(ctx, &defects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list defects: %w", err)
	}

	return defects, total, nil
}

func (r *repository) Update(ctx context.Context, d *Defect) error {
	query := `
		UPDATE defects
		SET title = $2, description = $3, status = $4, priority = $5,
		    assigned_to = $6, due_date = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.Title,
		d.Description,
		d.Status,
		d.Priority,
		d.AssignedTo,
		d.DueDate,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update defect: %w", core.TranslatePgError(err))
	}

	return expectRow(result, "update defect")
}

func (r *repository) SoftDelete(
	ctx context.Context,
	id string,
	at time.Time,
) error {
	query := `
		UPDATE defects
		SET deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("delete defect: %w", core.TranslatePgError(err))
	}

	return expectRow(result, "delete defect")
}

func (r *repository) AppendHistory(
	ctx context.Context,
	entries []HistoryEntry,
) error {
	if len(entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO history (
			id, defect_id, user_id, field_name, old_value, new_value, changed_at
		) VALUES (
			:id, :defect_id, :user_id, :field_name, :old_value, :new_value, :changed_at
		)`

	if _, err := sqlx.NamedExecContext(ctx, r.db, query, entries); err != nil {
		return fmt.Errorf("append history: %w", core.TranslatePgError(err))
	}

	return nil
}

func (r *repository) GetHistoryEntry(
	ctx context.Context,
	id string,
) (*HistoryEntry, error) {
	query := `
		SELECT id, defect_id, user_id, field_name, old_value, new_value,
		       changed_at, seq
		FROM history
		WHERE id = $1`

	var entry HistoryEntry
	err := r.db.GetContext(ctx, &entry, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get history entry: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get history entry: %w", core.TranslatePgError(err))
	}

	return &entry, nil
}

func (r *repository) ListHistory(
	ctx context.Context,
	defectID string,
) ([]HistoryEntry, error) {
	query := `
		SELECT id, defect_id, user_id, field_name, old_value, new_value,
		       changed_at, seq
		FROM history
		WHERE defect_id = $1
		ORDER BY changed_at, seq`

	entries := []HistoryEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, defectID); err != nil {
		return nil, fmt.Errorf("list history: %w", core.TranslatePgError(err))
	}

	return entries, nil
}

func (r *repository) CreateComment(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO comments (id, defect_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.DefectID,
		c.AuthorID,
		c.Body,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create comment: %w", core.TranslatePgError(err))
	}

	return nil
}

func (r *repository) GetComment(
	ctx context.Context,
	id string,
) (*Comment, error) {
	query := `
		SELECT id, defect_id, author_id, body, created_at
		FROM comments
		WHERE id = $1`

	var c Comment
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get comment: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", core.TranslatePgError(err))
	}

	return &c, nil
}

func (r *repository) ListComments(
	ctx context.Context,
	defectID string,
) ([]Comment, error) {
	query := `
		SELECT id, defect_id, author_id, body, created_at
		FROM comments
		WHERE defect_id = $1
		ORDER BY created_at, id`

	comments := []Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, defectID); err != nil {
		return nil, fmt.Errorf("list comments: %w", core.TranslatePgError(err))
	}

	return comments, nil
}

func (r *repository) ListAttachments(
	ctx context.Context,
	defectID string,
) ([]Attachment, error) {
	query := `
		SELECT id, defect_id, filename, stored_path, file_size, mime_type,
		       uploaded_at
		FROM attachments
		WHERE defect_id = $1
		ORDER BY uploaded_at, id`

	attachments := []Attachment{}
	if err := r.db.SelectContext(ctx, &attachments, query, defectID); err != nil {
		return nil, fmt.Errorf("list attachments: %w", core.TranslatePgError(err))
	}

	return attachments, nil
}

func expectRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, core.TranslatePgError(err))
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
