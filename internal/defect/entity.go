// AngelaMos | 2026
// entity.go

package defect

import (
	"fmt"
	"time"

	"github.com/carterperez-dev/defect-tracker/internal/access"
	"github.com/carterperez-dev/defect-tracker/internal/core"
)

type Status string

const (
	StatusNew       Status = "new"
	StatusInWork    Status = "in_work"
	StatusOnCheck   Status = "on_check"
	StatusClosed    Status = "closed"
	StatusCancelled Status = "cancelled"
)

var Statuses = []Status{
	StatusNew,
	StatusInWork,
	StatusOnCheck,
	StatusClosed,
	StatusCancelled,
}

func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("status %q: %w", s, core.ErrInvalidInput)
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var Priorities = []Priority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityCritical,
}

func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("priority %q: %w", s, core.ErrInvalidInput)
}

type Defect struct {
	ID          string     `db:"id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Priority    Priority   `db:"priority"`
	Status      Status     `db:"status"`
	ProjectID   string     `db:"project_id"`
	StageID     *string    `db:"stage_id"`
	CreatedBy   string     `db:"created_by"`
	AssignedTo  *string    `db:"assigned_to"`
	DueDate     *time.Time `db:"due_date"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

func (d *Defect) IsDeleted() bool {
	return d.DeletedAt != nil
}

func (d *Defect) Ownership() access.Ownership {
	return access.Ownership{
		CreatedBy:  d.CreatedBy,
		AssignedTo: d.AssignedTo,
	}
}

// Comment is immutable once written.
type Comment struct {
	ID        string    `db:"id"`
	DefectID  string    `db:"defect_id"`
	AuthorID  string    `db:"author_id"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}

// HistoryEntry records one field transition. Entries are only ever
// inserted. Seq is assigned by the store and orders entries that share
// ChangedAt.
type HistoryEntry struct {
	ID        string    `db:"id"`
	DefectID  string    `db:"defect_id"`
	UserID    string    `db:"user_id"`
	FieldName Field     `db:"field_name"`
	OldValue  string    `db:"old_value"`
	NewValue  string    `db:"new_value"`
	ChangedAt time.Time `db:"changed_at"`
	Seq       int64     `db:"seq"`
}

type Attachment struct {
	ID         string    `db:"id"`
	DefectID   string    `db:"defect_id"`
	Filename   string    `db:"filename"`
	StoredPath string    `db:"stored_path"`
	FileSize   int64     `db:"file_size"`
	MimeType   string    `db:"mime_type"`
	UploadedAt time.Time `db:"uploaded_at"`
}
