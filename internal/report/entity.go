// AngelaMos | 2026
// entity.go

package report

import (
	"time"
)

// Bucket is one (status, priority) cell of the defect count grid.
type Bucket struct {
	Status   string `db:"status"`
	Priority string `db:"priority"`
	Count    int    `db:"count"`
}

type ExportRow struct {
	ID          string     `db:"id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Status      string     `db:"status"`
	Priority    string     `db:"priority"`
	DueDate     *time.Time `db:"due_date"`
	ProjectID   string     `db:"project_id"`
	AssignedTo  *string    `db:"assigned_to"`
}

type Filter struct {
	OwnerID   string
	ProjectID string
	Status    string
	Priority  string
}

type Stats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"status"`
	ByPriority map[string]int `json:"priority"`
}
