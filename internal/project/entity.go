// AngelaMos | 2026
// entity.go

package project

import (
	"time"
)

type Project struct {
	ID          string     `db:"id"`
	Name        string     `db:"name"`
	Address     string     `db:"address"`
	Description string     `db:"description"`
	CreatedAt   time.Time  `db:"created_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

func (p *Project) IsDeleted() bool {
	return p.DeletedAt != nil
}

// Stage is an ordered phase of a project such as foundation or framing.
type Stage struct {
	ID         string    `db:"id"`
	ProjectID  string    `db:"project_id"`
	Name       string    `db:"name"`
	OrderIndex int       `db:"order_index"`
	CreatedAt  time.Time `db:"created_at"`
}
