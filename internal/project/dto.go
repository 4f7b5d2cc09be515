// AngelaMos | 2026
// dto.go

package project

import (
	"time"
)

type CreateProjectRequest struct {
	Name        string `json:"name"        validate:"required,min=1,max=200"`
	Address     string `json:"address"     validate:"max=500"`
	Description string `json:"description" validate:"max=5000"`
}

type CreateStageRequest struct {
	Name       string `json:"name"        validate:"required,min=1,max=150"`
	OrderIndex int    `json:"order_index" validate:"min=0"`
}

type ProjectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type StageResponse struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Name       string    `json:"name"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
}

func ToProjectResponse(p *Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Address:     p.Address,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

func ToProjectResponseList(projects []Project) []ProjectResponse {
	out := make([]ProjectResponse, len(projects))
	for i := range projects {
		out[i] = ToProjectResponse(&projects[i])
	}
	return out
}

func ToStageResponse(s *Stage) StageResponse {
	return StageResponse{
		ID:         s.ID,
		ProjectID:  s.ProjectID,
		Name:       s.Name,
		OrderIndex: s.OrderIndex,
		CreatedAt:  s.CreatedAt,
	}
}

func ToStageResponseList(stages []Stage) []StageResponse {
	out := make([]StageResponse, len(stages))
	for i := range stages {
		out[i] = ToStageResponse(&stages[i])
	}
	return out
}
