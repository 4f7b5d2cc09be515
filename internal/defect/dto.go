// AngelaMos | 2026
// dto.go

package defect

import (
	"time"
)

type CreateDefectRequest struct {
	Title       string  `json:"title"                 validate:"required,min=1,max=200"`
	Description string  `json:"description"           validate:"required"`
	Priority    string  `json:"priority"              validate:"required,oneof=low medium high critical"`
	ProjectID   string  `json:"project_id"            validate:"required,uuid"`
	StageID     *string `json:"stage_id,omitempty"    validate:"omitempty,uuid"`
	AssignedTo  *string `json:"assigned_to,omitempty" validate:"omitempty,uuid"`
	DueDate     *string `json:"due_date,omitempty"`
}

type AddCommentRequest struct {
	Body string `json:"body" validate:"required,min=1,max=10000"`
}

type ListDefectsParams struct {
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
	Status    string `json:"status"`
	Priority  string `json:"priority"`
	ProjectID string `json:"project_id"`

	// OwnerID narrows the result to defects created by or assigned to
	// this user. Set from the caller's visibility scope, never from input.
	OwnerID string `json:"-"`
}

func (p *ListDefectsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListDefectsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type DefectResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	ProjectID   string     `json:"project_id"`
	StageID     *string    `json:"stage_id"`
	CreatedBy   string     `json:"created_by"`
	AssignedTo  *string    `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type CommentResponse struct {
	ID        string    `json:"id"`
	DefectID  string    `json:"defect_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type HistoryResponse struct {
	ID        string    `json:"id"`
	DefectID  string    `json:"defect_id"`
	UserID    string    `json:"user_id"`
	FieldName string    `json:"field_name"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	ChangedAt time.Time `json:"changed_at"`
}

type AttachmentResponse struct {
	ID         string    `json:"id"`
	DefectID   string    `json:"defect_id"`
	Filename   string    `json:"filename"`
	FileSize   int64     `json:"file_size"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func ToDefectResponse(d *Defect) DefectResponse {
	return DefectResponse{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Status:      string(d.Status),
		Priority:    string(d.Priority),
		ProjectID:   d.ProjectID,
		StageID:     d.StageID,
		CreatedBy:   d.CreatedBy,
		AssignedTo:  d.AssignedTo,
		DueDate:     d.DueDate,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func ToDefectResponseList(defects []Defect) []DefectResponse {
	responses := make([]DefectResponse, 0, len(defects))
	for i := range defects {
		responses = append(responses, ToDefectResponse(&defects[i]))
	}
	return responses
}

func ToCommentResponse(c *Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		DefectID:  c.DefectID,
		AuthorID:  c.AuthorID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	}
}

func ToCommentResponseList(comments []Comment) []CommentResponse {
	responses := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		responses = append(responses, ToCommentResponse(&comments[i]))
	}
	return responses
}

func ToHistoryResponse(h *HistoryEntry) HistoryResponse {
	return HistoryResponse{
		ID:        h.ID,
		DefectID:  h.DefectID,
		UserID:    h.UserID,
		FieldName: string(h.FieldName),
		OldValue:  h.OldValue,
		NewValue:  h.NewValue,
		ChangedAt: h.ChangedAt,
	}
}

func ToHistoryResponseList(entries []HistoryEntry) []HistoryResponse {
	responses := make([]HistoryResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, ToHistoryResponse(&entries[i]))
	}
	return responses
}

func ToAttachmentResponseList(attachments []Attachment) []AttachmentResponse {
	responses := make([]AttachmentResponse, 0, len(attachments))
	for _, a := range attachments {
		responses = append(responses, AttachmentResponse{
			ID:         a.ID,
			DefectID:   a.DefectID,
			Filename:   a.Filename,
			FileSize:   a.FileSize,
			MimeType:   a.MimeType,
			UploadedAt: a.UploadedAt,
		})
	}
	return responses
}
