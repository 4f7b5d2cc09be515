// AngelaMos | 2026
// handler.go

package defect

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/defect-tracker/internal/core"
	"github.com/carterperez-dev/defect-tracker/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Route("/defects", func(r chi.Router) {
			r.Get("/", h.List)
			r.Post("/", h.Create)

			r.Route("/{defectID}", func(r chi.Router) {
				r.Get("/", h.Get)
				r.Patch("/", h.Update)
				r.Put("/", h.Update)
				r.Delete("/", h.Delete)

				r.Get("/comments", h.ListComments)
				r.Post("/comments", h.AddComment)
				r.Get("/history", h.ListHistory)
				r.Get("/attachments", h.ListAttachments)
			})
		})

		r.Get("/comments/{commentID}", h.GetComment)
		r.Get("/history/{entryID}", h.GetHistoryEntry)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListDefectsParams{
		Page:      parseIntQuery(r, "page", 1),
		PageSize:  parseIntQuery(r, "page_size", 20),
		Status:    q.Get("status"),
		Priority:  q.Get("priority"),
		ProjectID: q.Get("project_id"),
	}
	params.Normalize()

	defects, total, err := h.service.List(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		params,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Paginated(
		w,
		ToDefectResponseList(defects),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDefectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	d, err := h.service.Create(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		req,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToDefectResponse(d))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Get(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		chi.URLParam(r, "defectID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToDefectResponse(d))
}

// Update accepts a JSON object of field -> value. Absent keys are left
// alone and null clears an optional field.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var changes Changes
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		core.BadRequest(w, "request body must be a JSON object")
		return
	}

	d, err := h.service.Update(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		chi.URLParam(r, "defectID"),
		changes,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToDefectResponse(d))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		chi.URLParam(r, "defectID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	c, err := h.service.AddComment(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		chi.URLParam(r, "defectID"),
		req.Body,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToCommentResponse(c))
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListComments(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		chi.URLParam(r, "defectID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToCommentResponseList(comments))
}

func (h *Handler) GetComment(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetComment(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		chi.URLParam(r, "commentID"),
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "comment")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToCommentResponse(c))
}

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListHistory(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		chi.URLParam(r, "defectID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToHistoryResponseList(entries))
}

func (h *Handler) GetHistoryEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.GetHistoryEntry(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		chi.URLParam(r, "entryID"),
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "history entry")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToHistoryResponse(entry))
}

func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	attachments, err := h.service.ListAttachments(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		chi.URLParam(r, "defectID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToAttachmentResponseList(attachments))
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProjectNotFound):
		core.NotFound(w, "project")
	case errors.Is(err, ErrStageNotFound):
		core.NotFound(w, "stage")
	default:
		core.JSONError(w, core.FromError(err, "defect"))
	}
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
