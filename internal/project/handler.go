// AngelaMos | 2026
// handler.go

package project

import (
	"encoding/json"
	"net/http"

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
	authenticator, managerOnly func(http.Handler) http.Handler,
) {
	r.Route("/projects", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Get("/{projectID}", h.Get)
		r.Get("/{projectID}/stages", h.ListStages)

		r.Group(func(r chi.Router) {
			r.Use(managerOnly)

			r.Post("/", h.Create)
			r.Delete("/{projectID}", h.Delete)
			r.Post("/{projectID}/stages", h.CreateStage)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToProjectResponseList(projects))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.service.Get(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		core.JSONError(w, core.FromError(err, "project"))
		return
	}

	core.OK(w, ToProjectResponse(project))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	project, err := h.service.Create(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		req,
	)
	if err != nil {
		core.JSONError(w, core.FromError(err, "project"))
		return
	}

	core.Created(w, ToProjectResponse(project))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		chi.URLParam(r, "projectID"),
	)
	if err != nil {
		core.JSONError(w, core.FromError(err, "project"))
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListStages(w http.ResponseWriter, r *http.Request) {
	stages, err := h.service.ListStages(
		r.Context(),
		chi.URLParam(r, "projectID"),
	)
	if err != nil {
		core.JSONError(w, core.FromError(err, "project"))
		return
	}

	core.OK(w, ToStageResponseList(stages))
}

func (h *Handler) CreateStage(w http.ResponseWriter, r *http.Request) {
	var req CreateStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	stage, err := h.service.CreateStage(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		chi.URLParam(r, "projectID"),
		req,
	)
	if err != nil {
		core.JSONError(w, core.FromError(err, "project"))
		return
	}

	core.Created(w, ToStageResponse(stage))
}
