// AngelaMos | 2026
// handler.go

package report

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/defect-tracker/internal/core"
	"github.com/carterperez-dev/defect-tracker/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, managerOnly func(http.Handler) http.Handler,
) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/stats", h.Stats)
		r.With(managerOnly).Get("/export", h.Export)
	})
}

func filterFromQuery(r *http.Request) Filter {
	q := r.URL.Query()
	return Filter{
		ProjectID: q.Get("project_id"),
		Status:    q.Get("status"),
		Priority:  q.Get("priority"),
	}
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		filterFromQuery(r),
	)
	if err != nil {
		core.JSONError(w, core.FromError(err, "report"))
		return
	}

	core.OK(w, stats)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		core.BadRequest(w, "format must be xlsx or csv")
		return
	}

	// Buffered so a failure midway still produces a JSON error response.
	var buf bytes.Buffer
	err = h.service.Export(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		filterFromQuery(r),
		format,
		&buf,
	)
	if err != nil {
		core.JSONError(w, core.FromError(err, "report"))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set(
		"Content-Disposition",
		`attachment; filename="`+h.service.ExportFilename(format)+`"`,
	)
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // best-effort response write
	_, _ = buf.WriteTo(w)
}
