// AngelaMos | 2026
// handler_test.go

package health_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/gt"

	"github.com/carterperez-dev/defect-tracker/internal/health"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	healthy   = pingFunc(func(context.Context) error { return nil })
	unhealthy = pingFunc(func(context.Context) error { return errors.New("down") })
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func newRouter(h *health.Handler) chi.Router {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestReadiness(t *testing.T) {
	cases := []struct {
		name   string
		deps   []health.Dependency
		status int
		body   string
	}{
		{
			name: "all healthy",
			deps: []health.Dependency{
				{Name: "database", Checker: healthy},
				{Name: "redis", Checker: healthy},
			},
			status: http.StatusOK,
			body:   "ok",
		},
		{
			name: "redis down",
			deps: []health.Dependency{
				{Name: "database", Checker: healthy},
				{Name: "redis", Checker: unhealthy},
			},
			status: http.StatusServiceUnavailable,
			body:   "degraded",
		},
		{
			name:   "checker missing",
			deps:   []health.Dependency{{Name: "database"}},
			status: http.StatusServiceUnavailable,
			body:   "degraded",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := health.NewHandler(health.Config{Dependencies: tc.deps})
			rec := get(t, newRouter(h), "/readyz")

			gt.Value(t, rec.Code).Equal(tc.status)

			var resp health.ReadinessResponse
			gt.NoError(t, json.NewDecoder(rec.Body).Decode(&resp)).Required()
			gt.Value(t, resp.Status).Equal(tc.body)
			gt.Array(t, resp.Checks).Length(len(tc.deps))
		})
	}
}

func TestReadinessNotReady(t *testing.T) {
	h := health.NewHandler(health.Config{})
	h.SetReady(false)

	gt.Value(t, get(t, newRouter(h), "/readyz").Code).
		Equal(http.StatusServiceUnavailable)
	gt.Value(t, get(t, newRouter(h), "/healthz").Code).Equal(http.StatusOK)
}

func TestShutdownFailsHealthEndpoints(t *testing.T) {
	h := health.NewHandler(health.Config{})
	h.SetShutdown(true)

	for _, path := range []string{"/healthz", "/livez", "/readyz"} {
		gt.Value(t, get(t, newRouter(h), path).Code).
			Equal(http.StatusServiceUnavailable)
	}
}

func TestStats(t *testing.T) {
	h := health.NewHandler(health.Config{
		Dependencies: []health.Dependency{{Name: "database", Checker: healthy}},
		DBStats: func() sql.DBStats {
			return sql.DBStats{MaxOpenConnections: 25, InUse: 3}
		},
	})

	rec := get(t, http.HandlerFunc(h.Stats), "/system/stats")
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var resp struct {
		Data health.StatsResponse `json:"data"`
	}
	gt.NoError(t, json.NewDecoder(rec.Body).Decode(&resp)).Required()
	gt.Value(t, resp.Data.Database).NotNil()
	gt.Value(t, resp.Data.Database.MaxOpenConnections).Equal(25)
	gt.Value(t, resp.Data.Database.InUse).Equal(3)
	gt.Value(t, resp.Data.Redis).Nil()
	gt.String(t, resp.Data.Runtime.GoVersion).NotEqual("")
}
