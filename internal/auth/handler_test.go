// AngelaMos | 2026
// handler_test.go

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/gt"

	"github.com/carterperez-dev/defect-tracker/internal/middleware"
)

func newTestRouter(t *testing.T) (http.Handler, *Service) {
	t.Helper()
	svc := newTestService(t)
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r, middleware.Authenticator(svc))
	return r, svc
}

func send(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRegisterAndLogin(t *testing.T) {
	h, _ := newTestRouter(t)
	body := `{"email":"qa@example.com","password":"correct horse battery",` +
		`"full_name":"QA Lead","role":"observer"}`

	rec := send(h, http.MethodPost, "/auth/register", body, "")
	gt.Value(t, rec.Code).Equal(http.StatusCreated)
	gt.String(t, rec.Body.String()).Contains(`"access_token"`)

	rec = send(h, http.MethodPost, "/auth/register", body, "")
	gt.Value(t, rec.Code).Equal(http.StatusConflict)
	gt.String(t, rec.Body.String()).Contains("email already exists")

	rec = send(h, http.MethodPost, "/auth/login",
		`{"email":"qa@example.com","password":"wrong password!"}`, "")
	gt.Value(t, rec.Code).Equal(http.StatusUnauthorized)
	gt.String(t, rec.Body.String()).Contains("invalid email or password")

	rec = send(h, http.MethodPost, "/auth/login",
		`{"email":"qa@example.com","password":"correct horse battery"}`, "")
	gt.Value(t, rec.Code).Equal(http.StatusOK)
}

func TestHandlerRejectsBadBodies(t *testing.T) {
	h, _ := newTestRouter(t)

	cases := []struct {
		name string
		path string
		body string
	}{
		{"malformed json", "/auth/login", `{"email":`},
		{"invalid email", "/auth/login", `{"email":"nope","password":"long enough"}`},
		{"unknown role", "/auth/register",
			`{"email":"a@example.com","password":"long enough","full_name":"A","role":"admin"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := send(h, http.MethodPost, tc.path, tc.body, "")
			gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
		})
	}
}

func TestHandlerMeAndLogout(t *testing.T) {
	h, svc := newTestRouter(t)
	resp := register(t, svc, "eng@example.com", "engineer")
	token := resp.Tokens.AccessToken

	rec := send(h, http.MethodGet, "/auth/me", "", token)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.String(t, rec.Body.String()).Contains(resp.User.ID)

	rec = send(h, http.MethodPost, "/auth/logout", "", token)
	gt.Value(t, rec.Code).Equal(http.StatusNoContent)

	rec = send(h, http.MethodGet, "/auth/me", "", token)
	gt.Value(t, rec.Code).Equal(http.StatusUnauthorized)
}
