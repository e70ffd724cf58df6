package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"mentorbridge/internal/config"
	"mentorbridge/internal/models"
	"mentorbridge/internal/repository"
	"mentorbridge/internal/session"
	"mentorbridge/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "password123"

type testEnv struct {
	t     *testing.T
	srv   *Server
	app   *fiber.App
	mr    *miniredis.Miniredis
	db    *gorm.DB
	users repository.UserRepository
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                 "test",
		Port:                "0",
		DBDriver:            config.DriverSQLite,
		JWTSecret:           "test-secret-that-is-long-enough-for-hmac",
		JWTTTLHours:         1,
		SessionTTLHours:     1,
		AllowedOrigins:      "http://localhost",
		FeatureFlags:        "match_notifications=on",
		RecommendationLimit: 5,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	mr, rdb := testutil.NewRedis(t)
	users := repository.NewUserRepository(db)

	srv, err := NewServer(testConfig(), Deps{
		Users:      users,
		Matches:    repository.NewMatchRepository(db),
		Redis:      rdb,
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	return &testEnv{t: t, srv: srv, app: srv.App(), mr: mr, db: db, users: users}
}

func (e *testEnv) do(req *http.Request) *http.Response {
	e.t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	return resp
}

func (e *testEnv) api(method, path string, body any, token string) *http.Response {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return e.do(req)
}

// registerAPI creates an account over the JSON surface and returns its id and token.
func (e *testEnv) registerAPI(name, role string, skills, interests any) (string, string) {
	e.t.Helper()
	resp := e.api(fiber.MethodPost, "/users/register", map[string]any{
		"name":      name,
		"email":     strings.ToLower(name) + "@example.com",
		"password":  testPassword,
		"role":      role,
		"skills":    skills,
		"interests": interests,
	}, "")
	require.Equal(e.t, fiber.StatusCreated, resp.StatusCode)
	body := decode[authResponse](e.t, resp)
	require.NotEmpty(e.t, body.Token)
	return body.ID, body.Token
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func bodyString(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

// browser carries the session cookie between requests like a real client.
type browser struct {
	env    *testEnv
	cookie *http.Cookie
}

func (e *testEnv) browser() *browser {
	return &browser{env: e}
}

func (b *browser) send(req *http.Request) *http.Response {
	if b.cookie != nil {
		req.AddCookie(&http.Cookie{Name: b.cookie.Name, Value: b.cookie.Value})
	}
	resp := b.env.do(req)
	for _, ck := range resp.Cookies() {
		if ck.Name == session.CookieName {
			expired := !ck.Expires.IsZero() && ck.Expires.Before(time.Now())
			if ck.Value == "" || ck.MaxAge < 0 || expired {
				b.cookie = nil
				continue
			}
			b.cookie = ck
		}
	}
	return resp
}

func (b *browser) get(path string) *http.Response {
	return b.send(httptest.NewRequest(fiber.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *http.Response {
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return b.send(req)
}

// login submits the login form and expects the dashboard redirect.
func (b *browser) login(email string) {
	resp := b.post("/login", url.Values{"email": {email}, "password": {testPassword}})
	require.Equal(b.env.t, fiber.StatusFound, resp.StatusCode)
	require.Equal(b.env.t, "/dashboard", resp.Header.Get(fiber.HeaderLocation))
}

func assertRedirect(t *testing.T, resp *http.Response, to string) {
	t.Helper()
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, to, resp.Header.Get(fiber.HeaderLocation))
}

func TestNewServerRequiresRepositories(t *testing.T) {
	_, err := NewServer(testConfig(), Deps{})
	assert.Error(t, err)
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(httptest.NewRequest(fiber.MethodGet, "/health/live", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(httptest.NewRequest(fiber.MethodGet, "/health/ready", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	env.srv.storePing = func(context.Context) error { return errors.New("down") }
	resp = env.do(httptest.NewRequest(fiber.MethodGet, "/health/ready", nil))
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "unhealthy", body["status"])
}

func TestUnknownPageRendersNotFound(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(httptest.NewRequest(fiber.MethodGet, "/no-such-page", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "Page not found")
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	env := newTestEnv(t)
	app := fiber.New(fiber.Config{Views: env.app.Config().Views, ErrorHandler: env.srv.ErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("pq: connection refused")
	})
	app.Get("/users/boom", func(c *fiber.Ctx) error {
		return models.NewInternalError(errors.New("pq: connection refused"))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body := bodyString(t, resp)
	assert.Contains(t, body, "Internal server error")
	assert.NotContains(t, body, "connection refused")

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/users/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", decode[models.ErrorResponse](t, resp).Message)
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(httptest.NewRequest(fiber.MethodGet, "/", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}
