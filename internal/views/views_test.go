package views

import (
	"bytes"
	"testing"
	"time"

	"mentorbridge/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type matchRow struct {
	ID            string
	Counterpart   *models.User
	MatchedSkills []string
	Status        models.MatchStatus
	CanDecide     bool
}

func loadedEngine(t *testing.T) *Engine {
	t.Helper()
	e := New()
	require.NoError(t, e.Load())
	return e
}

func TestLoadParsesEveryPage(t *testing.T) {
	e := loadedEngine(t)
	assert.ElementsMatch(t, []string{"index", "login", "register", "dashboard", "profile", "admin", "error"}, e.Pages())
}

func TestRenderIndexWithFlash(t *testing.T) {
	e := loadedEngine(t)
	var buf bytes.Buffer

	err := e.Render(&buf, "index", fiber.Map{
		"title":       "Mentor Bridge",
		"user":        (*models.User)(nil),
		"success_msg": "Registration successful",
		"error_msg":   "",
	})
	require.NoError(t, err)
	html := buf.String()
	assert.Contains(t, html, "<title>Mentor Bridge</title>")
	assert.Contains(t, html, "Registration successful")
	assert.Contains(t, html, `href="/login"`)
	assert.NotContains(t, html, "flash-error")
}

func TestRenderDashboardEscapesUserContent(t *testing.T) {
	e := loadedEngine(t)
	var buf bytes.Buffer

	user := &models.User{ID: "u1", Name: "Cy", Role: models.RoleMentee}
	err := e.Render(&buf, "dashboard", fiber.Map{
		"title": "Dashboard",
		"user":  user,
		"recommendations": []models.User{
			{ID: "m1", Name: "<script>alert(1)</script>", Role: models.RoleMentor, Skills: []string{"go", "sql"}},
		},
		"matches": []matchRow{
			{ID: "x1", Counterpart: &models.User{Name: "Ada"}, MatchedSkills: []string{"go"}, Status: models.MatchStatusPending, CanDecide: true},
		},
	})
	require.NoError(t, err)
	html := buf.String()
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "Skills: go, sql")
	assert.Contains(t, html, `action="/match/m1"`)
	assert.Contains(t, html, `action="/match/x1/accept"`)
	assert.Contains(t, html, "Recommended mentors")
}

func TestRenderAdminAndProfile(t *testing.T) {
	e := loadedEngine(t)
	admin := &models.User{Name: "Root", Role: models.RoleAdmin}
	mentor := models.User{Name: "Ada", Email: "ada@example.com", Role: models.RoleMentor, Experience: "10 years", CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}

	var buf bytes.Buffer
	require.NoError(t, e.Render(&buf, "admin", fiber.Map{
		"title":   "Admin",
		"user":    admin,
		"users":   []models.User{mentor},
		"matches": []models.Match{{MentorID: "a", MenteeID: "b", Status: models.MatchStatusAccepted}},
	}))
	assert.Contains(t, buf.String(), "Users (1)")
	assert.Contains(t, buf.String(), `href="/admin"`)

	buf.Reset()
	require.NoError(t, e.Render(&buf, "profile", fiber.Map{"title": "Profile", "user": &mentor, "profile": &mentor}))
	assert.Contains(t, buf.String(), "10 years")
	assert.Contains(t, buf.String(), "1 Mar 2024")
}

func TestRenderUnknownTemplate(t *testing.T) {
	e := loadedEngine(t)
	var buf bytes.Buffer
	assert.Error(t, e.Render(&buf, "missing", nil))
}
