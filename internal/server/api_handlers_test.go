package server

import (
	"testing"

	"mentorbridge/internal/cache"
	"mentorbridge/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	// Comma strings and arrays are both accepted for term lists.
	id, tok := env.registerAPI("Ada", "mentor", "go, python", []string{"ml"})
	assert.NotEmpty(t, id)

	resp := env.api(fiber.MethodGet, "/users/profile", nil, tok)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	profile := decode[models.User](t, resp)
	assert.Equal(t, id, profile.ID)
	assert.Equal(t, []string{"go", "python"}, profile.Skills)
	assert.Equal(t, []string{"ml"}, profile.Interests)
	assert.Empty(t, profile.Password)

	t.Run("duplicate email", func(t *testing.T) {
		resp := env.api(fiber.MethodPost, "/users/register", map[string]any{
			"name": "Ada Again", "email": "ADA@example.com", "password": testPassword, "role": "mentee",
		}, "")
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "User already exists", decode[models.ErrorResponse](t, resp).Message)
	})

	t.Run("admin cannot self register", func(t *testing.T) {
		resp := env.api(fiber.MethodPost, "/users/register", map[string]any{
			"name": "Eve", "email": "eve@example.com", "password": testPassword, "role": "admin",
		}, "")
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := env.api(fiber.MethodPost, "/users/register", "not an object", "")
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("login", func(t *testing.T) {
		resp := env.api(fiber.MethodPost, "/users/login", map[string]string{
			"email": "ada@example.com", "password": testPassword,
		}, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		body := decode[authResponse](t, resp)
		assert.Equal(t, id, body.ID)
		assert.Equal(t, models.RoleMentor, body.Role)
		assert.NotEmpty(t, body.Token)
	})

	t.Run("bad credentials", func(t *testing.T) {
		for _, creds := range []map[string]string{
			{"email": "ada@example.com", "password": "wrongpass1"},
			{"email": "nobody@example.com", "password": testPassword},
		} {
			resp := env.api(fiber.MethodPost, "/users/login", creds, "")
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "Invalid email or password", decode[models.ErrorResponse](t, resp).Message)
		}
	})
}

func TestAPITokenRequired(t *testing.T) {
	env := newTestEnv(t)

	for _, tok := range []string{"", "not-a-jwt"} {
		resp := env.api(fiber.MethodGet, "/users/profile", nil, tok)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Not authorized", decode[models.ErrorResponse](t, resp).Message)
	}
}

func TestAPIUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	_, tok := env.registerAPI("Grace", "mentee", nil, []string{"go"})
	env.registerAPI("Linus", "mentor", []string{"c"}, nil)

	resp := env.api(fiber.MethodPut, "/users/profile", map[string]any{
		"bio":        "learning compilers",
		"experience": "ignored for mentees",
		"interests":  "go, compilers",
	}, tok)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	u := decode[models.User](t, resp)
	assert.Equal(t, "Grace", u.Name)
	assert.Equal(t, "learning compilers", u.Bio)
	assert.Empty(t, u.Experience)
	assert.Equal(t, []string{"go", "compilers"}, u.Interests)

	resp = env.api(fiber.MethodPut, "/users/profile", map[string]any{"email": "linus@example.com"}, tok)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User already exists", decode[models.ErrorResponse](t, resp).Message)
}

func TestAPIMatchLifecycle(t *testing.T) {
	env := newTestEnv(t)
	mentorID, mentorTok := env.registerAPI("Mentor", "mentor", []string{"python", "go"}, nil)
	otherMentorID, _ := env.registerAPI("Other", "mentor", []string{"rust"}, nil)
	_, menteeTok := env.registerAPI("Mentee", "mentee", nil, []string{"python"})

	resp := env.api(fiber.MethodGet, "/users/matches", nil, menteeTok)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	recs := decode[[]models.User](t, resp)
	require.Len(t, recs, 1)
	assert.Equal(t, mentorID, recs[0].ID)
	assert.NotEqual(t, otherMentorID, recs[0].ID)

	resp = env.api(fiber.MethodPost, "/users/matches", map[string]string{"targetUserId": mentorID}, menteeTok)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	match := decode[models.Match](t, resp)
	assert.Equal(t, models.MatchStatusPending, match.Status)
	assert.Equal(t, mentorID, match.MentorID)
	assert.Equal(t, []string{"python"}, match.MatchedSkills)

	resp = env.api(fiber.MethodPost, "/users/matches", map[string]string{"targetUserId": mentorID}, menteeTok)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Match request already exists", decode[models.ErrorResponse](t, resp).Message)

	resp = env.api(fiber.MethodPost, "/users/matches", map[string]string{"targetUserId": "missing"}, menteeTok)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Target user not found", decode[models.ErrorResponse](t, resp).Message)

	resp = env.api(fiber.MethodPost, "/users/matches", map[string]string{}, menteeTok)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Already paired users drop out of recommendations.
	resp = env.api(fiber.MethodGet, "/users/matches", nil, menteeTok)
	assert.Empty(t, decode[[]models.User](t, resp))

	// Only the recipient decides.
	resp = env.api(fiber.MethodPut, "/users/matches/"+match.ID+"/accept", nil, menteeTok)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.api(fiber.MethodPut, "/users/matches/"+match.ID+"/accept", nil, mentorTok)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.MatchStatusAccepted, decode[models.Match](t, resp).Status)

	resp = env.api(fiber.MethodPut, "/users/matches/"+match.ID+"/decline", nil, mentorTok)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = env.api(fiber.MethodPut, "/users/matches/nope/decline", nil, mentorTok)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.api(fiber.MethodGet, "/users/matches/mine", nil, mentorTok)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	mine := decode[[]models.Match](t, resp)
	require.Len(t, mine, 1)
	assert.Equal(t, match.ID, mine[0].ID)
	assert.Equal(t, models.MatchStatusAccepted, mine[0].Status)
}

func TestAPIIssueNotificationTicket(t *testing.T) {
	env := newTestEnv(t)
	id, tok := env.registerAPI("Ticket", "mentee", nil, []string{"go"})

	resp := env.api(fiber.MethodPost, "/users/notifications/ticket", nil, tok)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	require.NotEmpty(t, body["ticket"])

	stored, err := env.mr.Get(cache.TicketKey(body["ticket"]))
	require.NoError(t, err)
	assert.Equal(t, id, stored)
}
