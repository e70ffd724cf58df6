package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mentorbridge/internal/token"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRequired(t *testing.T) {
	keyring, err := token.NewKeyring(token.Key{ID: "k1", Secret: []byte("test-secret-key-12345678901234567890")}, nil, time.Hour)
	require.NoError(t, err)
	other, err := token.NewKeyring(token.Key{ID: "k1", Secret: []byte("some-other-secret-12345678901234567")}, nil, time.Hour)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/users/profile", TokenRequired(keyring), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": UserID(c)})
	})

	valid, err := keyring.Issue("user-123")
	require.NoError(t, err)
	forged, err := other.Issue("user-123")
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Valid Token", "Bearer " + valid, http.StatusOK},
		{"Missing Header", "", http.StatusUnauthorized},
		{"Wrong Scheme", "Basic " + valid, http.StatusUnauthorized},
		{"Malformed Token", "Bearer malformed.token.here", http.StatusUnauthorized},
		{"Foreign Signature", "Bearer " + forged, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "user-123", body["userID"])
			} else {
				assert.Equal(t, "Not authorized", body["message"])
			}
		})
	}
}

func TestContextMiddlewareCarriesUserID(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, "user-9")
		return c.Next()
	})
	app.Use(ContextMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		uid, _ := c.UserContext().Value(UserIDKey).(string)
		return c.SendString(uid)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	buf := make([]byte, 16)
	n, _ := resp.Body.Read(buf)
	assert.Equal(t, "user-9", string(buf[:n]))
}
