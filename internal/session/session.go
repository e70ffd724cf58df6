package session

import (
	"time"

	"mentorbridge/internal/models"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
)

// CookieName is the browser session cookie.
const CookieName = "mentorbridge_session"

// Session keys.
const (
	KeyUserID = "userId"
	KeyRole   = "role"
	KeyName   = "name"
)

// Flash kinds.
const (
	FlashSuccess = "success_msg"
	FlashError   = "error_msg"
)

// StoreConfig configures NewStore.
type StoreConfig struct {
	// Storage is nil for the in-memory default.
	Storage fiber.Storage
	TTL     time.Duration
	Secure  bool
}

// NewStore returns the session store used by the browser surface.
func NewStore(cfg StoreConfig) *fibersession.Store {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return fibersession.New(fibersession.Config{
		Storage:        cfg.Storage,
		Expiration:     ttl,
		KeyLookup:      "cookie:" + CookieName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   cfg.Secure,
		CookiePath:     "/",
	})
}

// Login binds sess to u under a fresh session id.
func Login(sess *fibersession.Session, u *models.User) error {
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(KeyUserID, u.ID)
	sess.Set(KeyRole, string(u.Role))
	sess.Set(KeyName, u.Name)
	return nil
}

// UserID returns the logged-in user id, or "".
func UserID(sess *fibersession.Session) string {
	id, _ := sess.Get(KeyUserID).(string)
	return id
}

// Role returns the logged-in user's role as stored at login.
func Role(sess *fibersession.Session) models.Role {
	r, _ := sess.Get(KeyRole).(string)
	return models.Role(r)
}

// SetFlash queues msg for the next rendered page.
func SetFlash(sess *fibersession.Session, kind, msg string) {
	sess.Set(kind, msg)
}

// TakeFlashes returns and clears pending flash messages. The caller saves the session.
// Cleared kinds are overwritten with "" so a session left otherwise empty is still written back.
func TakeFlashes(sess *fibersession.Session) map[string]string {
	out := make(map[string]string, 2)
	for _, kind := range []string{FlashSuccess, FlashError} {
		if msg, ok := sess.Get(kind).(string); ok && msg != "" {
			out[kind] = msg
			sess.Set(kind, "")
		}
	}
	return out
}

// ForgetUser drops the login keys but keeps the session for flashes.
func ForgetUser(sess *fibersession.Session) {
	sess.Delete(KeyUserID)
	sess.Delete(KeyRole)
	sess.Delete(KeyName)
}
