package session

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
)

// ParseKeys splits a comma-separated list of base64 cookie keys.
func ParseKeys(raw string) []string {
	var out []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// ValidateKey checks that key is base64 for a 16, 24 or 32 byte AES key.
func ValidateKey(key string) error {
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return fmt.Errorf("cookie key is not valid base64: %w", err)
	}
	switch len(raw) {
	case 16, 24, 32:
		return nil
	}
	return fmt.Errorf("cookie key must decode to 16, 24 or 32 bytes, got %d", len(raw))
}

// ResolveKeys returns the active and previous cookie keys. Outside
// production a missing active key is generated for this process only.
func ResolveKeys(active, previous string, production bool) (string, []string, error) {
	active = strings.TrimSpace(active)
	if active == "" {
		if production {
			return "", nil, fmt.Errorf("SESSION_COOKIE_KEY is required in production")
		}
		active = encryptcookie.GenerateKey()
		slog.Warn("SESSION_COOKIE_KEY not set; generated a per-process key, sessions will not survive restarts")
	}
	if err := ValidateKey(active); err != nil {
		return "", nil, err
	}

	prev := ParseKeys(previous)
	for _, k := range prev {
		if err := ValidateKey(k); err != nil {
			return "", nil, fmt.Errorf("SESSION_PREVIOUS_COOKIE_KEYS: %w", err)
		}
	}
	return active, prev, nil
}

// RotatingDecryptor tries the active key first and then each previous key.
func RotatingDecryptor(previous []string) func(encrypted, key string) (string, error) {
	return func(encrypted, key string) (string, error) {
		plain, err := encryptcookie.DecryptCookie(encrypted, key)
		if err == nil {
			return plain, nil
		}
		for _, k := range previous {
			if plain, perr := encryptcookie.DecryptCookie(encrypted, k); perr == nil {
				return plain, nil
			}
		}
		return "", err
	}
}

// EncryptCookies returns the cookie encryption middleware for the session cookie.
func EncryptCookies(active string, previous []string) fiber.Handler {
	return encryptcookie.New(encryptcookie.Config{
		Key:       active,
		Decryptor: RotatingDecryptor(previous),
	})
}
