// Package token issues and verifies the bearer tokens of the JSON surface.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTTL is how long an issued token stays valid.
	DefaultTTL = 30 * 24 * time.Hour
	// DefaultKeyID is used when no JWT_KEY_ID is configured.
	DefaultKeyID = "primary"

	minSecretLen = 32
)

var (
	// ErrNoToken means the request carried no usable Authorization header.
	ErrNoToken = errors.New("no token")
	// ErrInvalidToken covers bad signatures, unknown keys, malformed and expired tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the token payload: the user id plus the registered exp/iat.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Key is one named HMAC secret.
type Key struct {
	ID     string
	Secret []byte
}

// Keyring signs with one active key and verifies with the active key or any
// previous key, selected by the kid header.
type Keyring struct {
	active Key
	keys   map[string][]byte
	ttl    time.Duration
	now    func() time.Time
}

// NewKeyring builds a keyring. previous keys only verify.
func NewKeyring(active Key, previous []Key, ttl time.Duration) (*Keyring, error) {
	if active.ID == "" {
		active.ID = DefaultKeyID
	}
	if len(active.Secret) == 0 {
		return nil, fmt.Errorf("token: active secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	keys := make(map[string][]byte, len(previous)+1)
	for _, k := range previous {
		if k.ID == "" || len(k.Secret) == 0 {
			return nil, fmt.Errorf("token: previous key needs both id and secret")
		}
		if k.ID == active.ID {
			return nil, fmt.Errorf("token: previous key %q collides with the active key id", k.ID)
		}
		keys[k.ID] = k.Secret
	}
	keys[active.ID] = active.Secret

	return &Keyring{active: active, keys: keys, ttl: ttl, now: time.Now}, nil
}

// ActiveKeyID returns the kid stamped on newly issued tokens.
func (k *Keyring) ActiveKeyID() string {
	return k.active.ID
}

// TTL returns the lifetime of issued tokens.
func (k *Keyring) TTL() time.Duration {
	return k.ttl
}

// Issue signs a token for userID with the active key.
func (k *Keyring) Issue(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("token: empty user id")
	}
	now := k.now().UTC()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(k.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = k.active.ID
	return t.SignedString(k.active.Secret)
}

// Verify checks the signature and expiry and returns the user id.
func (k *Keyring) Verify(tokenString string) (string, error) {
	if strings.TrimSpace(tokenString) == "" {
		return "", ErrNoToken
	}

	p := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(k.now),
	)

	var c Claims
	tok, err := p.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			// Tokens minted before key ids existed were signed with the active secret.
			kid = k.active.ID
		}
		secret, ok := k.keys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if tok == nil || !tok.Valid || c.UserID == "" {
		return "", ErrInvalidToken
	}
	return c.UserID, nil
}

// FromAuthorizationHeader extracts the token from "Bearer <token>".
func FromAuthorizationHeader(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrNoToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrNoToken
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

// ParsePreviousSecrets parses "kid=secret,kid2=secret2".
func ParsePreviousSecrets(raw string) ([]Key, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var keys []Key
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, secret, ok := strings.Cut(entry, "=")
		id = strings.TrimSpace(id)
		secret = strings.TrimSpace(secret)
		if !ok || id == "" || secret == "" {
			return nil, fmt.Errorf("token: malformed previous secret entry %q", entry)
		}
		keys = append(keys, Key{ID: id, Secret: []byte(secret)})
	}
	return keys, nil
}

// StrongEnough reports whether secret is long enough for production use.
func StrongEnough(secret string) bool {
	return len(secret) >= minSecretLen
}
