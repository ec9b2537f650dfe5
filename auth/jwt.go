package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"netshield/utils"
)

const minSecretLength = 32

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingToken = errors.New("missing token")
)

// TokenParser is the identity capability the request handlers consume. A bad
// token yields (0, false); it never fails the enclosing operation.
type TokenParser interface {
	ParseCallerID(token string) (int64, bool)
}

// Claims carried by a NetShield token. The uid claim identifies the account;
// the subject holds the username.
type Claims struct {
	UID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 bearer tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a token manager with an explicit secret.
func NewManager(secret []byte, ttl time.Duration) (*Manager, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("JWT secret must be at least %d bytes, got %d", minSecretLength, len(secret))
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{secret: secret, ttl: ttl}, nil
}

// NewManagerFromEnv reads JWT_SECRET. An unset or short secret is a startup
// error unless AUTH_DEV_SECRET=true, which generates an ephemeral random
// secret (every restart invalidates all outstanding tokens).
func NewManagerFromEnv() (*Manager, error) {
	secret := utils.GetEnv("JWT_SECRET", "")
	if len(secret) >= minSecretLength {
		return NewManager([]byte(secret), 12*time.Hour)
	}

	if !strings.EqualFold(utils.GetEnv("AUTH_DEV_SECRET", "false"), "true") {
		return nil, fmt.Errorf("JWT_SECRET must be set to at least %d bytes (or set AUTH_DEV_SECRET=true for local runs)", minSecretLength)
	}

	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate dev secret: %w", err)
	}
	log.Printf("WARNING: AUTH_DEV_SECRET is enabled; using an ephemeral signing secret (%s...)", base64.StdEncoding.EncodeToString(buf)[:8])
	return NewManager(buf, 12*time.Hour)
}

// GenerateToken mints a signed token for the user.
func (m *Manager) GenerateToken(userID int64, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		UID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the token and returns its claims.
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseCallerID extracts the account ID from a bearer token. Invalid,
// expired, or missing tokens degrade to (0, false).
func (m *Manager) ParseCallerID(tokenString string) (int64, bool) {
	claims, err := m.Parse(tokenString)
	if err != nil {
		return 0, false
	}
	return claims.UID, true
}

// BearerToken strips the "Bearer " prefix from an Authorization header
// value; the second return reports whether the header was bearer-shaped.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(header, "Bearer "), true
}
