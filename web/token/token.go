// Package token signs and validates the bearer tokens that accompany
// sessions. A token is a credential, not the source of truth: it must
// still match a live session row to be accepted.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims embeds the session coordinates in the signed token.
type Claims struct {
	UserId    int    `json:"userId"`
	SessionId string `json:"sessionId"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens with a symmetric key.
type Manager struct {
	secret []byte
	issuer string
}

func NewManager(secret, issuer string) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	return &Manager{secret: []byte(secret), issuer: issuer}, nil
}

// Generate signs a token for the given session, expiring together with
// the session row.
func (m *Manager) Generate(userId int, sessionId string, expiresAt time.Time) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserId:    userId,
		SessionId: sessionId,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate checks signature and expiry and returns the claims.
// Expiry and signature failures are distinguished for logging but both
// must surface to clients as a generic authentication failure.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserId <= 0 || claims.SessionId == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
