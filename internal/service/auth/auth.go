// Package auth issues and verifies the operator tokens that guard the
// detailed health report.
package auth

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the lifetime of a token minted without an explicit TTL.
const DefaultTTL = 24 * time.Hour

// TokenService signs and verifies HS256 operator tokens.
type TokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenService creates a TokenService.
// secret must be at least 32 bytes for HS256.
func NewTokenService(secret []byte, issuer string) (*TokenService, error) {
	if len(secret) < 32 {
		return nil, ErrWeakSecret
	}
	return &TokenService{secret: secret, issuer: issuer, now: time.Now}, nil
}

// Issue mints a token for subject valid for ttl.
func (s *TokenService) Issue(subject string, ttl time.Duration) (*Token, error) {
	if subject == "" {
		return nil, ErrEmptySubject
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := s.now()
	exp := now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        generateID(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Token{Value: signed, Subject: subject, ExpiresAt: exp}, nil
}

// Verify checks an Authorization header of the form "Bearer <token>".
func (s *TokenService) Verify(authHeader string) (*Claims, error) {
	tokenStr := extractBearerToken(authHeader)
	if tokenStr == "" {
		return nil, ErrMissingToken
	}

	var rc jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &rc, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if rc.Subject == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{Subject: rc.Subject, ID: rc.ID}
	if rc.IssuedAt != nil {
		claims.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		claims.ExpiresAt = rc.ExpiresAt.Time
	}
	return claims, nil
}

// === Private helpers ===

func extractBearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func generateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
