package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestNewTokenServiceRejectsShortSecret(t *testing.T) {
	if _, err := NewTokenService([]byte("short"), "api"); !errors.Is(err, ErrWeakSecret) {
		t.Fatalf("expected ErrWeakSecret got %v", err)
	}
}

func TestIssueAndVerify(t *testing.T) {
	svc, err := NewTokenService(testSecret, "Handwerksprojekt API")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	tok, err := svc.Issue("ops", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.Verify("Bearer " + tok.Value)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "ops" {
		t.Fatalf("expected subject ops got %q", claims.Subject)
	}
	if claims.ID == "" {
		t.Fatal("expected a token id")
	}
	if !claims.ExpiresAt.Equal(tok.ExpiresAt.Truncate(time.Second)) {
		t.Fatalf("expiry mismatch: %v vs %v", claims.ExpiresAt, tok.ExpiresAt)
	}

	if _, err := svc.Verify("bearer " + tok.Value); err != nil {
		t.Fatalf("scheme should be case-insensitive: %v", err)
	}
}

func TestVerifyRejects(t *testing.T) {
	svc, _ := NewTokenService(testSecret, "api")
	tok, _ := svc.Issue("ops", time.Hour)

	other, _ := NewTokenService([]byte(strings.Repeat("x", 32)), "api")
	foreign, _ := other.Issue("ops", time.Hour)

	otherIssuer, _ := NewTokenService(testSecret, "someone-else")
	wrongIss, _ := otherIssuer.Issue("ops", time.Hour)

	expired, _ := NewTokenService(testSecret, "api")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.Issue("ops", time.Hour)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "ops",
		Issuer:    "api",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"empty", "", ErrMissingToken},
		{"no scheme", tok.Value, ErrMissingToken},
		{"basic", "Basic b3BzOm9wcw==", ErrMissingToken},
		{"garbage", "Bearer not-a-jwt", ErrInvalidToken},
		{"foreign secret", "Bearer " + foreign.Value, ErrInvalidToken},
		{"wrong issuer", "Bearer " + wrongIss.Value, ErrInvalidToken},
		{"expired", "Bearer " + old.Value, ErrInvalidToken},
		{"alg none", "Bearer " + unsigned, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Verify(tt.header); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v got %v", tt.want, err)
			}
		})
	}
}

func TestIssueRequiresSubject(t *testing.T) {
	svc, _ := NewTokenService(testSecret, "api")
	if _, err := svc.Issue("", time.Hour); !errors.Is(err, ErrEmptySubject) {
		t.Fatalf("expected ErrEmptySubject got %v", err)
	}
	tok, err := svc.Issue("ops", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if d := time.Until(tok.ExpiresAt); d < DefaultTTL-time.Minute || d > DefaultTTL {
		t.Fatalf("expected default ttl, got %v", d)
	}
}
