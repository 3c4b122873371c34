package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTService_IssueVerify(t *testing.T) {
	svc := NewJWTService("secret", 0)

	for _, uid := range []string{"u1", "4b1f3c1e-0000-4000-8000-000000000001", "user with spaces"} {
		token, err := svc.Issue(uid)
		if err != nil {
			t.Fatalf("issue %q: %v", uid, err)
		}
		claims, ok := svc.Verify(token)
		if !ok {
			t.Fatalf("expected token for %q to verify", uid)
		}
		if claims.UserID() != uid {
			t.Fatalf("subject = %q, want %q", claims.UserID(), uid)
		}
	}
}

func TestJWTService_DefaultTTLIs24Hours(t *testing.T) {
	svc := NewJWTService("secret", 0)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	token, err := svc.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !claims.ExpiresAt.Time.Equal(fixed.Add(24 * time.Hour)) {
		t.Fatalf("unexpected exp %v", claims.ExpiresAt.Time)
	}
	if !claims.IssuedAt.Time.Equal(fixed) {
		t.Fatalf("unexpected iat %v", claims.IssuedAt.Time)
	}
}

func TestJWTService_ExpiredToken(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	if _, ok := svc.Verify(token); ok {
		t.Fatalf("expected expired token to be rejected")
	}
	if _, err := svc.Parse(token); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired, got %v", err)
	}
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService("secret-a", 0)
	verifier := NewJWTService("secret-b", 0)

	token, err := issuer.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Parse(token); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid, got %v", err)
	}
}

func TestJWTService_RejectsMalformed(t *testing.T) {
	svc := NewJWTService("secret", 0)
	for _, tok := range []string{"", "   ", "not.a.jwt", "abc"} {
		if _, ok := svc.Verify(tok); ok {
			t.Fatalf("expected %q to be rejected", tok)
		}
	}
}

func TestJWTService_RejectsEmptySecret(t *testing.T) {
	svc := NewJWTService("", 0)
	if _, err := svc.Issue("u1"); !errors.Is(err, ErrJWTMissingSecret) {
		t.Fatalf("expected ErrJWTMissingSecret, got %v", err)
	}
}

func TestJWTService_RejectsWrongIssuer(t *testing.T) {
	svc := NewJWTService("secret", 0)
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "other-issuer",
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := svc.Parse(signed); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for wrong issuer, got %v", err)
	}
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	svc := NewJWTService("secret", 0)
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, ok := svc.Verify(unsigned); ok {
		t.Fatalf("expected alg=none token to be rejected")
	}
}
