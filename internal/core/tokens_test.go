package core

import (
	"errors"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"github.com/golang-jwt/jwt/v5"
)

func TestTokenIssuer_RoundTripAndExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer("s3cret", 8*time.Hour)
	issuer.now = func() time.Time { return now }

	raw, err := issuer.Issue(model.User{ID: 5, Name: "Rosa", Email: "rosa@yuraqwasi.pe", Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := issuer.Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if claims.UserID != 5 || claims.Role != model.RoleAdmin || claims.Subject != "5" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	now = now.Add(8*time.Hour + time.Second)
	if _, err := issuer.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestTokenIssuer_RejectsOtherKeysAndAlgorithms(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("s3cret", time.Hour)
	other := NewTokenIssuer("different", time.Hour)

	raw, err := other.Issue(model.User{ID: 1, Role: model.RoleEmployee})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if _, err := issuer.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign signature to be rejected, got %v", err)
	}

	claims := Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token: %v", err)
	}
	if _, err := issuer.Parse(none); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected alg none to be rejected, got %v", err)
	}
}
