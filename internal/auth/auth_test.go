package auth

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, err := m.Issue(7, "a@b.c", "Ann", "admin")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != 7 || claims.Email != "a@b.c" || claims.Role != "admin" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestTokenRejected(t *testing.T) {
	issued := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	m := NewTokenManager("secret", time.Hour)
	m.now = func() time.Time { return issued }
	token, err := m.Issue(1, "a@b.c", "Ann", "member")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name    string
		manager *TokenManager
		token   string
		want    error
	}{
		{
			name:    "expired",
			manager: &TokenManager{secret: []byte("secret"), ttl: time.Hour, now: func() time.Time { return issued.Add(2 * time.Hour) }},
			token:   token,
			want:    ErrTokenExpired,
		},
		{
			name:    "wrong secret",
			manager: &TokenManager{secret: []byte("other"), ttl: time.Hour, now: func() time.Time { return issued }},
			token:   token,
			want:    ErrTokenInvalid,
		},
		{
			name:    "garbage",
			manager: m,
			token:   "not-a-token",
			want:    ErrTokenInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.manager.Parse(tt.token)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v; want %v", err, tt.want)
			}
		})
	}
}

func TestPassword(t *testing.T) {
	HashCost = bcrypt.MinCost
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword("correct horse", hash) {
		t.Error("expected password to verify")
	}
	if VerifyPassword("wrong horse", hash) {
		t.Error("expected wrong password to fail")
	}
	if ValidPassword("short") {
		t.Error("short password accepted")
	}
	if !ValidPassword("longenough") {
		t.Error("8+ char password rejected")
	}
}
