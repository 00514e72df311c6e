package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newTestSigner(t *testing.T, alg string) *Signer {
	t.Helper()
	s, err := NewSigner("test-secret", alg, "sponge-stock-api")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestMintAndParseRoundTrip(t *testing.T) {
	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		s := newTestSigner(t, alg)
		tok, err := s.Mint("john", "operator", TokenAccess, 30*time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		claims, err := s.Parse(tok.Token, TokenAccess)
		if err != nil {
			t.Fatalf("%s: %v", alg, err)
		}
		if claims.Subject != "john" || claims.Role != "operator" || claims.ID != tok.JTI || claims.Issuer != "sponge-stock-api" {
			t.Fatalf("%s: claims = %+v", alg, claims)
		}
	}
}

func TestParseRejectsWrongType(t *testing.T) {
	s := newTestSigner(t, "HS256")
	tok, _ := s.Mint("john", "operator", TokenRefresh, time.Hour)
	if _, err := s.Parse(tok.Token, TokenAccess); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("want ErrWrongTokenType, got %v", err)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	s := newTestSigner(t, "HS256")
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return issued }
	tok, _ := s.Mint("john", "operator", TokenAccess, time.Minute)
	s.Now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := s.Parse(tok.Token, TokenAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsOtherSecretAlgorithmAndIssuer(t *testing.T) {
	s := newTestSigner(t, "HS256")
	tok, _ := s.Mint("john", "operator", TokenAccess, time.Hour)

	other, _ := NewSigner("another-secret", "HS256", "sponge-stock-api")
	if _, err := other.Parse(tok.Token, TokenAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("other secret: %v", err)
	}
	stronger, _ := NewSigner("test-secret", "HS512", "sponge-stock-api")
	if _, err := stronger.Parse(tok.Token, TokenAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("other algorithm: %v", err)
	}
	foreign, _ := NewSigner("test-secret", "HS256", "someone-else")
	if _, err := foreign.Parse(tok.Token, TokenAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("other issuer: %v", err)
	}
	if _, err := s.Parse("not.a.token", TokenAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage: %v", err)
	}
}

func TestMintUsesFreshJTI(t *testing.T) {
	s := newTestSigner(t, "HS256")
	a, _ := s.Mint("john", "operator", TokenRefresh, time.Hour)
	b, _ := s.Mint("john", "operator", TokenRefresh, time.Hour)
	if a.JTI == b.JTI || a.Token == b.Token {
		t.Fatal("two mints produced the same token")
	}
}

func TestNewSignerRejectsUnknownAlgorithm(t *testing.T) {
	if _, err := NewSigner("x", "RS256", "iss"); err == nil {
		t.Fatal("expected error")
	}
}

func TestTruncatePassword(t *testing.T) {
	long := strings.Repeat("a", 100)
	if got := TruncatePassword(long); len(got) != 72 {
		t.Fatalf("len = %d, want 72", len(got))
	}
	multi := strings.Repeat("ş", 50) // 2 bytes each
	if got := TruncatePassword(multi); len(got) != 72 || got != strings.Repeat("ş", 36) {
		t.Fatalf("multibyte truncation = %d bytes", len(got))
	}
	if TruncatePassword("secret") != "secret" {
		t.Fatal("short password changed")
	}
}

func TestPasswordBeyond72CharsVerifiesByPrefix(t *testing.T) {
	base := strings.Repeat("p", 72)
	hash, err := HashPassword(base+"tail-one", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword(hash, base+"tail-two") {
		t.Fatal("characters past 72 must not matter")
	}
	if VerifyPassword(hash, strings.Repeat("q", 72)) {
		t.Fatal("wrong password verified")
	}
}
