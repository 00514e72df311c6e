package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/sponge-stock-api/internal/model"
	"github.com/iliyamo/sponge-stock-api/internal/service"
	"github.com/iliyamo/sponge-stock-api/internal/utils"
)

func registerAndLogin(t *testing.T, e *env, username string) (*model.User, *service.TokenPair) {
	t.Helper()
	ctx := context.Background()
	u, err := e.auth.Register(ctx, service.RegisterInput{Username: username, Password: "secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	pair, err := e.auth.Authenticate(ctx, username, "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return u, pair
}

func TestRegisterValidationAndConflicts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.auth.Register(ctx, service.RegisterInput{Username: "john", Email: str("john@example.com"), Password: "secret123"})
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != model.RoleOperator || !u.IsActive || u.PasswordHash == "secret123" {
		t.Fatalf("unexpected user %+v", u)
	}

	cases := []struct {
		name string
		in   service.RegisterInput
	}{
		{"short username", service.RegisterInput{Username: "jo", Password: "secret123"}},
		{"short password", service.RegisterInput{Username: "jane", Password: "12345"}},
		{"long password", service.RegisterInput{Username: "jane", Password: strings.Repeat("x", 101)}},
		{"bad email", service.RegisterInput{Username: "jane", Email: str("not-an-email"), Password: "secret123"}},
		{"bad role", service.RegisterInput{Username: "jane", Password: "secret123", Role: "root"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := e.auth.Register(ctx, tc.in); !isValidation(err) {
				t.Fatalf("want validation error, got %v", err)
			}
		})
	}

	if _, err := e.auth.Register(ctx, service.RegisterInput{Username: "john", Password: "secret123"}); !errors.Is(err, service.ErrConflict) {
		t.Fatalf("duplicate username: want ErrConflict, got %v", err)
	}
	if _, err := e.auth.Register(ctx, service.RegisterInput{Username: "johnny", Email: str("john@example.com"), Password: "secret123"}); !errors.Is(err, service.ErrConflict) {
		t.Fatalf("duplicate email: want ErrConflict, got %v", err)
	}
}

func TestAuthenticateFailuresAreUniform(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u, _ := registerAndLogin(t, e, "john")

	if _, err := e.auth.Authenticate(ctx, "john", "wrong-pass"); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("bad password: %v", err)
	}
	if _, err := e.auth.Authenticate(ctx, "nobody", "secret123"); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("unknown user: %v", err)
	}
	if _, err := e.auth.SetActive(ctx, u.ID, false); err != nil {
		t.Fatal(err)
	}
	if _, err := e.auth.Authenticate(ctx, "john", "secret123"); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("inactive user: %v", err)
	}
}

func TestAuthorizeAccessToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u, pair := registerAndLogin(t, e, "john")

	if pair.TokenType != "bearer" || pair.ExpiresIn != 900 {
		t.Fatalf("unexpected pair %+v", pair)
	}
	got, err := e.auth.Authorize(ctx, pair.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID || got.LastLogin == nil {
		t.Fatalf("authorized %+v", got)
	}
	if _, err := e.auth.Authorize(ctx, pair.RefreshToken); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("refresh token used as access: %v", err)
	}
	if _, err := e.auth.Authorize(ctx, "garbage"); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("garbage token: %v", err)
	}

	// tokens minted for an unknown role are refused even with a valid signature
	forged, err := e.signer.Mint("john", "superuser", utils.TokenAccess, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.auth.Authorize(ctx, forged.Token); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("unknown role: %v", err)
	}
}

func TestRefreshRotatesAndRejectsReplay(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, pair := registerAndLogin(t, e, "john")

	next, err := e.auth.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}
	if _, err := e.auth.Refresh(ctx, pair.RefreshToken); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("replay: want ErrUnauthorized, got %v", err)
	}
	if _, err := e.auth.Refresh(ctx, next.AccessToken); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("access token as refresh: want ErrUnauthorized, got %v", err)
	}
	if _, err := e.auth.Refresh(ctx, next.RefreshToken); err != nil {
		t.Fatalf("rotated token must work once: %v", err)
	}
}

func TestConcurrentRefreshHasOneWinner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, pair := registerAndLogin(t, e, "john")

	const callers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.auth.Refresh(ctx, pair.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case !errors.Is(err, service.ErrUnauthorized):
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("winners = %d, want 1", wins)
	}
}

func TestLogoutAndDeactivateRevokeRefreshTokens(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u, pair := registerAndLogin(t, e, "john")

	if err := e.auth.Logout(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.auth.Refresh(ctx, pair.RefreshToken); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("after logout: %v", err)
	}

	pair, err := e.auth.Authenticate(ctx, "john", "secret123")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.auth.SetActive(ctx, u.ID, false); err != nil {
		t.Fatal(err)
	}
	if _, err := e.auth.Refresh(ctx, pair.RefreshToken); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("after deactivate: %v", err)
	}
	if _, err := e.auth.Authorize(ctx, pair.AccessToken); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("access token of inactive user: %v", err)
	}

	back, err := e.auth.SetActive(ctx, u.ID, true)
	if err != nil || !back.IsActive {
		t.Fatalf("reactivate: %+v, %v", back, err)
	}
	if _, err := e.auth.SetActive(ctx, 999, true); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("unknown user: %v", err)
	}
}
