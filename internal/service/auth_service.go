package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/sponge-stock-api/internal/model"
	"github.com/iliyamo/sponge-stock-api/internal/repository"
	"github.com/iliyamo/sponge-stock-api/internal/utils"
)

// AuthConfig carries token lifetimes and the bcrypt cost.
type AuthConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// RegisterInput is the body of POST /users/register.
type RegisterInput struct {
	Username string  `json:"username"`
	Email    *string `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// AuthService issues, rotates and verifies tokens.  Refresh tokens are
// tracked by jti in refresh_tokens; each one can be exchanged once.
type AuthService struct {
	users  *repository.UserRepo
	tokens *repository.TokenRepo
	signer *utils.Signer
	cfg    AuthConfig
	log    *slog.Logger
}

func NewAuthService(users *repository.UserRepo, tokens *repository.TokenRepo, signer *utils.Signer, cfg AuthConfig, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, signer: signer, cfg: cfg, log: logger}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	if n := utf8.RuneCountInString(username); n < 3 || n > 50 {
		return nil, invalid("username", "must be 3 to 50 characters")
	}
	if n := utf8.RuneCountInString(in.Password); n < 6 || n > 100 {
		return nil, invalid("password", "must be 6 to 100 characters")
	}
	var email *string
	if in.Email != nil && strings.TrimSpace(*in.Email) != "" {
		e := strings.TrimSpace(*in.Email)
		addr, err := mail.ParseAddress(e)
		if err != nil || addr.Address != e {
			return nil, invalid("email", "is not a valid address")
		}
		email = &e
	}
	role := model.RoleOperator
	if in.Role != "" {
		r, err := model.ParseRole(in.Role)
		if err != nil {
			return nil, &ValidationError{Field: "role", Reason: err.Error()}
		}
		role = r
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, conflict("username already registered")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}
	if email != nil {
		if _, err := s.users.GetByEmail(ctx, *email); err == nil {
			return nil, conflict("email already registered")
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{Username: username, Email: email, PasswordHash: hash, Role: role, IsActive: true}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("username or email already registered")
		}
		return nil, err
	}
	s.log.Info("user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// Authenticate checks credentials and issues a fresh token pair.  Every
// failure is ErrUnauthorized so callers cannot tell which check failed.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*TokenPair, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, unauthorized("unknown user")
		}
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		s.log.Debug("login rejected", "user_id", u.ID, "reason", "password")
		return nil, unauthorized("bad password")
	}
	if !u.IsActive {
		s.log.Debug("login rejected", "user_id", u.ID, "reason", "inactive")
		return nil, unauthorized("inactive user")
	}
	if err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		return nil, err
	}
	pair, refresh, err := s.mintPair(u)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Store(ctx, refresh.JTI, u.ID, refresh.Exp); err != nil {
		return nil, err
	}
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair.  The old record is
// revoked and the new one stored in the same transaction; of two
// concurrent calls with the same token exactly one succeeds.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*TokenPair, error) {
	claims, err := s.signer.Parse(raw, utils.TokenRefresh)
	if err != nil {
		return nil, unauthorized(err.Error())
	}
	rec, err := s.tokens.GetByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, unauthorized("unknown refresh token")
		}
		return nil, err
	}
	if rec.Revoked {
		s.log.Warn("revoked refresh token presented", "user_id", rec.UserID)
		return nil, unauthorized("refresh token revoked")
	}
	if !s.signer.Now().Before(rec.ExpiresAt) {
		if _, err := s.tokens.Revoke(ctx, rec.JTI); err != nil {
			return nil, err
		}
		return nil, unauthorized("refresh token expired")
	}
	u, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, unauthorized("unknown user")
		}
		return nil, err
	}
	if u.ID != rec.UserID || !u.IsActive {
		return nil, unauthorized("user mismatch or inactive")
	}

	pair, refresh, err := s.mintPair(u)
	if err != nil {
		return nil, err
	}

	tx, err := s.tokens.DB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	won, err := s.tokens.RevokeTx(ctx, tx, rec.JTI)
	if err != nil {
		return nil, err
	}
	if !won {
		s.log.Warn("refresh token reused concurrently", "user_id", u.ID)
		return nil, unauthorized("refresh token already used")
	}
	if err := s.tokens.StoreTx(ctx, tx, refresh.JTI, u.ID, refresh.Exp); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return pair, nil
}

// Logout revokes every outstanding refresh token of the user.
func (s *AuthService) Logout(ctx context.Context, userID uint64) error {
	n, err := s.tokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		return err
	}
	s.log.Info("user logged out", "user_id", userID, "revoked", n)
	return nil
}

// Authorize resolves an access token to an active user.
func (s *AuthService) Authorize(ctx context.Context, raw string) (*model.User, error) {
	claims, err := s.signer.Parse(raw, utils.TokenAccess)
	if err != nil {
		return nil, unauthorized(err.Error())
	}
	if _, err := model.ParseRole(claims.Role); err != nil {
		return nil, unauthorized(err.Error())
	}
	u, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, unauthorized("unknown user")
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, unauthorized("inactive user")
	}
	return u, nil
}

// SetActive toggles a user.  Deactivation also revokes the user's refresh
// tokens; outstanding access tokens stop working at the next Authorize.
func (s *AuthService) SetActive(ctx context.Context, userID uint64, active bool) (*model.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, notFound("user")
		}
		return nil, err
	}
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		return nil, err
	}
	if !active {
		if _, err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
			return nil, err
		}
	}
	s.log.Info("user active flag changed", "user_id", userID, "active", active)
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) mintPair(u *model.User) (*TokenPair, utils.IssuedToken, error) {
	access, err := s.signer.Mint(u.Username, string(u.Role), utils.TokenAccess, s.cfg.AccessTTL)
	if err != nil {
		return nil, utils.IssuedToken{}, err
	}
	refresh, err := s.signer.Mint(u.Username, string(u.Role), utils.TokenRefresh, s.cfg.RefreshTTL)
	if err != nil {
		return nil, utils.IssuedToken{}, err
	}
	return &TokenPair{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		TokenType:    "bearer",
		ExpiresIn:    int(s.cfg.AccessTTL / time.Second),
	}, refresh, nil
}
