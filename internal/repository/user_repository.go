package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/sponge-stock-api/internal/model"
)

const userColumns = "id, username, email, password_hash, role, is_active, last_login, created_at, updated_at"

type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts u (already hashed) and fills ID and timestamps.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	ts := now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, role, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.Role, boolInt(u.IsActive), ts, ts)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.CreatedAt, u.UpdatedAt = ts, ts
	return nil
}

// GetByUsername is an exact match lookup.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.get(ctx, "SELECT "+userColumns+" FROM users WHERE username = ? LIMIT 1", username)
}

// GetByEmail is an exact match lookup.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.get(ctx, "SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.get(ctx, "SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id)
}

// TouchLastLogin records a successful authentication.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id uint64) error {
	ts := now()
	_, err := r.db.ExecContext(ctx, "UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?", ts, ts, id)
	return err
}

// SetActive flips is_active.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?",
		boolInt(active), now(), id)
	return err
}

func (r *UserRepo) get(ctx context.Context, q string, arg any) (*model.User, error) {
	var u model.User
	if err := r.db.GetContext(ctx, &u, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
