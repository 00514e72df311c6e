package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/sponge-stock-api/internal/model"
)

// TokenRepo persists refresh token records keyed by jti.  No statement in
// this file ever sets revoked back to 0.
type TokenRepo struct{ db *sqlx.DB }

func NewTokenRepo(db *sqlx.DB) *TokenRepo { return &TokenRepo{db: db} }

// DB exposes the pool for the rotation transaction.
func (r *TokenRepo) DB() *sqlx.DB { return r.db }

// Store inserts an unrevoked record.
func (r *TokenRepo) Store(ctx context.Context, jti string, userID uint64, exp time.Time) error {
	return storeToken(ctx, r.db, jti, userID, exp)
}

// StoreTx is Store inside tx.
func (r *TokenRepo) StoreTx(ctx context.Context, tx *sqlx.Tx, jti string, userID uint64, exp time.Time) error {
	return storeToken(ctx, tx, jti, userID, exp)
}

func storeToken(ctx context.Context, ex sqlx.ExecerContext, jti string, userID uint64, exp time.Time) error {
	_, err := ex.ExecContext(ctx,
		"INSERT INTO refresh_tokens (jti, user_id, expires_at, revoked, created_at) VALUES (?, ?, ?, 0, ?)",
		jti, userID, dbTime(exp), now())
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

// GetByJTI returns ErrTokenNotFound when no record exists.
func (r *TokenRepo) GetByJTI(ctx context.Context, jti string) (*model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.db.GetContext(ctx, &t,
		"SELECT id, jti, user_id, expires_at, revoked, created_at FROM refresh_tokens WHERE jti = ? LIMIT 1", jti)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Revoke marks the record revoked if it is still active.  It reports
// whether this call did the revoking; of several concurrent callers at most
// one sees true.
func (r *TokenRepo) Revoke(ctx context.Context, jti string) (bool, error) {
	return revokeToken(ctx, r.db, jti)
}

// RevokeTx is Revoke inside tx.
func (r *TokenRepo) RevokeTx(ctx context.Context, tx *sqlx.Tx, jti string) (bool, error) {
	return revokeToken(ctx, tx, jti)
}

func revokeToken(ctx context.Context, ex sqlx.ExecerContext, jti string) (bool, error) {
	res, err := ex.ExecContext(ctx, "UPDATE refresh_tokens SET revoked = 1 WHERE jti = ? AND revoked = 0", jti)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RevokeAllForUser revokes all user's active tokens and returns how many.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked = 1 WHERE user_id = ? AND revoked = 0", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
