package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/sponge-stock-api/internal/model"
)

const spongeColumns = "id, name, density, hardness, width, height, thickness, unit, critical_stock, created_at, updated_at"

// SpongeRepo encapsulates all database queries related to sponges.
type SpongeRepo struct {
	db *sqlx.DB
}

func NewSpongeRepo(db *sqlx.DB) *SpongeRepo {
	return &SpongeRepo{db: db}
}

// DB exposes the pool so services can open transactions spanning repos.
func (r *SpongeRepo) DB() *sqlx.DB { return r.db }

// Create inserts s and fills its ID and timestamps.  A unique index
// violation (name or variant) is reported as ErrDuplicate.
func (r *SpongeRepo) Create(ctx context.Context, s *model.Sponge) error {
	ts := now()
	const q = `INSERT INTO sponges (name, density, hardness, width, height, thickness, unit, critical_stock, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.Name, s.Density, s.Hardness, s.Width, s.Height, s.Thickness,
		s.Unit, s.CriticalStock, ts, ts)
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
	s.ID = uint64(id)
	s.CreatedAt, s.UpdatedAt = ts, ts
	return nil
}

// GetByID returns ErrSpongeNotFound when no row matches.
func (r *SpongeRepo) GetByID(ctx context.Context, id uint64) (*model.Sponge, error) {
	return getSponge(ctx, r.db, "SELECT "+spongeColumns+" FROM sponges WHERE id = ?", id)
}

// GetByName matches the name exactly, case included.
func (r *SpongeRepo) GetByName(ctx context.Context, name string) (*model.Sponge, error) {
	return getSponge(ctx, r.db, "SELECT "+spongeColumns+" FROM sponges WHERE name = ?", name)
}

// FindVariant looks up the sponge holding a (density, hardness, thickness)
// triple.  A nil thickness matches rows without a thickness.
func (r *SpongeRepo) FindVariant(ctx context.Context, density float64, hardness model.Hardness, thickness *float64) (*model.Sponge, error) {
	const q = "SELECT " + spongeColumns + ` FROM sponges
	           WHERE density = ? AND hardness = ? AND (thickness = ? OR (thickness IS NULL AND ? IS NULL))
	           ORDER BY id LIMIT 1`
	return getSponge(ctx, r.db, q, density, hardness, thickness, thickness)
}

// ListAll returns every sponge ordered by id.
func (r *SpongeRepo) ListAll(ctx context.Context) ([]model.Sponge, error) {
	out := []model.Sponge{}
	if err := r.db.SelectContext(ctx, &out, "SELECT "+spongeColumns+" FROM sponges ORDER BY id"); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes every mutable column of s and refreshes UpdatedAt.
func (r *SpongeRepo) Update(ctx context.Context, s *model.Sponge) error {
	ts := now()
	const q = `UPDATE sponges SET name = ?, density = ?, hardness = ?, width = ?, height = ?, thickness = ?,
	           unit = ?, critical_stock = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, s.Name, s.Density, s.Hardness, s.Width, s.Height, s.Thickness,
		s.Unit, s.CriticalStock, ts, s.ID); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	s.UpdatedAt = ts
	return nil
}

// LockTx takes a write lock on the sponge row for the rest of tx and returns
// it.  The no-op UPDATE is the portable spelling of SELECT ... FOR UPDATE.
func (r *SpongeRepo) LockTx(ctx context.Context, tx *sqlx.Tx, id uint64) (*model.Sponge, error) {
	if _, err := tx.ExecContext(ctx, "UPDATE sponges SET updated_at = updated_at WHERE id = ?", id); err != nil {
		return nil, err
	}
	return getSponge(ctx, tx, "SELECT "+spongeColumns+" FROM sponges WHERE id = ?", id)
}

// DeleteTx removes the sponge row.  Ledger rows must be removed first.
func (r *SpongeRepo) DeleteTx(ctx context.Context, tx *sqlx.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM sponges WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSpongeNotFound
	}
	return nil
}

// Count returns the number of sponges.
func (r *SpongeRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM sponges")
	return n, err
}

func getSponge(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (*model.Sponge, error) {
	var s model.Sponge
	if err := sqlx.GetContext(ctx, q, &s, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSpongeNotFound
		}
		return nil, err
	}
	return &s, nil
}
