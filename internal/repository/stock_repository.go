package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/sponge-stock-api/internal/balance"
	"github.com/iliyamo/sponge-stock-api/internal/model"
)

const stockColumns = "id, sponge_id, quantity, type, price, note, created_by, date, created_at"

// StockRepo is the ledger store.  Entries are appended and deleted, never
// updated.  It does not check that an outbound movement is covered; the
// caller does that inside the same transaction.
type StockRepo struct {
	db *sqlx.DB
}

func NewStockRepo(db *sqlx.DB) *StockRepo {
	return &StockRepo{db: db}
}

// Append inserts e, defaulting Date to now.  Quantity must be positive.
func (r *StockRepo) Append(ctx context.Context, e *model.StockEntry) error {
	return appendStock(ctx, r.db, e)
}

// AppendTx is Append inside an existing transaction.
func (r *StockRepo) AppendTx(ctx context.Context, tx *sqlx.Tx, e *model.StockEntry) error {
	return appendStock(ctx, tx, e)
}

func appendStock(ctx context.Context, ex sqlx.ExecerContext, e *model.StockEntry) error {
	if e.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if _, err := model.ParseMovementType(string(e.Type)); err != nil {
		return ErrInvalidMovementType
	}
	ts := now()
	if e.Date.IsZero() {
		e.Date = ts
	} else {
		e.Date = dbTime(e.Date)
	}
	const q = `INSERT INTO stocks (sponge_id, quantity, type, price, note, created_by, date, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := ex.ExecContext(ctx, q, e.SpongeID, e.Quantity, e.Type, e.Price, e.Note, e.CreatedBy, e.Date, ts)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	e.CreatedAt = ts
	return nil
}

// GetByID returns ErrStockNotFound when absent.
func (r *StockRepo) GetByID(ctx context.Context, id uint64) (*model.StockEntry, error) {
	return getStock(ctx, r.db, id)
}

// GetByIDTx reads an entry inside tx.
func (r *StockRepo) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id uint64) (*model.StockEntry, error) {
	return getStock(ctx, tx, id)
}

// DeleteTx removes one entry.  It returns ErrStockNotFound when no row
// was removed.
func (r *StockRepo) DeleteTx(ctx context.Context, tx *sqlx.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM stocks WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStockNotFound
	}
	return nil
}

// DeleteBySpongeTx removes every entry of a sponge; used by the sponge
// delete cascade.
func (r *StockRepo) DeleteBySpongeTx(ctx context.Context, tx *sqlx.Tx, spongeID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM stocks WHERE sponge_id = ?", spongeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListAll returns every entry, newest first.
func (r *StockRepo) ListAll(ctx context.Context) ([]model.StockEntry, error) {
	out := []model.StockEntry{}
	err := r.db.SelectContext(ctx, &out, "SELECT "+stockColumns+" FROM stocks ORDER BY date DESC, id DESC")
	return out, err
}

// ListBySponge returns a sponge's entries in insertion order.
func (r *StockRepo) ListBySponge(ctx context.Context, spongeID uint64) ([]model.StockEntry, error) {
	out := []model.StockEntry{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT "+stockColumns+" FROM stocks WHERE sponge_id = ? ORDER BY created_at, id", spongeID)
	return out, err
}

// ListByDateRange returns entries with start <= date <= end, newest first.
func (r *StockRepo) ListByDateRange(ctx context.Context, start, end time.Time) ([]model.StockEntry, error) {
	out := []model.StockEntry{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT "+stockColumns+" FROM stocks WHERE date >= ? AND date <= ? ORDER BY date DESC, id DESC",
		dbTime(start), dbTime(end))
	return out, err
}

// TotalsBySponge sums a sponge's ledger per movement type.
func (r *StockRepo) TotalsBySponge(ctx context.Context, spongeID uint64) (balance.Tally, error) {
	return totalsBySponge(ctx, r.db, spongeID)
}

// TotalsBySpongeTx reads the totals through tx so they are consistent with
// a lock taken earlier in it.
func (r *StockRepo) TotalsBySpongeTx(ctx context.Context, tx *sqlx.Tx, spongeID uint64) (balance.Tally, error) {
	return totalsBySponge(ctx, tx, spongeID)
}

type typeTotal struct {
	Type  model.MovementType `db:"type"`
	Total decimal.Decimal    `db:"total"`
}

func totalsBySponge(ctx context.Context, q sqlx.QueryerContext, spongeID uint64) (balance.Tally, error) {
	var rows []typeTotal
	var t balance.Tally
	const query = "SELECT type, COALESCE(SUM(quantity), 0) AS total FROM stocks WHERE sponge_id = ? GROUP BY type"
	if err := sqlx.SelectContext(ctx, q, &rows, query, spongeID); err != nil {
		return t, err
	}
	for _, row := range rows {
		t.AddAmount(row.Type, row.Total.Round(QuantityScale))
	}
	return t, nil
}

func getStock(ctx context.Context, q sqlx.QueryerContext, id uint64) (*model.StockEntry, error) {
	var e model.StockEntry
	if err := sqlx.GetContext(ctx, q, &e, "SELECT "+stockColumns+" FROM stocks WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStockNotFound
		}
		return nil, err
	}
	return &e, nil
}
