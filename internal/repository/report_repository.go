package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/sponge-stock-api/internal/balance"
	"github.com/iliyamo/sponge-stock-api/internal/model"
)

// ReportRepo holds the read-only aggregate queries behind reports, the
// stock summary and the dashboard.
type ReportRepo struct {
	db *sqlx.DB
}

func NewReportRepo(db *sqlx.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// SpongeTotals is one sponge with its ledger totals.
type SpongeTotals struct {
	SpongeID      uint64
	Name          string
	CriticalStock float64
	Tally         balance.Tally
}

type spongeTypeRow struct {
	SpongeID      uint64              `db:"sponge_id"`
	Name          string              `db:"name"`
	CriticalStock float64             `db:"critical_stock"`
	Type          *model.MovementType `db:"type"`
	Total         decimal.Decimal     `db:"total"`
}

// Balances returns every sponge with its all-time totals, ordered by id.
// Sponges without entries are included with an empty tally.
func (r *ReportRepo) Balances(ctx context.Context) ([]SpongeTotals, error) {
	const q = `SELECT s.id AS sponge_id, s.name, s.critical_stock, st.type, COALESCE(SUM(st.quantity), 0) AS total
	           FROM sponges s LEFT JOIN stocks st ON st.sponge_id = s.id
	           GROUP BY s.id, s.name, s.critical_stock, st.type
	           ORDER BY s.id`
	var rows []spongeTypeRow
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return foldTotals(rows), nil
}

// WindowTotals returns per-sponge totals for entries dated within
// [from, to], both ends inclusive.  Sponges without entries in the window
// are omitted.
func (r *ReportRepo) WindowTotals(ctx context.Context, from, to time.Time) ([]SpongeTotals, error) {
	const q = `SELECT s.id AS sponge_id, s.name, s.critical_stock, st.type, COALESCE(SUM(st.quantity), 0) AS total
	           FROM stocks st JOIN sponges s ON s.id = st.sponge_id
	           WHERE st.date >= ? AND st.date <= ?
	           GROUP BY s.id, s.name, s.critical_stock, st.type
	           ORDER BY s.id`
	var rows []spongeTypeRow
	if err := r.db.SelectContext(ctx, &rows, q, dbTime(from), dbTime(to)); err != nil {
		return nil, err
	}
	return foldTotals(rows), nil
}

func foldTotals(rows []spongeTypeRow) []SpongeTotals {
	out := []SpongeTotals{}
	idx := map[uint64]int{}
	for _, row := range rows {
		i, ok := idx[row.SpongeID]
		if !ok {
			i = len(out)
			idx[row.SpongeID] = i
			out = append(out, SpongeTotals{SpongeID: row.SpongeID, Name: row.Name, CriticalStock: row.CriticalStock})
		}
		if row.Type != nil {
			out[i].Tally.AddAmount(*row.Type, row.Total.Round(QuantityScale))
		}
	}
	return out
}

// Movement is the slice of a ledger row used for time bucketing.
type Movement struct {
	Type     model.MovementType `db:"type"`
	Quantity decimal.Decimal    `db:"quantity"`
	Date     time.Time          `db:"date"`
}

// MovementsSince returns entries dated at or after since, oldest first.
func (r *ReportRepo) MovementsSince(ctx context.Context, since time.Time) ([]Movement, error) {
	out := []Movement{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT type, quantity, date FROM stocks WHERE date >= ? ORDER BY date, id", dbTime(since))
	return out, err
}

// CountSince counts entries dated at or after since.
func (r *ReportRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM stocks WHERE date >= ?", dbTime(since))
	return n, err
}

// Mover is a sponge ranked by how many movements it had.
type Mover struct {
	Name          string          `db:"name"`
	MovementCount int             `db:"movement_count"`
	TotalQuantity decimal.Decimal `db:"total_quantity"`
}

// TopMovers ranks sponges by movement count since the given time.  Ties
// are broken by name.
func (r *ReportRepo) TopMovers(ctx context.Context, since time.Time, limit int) ([]Mover, error) {
	const q = `SELECT s.name, COUNT(st.id) AS movement_count, COALESCE(SUM(st.quantity), 0) AS total_quantity
	           FROM stocks st JOIN sponges s ON s.id = st.sponge_id
	           WHERE st.date >= ?
	           GROUP BY s.id, s.name
	           ORDER BY movement_count DESC, s.name
	           LIMIT ?`
	out := []Mover{}
	err := r.db.SelectContext(ctx, &out, q, dbTime(since), limit)
	return out, err
}
