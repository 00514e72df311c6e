package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/sponge-stock-api/internal/balance"
	"github.com/iliyamo/sponge-stock-api/internal/model"
	"github.com/iliyamo/sponge-stock-api/internal/queue"
	"github.com/iliyamo/sponge-stock-api/internal/repository"
)

// MovementPublisher receives committed ledger movements.  It may be nil.
type MovementPublisher interface {
	PublishMovement(ctx context.Context, ev queue.StockMovementRecorded) error
}

// MovementInput is the body of POST /stocks.
type MovementInput struct {
	SpongeID uint64   `json:"sponge_id"`
	Quantity float64  `json:"quantity"`
	Type     string   `json:"type"`
	Price    *float64 `json:"price"`
	Note     *string  `json:"note"`

	CreatedBy *uint64 `json:"-"`
}

// StockStatus is the balance of one sponge against its threshold.
type StockStatus struct {
	SpongeID      uint64  `json:"sponge_id"`
	Total         float64 `json:"total"`
	Critical      bool    `json:"critical"`
	CriticalStock float64 `json:"critical_stock"`
}

// StockSummaryItem is one row of GET /stocks/summary.
type StockSummaryItem struct {
	SpongeID      uint64  `json:"sponge_id"`
	Name          string  `json:"name"`
	TotalIn       float64 `json:"total_in"`
	TotalOut      float64 `json:"total_out"`
	TotalReturn   float64 `json:"total_return"`
	CurrentStock  float64 `json:"current_stock"`
	CriticalStock float64 `json:"critical_stock"`
	Critical      bool    `json:"critical"`
}

// StockService is the balance engine.  RecordMovement and DeleteMovement
// both refuse writes that would take a sponge's balance below zero.
type StockService struct {
	sponges *repository.SpongeRepo
	stocks  *repository.StockRepo
	reports *repository.ReportRepo
	events  MovementPublisher
	log     *slog.Logger
}

func NewStockService(sponges *repository.SpongeRepo, stocks *repository.StockRepo, reports *repository.ReportRepo, events MovementPublisher, logger *slog.Logger) *StockService {
	return &StockService{sponges: sponges, stocks: stocks, reports: reports, events: events, log: logger}
}

// RecordMovement appends a ledger entry.  The sponge row is locked for the
// length of the transaction so two withdrawals against the same sponge
// cannot both see the same balance.
func (s *StockService) RecordMovement(ctx context.Context, in MovementInput) (*model.StockEntry, error) {
	typ, err := model.ParseMovementType(in.Type)
	if err != nil {
		return nil, &ValidationError{Field: "type", Reason: err.Error()}
	}
	if err := checkAmount("quantity", in.Quantity, repository.QuantityScale, repository.MaxQuantity); err != nil {
		return nil, err
	}
	if in.Price != nil {
		if err := checkAmount("price", *in.Price, repository.PriceScale, repository.MaxPrice); err != nil {
			return nil, err
		}
	}
	if in.Note != nil && utf8.RuneCountInString(*in.Note) > model.MaxNoteLen {
		return nil, invalid("note", "must be at most %d characters", model.MaxNoteLen)
	}

	tx, err := s.sponges.DB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	sp, err := s.sponges.LockTx(ctx, tx, in.SpongeID)
	if err != nil {
		if errors.Is(err, repository.ErrSpongeNotFound) {
			return nil, notFound("sponge")
		}
		return nil, err
	}
	tally, err := s.stocks.TotalsBySpongeTx(ctx, tx, sp.ID)
	if err != nil {
		return nil, err
	}
	if typ == model.MovementOut && !balance.Covers(tally.Balance(), in.Quantity) {
		return nil, fmt.Errorf("%w: available %s, requested %s",
			ErrInsufficientStock, tally.Balance().String(), decimal.NewFromFloat(in.Quantity).String())
	}

	entry := &model.StockEntry{
		SpongeID:  sp.ID,
		Quantity:  in.Quantity,
		Type:      typ,
		Price:     in.Price,
		Note:      in.Note,
		CreatedBy: in.CreatedBy,
	}
	if err := s.stocks.AppendTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	tally.Add(typ, in.Quantity)
	after := tally.Balance()
	s.log.Info("stock movement recorded",
		"entry_id", entry.ID, "sponge_id", sp.ID, "type", typ, "quantity", in.Quantity, "balance", after.String())

	if s.events != nil {
		ev := queue.StockMovementRecorded{
			EntryID:    entry.ID,
			SpongeID:   sp.ID,
			SpongeName: sp.Name,
			Type:       string(typ),
			Quantity:   in.Quantity,
			Balance:    balance.Float(after),
			Critical:   balance.IsCritical(after, sp.CriticalStock),
			CreatedBy:  in.CreatedBy,
			RecordedAt: entry.CreatedAt.UTC().Format(time.RFC3339),
		}
		// the entry is committed; a broker outage must not fail the request
		go func() {
			pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.events.PublishMovement(pctx, ev); err != nil {
				s.log.Warn("publish stock movement", "entry_id", ev.EntryID, "err", err)
			}
		}()
	}
	return entry, nil
}

// ComputeBalance is in + return - out over the sponge's ledger.
func (s *StockService) ComputeBalance(ctx context.Context, spongeID uint64) (decimal.Decimal, error) {
	if _, err := s.sponge(ctx, spongeID); err != nil {
		return decimal.Zero, err
	}
	tally, err := s.stocks.TotalsBySponge(ctx, spongeID)
	if err != nil {
		return decimal.Zero, err
	}
	return tally.Balance(), nil
}

// Status reports the balance and whether it is at or below the sponge's
// critical threshold.
func (s *StockService) Status(ctx context.Context, spongeID uint64) (*StockStatus, error) {
	sp, err := s.sponge(ctx, spongeID)
	if err != nil {
		return nil, err
	}
	tally, err := s.stocks.TotalsBySponge(ctx, spongeID)
	if err != nil {
		return nil, err
	}
	b := tally.Balance()
	return &StockStatus{
		SpongeID:      sp.ID,
		Total:         balance.Float(b),
		Critical:      balance.IsCritical(b, sp.CriticalStock),
		CriticalStock: sp.CriticalStock,
	}, nil
}

// DeleteMovement removes one ledger entry and returns it.  Removing an
// inbound entry is refused with ErrInsufficientStock when the remaining
// ledger would no longer cover what has already gone out.
func (s *StockService) DeleteMovement(ctx context.Context, id uint64) (*model.StockEntry, error) {
	tx, err := s.sponges.DB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	e, err := s.stocks.GetByIDTx(ctx, tx, id)
	if errors.Is(err, repository.ErrStockNotFound) {
		return nil, notFound("stock entry")
	}
	if err != nil {
		return nil, err
	}
	if e.Type.Inbound() {
		if _, err := s.sponges.LockTx(ctx, tx, e.SpongeID); err != nil {
			return nil, err
		}
		tally, err := s.stocks.TotalsBySpongeTx(ctx, tx, e.SpongeID)
		if err != nil {
			return nil, err
		}
		if !balance.Covers(tally.Balance(), e.Quantity) {
			return nil, fmt.Errorf("%w: available %s, entry adds %s",
				ErrInsufficientStock, tally.Balance().String(), decimal.NewFromFloat(e.Quantity).String())
		}
	}
	if err := s.stocks.DeleteTx(ctx, tx, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	s.log.Info("stock movement deleted", "entry_id", e.ID, "sponge_id", e.SpongeID)
	return e, nil
}

func (s *StockService) Get(ctx context.Context, id uint64) (*model.StockEntry, error) {
	e, err := s.stocks.GetByID(ctx, id)
	if errors.Is(err, repository.ErrStockNotFound) {
		return nil, notFound("stock entry")
	}
	return e, err
}

func (s *StockService) List(ctx context.Context) ([]model.StockEntry, error) {
	return s.stocks.ListAll(ctx)
}

// History lists a sponge's entries oldest first.
func (s *StockService) History(ctx context.Context, spongeID uint64) ([]model.StockEntry, error) {
	if _, err := s.sponge(ctx, spongeID); err != nil {
		return nil, err
	}
	return s.stocks.ListBySponge(ctx, spongeID)
}

// ByDateRange lists entries whose date falls in [start, end].  See
// ParseDateRange for the accepted formats.
func (s *StockService) ByDateRange(ctx context.Context, start, end string) ([]model.StockEntry, error) {
	from, to, err := ParseDateRange(start, end)
	if err != nil {
		return nil, err
	}
	return s.stocks.ListByDateRange(ctx, from, to)
}

// Summary returns per-sponge totals for every sponge, including those with
// no entries.
func (s *StockService) Summary(ctx context.Context) ([]StockSummaryItem, error) {
	rows, err := s.reports.Balances(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]StockSummaryItem, 0, len(rows))
	for _, r := range rows {
		b := r.Tally.Balance()
		out = append(out, StockSummaryItem{
			SpongeID:      r.SpongeID,
			Name:          r.Name,
			TotalIn:       balance.Float(r.Tally.In),
			TotalOut:      balance.Float(r.Tally.Out),
			TotalReturn:   balance.Float(r.Tally.Return),
			CurrentStock:  balance.Float(b),
			CriticalStock: r.CriticalStock,
			Critical:      balance.IsCritical(b, r.CriticalStock),
		})
	}
	return out, nil
}

func (s *StockService) sponge(ctx context.Context, id uint64) (*model.Sponge, error) {
	sp, err := s.sponges.GetByID(ctx, id)
	if errors.Is(err, repository.ErrSpongeNotFound) {
		return nil, notFound("sponge")
	}
	return sp, err
}

const dateOnly = "2006-01-02"

// ParseDateRange parses query bounds.  Each bound is RFC 3339 or a bare
// YYYY-MM-DD; a bare end date covers its whole day.  Both are required and
// start must not be after end.
func ParseDateRange(start, end string) (time.Time, time.Time, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date and end_date are required", ErrInvalidRange)
	}
	from, err := parseBound(start, false)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date %q", ErrInvalidRange, start)
	}
	to, err := parseBound(end, true)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date %q", ErrInvalidRange, end)
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date is after end_date", ErrInvalidRange)
	}
	return from, to, nil
}

func parseBound(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Microsecond)
	}
	return t, nil
}

// checkAmount validates a positive quantity or price against the decimals
// and integer range of its column.
func checkAmount(field string, v float64, scale int32, limit float64) error {
	if v <= 0 {
		return invalid(field, "must be greater than 0")
	}
	if v >= limit {
		return invalid(field, "must be less than %s", decimal.NewFromFloat(limit).String())
	}
	if decimal.NewFromFloat(v).Exponent() < -scale {
		return invalid(field, "must have at most %d decimal places", scale)
	}
	return nil
}
