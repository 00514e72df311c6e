package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/sponge-stock-api/internal/balance"
	"github.com/iliyamo/sponge-stock-api/internal/repository"
)

type DashboardStats struct {
	TotalProducts      int     `json:"total_products"`
	TotalStock         float64 `json:"total_stock"`
	CriticalStockCount int     `json:"critical_stock_count"`
	RecentMovements    int     `json:"recent_movements_24h"`
}

// DayTrend is one UTC day of movement totals.
type DayTrend struct {
	Date     string  `json:"date"`
	TotalIn  float64 `json:"total_in"`
	TotalOut float64 `json:"total_out"`
	Net      float64 `json:"net"`
}

type TopMover struct {
	Name          string  `json:"name"`
	MovementCount int     `json:"movement_count"`
	TotalQuantity float64 `json:"total_quantity"`
}

const (
	DefaultTopMovers = 5
	MaxTopMovers     = 50
)

type DashboardService struct {
	sponges *repository.SpongeRepo
	reports *repository.ReportRepo

	Now func() time.Time
}

func NewDashboardService(sponges *repository.SpongeRepo, reports *repository.ReportRepo) *DashboardService {
	return &DashboardService{sponges: sponges, reports: reports, Now: time.Now}
}

func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	n, err := s.sponges.Count(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.reports.Balances(ctx)
	if err != nil {
		return nil, err
	}
	var total decimal.Decimal
	critical := 0
	for _, r := range rows {
		b := r.Tally.Balance()
		total = total.Add(b)
		if balance.IsCritical(b, r.CriticalStock) {
			critical++
		}
	}
	recent, err := s.reports.CountSince(ctx, s.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		TotalProducts:      n,
		TotalStock:         balance.Float(total),
		CriticalStockCount: critical,
		RecentMovements:    recent,
	}, nil
}

// WeeklyTrend buckets the last seven days of movements per UTC day.  Days
// without movements are omitted.
func (s *DashboardService) WeeklyTrend(ctx context.Context) ([]DayTrend, error) {
	moves, err := s.reports.MovementsSince(ctx, s.Now().UTC().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	out := []DayTrend{}
	var cur balance.Tally
	day := ""
	flush := func() {
		if day != "" {
			out = append(out, DayTrend{
				Date:     day,
				TotalIn:  balance.Float(cur.Inbound()),
				TotalOut: balance.Float(cur.Out),
				Net:      balance.Float(cur.Balance()),
			})
		}
	}
	// rows arrive ordered by date
	for _, m := range moves {
		d := m.Date.UTC().Format(dateOnly)
		if d != day {
			flush()
			day, cur = d, balance.Tally{}
		}
		cur.AddAmount(m.Type, m.Quantity)
	}
	flush()
	return out, nil
}

// TopMovers ranks sponges by movement count over the last seven days.
func (s *DashboardService) TopMovers(ctx context.Context, limit int) ([]TopMover, error) {
	if limit == 0 {
		limit = DefaultTopMovers
	}
	if limit < 1 || limit > MaxTopMovers {
		return nil, invalid("limit", "must be between 1 and %d", MaxTopMovers)
	}
	rows, err := s.reports.TopMovers(ctx, s.Now().UTC().AddDate(0, 0, -7), limit)
	if err != nil {
		return nil, err
	}
	out := make([]TopMover, 0, len(rows))
	for _, r := range rows {
		out = append(out, TopMover{Name: r.Name, MovementCount: r.MovementCount, TotalQuantity: balance.Float(r.TotalQuantity)})
	}
	return out, nil
}
