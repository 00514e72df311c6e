package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/sponge-stock-api/internal/balance"
	"github.com/iliyamo/sponge-stock-api/internal/model"
	"github.com/iliyamo/sponge-stock-api/internal/notify"
	"github.com/iliyamo/sponge-stock-api/internal/repository"
)

// NetItem is a sponge's net movement over a window.
type NetItem struct {
	Name string  `json:"name"`
	Net  float64 `json:"net"`
}

type WeeklySummary struct {
	Period   string    `json:"period"`
	TotalIn  float64   `json:"total_in"`
	TotalOut float64   `json:"total_out"`
	TopItems []NetItem `json:"top_items"`
}

type MonthlyItem struct {
	Name string  `json:"name"`
	In   float64 `json:"in"`
	Out  float64 `json:"out"`
}

type MonthlySummary struct {
	Month    string        `json:"month"`
	TotalIn  float64       `json:"total_in"`
	TotalOut float64       `json:"total_out"`
	Items    []MonthlyItem `json:"items"`
}

type CriticalItem struct {
	SpongeID       uint64  `json:"sponge_id"`
	Name           string  `json:"name"`
	AvailableStock float64 `json:"available_stock"`
	CriticalStock  float64 `json:"critical_stock"`
	Status         string  `json:"status"`
}

// ReportService computes the weekly, monthly and critical-stock reports.
// "In" figures on reports include returns.
type ReportService struct {
	reports *repository.ReportRepo
	notes   *repository.NotificationRepo
	sink    notify.Sink
	alertTo []string
	log     *slog.Logger

	Now func() time.Time
}

func NewReportService(reports *repository.ReportRepo, notes *repository.NotificationRepo, sink notify.Sink, alertTo []string, logger *slog.Logger) *ReportService {
	return &ReportService{reports: reports, notes: notes, sink: sink, alertTo: alertTo, log: logger, Now: time.Now}
}

// Weekly summarises the last seven days ending now.  It returns nil when
// the window holds no entries.  Items are ordered by absolute net movement.
func (s *ReportService) Weekly(ctx context.Context) (*WeeklySummary, error) {
	to := s.Now().UTC()
	from := to.AddDate(0, 0, -7)
	rows, err := s.reports.WindowTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var in, out decimal.Decimal
	items := make([]NetItem, 0, len(rows))
	nets := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		in = in.Add(r.Tally.Inbound())
		out = out.Add(r.Tally.Out)
		net := r.Tally.Balance()
		nets[r.Name] = net.Abs()
		items = append(items, NetItem{Name: r.Name, Net: balance.Float(net)})
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := nets[items[i].Name], nets[items[j].Name]
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return items[i].Name < items[j].Name
	})
	return &WeeklySummary{
		Period:   from.Format(dateOnly) + " - " + to.Format(dateOnly),
		TotalIn:  balance.Float(in),
		TotalOut: balance.Float(out),
		TopItems: items,
	}, nil
}

// Monthly summarises the current UTC calendar month.  It returns nil when
// the month holds no entries.
func (s *ReportService) Monthly(ctx context.Context) (*MonthlySummary, error) {
	now := s.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Microsecond)
	rows, err := s.reports.WindowTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var in, out decimal.Decimal
	items := make([]MonthlyItem, 0, len(rows))
	for _, r := range rows {
		in = in.Add(r.Tally.Inbound())
		out = out.Add(r.Tally.Out)
		items = append(items, MonthlyItem{
			Name: r.Name,
			In:   balance.Float(r.Tally.Inbound()),
			Out:  balance.Float(r.Tally.Out),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return &MonthlySummary{
		Month:    from.Format("January 2006"),
		TotalIn:  balance.Float(in),
		TotalOut: balance.Float(out),
		Items:    items,
	}, nil
}

// Critical lists sponges whose balance is at or below their threshold and
// records a broadcast warning for each.  With send set the list is also
// delivered to the alert recipients; a delivery failure still returns the
// items, along with an error wrapping ErrNotificationDelivery.
func (s *ReportService) Critical(ctx context.Context, send bool) ([]CriticalItem, error) {
	rows, err := s.reports.Balances(ctx)
	if err != nil {
		return nil, err
	}
	items := []CriticalItem{}
	for _, r := range rows {
		b := r.Tally.Balance()
		if !balance.IsCritical(b, r.CriticalStock) {
			continue
		}
		items = append(items, CriticalItem{
			SpongeID:       r.SpongeID,
			Name:           r.Name,
			AvailableStock: balance.Float(b),
			CriticalStock:  r.CriticalStock,
			Status:         "critical",
		})
	}
	if len(items) == 0 {
		return items, nil
	}

	notes := make([]*model.Notification, 0, len(items))
	for _, it := range items {
		notes = append(notes, &model.Notification{
			Title:   "Critical stock: " + it.Name,
			Message: fmt.Sprintf("%s is at %g (critical level %g).", it.Name, it.AvailableStock, it.CriticalStock),
			Type:    model.NotificationWarning,
		})
	}
	if err := s.notes.CreateMany(ctx, notes); err != nil {
		return nil, err
	}

	if !send {
		return items, nil
	}
	msg := notify.Message{
		To:      s.alertTo,
		Subject: fmt.Sprintf("Critical stock alert: %d item(s)", len(items)),
		Body:    criticalBody(items),
	}
	if err := s.sink.Deliver(ctx, msg); err != nil {
		s.log.Error("critical stock alert delivery failed", "items", len(items), "err", err)
		return items, fmt.Errorf("%w: %v", ErrNotificationDelivery, err)
	}
	s.log.Info("critical stock alert sent", "items", len(items), "recipients", len(s.alertTo))
	return items, nil
}

func criticalBody(items []CriticalItem) string {
	var b strings.Builder
	b.WriteString("<h2>Critical stock</h2>\n<table>\n<tr><th>Product</th><th>Available</th><th>Critical level</th></tr>\n")
	for _, it := range items {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%g</td><td>%g</td></tr>\n",
			html.EscapeString(it.Name), it.AvailableStock, it.CriticalStock)
	}
	b.WriteString("</table>\n")
	return b.String()
}
