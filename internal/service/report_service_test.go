package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/sponge-stock-api/internal/model"
	"github.com/iliyamo/sponge-stock-api/internal/service"
)

var reportNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func (e *env) appendAt(t *testing.T, spongeID uint64, typ model.MovementType, qty float64, at time.Time) {
	t.Helper()
	if err := e.stockRepo.Append(context.Background(), &model.StockEntry{SpongeID: spongeID, Type: typ, Quantity: qty, Date: at}); err != nil {
		t.Fatal(err)
	}
}

func seedReportLedger(t *testing.T, e *env) (a, b uint64) {
	t.Helper()
	a = e.mustSponge(t, "Foam A", 20)
	b = e.mustSponge(t, "Foam B", 30)
	e.appendAt(t, a, model.MovementIn, 999, time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	e.appendAt(t, a, model.MovementIn, 100, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	e.appendAt(t, a, model.MovementOut, 30, time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	e.appendAt(t, b, model.MovementIn, 10, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	e.appendAt(t, b, model.MovementReturn, 5, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC))
	e.reports.Now = func() time.Time { return reportNow }
	e.dashboard.Now = func() time.Time { return reportNow }
	return a, b
}

func TestWeeklyReport(t *testing.T) {
	e := newEnv(t)
	seedReportLedger(t, e)

	w, err := e.reports.Weekly(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if w == nil {
		t.Fatal("expected a summary")
	}
	if w.Period != "2026-03-08 - 2026-03-15" {
		t.Fatalf("period = %q", w.Period)
	}
	if w.TotalIn != 115 || w.TotalOut != 30 {
		t.Fatalf("totals in=%g out=%g, want 115 and 30", w.TotalIn, w.TotalOut)
	}
	if len(w.TopItems) != 2 || w.TopItems[0].Name != "Foam A" || w.TopItems[0].Net != 70 || w.TopItems[1].Net != 15 {
		t.Fatalf("top items %+v", w.TopItems)
	}
}

func TestWeeklyReportEmptyWindow(t *testing.T) {
	e := newEnv(t)
	a := e.mustSponge(t, "Foam A", 20)
	e.appendAt(t, a, model.MovementIn, 5, reportNow.AddDate(0, 0, -8))
	e.reports.Now = func() time.Time { return reportNow }

	w, err := e.reports.Weekly(context.Background())
	if err != nil || w != nil {
		t.Fatalf("want nil summary, got %+v, %v", w, err)
	}
}

func TestMonthlyReport(t *testing.T) {
	e := newEnv(t)
	seedReportLedger(t, e)

	m, err := e.reports.Monthly(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if m.Month != "March 2026" || m.TotalIn != 115 || m.TotalOut != 30 {
		t.Fatalf("unexpected summary %+v", m)
	}
	if len(m.Items) != 2 || m.Items[0].Name != "Foam A" || m.Items[0].In != 100 || m.Items[0].Out != 30 || m.Items[1].In != 15 {
		t.Fatalf("items %+v", m.Items)
	}

	e.reports.Now = func() time.Time { return time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC) }
	if m, err := e.reports.Monthly(context.Background()); err != nil || m != nil {
		t.Fatalf("empty month: want nil, got %+v, %v", m, err)
	}
}

func TestCriticalReportPersistsAndNotifies(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.mustSponge(t, "Foam A", 20)
	e.mustSponge(t, "Foam <B>", 30)
	e.mustMove(t, a, "in", 50)

	items, err := e.reports.Critical(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Name != "Foam <B>" || items[0].AvailableStock != 0 || items[0].Status != "critical" {
		t.Fatalf("items %+v", items)
	}
	if e.sink.count() != 0 {
		t.Fatal("sink used without notify")
	}
	if n, _ := e.noteRepo.CountBroadcast(ctx); n != 1 {
		t.Fatalf("broadcast notifications = %d, want 1", n)
	}

	if _, err := e.reports.Critical(ctx, true); err != nil {
		t.Fatal(err)
	}
	if e.sink.count() != 1 {
		t.Fatalf("sink messages = %d, want 1", e.sink.count())
	}
	msg := e.sink.msgs[0]
	if len(msg.To) != 1 || msg.To[0] != "ops@example.com" || !strings.Contains(msg.Body, "Foam &lt;B&gt;") {
		t.Fatalf("unexpected message %+v", msg)
	}
	// every call persists again
	if n, _ := e.noteRepo.CountBroadcast(ctx); n != 2 {
		t.Fatalf("broadcast notifications = %d, want 2", n)
	}
}

func TestCriticalReportDeliveryFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.mustSponge(t, "Foam A", 20)
	e.sink.err = errBoom

	items, err := e.reports.Critical(ctx, true)
	if !errors.Is(err, service.ErrNotificationDelivery) {
		t.Fatalf("want ErrNotificationDelivery, got %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items must still be returned, got %d", len(items))
	}
	if n, _ := e.noteRepo.CountBroadcast(ctx); n != 1 {
		t.Fatalf("notifications must survive a delivery failure, got %d", n)
	}
}

func TestCriticalReportNothingCritical(t *testing.T) {
	e := newEnv(t)
	a := e.mustSponge(t, "Foam A", 20)
	e.mustMove(t, a, "in", 6)

	items, err := e.reports.Critical(context.Background(), true)
	if err != nil || len(items) != 0 {
		t.Fatalf("want no items, got %+v, %v", items, err)
	}
	if e.sink.count() != 0 {
		t.Fatal("nothing to send")
	}
}
