package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/sponge-stock-api/internal/model"
	"github.com/iliyamo/sponge-stock-api/internal/service"
)

func TestDashboardStats(t *testing.T) {
	e := newEnv(t)
	a, _ := seedReportLedger(t, e)
	e.mustSponge(t, "Foam C", 40)
	e.appendAt(t, a, model.MovementOut, 1, reportNow.Add(-time.Hour))

	st, err := e.dashboard.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// A: 999+100-30-1, B: 15, C: 0
	if st.TotalProducts != 3 || st.TotalStock != 1083 || st.CriticalStockCount != 1 || st.RecentMovements != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestDashboardWeeklyTrend(t *testing.T) {
	e := newEnv(t)
	seedReportLedger(t, e)

	days, err := e.dashboard.WeeklyTrend(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []service.DayTrend{
		{Date: "2026-03-10", TotalIn: 10, Net: 10},
		{Date: "2026-03-11", TotalIn: 5, Net: 5},
		{Date: "2026-03-14", TotalIn: 100, TotalOut: 30, Net: 70},
	}
	if len(days) != len(want) {
		t.Fatalf("days %+v", days)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("day %d = %+v, want %+v", i, days[i], want[i])
		}
	}
}

func TestDashboardTopMovers(t *testing.T) {
	e := newEnv(t)
	seedReportLedger(t, e)
	ctx := context.Background()

	movers, err := e.dashboard.TopMovers(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	// both sponges have two movements in the window; ties go by name
	if len(movers) != 2 || movers[0].Name != "Foam A" || movers[0].MovementCount != 2 || movers[0].TotalQuantity != 130 {
		t.Fatalf("movers %+v", movers)
	}
	movers, err = e.dashboard.TopMovers(ctx, 1)
	if err != nil || len(movers) != 1 {
		t.Fatalf("limit 1: %+v, %v", movers, err)
	}
	for _, bad := range []int{-1, service.MaxTopMovers + 1} {
		if _, err := e.dashboard.TopMovers(ctx, bad); !isValidation(err) {
			t.Errorf("limit %d: want validation error, got %v", bad, err)
		}
	}
}
