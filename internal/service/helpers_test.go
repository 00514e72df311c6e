package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/sponge-stock-api/internal/dbtest"
	"github.com/iliyamo/sponge-stock-api/internal/model"
	"github.com/iliyamo/sponge-stock-api/internal/notify"
	"github.com/iliyamo/sponge-stock-api/internal/obs"
	"github.com/iliyamo/sponge-stock-api/internal/queue"
	"github.com/iliyamo/sponge-stock-api/internal/repository"
	"github.com/iliyamo/sponge-stock-api/internal/service"
	"github.com/iliyamo/sponge-stock-api/internal/utils"
)

func f64(v float64) *float64 { return &v }
func str(s string) *string    { return &s }

type env struct {
	db        *sqlx.DB
	sponges   *service.SpongeService
	stocks    *service.StockService
	reports   *service.ReportService
	dashboard *service.DashboardService
	notes     *service.NotificationService
	auth      *service.AuthService
	signer    *utils.Signer

	stockRepo *repository.StockRepo
	noteRepo  *repository.NotificationRepo
	sink      *recordingSink
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.Open(t)
	log := obs.Discard()
	spongeRepo := repository.NewSpongeRepo(db)
	stockRepo := repository.NewStockRepo(db)
	reportRepo := repository.NewReportRepo(db)
	noteRepo := repository.NewNotificationRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	signer, err := utils.NewSigner("service-test-secret-0123456789abcdef", "HS256", "sponge-stock-api")
	if err != nil {
		t.Fatal(err)
	}
	sink := &recordingSink{}
	return &env{
		db:        db,
		sponges:   service.NewSpongeService(spongeRepo, stockRepo, log),
		stocks:    service.NewStockService(spongeRepo, stockRepo, reportRepo, nil, log),
		reports:   service.NewReportService(reportRepo, noteRepo, sink, []string{"ops@example.com"}, log),
		dashboard: service.NewDashboardService(spongeRepo, reportRepo),
		notes:     service.NewNotificationService(noteRepo, userRepo),
		auth: service.NewAuthService(userRepo, tokenRepo, signer, service.AuthConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 24 * time.Hour,
			BcryptCost: bcrypt.MinCost,
		}, log),
		signer:    signer,
		stockRepo: stockRepo,
		noteRepo:  noteRepo,
		sink:      sink,
	}
}

// recordingSink keeps delivered messages and fails when err is set.
type recordingSink struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (s *recordingSink) Deliver(_ context.Context, m notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, m)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

// chanPublisher forwards published movements to a channel.
type chanPublisher struct {
	ch  chan queue.StockMovementRecorded
	err error
}

func (p *chanPublisher) PublishMovement(_ context.Context, ev queue.StockMovementRecorded) error {
	p.ch <- ev
	return p.err
}

var errBoom = errors.New("boom")

func (e *env) mustSponge(t *testing.T, name string, density float64) uint64 {
	t.Helper()
	sp, err := e.sponges.Create(context.Background(), service.SpongeInput{
		Name: name, Density: density, Hardness: "medium", Unit: "m3",
	})
	if err != nil {
		t.Fatalf("create %q: %v", name, err)
	}
	return sp.ID
}

func (e *env) mustMove(t *testing.T, spongeID uint64, typ string, qty float64) *model.StockEntry {
	t.Helper()
	entry, err := e.stocks.RecordMovement(context.Background(), service.MovementInput{
		SpongeID: spongeID, Type: typ, Quantity: qty,
	})
	if err != nil {
		t.Fatalf("%s %g: %v", typ, qty, err)
	}
	return entry
}
