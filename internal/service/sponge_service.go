package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/sponge-stock-api/internal/model"
	"github.com/iliyamo/sponge-stock-api/internal/repository"
)

// SpongeInput is the body of a create request.
type SpongeInput struct {
	Name          string   `json:"name"`
	Density       float64  `json:"density"`
	Hardness      string   `json:"hardness"`
	Width         *float64 `json:"width"`
	Height        *float64 `json:"height"`
	Thickness     *float64 `json:"thickness"`
	Unit          string   `json:"unit"`
	CriticalStock *float64 `json:"critical_stock"`
}

// SpongePatch is a partial update.  Nil fields are left untouched.
type SpongePatch struct {
	Name          *string  `json:"name"`
	Density       *float64 `json:"density"`
	Hardness      *string  `json:"hardness"`
	Width         *float64 `json:"width"`
	Height        *float64 `json:"height"`
	Thickness     *float64 `json:"thickness"`
	Unit          *string  `json:"unit"`
	CriticalStock *float64 `json:"critical_stock"`
}

// SpongeService is the product registry.
type SpongeService struct {
	sponges *repository.SpongeRepo
	stocks  *repository.StockRepo
	log     *slog.Logger
}

func NewSpongeService(sponges *repository.SpongeRepo, stocks *repository.StockRepo, logger *slog.Logger) *SpongeService {
	return &SpongeService{sponges: sponges, stocks: stocks, log: logger}
}

// Create validates in and inserts it.  Name and variant collisions are
// conflicts, whether found up front or raised by the unique indexes.
func (s *SpongeService) Create(ctx context.Context, in SpongeInput) (*model.Sponge, error) {
	sp := &model.Sponge{
		Name:          strings.TrimSpace(in.Name),
		Density:       in.Density,
		Width:         in.Width,
		Height:        in.Height,
		Thickness:     in.Thickness,
		CriticalStock: model.DefaultCriticalStock,
	}
	var err error
	if sp.Hardness, err = model.ParseHardness(in.Hardness); err != nil {
		return nil, &ValidationError{Field: "hardness", Reason: err.Error()}
	}
	if sp.Unit, err = model.ParseUnit(in.Unit); err != nil {
		return nil, &ValidationError{Field: "unit", Reason: err.Error()}
	}
	if in.CriticalStock != nil {
		sp.CriticalStock = *in.CriticalStock
	}
	if err := validateSponge(sp); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, sp, 0); err != nil {
		return nil, err
	}
	if err := s.sponges.Create(ctx, sp); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("sponge name or variant already exists")
		}
		return nil, err
	}
	s.log.Info("sponge created", "sponge_id", sp.ID, "name", sp.Name)
	return sp, nil
}

// Update applies the non-nil fields of p.
func (s *SpongeService) Update(ctx context.Context, id uint64, p SpongePatch) (*model.Sponge, error) {
	sp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		sp.Name = strings.TrimSpace(*p.Name)
	}
	if p.Density != nil {
		sp.Density = *p.Density
	}
	if p.Hardness != nil {
		if sp.Hardness, err = model.ParseHardness(*p.Hardness); err != nil {
			return nil, &ValidationError{Field: "hardness", Reason: err.Error()}
		}
	}
	if p.Width != nil {
		sp.Width = p.Width
	}
	if p.Height != nil {
		sp.Height = p.Height
	}
	if p.Thickness != nil {
		sp.Thickness = p.Thickness
	}
	if p.Unit != nil {
		if sp.Unit, err = model.ParseUnit(*p.Unit); err != nil {
			return nil, &ValidationError{Field: "unit", Reason: err.Error()}
		}
	}
	if p.CriticalStock != nil {
		sp.CriticalStock = *p.CriticalStock
	}
	if err := validateSponge(sp); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, sp, id); err != nil {
		return nil, err
	}
	if err := s.sponges.Update(ctx, sp); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("sponge name or variant already exists")
		}
		return nil, err
	}
	return sp, nil
}

// Delete removes the sponge and every ledger entry it owns in one
// transaction, returning the removed sponge.
func (s *SpongeService) Delete(ctx context.Context, id uint64) (*model.Sponge, error) {
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

	sp, err := s.sponges.LockTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSpongeNotFound) {
			return nil, notFound("sponge")
		}
		return nil, err
	}
	removed, err := s.stocks.DeleteBySpongeTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := s.sponges.DeleteTx(ctx, tx, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	s.log.Info("sponge deleted", "sponge_id", id, "stock_entries_removed", removed)
	return sp, nil
}

func (s *SpongeService) Get(ctx context.Context, id uint64) (*model.Sponge, error) {
	sp, err := s.sponges.GetByID(ctx, id)
	if errors.Is(err, repository.ErrSpongeNotFound) {
		return nil, notFound("sponge")
	}
	return sp, err
}

func (s *SpongeService) GetByName(ctx context.Context, name string) (*model.Sponge, error) {
	sp, err := s.sponges.GetByName(ctx, name)
	if errors.Is(err, repository.ErrSpongeNotFound) {
		return nil, notFound("sponge")
	}
	return sp, err
}

func (s *SpongeService) List(ctx context.Context) ([]model.Sponge, error) {
	return s.sponges.ListAll(ctx)
}

// checkUnique looks for another sponge (id != self) with the same name or
// the same variant triple.
func (s *SpongeService) checkUnique(ctx context.Context, sp *model.Sponge, self uint64) error {
	other, err := s.sponges.GetByName(ctx, sp.Name)
	switch {
	case err == nil && other.ID != self:
		return conflict("sponge name %q already exists", sp.Name)
	case err != nil && !errors.Is(err, repository.ErrSpongeNotFound):
		return err
	}
	other, err = s.sponges.FindVariant(ctx, sp.Density, sp.Hardness, sp.Thickness)
	switch {
	case err == nil && other.ID != self:
		return conflict("variant (density, hardness, thickness) already used by %q", other.Name)
	case err != nil && !errors.Is(err, repository.ErrSpongeNotFound):
		return err
	}
	return nil
}

func validateSponge(sp *model.Sponge) error {
	if n := utf8.RuneCountInString(sp.Name); n < 3 || n > 100 {
		return invalid("name", "must be 3 to 100 characters")
	}
	if sp.Density <= 0 || sp.Density >= 100 {
		return invalid("density", "must be greater than 0 and less than 100")
	}
	for field, v := range map[string]*float64{"width": sp.Width, "height": sp.Height, "thickness": sp.Thickness} {
		if v != nil && *v <= 0 {
			return invalid(field, "must be greater than 0")
		}
	}
	if sp.CriticalStock < 0 {
		return invalid("critical_stock", "must not be negative")
	}
	if sp.CriticalStock > 0 {
		return checkAmount("critical_stock", sp.CriticalStock, repository.QuantityScale, repository.MaxQuantity)
	}
	return nil
}
