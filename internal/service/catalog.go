package service

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/lifecycle"
	"github.com/and161185/garagesale/internal/model"
	"github.com/and161185/garagesale/internal/repository"
)

// Listing field limits.
const (
	MaxNameLen        = 100
	MaxDescriptionLen = 2000
	MaxCategoryLen    = 50
	MaxImageURLLen    = 2048
)

// CatalogService manages listings and their availability.
type CatalogService interface {
	// Create lists a new product owned by sellerID. It starts Available.
	Create(ctx context.Context, sellerID uuid.UUID, in model.NewProduct) (*model.Product, error)
	// Update changes descriptive fields; only the owner may do it and never after Sold.
	Update(ctx context.Context, sellerID, id uuid.UUID, patch model.ProductPatch) (*model.Product, error)
	// Get returns a product by id.
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// ListAvailable returns a page of products still open for purchase.
	ListAvailable(ctx context.Context, f model.ProductFilter) (model.ProductPage, error)
	// ListBySeller returns every product of the seller.
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]model.Product, error)

	// Reserve puts an Available product on hold. Any authenticated user may reserve.
	Reserve(ctx context.Context, actorID, id uuid.UUID) (*model.Product, error)
	// Unreserve releases a hold; owner only.
	Unreserve(ctx context.Context, actorID, id uuid.UUID) (*model.Product, error)
	// MarkSold closes the listing for good; owner only.
	MarkSold(ctx context.Context, actorID, id uuid.UUID) (*model.Product, error)
	// Delete removes an Available or Reserved listing that was never purchased; owner only.
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

type CatalogServiceImpl struct {
	products        repository.ProductRepository
	defaultCurrency string
	log             *zap.Logger
}

var _ CatalogService = (*CatalogServiceImpl)(nil)

// NewCatalogService constructs CatalogService. An empty currency falls back to BRL.
func NewCatalogService(products repository.ProductRepository, defaultCurrency string, log *zap.Logger) *CatalogServiceImpl {
	if defaultCurrency == "" {
		defaultCurrency = "BRL"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogServiceImpl{products: products, defaultCurrency: defaultCurrency, log: log}
}

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Create validates the listing and stores it with a fresh scan code.
func (s *CatalogServiceImpl) Create(ctx context.Context, sellerID uuid.UUID, in model.NewProduct) (*model.Product, error) {
	if sellerID == uuid.Nil {
		return nil, errs.Validationf("empty seller id")
	}
	p := model.Product{
		SellerID:     sellerID,
		Name:         strings.TrimSpace(in.Name),
		Description:  strings.TrimSpace(in.Description),
		Price:        in.Price,
		Currency:     strings.ToUpper(strings.TrimSpace(in.Currency)),
		Category:     strings.TrimSpace(in.Category),
		Condition:    in.Condition,
		ImageURL:     strings.TrimSpace(in.ImageURL),
		Availability: model.Available,
		Version:      1,
	}
	if p.Currency == "" {
		p.Currency = s.defaultCurrency
	}
	if p.Condition == "" {
		p.Condition = model.ConditionGood
	}
	if err := validateDetails(&p); err != nil {
		return nil, err
	}
	if !currencyRe.MatchString(p.Currency) {
		return nil, errs.Validationf("currency must be a 3-letter ISO code")
	}

	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	// scan codes are random; a collision is retried with a new one
	for attempt := 0; ; attempt++ {
		id, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}
		code, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}
		p.ID, p.ScanCode = id, code.String()

		err = s.products.Create(ctx, &p)
		if err == nil {
			break
		}
		if !errors.Is(err, errs.ErrAlreadyExists) || attempt >= 2 {
			return nil, err
		}
	}
	s.log.Info("product listed", zap.String("product_id", p.ID.String()), zap.String("seller_id", sellerID.String()))
	return &p, nil
}

func validateDetails(p *model.Product) error {
	if n := len([]rune(p.Name)); n == 0 || n > MaxNameLen {
		return errs.Validationf("name must be 1..%d characters", MaxNameLen)
	}
	if n := len([]rune(p.Description)); n == 0 || n > MaxDescriptionLen {
		return errs.Validationf("description must be 1..%d characters", MaxDescriptionLen)
	}
	if err := validatePrice(p.Price); err != nil {
		return err
	}
	if len([]rune(p.Category)) > MaxCategoryLen {
		return errs.Validationf("category must be at most %d characters", MaxCategoryLen)
	}
	if !p.Condition.Valid() {
		return errs.Validationf("unknown condition %q", p.Condition)
	}
	if p.ImageURL != "" {
		u, err := url.ParseRequestURI(p.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || len(p.ImageURL) > MaxImageURLLen {
			return errs.Validationf("image url must be an http(s) URL")
		}
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return errs.Validationf("price must be greater than zero")
	}
	if !price.Equal(price.Truncate(2)) {
		return errs.Validationf("price must have at most 2 decimal places")
	}
	return nil
}

// Update applies patch to the owner's product with a version check.
func (s *CatalogServiceImpl) Update(
	ctx context.Context, sellerID, id uuid.UUID, patch model.ProductPatch,
) (*model.Product, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SellerID != sellerID {
		return nil, errs.ErrNotOwner
	}
	if p.Availability == model.Sold {
		return nil, errs.Conflictf("cannot update: product is already sold")
	}

	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Condition != nil {
		p.Condition = *patch.Condition
	}
	if patch.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*patch.ImageURL)
	}
	if err := validateDetails(p); err != nil {
		return nil, err
	}

	out, err := s.products.UpdateDetails(ctx, p)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrProductNotFound
	}
	return out, err
}

// Get returns a product by id.
func (s *CatalogServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return s.get(ctx, id)
}

func (s *CatalogServiceImpl) get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if id == uuid.Nil {
		return nil, errs.Validationf("product id is required")
	}
	p, err := s.products.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrProductNotFound
	}
	return p, err
}

// ListAvailable returns a page of Available products.
func (s *CatalogServiceImpl) ListAvailable(ctx context.Context, f model.ProductFilter) (model.ProductPage, error) {
	if f.Condition != "" && !f.Condition.Valid() {
		return model.ProductPage{}, errs.Validationf("unknown condition %q", f.Condition)
	}
	if f.MaxPrice != nil && f.MaxPrice.IsNegative() {
		return model.ProductPage{}, errs.Validationf("maxPrice must not be negative")
	}
	f.Page = f.Page.Normalize()
	items, total, err := s.products.ListAvailable(ctx, f)
	if err != nil {
		return model.ProductPage{}, err
	}
	return model.ProductPage{Products: items, Pagination: model.NewPagination(f.Page, total)}, nil
}

// ListBySeller returns all products of the seller.
func (s *CatalogServiceImpl) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]model.Product, error) {
	if sellerID == uuid.Nil {
		return nil, errs.Validationf("empty seller id")
	}
	return s.products.ListBySeller(ctx, sellerID)
}

// Reserve moves Available to Reserved.
func (s *CatalogServiceImpl) Reserve(ctx context.Context, actorID, id uuid.UUID) (*model.Product, error) {
	return s.apply(ctx, actorID, id, lifecycle.ActionReserve)
}

// Unreserve moves Reserved back to Available.
func (s *CatalogServiceImpl) Unreserve(ctx context.Context, actorID, id uuid.UUID) (*model.Product, error) {
	return s.apply(ctx, actorID, id, lifecycle.ActionUnreserve)
}

// MarkSold moves Available or Reserved to Sold.
func (s *CatalogServiceImpl) MarkSold(ctx context.Context, actorID, id uuid.UUID) (*model.Product, error) {
	return s.apply(ctx, actorID, id, lifecycle.ActionMarkSold)
}

// Delete checks ownership, then state, then removes the row with the state as guard.
func (s *CatalogServiceImpl) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	p, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if p.SellerID != actorID {
		return errs.ErrNotOwner
	}
	if err := lifecycle.CanDelete(p.Availability); err != nil {
		return err
	}

	err = s.products.Delete(ctx, id, p.Availability)
	switch {
	case err == nil:
		s.log.Info("product deleted", zap.String("product_id", id.String()), zap.String("seller_id", actorID.String()))
		return nil
	case errors.Is(err, errs.ErrNotFound):
		return errs.ErrProductNotFound
	case errors.Is(err, errs.ErrVersionConflict):
		cur, gerr := s.products.GetByID(ctx, id)
		if errors.Is(gerr, errs.ErrNotFound) {
			return errs.ErrProductNotFound
		}
		if gerr != nil {
			return err
		}
		if derr := lifecycle.CanDelete(cur.Availability); derr != nil {
			return derr
		}
		if cur.Availability == p.Availability {
			return errs.ErrHasPurchases
		}
		return err
	default:
		return err
	}
}

// apply checks ownership, then the transition table, then writes with a compare-and-swap.
func (s *CatalogServiceImpl) apply(
	ctx context.Context, actorID, id uuid.UUID, a lifecycle.Action,
) (*model.Product, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.SellerOnly() && p.SellerID != actorID {
		return nil, errs.ErrNotOwner
	}
	next, err := lifecycle.Next(p.Availability, a)
	if err != nil {
		return nil, err
	}

	out, err := s.products.UpdateAvailability(ctx, id, p.Availability, next)
	switch {
	case err == nil:
		s.log.Info("availability changed",
			zap.String("product_id", id.String()),
			zap.String("action", string(a)),
			zap.String("from", string(p.Availability)),
			zap.String("to", string(next)),
		)
		return out, nil
	case errors.Is(err, errs.ErrNotFound):
		return nil, errs.ErrProductNotFound
	case errors.Is(err, errs.ErrVersionConflict):
		s.log.Debug("availability race lost", zap.String("product_id", id.String()), zap.String("action", string(a)))
		// report what the winner left behind when possible
		if cur, gerr := s.products.GetByID(ctx, id); gerr == nil {
			if _, nerr := lifecycle.Next(cur.Availability, a); nerr != nil {
				return nil, nerr
			}
		}
		return nil, err
	default:
		return nil, err
	}
}
