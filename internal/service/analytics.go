package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/model"
	"github.com/and161185/garagesale/internal/repository"
)

// AnalyticsService produces read-only seller rollups.
type AnalyticsService interface {
	SellerSummary(ctx context.Context, sellerID uuid.UUID, period model.Period) (model.SellerSummary, error)
}

type AnalyticsServiceImpl struct {
	products  repository.ProductRepository
	purchases repository.PurchaseRepository
	now       func() time.Time
}

var _ AnalyticsService = (*AnalyticsServiceImpl)(nil)

// NewAnalyticsService constructs AnalyticsService.
func NewAnalyticsService(products repository.ProductRepository, purchases repository.PurchaseRepository) *AnalyticsServiceImpl {
	return &AnalyticsServiceImpl{products: products, purchases: purchases, now: time.Now}
}

// SellerSummary aggregates completed sales within period and all of the seller's listings.
func (s *AnalyticsServiceImpl) SellerSummary(
	ctx context.Context, sellerID uuid.UUID, period model.Period,
) (model.SellerSummary, error) {
	if sellerID == uuid.Nil {
		return model.SellerSummary{}, errs.Validationf("empty seller id")
	}
	if period == "" {
		period = model.PeriodAll
	}
	since, ok := period.Since(s.now())
	if !ok {
		return model.SellerSummary{}, errs.Validationf("unknown period %q", period)
	}

	sales, err := s.purchases.SalesStats(ctx, sellerID, since)
	if err != nil {
		return model.SellerSummary{}, err
	}
	listings, err := s.products.ListingStats(ctx, sellerID)
	if err != nil {
		return model.SellerSummary{}, err
	}

	avg := decimal.Zero
	if sales.Count > 0 {
		avg = sales.Revenue.Div(decimal.NewFromInt(int64(sales.Count))).Round(2)
	}
	return model.SellerSummary{
		SellerID:           sellerID,
		Period:             period,
		TotalSales:         sales.Count,
		TotalRevenue:       sales.Revenue,
		AveragePrice:       avg,
		ProductsSold:       sales.Count,
		ProductsListed:     listings.Count,
		TotalListingsValue: listings.TotalValue,
		UniqueBuyers:       sales.UniqueBuyers,
	}, nil
}
