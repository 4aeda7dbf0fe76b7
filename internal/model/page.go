package model

import (
	"math"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100

	// MaxPage keeps Offset within int for any accepted limit.
	MaxPage = math.MaxInt / MaxLimit
)

// PageQuery is a 1-based page request.
type PageQuery struct {
	Page  int
	Limit int
}

// Normalize applies defaults and clamps the page and limit.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

// Offset returns the number of rows to skip.
func (q PageQuery) Offset() int { return (q.Page - 1) * q.Limit }

// Pagination describes a returned page.
type Pagination struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// NewPagination computes page metadata for total rows.
func NewPagination(q PageQuery, total int) Pagination {
	pages := 0
	if q.Limit > 0 {
		pages = (total + q.Limit - 1) / q.Limit
	}
	return Pagination{Page: q.Page, Limit: q.Limit, Total: total, TotalPages: pages}
}

// ProductPage is a page of products.
type ProductPage struct {
	Products   []Product
	Pagination Pagination
}

// PurchasePage is a page of purchases.
type PurchasePage struct {
	Purchases  []Purchase
	Pagination Pagination
}

// Period bounds analytics to a trailing window.
type Period string

const (
	PeriodAll     Period = "all"
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Since returns the start of the window ending at now; zero time for PeriodAll.
func (p Period) Since(now time.Time) (time.Time, bool) {
	switch p {
	case PeriodAll, "":
		return time.Time{}, true
	case PeriodDaily:
		return now.AddDate(0, 0, -1), true
	case PeriodWeekly:
		return now.AddDate(0, 0, -7), true
	case PeriodMonthly:
		return now.AddDate(0, -1, 0), true
	case PeriodYearly:
		return now.AddDate(-1, 0, 0), true
	}
	return time.Time{}, false
}

// SalesStats aggregates a seller's completed purchases.
type SalesStats struct {
	Count        int
	Revenue      decimal.Decimal
	UniqueBuyers int
}

// ListingStats aggregates a seller's products.
type ListingStats struct {
	Count      int
	TotalValue decimal.Decimal
}

// SellerSummary is the read-only rollup shown on the seller dashboard.
type SellerSummary struct {
	SellerID           uuid.UUID
	Period             Period
	TotalSales         int
	TotalRevenue       decimal.Decimal
	AveragePrice       decimal.Decimal
	ProductsSold       int
	ProductsListed     int
	TotalListingsValue decimal.Decimal
	UniqueBuyers       int
}
