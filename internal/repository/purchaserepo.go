package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/garagesale/internal/model"
)

// PurchaseRepository stores purchase records.
type PurchaseRepository interface {
	// Create inserts a purchase. Must be called through a Tx when paired with a product update.
	Create(ctx context.Context, p *model.Purchase) error

	// GetByID returns the purchase only if requesterID is its buyer or seller; otherwise ErrNotFound.
	GetByID(ctx context.Context, id, requesterID uuid.UUID) (*model.Purchase, error)

	// GetForUpdate returns a purchase and holds a write lock on it until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Purchase, error)

	// UpdateStatus moves the purchase from expected to next; ErrVersionConflict if it moved meanwhile.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next model.PurchaseStatus) (*model.Purchase, error)

	// ListByBuyer returns a page of the buyer's purchases (newest first) and the total count.
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, q model.PurchaseQuery) ([]model.Purchase, int, error)

	// ListBySeller returns a page of the seller's sales (newest first) and the total count.
	ListBySeller(ctx context.Context, sellerID uuid.UUID, q model.PurchaseQuery) ([]model.Purchase, int, error)

	// SalesStats aggregates COMPLETED purchases of the seller made at or after since.
	SalesStats(ctx context.Context, sellerID uuid.UUID, since time.Time) (model.SalesStats, error)
}

// Tx exposes repositories bound to one open transaction.
type Tx interface {
	Products() ProductRepository
	Purchases() PurchaseRepository
}

// Transactor runs a function as a single atomic unit. Returning an error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
