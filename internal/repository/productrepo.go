package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/garagesale/internal/model"
)

// ProductRepository stores listings. Availability is only ever changed through UpdateAvailability.
type ProductRepository interface {
	// Create inserts a product; ErrAlreadyExists on scan code collision.
	Create(ctx context.Context, p *model.Product) error

	// GetByID returns a product by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetForUpdate returns a product and holds a write lock on it until the transaction ends.
	// Outside a transaction it behaves like GetByID.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetByScanCode returns a product by its label code.
	GetByScanCode(ctx context.Context, code string) (*model.Product, error)

	// UpdateDetails writes descriptive fields if the stored version equals p.Version.
	UpdateDetails(ctx context.Context, p *model.Product) (*model.Product, error)

	// UpdateAvailability moves the product from expected to next. It fails with ErrVersionConflict
	// if the stored state is no longer expected, and ErrNotFound if the product is gone.
	UpdateAvailability(ctx context.Context, id uuid.UUID, expected, next model.Availability) (*model.Product, error)

	// Delete removes the product while its availability is still expected and no purchase has ever
	// referenced it. ErrVersionConflict when either guard fails, ErrNotFound when the row is gone.
	Delete(ctx context.Context, id uuid.UUID, expected model.Availability) error

	// ListBySeller returns every product owned by sellerID, newest first.
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]model.Product, error)

	// ListAvailable returns a page of available products and the total match count.
	ListAvailable(ctx context.Context, f model.ProductFilter) ([]model.Product, int, error)

	// ListingStats aggregates count and total price of the seller's products.
	ListingStats(ctx context.Context, sellerID uuid.UUID) (model.ListingStats, error)
}
