package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/model"
)

// ProductRepo implements ProductRepository using PostgreSQL.
type ProductRepo struct{ q querier }

// NewProductRepo constructs a product repository bound to the pool.
func NewProductRepo(db *DB) *ProductRepo { return &ProductRepo{q: db.Pool} }

const productCols = `id, seller_id, scan_code, name, description, price, currency, category, condition, image_url, availability, version, created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p     model.Product
		cond  string
		avail string
	)
	err := row.Scan(&p.ID, &p.SellerID, &p.ScanCode, &p.Name, &p.Description, &p.Price, &p.Currency,
		&p.Category, &cond, &p.ImageURL, &avail, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	p.Condition = model.Condition(cond)
	p.Availability = model.Availability(avail)
	return &p, nil
}

// Create inserts a new product row.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	const q = `
INSERT INTO products (id, seller_id, scan_code, name, description, price, currency, category, condition, image_url, availability, version, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	_, err := r.q.Exec(ctx, q, p.ID, p.SellerID, p.ScanCode, p.Name, p.Description, p.Price, p.Currency,
		p.Category, string(p.Condition), p.ImageURL, string(p.Availability), p.Version, p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects a product by ID.
func (r *ProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	const q = `SELECT ` + productCols + ` FROM products WHERE id=$1`
	return scanProduct(r.q.QueryRow(ctx, q, id))
}

// GetForUpdate selects a product by ID and locks the row for the rest of the transaction.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	const q = `SELECT ` + productCols + ` FROM products WHERE id=$1 FOR UPDATE`
	return scanProduct(r.q.QueryRow(ctx, q, id))
}

// GetByScanCode selects a product by its label code.
func (r *ProductRepo) GetByScanCode(ctx context.Context, code string) (*model.Product, error) {
	const q = `SELECT ` + productCols + ` FROM products WHERE scan_code=$1`
	return scanProduct(r.q.QueryRow(ctx, q, code))
}

// UpdateDetails writes descriptive fields with a version check (ver++).
func (r *ProductRepo) UpdateDetails(ctx context.Context, p *model.Product) (*model.Product, error) {
	const q = `
UPDATE products
SET name=$3, description=$4, price=$5, category=$6, condition=$7, image_url=$8, version=version+1, updated_at=now()
WHERE id=$1 AND version=$2
RETURNING ` + productCols
	out, err := scanProduct(r.q.QueryRow(ctx, q, p.ID, p.Version, p.Name, p.Description, p.Price,
		p.Category, string(p.Condition), p.ImageURL))
	if errors.Is(err, errs.ErrNotFound) {
		return nil, r.missOrConflict(ctx, p.ID)
	}
	return out, err
}

// UpdateAvailability is a compare-and-swap on the availability column (ver++).
func (r *ProductRepo) UpdateAvailability(
	ctx context.Context, id uuid.UUID, expected, next model.Availability,
) (*model.Product, error) {
	const q = `
UPDATE products
SET availability=$3, version=version+1, updated_at=now()
WHERE id=$1 AND availability=$2
RETURNING ` + productCols
	out, err := scanProduct(r.q.QueryRow(ctx, q, id, string(expected), string(next)))
	if errors.Is(err, errs.ErrNotFound) {
		return nil, r.missOrConflict(ctx, id)
	}
	return out, err
}

// Delete removes an unpurchased product guarded by its availability.
func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID, expected model.Availability) error {
	const q = `
DELETE FROM products
WHERE id=$1 AND availability=$2
  AND NOT EXISTS (SELECT 1 FROM purchases WHERE product_id=$1)`
	tag, err := r.q.Exec(ctx, q, id, string(expected))
	if isForeignKeyViolation(err) {
		return errs.ErrVersionConflict
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// missOrConflict tells a vanished row from one whose guard no longer matches.
func (r *ProductRepo) missOrConflict(ctx context.Context, id uuid.UUID) error {
	const q = `SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`
	var ok bool
	if err := r.q.QueryRow(ctx, q, id).Scan(&ok); err != nil {
		return err
	}
	if !ok {
		return errs.ErrNotFound
	}
	return errs.ErrVersionConflict
}

// ListBySeller returns all products of a seller, newest first.
func (r *ProductRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]model.Product, error) {
	const q = `SELECT ` + productCols + ` FROM products WHERE seller_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, q, sellerID)
}

// ListAvailable returns a filtered page of available products with the total match count.
func (r *ProductRepo) ListAvailable(ctx context.Context, f model.ProductFilter) ([]model.Product, int, error) {
	where := []string{"availability=$1"}
	args := []any{string(model.Available)}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Category != "" {
		add("category=$%d", f.Category)
	}
	if f.Condition != "" {
		add("condition=$%d", string(f.Condition))
	}
	if f.SellerID != uuid.Nil {
		add("seller_id=$%d", f.SellerID)
	}
	if f.MaxPrice != nil {
		add("price<=$%d", *f.MaxPrice)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := f.Page.Normalize()
	n := len(args)
	q := fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		productCols, cond, n+1, n+2)
	out, err := r.list(ctx, q, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListingStats counts the seller's products and sums their prices.
func (r *ProductRepo) ListingStats(ctx context.Context, sellerID uuid.UUID) (model.ListingStats, error) {
	const q = `SELECT COUNT(*), COALESCE(SUM(price),0) FROM products WHERE seller_id=$1`
	var st model.ListingStats
	if err := r.q.QueryRow(ctx, q, sellerID).Scan(&st.Count, &st.TotalValue); err != nil {
		return model.ListingStats{}, err
	}
	return st, nil
}

func (r *ProductRepo) list(ctx context.Context, q string, args ...any) ([]model.Product, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
