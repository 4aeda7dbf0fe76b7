package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/model"
)

// ProductRepo implements ProductRepository on sqlite.
type ProductRepo struct{ q sqlx.ExtContext }

// NewProductRepo constructs a product repository.
func NewProductRepo(db *DB) *ProductRepo { return &ProductRepo{q: db.X} }

type productRow struct {
	ID           string          `db:"id"`
	SellerID     string          `db:"seller_id"`
	ScanCode     string          `db:"scan_code"`
	Name         string          `db:"name"`
	Description  string          `db:"description"`
	Price        decimal.Decimal `db:"price"`
	Currency     string          `db:"currency"`
	Category     string          `db:"category"`
	Condition    string          `db:"condition"`
	ImageURL     string          `db:"image_url"`
	Availability string          `db:"availability"`
	Version      int64           `db:"version"`
	CreatedAt    string          `db:"created_at"`
	UpdatedAt    string          `db:"updated_at"`
}

func (r productRow) model() (model.Product, error) {
	p := model.Product{
		ScanCode:     r.ScanCode,
		Name:         r.Name,
		Description:  r.Description,
		Price:        r.Price,
		Currency:     r.Currency,
		Category:     r.Category,
		Condition:    model.Condition(r.Condition),
		ImageURL:     r.ImageURL,
		Availability: model.Availability(r.Availability),
		Version:      r.Version,
	}
	var err error
	if p.ID, err = uuid.FromString(r.ID); err != nil {
		return model.Product{}, err
	}
	if p.SellerID, err = uuid.FromString(r.SellerID); err != nil {
		return model.Product{}, err
	}
	if p.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return model.Product{}, err
	}
	if p.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return model.Product{}, err
	}
	return p, nil
}

const productCols = `id, seller_id, scan_code, name, description, price, currency, category, condition, image_url, availability, version, created_at, updated_at`

// Create inserts a new product row.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	const q = `
INSERT INTO products (` + productCols + `)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	_, err := r.q.ExecContext(ctx, q, p.ID.String(), p.SellerID.String(), p.ScanCode, p.Name, p.Description,
		p.Price.StringFixed(2), p.Currency, p.Category, string(p.Condition), p.ImageURL,
		string(p.Availability), p.Version, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

func (r *ProductRepo) get(ctx context.Context, where string, arg any) (*model.Product, error) {
	var row productRow
	err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+productCols+` FROM products WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p, err := row.model()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID selects a product by ID.
func (r *ProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.get(ctx, "id=?", id.String())
}

// GetForUpdate is GetByID; the single connection already serializes transactions.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.GetByID(ctx, id)
}

// GetByScanCode selects a product by its label code.
func (r *ProductRepo) GetByScanCode(ctx context.Context, code string) (*model.Product, error) {
	return r.get(ctx, "scan_code=?", code)
}

// UpdateDetails writes descriptive fields with a version check.
func (r *ProductRepo) UpdateDetails(ctx context.Context, p *model.Product) (*model.Product, error) {
	const q = `
UPDATE products
SET name=?, description=?, price=?, category=?, condition=?, image_url=?, version=version+1, updated_at=?
WHERE id=? AND version=?`
	res, err := r.q.ExecContext(ctx, q, p.Name, p.Description, p.Price.StringFixed(2), p.Category,
		string(p.Condition), p.ImageURL, formatTime(time.Now()), p.ID.String(), p.Version)
	if err != nil {
		return nil, err
	}
	return r.afterCAS(ctx, res, p.ID)
}

// UpdateAvailability is a compare-and-swap on the availability column.
func (r *ProductRepo) UpdateAvailability(
	ctx context.Context, id uuid.UUID, expected, next model.Availability,
) (*model.Product, error) {
	const q = `
UPDATE products
SET availability=?, version=version+1, updated_at=?
WHERE id=? AND availability=?`
	res, err := r.q.ExecContext(ctx, q, string(next), formatTime(time.Now()), id.String(), string(expected))
	if err != nil {
		return nil, err
	}
	return r.afterCAS(ctx, res, id)
}

// Delete removes an unpurchased product guarded by its availability.
func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID, expected model.Availability) error {
	const q = `
DELETE FROM products
WHERE id=? AND availability=?
  AND NOT EXISTS (SELECT 1 FROM purchases WHERE product_id=?)`
	res, err := r.q.ExecContext(ctx, q, id.String(), string(expected), id.String())
	if isForeignKeyViolation(err) {
		return errs.ErrVersionConflict
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return errs.ErrVersionConflict
}

// afterCAS returns the fresh row, or tells a missing row from a lost race.
func (r *ProductRepo) afterCAS(ctx context.Context, res sql.Result, id uuid.UUID) (*model.Product, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errs.ErrVersionConflict
	}
	return p, nil
}

// ListBySeller returns all products of a seller, newest first.
func (r *ProductRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]model.Product, error) {
	const q = `SELECT ` + productCols + ` FROM products WHERE seller_id=? ORDER BY created_at DESC`
	return r.list(ctx, q, sellerID.String())
}

// ListAvailable returns a filtered page of available products with the total match count.
func (r *ProductRepo) ListAvailable(ctx context.Context, f model.ProductFilter) ([]model.Product, int, error) {
	where := []string{"availability=?"}
	args := []any{string(model.Available)}
	if f.Category != "" {
		where = append(where, "category=?")
		args = append(args, f.Category)
	}
	if f.Condition != "" {
		where = append(where, "condition=?")
		args = append(args, string(f.Condition))
	}
	if f.SellerID != uuid.Nil {
		where = append(where, "seller_id=?")
		args = append(args, f.SellerID.String())
	}
	if f.MaxPrice != nil {
		// prices are stored as fixed two-decimal text
		where = append(where, "CAST(price AS REAL) <= CAST(? AS REAL)")
		args = append(args, f.MaxPrice.StringFixed(2))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := sqlx.GetContext(ctx, r.q, &total, `SELECT COUNT(*) FROM products WHERE `+cond, args...); err != nil {
		return nil, 0, err
	}

	page := f.Page.Normalize()
	q := `SELECT ` + productCols + ` FROM products WHERE ` + cond + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	out, err := r.list(ctx, q, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListingStats counts the seller's products and sums their prices.
func (r *ProductRepo) ListingStats(ctx context.Context, sellerID uuid.UUID) (model.ListingStats, error) {
	var prices []decimal.Decimal
	if err := sqlx.SelectContext(ctx, r.q, &prices, `SELECT price FROM products WHERE seller_id=?`, sellerID.String()); err != nil {
		return model.ListingStats{}, err
	}
	return model.ListingStats{Count: len(prices), TotalValue: sum(prices)}, nil
}

func (r *ProductRepo) list(ctx context.Context, q string, args ...any) ([]model.Product, error) {
	var rows []productRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, q, args...); err != nil {
		return nil, err
	}
	out := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		p, err := row.model()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func sum(ds []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, d := range ds {
		total = total.Add(d)
	}
	return total
}
