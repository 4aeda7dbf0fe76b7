package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/model"
)

// PurchaseRepo implements PurchaseRepository on sqlite.
type PurchaseRepo struct{ q sqlx.ExtContext }

// NewPurchaseRepo constructs a purchase repository.
func NewPurchaseRepo(db *DB) *PurchaseRepo { return &PurchaseRepo{q: db.X} }

type purchaseRow struct {
	ID            string          `db:"id"`
	ProductID     string          `db:"product_id"`
	BuyerID       string          `db:"buyer_id"`
	SellerID      string          `db:"seller_id"`
	Price         decimal.Decimal `db:"price"`
	Currency      string          `db:"currency"`
	PaymentMethod string          `db:"payment_method"`
	Notes         string          `db:"notes"`
	Status        string          `db:"status"`
	PurchasedAt   string          `db:"purchased_at"`
	UpdatedAt     string          `db:"updated_at"`
}

func (r purchaseRow) model() (model.Purchase, error) {
	p := model.Purchase{
		Price:         r.Price,
		Currency:      r.Currency,
		PaymentMethod: model.PaymentMethod(r.PaymentMethod),
		Notes:         r.Notes,
		Status:        model.PurchaseStatus(r.Status),
	}
	ids := []struct {
		dst *uuid.UUID
		src string
	}{{&p.ID, r.ID}, {&p.ProductID, r.ProductID}, {&p.BuyerID, r.BuyerID}, {&p.SellerID, r.SellerID}}
	for _, id := range ids {
		v, err := uuid.FromString(id.src)
		if err != nil {
			return model.Purchase{}, err
		}
		*id.dst = v
	}
	var err error
	if p.PurchasedAt, err = parseTime(r.PurchasedAt); err != nil {
		return model.Purchase{}, err
	}
	if p.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return model.Purchase{}, err
	}
	return p, nil
}

const purchaseCols = `id, product_id, buyer_id, seller_id, price, currency, payment_method, notes, status, purchased_at, updated_at`

// Create inserts a purchase row.
func (r *PurchaseRepo) Create(ctx context.Context, p *model.Purchase) error {
	const q = `INSERT INTO purchases (` + purchaseCols + `) VALUES (?,?,?,?,?,?,?,?,?,?,?)`
	_, err := r.q.ExecContext(ctx, q, p.ID.String(), p.ProductID.String(), p.BuyerID.String(), p.SellerID.String(),
		p.Price.StringFixed(2), p.Currency, string(p.PaymentMethod), p.Notes, string(p.Status),
		formatTime(p.PurchasedAt), formatTime(p.UpdatedAt))
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

func (r *PurchaseRepo) get(ctx context.Context, where string, args ...any) (*model.Purchase, error) {
	var row purchaseRow
	err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+purchaseCols+` FROM purchases WHERE `+where, args...)
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

// GetByID selects a purchase visible to requesterID as buyer or seller.
func (r *PurchaseRepo) GetByID(ctx context.Context, id, requesterID uuid.UUID) (*model.Purchase, error) {
	rid := requesterID.String()
	return r.get(ctx, "id=? AND (buyer_id=? OR seller_id=?)", id.String(), rid, rid)
}

// GetForUpdate selects a purchase by ID.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	return r.get(ctx, "id=?", id.String())
}

// UpdateStatus is a compare-and-swap on the status column.
func (r *PurchaseRepo) UpdateStatus(
	ctx context.Context, id uuid.UUID, expected, next model.PurchaseStatus,
) (*model.Purchase, error) {
	const q = `UPDATE purchases SET status=?, updated_at=? WHERE id=? AND status=?`
	res, err := r.q.ExecContext(ctx, q, string(next), formatTime(time.Now()), id.String(), string(expected))
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	p, err := r.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errs.ErrVersionConflict
	}
	return p, nil
}

// ListByBuyer returns a page of the buyer's purchases.
func (r *PurchaseRepo) ListByBuyer(
	ctx context.Context, buyerID uuid.UUID, q model.PurchaseQuery,
) ([]model.Purchase, int, error) {
	return r.page(ctx, "buyer_id", buyerID, q)
}

// ListBySeller returns a page of the seller's sales.
func (r *PurchaseRepo) ListBySeller(
	ctx context.Context, sellerID uuid.UUID, q model.PurchaseQuery,
) ([]model.Purchase, int, error) {
	return r.page(ctx, "seller_id", sellerID, q)
}

func (r *PurchaseRepo) page(
	ctx context.Context, col string, id uuid.UUID, pq model.PurchaseQuery,
) ([]model.Purchase, int, error) {
	cond := col + "=?"
	args := []any{id.String()}
	if pq.Status != "" {
		cond += " AND status=?"
		args = append(args, string(pq.Status))
	}

	var total int
	if err := sqlx.GetContext(ctx, r.q, &total, `SELECT COUNT(*) FROM purchases WHERE `+cond, args...); err != nil {
		return nil, 0, err
	}

	pg := pq.Page.Normalize()
	var rows []purchaseRow
	q := `SELECT ` + purchaseCols + ` FROM purchases WHERE ` + cond + ` ORDER BY purchased_at DESC LIMIT ? OFFSET ?`
	if err := sqlx.SelectContext(ctx, r.q, &rows, q, append(args, pg.Limit, pg.Offset())...); err != nil {
		return nil, 0, err
	}
	out := make([]model.Purchase, 0, len(rows))
	for _, row := range rows {
		p, err := row.model()
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, nil
}

// SalesStats aggregates COMPLETED purchases of a seller since the given time.
func (r *PurchaseRepo) SalesStats(ctx context.Context, sellerID uuid.UUID, since time.Time) (model.SalesStats, error) {
	const where = ` FROM purchases WHERE seller_id=? AND status=? AND purchased_at>=?`
	args := []any{sellerID.String(), string(model.StatusCompleted), formatTime(since)}

	var prices []decimal.Decimal
	if err := sqlx.SelectContext(ctx, r.q, &prices, `SELECT price`+where, args...); err != nil {
		return model.SalesStats{}, err
	}
	var buyers int
	if err := sqlx.GetContext(ctx, r.q, &buyers, `SELECT COUNT(DISTINCT buyer_id)`+where, args...); err != nil {
		return model.SalesStats{}, err
	}
	return model.SalesStats{Count: len(prices), Revenue: sum(prices), UniqueBuyers: buyers}, nil
}
