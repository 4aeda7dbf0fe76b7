package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/model"
)

// PurchaseRepo implements PurchaseRepository using PostgreSQL.
type PurchaseRepo struct{ q querier }

// NewPurchaseRepo constructs a purchase repository bound to the pool.
func NewPurchaseRepo(db *DB) *PurchaseRepo { return &PurchaseRepo{q: db.Pool} }

const purchaseCols = `id, product_id, buyer_id, seller_id, price, currency, payment_method, notes, status, purchased_at, updated_at`

func scanPurchase(row pgx.Row) (*model.Purchase, error) {
	var (
		p      model.Purchase
		method string
		status string
	)
	err := row.Scan(&p.ID, &p.ProductID, &p.BuyerID, &p.SellerID, &p.Price, &p.Currency,
		&method, &p.Notes, &status, &p.PurchasedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	p.PaymentMethod = model.PaymentMethod(method)
	p.Status = model.PurchaseStatus(status)
	return &p, nil
}

// Create inserts a purchase row.
func (r *PurchaseRepo) Create(ctx context.Context, p *model.Purchase) error {
	const q = `
INSERT INTO purchases (id, product_id, buyer_id, seller_id, price, currency, payment_method, notes, status, purchased_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := r.q.Exec(ctx, q, p.ID, p.ProductID, p.BuyerID, p.SellerID, p.Price, p.Currency,
		string(p.PaymentMethod), p.Notes, string(p.Status), p.PurchasedAt, p.UpdatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects a purchase visible to requesterID as buyer or seller.
func (r *PurchaseRepo) GetByID(ctx context.Context, id, requesterID uuid.UUID) (*model.Purchase, error) {
	const q = `SELECT ` + purchaseCols + ` FROM purchases WHERE id=$1 AND (buyer_id=$2 OR seller_id=$2)`
	return scanPurchase(r.q.QueryRow(ctx, q, id, requesterID))
}

// GetForUpdate selects a purchase and locks it.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	const q = `SELECT ` + purchaseCols + ` FROM purchases WHERE id=$1 FOR UPDATE`
	return scanPurchase(r.q.QueryRow(ctx, q, id))
}

// UpdateStatus is a compare-and-swap on the status column.
func (r *PurchaseRepo) UpdateStatus(
	ctx context.Context, id uuid.UUID, expected, next model.PurchaseStatus,
) (*model.Purchase, error) {
	const q = `
UPDATE purchases
SET status=$3, updated_at=now()
WHERE id=$1 AND status=$2
RETURNING ` + purchaseCols
	out, err := scanPurchase(r.q.QueryRow(ctx, q, id, string(expected), string(next)))
	if !errors.Is(err, errs.ErrNotFound) {
		return out, err
	}

	var ok bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM purchases WHERE id=$1)`, id).Scan(&ok); err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrNotFound
	}
	return nil, errs.ErrVersionConflict
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

// page is shared by the list queries; col is a fixed column name, never user input.
func (r *PurchaseRepo) page(
	ctx context.Context, col string, id uuid.UUID, pq model.PurchaseQuery,
) ([]model.Purchase, int, error) {
	cond := col + "=$1"
	args := []any{id}
	if pq.Status != "" {
		cond += " AND status=$2"
		args = append(args, string(pq.Status))
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM purchases WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pg := pq.Page.Normalize()
	n := len(args)
	sql := fmt.Sprintf(`SELECT %s FROM purchases WHERE %s ORDER BY purchased_at DESC LIMIT $%d OFFSET $%d`,
		purchaseCols, cond, n+1, n+2)
	rows, err := r.q.Query(ctx, sql, append(args, pg.Limit, pg.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []model.Purchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// SalesStats aggregates COMPLETED purchases of a seller since the given time.
func (r *PurchaseRepo) SalesStats(ctx context.Context, sellerID uuid.UUID, since time.Time) (model.SalesStats, error) {
	const q = `
SELECT COUNT(*), COALESCE(SUM(price),0), COUNT(DISTINCT buyer_id)
FROM purchases
WHERE seller_id=$1 AND status=$2 AND purchased_at>=$3`
	var st model.SalesStats
	err := r.q.QueryRow(ctx, q, sellerID, string(model.StatusCompleted), since).
		Scan(&st.Count, &st.Revenue, &st.UniqueBuyers)
	if err != nil {
		return model.SalesStats{}, err
	}
	return st, nil
}
