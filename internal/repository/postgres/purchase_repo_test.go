package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/model"
	"github.com/and161185/garagesale/internal/repository"
)

var purchaseColumns = []string{
	"id", "product_id", "buyer_id", "seller_id", "price", "currency", "payment_method", "notes",
	"status", "purchased_at", "updated_at",
}

func purchaseRow(rows *pgxmock.Rows, id, buyer, seller uuid.UUID, st model.PurchaseStatus) *pgxmock.Rows {
	now := time.Now().UTC()
	return rows.AddRow(id, uuid.Must(uuid.NewV4()), buyer, seller, decimal.RequireFromString("50.00"),
		"BRL", "PIX", "", string(st), now, now)
}

func TestPurchaseRepo_GetByID_Visibility(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewPurchaseRepo(db)
	ctx := context.Background()
	id, buyer, seller := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	mock.ExpectQuery(regexp.QuoteMeta(`FROM purchases WHERE id=$1 AND (buyer_id=$2 OR seller_id=$2)`)).
		WithArgs(id, buyer).
		WillReturnRows(purchaseRow(pgxmock.NewRows(purchaseColumns), id, buyer, seller, model.StatusPending))
	p, err := r.GetByID(ctx, id, buyer)
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, p.Status)
	require.Equal(t, model.PaymentPix, p.PaymentMethod)

	stranger := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(regexp.QuoteMeta(`FROM purchases WHERE id=$1 AND (buyer_id=$2 OR seller_id=$2)`)).
		WithArgs(id, stranger).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByID(ctx, id, stranger)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestPurchaseRepo_UpdateStatus(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewPurchaseRepo(db)
	ctx := context.Background()
	id, buyer, seller := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE purchases SET status=$3, updated_at=now() WHERE id=$1 AND status=$2`)).
		WithArgs(id, "PENDING", "COMPLETED").
		WillReturnRows(purchaseRow(pgxmock.NewRows(purchaseColumns), id, buyer, seller, model.StatusCompleted))
	p, err := r.UpdateStatus(ctx, id, model.StatusPending, model.StatusCompleted)
	require.NoError(t, err)
	require.Equal(t, model.StatusCompleted, p.Status)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE purchases SET status=$3`)).
		WithArgs(id, "PENDING", "CANCELLED").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM purchases WHERE id=$1)`)).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	_, err = r.UpdateStatus(ctx, id, model.StatusPending, model.StatusCancelled)
	require.ErrorIs(t, err, errs.ErrVersionConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseRepo_ListByBuyer_StatusFilter(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewPurchaseRepo(db)
	buyer, seller := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM purchases WHERE buyer_id=$1 AND status=$2`)).
		WithArgs(buyer, "COMPLETED").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(21))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY purchased_at DESC LIMIT $3 OFFSET $4`)).
		WithArgs(buyer, "COMPLETED", 20, 20).
		WillReturnRows(purchaseRow(pgxmock.NewRows(purchaseColumns), uuid.Must(uuid.NewV4()), buyer, seller, model.StatusCompleted))

	out, total, err := r.ListByBuyer(context.Background(), buyer, model.PurchaseQuery{
		Page:   model.PageQuery{Page: 2},
		Status: model.StatusCompleted,
	})
	require.NoError(t, err)
	require.Equal(t, 21, total)
	require.Len(t, out, 1)
}

func TestPurchaseRepo_ListBySeller_ClampsLimit(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewPurchaseRepo(db)
	seller := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM purchases WHERE seller_id=$1`)).
		WithArgs(seller).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT $2 OFFSET $3`)).
		WithArgs(seller, model.MaxLimit, 0).
		WillReturnRows(pgxmock.NewRows(purchaseColumns))

	out, total, err := r.ListBySeller(context.Background(), seller, model.PurchaseQuery{
		Page: model.PageQuery{Page: 1, Limit: 1000},
	})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, out)
}

func TestPurchaseRepo_SalesStats(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewPurchaseRepo(db)
	seller := uuid.Must(uuid.NewV4())
	since := time.Now().Add(-24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*), COALESCE(SUM(price),0), COUNT(DISTINCT buyer_id)`)).
		WithArgs(seller, "COMPLETED", since).
		WillReturnRows(pgxmock.NewRows([]string{"count", "sum", "buyers"}).
			AddRow(3, decimal.RequireFromString("120.00"), 2))
	st, err := r.SalesStats(context.Background(), seller, since)
	require.NoError(t, err)
	require.Equal(t, 3, st.Count)
	require.Equal(t, 2, st.UniqueBuyers)
	require.Equal(t, "120.00", st.Revenue.StringFixed(2))
}

func TestDB_WithinTx_CommitAndRollback(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	ctx := context.Background()
	id, seller := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE id=$1 FOR UPDATE`)).
		WithArgs(id).
		WillReturnRows(productRow(pgxmock.NewRows(productColumns), id, seller, model.Available, 1))
	mock.ExpectCommit()

	err := db.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		_, err := tx.Products().GetForUpdate(ctx, id)
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	err = db.WithinTx(ctx, func(context.Context, repository.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
