package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/model"
)

var productColumns = []string{
	"id", "seller_id", "scan_code", "name", "description", "price", "currency", "category",
	"condition", "image_url", "availability", "version", "created_at", "updated_at",
}

func productRow(rows *pgxmock.Rows, id, seller uuid.UUID, avail model.Availability, ver int64) *pgxmock.Rows {
	now := time.Now().UTC()
	return rows.AddRow(id, seller, "code-"+id.String()[:8], "Lamp", "Brass desk lamp",
		decimal.RequireFromString("25.50"), "BRL", "home", "GOOD", "", string(avail), ver, now, now)
}

func TestProductRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()
	p := &model.Product{
		ID:           uuid.Must(uuid.NewV4()),
		SellerID:     uuid.Must(uuid.NewV4()),
		ScanCode:     "abc",
		Name:         "Lamp",
		Description:  "Brass desk lamp",
		Price:        decimal.RequireFromString("25.50"),
		Currency:     "BRL",
		Condition:    model.ConditionGood,
		Availability: model.Available,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO products (id, seller_id, scan_code,`)).
		WithArgs(p.ID, p.SellerID, "abc", "Lamp", "Brass desk lamp", pgxmock.AnyArg(), "BRL",
			"", "GOOD", "", "AVAILABLE", int64(1), now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, p))

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO products`)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Create(ctx, p), errs.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepo_GetByID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)
	ctx := context.Background()
	id, seller := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE id=$1`)).
		WithArgs(id).
		WillReturnRows(productRow(pgxmock.NewRows(productColumns), id, seller, model.Reserved, 3))
	p, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, seller, p.SellerID)
	require.Equal(t, model.Reserved, p.Availability)
	require.Equal(t, model.ConditionGood, p.Condition)
	require.True(t, decimal.RequireFromString("25.5").Equal(p.Price))
	require.Equal(t, int64(3), p.Version)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE id=$1`)).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByID(ctx, id)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestProductRepo_GetForUpdate_LocksRow(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)
	id, seller := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE id=$1 FOR UPDATE`)).
		WithArgs(id).
		WillReturnRows(productRow(pgxmock.NewRows(productColumns), id, seller, model.Available, 1))
	p, err := r.GetForUpdate(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, id, p.ID)
}

func TestProductRepo_GetByScanCode(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)
	id, seller := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE scan_code=$1`)).
		WithArgs("label-1").
		WillReturnRows(productRow(pgxmock.NewRows(productColumns), id, seller, model.Available, 1))
	p, err := r.GetByScanCode(context.Background(), "label-1")
	require.NoError(t, err)
	require.Equal(t, id, p.ID)
}

func TestProductRepo_UpdateAvailability_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)
	id, seller := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE products SET availability=$3, version=version+1, updated_at=now() WHERE id=$1 AND availability=$2`)).
		WithArgs(id, "AVAILABLE", "RESERVED").
		WillReturnRows(productRow(pgxmock.NewRows(productColumns), id, seller, model.Reserved, 2))
	p, err := r.UpdateAvailability(context.Background(), id, model.Available, model.Reserved)
	require.NoError(t, err)
	require.Equal(t, model.Reserved, p.Availability)
	require.Equal(t, int64(2), p.Version)
}

func TestProductRepo_UpdateAvailability_Conflict(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE products SET availability=$3`)).
		WithArgs(id, "AVAILABLE", "PENDING_PURCHASE").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`)).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	_, err := r.UpdateAvailability(context.Background(), id, model.Available, model.PendingPurchase)
	require.ErrorIs(t, err, errs.ErrVersionConflict)
	require.ErrorIs(t, err, errs.ErrConflict)
}

func TestProductRepo_UpdateAvailability_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE products SET availability=$3`)).
		WithArgs(id, "RESERVED", "AVAILABLE").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	_, err := r.UpdateAvailability(context.Background(), id, model.Reserved, model.Available)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestProductRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	const del = `DELETE FROM products WHERE id=$1 AND availability=$2 AND NOT EXISTS (SELECT 1 FROM purchases WHERE product_id=$1)`

	mock.ExpectExec(regexp.QuoteMeta(del)).
		WithArgs(id, "RESERVED").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(ctx, id, model.Reserved))

	// guard failed on a row that still exists
	mock.ExpectExec(regexp.QuoteMeta(del)).
		WithArgs(id, "AVAILABLE").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	require.ErrorIs(t, r.Delete(ctx, id, model.Available), errs.ErrVersionConflict)

	mock.ExpectExec(regexp.QuoteMeta(del)).
		WithArgs(id, "AVAILABLE").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	require.ErrorIs(t, r.Delete(ctx, id, model.Available), errs.ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta(del)).
		WithArgs(id, "AVAILABLE").
		WillReturnError(&pgconn.PgError{Code: "23503"})
	require.ErrorIs(t, r.Delete(ctx, id, model.Available), errs.ErrVersionConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepo_UpdateDetails_VersionConflict(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)
	p := &model.Product{ID: uuid.Must(uuid.NewV4()), Version: 4, Name: "Lamp", Condition: model.ConditionFair}

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE products SET name=$3`)).
		WithArgs(p.ID, int64(4), "Lamp", "", pgxmock.AnyArg(), "", "FAIR", "").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
		WithArgs(p.ID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	_, err := r.UpdateDetails(context.Background(), p)
	require.ErrorIs(t, err, errs.ErrVersionConflict)
}

func TestProductRepo_ListAvailable_Filters(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)
	seller := uuid.Must(uuid.NewV4())
	maxPrice := decimal.RequireFromString("30")

	f := model.ProductFilter{
		Category: "home",
		SellerID: seller,
		MaxPrice: &maxPrice,
		Page:     model.PageQuery{Page: 2, Limit: 1},
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM products WHERE availability=$1 AND category=$2 AND seller_id=$3 AND price<=$4`)).
		WithArgs("AVAILABLE", "home", seller, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC LIMIT $5 OFFSET $6`)).
		WithArgs("AVAILABLE", "home", seller, pgxmock.AnyArg(), 1, 1).
		WillReturnRows(productRow(pgxmock.NewRows(productColumns), uuid.Must(uuid.NewV4()), seller, model.Available, 1))

	out, total, err := r.ListAvailable(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, out, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepo_ListBySeller_Empty(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)
	seller := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE seller_id=$1 ORDER BY created_at DESC`)).
		WithArgs(seller).
		WillReturnRows(pgxmock.NewRows(productColumns))
	out, err := r.ListBySeller(context.Background(), seller)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Empty(t, out)
}

func TestProductRepo_ListingStats(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)
	seller := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*), COALESCE(SUM(price),0) FROM products WHERE seller_id=$1`)).
		WithArgs(seller).
		WillReturnRows(pgxmock.NewRows([]string{"count", "sum"}).AddRow(2, decimal.RequireFromString("75.25")))
	st, err := r.ListingStats(context.Background(), seller)
	require.NoError(t, err)
	require.Equal(t, 2, st.Count)
	require.Equal(t, "75.25", st.TotalValue.StringFixed(2))
}
