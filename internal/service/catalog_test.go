package service

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/model"
)

func newCatalog(t *testing.T) (*CatalogServiceImpl, *fakeStore) {
	t.Helper()
	st := newFakeStore()
	return NewCatalogService(st.Products(), "", zaptest.NewLogger(t)), st
}

func TestCatalog_Create_DefaultsAndValidation(t *testing.T) {
	t.Parallel()
	s, _ := newCatalog(t)
	ctx := context.Background()
	seller := uuid.Must(uuid.NewV4())

	p, err := s.Create(ctx, seller, model.NewProduct{
		Name:        "  Vintage Lamp ",
		Description: "Brass, works",
		Price:       decimal.RequireFromString("50.00"),
	})
	require.NoError(t, err)
	require.Equal(t, "Vintage Lamp", p.Name)
	require.Equal(t, "BRL", p.Currency)
	require.Equal(t, model.ConditionGood, p.Condition)
	require.Equal(t, model.Available, p.Availability)
	require.NotEmpty(t, p.ScanCode)
	require.NotEqual(t, p.ID.String(), p.ScanCode)

	bad := []model.NewProduct{
		{Name: "", Description: "d", Price: decimal.NewFromInt(1)},
		{Name: "n", Description: "", Price: decimal.NewFromInt(1)},
		{Name: "n", Description: "d", Price: decimal.Zero},
		{Name: "n", Description: "d", Price: decimal.RequireFromString("-3")},
		{Name: "n", Description: "d", Price: decimal.RequireFromString("1.999")},
		{Name: "n", Description: "d", Price: decimal.NewFromInt(1), Currency: "reais"},
		{Name: "n", Description: "d", Price: decimal.NewFromInt(1), Condition: "BROKEN"},
		{Name: "n", Description: "d", Price: decimal.NewFromInt(1), ImageURL: "ftp://x/y.png"},
	}
	for i, in := range bad {
		_, err := s.Create(ctx, seller, in)
		require.ErrorIs(t, err, errs.ErrValidation, "case %d", i)
	}
}

func TestCatalog_Update_OwnerOnlyAndNotAfterSold(t *testing.T) {
	t.Parallel()
	s, st := newCatalog(t)
	ctx := context.Background()
	seller := uuid.Must(uuid.NewV4())
	p := st.seedProduct(seller, "Bike", "100.00")

	price := decimal.RequireFromString("80.00")
	_, err := s.Update(ctx, uuid.Must(uuid.NewV4()), p.ID, model.ProductPatch{Price: &price})
	require.ErrorIs(t, err, errs.ErrForbidden)

	out, err := s.Update(ctx, seller, p.ID, model.ProductPatch{Price: &price})
	require.NoError(t, err)
	require.True(t, price.Equal(out.Price))
	require.Equal(t, model.Available, out.Availability)

	_, err = s.MarkSold(ctx, seller, p.ID)
	require.NoError(t, err)
	_, err = s.Update(ctx, seller, p.ID, model.ProductPatch{Price: &price})
	require.ErrorIs(t, err, errs.ErrConflict)

	_, err = s.Update(ctx, seller, uuid.Must(uuid.NewV4()), model.ProductPatch{})
	require.ErrorIs(t, err, errs.ErrProductNotFound)
}

func TestCatalog_ReservationFlow(t *testing.T) {
	t.Parallel()
	s, st := newCatalog(t)
	ctx := context.Background()
	seller, other := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	p := st.seedProduct(seller, "Chair", "20.00")

	got, err := s.Reserve(ctx, other, p.ID)
	require.NoError(t, err)
	require.Equal(t, model.Reserved, got.Availability)

	_, err = s.Reserve(ctx, other, p.ID)
	require.ErrorIs(t, err, errs.ErrConflict)
	require.Contains(t, err.Error(), "already reserved")

	_, err = s.Unreserve(ctx, other, p.ID)
	require.ErrorIs(t, err, errs.ErrForbidden)
	require.Equal(t, "not authorized", errs.Public(err))

	got, err = s.Unreserve(ctx, seller, p.ID)
	require.NoError(t, err)
	require.Equal(t, model.Available, got.Availability)

	got, err = s.MarkSold(ctx, seller, p.ID)
	require.NoError(t, err)
	require.Equal(t, model.Sold, got.Availability)

	for _, act := range []func(context.Context, uuid.UUID, uuid.UUID) (*model.Product, error){s.Reserve, s.Unreserve, s.MarkSold} {
		_, err := act(ctx, seller, p.ID)
		require.ErrorIs(t, err, errs.ErrConflict)
	}
	require.Equal(t, model.Sold, st.product(p.ID).Availability)
}

func TestCatalog_OwnershipCheckedBeforeState(t *testing.T) {
	t.Parallel()
	s, st := newCatalog(t)
	p := st.seedProduct(uuid.Must(uuid.NewV4()), "Desk", "30.00")

	// unreserve on an Available product by a stranger is a permission problem first
	_, err := s.Unreserve(context.Background(), uuid.Must(uuid.NewV4()), p.ID)
	require.ErrorIs(t, err, errs.ErrForbidden)
}

func TestCatalog_SellerMayReserveOwnProduct(t *testing.T) {
	t.Parallel()
	s, st := newCatalog(t)
	seller := uuid.Must(uuid.NewV4())
	p := st.seedProduct(seller, "Desk", "30.00")

	got, err := s.Reserve(context.Background(), seller, p.ID)
	require.NoError(t, err)
	require.Equal(t, model.Reserved, got.Availability)
}

func TestCatalog_Actions_UnknownProduct(t *testing.T) {
	t.Parallel()
	s, _ := newCatalog(t)
	ctx := context.Background()

	_, err := s.Reserve(ctx, uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()))
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.Equal(t, "product not found", errs.Public(err))

	_, err = s.Reserve(ctx, uuid.Must(uuid.NewV4()), uuid.Nil)
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestCatalog_Delete(t *testing.T) {
	t.Parallel()
	s, st := newCatalog(t)
	ctx := context.Background()
	seller := uuid.Must(uuid.NewV4())

	p := st.seedProduct(seller, "Chair", "30.00")
	require.ErrorIs(t, s.Delete(ctx, uuid.Must(uuid.NewV4()), p.ID), errs.ErrForbidden)
	require.NoError(t, s.Delete(ctx, seller, p.ID))
	_, err := s.Get(ctx, p.ID)
	require.ErrorIs(t, err, errs.ErrProductNotFound)
	require.ErrorIs(t, s.Delete(ctx, seller, p.ID), errs.ErrProductNotFound)

	held := st.seedProduct(seller, "Desk", "60.00")
	_, err = s.Reserve(ctx, uuid.Must(uuid.NewV4()), held.ID)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, seller, held.ID))

	sold := st.seedProduct(seller, "Sofa", "90.00")
	_, err = s.MarkSold(ctx, seller, sold.ID)
	require.NoError(t, err)
	err = s.Delete(ctx, seller, sold.ID)
	require.ErrorIs(t, err, errs.ErrConflict)
	require.Equal(t, "cannot delete: product is already sold", errs.Public(err))

	pending := st.seedProduct(seller, "Lamp", "20.00")
	_, err = st.Products().UpdateAvailability(ctx, pending.ID, model.Available, model.PendingPurchase)
	require.NoError(t, err)
	err = s.Delete(ctx, seller, pending.ID)
	require.Equal(t, "cannot delete: product is pending purchase", errs.Public(err))

	// released after a cancelled purchase, but the record still points at it
	released := st.seedProduct(seller, "Rug", "15.00")
	pid := uuid.Must(uuid.NewV4())
	st.mu.Lock()
	st.purchases[pid] = model.Purchase{ID: pid, ProductID: released.ID, SellerID: seller, Status: model.StatusCancelled}
	st.mu.Unlock()
	err = s.Delete(ctx, seller, released.ID)
	require.ErrorIs(t, err, errs.ErrHasPurchases)
	require.Equal(t, model.Available, st.product(released.ID).Availability)
}

func TestCatalog_ListAvailable_Pagination(t *testing.T) {
	t.Parallel()
	s, st := newCatalog(t)
	ctx := context.Background()
	seller := uuid.Must(uuid.NewV4())
	for i := 0; i < 5; i++ {
		st.seedProduct(seller, "Item", "10.00")
	}
	reserved := st.seedProduct(seller, "Held", "10.00")
	_, err := s.Reserve(ctx, uuid.Must(uuid.NewV4()), reserved.ID)
	require.NoError(t, err)

	page, err := s.ListAvailable(ctx, model.ProductFilter{Page: model.PageQuery{Page: 2, Limit: 2}})
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	require.Equal(t, model.Pagination{Page: 2, Limit: 2, Total: 5, TotalPages: 3}, page.Pagination)

	page, err = s.ListAvailable(ctx, model.ProductFilter{})
	require.NoError(t, err)
	require.Equal(t, model.DefaultLimit, page.Pagination.Limit)

	_, err = s.ListAvailable(ctx, model.ProductFilter{Condition: "MINT"})
	require.ErrorIs(t, err, errs.ErrValidation)

	mine, err := s.ListBySeller(ctx, seller)
	require.NoError(t, err)
	require.Len(t, mine, 6)
}
