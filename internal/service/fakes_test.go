package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/limiter"
	"github.com/and161185/garagesale/internal/model"
	"github.com/and161185/garagesale/internal/repository"
)

/************ users ************/

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*model.User

	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func newFakeUsers() *fakeUsers { return &fakeUsers{byEmail: map[string]*model.User{}} }

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.byEmail[u.Email]; exists {
		return errs.ErrAlreadyExists
	}
	cpy := *u
	f.byEmail[u.Email] = &cpy
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byEmail {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) add(email string) *model.User {
	u := &model.User{ID: uuid.Must(uuid.NewV4()), Email: email, Name: email, CreatedAt: time.Now()}
	_ = f.Create(context.Background(), u)
	return u
}

/************ limiter ************/

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

/************ store ************/

// fakeStore keeps products and purchases in memory. WithinTx serializes units and
// restores a snapshot when fn fails.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	products  map[uuid.UUID]model.Product
	purchases map[uuid.UUID]model.Purchase

	createPurchaseErr error
	commits           int
	rollbacks         int
}

var _ repository.Transactor = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{products: map[uuid.UUID]model.Product{}, purchases: map[uuid.UUID]model.Purchase{}}
}

func (s *fakeStore) Products() repository.ProductRepository   { return fakeProducts{s} }
func (s *fakeStore) Purchases() repository.PurchaseRepository { return fakePurchases{s} }

func (s *fakeStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	prodSnap := make(map[uuid.UUID]model.Product, len(s.products))
	for k, v := range s.products {
		prodSnap[k] = v
	}
	purSnap := make(map[uuid.UUID]model.Purchase, len(s.purchases))
	for k, v := range s.purchases {
		purSnap[k] = v
	}
	s.mu.Unlock()

	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		s.products, s.purchases = prodSnap, purSnap
		s.rollbacks++
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.commits++
	s.mu.Unlock()
	return nil
}

func (s *fakeStore) seedProduct(seller uuid.UUID, name, price string) model.Product {
	now := time.Now()
	p := model.Product{
		ID:           uuid.Must(uuid.NewV4()),
		SellerID:     seller,
		ScanCode:     "code-" + uuid.Must(uuid.NewV4()).String(),
		Name:         name,
		Description:  name,
		Price:        decimal.RequireFromString(price),
		Currency:     "BRL",
		Condition:    model.ConditionGood,
		Availability: model.Available,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.mu.Lock()
	s.products[p.ID] = p
	s.mu.Unlock()
	return p
}

func (s *fakeStore) product(id uuid.UUID) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

func (s *fakeStore) purchaseCount(productID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.purchases {
		if p.ProductID == productID {
			n++
		}
	}
	return n
}

type fakeProducts struct{ s *fakeStore }

var _ repository.ProductRepository = fakeProducts{}

func (r fakeProducts) Create(_ context.Context, p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, ex := range r.s.products {
		if ex.ScanCode == p.ScanCode {
			return errs.ErrAlreadyExists
		}
	}
	r.s.products[p.ID] = *p
	return nil
}

func (r fakeProducts) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}

func (r fakeProducts) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.GetByID(ctx, id)
}

func (r fakeProducts) GetByScanCode(_ context.Context, code string) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.ScanCode == code {
			c := p
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r fakeProducts) UpdateDetails(_ context.Context, p *model.Product) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.products[p.ID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if cur.Version != p.Version {
		return nil, errs.ErrVersionConflict
	}
	cur.Name, cur.Description, cur.Price = p.Name, p.Description, p.Price
	cur.Category, cur.Condition, cur.ImageURL = p.Category, p.Condition, p.ImageURL
	cur.Version++
	r.s.products[p.ID] = cur
	return &cur, nil
}

func (r fakeProducts) UpdateAvailability(
	_ context.Context, id uuid.UUID, expected, next model.Availability,
) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.products[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if cur.Availability != expected {
		return nil, errs.ErrVersionConflict
	}
	cur.Availability = next
	cur.Version++
	r.s.products[id] = cur
	return &cur, nil
}

func (r fakeProducts) Delete(_ context.Context, id uuid.UUID, expected model.Availability) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.products[id]
	if !ok {
		return errs.ErrNotFound
	}
	if cur.Availability != expected {
		return errs.ErrVersionConflict
	}
	for _, pur := range r.s.purchases {
		if pur.ProductID == id {
			return errs.ErrVersionConflict
		}
	}
	delete(r.s.products, id)
	return nil
}

func (r fakeProducts) ListBySeller(_ context.Context, sellerID uuid.UUID) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Product{}
	for _, p := range r.s.products {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r fakeProducts) ListAvailable(_ context.Context, f model.ProductFilter) ([]model.Product, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := []model.Product{}
	for _, p := range r.s.products {
		if p.Availability != model.Available {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	pg := f.Page.Normalize()
	lo := min(pg.Offset(), len(all))
	hi := min(lo+pg.Limit, len(all))
	return all[lo:hi], len(all), nil
}

func (r fakeProducts) ListingStats(_ context.Context, sellerID uuid.UUID) (model.ListingStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := model.ListingStats{TotalValue: decimal.Zero}
	for _, p := range r.s.products {
		if p.SellerID == sellerID {
			st.Count++
			st.TotalValue = st.TotalValue.Add(p.Price)
		}
	}
	return st, nil
}

type fakePurchases struct{ s *fakeStore }

var _ repository.PurchaseRepository = fakePurchases{}

func (r fakePurchases) Create(_ context.Context, p *model.Purchase) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createPurchaseErr != nil {
		return r.s.createPurchaseErr
	}
	r.s.purchases[p.ID] = *p
	return nil
}

func (r fakePurchases) GetByID(_ context.Context, id, requesterID uuid.UUID) (*model.Purchase, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.purchases[id]
	if !ok || (p.BuyerID != requesterID && p.SellerID != requesterID) {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}

func (r fakePurchases) GetForUpdate(_ context.Context, id uuid.UUID) (*model.Purchase, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.purchases[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}

func (r fakePurchases) UpdateStatus(
	_ context.Context, id uuid.UUID, expected, next model.PurchaseStatus,
) (*model.Purchase, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.purchases[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if p.Status != expected {
		return nil, errs.ErrVersionConflict
	}
	p.Status = next
	r.s.purchases[id] = p
	return &p, nil
}

func (r fakePurchases) ListByBuyer(
	_ context.Context, buyerID uuid.UUID, q model.PurchaseQuery,
) ([]model.Purchase, int, error) {
	return r.filter(func(p model.Purchase) bool { return p.BuyerID == buyerID }, q)
}

func (r fakePurchases) ListBySeller(
	_ context.Context, sellerID uuid.UUID, q model.PurchaseQuery,
) ([]model.Purchase, int, error) {
	return r.filter(func(p model.Purchase) bool { return p.SellerID == sellerID }, q)
}

func (r fakePurchases) filter(keep func(model.Purchase) bool, q model.PurchaseQuery) ([]model.Purchase, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := []model.Purchase{}
	for _, p := range r.s.purchases {
		if keep(p) && (q.Status == "" || p.Status == q.Status) {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].PurchasedAt.After(all[j].PurchasedAt) })
	pg := q.Page.Normalize()
	lo := min(pg.Offset(), len(all))
	hi := min(lo+pg.Limit, len(all))
	return all[lo:hi], len(all), nil
}

func (r fakePurchases) SalesStats(_ context.Context, sellerID uuid.UUID, since time.Time) (model.SalesStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := model.SalesStats{Revenue: decimal.Zero}
	buyers := map[uuid.UUID]struct{}{}
	for _, p := range r.s.purchases {
		if p.SellerID != sellerID || p.Status != model.StatusCompleted || p.PurchasedAt.Before(since) {
			continue
		}
		st.Count++
		st.Revenue = st.Revenue.Add(p.Price)
		buyers[p.BuyerID] = struct{}{}
	}
	st.UniqueBuyers = len(buyers)
	return st, nil
}
