package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/lifecycle"
	"github.com/and161185/garagesale/internal/model"
	"github.com/and161185/garagesale/internal/repository"
)

// DefaultMaxNotesLen bounds purchase notes when no limit is configured.
const DefaultMaxNotesLen = 500

// PurchaseService is the transaction coordinator plus the purchase read side.
type PurchaseService interface {
	// Initiate creates a PENDING purchase and takes the product off the market in one atomic unit.
	Initiate(ctx context.Context, buyerID uuid.UUID, in model.NewPurchase) (*model.Purchase, error)
	// Get returns a purchase visible to requesterID (buyer or seller), NotFound otherwise.
	Get(ctx context.Context, requesterID, id uuid.UUID) (*model.Purchase, error)
	// ListPurchases returns the buyer's purchases, newest first.
	ListPurchases(ctx context.Context, buyerID uuid.UUID, q model.PurchaseQuery) (model.PurchasePage, error)
	// ListSales returns the seller's sales, newest first.
	ListSales(ctx context.Context, sellerID uuid.UUID, q model.PurchaseQuery) (model.PurchasePage, error)
	// Complete finalizes a PENDING purchase; seller only.
	Complete(ctx context.Context, actorID, id uuid.UUID) (*model.Purchase, error)
	// Cancel aborts a PENDING purchase and releases the product; buyer or seller.
	Cancel(ctx context.Context, actorID, id uuid.UUID) (*model.Purchase, error)
	// Refund reverses a COMPLETED purchase and releases the product; seller only.
	Refund(ctx context.Context, actorID, id uuid.UUID) (*model.Purchase, error)
}

type PurchaseServiceImpl struct {
	tx        repository.Transactor
	users     repository.UserRepository
	purchases repository.PurchaseRepository
	maxNotes  int
	log       *zap.Logger
	now       func() time.Time
}

var _ PurchaseService = (*PurchaseServiceImpl)(nil)

// NewPurchaseService constructs the coordinator. maxNotes <= 0 selects DefaultMaxNotesLen.
func NewPurchaseService(
	tx repository.Transactor,
	users repository.UserRepository,
	purchases repository.PurchaseRepository,
	maxNotes int,
	log *zap.Logger,
) *PurchaseServiceImpl {
	if maxNotes <= 0 {
		maxNotes = DefaultMaxNotesLen
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PurchaseServiceImpl{
		tx:        tx,
		users:     users,
		purchases: purchases,
		maxNotes:  maxNotes,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Initiate validates input, then checks every product precondition inside the transaction.
func (s *PurchaseServiceImpl) Initiate(ctx context.Context, buyerID uuid.UUID, in model.NewPurchase) (*model.Purchase, error) {
	if in.ProductID == uuid.Nil {
		return nil, errs.Validationf("productId is required")
	}
	if buyerID == uuid.Nil {
		return nil, errs.Validationf("empty buyer id")
	}
	if !in.PaymentMethod.Valid() {
		return nil, errs.Validationf("unknown payment method %q", in.PaymentMethod)
	}
	if len([]rune(in.Notes)) > s.maxNotes {
		return nil, errs.Validationf("notes must be at most %d characters", s.maxNotes)
	}
	if _, err := s.users.GetByID(ctx, buyerID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, err
	}

	var out *model.Purchase
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		p, err := tx.Products().GetForUpdate(ctx, in.ProductID)
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrProductNotFound
		}
		if err != nil {
			return err
		}
		if p.Availability != model.Available {
			return errs.ErrProductUnavailable
		}
		if p.SellerID == buyerID {
			return errs.ErrSelfPurchase
		}
		next, err := lifecycle.Next(p.Availability, lifecycle.ActionPurchase)
		if err != nil {
			return err
		}

		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		now := s.now()
		pur := &model.Purchase{
			ID:            id,
			ProductID:     p.ID,
			BuyerID:       buyerID,
			SellerID:      p.SellerID,
			Price:         p.Price,
			Currency:      p.Currency,
			PaymentMethod: in.PaymentMethod,
			Notes:         in.Notes,
			Status:        model.StatusPending,
			PurchasedAt:   now,
			UpdatedAt:     now,
		}
		if err := tx.Purchases().Create(ctx, pur); err != nil {
			if errors.Is(err, errs.ErrAlreadyExists) {
				return errs.ErrProductUnavailable
			}
			return err
		}
		if _, err := tx.Products().UpdateAvailability(ctx, p.ID, p.Availability, next); err != nil {
			if errors.Is(err, errs.ErrVersionConflict) || errors.Is(err, errs.ErrNotFound) {
				return errs.ErrProductUnavailable
			}
			return err
		}
		out = pur
		return nil
	})
	if err != nil {
		if errs.KindOf(err) == errs.ErrConflict {
			s.log.Debug("purchase rejected",
				zap.String("product_id", in.ProductID.String()),
				zap.String("buyer_id", buyerID.String()),
				zap.String("reason", err.Error()),
			)
		}
		return nil, err
	}

	s.log.Info("purchase initiated",
		zap.String("purchase_id", out.ID.String()),
		zap.String("product_id", out.ProductID.String()),
		zap.String("buyer_id", buyerID.String()),
		zap.String("seller_id", out.SellerID.String()),
	)
	return out, nil
}

// Get returns a purchase if requesterID is a party to it.
func (s *PurchaseServiceImpl) Get(ctx context.Context, requesterID, id uuid.UUID) (*model.Purchase, error) {
	if id == uuid.Nil {
		return nil, errs.Validationf("purchase id is required")
	}
	p, err := s.purchases.GetByID(ctx, id, requesterID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrPurchaseNotFound
	}
	return p, err
}

// ListPurchases returns a page of the buyer's purchases.
func (s *PurchaseServiceImpl) ListPurchases(
	ctx context.Context, buyerID uuid.UUID, q model.PurchaseQuery,
) (model.PurchasePage, error) {
	return s.list(ctx, buyerID, q, s.purchases.ListByBuyer)
}

// ListSales returns a page of the seller's sales.
func (s *PurchaseServiceImpl) ListSales(
	ctx context.Context, sellerID uuid.UUID, q model.PurchaseQuery,
) (model.PurchasePage, error) {
	return s.list(ctx, sellerID, q, s.purchases.ListBySeller)
}

type listFn func(context.Context, uuid.UUID, model.PurchaseQuery) ([]model.Purchase, int, error)

func (s *PurchaseServiceImpl) list(
	ctx context.Context, userID uuid.UUID, q model.PurchaseQuery, fetch listFn,
) (model.PurchasePage, error) {
	if q.Status != "" && !q.Status.Valid() {
		return model.PurchasePage{}, errs.Validationf("unknown status %q", q.Status)
	}
	q.Page = q.Page.Normalize()
	items, total, err := fetch(ctx, userID, q)
	if err != nil {
		return model.PurchasePage{}, err
	}
	return model.PurchasePage{Purchases: items, Pagination: model.NewPagination(q.Page, total)}, nil
}

// Complete moves PENDING to COMPLETED. The product stays pending-purchase.
func (s *PurchaseServiceImpl) Complete(ctx context.Context, actorID, id uuid.UUID) (*model.Purchase, error) {
	return s.advance(ctx, actorID, id, lifecycle.StatusComplete)
}

// Cancel moves PENDING to CANCELLED and returns the product to Available.
func (s *PurchaseServiceImpl) Cancel(ctx context.Context, actorID, id uuid.UUID) (*model.Purchase, error) {
	return s.advance(ctx, actorID, id, lifecycle.StatusCancel)
}

// Refund moves COMPLETED to REFUNDED and returns the product to Available.
func (s *PurchaseServiceImpl) Refund(ctx context.Context, actorID, id uuid.UUID) (*model.Purchase, error) {
	return s.advance(ctx, actorID, id, lifecycle.StatusRefund)
}

func (s *PurchaseServiceImpl) advance(
	ctx context.Context, actorID, id uuid.UUID, a lifecycle.StatusAction,
) (*model.Purchase, error) {
	if id == uuid.Nil {
		return nil, errs.Validationf("purchase id is required")
	}

	var out *model.Purchase
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		cur, err := tx.Purchases().GetForUpdate(ctx, id)
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrPurchaseNotFound
		}
		if err != nil {
			return err
		}
		// strangers must not learn the purchase exists
		if actorID != cur.BuyerID && actorID != cur.SellerID {
			return errs.ErrPurchaseNotFound
		}
		if a != lifecycle.StatusCancel && actorID != cur.SellerID {
			return errs.ErrNotOwner
		}
		next, err := lifecycle.NextStatus(cur.Status, a)
		if err != nil {
			return err
		}

		updated, err := tx.Purchases().UpdateStatus(ctx, id, cur.Status, next)
		if err != nil {
			return err
		}
		if lifecycle.ReleasesProduct(next) {
			if err := release(ctx, tx, cur.ProductID); err != nil {
				return err
			}
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("purchase status changed",
		zap.String("purchase_id", id.String()),
		zap.String("status", string(out.Status)),
		zap.String("product_id", out.ProductID.String()),
		zap.String("actor_id", actorID.String()),
	)
	return out, nil
}

// release returns a pending-purchase product to Available within tx.
func release(ctx context.Context, tx repository.Tx, productID uuid.UUID) error {
	p, err := tx.Products().GetForUpdate(ctx, productID)
	if errors.Is(err, errs.ErrNotFound) {
		return errs.ErrProductNotFound
	}
	if err != nil {
		return err
	}
	next, err := lifecycle.Next(p.Availability, lifecycle.ActionRelease)
	if err != nil {
		return err
	}
	_, err = tx.Products().UpdateAvailability(ctx, p.ID, p.Availability, next)
	return err
}
