package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/model"
	"github.com/and161185/garagesale/internal/repository"
)

// ScanService resolves scanned label text to a listing.
type ScanService interface {
	// Resolve tries the scan code, then the product id; URLs are reduced to their last path segment.
	Resolve(ctx context.Context, scanned string) (*model.ScanResult, error)
	// Label returns what gets printed on the product tag: the scan code and the product page URL.
	Label(ctx context.Context, productID uuid.UUID) (*model.Label, error)
}

// DefaultPublicURL is the storefront base used for label links when none is configured.
const DefaultPublicURL = "http://localhost:5173"

type ScanServiceImpl struct {
	products  repository.ProductRepository
	users     repository.UserRepository
	publicURL string
}

var _ ScanService = (*ScanServiceImpl)(nil)

// NewScanService constructs ScanService. publicURL is the storefront base for label links.
func NewScanService(products repository.ProductRepository, users repository.UserRepository, publicURL string) *ScanServiceImpl {
	publicURL = strings.TrimRight(strings.TrimSpace(publicURL), "/")
	if publicURL == "" {
		publicURL = DefaultPublicURL
	}
	return &ScanServiceImpl{products: products, users: users, publicURL: publicURL}
}

// Label builds the tag payload for a product.
func (s *ScanServiceImpl) Label(ctx context.Context, productID uuid.UUID) (*model.Label, error) {
	if productID == uuid.Nil {
		return nil, errs.Validationf("product id is required")
	}
	p, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &model.Label{
		ProductID:  p.ID,
		Code:       p.ScanCode,
		ProductURL: s.publicURL + "/product/" + url.PathEscape(p.ID.String()),
	}, nil
}

// Resolve returns the product and its seller's public profile.
func (s *ScanServiceImpl) Resolve(ctx context.Context, scanned string) (*model.ScanResult, error) {
	raw := strings.TrimSpace(scanned)
	if raw == "" {
		return nil, errs.Validationf("scanned code is required")
	}
	candidates := []string{raw}
	if seg := lastSegment(raw); seg != "" && seg != raw {
		candidates = append(candidates, seg)
	}

	p, err := s.lookup(ctx, candidates)
	if err != nil {
		return nil, err
	}

	seller, err := s.users.GetByID(ctx, p.SellerID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &model.ScanResult{
		Product: *p,
		Seller:  model.User{ID: seller.ID, Email: seller.Email, Name: seller.Name, CreatedAt: seller.CreatedAt},
	}, nil
}

func (s *ScanServiceImpl) lookup(ctx context.Context, candidates []string) (*model.Product, error) {
	for _, c := range candidates {
		p, err := s.products.GetByScanCode(ctx, c)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
	}
	for _, c := range candidates {
		id, err := uuid.FromString(c)
		if err != nil {
			continue
		}
		p, err := s.products.GetByID(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
	}
	return nil, errs.ErrProductNotFound
}

// lastSegment extracts the trailing non-empty path segment of a URL or slash-separated path.
func lastSegment(raw string) string {
	path := raw
	if u, err := url.Parse(raw); err == nil && (u.Scheme != "" || u.Host != "") {
		path = u.Path
	} else if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	if seg, err := url.PathUnescape(path); err == nil {
		return seg
	}
	return path
}
