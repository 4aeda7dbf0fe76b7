// Package grpcserver exposes the garage-sale gRPC API handlers.
package grpcserver

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	v1 "github.com/and161185/garagesale/api/marketv1"
	"github.com/and161185/garagesale/internal/convert"
	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/model"
	"github.com/and161185/garagesale/internal/service"
)

// PublicMethods may be called without a bearer token.
var PublicMethods = []string{
	v1.FullMethod("Register"),
	v1.FullMethod("Login"),
	v1.FullMethod("GetProduct"),
	v1.FullMethod("ListProducts"),
}

// Server wires services into gRPC handlers.
type Server struct {
	svc service.Services
	log *zap.Logger
}

var _ v1.MarketServer = (*Server)(nil)

// New constructs a gRPC server with injected services.
func New(svc service.Services, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, log: log}
}

// toStatus maps domain error kinds to gRPC codes. Unexpected errors are logged and hidden.
func (s *Server) toStatus(method string, err error) error {
	var code codes.Code
	switch errs.KindOf(err) {
	case errs.ErrNotFound:
		code = codes.NotFound
	case errs.ErrConflict:
		code = codes.FailedPrecondition
	case errs.ErrAlreadyExists:
		code = codes.AlreadyExists
	case errs.ErrForbidden:
		code = codes.PermissionDenied
	case errs.ErrValidation:
		code = codes.InvalidArgument
	case errs.ErrUnauthorized:
		code = codes.Unauthenticated
	case errs.ErrRateLimited:
		code = codes.ResourceExhausted
	default:
		if errors.Is(err, context.Canceled) {
			return status.Error(codes.Canceled, "canceled")
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return status.Error(codes.DeadlineExceeded, "deadline exceeded")
		}
		s.log.Error("unexpected error", zap.String("method", method), zap.Error(err))
		return status.Error(codes.Internal, errs.Public(err))
	}
	return status.Error(code, errs.Public(err))
}

func caller(ctx context.Context) (uuid.UUID, error) {
	id, ok := UserIDFromCtx(ctx)
	if !ok {
		return uuid.Nil, status.Error(codes.Unauthenticated, "no auth")
	}
	return id, nil
}

type (
	productActionFn  func(ctx context.Context, actorID, id uuid.UUID) (*model.Product, error)
	purchaseActionFn func(ctx context.Context, actorID, id uuid.UUID) (*model.Purchase, error)
)

// --- Auth ---

// Register creates a new user account.
func (s *Server) Register(ctx context.Context, req *v1.RegisterRequest) (*v1.RegisterResponse, error) {
	u, err := s.svc.Auth.Register(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		return nil, s.toStatus("Register", err)
	}
	return &v1.RegisterResponse{User: convert.ToWireUser(*u)}, nil
}

// Login authenticates a user and returns an access token.
func (s *Server) Login(ctx context.Context, req *v1.LoginRequest) (*v1.LoginResponse, error) {
	tok, u, err := s.svc.Auth.LoginWithIP(ctx, req.Email, req.Password, remoteIP(ctx))
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "bad credentials")
		}
		return nil, s.toStatus("Login", err)
	}
	return &v1.LoginResponse{AccessToken: tok.AccessToken, ExpiresAt: tok.ExpiresAt, User: convert.ToWireUser(u)}, nil
}

// --- Products ---

// CreateProduct lists a new product owned by the caller.
func (s *Server) CreateProduct(ctx context.Context, req *v1.CreateProductRequest) (*v1.ProductResponse, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	in, err := convert.FromWireNewProduct(req)
	if err != nil {
		return nil, s.toStatus("CreateProduct", err)
	}
	p, err := s.svc.Catalog.Create(ctx, uid, in)
	if err != nil {
		return nil, s.toStatus("CreateProduct", err)
	}
	return &v1.ProductResponse{Product: convert.ToWireProduct(*p)}, nil
}

// UpdateProduct changes descriptive fields of the caller's product.
func (s *Server) UpdateProduct(ctx context.Context, req *v1.UpdateProductRequest) (*v1.ProductResponse, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	id, patch, err := convert.FromWirePatch(req)
	if err != nil {
		return nil, s.toStatus("UpdateProduct", err)
	}
	p, err := s.svc.Catalog.Update(ctx, uid, id, patch)
	if err != nil {
		return nil, s.toStatus("UpdateProduct", err)
	}
	return &v1.ProductResponse{Product: convert.ToWireProduct(*p)}, nil
}

// GetProduct returns a single product by id.
func (s *Server) GetProduct(ctx context.Context, req *v1.ProductRequest) (*v1.ProductResponse, error) {
	id, err := convert.ParseID(req.ID, "product id")
	if err != nil {
		return nil, s.toStatus("GetProduct", err)
	}
	p, err := s.svc.Catalog.Get(ctx, id)
	if err != nil {
		return nil, s.toStatus("GetProduct", err)
	}
	return &v1.ProductResponse{Product: convert.ToWireProduct(*p)}, nil
}

// ListProducts returns a page of available products.
func (s *Server) ListProducts(ctx context.Context, req *v1.ListProductsRequest) (*v1.ListProductsResponse, error) {
	f, err := convert.FromWireFilter(req)
	if err != nil {
		return nil, s.toStatus("ListProducts", err)
	}
	page, err := s.svc.Catalog.ListAvailable(ctx, f)
	if err != nil {
		return nil, s.toStatus("ListProducts", err)
	}
	return convert.ToWireProductPage(page), nil
}

// ListMyProducts returns every product of the caller.
func (s *Server) ListMyProducts(ctx context.Context, _ *v1.ListMyProductsRequest) (*v1.ListMyProductsResponse, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	ps, err := s.svc.Catalog.ListBySeller(ctx, uid)
	if err != nil {
		return nil, s.toStatus("ListMyProducts", err)
	}
	return &v1.ListMyProductsResponse{Products: convert.ToWireProducts(ps)}, nil
}

// ReserveProduct puts a product on hold.
func (s *Server) ReserveProduct(ctx context.Context, req *v1.ProductRequest) (*v1.ProductResponse, error) {
	return s.productAction(ctx, "ReserveProduct", req, s.svc.Catalog.Reserve)
}

// UnreserveProduct releases a hold; owner only.
func (s *Server) UnreserveProduct(ctx context.Context, req *v1.ProductRequest) (*v1.ProductResponse, error) {
	return s.productAction(ctx, "UnreserveProduct", req, s.svc.Catalog.Unreserve)
}

// MarkProductSold closes the listing; owner only.
func (s *Server) MarkProductSold(ctx context.Context, req *v1.ProductRequest) (*v1.ProductResponse, error) {
	return s.productAction(ctx, "MarkProductSold", req, s.svc.Catalog.MarkSold)
}

// DeleteProduct removes an unpurchased listing; owner only.
func (s *Server) DeleteProduct(ctx context.Context, req *v1.ProductRequest) (*v1.DeleteProductResponse, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := convert.ParseID(req.ID, "product id")
	if err != nil {
		return nil, s.toStatus("DeleteProduct", err)
	}
	if err := s.svc.Catalog.Delete(ctx, uid, id); err != nil {
		return nil, s.toStatus("DeleteProduct", err)
	}
	return &v1.DeleteProductResponse{ID: id.String()}, nil
}

func (s *Server) productAction(
	ctx context.Context, method string, req *v1.ProductRequest, act productActionFn,
) (*v1.ProductResponse, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := convert.ParseID(req.ID, "product id")
	if err != nil {
		return nil, s.toStatus(method, err)
	}
	p, err := act(ctx, uid, id)
	if err != nil {
		return nil, s.toStatus(method, err)
	}
	return &v1.ProductResponse{Product: convert.ToWireProduct(*p)}, nil
}

// ResolveScan maps scanned label text to a product and its seller.
func (s *Server) ResolveScan(ctx context.Context, req *v1.ResolveScanRequest) (*v1.ResolveScanResponse, error) {
	res, err := s.svc.Scan.Resolve(ctx, req.Code)
	if err != nil {
		return nil, s.toStatus("ResolveScan", err)
	}
	return convert.ToWireScan(*res), nil
}

// GetLabel returns the printable tag of a product.
func (s *Server) GetLabel(ctx context.Context, req *v1.ProductRequest) (*v1.LabelResponse, error) {
	id, err := convert.ParseID(req.ID, "product id")
	if err != nil {
		return nil, s.toStatus("GetLabel", err)
	}
	l, err := s.svc.Scan.Label(ctx, id)
	if err != nil {
		return nil, s.toStatus("GetLabel", err)
	}
	return convert.ToWireLabel(*l), nil
}

// --- Purchases ---

// CreatePurchase starts a purchase of an available product by the caller.
func (s *Server) CreatePurchase(ctx context.Context, req *v1.CreatePurchaseRequest) (*v1.PurchaseResponse, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	in, err := convert.FromWireNewPurchase(req)
	if err != nil {
		return nil, s.toStatus("CreatePurchase", err)
	}
	p, err := s.svc.Purchases.Initiate(ctx, uid, in)
	if err != nil {
		return nil, s.toStatus("CreatePurchase", err)
	}
	return &v1.PurchaseResponse{Purchase: convert.ToWirePurchase(*p)}, nil
}

// GetPurchase returns a purchase the caller is a party to.
func (s *Server) GetPurchase(ctx context.Context, req *v1.PurchaseRequest) (*v1.PurchaseResponse, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := convert.ParseID(req.ID, "purchase id")
	if err != nil {
		return nil, s.toStatus("GetPurchase", err)
	}
	p, err := s.svc.Purchases.Get(ctx, uid, id)
	if err != nil {
		return nil, s.toStatus("GetPurchase", err)
	}
	return &v1.PurchaseResponse{Purchase: convert.ToWirePurchase(*p)}, nil
}

// ListPurchases returns the caller's purchases.
func (s *Server) ListPurchases(ctx context.Context, req *v1.ListPurchasesRequest) (*v1.ListPurchasesResponse, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	page, err := s.svc.Purchases.ListPurchases(ctx, uid, convert.FromWirePurchaseQuery(req))
	if err != nil {
		return nil, s.toStatus("ListPurchases", err)
	}
	return convert.ToWirePurchasePage(page), nil
}

// ListSales returns the caller's sales.
func (s *Server) ListSales(ctx context.Context, req *v1.ListPurchasesRequest) (*v1.ListPurchasesResponse, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	page, err := s.svc.Purchases.ListSales(ctx, uid, convert.FromWirePurchaseQuery(req))
	if err != nil {
		return nil, s.toStatus("ListSales", err)
	}
	return convert.ToWirePurchasePage(page), nil
}

// CompletePurchase finalizes a pending purchase; seller only.
func (s *Server) CompletePurchase(ctx context.Context, req *v1.PurchaseRequest) (*v1.PurchaseResponse, error) {
	return s.purchaseAction(ctx, "CompletePurchase", req, s.svc.Purchases.Complete)
}

// CancelPurchase aborts a pending purchase.
func (s *Server) CancelPurchase(ctx context.Context, req *v1.PurchaseRequest) (*v1.PurchaseResponse, error) {
	return s.purchaseAction(ctx, "CancelPurchase", req, s.svc.Purchases.Cancel)
}

// RefundPurchase reverses a completed purchase; seller only.
func (s *Server) RefundPurchase(ctx context.Context, req *v1.PurchaseRequest) (*v1.PurchaseResponse, error) {
	return s.purchaseAction(ctx, "RefundPurchase", req, s.svc.Purchases.Refund)
}

func (s *Server) purchaseAction(
	ctx context.Context, method string, req *v1.PurchaseRequest, act purchaseActionFn,
) (*v1.PurchaseResponse, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := convert.ParseID(req.ID, "purchase id")
	if err != nil {
		return nil, s.toStatus(method, err)
	}
	p, err := act(ctx, uid, id)
	if err != nil {
		return nil, s.toStatus(method, err)
	}
	return &v1.PurchaseResponse{Purchase: convert.ToWirePurchase(*p)}, nil
}

// --- Analytics ---

// SellerSummary returns the caller's seller dashboard.
func (s *Server) SellerSummary(ctx context.Context, req *v1.SellerSummaryRequest) (*v1.SellerSummaryResponse, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	sum, err := s.svc.Analytics.SellerSummary(ctx, uid, convert.Period(req.Period))
	if err != nil {
		return nil, s.toStatus("SellerSummary", err)
	}
	return convert.ToWireSummary(sum), nil
}
