package httpserver

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid/v5"

	v1 "github.com/and161185/garagesale/api/marketv1"
	"github.com/and161185/garagesale/internal/convert"
	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/model"
	"github.com/and161185/garagesale/internal/service"
)

// Actions are method expressions, so the service is looked up per request.
type (
	productActionFn  func(svc service.CatalogService, ctx context.Context, actorID, id uuid.UUID) (*model.Product, error)
	purchaseActionFn func(svc service.PurchaseService, ctx context.Context, actorID, id uuid.UUID) (*model.Purchase, error)
)

func parseBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return errs.Validationf("malformed request body")
	}
	return nil
}

// --- auth ---

func (s *Server) register(c *fiber.Ctx) error {
	var req v1.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	u, err := s.svc.Auth.Register(c.UserContext(), req.Email, req.Name, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(v1.RegisterResponse{User: convert.ToWireUser(*u)})
}

func (s *Server) login(c *fiber.Ctx) error {
	var req v1.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	tok, u, err := s.svc.Auth.LoginWithIP(c.UserContext(), req.Email, req.Password, c.IP())
	if err != nil {
		if errs.KindOf(err) == errs.ErrUnauthorized {
			return &errs.Error{Kind: errs.ErrUnauthorized, Msg: "bad credentials"}
		}
		return err
	}
	return c.JSON(v1.LoginResponse{AccessToken: tok.AccessToken, ExpiresAt: tok.ExpiresAt, User: convert.ToWireUser(u)})
}

// --- products ---

func (s *Server) listProducts(c *fiber.Ctx) error {
	f, err := convert.FromWireFilter(&v1.ListProductsRequest{
		Category:  c.Query("category"),
		Condition: c.Query("condition"),
		SellerID:  c.Query("sellerId"),
		MaxPrice:  c.Query("maxPrice"),
		Page:      c.QueryInt("page"),
		Limit:     c.QueryInt("limit"),
	})
	if err != nil {
		return err
	}
	page, err := s.svc.Catalog.ListAvailable(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(convert.ToWireProductPage(page))
}

func (s *Server) listMyProducts(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	ps, err := s.svc.Catalog.ListBySeller(c.UserContext(), uid)
	if err != nil {
		return err
	}
	return c.JSON(v1.ListMyProductsResponse{Products: convert.ToWireProducts(ps)})
}

func (s *Server) getProduct(c *fiber.Ctx) error {
	id, err := convert.ParseID(c.Params("id"), "product id")
	if err != nil {
		return err
	}
	p, err := s.svc.Catalog.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(v1.ProductResponse{Product: convert.ToWireProduct(*p)})
}

func (s *Server) createProduct(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	var req v1.CreateProductRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in, err := convert.FromWireNewProduct(&req)
	if err != nil {
		return err
	}
	p, err := s.svc.Catalog.Create(c.UserContext(), uid, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(v1.ProductResponse{Product: convert.ToWireProduct(*p)})
}

func (s *Server) updateProduct(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	var req v1.UpdateProductRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.ID = c.Params("id")
	id, patch, err := convert.FromWirePatch(&req)
	if err != nil {
		return err
	}
	p, err := s.svc.Catalog.Update(c.UserContext(), uid, id, patch)
	if err != nil {
		return err
	}
	return c.JSON(v1.ProductResponse{Product: convert.ToWireProduct(*p)})
}

// productAction serves the bodiless PATCH transitions on /products/:id.
func (s *Server) productAction(act productActionFn) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := caller(c)
		if err != nil {
			return err
		}
		id, err := convert.ParseID(c.Params("id"), "product id")
		if err != nil {
			return err
		}
		p, err := act(s.svc.Catalog, c.UserContext(), uid, id)
		if err != nil {
			return err
		}
		return c.JSON(v1.ProductResponse{Product: convert.ToWireProduct(*p)})
	}
}

func (s *Server) deleteProduct(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	id, err := convert.ParseID(c.Params("id"), "product id")
	if err != nil {
		return err
	}
	if err := s.svc.Catalog.Delete(c.UserContext(), uid, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) productLabel(c *fiber.Ctx) error {
	id, err := convert.ParseID(c.Params("id"), "product id")
	if err != nil {
		return err
	}
	l, err := s.svc.Scan.Label(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(convert.ToWireLabel(*l))
}

// --- scan ---

func (s *Server) resolveScanQuery(c *fiber.Ctx) error {
	return s.resolveScan(c, c.Query("code"))
}

func (s *Server) resolveScanBody(c *fiber.Ctx) error {
	var req v1.ResolveScanRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return s.resolveScan(c, req.Code)
}

func (s *Server) resolveScan(c *fiber.Ctx, code string) error {
	res, err := s.svc.Scan.Resolve(c.UserContext(), code)
	if err != nil {
		return err
	}
	return c.JSON(convert.ToWireScan(*res))
}

// --- purchases ---

func (s *Server) createPurchase(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	var req v1.CreatePurchaseRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in, err := convert.FromWireNewPurchase(&req)
	if err != nil {
		return err
	}
	p, err := s.svc.Purchases.Initiate(c.UserContext(), uid, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(v1.PurchaseResponse{Purchase: convert.ToWirePurchase(*p)})
}

func purchaseQuery(c *fiber.Ctx) model.PurchaseQuery {
	return convert.FromWirePurchaseQuery(&v1.ListPurchasesRequest{
		Page:   c.QueryInt("page"),
		Limit:  c.QueryInt("limit"),
		Status: c.Query("status"),
	})
}

func (s *Server) listPurchases(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	page, err := s.svc.Purchases.ListPurchases(c.UserContext(), uid, purchaseQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(convert.ToWirePurchasePage(page))
}

func (s *Server) listSales(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	page, err := s.svc.Purchases.ListSales(c.UserContext(), uid, purchaseQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(convert.ToWirePurchasePage(page))
}

func (s *Server) getPurchase(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	id, err := convert.ParseID(c.Params("id"), "purchase id")
	if err != nil {
		return err
	}
	p, err := s.svc.Purchases.Get(c.UserContext(), uid, id)
	if err != nil {
		return err
	}
	return c.JSON(v1.PurchaseResponse{Purchase: convert.ToWirePurchase(*p)})
}

func (s *Server) purchaseAction(act purchaseActionFn) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := caller(c)
		if err != nil {
			return err
		}
		id, err := convert.ParseID(c.Params("id"), "purchase id")
		if err != nil {
			return err
		}
		p, err := act(s.svc.Purchases, c.UserContext(), uid, id)
		if err != nil {
			return err
		}
		return c.JSON(v1.PurchaseResponse{Purchase: convert.ToWirePurchase(*p)})
	}
}

// --- analytics ---

func (s *Server) sellerSummary(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	sum, err := s.svc.Analytics.SellerSummary(c.UserContext(), uid, convert.Period(c.Query("period")))
	if err != nil {
		return err
	}
	return c.JSON(convert.ToWireSummary(sum))
}
