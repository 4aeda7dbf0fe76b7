// Package httpserver exposes the garage-sale REST API over fiber.
package httpserver

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/service"
)

// Options tune the HTTP surface.
type Options struct {
	// RatePerMinute caps requests per client IP; 0 disables the limiter.
	RatePerMinute int
	BodyLimit     int
}

// Server holds the services behind the REST handlers.
type Server struct {
	svc service.Services
	log *zap.Logger
}

// New builds the fiber application with all routes mounted.
func New(svc service.Services, log *zap.Logger, o Options) *fiber.App {
	if log == nil {
		log = zap.NewNop()
	}
	if o.BodyLimit <= 0 {
		o.BodyLimit = 1 << 20
	}
	s := &Server{svc: svc, log: log}

	app := fiber.New(fiber.Config{
		AppName:               "garagesale",
		BodyLimit:             o.BodyLimit,
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		ErrorHandler:          s.errorHandler,
	})

	app.Use(requestid.New())
	app.Use(accessLog(log))
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(helmet.New())
	if o.RatePerMinute > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        o.RatePerMinute,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Path() == "/healthz"
			},
			LimitReached: func(*fiber.Ctx) error {
				return &errs.Error{Kind: errs.ErrRateLimited, Msg: "rate limit exceeded, retry soon"}
			},
		}))
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.routes(app.Group("/api/v1"))
	return app
}

func (s *Server) routes(api fiber.Router) {
	auth := requireAuth(s.svc.Auth)

	api.Post("/auth/register", s.register)
	api.Post("/auth/login", s.login)

	api.Get("/products", s.listProducts)
	api.Get("/products/mine", auth, s.listMyProducts)
	api.Get("/products/:id", s.getProduct)
	api.Post("/products", auth, s.createProduct)
	api.Patch("/products/:id", auth, s.updateProduct)
	api.Patch("/products/:id/reserve", auth, s.productAction(service.CatalogService.Reserve))
	api.Patch("/products/:id/unreserve", auth, s.productAction(service.CatalogService.Unreserve))
	api.Patch("/products/:id/sold", auth, s.productAction(service.CatalogService.MarkSold))
	api.Delete("/products/:id", auth, s.deleteProduct)
	api.Get("/products/:id/label", auth, s.productLabel)

	api.Get("/scan", auth, s.resolveScanQuery)
	api.Post("/scan", auth, s.resolveScanBody)

	api.Post("/purchases", auth, s.createPurchase)
	api.Get("/purchases", auth, s.listPurchases)
	api.Get("/purchases/sales", auth, s.listSales)
	api.Get("/purchases/:id", auth, s.getPurchase)
	api.Patch("/purchases/:id/complete", auth, s.purchaseAction(service.PurchaseService.Complete))
	api.Patch("/purchases/:id/cancel", auth, s.purchaseAction(service.PurchaseService.Cancel))
	api.Patch("/purchases/:id/refund", auth, s.purchaseAction(service.PurchaseService.Refund))

	api.Get("/analytics/summary", auth, s.sellerSummary)
}

// errorHandler renders every failure as ErrorResponse. Details of unexpected errors stay in the log.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	msg := errs.Public(err)

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError:
		status, code, msg = fe.Code, codeForStatus(fe.Code), fe.Message
	case status == fiber.StatusInternalServerError:
		s.log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("request_id", requestID(c)),
			zap.Error(err),
		)
		msg = "unexpected error"
	}
	return c.Status(status).JSON(errorBody(msg, code, requestID(c)))
}
