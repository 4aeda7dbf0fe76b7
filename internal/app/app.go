// Package app assembles storage backends and application services.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/garagesale/internal/limiter"
	"github.com/and161185/garagesale/internal/migrate"
	"github.com/and161185/garagesale/internal/repository"
	"github.com/and161185/garagesale/internal/repository/postgres"
	"github.com/and161185/garagesale/internal/repository/sqlite"
	"github.com/and161185/garagesale/internal/service"
)

// Backend is one storage engine and its repositories.
type Backend struct {
	Driver    string
	Users     repository.UserRepository
	Products  repository.ProductRepository
	Purchases repository.PurchaseRepository
	Tx        repository.Transactor
	// Limiter is the login limiter native to the backend.
	Limiter limiter.Limiter
	Close   func()
}

// LimiterPolicy configures login throttling.
type LimiterPolicy struct {
	Window   time.Duration
	MaxFails int
	BlockFor time.Duration
}

// DefaultLimiterPolicy blocks for 15 minutes after 5 failures within 15 minutes.
var DefaultLimiterPolicy = LimiterPolicy{Window: 15 * time.Minute, MaxFails: 5, BlockFor: 15 * time.Minute}

// OpenPostgres runs migrations and connects a pool.
func OpenPostgres(ctx context.Context, dsn string, lp LimiterPolicy) (*Backend, error) {
	if err := migrate.Up(ctx, dsn); err != nil {
		return nil, fmt.Errorf("migrate up: %w", err)
	}
	db, err := postgres.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Backend{
		Driver:    migrate.DriverPostgres,
		Users:     postgres.NewUserRepo(db),
		Products:  postgres.NewProductRepo(db),
		Purchases: postgres.NewPurchaseRepo(db),
		Tx:        db,
		Limiter:   limiter.NewPG(db.Pool, lp.Window, lp.MaxFails, lp.BlockFor),
		Close:     db.Close,
	}, nil
}

// OpenSQLite opens the embedded database at path (":memory:" for an ephemeral one).
func OpenSQLite(ctx context.Context, path string, lp LimiterPolicy) (*Backend, error) {
	db, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return &Backend{
		Driver:    migrate.DriverSQLite,
		Users:     sqlite.NewUserRepo(db),
		Products:  sqlite.NewProductRepo(db),
		Purchases: sqlite.NewPurchaseRepo(db),
		Tx:        db,
		Limiter:   limiter.NewMemory(lp.Window, lp.MaxFails, lp.BlockFor),
		Close:     func() { _ = db.Close() },
	}, nil
}

// Open selects a backend by driver name.
func Open(ctx context.Context, driver, dsn string, lp LimiterPolicy) (*Backend, error) {
	switch driver {
	case migrate.DriverPostgres:
		return OpenPostgres(ctx, dsn, lp)
	case migrate.DriverSQLite:
		return OpenSQLite(ctx, dsn, lp)
	}
	return nil, fmt.Errorf("unknown storage driver %q", driver)
}

// Options are the service-level settings.
type Options struct {
	JWTKey          []byte
	AccessTTL       time.Duration
	DefaultCurrency string
	MaxNotesLen     int
	// PublicURL is the storefront base for label links; empty selects service.DefaultPublicURL.
	PublicURL string
}

// NewServices wires every application service over b.
func NewServices(b *Backend, o Options, log *zap.Logger) service.Services {
	if log == nil {
		log = zap.NewNop()
	}
	return service.Services{
		Auth:      service.NewAuthService(b.Users, o.JWTKey, o.AccessTTL, b.Limiter),
		Catalog:   service.NewCatalogService(b.Products, o.DefaultCurrency, log.Named("catalog")),
		Purchases: service.NewPurchaseService(b.Tx, b.Users, b.Purchases, o.MaxNotesLen, log.Named("purchases")),
		Scan:      service.NewScanService(b.Products, b.Users, o.PublicURL),
		Analytics: service.NewAnalyticsService(b.Products, b.Purchases),
	}
}
