// Command gs-server starts the garage-sale gRPC and HTTP servers.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	v1 "github.com/and161185/garagesale/api/marketv1"
	"github.com/and161185/garagesale/internal/app"
	"github.com/and161185/garagesale/internal/config"
	grpcserver "github.com/and161185/garagesale/internal/server/grpc"
	httpserver "github.com/and161185/garagesale/internal/server/http"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func newLogger(cfg config.Config) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if cfg.Dev {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// main loads configuration, opens storage, and serves until SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load(os.Args[1:], ".env", os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("driver", cfg.Driver),
		zap.String("grpc_addr", cfg.GRPCAddr),
		zap.String("http_addr", cfg.HTTPAddr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := app.Open(ctx, cfg.Driver, cfg.DSN, app.LimiterPolicy{
		Window:   cfg.LimiterWindow,
		MaxFails: cfg.LimiterMaxFails,
		BlockFor: cfg.LimiterBlockFor,
	})
	if err != nil {
		logger.Fatal("open storage", zap.Error(err))
	}
	defer backend.Close()

	svc := app.NewServices(backend, app.Options{
		JWTKey:          []byte(cfg.JWTKey),
		AccessTTL:       cfg.AccessTTL,
		DefaultCurrency: cfg.DefaultCurrency,
		MaxNotesLen:     cfg.MaxNotesLen,
		PublicURL:       cfg.PublicURL,
	}, logger)

	errCh := make(chan error, 2)

	var gs *grpc.Server
	if cfg.GRPCAddr != "" {
		opts := []grpc.ServerOption{
			grpc.ChainUnaryInterceptor(
				grpcserver.RecoverUnary(logger),
				grpcserver.LoggingUnary(logger),
				grpcserver.AuthUnary(svc.Auth, grpcserver.PublicMethods...),
			),
		}
		if cfg.TLSCert != "" {
			creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
			if err != nil {
				logger.Fatal("failed to load TLS cert/key", zap.Error(err))
			}
			opts = append(opts, grpc.Creds(creds))
		} else {
			logger.Warn("gRPC without TLS")
		}
		gs = grpc.NewServer(opts...)
		v1.RegisterMarketServer(gs, grpcserver.New(svc, logger.Named("grpc")))

		hs := health.NewServer()
		healthpb.RegisterHealthServer(gs, hs)

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.Fatal("listen", zap.Error(err))
		}
		go func() {
			logger.Info("grpc listening", zap.String("addr", cfg.GRPCAddr), zap.Bool("tls", cfg.TLSCert != ""))
			errCh <- gs.Serve(lis)
		}()
	}

	var web *fiber.App
	if cfg.HTTPAddr != "" {
		web = httpserver.New(svc, logger.Named("http"), httpserver.Options{RatePerMinute: cfg.HTTPRate})
		go func() {
			logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
			errCh <- web.Listen(cfg.HTTPAddr)
		}()
	}

	// Wait for stop
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error("server error", zap.Error(err))
		}
	}
	shutdown(logger, gs, web, cfg.ShutdownTimeout)
	logger.Info("shutdown complete")
}

// shutdown stops both servers gracefully, forcing the gRPC server after timeout.
func shutdown(logger *zap.Logger, gs *grpc.Server, web *fiber.App, timeout time.Duration) {
	if web != nil {
		if err := web.ShutdownWithTimeout(timeout); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
	}
	if gs == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		gs.Stop()
	}
}
