package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
	"github.com/Ishan662/Employee-Management-System-backend/internal/config"
	"github.com/Ishan662/Employee-Management-System-backend/internal/httpapi"
	"github.com/Ishan662/Employee-Management-System-backend/internal/obs"
	"github.com/Ishan662/Employee-Management-System-backend/internal/store/memory"
	"github.com/Ishan662/Employee-Management-System-backend/internal/store/pg"
	"github.com/Ishan662/Employee-Management-System-backend/internal/store/redisstore"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ems-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := obs.NewLogger(cfg.LogLevel, cfg.LogFormat, "ems-api")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	restore := obs.SetLogger(logger)
	defer restore()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store    auth.Store
		denylist auth.Denylist
		probe    httpapi.ReadyProbe
		devMode  bool
	)
	if cfg.PGDSN != "" {
		pgStore, err := pg.Open(cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer pgStore.Close()
		store = pgStore
		probe.Checks = append(probe.Checks, pgStore)
	} else {
		mem := memory.New()
		store = mem
		denylist = mem
		devMode = true
		logger.Warn("EMS_PG_DSN not set, using in-memory store")
	}

	if cfg.RedisAddr != "" {
		client, err := redisstore.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer client.Close()
		redisDenylist := redisstore.NewDenylist(client)
		denylist = redisDenylist
		probe.Checks = append(probe.Checks, redisDenylist)
	}

	rbac, err := auth.NewRBACService(store)
	if err != nil {
		return err
	}
	if err := rbac.EnsurePermissions(ctx, auth.BuiltinPermissions); err != nil {
		return fmt.Errorf("ensure permissions: %w", err)
	}
	if devMode {
		if err := rbac.EnsureBuiltins(ctx); err != nil {
			return fmt.Errorf("seed builtin roles: %w", err)
		}
	}

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, auth.WithIssuer(cfg.JWTIssuer), auth.WithTTL(cfg.JWTTTL))
	if err != nil {
		return err
	}

	var serviceOpts []auth.ServiceOption
	if denylist != nil {
		serviceOpts = append(serviceOpts, auth.WithDenylist(denylist))
	}
	authSvc, err := auth.NewService(store, store, issuer, serviceOpts...)
	if err != nil {
		return err
	}
	users, err := auth.NewUserService(store, store, auth.WithDefaultRole(cfg.DefaultRole))
	if err != nil {
		return err
	}
	employees, err := auth.NewEmployeeService(store, store)
	if err != nil {
		return err
	}

	api, err := httpapi.New(httpapi.Services{
		Auth:      authSvc,
		Users:     users,
		RBAC:      rbac,
		Employees: employees,
	}, probe, version,
		httpapi.WithRateLimit(cfg.LoginRateBurst, cfg.LoginRatePerSec),
		httpapi.WithTrustProxy(cfg.TrustProxy),
		httpapi.WithMaxBodyBytes(cfg.MaxBodyBytes),
		httpapi.WithProduction(cfg.IsProduction()),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	grpcSrv := httpapi.NewGRPCServer(authSvc, httpapi.DefaultGRPCPolicies(), probe)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("grpc listening", zap.String("addr", grpcLis.Addr().String()))
		if err := grpcSrv.Serve(grpcLis); err != nil {
			return fmt.Errorf("grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		grpcSrv.GracefulStop()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("stopped")
	return nil
}
