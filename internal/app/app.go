// Package app wires the POS service together: config, storage, domain
// services, HTTP transport, and lifecycle.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/farmapos/pos-api/internal/cartstore"
	"github.com/farmapos/pos-api/internal/domain/cart"
	"github.com/farmapos/pos-api/internal/domain/hold"
	"github.com/farmapos/pos-api/internal/domain/loyalty"
	"github.com/farmapos/pos-api/internal/domain/sale"
	"github.com/farmapos/pos-api/internal/handler"
	"github.com/farmapos/pos-api/internal/repository"
	"github.com/farmapos/pos-api/pkg/health"
	"github.com/farmapos/pos-api/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Cart store: redis when configured, in-process map otherwise.
	var carts cart.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return errors.Wrap(err, "parse redis url")
		}
		rdb := redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()

		healthSvc.AddReadinessCheck("redis", 5*time.Second, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		carts = cartstore.NewRedis(rdb, cfg.CartTTL)
		lg.Info("Using redis cart store", zap.Duration("ttl", cfg.CartTTL))
	} else {
		carts = cartstore.NewMemory()
		lg.Info("Using in-memory cart store")
	}

	healthSvc.Start(ctx, 10*time.Second)

	// Repositories.
	productRepo := repository.NewProductRepository(pool)
	holdRepo := repository.NewHoldRepository(pool)
	saleRepo := repository.NewSaleRepository(pool)
	memberRepo := repository.NewMemberRepository(pool)
	apikeyRepo := repository.NewAPIKeyRepository(pool)

	// Warm the loyalty prefilter from the member registry.
	cardIDs, err := memberRepo.ListCardIDs(ctx)
	if err != nil {
		return errors.Wrap(err, "list member card ids")
	}
	prefilter := loyalty.NewPrefilter(cardIDs)
	lg.Info("Loyalty prefilter warmed", zap.Int("members", len(cardIDs)))

	// Domain services.
	loyaltySvc := loyalty.NewService(memberRepo, prefilter)
	cartSvc := cart.NewService(carts, productRepo)
	holdSvc := hold.NewService(holdRepo, carts)
	saleSvc := sale.NewService(saleRepo, carts, loyaltySvc)

	// HTTP transport.
	h := handler.NewHandler(productRepo, cartSvc, holdSvc, saleSvc)
	requireKey := handler.RequireAPIKey(apikeyRepo, []byte(cfg.APIKeyPepper))

	mux := chi.NewRouter()
	mux.Get("/livez", healthSvc.LiveEndpoint)
	mux.Get("/readyz", healthSvc.ReadyEndpoint)
	mux.Mount("/api", h.Routes(requireKey))

	instrumented := otelhttp.NewHandler(mux, "pos-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(instrumented,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins: cfg.CORS.Origins,
				AllowHeaders: []string{"Content-Type", "api_key"},
				MaxAge:       86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
