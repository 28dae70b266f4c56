package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/atalanta-ac/storefront/internal/domain/cart"
	"github.com/atalanta-ac/storefront/internal/domain/checkout"
	"github.com/atalanta-ac/storefront/internal/handler"
	"github.com/atalanta-ac/storefront/internal/payment"
	"github.com/atalanta-ac/storefront/internal/storage/memory"
	"github.com/atalanta-ac/storefront/internal/storage/postgres"
	"github.com/atalanta-ac/storefront/internal/storage/redis"
	"github.com/atalanta-ac/storefront/pkg/health"
	"github.com/atalanta-ac/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Session store: Redis when configured, in-process otherwise. The
	// in-process store loses carts on restart; it exists for local
	// development and tests.
	var sessionStore cart.Store
	healthSvc := health.New()
	if cfg.RedisURL != "" {
		redisStore, err := redis.Open(ctx, cfg.RedisURL, redis.WithTTL(cfg.Session.TTL))
		if err != nil {
			return errors.Wrap(err, "open redis")
		}
		defer func() { _ = redisStore.Close() }()
		sessionStore = redisStore
		healthSvc.AddReadinessCheck("redis", 5*time.Second, health.PingCheck(redisStore))
	} else {
		lg.Warn("No Redis URL configured, using in-process session store")
		sessionStore = memory.New()
	}

	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Catalog, payment collaborator, checkout flow.
	productRepo := postgres.NewProductRepository(pool)
	paymentClient := payment.NewClient(payment.Config{
		BaseURL:   cfg.Payment.BaseURL,
		SecretKey: cfg.Payment.SecretKey,
		Timeout:   cfg.Payment.Timeout,
	})
	flow := checkout.NewFlow(paymentClient)

	h := handler.New(
		handler.Config{
			ImageBaseURL: cfg.ImageBaseURL,
			CookieName:   cfg.Session.CookieName,
			CookieSecure: cfg.Session.Secure,
		},
		productRepo,
		sessionStore,
		flow,
	)

	mux := http.NewServeMux()
	healthSvc.Register(mux)
	h.Routes(mux)

	handlerChain := httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", httpmiddleware.HeaderRequestID},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:     cfg.RateLimit.Max,
			Window:  cfg.RateLimit.Window,
			KeyFunc: httpmiddleware.SessionKeyFunc(cfg.Session.CookieName),
		}),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.RequestID(),
		httpmiddleware.LogRequests(),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(handlerChain, "storefront-api",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

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
