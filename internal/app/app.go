package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/digital-hub/internal/domain/auth"
	"github.com/xenking/digital-hub/internal/domain/cart"
	"github.com/xenking/digital-hub/internal/domain/order"
	"github.com/xenking/digital-hub/internal/handler"
	"github.com/xenking/digital-hub/internal/notify"
	"github.com/xenking/digital-hub/internal/storage/postgres"
	"github.com/xenking/digital-hub/internal/storage/redis"
	"github.com/xenking/digital-hub/pkg/health"
	"github.com/xenking/digital-hub/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application. m is usually
// the *app.Telemetry handed out by go-faster/sdk.
func Run(ctx context.Context, lg *zap.Logger, m httpmiddleware.TelemetryProvider, cfg *Config) error {
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

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Session cart slots: Redis when configured, PostgreSQL otherwise.
	var store cart.Store
	if cfg.RedisURL != "" {
		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return errors.Wrap(err, "parse redis url")
		}
		client := goredis.NewClient(opts)
		defer func() { _ = client.Close() }()

		redisStore := redis.NewCartStore(client,
			redis.WithPrefix(cfg.Cart.Prefix),
			redis.WithTTL(cfg.Cart.TTL),
		)
		healthSvc.AddReadinessCheck("redis", 2*time.Second, health.PingCheck(redisStore), health.WithThresholds(3, 1))
		store = redisStore
		lg.Info("Session carts in Redis", zap.String("prefix", cfg.Cart.Prefix), zap.Duration("ttl", cfg.Cart.TTL))
	} else {
		store = postgres.NewCartStore(pool)
		lg.Info("Session carts in PostgreSQL")
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	menuRepo := postgres.NewMenuRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	apikeyRepo := postgres.NewAPIKeyRepository(pool)

	// Staff notifications.
	var notifier order.Notifier = notify.Log{}
	if cfg.Telegram.BotToken != "" {
		notifier = notify.NewTelegram(notify.TelegramConfig{
			Token:        cfg.Telegram.BotToken,
			APIURL:       cfg.Telegram.APIURL,
			AdminChats:   cfg.Telegram.AdminChats,
			KitchenChats: cfg.Telegram.KitchenChats,
			Timeout:      cfg.Telegram.Timeout,
		}, nil)
		lg.Info("Telegram notifications enabled",
			zap.Int("admin_chats", len(cfg.Telegram.AdminChats)),
			zap.Int("kitchen_chats", len(cfg.Telegram.KitchenChats)),
		)
	}

	// Domain services.
	carts := cart.NewManager(store)
	orderService := order.NewService(carts, orderRepo, notifier)
	verifier := auth.NewVerifier(apikeyRepo, []byte(cfg.APIKeyPepper))

	// HTTP handlers.
	h, err := handler.NewHandler(
		handler.Config{Meter: m.MeterProvider().Meter("hub")},
		carts,
		menuRepo,
		orderService,
		verifier,
	)
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	routes := httpmiddleware.ChiRoutes()
	router := chi.NewRouter()
	router.Use(
		httpmiddleware.Labeler(routes),
		httpmiddleware.LogRequests(routes),
	)
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)
	router.Group(func(r chi.Router) {
		r.Use(httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:     cfg.RateLimit.Max,
			Window:  cfg.RateLimit.Window,
			KeyFunc: httpmiddleware.HeaderOrIP(handler.SessionHeader),
		}))
		h.Routes(r)
	})

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", handler.SessionHeader, handler.APIKeyHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("hub-api", m),
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
