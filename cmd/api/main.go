package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	limitermw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"github.com/harumi-id/backend-parfum/internal/app"
	"github.com/harumi-id/backend-parfum/internal/audit"
	"github.com/harumi-id/backend-parfum/internal/auth"
	"github.com/harumi-id/backend-parfum/internal/cart"
	"github.com/harumi-id/backend-parfum/internal/catalog"
	"github.com/harumi-id/backend-parfum/internal/checkout"
	"github.com/harumi-id/backend-parfum/internal/common"
	"github.com/harumi-id/backend-parfum/internal/config"
	"github.com/harumi-id/backend-parfum/internal/events"
	"github.com/harumi-id/backend-parfum/internal/health"
	"github.com/harumi-id/backend-parfum/internal/notify"
	"github.com/harumi-id/backend-parfum/internal/obs"
	"github.com/harumi-id/backend-parfum/internal/outlet"
	"github.com/harumi-id/backend-parfum/internal/pricing"
	"github.com/harumi-id/backend-parfum/internal/promo"
	"github.com/harumi-id/backend-parfum/internal/refill"
	"github.com/harumi-id/backend-parfum/internal/report"
	"github.com/harumi-id/backend-parfum/internal/security"
	"github.com/harumi-id/backend-parfum/internal/tenant"
	"github.com/harumi-id/backend-parfum/internal/transaction"
)

func main() {
	cfg := config.MustLoad()

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "parfum-api",
			Endpoint:      cfg.TracingEndpoint,
			SamplingRatio: cfg.TracingSamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cfg.MigrateOnStart {
		if err := app.RunMigrations(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
		logger.Info().Msg("migrations applied")
	}

	pool, err := app.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisClient, err := app.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	asynqOpt, err := app.AsynqRedisOpt(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse asynq redis options")
	}
	taskClient := asynq.NewClient(asynqOpt)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	pricingCfg := pricing.Config{
		TaxRateBps:             cfg.TaxRateBps,
		ExtraEssencePricePerMl: cfg.ExtraEssencePricePerMl,
	}

	catalogSvc := &catalog.Service{
		Store:        catalog.Store{DB: pool},
		Cache:        catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		DefaultLimit: cfg.CatalogDefaultLimit,
		MaxLimit:     cfg.CatalogMaxLimit,
	}
	catalogHandler := catalog.NewHandler(catalogSvc)

	promoSvc := &promo.Service{Store: promo.Store{DB: pool}}
	promoHandler := promo.NewHandler(promoSvc, pricingCfg, catalogSvc.FreeProductLookup)

	cartSvc := &cart.Service{
		Store:   cart.Store{DB: pool},
		Catalog: catalogSvc,
		Promos:  promoSvc,
		Pricing: pricingCfg,
		TTL:     cfg.CartTTL,
	}
	cartHandler := cart.NewHandler(cartSvc)

	refillSvc := &refill.Service{
		Recipes:    catalogSvc,
		Carts:      cartSvc,
		Pricing:    pricingCfg,
		AromaNames: aromaNameResolver(catalogSvc),
	}
	refillHandler := refill.NewHandler(refillSvc)

	notifyStore := notify.Store{DB: pool}
	dispatcher := notify.Dispatcher{Store: notifyStore, Client: taskClient}
	bus := &events.Bus{Store: events.Store{DB: pool}, Scheduler: dispatcher}

	checkoutSvc := &checkout.Service{
		Runner:            checkout.PGRunner{Pool: pool},
		Carts:             cartSvc,
		Pricing:           pricingCfg,
		Events:            bus,
		LowStockThreshold: cfg.LowStockThreshold,
	}
	checkoutHandler := checkout.NewHandler(checkoutSvc)

	txSvc := &transaction.Service{
		Store:    transaction.Store{DB: pool},
		Restorer: checkout.StockRestorer{Pool: pool},
		Events:   bus,
	}
	txHandler := transaction.NewHandler(txSvc, cfg.CatalogDefaultLimit, cfg.CatalogMaxLimit)

	reportSvc := &report.Service{Store: report.Store{DB: pool}, R: redisClient, TTL: cfg.ReportCacheTTL}
	reportHandler := report.NewHandler(reportSvc)

	outletHandler := &outlet.Handler{Service: &outlet.Service{Store: outlet.Store{DB: pool}}}
	notifyAdmin := &notify.AdminHandler{Store: notifyStore}

	auditSvc := audit.Service{Store: audit.Store{DB: pool}, Enabled: cfg.AuditEnabled}
	auditRec := audit.HTTPRecorder{
		Service: auditSvc,
		OnError: func(err error) { logger.Error().Err(err).Msg("record audit entry") },
	}
	auditHandler := audit.Handler{Service: auditSvc}

	authMw := auth.Middleware{Validator: auth.Validator{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
	}}
	resolver := tenant.NewResolver(cfg.OrgHeaderName, cfg.RootDomain, cfg.DefaultOrg)
	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	quoteLimit := quoteLimiter(cfg.QuoteRateLimit, redisClient, logger)

	httpMetrics := obs.NewHTTPMetrics(cfg.MetricsNamespace, nil, nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: cfg.SecurityHeadersEnabled, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", cfg.OrgHeaderName, "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Total-Count", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(resolver.Middleware)

	r.Handle("/metrics", promhttp.Handler())

	healthHandler := health.Handler{Prober: health.Probes{Pool: pool, Redis: redisClient}}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/v1", func(v chi.Router) {
		v.Use(tenant.Require)
		v.Use(authMw.Authenticate)

		v.Route("/catalog", catalogHandler.Routes)
		v.With(auth.RequireRole("owner")).Route("/admin/catalog", catalogHandler.AdminRoutes)

		v.With(quoteLimit).Post("/refill/quote", refillHandler.Quote)

		v.Route("/carts", func(c chi.Router) {
			c.Use(idem.Middleware)
			cartHandler.Routes(c)
			c.Post("/{id}/refill", refillHandler.AddToCart)
		})

		v.With(idem.Middleware, auditRec.Middleware(audit.HTTPConfig{
			Action:       "transaction.settle",
			ResourceType: "transaction",
		})).Post("/checkout", checkoutHandler.Settle)

		v.Route("/transactions", func(t chi.Router) {
			t.Get("/", txHandler.List)
			t.Get("/{id}", txHandler.Detail)
			t.With(auditRec.Middleware(audit.HTTPConfig{
				Action:          "transaction.void",
				ResourceType:    "transaction",
				ResourceIDParam: "id",
			})).Post("/{id}/void", txHandler.Void)
			t.With(auth.RequireRole("owner")).Patch("/{id}/status", txHandler.PatchStatus)
		})

		v.Route("/promotions", func(p chi.Router) {
			p.Use(auth.RequireRole("owner"))
			p.Get("/", promoHandler.List)
			p.Post("/preview", promoHandler.Preview)
			p.Group(func(wr chi.Router) {
				wr.Use(auditRec.Middleware(audit.HTTPConfig{
					Action:          "promotion.write",
					ResourceType:    "promotion",
					ResourceIDParam: "id",
				}))
				wr.Post("/", promoHandler.Create)
				wr.Put("/{id}", promoHandler.Update)
				wr.Delete("/{id}", promoHandler.Deactivate)
			})
		})

		v.Route("/outlets", func(o chi.Router) {
			outletHandler.Routes(o)
			o.Group(func(admin chi.Router) {
				admin.Use(auth.RequireRole("owner"))
				outletHandler.AdminRoutes(admin)
			})
		})
		v.With(auth.RequireRole("owner")).Route("/organization", outletHandler.OrgRoutes)

		v.Route("/reports", func(rep chi.Router) {
			rep.Use(auth.RequireRole("owner"))
			reportHandler.Routes(rep)
		})

		v.With(auth.RequireRole("owner")).Route("/webhooks", notifyAdmin.Routes)
		v.With(auth.RequireRole("owner")).Get("/audit-logs", auditHandler.List)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

// aromaNameResolver labels refill lines with the aroma display name.
func aromaNameResolver(svc *catalog.Service) func(ctx context.Context, aromaID string) string {
	return func(ctx context.Context, aromaID string) string {
		aromas, err := svc.ListAromas(ctx)
		if err != nil {
			return ""
		}
		for _, a := range aromas {
			if a.ID == aromaID {
				return a.Name
			}
		}
		return ""
	}
}

// quoteLimiter rate limits the public blend quote endpoint per client IP.
func quoteLimiter(format string, rdb *redis.Client, logger zerolog.Logger) func(http.Handler) http.Handler {
	rate, err := limiter.NewRateFromFormatted(format)
	if err != nil {
		rate = limiter.Rate{Period: time.Minute, Limit: 60}
	}
	store, err := app.NewLimiterStore(rdb)
	if err != nil {
		logger.Error().Err(err).Msg("limiter store unavailable, quote endpoint unthrottled")
		return func(next http.Handler) http.Handler { return next }
	}
	return limitermw.NewMiddleware(limiter.New(store, rate)).Handler
}
