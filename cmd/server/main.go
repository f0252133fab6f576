package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appbilling "github.com/invoicer/backend/internal/application/billing"
	appinbox "github.com/invoicer/backend/internal/application/inbox"
	apptenancy "github.com/invoicer/backend/internal/application/tenancy"
	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/inbox"
	"github.com/invoicer/backend/internal/domain/tenancy"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/infrastructure/metrics"
	"github.com/invoicer/backend/internal/infrastructure/migration"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
	"github.com/invoicer/backend/internal/infrastructure/storage"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"github.com/invoicer/backend/internal/interfaces/http/handler"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"github.com/invoicer/backend/internal/interfaces/http/router"
	"github.com/invoicer/backend/migrations"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Invoicer API
//	@version		1.0
//	@description	Multi-tenant invoicing backend
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	migrate := flag.Bool("migrate", false, "Apply pending migrations before serving")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Invoicer backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.ConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Database.SlowThreshold)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFrom(cfg.Telemetry, cfg.Database), log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to access database handle", zap.Error(err))
	}
	if *migrate {
		m, err := migration.New(sqlDB, cfg.Database.Driver, migrations.FS, log)
		if err != nil {
			log.Fatal("Failed to create migrator", zap.Error(err))
		}
		if err := m.Up(); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}
	}

	checks := map[string]handler.Pinger{"database": handler.PingFunc(db.Ping)}

	// Session revocation
	var revoked auth.RevocationList = auth.NewInMemoryRevocationList()
	if cfg.Redis.Enabled {
		rl, err := auth.NewRedisRevocationList(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			_ = rl.Close()
		}()
		revoked = rl
		checks["redis"] = handler.PingFunc(rl.Ping)
		log.Info("Redis revocation list enabled", zap.String("addr", cfg.Redis.Addr()))
	}

	// Team images
	var images tenancy.ImageStore
	switch cfg.Storage.Driver {
	case "s3":
		s3Store, err := storage.NewS3ImageStore(ctx, cfg.Storage.S3, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create S3 image store", zap.Error(err))
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare S3 bucket", zap.Error(err), zap.String("bucket", s3Store.Bucket()))
		}
		images = s3Store
	default:
		images = persistence.NewDBImageStore(db.DB)
	}

	signingKey, err := auth.SigningKey(cfg.JWT, cfg.App, log)
	if err != nil {
		log.Fatal("Failed to prepare signing key", zap.Error(err))
	}
	jwtService := auth.NewJWTService(signingKey, cfg.JWT.Issuer)

	// Repositories and stores
	teamRepo := persistence.NewGormTeamRepository(db.DB)
	tokenRepo := persistence.NewGormTokenRepository(db.DB)
	messageStore := persistence.NewGormStore[inbox.Message](db.DB)

	// Resources and services
	teams := apptenancy.NewTeamResource(teamRepo)
	billingResources := appbilling.NewResources(teams, appbilling.Stores{
		Customers: persistence.NewCustomerStore(db.DB),
		Addresses: persistence.NewGormStore[billing.Address](db.DB),
		Invoices:  persistence.NewInvoiceStore(db.DB),
		Fields:    persistence.NewGormStore[billing.InvoiceField](db.DB),
		Contracts: persistence.NewGormStore[billing.Contract](db.DB),
	})
	authService := apptenancy.NewAuthService(
		teamRepo, tokenRepo, auth.NewBcryptHasher(bcrypt.DefaultCost), jwtService, revoked,
		apptenancy.AuthServiceConfig{SessionTTL: cfg.JWT.Expiration}, log,
	)
	profileService := apptenancy.NewProfileService(teamRepo, images, log)
	inboxService := appinbox.NewService(teamRepo, messageStore, log)
	chartsService := appbilling.NewChartsService(persistence.NewGormChartsSource(db))
	guard := auth.NewGuard(jwtService, tokenRepo, revoked, log)

	registry := metrics.NewRegistry(cfg.Metrics.Namespace)
	if cfg.Metrics.Enabled {
		if err := registry.RegisterDB(sqlDB, cfg.Database.Driver); err != nil {
			log.Fatal("Failed to register database metrics", zap.Error(err))
		}
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Tracing - Server span per request
	// 4. Logger - Log requests with trace context
	// 5. Metrics - Prometheus counters
	// 6. Security headers, CORS and body limit
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracer.IsEnabled(),
		SkipPaths:   []string{"/api/v1/health", "/api/v1" + cfg.Metrics.Path},
	}))
	engine.Use(middleware.SpanAttributes())
	engine.Use(logger.GinMiddleware(log))
	if cfg.Metrics.Enabled {
		engine.Use(middleware.Metrics(registry))
	}
	engine.Use(middleware.Secure(cfg.App.IsProduction()))
	engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(middleware.BodyLimitConfig{
		MaxBytes: cfg.HTTP.MaxBodySize,
		// room for the multipart envelope around the image
		Routes: map[string]int64{"/api/v1/teams/profile/image": cfg.HTTP.MaxImageSize + 64<<10},
	}))

	// Rate limiting
	var limiters []*middleware.RateLimiter
	limit := func(requests int, window time.Duration) gin.HandlerFunc {
		if !cfg.HTTP.RateLimitEnabled {
			return nil
		}
		l := middleware.NewRateLimiter(requests, window)
		limiters = append(limiters, l)
		return middleware.RateLimit(l)
	}
	if cfg.HTTP.RateLimitEnabled {
		engine.Use(limit(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	defer func() {
		for _, l := range limiters {
			l.Stop()
		}
	}()

	api := router.API{
		Guard: middleware.JWTAuth(middleware.JWTMiddlewareConfig{
			Guard:   guard,
			Logger:  log,
			Metrics: registry,
		}),
		LoginLimit:   limit(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow),
		MessageLimit: limit(cfg.HTTP.PublicRateLimitRequests, cfg.HTTP.PublicRateLimitWindow),
		Resources:    handler.NewResourceHandler(registry),
		Billing:      billingResources,
		Inbox:        appinbox.NewMessageResource(teams, messageStore),
		Teams: handler.NewTeamHandler(handler.TeamHandlerConfig{
			Auth:         authService,
			Profiles:     profileService,
			Teams:        teams,
			Metrics:      registry,
			MaxImageSize: cfg.HTTP.MaxImageSize,
		}),
		Messages: handler.NewMessageHandler(inboxService, registry),
		Charts:   handler.NewChartsHandler(chartsService),
		Health:   handler.NewHealthHandler(version, checks),
	}
	if cfg.Metrics.Enabled {
		api.Metrics = registry.Handler()
		api.MetricsPath = cfg.Metrics.Path
	}

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(api.Groups()...).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	if stats, err := db.Stats(); err == nil {
		log.Info("Database pool at shutdown",
			zap.Int("open", stats.OpenConnections),
			zap.Int("in_use", stats.InUse),
			zap.Int64("wait_count", stats.WaitCount),
			zap.Duration("wait_duration", stats.WaitDuration),
		)
	}

	log.Info("Server exited gracefully")
}
