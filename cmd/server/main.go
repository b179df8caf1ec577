package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	svix "github.com/svix/svix-webhooks/go"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/adapters/event"
	httpAdapter "github.com/khoahotran/folio/adapters/http"
	"github.com/khoahotran/folio/adapters/media_storage"
	"github.com/khoahotran/folio/adapters/persistence"
	"github.com/khoahotran/folio/adapters/webfetch"
	"github.com/khoahotran/folio/internal/application/service"
	identityUC "github.com/khoahotran/folio/internal/application/usecase/identity"
	mediaUC "github.com/khoahotran/folio/internal/application/usecase/media"
	portfolioUC "github.com/khoahotran/folio/internal/application/usecase/portfolio"
	previewUC "github.com/khoahotran/folio/internal/application/usecase/preview"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/metrics"
	"github.com/khoahotran/folio/pkg/tracing"
)

const shutdownTimeout = 15 * time.Second

// rejectingWebhook refuses every delivery when no signing secret is configured.
type rejectingWebhook struct{}

func (rejectingWebhook) Verify([]byte, http.Header) error {
	return errors.New("webhook signing secret is not configured")
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.NewZapLogger("development").Fatal("Cannot load config", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Start folio API server...", zap.String("env", cfg.App.Env), zap.String("db_driver", cfg.DB.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(cfg, appLogger, "folio-api")
	if err != nil {
		appLogger.Fatal("Cannot init tracing", err)
	}

	// Storage
	store, err := persistence.OpenStore(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot open store", err)
	}
	defer store.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// Public view cache
	var cache service.PortfolioCache
	if cfg.Redis.Addr != "" {
		redisClient, err := persistence.NewRedisClient(ctx, cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot connect Redis", err)
		}
		defer redisClient.Close()
		cache = persistence.NewRedisPortfolioCache(redisClient, cfg.Redis.CacheTTL, appLogger)
	} else {
		appLogger.Warn("Redis not configured, public views are not cached")
	}

	// Events and view counting
	var publisher service.EventPublisher
	var viewRecorder service.ViewRecorder
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient
		viewRecorder = event.NewKafkaViewRecorder(kafkaClient, collector, appLogger)
	} else {
		appLogger.Warn("Kafka not configured, views are written inline")
		viewRecorder = portfolioUC.NewDirectViewRecorder(store.Portfolios, collector, appLogger)
	}

	// Identity
	var verifier service.IdentityVerifier
	switch cfg.Auth.Mode {
	case config.AuthModeJWKS:
		jwksVerifier, err := auth.NewJWKSVerifier(cfg.Auth.JWKSIssuer, cfg.Auth.JWKSAudience)
		if err != nil {
			appLogger.Fatal("Cannot init JWKS verifier", err)
		}
		verifier = jwksVerifier
	default:
		verifier = auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	}

	var webhookVerifier httpAdapter.WebhookVerifier = rejectingWebhook{}
	if cfg.Auth.WebhookSecret != "" {
		wh, err := svix.NewWebhook(cfg.Auth.WebhookSecret)
		if err != nil {
			appLogger.Fatal("Invalid webhook signing secret", err)
		}
		webhookVerifier = wh
	} else {
		appLogger.Warn("Webhook secret not configured, identity webhooks are rejected")
	}

	// Services
	uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize uploader", err)
	}
	outbound := webfetch.NewSafeClient(cfg.Preview.Timeout)

	// Use Cases
	resolveUserUC := identityUC.NewResolveUserUseCase(store.Users, appLogger)
	syncUserUC := identityUC.NewSyncUserUseCase(store.Users, appLogger)

	mutator := portfolioUC.NewMutator(store.Portfolios, cache, publisher, collector, appLogger)
	allocator := portfolioUC.NewSlugAllocator(store.Portfolios)
	createUC := portfolioUC.NewCreatePortfolioUseCase(store.Portfolios, allocator, mutator, appLogger)
	getPublicUC := portfolioUC.NewGetPublicPortfolioUseCase(store.Portfolios, store.Users, cache, viewRecorder, collector, appLogger)
	resumeUC := portfolioUC.NewDownloadResumeUseCase(store.Portfolios, webfetch.NewFileFetcher(outbound))
	uploadUC := mediaUC.NewUploadAssetUseCase(uploader, collector, appLogger)
	previewFetchUC := previewUC.NewFetchPreviewUseCase(webfetch.NewLinkPreviewFetcher(outbound, appLogger), cfg.Preview.Timeout, collector, appLogger)

	// HTTP Handlers
	portfolioHandler := httpAdapter.NewPortfolioHandler(
		portfolioUC.NewGetMyPortfolioUseCase(store.Portfolios),
		createUC,
		portfolioUC.NewDeletePortfolioUseCase(store.Portfolios, mutator, appLogger),
		portfolioUC.NewExportPortfolioUseCase(store.Portfolios),
		portfolioUC.NewUpdateProfileUseCase(store.Portfolios, allocator, mutator, createUC),
		portfolioUC.NewContentUseCase(mutator),
		portfolioUC.NewSettingsUseCase(mutator),
		allocator,
		appLogger,
	)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Logger:      appLogger,
		Verifier:    verifier,
		ResolveUser: resolveUserUC,
		CORSOrigins: cfg.App.CORSOrigins,
		RateLimiter: httpAdapter.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Metrics:     collector.Handler(),
		Portfolio:   portfolioHandler,
		Public:      httpAdapter.NewPublicHandler(getPublicUC, resumeUC, appLogger),
		Upload:      httpAdapter.NewUploadHandler(uploadUC, appLogger),
		Preview:     httpAdapter.NewPreviewHandler(previewFetchUC, appLogger),
		Identity:    httpAdapter.NewIdentityHandler(webhookVerifier, syncUserUC, appLogger),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		appLogger.Error("Failed to flush traces", err)
	}
}
