package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/ignatzorin/sportmarket-backend/internal/config"
	"github.com/ignatzorin/sportmarket-backend/internal/db"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/policy"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/goroutine"
	"github.com/ignatzorin/sportmarket-backend/internal/http/middleware"
	httpRouter "github.com/ignatzorin/sportmarket-backend/internal/http/router"
	"github.com/ignatzorin/sportmarket-backend/internal/infrastructure/cache"
	"github.com/ignatzorin/sportmarket-backend/internal/infrastructure/gateway"
	"github.com/ignatzorin/sportmarket-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/sportmarket-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/sportmarket-backend/internal/interface/http/handler"
	"github.com/ignatzorin/sportmarket-backend/internal/logger"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/clock"
	"github.com/ignatzorin/sportmarket-backend/internal/service"
	"github.com/ignatzorin/sportmarket-backend/internal/storage"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/listing"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/payment"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/paywall"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/promotion"
	"github.com/ignatzorin/sportmarket-backend/internal/ws"
	"github.com/ignatzorin/sportmarket-backend/migrations"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.Env)

	healthChecks := map[string]handler.Pinger{}

	// Хранилище объявлений и платежей.
	var (
		listingRepo repository.ListingRepository
		paymentRepo repository.PaymentRepository
	)
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Log.Warn("main: данные хранятся в памяти процесса и будут потеряны при перезапуске")
		listingRepo = memory.NewListingRepository()
		paymentRepo = memory.NewPaymentRepository()
	default:
		dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.PoolOptions{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnLifetime,
		})
		if err != nil {
			logger.Log.WithError(err).Fatal("main: ошибка подключения к базе")
		}
		defer safeClose(dbConn)

		if err := db.RunMigrations(ctx, dbConn, migrations.FS); err != nil {
			logger.Log.WithError(err).Fatal("main: ошибка миграций")
		}
		healthChecks["database"] = dbConn
		listingRepo = persistence.NewListingRepositoryAdapter(dbConn)
		paymentRepo = persistence.NewPaymentRepositoryAdapter(dbConn)
	}

	clk := clock.System{}

	// Redis необязателен: без него дедупликация вебхуков и лимиты работают в памяти процесса.
	var (
		redisClient *redis.Client
		dedupe      repository.Deduplicator = memory.NewDeduplicator(cache.DefaultDedupeTTL, clk)
	)
	if cfg.RedisURL != "" {
		redisClient, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Log.WithError(err).Warn("main: redis недоступен, продолжаем без него")
		} else {
			defer redisClient.Close()
			dedupe = cache.NewRedisDeduplicator(redisClient, "", cache.DefaultDedupeTTL)
			healthChecks["redis"] = handler.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			})
		}
	}

	mediaStorage, err := newMediaStorage(ctx, cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("main: не удалось подготовить хранилище файлов")
	}

	var checkoutGateway repository.PaymentGateway
	if cfg.Gateway.URL != "" {
		checkoutGateway = gateway.NewCheckoutClient(cfg.Gateway.URL, cfg.Gateway.APIKey, cfg.Gateway.ReturnURL, cfg.Gateway.Timeout)
	} else {
		logger.Log.Warn("main: PAYMENT_GATEWAY_URL не задан, используется локальная заглушка оплаты")
		checkoutGateway = gateway.StubGateway{BaseURL: "http://localhost:" + cfg.HTTPPort}
	}

	runner := goroutine.NewRunner(logger.Log)
	hub := ws.NewHub()
	runner.Go(func() { hub.Run(ctx) })
	notifier := ws.NewHubNotifier(hub, runner)

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	pricing := policy.NewStaticPricing(cfg.Pricing)

	// Сценарии.
	freshener := listing.NewLazyFreshener(listingRepo, clk)
	checkout := payment.NewCheckoutOpener(paymentRepo, checkoutGateway, clk)

	listingHandler := handler.NewListingHandler(handler.ListingUseCases{
		Create:       listing.NewCreateListingUseCase(listingRepo, pricing, checkout, notifier, clk),
		Update:       listing.NewUpdateListingUseCase(listingRepo, freshener, pricing, checkout, notifier, clk),
		Delete:       listing.NewDeleteListingUseCase(listingRepo, mediaStorage, notifier, clk),
		Get:          listing.NewGetListingUseCase(listingRepo, freshener, clk),
		List:         listing.NewListListingsUseCase(listingRepo, freshener, clk),
		ListMy:       listing.NewListMyListingsUseCase(listingRepo, freshener, clk),
		Pay:          listing.NewPayListingUseCase(listingRepo, pricing, checkout),
		ReplaceMedia: listing.NewReplaceMediaUseCase(listingRepo, pricing, checkout, mediaStorage, notifier, clk),
		Promote:      promotion.NewPromoteListingUseCase(listingRepo, freshener, pricing, checkout, notifier, clk),
		Unlock:       paywall.NewRequestUnlockUseCase(listingRepo, freshener, checkout),
	}, clk)

	paymentHandler := handler.NewPaymentHandler(
		payment.NewHandleCallbackUseCase(paymentRepo, listingRepo, notifier, clk),
		payment.NewListMyPaymentsUseCase(paymentRepo),
		dedupe,
		cfg.Gateway.WebhookSecret,
	)

	engine := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Listing: listingHandler,
		Payment: paymentHandler,
		WS:      handler.NewWSHandler(hub, tokenManager, runner, cfg.AllowedOrigins),
		Health:  handler.NewHealthHandler(healthChecks),
	}, tokenManager, middleware.NewLimiterStore(redisClient))

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	logger.Log.WithField("port", cfg.HTTPPort).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.WithError(err).Fatal("main: сервер завершился с ошибкой")
	}

	// Дожидаемся фоновых уведомлений перед выходом.
	runner.Wait()
}

func newMediaStorage(ctx context.Context, cfg *config.Config) (repository.MediaStorage, error) {
	if cfg.MediaDriver == config.MediaDriverS3 {
		return storage.NewS3Storage(ctx, storage.S3Options{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
			UsePathStyle:    cfg.S3.UsePathStyle,
			MaxUploadMB:     cfg.MaxUploadSizeMB,
		})
	}
	return storage.NewLocalStorage(cfg.MediaStoragePath, cfg.MediaPublicURL, cfg.MaxUploadSizeMB)
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.WithError(err).Error("main: ошибка закрытия базы")
	}
}
