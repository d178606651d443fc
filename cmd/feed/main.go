package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/degen-feed/degen-feed/internal/common/metrics"
	"github.com/degen-feed/degen-feed/internal/common/middleware"
	"github.com/degen-feed/degen-feed/internal/config"
	"github.com/degen-feed/degen-feed/internal/database"
	"github.com/degen-feed/degen-feed/internal/feed/auth"
	"github.com/degen-feed/degen-feed/internal/feed/cache"
	"github.com/degen-feed/degen-feed/internal/feed/clients"
	"github.com/degen-feed/degen-feed/internal/feed/handler"
	"github.com/degen-feed/degen-feed/internal/feed/notify"
	"github.com/degen-feed/degen-feed/internal/feed/repository"
	"github.com/degen-feed/degen-feed/internal/feed/scheduler"
	"github.com/degen-feed/degen-feed/internal/feed/service"
	"github.com/degen-feed/degen-feed/internal/feed/summarizer"
	"github.com/degen-feed/degen-feed/pkg"
	"github.com/degen-feed/degen-feed/pkg/txs"
)

type Scheduler interface {
	Start()
	Stop()
}

func gracefulShutdown(
	ctx context.Context,
	server *http.Server,
	metricsServer *metrics.MetricsServer,
	staleScheduler Scheduler,
	briefService *service.BriefService,
	stopCh <-chan struct{},
	appLogger *slog.Logger,
) {
	<-stopCh
	appLogger.Info("Получен сигнал завершения")

	if staleScheduler != nil {
		staleScheduler.Stop()
	}

	if briefService != nil {
		briefService.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Ошибка при остановке HTTP сервера",
			"error", err,
		)
	}

	if err := metricsServer.Stop(shutdownCtx); err != nil {
		appLogger.Error("Ошибка при остановке сервера метрик",
			"error", err,
		)
	}

	appLogger.Info("Сервер успешно остановлен")
}

func startHTTPServer(server *http.Server, port int, stopCh chan<- struct{}, appLogger *slog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLogger.Info("Получен системный сигнал",
			"signal", sig.String(),
		)
		close(stopCh)
	}()

	go func() {
		appLogger.Info("Запуск HTTP сервера feed-сервиса",
			"port", port,
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Ошибка при запуске HTTP сервера",
				"error", err,
			)
			close(stopCh)
		}
	}()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка запуска сервиса: %v\n", err)
		os.Exit(1)
	}
}

//nolint:funlen // Длина функции обусловлена необходимостью последовательной инициализации всех компонентов.
func run() error {
	appLogger := pkg.NewLogger(os.Stdout)

	cfg := config.LoadConfig()

	ctx := context.Background()

	db, err := database.NewPostgresDB(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Ошибка при подключении к базе данных",
			"error", err,
		)

		return fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	defer db.Close()

	txManager := txs.NewTxManager(db.Pool, appLogger)

	repoFactory := repository.NewFactory(db, txManager, cfg, appLogger)

	topicRepo, err := repoFactory.CreateTopicRepository()
	if err != nil {
		appLogger.Error("Ошибка при создании репозитория топиков",
			"error", err,
		)

		return err
	}

	userRepo, err := repoFactory.CreateUserRepository()
	if err != nil {
		appLogger.Error("Ошибка при создании репозитория пользователей",
			"error", err,
		)

		return err
	}

	twitterClient := clients.NewTwitterClient(cfg.TwitterAPIKey, cfg.TwitterAPIBaseURL, cfg, appLogger)
	telegramClient := clients.NewTelegramChannelClient(cfg.TelegramAPIBaseURL, cfg, appLogger)
	contentSummarizer := summarizer.NewSummarizer(cfg, appLogger)

	notifierFactory := notify.NewNotifierFactory(cfg, appLogger)

	botNotifier, err := notifierFactory.CreateNotifier()
	if err != nil {
		appLogger.Error("Ошибка при создании нотификатора бота",
			"error", err,
		)

		return err
	}

	topicNotifier := botNotifier

	var briefService *service.BriefService

	if cfg.BriefEnabled {
		briefCache, cacheErr := cache.NewRedisBriefCache(
			ctx, cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB, cfg.BriefCacheTTL, appLogger,
		)
		if cacheErr != nil {
			appLogger.Error("Ошибка при подключении к Redis для брифов",
				"error", cacheErr,
			)

			appLogger.Warn("Продолжаем без брифов")
		} else {
			briefService = service.NewBriefService(botNotifier, briefCache, userRepo, appLogger)
			briefService.Start(ctx)
			topicNotifier = notify.NewBriefAwareNotifier(botNotifier, briefService, appLogger)
			appLogger.Info("Сервис брифов успешно запущен")
		}
	} else {
		appLogger.Info("Брифы отключены в конфигурации")
	}

	topicService := service.NewTopicService(
		topicRepo,
		twitterClient,
		telegramClient,
		contentSummarizer,
		topicNotifier,
		txManager,
		cfg.TopicCacheDuration,
		appLogger,
	)

	userService := service.NewUserService(userRepo, appLogger)

	validator := auth.NewValidator(cfg.TelegramBotToken, cfg.InitDataVerify, cfg.InitDataMaxAge)

	feedHandler := handler.NewFeedHandler(topicService, userService, validator, appLogger)

	rateLimiter := middleware.NewRateLimiterMiddleware(ctx, cfg.RateLimitRequests, cfg.RateLimitWindow, appLogger)
	metricsMiddleware := middleware.NewMetricsMiddleware("feed")

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(rateLimiter.Middleware())
	router.Use(metricsMiddleware.Middleware())

	feedHandler.RegisterRoutes(router)

	var staleScheduler Scheduler

	if cfg.UseBackgroundRefresher {
		appLogger.Info("Использование фонового обновления устаревших топиков",
			"batchSize", cfg.StaleRefreshBatchSize,
			"workers", cfg.StaleRefreshWorkers,
		)

		staleScheduler = scheduler.NewParallelScheduler(
			topicService,
			topicRepo,
			cfg.StaleCheckInterval,
			cfg.TopicCacheDuration,
			cfg.StaleRefreshBatchSize,
			cfg.StaleRefreshWorkers,
			appLogger,
		)

		staleScheduler.Start()
	} else {
		appLogger.Info("Фоновое обновление топиков отключено в конфигурации")
	}

	metricsServer := metrics.NewMetricsServer(cfg.FeedMetricsPort, appLogger)

	go func() {
		if err := metricsServer.Start(ctx); err != nil {
			appLogger.Error("Ошибка при запуске сервера метрик",
				"error", err,
			)
		}
	}()

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.FeedServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopCh := make(chan struct{})

	startHTTPServer(httpServer, cfg.FeedServerPort, stopCh, appLogger)
	gracefulShutdown(ctx, httpServer, metricsServer, staleScheduler, briefService, stopCh, appLogger)

	return nil
}
