package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/degen-feed/degen-feed/internal/bot/clients"
	"github.com/degen-feed/degen-feed/internal/bot/clients/kafka"
	"github.com/degen-feed/degen-feed/internal/bot/domain"
	bothandler "github.com/degen-feed/degen-feed/internal/bot/handler"
	botservice "github.com/degen-feed/degen-feed/internal/bot/service"
	"github.com/degen-feed/degen-feed/internal/bot/telegram"
	"github.com/degen-feed/degen-feed/internal/common/metrics"
	"github.com/degen-feed/degen-feed/internal/common/middleware"
	"github.com/degen-feed/degen-feed/internal/config"
	"github.com/degen-feed/degen-feed/internal/database"
	"github.com/degen-feed/degen-feed/internal/feed/repository"
	"github.com/degen-feed/degen-feed/pkg"
	"github.com/degen-feed/degen-feed/pkg/txs"
)

func gracefulShutdown(
	server *http.Server,
	metricsServer *metrics.MetricsServer,
	poller *telegram.Poller,
	kafkaConsumer *kafka.Consumer,
	stopCh <-chan struct{},
	appLogger *slog.Logger,
) {
	<-stopCh
	appLogger.Info("Получен сигнал завершения")

	poller.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Ошибка при остановке HTTP сервера",
			"error", err,
		)
	}

	if err := metricsServer.Stop(ctx); err != nil {
		appLogger.Error("Ошибка при остановке сервера метрик",
			"error", err,
		)
	}

	if kafkaConsumer != nil {
		if err := kafkaConsumer.Close(); err != nil {
			appLogger.Error("Ошибка при закрытии Kafka консьюмера",
				"error", err,
			)
		}
	}

	appLogger.Info("Сервер успешно остановлен")
}

func setupTelegramCommands(telegramClient domain.TelegramClientAPI, appLogger *slog.Logger) {
	botCommands := []domain.BotCommand{
		{Command: "start", Description: "Start tracking signal sources"},
		{Command: "help", Description: "Show available commands"},
		{Command: "list", Description: "List your tracked sources"},
		{Command: "brief", Description: "Get a summary of all your topics now"},
	}

	ctx := context.Background()
	if err := telegramClient.SetMyCommands(ctx, botCommands); err != nil {
		appLogger.Error("Ошибка при регистрации команд бота",
			"error", err,
		)
	} else {
		appLogger.Info("Команды бота успешно зарегистрированы")
	}
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
		appLogger.Info("Запуск HTTP сервера бота",
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

	telegramClient := clients.NewTelegramClient(cfg.TelegramBotToken, appLogger)
	setupTelegramCommands(telegramClient, appLogger)

	botService := botservice.NewBotService(topicRepo, userRepo, telegramClient)

	var kafkaConsumer *kafka.Consumer

	if strings.EqualFold(cfg.MessageTransport, "KAFKA") {
		brokers := strings.Split(cfg.KafkaBrokers, ",")
		kafkaConsumer = kafka.NewConsumer(
			brokers,
			"degen-feed-bot",
			cfg.TopicUpdatesTopic,
			cfg.TopicDeadLetterQueue,
			botService,
			appLogger,
		)

		kafkaConsumer.Start(ctx)
		appLogger.Info("Kafka консьюмер успешно запущен")
	}

	updatesHandler := bothandler.NewUpdatesHandler(botService, appLogger)

	metricsMiddleware := middleware.NewMetricsMiddleware("bot")

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metricsMiddleware.Middleware())

	updatesHandler.RegisterRoutes(router)

	poller := telegram.NewPoller(telegramClient, botService, appLogger)
	poller.Start()

	metricsServer := metrics.NewMetricsServer(cfg.BotMetricsPort, appLogger)

	go func() {
		if err := metricsServer.Start(ctx); err != nil {
			appLogger.Error("Ошибка при запуске сервера метрик",
				"error", err,
			)
		}
	}()

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.BotServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopCh := make(chan struct{})

	startHTTPServer(httpServer, cfg.BotServerPort, stopCh, appLogger)
	gracefulShutdown(httpServer, metricsServer, poller, kafkaConsumer, stopCh, appLogger)

	return nil
}
