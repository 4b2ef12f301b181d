package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notification-relay/internal/config"
	"notification-relay/internal/handler"
	sharedLogger "notification-relay/internal/logger"
	"notification-relay/internal/messaging"
	"notification-relay/internal/models"
	"notification-relay/internal/presence"
	"notification-relay/internal/relay"
	"notification-relay/internal/service"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	// --- Загрузка конфигурации ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// --- Инициализация логгера ---
	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:    cfg.Log.Level,
		Encoding: cfg.Log.Encoding,
	})
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer logger.Sync()
	logger.Info("Логгер инициализирован", zap.String("logLevel", cfg.Log.Level))

	ctx := context.Background()

	// --- Подключение к RabbitMQ ---
	rabbitConn, err := connectRabbitMQ(cfg.RabbitMQ.URI, logger)
	if err != nil {
		logger.Fatal("Не удалось подключиться к RabbitMQ", zap.Error(err))
	}
	defer rabbitConn.Close()

	tokenDeletionPublisher, err := messaging.NewTokenDeletionPublisher(rabbitConn, cfg.TokenDeletionQueueName, logger)
	if err != nil {
		logger.Fatal("Не удалось создать TokenDeletionPublisher", zap.Error(err))
	}

	// --- Трекер присутствия ---
	var tracker presence.Tracker
	if cfg.Redis.Addr != "" {
		redisClient, err := setupRedis(cfg.Redis, logger)
		if err != nil {
			logger.Fatal("Не удалось подключиться к Redis", zap.Error(err))
		}
		defer redisClient.Close()
		tracker = presence.NewRedisTracker(redisClient, logger)
	} else {
		logger.Warn("REDIS_ADDR не указан, все клиенты считаются фоновыми")
		tracker = presence.NewNoopTracker()
	}

	// --- Отправители платформ ---
	// Клиент Firebase создается один раз и передается отправителю явно
	var fcmSender service.PlatformSender
	firebaseApp, err := service.NewFirebaseApp(ctx, cfg.Firebase, logger)
	if err != nil {
		logger.Fatal("Ошибка инициализации Firebase App", zap.Error(err))
	}
	if firebaseApp != nil {
		fcmSender, err = service.NewFCMSender(ctx, firebaseApp, tokenDeletionPublisher, logger)
		if err != nil {
			logger.Fatal("Ошибка инициализации FCM Sender", zap.Error(err))
		}
	} else {
		logger.Warn("FCM Sender не инициализирован, используется заглушка.")
		fcmSender = service.NewLogSender(logger, models.PlatformWeb, models.PlatformAndroid)
	}

	apnsSender, err := service.NewApnsSender(cfg.APNS, tokenDeletionPublisher, logger)
	if err != nil {
		logger.Fatal("Ошибка инициализации APNS Sender", zap.Error(err))
	}
	if apnsSender == nil {
		logger.Warn("APNS Sender не инициализирован, используется заглушка.")
		apnsSender = service.NewLogSender(logger, models.PlatformIOS)
	}

	httpClient := &http.Client{Timeout: cfg.TokenService.Timeout}
	tokenProvider := service.NewHTTPTokenProvider(httpClient, cfg.TokenService.URL, logger, cfg.InterServiceSecret)
	displayer := service.NewNotificationDisplayer(tokenProvider, logger, fcmSender, apnsSender)

	// --- Релей и консьюмер ---
	backgroundRelay := relay.NewRelay(displayer, logger)
	processor := messaging.NewProcessor(logger, backgroundRelay, tracker, cfg.ProcessTimeout)
	consumer, err := messaging.NewConsumer(rabbitConn, logger, cfg.PushQueueName, cfg.WorkerConcurrency, processor)
	if err != nil {
		logger.Fatal("Не удалось создать консьюмера RabbitMQ", zap.Error(err))
	}

	// --- HTTP сервер ---
	srv := startHTTPServer(cfg, tracker, logger)

	consumerErrChan := make(chan error, 1)
	go func() {
		logger.Info("Запуск консьюмера RabbitMQ...")
		err := consumer.Start()
		if err != nil {
			logger.Error("Консьюмер RabbitMQ завершился с ошибкой", zap.Error(err))
		}
		consumerErrChan <- err
	}()

	logger.Info("Релей уведомлений запущен")
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	consumerDone := false
	select {
	case <-quit:
		logger.Info("Получен сигнал завершения, начинаем остановку...")
	case err := <-consumerErrChan:
		consumerDone = true
		logger.Warn("Консьюмер завершился, инициируем остановку", zap.Error(err))
	}

	// --- Graceful shutdown ---
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("Ошибка при остановке HTTP сервера", zap.Error(err))
	}

	consumer.Stop()
	if !consumerDone {
		<-consumerErrChan
	}

	logger.Info("Релей уведомлений успешно остановлен.")
}

func startHTTPServer(cfg *config.Config, tracker presence.Tracker, logger *zap.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(handler.ZapLoggingMiddleware(logger.Named("http")))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	h := handler.NewHandler(tracker, logger, cfg.PresenceTTL, cfg.InterServiceSecret)
	h.RegisterRoutes(router)

	// Метрики подключаем после регистрации маршрутов
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Запуск HTTP сервера", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Ошибка запуска HTTP сервера", zap.Error(err))
		}
	}()

	return srv
}

// connectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками
func connectRabbitMQ(uri string, logger *zap.Logger) (*amqp.Connection, error) {
	var connection *amqp.Connection
	var err error
	maxRetries := 50
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		connection, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Подключение к RabbitMQ успешно установлено")
			go func() {
				closeErr := <-connection.NotifyClose(make(chan *amqp.Error, 1))
				if closeErr != nil {
					logger.Error("Соединение с RabbitMQ разорвано", zap.Error(closeErr))
				}
			}()
			return connection, nil
		}
		logger.Warn("Не удалось подключиться к RabbitMQ, попытка переподключения...",
			zap.Error(err),
			zap.Int("retry", i+1),
			zap.Duration("delay", retryDelay),
		)
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("не удалось подключиться к RabbitMQ после %d попыток: %w", maxRetries, err)
}

// setupRedis создает клиент Redis и проверяет соединение с повторами.
func setupRedis(cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	maxRetries := 20
	retryDelay := 3 * time.Second
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		client := redis.NewClient(opts)

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			logger.Info("Подключение к Redis успешно установлено", zap.String("address", cfg.Addr), zap.Int("db", cfg.DB))
			return client, nil
		}

		client.Close()
		lastErr = err
		logger.Warn("Redis ping failed, retrying...", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, lastErr)
}
