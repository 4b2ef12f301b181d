package service

import (
	"context"
	"fmt"

	"notification-relay/internal/config"
	"notification-relay/internal/models"

	firebase "firebase.google.com/go/v4"
	fcm "firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Firebase Admin SDK принимает не более 500 токенов в одном multicast запросе
const fcmMaxTokensPerRequest = 500

// NewFirebaseApp создает клиент Firebase один раз на процесс.
// Возвращает nil, nil, если ключ сервис-аккаунта не указан.
func NewFirebaseApp(ctx context.Context, cfg config.FirebaseConfig, logger *zap.Logger) (*firebase.App, error) {
	if !cfg.Enabled() {
		logger.Warn("Путь к файлу ключа Firebase (FCM_CREDENTIALS_PATH) не указан, Firebase App не будет создан.")
		return nil, nil
	}

	appConfig := &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}
	app, err := firebase.NewApp(ctx, appConfig, option.WithCredentialsFile(cfg.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Firebase App из файла '%s': %w", cfg.CredentialsPath, err)
	}

	logger.Info("Firebase App инициализирован",
		zap.String("project_id", cfg.ProjectID),
		zap.String("sender_id", cfg.MessagingSenderID),
		zap.String("app_id", cfg.AppID),
	)
	return app, nil
}

// fcmClient - часть *fcm.Client, которой пользуется отправитель.
type fcmClient interface {
	SendEachForMulticast(ctx context.Context, message *fcm.MulticastMessage) (*fcm.BatchResponse, error)
}

type fcmSender struct {
	client       fcmClient
	logger       *zap.Logger
	publisher    TokenDeletionPublisher // Может быть nil
	invalidToken func(error) bool       // Ошибка означает, что токен больше не действителен
}

// NewFCMSender создает отправителя FCM для web и android устройств.
func NewFCMSender(ctx context.Context, app *firebase.App, publisher TokenDeletionPublisher, logger *zap.Logger) (PlatformSender, error) {
	if app == nil {
		return nil, fmt.Errorf("firebase app is nil")
	}
	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения FCM Messaging client: %w", err)
	}
	logger.Info("FCM Sender успешно инициализирован")
	return newFCMSender(messagingClient, publisher, logger), nil
}

func newFCMSender(client fcmClient, publisher TokenDeletionPublisher, logger *zap.Logger) *fcmSender {
	return &fcmSender{
		client:       client,
		logger:       logger.Named("fcm_sender"),
		publisher:    publisher,
		invalidToken: isInvalidFCMToken,
	}
}

func (s *fcmSender) Platforms() []string {
	return []string{models.PlatformWeb, models.PlatformAndroid}
}

func (s *fcmSender) Send(ctx context.Context, tokens []string, title string, options models.NotificationOptions) error {
	var failures, total int
	for start := 0; start < len(tokens); start += fcmMaxTokensPerRequest {
		end := min(start+fcmMaxTokensPerRequest, len(tokens))
		batch := tokens[start:end]
		total += len(batch)

		failed, err := s.sendBatch(ctx, batch, title, options)
		if err != nil {
			return err
		}
		failures += failed
	}

	if failures > 0 {
		return fmt.Errorf("ошибка доставки %d из %d FCM сообщений", failures, total)
	}
	return nil
}

func (s *fcmSender) sendBatch(ctx context.Context, tokens []string, title string, options models.NotificationOptions) (int, error) {
	message := &fcm.MulticastMessage{
		Tokens: tokens,
		Notification: &fcm.Notification{
			Title: title,
			Body:  options.Body,
		},
		Webpush: &fcm.WebpushConfig{
			Notification: &fcm.WebpushNotification{
				Title: title,
				Body:  options.Body,
			},
		},
		Android: &fcm.AndroidConfig{
			Priority: "high",
		},
	}

	br, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		s.logger.Error("Ошибка вызова SendEachForMulticast FCM", zap.Error(err))
		return 0, fmt.Errorf("ошибка отправки FCM: %w", err)
	}

	s.logger.Info("Результат отправки FCM",
		zap.Int("success_count", br.SuccessCount),
		zap.Int("failure_count", br.FailureCount),
	)

	if br.FailureCount == 0 {
		return 0, nil
	}

	// Токены, отправленные на удаление, ошибкой доставки не считаются
	failed := 0
	for idx, resp := range br.Responses {
		if resp.Success || idx >= len(tokens) {
			continue
		}
		token := tokens[idx]
		if s.invalidToken(resp.Error) {
			s.logger.Warn("Обнаружен невалидный/незарегистрированный FCM токен",
				zap.String("token", tokenPrefix(token)),
				zap.Error(resp.Error),
			)
			reportInvalidToken(ctx, s.publisher, token, s.logger)
			continue
		}
		failed++
		s.logger.Error("Ошибка доставки FCM для токена",
			zap.String("token", tokenPrefix(token)),
			zap.Error(resp.Error),
		)
	}
	return failed, nil
}

func isInvalidFCMToken(err error) bool {
	return fcm.IsUnregistered(err) || fcm.IsSenderIDMismatch(err) || fcm.IsInvalidArgument(err)
}

// reportInvalidToken публикует токен на удаление, если publisher настроен.
func reportInvalidToken(ctx context.Context, publisher TokenDeletionPublisher, token string, logger *zap.Logger) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishTokenDeletion(ctx, token); err != nil {
		logger.Error("Не удалось опубликовать токен на удаление", zap.String("token", tokenPrefix(token)), zap.Error(err))
	}
}

// tokenPrefix возвращает начало токена для логирования.
func tokenPrefix(token string) string {
	prefixLen := 10
	if len(token) < prefixLen {
		return token
	}
	return token[:prefixLen] + "..."
}
