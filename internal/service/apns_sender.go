package service

import (
	"context"
	"fmt"
	"sync"

	"notification-relay/internal/config"
	"notification-relay/internal/models"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
	"go.uber.org/zap"
)

// Ограничение на число одновременных запросов к APNS
const apnsMaxInFlight = 16

type apnsClient interface {
	PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error)
}

type apnsSender struct {
	client    apnsClient
	logger    *zap.Logger
	topic     string
	publisher TokenDeletionPublisher // Может быть nil
}

// NewApnsSender создает отправителя APNS для iOS устройств.
// Возвращает nil, nil, если APNS не настроен.
func NewApnsSender(cfg config.APNSConfig, publisher TokenDeletionPublisher, logger *zap.Logger) (PlatformSender, error) {
	if !cfg.Enabled() {
		logger.Warn("APNS конфигурация не полная (KeyPath, KeyID, TeamID, Topic), APNS sender не будет создан.")
		return nil, nil
	}

	authKey, err := token.AuthKeyFromFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ключа APNS из файла %s: %w", cfg.KeyPath, err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	logger.Info("APNS Sender успешно инициализирован",
		zap.String("key_id", cfg.KeyID),
		zap.String("team_id", cfg.TeamID),
		zap.String("topic", cfg.Topic),
		zap.Bool("production", cfg.Production),
	)
	return newApnsSender(client, cfg.Topic, publisher, logger), nil
}

func newApnsSender(client apnsClient, topic string, publisher TokenDeletionPublisher, logger *zap.Logger) *apnsSender {
	return &apnsSender{
		client:    client,
		logger:    logger.Named("apns_sender"),
		topic:     topic,
		publisher: publisher,
	}
}

func (s *apnsSender) Platforms() []string {
	return []string{models.PlatformIOS}
}

func (s *apnsSender) Send(ctx context.Context, tokens []string, title string, options models.NotificationOptions) error {
	log := s.logger
	log.Debug("Начало отправки APNS уведомлений", zap.Int("count", len(tokens)))

	var wg sync.WaitGroup
	var mu sync.Mutex
	failureCount := 0
	var firstError error
	sem := make(chan struct{}, apnsMaxInFlight)

	notificationPayload := payload.NewPayload().
		AlertTitle(title).
		AlertBody(options.Body).
		Sound("default")

	for _, deviceToken := range tokens {
		wg.Add(1)
		sem <- struct{}{}
		go func(tokenToSend string) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := s.client.PushWithContext(ctx, &apns2.Notification{
				DeviceToken: tokenToSend,
				Topic:       s.topic,
				Payload:     notificationPayload,
				Priority:    apns2.PriorityHigh,
			})

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				log.Error("Ошибка вызова APNS PushWithContext", zap.String("token", tokenPrefix(tokenToSend)), zap.Error(err))
				failureCount++
				if firstError == nil {
					firstError = fmt.Errorf("apns send error: %w", err)
				}
				return
			}

			if !res.Sent() {
				log.Warn("APNS уведомление не отправлено (ответ от сервера)",
					zap.String("token", tokenPrefix(tokenToSend)),
					zap.Int("status_code", res.StatusCode),
					zap.String("apns_id", res.ApnsID),
					zap.String("reason", res.Reason),
				)
				// Устаревший токен отправляется на удаление и ошибкой доставки не считается
				if res.Reason == apns2.ReasonUnregistered || res.Reason == apns2.ReasonBadDeviceToken {
					reportInvalidToken(ctx, s.publisher, tokenToSend, log)
					return
				}
				failureCount++
				if firstError == nil {
					firstError = fmt.Errorf("apns delivery failed: %s", res.Reason)
				}
			}
		}(deviceToken)
	}

	wg.Wait()

	if failureCount > 0 {
		log.Error("Завершено с ошибками APNS", zap.Int("failures", failureCount), zap.Int("total", len(tokens)))
		return firstError
	}

	log.Info("APNS отправка завершена успешно", zap.Int("sent_count", len(tokens)))
	return nil
}
