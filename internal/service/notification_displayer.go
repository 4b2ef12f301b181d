package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"notification-relay/internal/models"
	"notification-relay/internal/relay"

	"go.uber.org/zap"
)

// PlatformSender определяет интерфейс для показа уведомления на устройствах конкретных платформ (FCM/APNS).
type PlatformSender interface {
	Send(ctx context.Context, tokens []string, title string, options models.NotificationOptions) error
	Platforms() []string // Например, "web", "android" или "ios"
}

// TokenDeletionPublisher сообщает об устаревших токенах устройств.
type TokenDeletionPublisher interface {
	PublishTokenDeletion(ctx context.Context, token string) error
}

// --- Реализация возможности показа уведомлений ---

type notificationDisplayer struct {
	tokenProvider TokenProvider
	logger        *zap.Logger
	senders       map[string]PlatformSender // platform -> sender
}

// Убедимся, что notificationDisplayer подходит релею
var _ relay.Displayer = (*notificationDisplayer)(nil)

// NewNotificationDisplayer создает отображатель уведомлений, который доставляет
// уведомление на все устройства получателя через отправителей платформ.
// Если на одну платформу претендуют несколько отправителей, используется первый.
func NewNotificationDisplayer(tp TokenProvider, logger *zap.Logger, senders ...PlatformSender) relay.Displayer {
	byPlatform := make(map[string]PlatformSender)
	for _, s := range senders {
		if s == nil {
			continue
		}
		for _, p := range s.Platforms() {
			if _, exists := byPlatform[p]; exists {
				logger.Warn("Для платформы уже есть отправитель, дубликат пропущен", zap.String("platform", p))
				continue
			}
			byPlatform[p] = s
		}
	}
	if len(byPlatform) == 0 {
		logger.Warn("Не настроено ни одного отправителя, уведомления показываться не будут.")
	}
	return &notificationDisplayer{
		tokenProvider: tp,
		logger:        logger.Named("notification_displayer"),
		senders:       byPlatform,
	}
}

func (d *notificationDisplayer) ShowNotification(ctx context.Context, recipient models.Recipient, title string, options models.NotificationOptions) error {
	log := d.logger.With(zap.String("user_id", recipient.UserID.String()))

	// 1. Определяем устройства получателя
	deviceTokens := recipient.DeviceTokens
	if len(deviceTokens) == 0 && d.tokenProvider != nil {
		var err error
		deviceTokens, err = d.tokenProvider.GetUserDeviceTokens(ctx, recipient.UserID)
		if err != nil {
			log.Error("Ошибка получения токенов пользователя", zap.Error(err))
			return fmt.Errorf("get device tokens: %w", err)
		}
	}

	if len(deviceTokens) == 0 {
		log.Warn("Не найдено устройств для показа уведомления")
		return nil
	}

	// 2. Группируем токены по отправителям
	groups := make(map[PlatformSender][]string)
	order := make([]PlatformSender, 0, len(d.senders))
	for _, dt := range deviceTokens {
		sender, ok := d.senders[dt.Platform]
		if !ok {
			log.Warn("Нет отправителя для платформы токена", zap.String("platform", dt.Platform))
			continue
		}
		if _, seen := groups[sender]; !seen {
			order = append(order, sender)
		}
		groups[sender] = append(groups[sender], dt.Token)
	}

	// 3. Отправляем параллельно
	var wg sync.WaitGroup
	var mu sync.Mutex
	var sendErrors []error

	for _, sender := range order {
		tokens := groups[sender]
		wg.Add(1)
		go func(s PlatformSender, tokens []string) {
			defer wg.Done()
			log.Debug("Отправка уведомления", zap.Strings("platforms", s.Platforms()), zap.Int("count", len(tokens)))
			if err := s.Send(ctx, tokens, title, options); err != nil {
				mu.Lock()
				sendErrors = append(sendErrors, fmt.Errorf("%v: %w", s.Platforms(), err))
				mu.Unlock()
			}
		}(sender, tokens)
	}

	wg.Wait()

	if len(sendErrors) > 0 {
		log.Error("Произошли ошибки во время показа уведомления", zap.Errors("errors", sendErrors))
		return errors.Join(sendErrors...)
	}

	log.Info("Уведомление передано на все устройства", zap.Int("devices", len(deviceTokens)))
	return nil
}
