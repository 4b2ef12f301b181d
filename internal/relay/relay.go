package relay

import (
	"context"
	"errors"
	"fmt"

	"notification-relay/internal/models"

	"go.uber.org/zap"
)

// ErrMalformedPayload возвращается, если в payload нет поля notification.
var ErrMalformedPayload = errors.New("malformed push payload: notification is missing")

// Displayer - возможность хоста показать системное уведомление.
type Displayer interface {
	ShowNotification(ctx context.Context, recipient models.Recipient, title string, options models.NotificationOptions) error
}

// Relay передает push-сообщения, полученные в фоне, в показ уведомлений.
// Состояния между вызовами не хранит.
type Relay struct {
	displayer Displayer
	logger    *zap.Logger
}

// NewRelay создает релей с явно переданным отображателем уведомлений.
func NewRelay(displayer Displayer, logger *zap.Logger) *Relay {
	return &Relay{
		displayer: displayer,
		logger:    logger.Named("background_relay"),
	}
}

// OnBackgroundMessage показывает уведомление с заголовком и текстом из payload.
// Заголовок и текст передаются без изменений.
func (r *Relay) OnBackgroundMessage(ctx context.Context, payload *models.PushPayload) error {
	if payload == nil {
		r.logger.Warn("Получено пустое фоновое сообщение")
		return ErrMalformedPayload
	}

	log := r.logger.With(
		zap.String("message_id", payload.MessageID),
		zap.String("user_id", payload.UserID),
	)
	log.Info("Получено фоновое сообщение", zap.Bool("has_notification", payload.Notification != nil))

	if payload.Notification == nil {
		log.Warn("В фоновом сообщении отсутствует notification, показ невозможен")
		return ErrMalformedPayload
	}

	title := payload.Notification.Title
	options := models.NotificationOptions{
		Body: payload.Notification.Body,
	}

	if err := r.displayer.ShowNotification(ctx, payload.Recipient(), title, options); err != nil {
		log.Error("Ошибка показа уведомления", zap.Error(err))
		return fmt.Errorf("show notification: %w", err)
	}

	log.Debug("Уведомление передано на показ", zap.String("title", title))
	return nil
}
