package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"notification-relay/internal/models"
	"notification-relay/internal/presence"
	"notification-relay/internal/relay"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Outcome - итог обработки одного сообщения.
type Outcome string

const (
	OutcomeDisplayed  Outcome = "displayed"
	OutcomeForeground Outcome = "foreground"
	OutcomeMalformed  Outcome = "malformed"
	OutcomeFailed     Outcome = "failed"
)

// BackgroundHandler - обработчик сообщений, доставленных в фоне.
type BackgroundHandler interface {
	OnBackgroundMessage(ctx context.Context, payload *models.PushPayload) error
}

var _ BackgroundHandler = (*relay.Relay)(nil)

// Processor обрабатывает входящие сообщения: решает, доставлено ли
// сообщение в фоне, и передает фоновые сообщения релею.
type Processor struct {
	logger  *zap.Logger
	handler BackgroundHandler
	tracker presence.Tracker
	timeout time.Duration
}

func NewProcessor(logger *zap.Logger, handler BackgroundHandler, tracker presence.Tracker, timeout time.Duration) *Processor {
	if tracker == nil {
		tracker = presence.NewNoopTracker()
	}
	return &Processor{
		logger:  logger.Named("processor"),
		handler: handler,
		tracker: tracker,
		timeout: timeout,
	}
}

// Handle обрабатывает тело сообщения и возвращает итог.
// Ошибка возвращается для итогов malformed и failed.
func (p *Processor) Handle(ctx context.Context, body []byte) (Outcome, error) {
	var payload models.PushPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return OutcomeMalformed, fmt.Errorf("decode push payload: %w", err)
	}

	log := p.logger.With(zap.String("message_id", payload.MessageID), zap.String("user_id", payload.UserID))

	// Без notification показывать нечего: присутствие не проверяем,
	// релей сам вернет ErrMalformedPayload
	if payload.Notification != nil {
		foreground, err := p.tracker.IsForeground(ctx, payload.UserUUID())
		if err != nil {
			// Трекер недоступен - считаем клиента фоновым, чтобы не потерять уведомление
			log.Warn("Не удалось проверить присутствие клиента, сообщение считается фоновым", zap.Error(err))
			foreground = false
		}
		if foreground {
			log.Info("Клиент на переднем плане, фоновый показ пропущен")
			return OutcomeForeground, nil
		}
	}

	processCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.handler.OnBackgroundMessage(processCtx, &payload); err != nil {
		if errors.Is(err, relay.ErrMalformedPayload) {
			return OutcomeMalformed, err
		}
		return OutcomeFailed, err
	}
	return OutcomeDisplayed, nil
}

// ProcessMessage обрабатывает доставку RabbitMQ и подтверждает ее.
// Повторной постановки в очередь нет: ошибочные сообщения отбрасываются.
func (p *Processor) ProcessMessage(ctx context.Context, d amqp.Delivery) {
	messagesReceived.Inc()
	log := p.logger.With(zap.Uint64("delivery_tag", d.DeliveryTag))

	outcome, err := p.Handle(ctx, d.Body)
	messagesProcessed.WithLabelValues(string(outcome)).Inc()

	switch outcome {
	case OutcomeDisplayed, OutcomeForeground:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("Ошибка Ack сообщения", zap.Error(ackErr))
			return
		}
		log.Debug("Сообщение обработано и подтверждено (Ack)", zap.String("outcome", string(outcome)))
	default:
		log.Error("Ошибка обработки сообщения",
			zap.String("outcome", string(outcome)),
			zap.Error(err),
			zap.ByteString("body", d.Body),
		)
		if ackErr := d.Nack(false, false); ackErr != nil {
			log.Error("Ошибка Nack сообщения", zap.Error(ackErr))
		}
	}
}
