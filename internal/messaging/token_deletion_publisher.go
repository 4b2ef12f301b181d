package messaging

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// TokenDeletionPublisher отправляет токены устройств, отвергнутые провайдером, в RabbitMQ.
type TokenDeletionPublisher struct {
	conn      *amqp.Connection
	logger    *zap.Logger
	queueName string
}

// NewTokenDeletionPublisher создает publisher и проверяет, что очередь можно объявить.
func NewTokenDeletionPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*TokenDeletionPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection is nil")
	}

	publisher := &TokenDeletionPublisher{
		conn:      conn,
		logger:    logger.Named("TokenDeletionPublisher").With(zap.String("queue", queueName)),
		queueName: queueName,
	}

	if err := publisher.verifyQueue(); err != nil {
		return nil, fmt.Errorf("failed to verify queue %s on init: %w", queueName, err)
	}

	publisher.logger.Info("TokenDeletionPublisher инициализирован")
	return publisher, nil
}

func (p *TokenDeletionPublisher) verifyQueue() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue '%s': %w", p.queueName, err)
	}
	return nil
}

// PublishTokenDeletion публикует токен в очередь для удаления.
func (p *TokenDeletionPublisher) PublishTokenDeletion(ctx context.Context, token string) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	err = ch.PublishWithContext(ctx,
		"",          // exchange (default)
		p.queueName, // routing key (имя очереди)
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "text/plain",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         []byte(token),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish token deletion message: %w", err)
	}

	tokenDeletionsPublished.Inc()
	p.logger.Debug("Токен опубликован на удаление")
	return nil
}
