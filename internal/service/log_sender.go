package service

import (
	"context"

	"notification-relay/internal/models"

	"go.uber.org/zap"
)

// --- Заглушка для платформ без настроенного провайдера ---

type logSender struct {
	logger    *zap.Logger
	platforms []string
}

// NewLogSender создает отправителя, который только пишет уведомление в лог.
func NewLogSender(logger *zap.Logger, platforms ...string) PlatformSender {
	return &logSender{
		logger:    logger.Named("stub_sender"),
		platforms: platforms,
	}
}

func (s *logSender) Send(ctx context.Context, tokens []string, title string, options models.NotificationOptions) error {
	s.logger.Info("ЗАГЛУШКА: Показ уведомления",
		zap.Strings("platforms", s.platforms),
		zap.Int("devices", len(tokens)),
		zap.String("title", title),
		zap.String("body", options.Body),
	)
	return nil
}

func (s *logSender) Platforms() []string {
	return s.platforms
}
