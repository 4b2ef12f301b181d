package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Состояния клиента, которые сообщает страница.
const (
	StateForeground = "foreground"
	StateBackground = "background"
)

const foregroundKeyPrefix = "relay:presence:foreground:"

// Tracker хранит, находится ли клиент пользователя на переднем плане.
// Сообщения для клиентов на переднем плане не показываются фоновым релеем.
type Tracker interface {
	IsForeground(ctx context.Context, userID uuid.UUID) (bool, error)
	MarkForeground(ctx context.Context, userID uuid.UUID, ttl time.Duration) error
	MarkBackground(ctx context.Context, userID uuid.UUID) error
}

// Compile-time check
var _ Tracker = (*redisTracker)(nil)

type redisTracker struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisTracker создает Tracker поверх Redis.
// Отметка "передний план" живет ttl и исчезает сама, если страница перестала сообщать о себе.
func NewRedisTracker(client *redis.Client, logger *zap.Logger) Tracker {
	return &redisTracker{
		client: client,
		logger: logger.Named("RedisPresenceTracker"),
	}
}

func foregroundKey(userID uuid.UUID) string {
	return foregroundKeyPrefix + userID.String()
}

func (t *redisTracker) IsForeground(ctx context.Context, userID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}
	_, err := t.client.Get(ctx, foregroundKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get presence for user %s: %w", userID, err)
	}
	return true, nil
}

func (t *redisTracker) MarkForeground(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	if userID == uuid.Nil {
		return fmt.Errorf("cannot mark presence for nil user ID")
	}
	if err := t.client.Set(ctx, foregroundKey(userID), time.Now().UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		return fmt.Errorf("failed to set foreground presence for user %s: %w", userID, err)
	}
	t.logger.Debug("Клиент на переднем плане", zap.String("user_id", userID.String()), zap.Duration("ttl", ttl))
	return nil
}

func (t *redisTracker) MarkBackground(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("cannot mark presence for nil user ID")
	}
	if err := t.client.Del(ctx, foregroundKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear foreground presence for user %s: %w", userID, err)
	}
	t.logger.Debug("Клиент ушел в фон", zap.String("user_id", userID.String()))
	return nil
}

// --- Заглушка: все клиенты считаются фоновыми ---

type noopTracker struct{}

// NewNoopTracker возвращает Tracker, для которого любой клиент находится в фоне.
// Используется, когда Redis не настроен.
func NewNoopTracker() Tracker {
	return noopTracker{}
}

func (noopTracker) IsForeground(context.Context, uuid.UUID) (bool, error) { return false, nil }

func (noopTracker) MarkForeground(context.Context, uuid.UUID, time.Duration) error { return nil }

func (noopTracker) MarkBackground(context.Context, uuid.UUID) error { return nil }
