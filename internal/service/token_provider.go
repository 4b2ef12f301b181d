package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"notification-relay/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InternalServiceTokenHeader - заголовок с межсервисным JWT.
const InternalServiceTokenHeader = "X-Internal-Service-Token"

const (
	// ServiceName попадает в issuer и subject исходящих межсервисных токенов.
	ServiceName = "notification-relay"

	interServiceTokenTTL = time.Minute
)

// SignInterServiceToken создает короткоживущий HS256 JWT, подписанный общим секретом.
// Тот же формат проверяет handler.InternalServiceAuth у входящих запросов.
func SignInterServiceToken(secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    ServiceName,
		Subject:   ServiceName,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign inter-service token: %w", err)
	}
	return signed, nil
}

// TokenProvider определяет интерфейс для получения токенов устройств пользователя.
type TokenProvider interface {
	GetUserDeviceTokens(ctx context.Context, userID uuid.UUID) ([]models.DeviceTokenInfo, error)
}

// HTTPClient интерфейс для *http.Client для мокирования
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type httpTokenProvider struct {
	client HTTPClient
	url    string // Базовый URL сервиса токенов (например, http://auth-service:8081)
	logger *zap.Logger
	secret string
}

// NewHTTPTokenProvider создает провайдер токенов через HTTP.
// Без URL возвращает заглушку, которая не знает ни одного устройства.
func NewHTTPTokenProvider(client HTTPClient, url string, logger *zap.Logger, interServiceSecret string) TokenProvider {
	if url == "" {
		logger.Warn("URL для TokenService не указан, используется заглушка TokenProvider")
		return &stubTokenProvider{logger: logger.Named("stub_token_provider")}
	}
	if interServiceSecret == "" {
		logger.Warn("InterServiceSecret не установлен для HTTPTokenProvider, запросы к сервису токенов могут быть отклонены")
	}
	logger.Info("Инициализация HTTP Token Provider", zap.String("url", url), zap.Bool("secretLoaded", interServiceSecret != ""))
	return &httpTokenProvider{
		client: client,
		url:    url,
		logger: logger.Named("http_token_provider"),
		secret: interServiceSecret,
	}
}

func (p *httpTokenProvider) GetUserDeviceTokens(ctx context.Context, userID uuid.UUID) ([]models.DeviceTokenInfo, error) {
	if userID == uuid.Nil {
		return nil, nil
	}

	log := p.logger.With(zap.String("user_id", userID.String()))
	targetURL := fmt.Sprintf("%s/internal/auth/users/%s/device-tokens", p.url, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса к token service: %w", err)
	}
	if p.secret != "" {
		serviceToken, err := SignInterServiceToken(p.secret, interServiceTokenTTL)
		if err != nil {
			return nil, err
		}
		req.Header.Set(InternalServiceTokenHeader, serviceToken)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		log.Error("Ошибка выполнения HTTP запроса к token service", zap.Error(err), zap.Duration("duration", duration))
		return nil, fmt.Errorf("ошибка запроса к token service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error("Token service вернул неожиданный статус", zap.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("token service вернул статус %d", resp.StatusCode)
	}

	var tokens []models.DeviceTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("ошибка декодирования ответа token service: %w", err)
	}

	log.Debug("Токены устройства получены", zap.Int("count", len(tokens)), zap.Duration("duration", duration))
	return tokens, nil
}

// --- Заглушка для TokenProvider ---

type stubTokenProvider struct {
	logger *zap.Logger
}

func (p *stubTokenProvider) GetUserDeviceTokens(ctx context.Context, userID uuid.UUID) ([]models.DeviceTokenInfo, error) {
	p.logger.Warn("Используется ЗАГЛУШКА для TokenProvider", zap.String("user_id", userID.String()))
	return []models.DeviceTokenInfo{}, nil
}
