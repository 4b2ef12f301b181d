package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"notification-relay/internal/models"
	"notification-relay/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPTokenProvider_GetUserDeviceTokens(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Tokens are fetched with a signed inter-service token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/internal/auth/users/"+userID.String()+"/device-tokens", r.URL.Path)

			header := r.Header.Get(service.InternalServiceTokenHeader)
			assert.NotEqual(t, "s3cret", header, "секрет не должен уходить в заголовке как есть")
			claims := &jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(header, claims, func(*jwt.Token) (interface{}, error) {
				return []byte("s3cret"), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if assert.NoError(t, err) {
				assert.True(t, token.Valid)
				assert.Equal(t, service.ServiceName, claims.Subject)
			}

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode([]models.DeviceTokenInfo{{Token: "web-1", Platform: models.PlatformWeb}})
		}))
		defer srv.Close()

		provider := service.NewHTTPTokenProvider(srv.Client(), srv.URL, zap.NewNop(), "s3cret")

		tokens, err := provider.GetUserDeviceTokens(ctx, userID)

		require.NoError(t, err)
		assert.Equal(t, []models.DeviceTokenInfo{{Token: "web-1", Platform: models.PlatformWeb}}, tokens)
	})

	t.Run("No header without a secret", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get(service.InternalServiceTokenHeader))
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		provider := service.NewHTTPTokenProvider(srv.Client(), srv.URL, zap.NewNop(), "")

		tokens, err := provider.GetUserDeviceTokens(ctx, userID)

		require.NoError(t, err)
		assert.Empty(t, tokens)
	})

	t.Run("Unexpected status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		provider := service.NewHTTPTokenProvider(srv.Client(), srv.URL, zap.NewNop(), "")

		_, err := provider.GetUserDeviceTokens(ctx, userID)

		assert.ErrorContains(t, err, "503")
	})

	t.Run("Empty URL uses the stub", func(t *testing.T) {
		provider := service.NewHTTPTokenProvider(http.DefaultClient, "", zap.NewNop(), "")

		tokens, err := provider.GetUserDeviceTokens(ctx, userID)

		require.NoError(t, err)
		assert.Empty(t, tokens)
	})
}
