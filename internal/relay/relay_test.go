package relay_test

import (
	"context"
	"errors"
	"testing"

	"notification-relay/internal/mocks"
	"notification-relay/internal/models"
	"notification-relay/internal/relay"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRelay_OnBackgroundMessage(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Order ready notification is shown as is", func(t *testing.T) {
		displayer := mocks.NewMockDisplayer(t)
		r := relay.NewRelay(displayer, zap.NewNop())

		payload := &models.PushPayload{
			UserID: userID.String(),
			Notification: &models.PushNotification{
				Title: "Order Ready",
				Body:  "Your order #42 is ready for pickup",
			},
		}

		displayer.On("ShowNotification",
			mock.Anything,
			models.Recipient{UserID: userID},
			"Order Ready",
			models.NotificationOptions{Body: "Your order #42 is ready for pickup"},
		).Return(nil).Once()

		err := r.OnBackgroundMessage(ctx, payload)

		require.NoError(t, err)
	})

	t.Run("Title and body are passed byte for byte", func(t *testing.T) {
		displayer := mocks.NewMockDisplayer(t)
		r := relay.NewRelay(displayer, zap.NewNop())

		title := "  Заказ готов!\t<b>🍕</b>  "
		body := "Line one\nLine two   & \"quotes\""
		payload := &models.PushPayload{
			Notification: &models.PushNotification{Title: title, Body: body},
		}

		displayer.On("ShowNotification", mock.Anything, mock.Anything, title, models.NotificationOptions{Body: body}).
			Return(nil).Once()

		require.NoError(t, r.OnBackgroundMessage(ctx, payload))
	})

	t.Run("Empty title and body are still shown", func(t *testing.T) {
		displayer := mocks.NewMockDisplayer(t)
		r := relay.NewRelay(displayer, zap.NewNop())

		displayer.On("ShowNotification", mock.Anything, mock.Anything, "", models.NotificationOptions{}).
			Return(nil).Once()

		require.NoError(t, r.OnBackgroundMessage(ctx, &models.PushPayload{Notification: &models.PushNotification{}}))
	})

	t.Run("Recipient device tokens are forwarded", func(t *testing.T) {
		displayer := mocks.NewMockDisplayer(t)
		r := relay.NewRelay(displayer, zap.NewNop())

		tokens := []models.DeviceTokenInfo{{Token: "web-token", Platform: models.PlatformWeb}}
		payload := &models.PushPayload{
			UserID:       userID.String(),
			DeviceTokens: tokens,
			Notification: &models.PushNotification{Title: "T", Body: "B"},
		}

		displayer.On("ShowNotification", mock.Anything, models.Recipient{UserID: userID, DeviceTokens: tokens}, "T", models.NotificationOptions{Body: "B"}).
			Return(nil).Once()

		require.NoError(t, r.OnBackgroundMessage(ctx, payload))
	})

	t.Run("Non UUID user id still shows the notification", func(t *testing.T) {
		displayer := mocks.NewMockDisplayer(t)
		r := relay.NewRelay(displayer, zap.NewNop())

		tokens := []models.DeviceTokenInfo{{Token: "web-token", Platform: models.PlatformWeb}}
		payload := &models.PushPayload{
			UserID:       "kX9fFirebaseUid123",
			DeviceTokens: tokens,
			Notification: &models.PushNotification{Title: "Order Ready", Body: "B"},
		}

		displayer.On("ShowNotification", mock.Anything, models.Recipient{UserID: uuid.Nil, DeviceTokens: tokens}, "Order Ready", models.NotificationOptions{Body: "B"}).
			Return(nil).Once()

		require.NoError(t, r.OnBackgroundMessage(ctx, payload))
	})

	t.Run("Missing notification does not complete", func(t *testing.T) {
		displayer := mocks.NewMockDisplayer(t)
		r := relay.NewRelay(displayer, zap.NewNop())

		err := r.OnBackgroundMessage(ctx, &models.PushPayload{UserID: userID.String(), Data: map[string]any{"k": "v"}})

		assert.ErrorIs(t, err, relay.ErrMalformedPayload)
		displayer.AssertNotCalled(t, "ShowNotification", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Nil payload does not complete", func(t *testing.T) {
		displayer := mocks.NewMockDisplayer(t)
		r := relay.NewRelay(displayer, zap.NewNop())

		err := r.OnBackgroundMessage(ctx, nil)

		assert.ErrorIs(t, err, relay.ErrMalformedPayload)
		displayer.AssertNotCalled(t, "ShowNotification", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Display error is returned", func(t *testing.T) {
		displayer := mocks.NewMockDisplayer(t)
		r := relay.NewRelay(displayer, zap.NewNop())
		displayErr := errors.New("fcm unavailable")

		displayer.On("ShowNotification", mock.Anything, mock.Anything, "T", models.NotificationOptions{Body: "B"}).
			Return(displayErr).Once()

		err := r.OnBackgroundMessage(ctx, &models.PushPayload{Notification: &models.PushNotification{Title: "T", Body: "B"}})

		assert.ErrorIs(t, err, displayErr)
		assert.NotErrorIs(t, err, relay.ErrMalformedPayload)
	})

	t.Run("Two payloads produce two independent calls", func(t *testing.T) {
		displayer := mocks.NewMockDisplayer(t)
		r := relay.NewRelay(displayer, zap.NewNop())

		first := &models.PushPayload{Notification: &models.PushNotification{Title: "First", Body: "one"}}
		second := &models.PushPayload{Notification: &models.PushNotification{Title: "Second", Body: "two"}}

		displayer.On("ShowNotification", mock.Anything, mock.Anything, "First", models.NotificationOptions{Body: "one"}).Return(nil).Once()
		displayer.On("ShowNotification", mock.Anything, mock.Anything, "Second", models.NotificationOptions{Body: "two"}).Return(nil).Once()

		require.NoError(t, r.OnBackgroundMessage(ctx, first))
		require.NoError(t, r.OnBackgroundMessage(ctx, second))

		displayer.AssertNumberOfCalls(t, "ShowNotification", 2)
		// Payload не изменяется релеем
		assert.Equal(t, "First", first.Notification.Title)
		assert.Equal(t, "one", first.Notification.Body)
	})
}
