package mocks

import (
	"context"
	"time"

	"notification-relay/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockDisplayer is a mock type for the relay.Displayer type
type MockDisplayer struct {
	mock.Mock
}

// ShowNotification provides a mock function with given fields: ctx, recipient, title, options
func (_m *MockDisplayer) ShowNotification(ctx context.Context, recipient models.Recipient, title string, options models.NotificationOptions) error {
	ret := _m.Called(ctx, recipient, title, options)
	return ret.Error(0)
}

// NewMockDisplayer creates a new instance of MockDisplayer and registers cleanup assertions.
func NewMockDisplayer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockDisplayer {
	m := &MockDisplayer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// MockTracker is a mock type for the presence.Tracker type
type MockTracker struct {
	mock.Mock
}

// IsForeground provides a mock function with given fields: ctx, userID
func (_m *MockTracker) IsForeground(ctx context.Context, userID uuid.UUID) (bool, error) {
	ret := _m.Called(ctx, userID)

	var r0 bool
	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID) bool); ok {
		r0 = rf(ctx, userID)
	} else {
		r0 = ret.Bool(0)
	}
	return r0, ret.Error(1)
}

// MarkForeground provides a mock function with given fields: ctx, userID, ttl
func (_m *MockTracker) MarkForeground(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	ret := _m.Called(ctx, userID, ttl)
	return ret.Error(0)
}

// MarkBackground provides a mock function with given fields: ctx, userID
func (_m *MockTracker) MarkBackground(ctx context.Context, userID uuid.UUID) error {
	ret := _m.Called(ctx, userID)
	return ret.Error(0)
}

// NewMockTracker creates a new instance of MockTracker and registers cleanup assertions.
func NewMockTracker(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTracker {
	m := &MockTracker{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// MockPlatformSender is a mock type for the service.PlatformSender type
type MockPlatformSender struct {
	mock.Mock
}

// Send provides a mock function with given fields: ctx, tokens, title, options
func (_m *MockPlatformSender) Send(ctx context.Context, tokens []string, title string, options models.NotificationOptions) error {
	ret := _m.Called(ctx, tokens, title, options)
	return ret.Error(0)
}

// Platforms provides a mock function with given fields:
func (_m *MockPlatformSender) Platforms() []string {
	ret := _m.Called()

	var r0 []string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}
	return r0
}

// MockTokenProvider is a mock type for the service.TokenProvider type
type MockTokenProvider struct {
	mock.Mock
}

// GetUserDeviceTokens provides a mock function with given fields: ctx, userID
func (_m *MockTokenProvider) GetUserDeviceTokens(ctx context.Context, userID uuid.UUID) ([]models.DeviceTokenInfo, error) {
	ret := _m.Called(ctx, userID)

	var r0 []models.DeviceTokenInfo
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.DeviceTokenInfo)
	}
	return r0, ret.Error(1)
}

// MockTokenDeletionPublisher is a mock type for the service.TokenDeletionPublisher type
type MockTokenDeletionPublisher struct {
	mock.Mock
}

// PublishTokenDeletion provides a mock function with given fields: ctx, token
func (_m *MockTokenDeletionPublisher) PublishTokenDeletion(ctx context.Context, token string) error {
	ret := _m.Called(ctx, token)
	return ret.Error(0)
}
