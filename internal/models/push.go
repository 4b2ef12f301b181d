package models

import "github.com/google/uuid"

// Платформы токенов устройств.
const (
	PlatformWeb     = "web"
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
)

// PushPayload - сообщение, доставляемое транспортом push-сообщений.
// Notification может отсутствовать: наличие проверяется релеем явно.
type PushPayload struct {
	MessageID    string            `json:"message_id,omitempty"`
	UserID       string            `json:"user_id,omitempty"`       // Владелец клиента, не обязательно UUID
	DeviceTokens []DeviceTokenInfo `json:"device_tokens,omitempty"` // Конкретные устройства, если известны отправителю
	Notification *PushNotification `json:"notification,omitempty"`  // Видимая часть уведомления
	Data         map[string]any    `json:"data,omitempty"`          // Дополнительные данные (релеем не читаются)
}

// PushNotification содержит видимые части push-сообщения.
type PushNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NotificationOptions - опции показа уведомления (второй аргумент вызова показа).
type NotificationOptions struct {
	Body string `json:"body"`
}

// Recipient привязывает вызов показа к клиенту, которому адресовано сообщение.
type Recipient struct {
	UserID       uuid.UUID
	DeviceTokens []DeviceTokenInfo
}

// DeviceTokenInfo содержит информацию о токене устройства.
type DeviceTokenInfo struct {
	Token    string `json:"token"`    // Сам токен (FCM, APNS)
	Platform string `json:"platform"` // Платформа ('web', 'android', 'ios')
}

// UserUUID возвращает UUID владельца или uuid.Nil, если user_id пуст или не является UUID.
// Такие сообщения считаются фоновыми, а устройства берутся только из payload.
func (p *PushPayload) UserUUID() uuid.UUID {
	id, err := uuid.Parse(p.UserID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// Recipient возвращает получателя уведомления. Устройства передаются без изменений.
func (p *PushPayload) Recipient() Recipient {
	return Recipient{
		UserID:       p.UserUUID(),
		DeviceTokens: p.DeviceTokens,
	}
}
