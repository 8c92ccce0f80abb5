package notify

import "context"

// Message — одно push-уведомление получателю.
type Message struct {
	DeviceKey  string // FCM-токен устройства
	TelegramID int64  // chat id, если канал telegram
	Title      string
	Body       string
	Data       map[string]string
}

// Sender — внешний канал доставки. Ошибка отправки возвращается наверх:
// политика повторов живёт в диспетчере outbox, не здесь.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Discard — канал "off": доставка выключена, сообщения тихо отбрасываются.
type Discard struct{}

func (Discard) Send(context.Context, Message) error { return nil }
