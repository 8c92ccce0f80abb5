package notify

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/school-admin-api/internal/observability"
)

// TelegramSender — запасной канал для родителей без мобильного приложения,
// но с привязанным telegram_id.
type TelegramSender struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramSender(token string) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramSender{bot: bot}, nil
}

func (s *TelegramSender) Send(ctx context.Context, msg Message) error {
	if msg.TelegramID == 0 {
		return errors.New("empty telegram id")
	}
	text := msg.Title
	if msg.Body != "" {
		text += "\n" + msg.Body
	}
	_, err := s.bot.Send(tgbotapi.NewMessage(msg.TelegramID, text))
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return err
}

// Считаем системными: 5xx, 429, timeout. 400-ки и типичные телеграм-валидации в Sentry не шлём.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	if strings.Contains(s, "429") || strings.Contains(s, "502") || strings.Contains(s, "503") || strings.Contains(s, "timeout") {
		return true
	}
	return false
}
