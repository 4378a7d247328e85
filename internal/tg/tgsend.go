package tg

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/group-duty-bot/internal/observability"
)

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

// isNotModified: правка тем же текстом и той же клавиатурой; для нас это успех.
func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

func Send(bot *tgbotapi.BotAPI, msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, err := bot.Send(msg)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return m, err
}

func Request(bot *tgbotapi.BotAPI, req tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	r, err := bot.Request(req)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return r, err
}
