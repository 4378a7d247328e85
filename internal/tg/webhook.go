package tg

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/group-duty-bot/internal/observability"
)

// AllowedUpdates: всё, что нужно диалогу и учёту групп.
var AllowedUpdates = []string{"message", "callback_query", "my_chat_member"}

// webhookParams: в v5.5.1 у WebhookConfig нет secret_token, поэтому параметры собираем сами.
func webhookParams(url, secret string) (tgbotapi.Params, error) {
	p := tgbotapi.Params{}
	p["url"] = url
	p.AddNonEmpty("secret_token", secret)
	if err := p.AddInterface("allowed_updates", AllowedUpdates); err != nil {
		return nil, err
	}
	return p, nil
}

// SetWebhook регистрирует url; Telegram будет присылать secret в заголовке каждого апдейта.
func SetWebhook(bot *tgbotapi.BotAPI, url, secret string) error {
	p, err := webhookParams(url, secret)
	if err != nil {
		return fmt.Errorf("webhook params: %w", err)
	}
	if _, err := bot.MakeRequest("setWebhook", p); err != nil {
		if isSystemErr(err) {
			observability.CaptureErr(err)
		}
		return err
	}
	return nil
}
