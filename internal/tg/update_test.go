package tg

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/group-duty-bot/internal/bot/flow"
)

func private(id int64) *tgbotapi.Chat { return &tgbotapi.Chat{ID: id, Type: "private"} }

func TestActionOf(t *testing.T) {
	from := &tgbotapi.User{ID: 42}

	t.Run("command", func(t *testing.T) {
		u := tgbotapi.Update{Message: &tgbotapi.Message{
			Chat: private(42), From: from, Text: "/start",
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
		}}
		a, _, ok := ActionOf(u)
		if !ok || a.Kind != flow.ActionCommand || a.Command != "start" {
			t.Fatalf("ожидали команду start, получили %+v", a)
		}
	})

	t.Run("text", func(t *testing.T) {
		u := tgbotapi.Update{Message: &tgbotapi.Message{Chat: private(42), From: from, Text: "Шевченко"}}
		a, _, ok := ActionOf(u)
		if !ok || a.Kind != flow.ActionText || a.Text != "Шевченко" || a.SenderID != 42 {
			t.Fatalf("неожиданное действие: %+v", a)
		}
	})

	t.Run("largest_photo", func(t *testing.T) {
		u := tgbotapi.Update{Message: &tgbotapi.Message{
			Chat: private(42), From: from, Caption: "готово",
			Photo: []tgbotapi.PhotoSize{{FileID: "small", Width: 90}, {FileID: "big", Width: 1280}},
		}}
		a, fileID, ok := ActionOf(u)
		if !ok || a.Kind != flow.ActionPhoto || fileID != "big" || a.Text != "готово" {
			t.Fatalf("неожиданное действие: %+v, file=%q", a, fileID)
		}
	})

	t.Run("callback", func(t *testing.T) {
		u := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID: "cb1", From: from, Data: "Admin",
			Message: &tgbotapi.Message{MessageID: 7, Chat: private(42)},
		}}
		a, _, ok := ActionOf(u)
		if !ok || a.Kind != flow.ActionCallback || a.Token != "Admin" || a.MessageID != 7 || a.CallbackID != "cb1" {
			t.Fatalf("неожиданное действие: %+v", a)
		}
	})

	t.Run("group_message_ignored", func(t *testing.T) {
		u := tgbotapi.Update{Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: -100, Type: "supergroup"}, From: from, Text: "привіт",
		}}
		if _, _, ok := ActionOf(u); ok {
			t.Fatal("сообщения групп не должны попадать в диалог")
		}
	})
}

func TestGroupChange(t *testing.T) {
	upd := func(status string) tgbotapi.Update {
		return tgbotapi.Update{MyChatMember: &tgbotapi.ChatMemberUpdated{
			Chat:          tgbotapi.Chat{ID: -100, Type: "group"},
			NewChatMember: tgbotapi.ChatMember{Status: status},
		}}
	}
	if id, joined, ok := GroupChange(upd("member")); !ok || !joined || id != -100 {
		t.Fatalf("ожидали добавление группы: %d %v %v", id, joined, ok)
	}
	if _, joined, ok := GroupChange(upd("kicked")); !ok || joined {
		t.Fatal("ожидали удаление группы")
	}
	if _, _, ok := GroupChange(upd("restricted")); ok {
		t.Fatal("restricted не меняет список групп")
	}
}

func TestWebhookParams(t *testing.T) {
	p, err := webhookParams("https://bot.example.org/bot/webhook", "abc_123")
	if err != nil {
		t.Fatalf("webhookParams: %v", err)
	}
	if p["url"] != "https://bot.example.org/bot/webhook" || p["secret_token"] != "abc_123" {
		t.Fatalf("неверные параметры: %v", p)
	}
	if p["allowed_updates"] != `["message","callback_query","my_chat_member"]` {
		t.Fatalf("allowed_updates: %q", p["allowed_updates"])
	}
}
