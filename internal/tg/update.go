package tg

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/group-duty-bot/internal/bot/flow"
)

// ActionOf разбирает апдейт личного чата. Для фото возвращает file_id самого
// крупного размера; сами байты докачивает Channel.Action.
func ActionOf(u tgbotapi.Update) (flow.Action, string, bool) {
	if cq := u.CallbackQuery; cq != nil {
		if cq.Message == nil || cq.Message.Chat == nil || !cq.Message.Chat.IsPrivate() || cq.From == nil {
			return flow.Action{}, "", false
		}
		return flow.Action{
			Kind:       flow.ActionCallback,
			ChatID:     cq.Message.Chat.ID,
			SenderID:   cq.From.ID,
			Token:      cq.Data,
			CallbackID: cq.ID,
			MessageID:  cq.Message.MessageID,
		}, "", true
	}

	msg := u.Message
	if msg == nil || msg.Chat == nil || !msg.Chat.IsPrivate() || msg.From == nil {
		return flow.Action{}, "", false
	}
	a := flow.Action{ChatID: msg.Chat.ID, SenderID: msg.From.ID}
	switch {
	case msg.IsCommand():
		a.Kind = flow.ActionCommand
		a.Command = msg.Command()
		a.Text = msg.CommandArguments()
	case len(msg.Photo) > 0:
		// размеры идут по возрастанию
		a.Kind = flow.ActionPhoto
		a.Text = msg.Caption
		return a, msg.Photo[len(msg.Photo)-1].FileID, true
	case msg.Text != "":
		a.Kind = flow.ActionText
		a.Text = msg.Text
	default:
		return flow.Action{}, "", false
	}
	return a, "", true
}

// GroupChange: бота добавили в группу или убрали из неё.
func GroupChange(u tgbotapi.Update) (chatID int64, joined bool, ok bool) {
	m := u.MyChatMember
	if m == nil || !(m.Chat.IsGroup() || m.Chat.IsSuperGroup()) {
		return 0, false, false
	}
	switch m.NewChatMember.Status {
	case "member", "administrator":
		return m.Chat.ID, true, true
	case "left", "kicked":
		return m.Chat.ID, false, true
	}
	return 0, false, false
}
